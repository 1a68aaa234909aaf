// Package scheduler holds every CronJob in memory, persists mutations to
// a single JSON file, and ticks a loop that fires due jobs onto the
// inbound bus as synthetic background turns (spec.md §4.10).
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relaykit/agentcore/internal/bus"
	"github.com/relaykit/agentcore/internal/models"
)

// DefaultTickInterval is the scheduler's polling resolution; spec.md §4.10
// requires at most 1s, so the default leaves headroom.
const DefaultTickInterval = 500 * time.Millisecond

// Scheduler owns every CronJob and the file they are persisted to.
type Scheduler struct {
	mu   sync.Mutex
	jobs map[string]models.CronJob
	path string

	inbound      *bus.Bus[models.InboundMessage]
	tickInterval time.Duration
	clock        func() time.Time
	logger       *slog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithTickInterval overrides DefaultTickInterval.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithClock overrides the scheduler's clock; intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New loads path (if it exists) and returns a ready Scheduler. inbound is
// the bus synthetic cron turns are published to; it may be nil in tests
// that only exercise CRUD operations.
func New(path string, inbound *bus.Bus[models.InboundMessage], opts ...Option) (*Scheduler, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return nil, err
	}
	s := &Scheduler{
		jobs:         make(map[string]models.CronJob, len(doc.Jobs)),
		path:         path,
		inbound:      inbound,
		tickInterval: DefaultTickInterval,
		clock:        time.Now,
		logger:       slog.Default(),
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, job := range doc.Jobs {
		s.jobs[job.ID] = job
	}
	return s, nil
}

func (s *Scheduler) persistLocked() error {
	doc := document{Jobs: make([]models.CronJob, 0, len(s.jobs))}
	for _, job := range s.jobs {
		doc.Jobs = append(doc.Jobs, job)
	}
	sort.Slice(doc.Jobs, func(i, j int) bool { return doc.Jobs[i].ID < doc.Jobs[j].ID })
	return saveDocument(s.path, doc)
}

// Add validates job, assigns it an id and NextFireAtMs, persists it, and
// returns the stored copy. job.ID, CreatedAtMs, and NextFireAtMs are
// always overwritten by Add.
func (s *Scheduler) Add(job models.CronJob) (models.CronJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if err := validateSchedule(job.Schedule, now); err != nil {
		return models.CronJob{}, err
	}
	next, err := nextFire(job.Schedule, now)
	if err != nil {
		return models.CronJob{}, err
	}

	job.ID = uuid.NewString()
	job.CreatedAtMs = now.UnixMilli()
	job.NextFireAtMs = next.UnixMilli()
	if job.Schedule.Kind == models.ScheduleAt {
		job.DeleteAfterRun = true
	}

	s.jobs[job.ID] = job
	if err := s.persistLocked(); err != nil {
		delete(s.jobs, job.ID)
		return models.CronJob{}, err
	}
	return job, nil
}

// List returns every job owned by ownerKey, sorted by id for determinism.
// An empty ownerKey matches no job, including CLI-added (unowned) ones;
// use ListAll for the unrestricted view.
func (s *Scheduler) List(ownerKey string) ([]models.CronJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.CronJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.OwnedBy(ownerKey) {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListAll returns every job regardless of owner, for unrestricted CLI-side
// operations (spec.md §4.10).
func (s *Scheduler) ListAll() []models.CronJob {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.CronJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns the job with the given id, regardless of owner. Callers
// enforcing per-owner visibility must check CronJob.OwnedBy themselves
// (the in-turn cron tools do this).
func (s *Scheduler) Get(id string) (models.CronJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	return job, ok
}

// Update applies mutate to the job with the given id and persists the
// result. id, CreatedAtMs, and any previously stored State are always
// preserved even if mutate clears them, per spec.md §4.10's "update
// preserves id, createdAtMs, and any stored state."
func (s *Scheduler) Update(id string, mutate func(*models.CronJob) error) (models.CronJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return models.CronJob{}, fmt.Errorf("cron job not found: %s", id)
	}
	createdAtMs := job.CreatedAtMs
	state := job.State

	if err := mutate(&job); err != nil {
		return models.CronJob{}, err
	}
	job.ID = id
	job.CreatedAtMs = createdAtMs
	if job.State == nil {
		job.State = state
	}

	s.jobs[id] = job
	if err := s.persistLocked(); err != nil {
		return models.CronJob{}, err
	}
	return job, nil
}

// Remove deletes the job with the given id.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return fmt.Errorf("cron job not found: %s", id)
	}
	delete(s.jobs, id)
	return s.persistLocked()
}

// RunNow fires the job with the given id immediately, regardless of its
// NextFireAtMs or Enabled state, for the CLI's "cron run" command.
func (s *Scheduler) RunNow(id string) error {
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("cron job not found: %s", id)
	}
	s.fire(job, s.clock())
	return nil
}

// Clear removes every job (CLI-side only).
func (s *Scheduler) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]models.CronJob)
	return s.persistLocked()
}

// Start runs the tick loop until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop halts the tick loop and waits for it to exit.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

// Tick runs one fire pass immediately; exported for tests and for a CLI
// "run due jobs now" affordance.
func (s *Scheduler) Tick() {
	s.tick()
}

func (s *Scheduler) tick() {
	now := s.clock()

	s.mu.Lock()
	due := make([]models.CronJob, 0)
	for _, job := range s.jobs {
		if job.Enabled && job.NextFireAtMs <= now.UnixMilli() {
			due = append(due, job)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].NextFireAtMs < due[j].NextFireAtMs })

	for _, job := range due {
		s.fire(job, now)
	}
}

func (s *Scheduler) fire(job models.CronJob, now time.Time) {
	sessionOwner := job.Owner
	if sessionOwner == "" {
		sessionOwner = "job:" + job.ID
	}
	msg := models.InboundMessage{
		Channel:      "system",
		ChatID:       sessionOwner,
		SenderID:     "cron:" + job.ID,
		Content:      job.Payload.Prompt,
		ReceivedAtMs: now.UnixMilli(),
	}
	if s.inbound != nil {
		s.inbound.Publish(msg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[job.ID]
	if !ok {
		return
	}
	current.LastFireAtMs = now.UnixMilli()

	if current.Schedule.Kind == models.ScheduleAt || current.DeleteAfterRun {
		delete(s.jobs, job.ID)
		if err := s.persistLocked(); err != nil {
			s.logger.Warn("cron: failed to persist after removing fired job", "job", job.ID, "error", err)
		}
		return
	}

	next, err := nextFire(current.Schedule, now)
	if err != nil {
		s.logger.Warn("cron: failed to compute next fire time, disabling job", "job", job.ID, "error", err)
		current.Enabled = false
	} else {
		current.NextFireAtMs = next.UnixMilli()
	}
	s.jobs[job.ID] = current
	if err := s.persistLocked(); err != nil {
		s.logger.Warn("cron: failed to persist after firing job", "job", job.ID, "error", err)
	}
}
