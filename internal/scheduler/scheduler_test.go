package scheduler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/relaykit/agentcore/internal/bus"
	"github.com/relaykit/agentcore/internal/models"
)

func newTestScheduler(t *testing.T, now time.Time) (*Scheduler, *bus.Bus[models.InboundMessage]) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cron.json")
	inbound := bus.New[models.InboundMessage](8, bus.DropOldest)
	s, err := New(path, inbound, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s, inbound
}

func TestAddRejectsAtInThePast(t *testing.T) {
	now := time.Now()
	s, _ := newTestScheduler(t, now)
	_, err := s.Add(models.CronJob{
		Name:     "past",
		Schedule: models.Schedule{Kind: models.ScheduleAt, AtMs: now.Add(-time.Hour).UnixMilli()},
		Payload:  models.CronPayload{Prompt: "hi"},
	})
	if err == nil {
		t.Fatal("expected error for an at-schedule in the past")
	}
}

func TestAddAtScheduleSetsDeleteAfterRun(t *testing.T) {
	now := time.Now()
	s, _ := newTestScheduler(t, now)
	job, err := s.Add(models.CronJob{
		Name:     "once",
		Enabled:  true,
		Schedule: models.Schedule{Kind: models.ScheduleAt, AtMs: now.Add(time.Hour).UnixMilli()},
		Payload:  models.CronPayload{Prompt: "hi"},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !job.DeleteAfterRun {
		t.Fatal("expected at-kind job to have DeleteAfterRun set")
	}
	if job.ID == "" {
		t.Fatal("expected an id to be assigned")
	}
}

func TestAddRejectsInvalidCronExpr(t *testing.T) {
	now := time.Now()
	s, _ := newTestScheduler(t, now)
	_, err := s.Add(models.CronJob{
		Name:     "bad",
		Schedule: models.Schedule{Kind: models.ScheduleCron, CronExpr: "not a cron expression"},
		Payload:  models.CronPayload{Prompt: "hi"},
	})
	if err == nil {
		t.Fatal("expected error for an invalid cron expression")
	}
}

func TestListIsScopedToOwner(t *testing.T) {
	now := time.Now()
	s, _ := newTestScheduler(t, now)
	if _, err := s.Add(models.CronJob{Owner: "telegram:1", Enabled: true, Schedule: models.Schedule{Kind: models.ScheduleEvery, EveryMs: 60000}, Payload: models.CronPayload{Prompt: "a"}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.Add(models.CronJob{Owner: "telegram:2", Enabled: true, Schedule: models.Schedule{Kind: models.ScheduleEvery, EveryMs: 60000}, Payload: models.CronPayload{Prompt: "b"}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.Add(models.CronJob{Enabled: true, Schedule: models.Schedule{Kind: models.ScheduleEvery, EveryMs: 60000}, Payload: models.CronPayload{Prompt: "cli"}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	jobs, err := s.List("telegram:1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Payload.Prompt != "a" {
		t.Fatalf("expected only owner's job, got %+v", jobs)
	}

	cliJobs, err := s.List("")
	if err != nil {
		t.Fatalf("list empty owner: %v", err)
	}
	if len(cliJobs) != 0 {
		t.Fatalf("expected empty-owner list to match nothing (CLI jobs are unowned), got %+v", cliJobs)
	}

	if len(s.ListAll()) != 3 {
		t.Fatalf("expected ListAll to return every job, got %d", len(s.ListAll()))
	}
}

func TestUpdatePreservesIDAndCreatedAt(t *testing.T) {
	now := time.Now()
	s, _ := newTestScheduler(t, now)
	job, err := s.Add(models.CronJob{Enabled: true, Schedule: models.Schedule{Kind: models.ScheduleEvery, EveryMs: 60000}, Payload: models.CronPayload{Prompt: "a"}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	updated, err := s.Update(job.ID, func(j *models.CronJob) error {
		j.Name = "renamed"
		j.ID = "attempted-override"
		j.CreatedAtMs = 0
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != job.ID || updated.CreatedAtMs != job.CreatedAtMs {
		t.Fatalf("expected id/createdAt to be preserved, got %+v", updated)
	}
	if updated.Name != "renamed" {
		t.Fatalf("expected name to be updated, got %q", updated.Name)
	}
}

func TestRemoveDeletesJob(t *testing.T) {
	now := time.Now()
	s, _ := newTestScheduler(t, now)
	job, err := s.Add(models.CronJob{Enabled: true, Schedule: models.Schedule{Kind: models.ScheduleEvery, EveryMs: 60000}, Payload: models.CronPayload{Prompt: "a"}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Remove(job.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := s.Get(job.ID); ok {
		t.Fatal("expected job to be gone after remove")
	}
}

func TestTickFiresDueJobAndPublishesSyntheticMessage(t *testing.T) {
	now := time.Now()
	s, inbound := newTestScheduler(t, now)
	ch, unsub := inbound.Subscribe(nil)
	defer unsub()

	job, err := s.Add(models.CronJob{Owner: "telegram:1", Enabled: true, Schedule: models.Schedule{Kind: models.ScheduleEvery, EveryMs: 1000}, Payload: models.CronPayload{Prompt: "check in"}})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	s.Tick() // not due yet
	select {
	case msg := <-ch:
		t.Fatalf("did not expect a fire before next_fire_at_ms, got %+v", msg)
	default:
	}

	// advance the clock past the job's next fire time and tick again
	advanceScheduler(s, now.Add(2*time.Second))
	s.Tick()

	select {
	case msg := <-ch:
		if msg.Channel != "system" || msg.SenderID != "cron:"+job.ID || msg.Content != "check in" {
			t.Fatalf("unexpected synthetic message: %+v", msg)
		}
		if !msg.IsBackground() {
			t.Fatal("expected the synthetic cron message to classify as background")
		}
	default:
		t.Fatal("expected a fire after advancing past next_fire_at_ms")
	}

	refreshed, ok := s.Get(job.ID)
	if !ok {
		t.Fatal("expected recurring job to still exist after firing")
	}
	if refreshed.NextFireAtMs <= job.NextFireAtMs {
		t.Fatalf("expected next fire time to advance, got %d <= %d", refreshed.NextFireAtMs, job.NextFireAtMs)
	}
}

func TestTickDeletesAtKindJobAfterFiring(t *testing.T) {
	now := time.Now()
	s, inbound := newTestScheduler(t, now)
	_, unsub := inbound.Subscribe(nil)
	defer unsub()

	job, err := s.Add(models.CronJob{Schedule: models.Schedule{Kind: models.ScheduleAt, AtMs: now.Add(time.Second).UnixMilli()}, Payload: models.CronPayload{Prompt: "once"}, Enabled: true})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	advanceScheduler(s, now.Add(2*time.Second))
	s.Tick()

	if _, ok := s.Get(job.ID); ok {
		t.Fatal("expected one-shot job to be removed after firing")
	}
}

// advanceScheduler replaces the scheduler's clock with one fixed at to.
func advanceScheduler(s *Scheduler, to time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = func() time.Time { return to }
}
