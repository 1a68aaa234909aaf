// Package cron implements the in-turn cron tools (add/list/show/update/
// remove), each scoped to the calling owner (spec.md §4.10). The CLI's
// unrestricted cron commands talk to the same Store directly rather than
// through these tools.
package cron

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/relaykit/agentcore/internal/models"
)

// Store is the subset of scheduler operations the cron tools need. The
// scheduler package implements this; it is declared here to avoid a
// tools -> scheduler -> tools import cycle.
type Store interface {
	Add(job models.CronJob) (models.CronJob, error)
	List(ownerKey string) ([]models.CronJob, error)
	Get(id string) (models.CronJob, bool)
	Update(id string, mutate func(*models.CronJob) error) (models.CronJob, error)
	Remove(id string) error
}

func errResult(err error) (models.ToolResult, error) {
	return models.Error(err.Error()), nil
}

// AddTool implements the cron_add tool.
type AddTool struct{ store Store }

// NewAddTool constructs cron_add.
func NewAddTool(store Store) *AddTool { return &AddTool{store: store} }

func (t *AddTool) Name() string        { return "cron_add" }
func (t *AddTool) Description() string { return "Schedule a background turn to run later, once or repeatedly." }
func (t *AddTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"prompt": {"type": "string"},
			"every_ms": {"type": "integer"},
			"cron_expr": {"type": "string"},
			"at_ms": {"type": "integer"},
			"deliver": {"type": "boolean"}
		},
		"required": ["name", "prompt"]
	}`)
}

func (t *AddTool) Execute(_ context.Context, ownerKey string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Name     string `json:"name"`
		Prompt   string `json:"prompt"`
		EveryMs  int64  `json:"every_ms"`
		CronExpr string `json:"cron_expr"`
		AtMs     int64  `json:"at_ms"`
		Deliver  bool   `json:"deliver"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return errResult(err)
	}

	schedule, err := scheduleFromParams(p.EveryMs, p.CronExpr, p.AtMs)
	if err != nil {
		return errResult(err)
	}

	job := models.CronJob{
		Name:     p.Name,
		Owner:    ownerKey,
		Schedule: schedule,
		Payload:  models.CronPayload{Prompt: p.Prompt, Deliver: p.Deliver},
		Enabled:  true,
	}
	if schedule.Kind == models.ScheduleAt {
		job.DeleteAfterRun = true
	}

	created, err := t.store.Add(job)
	if err != nil {
		return errResult(err)
	}
	encoded, _ := json.Marshal(created)
	return models.Success(string(encoded)), nil
}

func scheduleFromParams(everyMs int64, cronExpr string, atMs int64) (models.Schedule, error) {
	set := 0
	if everyMs > 0 {
		set++
	}
	if cronExpr != "" {
		set++
	}
	if atMs > 0 {
		set++
	}
	if set != 1 {
		return models.Schedule{}, fmt.Errorf("exactly one of every_ms, cron_expr, at_ms must be set")
	}
	switch {
	case everyMs > 0:
		return models.Schedule{Kind: models.ScheduleEvery, EveryMs: everyMs}, nil
	case cronExpr != "":
		return models.Schedule{Kind: models.ScheduleCron, CronExpr: cronExpr}, nil
	default:
		return models.Schedule{Kind: models.ScheduleAt, AtMs: atMs}, nil
	}
}

// ListTool implements the cron_list tool, scoped to the calling owner.
type ListTool struct{ store Store }

// NewListTool constructs cron_list.
func NewListTool(store Store) *ListTool { return &ListTool{store: store} }

func (t *ListTool) Name() string        { return "cron_list" }
func (t *ListTool) Description() string { return "List the calling owner's scheduled background turns." }
func (t *ListTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ListTool) Execute(_ context.Context, ownerKey string, _ json.RawMessage) (models.ToolResult, error) {
	jobs, err := t.store.List(ownerKey)
	if err != nil {
		return errResult(err)
	}
	encoded, _ := json.Marshal(jobs)
	return models.Success(string(encoded)), nil
}

// ShowTool implements the cron_show tool.
type ShowTool struct{ store Store }

// NewShowTool constructs cron_show.
func NewShowTool(store Store) *ShowTool { return &ShowTool{store: store} }

func (t *ShowTool) Name() string        { return "cron_show" }
func (t *ShowTool) Description() string { return "Show one of the calling owner's scheduled jobs by id." }
func (t *ShowTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {"id": {"type": "string"}}, "required": ["id"]}`)
}

func (t *ShowTool) Execute(_ context.Context, ownerKey string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return errResult(err)
	}
	job, ok := t.store.Get(p.ID)
	if !ok || !job.OwnedBy(ownerKey) {
		return models.Error("job not found"), nil
	}
	encoded, _ := json.Marshal(job)
	return models.Success(string(encoded)), nil
}

// UpdateTool implements the cron_update tool.
type UpdateTool struct{ store Store }

// NewUpdateTool constructs cron_update.
func NewUpdateTool(store Store) *UpdateTool { return &UpdateTool{store: store} }

func (t *UpdateTool) Name() string        { return "cron_update" }
func (t *UpdateTool) Description() string { return "Enable, disable, or rename one of the calling owner's scheduled jobs." }
func (t *UpdateTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {"type": "string"},
			"name": {"type": "string"},
			"enabled": {"type": "boolean"}
		},
		"required": ["id"]
	}`)
}

func (t *UpdateTool) Execute(_ context.Context, ownerKey string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		ID      string `json:"id"`
		Name    *string `json:"name"`
		Enabled *bool   `json:"enabled"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return errResult(err)
	}
	existing, ok := t.store.Get(p.ID)
	if !ok || !existing.OwnedBy(ownerKey) {
		return models.Error("job not found"), nil
	}
	updated, err := t.store.Update(p.ID, func(j *models.CronJob) error {
		if p.Name != nil {
			j.Name = *p.Name
		}
		if p.Enabled != nil {
			j.Enabled = *p.Enabled
		}
		return nil
	})
	if err != nil {
		return errResult(err)
	}
	encoded, _ := json.Marshal(updated)
	return models.Success(string(encoded)), nil
}

// RemoveTool implements the cron_remove tool.
type RemoveTool struct{ store Store }

// NewRemoveTool constructs cron_remove.
func NewRemoveTool(store Store) *RemoveTool { return &RemoveTool{store: store} }

func (t *RemoveTool) Name() string        { return "cron_remove" }
func (t *RemoveTool) Description() string { return "Delete one of the calling owner's scheduled jobs." }
func (t *RemoveTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {"id": {"type": "string"}}, "required": ["id"]}`)
}

func (t *RemoveTool) Execute(_ context.Context, ownerKey string, params json.RawMessage) (models.ToolResult, error) {
	var p struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return errResult(err)
	}
	existing, ok := t.store.Get(p.ID)
	if !ok || !existing.OwnedBy(ownerKey) {
		return models.Error("job not found"), nil
	}
	if err := t.store.Remove(p.ID); err != nil {
		return errResult(err)
	}
	return models.Success(fmt.Sprintf("removed %s", p.ID)), nil
}
