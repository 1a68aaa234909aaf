package models

// ScheduleKind is the tagged-variant discriminator for Schedule.
type ScheduleKind string

const (
	ScheduleEvery ScheduleKind = "every"
	ScheduleCron  ScheduleKind = "cron"
	ScheduleAt    ScheduleKind = "at"
)

// Schedule carries exactly one of its kind-specific fields, selected by Kind.
type Schedule struct {
	Kind     ScheduleKind `json:"kind"`
	EveryMs  int64        `json:"everyMs,omitempty"`
	CronExpr string       `json:"cronExpr,omitempty"`
	AtMs     int64        `json:"atMs,omitempty"`
}

// CronPayload is the work a CronJob performs when it fires.
type CronPayload struct {
	Prompt         string `json:"prompt"`
	Deliver        bool   `json:"deliver"`
	TargetChannel  string `json:"targetChannel,omitempty"`
	TargetChatID   string `json:"targetChatId,omitempty"`
}

// CronJob is one scheduled background turn.
//
// Invariants: exactly one Schedule kind is populated; At-kind jobs always
// have DeleteAfterRun = true; NextFireAtMs is always >= now immediately
// after it is (re)computed.
type CronJob struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Owner           string      `json:"owner,omitempty"` // empty for CLI-added jobs
	Schedule        Schedule    `json:"schedule"`
	Payload         CronPayload `json:"payload"`
	Enabled         bool        `json:"enabled"`
	CreatedAtMs     int64       `json:"createdAtMs"`
	NextFireAtMs    int64       `json:"nextFireAtMs"`
	LastFireAtMs    int64       `json:"lastFireAtMs,omitempty"`
	DeleteAfterRun  bool        `json:"deleteAfterRun"`
	State           map[string]any `json:"state,omitempty"`
}

// OwnedBy reports whether the job belongs to ownerKey. CLI-added jobs (empty
// Owner) are never matched by an owner-scoped query.
func (j CronJob) OwnedBy(ownerKey string) bool {
	return j.Owner != "" && j.Owner == ownerKey
}
