package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/relaykit/agentcore/internal/models"
)

// cronParser accepts the 5-field MIN HOUR DOM MON DOW form plus the
// @hourly/@daily/@weekly/@monthly/@yearly descriptor shortcuts
// (spec.md §4.10). There is no seconds field. The Descriptor option also
// admits "@every <duration>"; the scheduler's own every-N schedules use
// Schedule.Kind == ScheduleEvery.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// validateSchedule checks a Schedule's invariants without computing its
// next fire time: exactly one kind is populated with valid fields.
func validateSchedule(s models.Schedule, now time.Time) error {
	switch s.Kind {
	case models.ScheduleEvery:
		if s.EveryMs < 1 {
			return fmt.Errorf("every schedule requires every_ms >= 1")
		}
	case models.ScheduleCron:
		if s.CronExpr == "" {
			return fmt.Errorf("cron schedule requires a cron expression")
		}
		if _, err := cronParser.Parse(s.CronExpr); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", s.CronExpr, err)
		}
	case models.ScheduleAt:
		if s.AtMs <= 0 {
			return fmt.Errorf("at schedule requires at_ms")
		}
		if !time.UnixMilli(s.AtMs).After(now) {
			return fmt.Errorf("at schedule must be strictly in the future")
		}
	default:
		return fmt.Errorf("unknown schedule kind %q", s.Kind)
	}
	return nil
}

// nextFire computes the next time s should fire at or after from.
func nextFire(s models.Schedule, from time.Time) (time.Time, error) {
	switch s.Kind {
	case models.ScheduleEvery:
		if s.EveryMs < 1 {
			return time.Time{}, fmt.Errorf("every schedule requires every_ms >= 1")
		}
		return from.Add(time.Duration(s.EveryMs) * time.Millisecond), nil
	case models.ScheduleCron:
		schedule, err := cronParser.Parse(s.CronExpr)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", s.CronExpr, err)
		}
		return schedule.Next(from), nil
	case models.ScheduleAt:
		return time.UnixMilli(s.AtMs), nil
	default:
		return time.Time{}, fmt.Errorf("unknown schedule kind %q", s.Kind)
	}
}
