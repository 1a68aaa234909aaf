package main

import (
	"fmt"
	"time"

	"github.com/relaykit/agentcore/internal/config"
	"github.com/relaykit/agentcore/internal/models"
	"github.com/relaykit/agentcore/internal/observability"
	"github.com/relaykit/agentcore/internal/scheduler"
	"github.com/spf13/cobra"
)

// buildCronCmd creates the "cron" command group. These commands talk to
// the scheduler's persisted store directly and carry no owner
// restriction (spec.md §4.10): they can list, inspect, and edit every
// job, including ones owned by a chat session.
func buildCronCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Inspect and edit scheduled jobs",
	}
	cmd.AddCommand(
		buildCronListCmd(),
		buildCronShowCmd(),
		buildCronAddCmd(),
		buildCronUpdateCmd(),
		buildCronRemoveCmd(),
		buildCronEnableCmd(),
		buildCronDisableCmd(),
		buildCronRunCmd(),
		buildCronClearCmd(),
	)
	return cmd
}

func withScheduler(fn func(s *scheduler.Scheduler) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := observability.NewLogger(observability.LogConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	sched, err := buildScheduler(cfg, logger)
	if err != nil {
		return err
	}
	return fn(sched)
}

func printJob(job models.CronJob) {
	fmt.Printf("%s\t%s\towner=%q\tenabled=%v\tnext=%s\n",
		job.ID, job.Name, job.Owner, job.Enabled, time.UnixMilli(job.NextFireAtMs).Format(time.RFC3339))
}

func buildCronListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scheduled jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(func(s *scheduler.Scheduler) error {
				jobs := s.ListAll()
				if !all {
					unowned := make([]models.CronJob, 0, len(jobs))
					for _, job := range jobs {
						if job.Owner == "" {
							unowned = append(unowned, job)
						}
					}
					jobs = unowned
				}
				for _, job := range jobs {
					printJob(job)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "show every job, including owned ones")
	return cmd
}

func buildCronShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job's full detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(func(s *scheduler.Scheduler) error {
				job, ok := s.Get(args[0])
				if !ok {
					return fmt.Errorf("job %s not found", args[0])
				}
				fmt.Printf("%+v\n", job)
				return nil
			})
		},
	}
}

func buildCronAddCmd() *cobra.Command {
	var (
		name    string
		message string
		every   string
		cronExp string
		at      string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new scheduled job",
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := parseScheduleFlags(every, cronExp, at)
			if err != nil {
				return err
			}
			return withScheduler(func(s *scheduler.Scheduler) error {
				job, err := s.Add(models.CronJob{
					Name:     name,
					Schedule: schedule,
					Payload:  models.CronPayload{Prompt: message, Deliver: false},
					Enabled:  true,
				})
				if err != nil {
					return err
				}
				printJob(job)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "job name")
	cmd.Flags().StringVar(&message, "message", "", "prompt the job runs")
	cmd.Flags().StringVar(&every, "every", "", "repeat interval, e.g. 30s, 5m, 1h")
	cmd.Flags().StringVar(&cronExp, "cron", "", "five-field cron expression")
	cmd.Flags().StringVar(&at, "at", "", "one-shot fire time, RFC3339")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("message")
	return cmd
}

// parseScheduleFlags accepts exactly one of --every, --cron, --at.
func parseScheduleFlags(every, cronExpr, at string) (models.Schedule, error) {
	set := 0
	for _, v := range []string{every, cronExpr, at} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return models.Schedule{}, fmt.Errorf("exactly one of --every, --cron, or --at is required")
	}
	switch {
	case every != "":
		d, err := time.ParseDuration(every)
		if err != nil {
			return models.Schedule{}, fmt.Errorf("--every: %w", err)
		}
		return models.Schedule{Kind: models.ScheduleEvery, EveryMs: d.Milliseconds()}, nil
	case cronExpr != "":
		return models.Schedule{Kind: models.ScheduleCron, CronExpr: cronExpr}, nil
	default:
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return models.Schedule{}, fmt.Errorf("--at: %w", err)
		}
		return models.Schedule{Kind: models.ScheduleAt, AtMs: t.UnixMilli()}, nil
	}
}

func buildCronUpdateCmd() *cobra.Command {
	var (
		name    string
		message string
		every   string
		cronExp string
		at      string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a scheduled job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(func(s *scheduler.Scheduler) error {
				job, err := s.Update(args[0], func(job *models.CronJob) error {
					if name != "" {
						job.Name = name
					}
					if message != "" {
						job.Payload.Prompt = message
					}
					if every != "" || cronExp != "" || at != "" {
						schedule, err := parseScheduleFlags(every, cronExp, at)
						if err != nil {
							return err
						}
						job.Schedule = schedule
					}
					return nil
				})
				if err != nil {
					return err
				}
				printJob(job)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new job name")
	cmd.Flags().StringVar(&message, "message", "", "new prompt")
	cmd.Flags().StringVar(&every, "every", "", "new repeat interval")
	cmd.Flags().StringVar(&cronExp, "cron", "", "new cron expression")
	cmd.Flags().StringVar(&at, "at", "", "new one-shot fire time, RFC3339")
	return cmd
}

func buildCronRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a scheduled job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(func(s *scheduler.Scheduler) error {
				return s.Remove(args[0])
			})
		},
	}
}

func buildCronEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable a scheduled job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(func(s *scheduler.Scheduler) error {
				_, err := s.Update(args[0], func(job *models.CronJob) error {
					job.Enabled = true
					return nil
				})
				return err
			})
		},
	}
}

func buildCronDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a scheduled job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(func(s *scheduler.Scheduler) error {
				_, err := s.Update(args[0], func(job *models.CronJob) error {
					job.Enabled = false
					return nil
				})
				return err
			})
		},
	}
}

func buildCronRunCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "run <id>",
		Short: "Fire a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(func(s *scheduler.Scheduler) error {
				job, ok := s.Get(args[0])
				if !ok {
					return fmt.Errorf("job %s not found", args[0])
				}
				if !job.Enabled && !force {
					return fmt.Errorf("job %s is disabled; pass --force to run it anyway", args[0])
				}
				return s.RunNow(args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "run even if the job is disabled")
	return cmd
}

func buildCronClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every scheduled job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withScheduler(func(s *scheduler.Scheduler) error {
				return s.Clear()
			})
		},
	}
}
