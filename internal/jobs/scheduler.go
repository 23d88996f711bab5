package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Scheduler registers recurring tasks and runs the cron loop.
type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	schedule       string
	spinLimit      int
	log            *slog.Logger
}

// NewScheduler constructs a Scheduler that registers the spin reset on the
// given cron schedule.
func NewScheduler(redisOpt asynq.RedisConnOpt, schedule string, spinLimit int, log *slog.Logger) Scheduler {
	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		schedule:       schedule,
		spinLimit:      spinLimit,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	task, err := NewSpinResetTask(s.spinLimit)
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(s.schedule, task); err != nil {
		return err
	}

	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: registered spin reset task", "schedule", s.schedule)
	}

	return nil
}

func (s *scheduler) Run() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: starting")
	}

	go func() {
		if err := s.asynqScheduler.Run(); err != nil && s.log != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: shutting down")
	}

	s.asynqScheduler.Shutdown()
}
