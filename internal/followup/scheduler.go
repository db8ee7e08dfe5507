package followup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// runTimeout bounds a single scheduled run.
const runTimeout = 10 * time.Minute

// Runner is what the scheduler triggers; *Service implements it.
type Runner interface {
	Run(ctx context.Context, now time.Time) (Result, error)
}

// Scheduler runs the follow-up job on a cron schedule evaluated in UTC.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	runner   Runner
	logger   *zap.Logger
}

func NewScheduler(runner Runner, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger), cron.Recover(cron.DiscardLogger)),
		),
		runner: runner,
		logger: logger,
	}
}

// Schedule registers the job; expr is a standard 5-field cron expression.
func (s *Scheduler) Schedule(ctx context.Context, expr string) error {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return fmt.Errorf("invalid follow-up schedule %q: %w", expr, err)
	}
	s.schedule = sched
	s.cron.Schedule(sched, cron.FuncJob(func() {
		s.runOnce(ctx)
	}))
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	res, err := s.runner.Run(ctx, time.Now())
	if err != nil {
		s.logger.Warn("Scheduled follow-up run finished with errors", zap.Int("sent", res.Sent), zap.Error(err))
	}
}

// Next reports when the job fires after t; zero before Schedule.
func (s *Scheduler) Next(t time.Time) time.Time {
	if s.schedule == nil {
		return time.Time{}
	}
	return s.schedule.Next(t.UTC())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Follow-up scheduler started", zap.Time("next_run", s.Next(time.Now())))
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Follow-up scheduler stop timed out")
	}
}
