package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fakhrymubarak/weather-pro/internal/config"
	"github.com/fakhrymubarak/weather-pro/internal/model"
	"github.com/fakhrymubarak/weather-pro/internal/service"
)

// Refresher re-fetches whatever is on display.
type Refresher interface {
	Refresh(ctx context.Context) (model.RequestState, error)
}

// Scheduler triggers Refresh on a cron schedule. A run still in flight when the next
// one is due causes that next run to be skipped.
type Scheduler struct {
	schedule  string
	refresher Refresher
	logger    *zap.SugaredLogger
	cron      *cron.Cron
}

// New returns nil when schedule is empty: auto refresh is off.
func New(schedule string, refresher Refresher) (*Scheduler, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, nil
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh.schedule %q: %w", schedule, err)
	}

	logger := config.GetLogger()
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Desugar()))
	return &Scheduler{
		schedule:  schedule,
		refresher: refresher,
		logger:    logger,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger)),
		),
	}, nil
}

// Start runs the schedule until ctx is done, then waits for a running refresh to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.logger.Infow("Auto refresh started", "schedule", s.schedule)
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Infow("Auto refresh stopped")
	return ctx.Err()
}

// RunOnce performs one refresh. Having nothing on display is not an error.
func (s *Scheduler) RunOnce(ctx context.Context) {
	state, err := s.refresher.Refresh(ctx)
	switch {
	case err == nil:
		s.logger.Debugw("Auto refresh done", "city", state.City())
	case errors.Is(err, service.ErrNothingToRefresh), errors.Is(err, service.ErrSuperseded):
		s.logger.Debugw("Auto refresh skipped", "reason", err)
	default:
		s.logger.Warnw("Auto refresh failed", "city", state.City(), "error", err)
	}
}
