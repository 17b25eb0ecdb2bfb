package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Refresher reloads the served dataset
type Refresher interface {
	Reload(ctx context.Context) error
}

// Scheduler triggers a dataset reload on a standard 5-field cron expression
// (minute hour day-of-month month day-of-week), e.g. "0 6 * * *" for daily at 6am.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	target   Refresher
	timeout  time.Duration
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// New validates spec. An empty spec returns a nil scheduler, meaning disabled.
func New(spec string, target Refresher, timeout time.Duration) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithParser(parser)),
		schedule: sched,
		spec:     spec,
		target:   target,
		timeout:  timeout,
	}
	s.cron.Schedule(sched, cron.FuncJob(s.refresh))
	return s, nil
}

// Next returns the first activation after t
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

func (s *Scheduler) Start() {
	log.Info().
		Str("cron", s.spec).
		Time("next", s.Next(time.Now())).
		Msg("scheduled dataset refresh")
	s.cron.Start()
}

// Stop waits for a running refresh to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Warn().Msg("scheduler stopped before the running refresh finished")
	}
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.target.Reload(ctx); err != nil {
		log.Error().Err(err).Str("cron", s.spec).Msg("scheduled refresh failed")
		return
	}
	log.Info().
		Dur("duration", time.Since(start)).
		Time("next", s.Next(time.Now())).
		Msg("scheduled refresh completed")
}
