package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper drops entries idle for longer than ttl and reports how many went.
// session.Manager and broadcast.Hub both implement it.
type Sweeper interface {
	Sweep(ttl time.Duration) int
}

// SweepJob periodically calls a Sweeper.
type SweepJob struct {
	name    string
	sweeper Sweeper
	ttl     time.Duration
	spec    string
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewSessionSweepJob ends partner sessions idle for longer than ttl.
func NewSessionSweepJob(sessions Sweeper, ttl time.Duration, spec string, logger *slog.Logger) *SweepJob {
	return newSweepJob("session_sweep_job", sessions, ttl, spec, logger)
}

// NewChannelSweepJob forgets closed broadcast channels older than ttl.
func NewChannelSweepJob(channels Sweeper, ttl time.Duration, spec string, logger *slog.Logger) *SweepJob {
	return newSweepJob("channel_sweep_job", channels, ttl, spec, logger)
}

func newSweepJob(name string, sweeper Sweeper, ttl time.Duration, spec string, logger *slog.Logger) *SweepJob {
	return &SweepJob{
		name:    name,
		sweeper: sweeper,
		ttl:     ttl,
		spec:    spec,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", name),
	}
}

func (j *SweepJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, func() { j.run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Sweep job started", "schedule", j.spec, "ttl", j.ttl)
	return nil
}

func (j *SweepJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Sweep job stopped")
}

func (j *SweepJob) run(ctx context.Context) int {
	removed := j.sweeper.Sweep(j.ttl)
	if removed > 0 {
		j.logger.InfoContext(ctx, "Swept", "removed", removed)
	}
	return removed
}
