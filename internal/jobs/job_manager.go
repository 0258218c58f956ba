package jobs

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	RouteRetrySchedule   = "*/30 * * * * *"
	SessionSweepSchedule = "0 * * * * *"
	ChannelSweepSchedule = "15 * * * * *"
)

type Settings struct {
	SessionIdleTTL time.Duration
	ChannelTTL     time.Duration
}

type scheduled interface {
	Start() error
	Stop()
}

// JobManager coordinates all scheduled jobs in the application.
type JobManager struct {
	routeRetry   *RouteRetryJob
	sessionSweep *SweepJob
	channelSweep *SweepJob
}

func NewJobManager(
	jobs AwaitingRouteLister,
	assignRoute RouteAssigner,
	sessions Sweeper,
	channels Sweeper,
	settings Settings,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		routeRetry:   NewRouteRetryJob(jobs, assignRoute, RouteRetrySchedule, logger),
		sessionSweep: NewSessionSweepJob(sessions, settings.SessionIdleTTL, SessionSweepSchedule, logger),
		channelSweep: NewChannelSweepJob(channels, settings.ChannelTTL, ChannelSweepSchedule, logger),
	}
}

// StartAll starts the jobs in order. When one fails the ones already
// running are stopped again.
func (jm *JobManager) StartAll() error {
	started := make([]scheduled, 0, 3)
	for _, entry := range []struct {
		name string
		job  scheduled
	}{
		{"route retry", jm.routeRetry},
		{"session sweep", jm.sessionSweep},
		{"channel sweep", jm.channelSweep},
	} {
		if err := entry.job.Start(); err != nil {
			for _, j := range started {
				j.Stop()
			}
			return fmt.Errorf("failed to start %s job: %w", entry.name, err)
		}
		started = append(started, entry.job)
	}
	return nil
}

// StopAll stops all jobs and waits for running ticks to finish.
func (jm *JobManager) StopAll() {
	jm.channelSweep.Stop()
	jm.sessionSweep.Stop()
	jm.routeRetry.Stop()
}
