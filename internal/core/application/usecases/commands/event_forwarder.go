package commands

import (
	"context"
	"log/slog"

	"partnerdispatch/internal/core/domain/model/job"
	"partnerdispatch/internal/core/ports"
)

// EventForwarder hands committed status changes to an EventPublisher. A
// failed publish is logged and dropped; the status change stands.
type EventForwarder struct {
	publisher ports.EventPublisher
	logger    *slog.Logger
}

func NewEventForwarder(publisher ports.EventPublisher, logger *slog.Logger) *EventForwarder {
	return &EventForwarder{
		publisher: publisher,
		logger:    logger.With("component", "event_forwarder"),
	}
}

func (f *EventForwarder) HandleStatusChanged(ctx context.Context, _ job.Snapshot, event job.StatusChanged) {
	if err := f.publisher.PublishStatusChanged(ctx, event); err != nil {
		f.logger.ErrorContext(ctx, "Status change not published",
			"job_id", event.JobID.String(), "to", event.To.String(), "error", err)
	}
}
