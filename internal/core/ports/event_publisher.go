package ports

import (
	"context"

	"partnerdispatch/internal/core/domain/model/job"
)

// EventPublisher forwards committed status changes to other systems.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event job.StatusChanged) error
}
