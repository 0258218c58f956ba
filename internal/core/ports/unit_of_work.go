package ports

import (
	"context"
)

// UnitOfWorkFactory creates a fresh UnitOfWork per command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a business transaction boundary. Repositories returned after
// Begin are bound to the transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error

	// Commit may also report errs.ErrStaleObject when the adapter checks
	// revisions at commit time.
	Commit(ctx context.Context) error

	Rollback(ctx context.Context) error

	JobRepository() JobRepository

	PartnerRepository() PartnerRepository
}
