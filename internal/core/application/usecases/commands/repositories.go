// Package commands contains the write operations of the dispatch service.
// Every command is built through its constructor, validated by its handler
// and applied inside a unit of work.
package commands

import (
	"context"

	"partnerdispatch/internal/core/ports"
)

type (
	// TxManager handles the transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	JobRepoFactory interface {
		JobRepository() ports.JobRepository
	}

	PartnerRepoFactory interface {
		PartnerRepository() ports.PartnerRepository
	}

	// JobUoW is used by commands that only touch jobs.
	JobUoW interface {
		TxManager
		JobRepoFactory
	}

	JobUoWFactory interface {
		Create() JobUoW
	}

	// PartnerUoW is used by partner administration commands.
	PartnerUoW interface {
		TxManager
		PartnerRepoFactory
	}

	PartnerUoWFactory interface {
		Create() PartnerUoW
	}

	// UoW spans jobs and partners, e.g. for claims which read the partner
	// and write the job.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   p, err := uow.PartnerRepository().Get(ctx, partnerID)
	//   j, err := uow.JobRepository().Get(ctx, jobID)
	//   // ... claim
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		JobRepoFactory
		PartnerRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)

// maxWriteAttempts bounds the re-read loop after a lost conditional write.
const maxWriteAttempts = 3
