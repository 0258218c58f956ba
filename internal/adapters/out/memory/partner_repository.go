package memory

import (
	"context"
	"strings"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/partner"
	"partnerdispatch/internal/pkg/errs"
)

type PartnerRepository struct {
	uow *UnitOfWork
}

func (r *PartnerRepository) Add(_ context.Context, aggregate *partner.Partner) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.stagePartner(partnerWrite{record: toRecord(aggregate), isNew: true})
}

func (r *PartnerRepository) Update(_ context.Context, aggregate *partner.Partner) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.stagePartner(partnerWrite{record: toRecord(aggregate)})
}

func (r *PartnerRepository) Get(_ context.Context, id kernel.UUID) (*partner.Partner, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	raw := id.Google()
	rec, ok := r.uow.pendingPartner(func(p partnerRecord) bool { return p.id == raw })
	if !ok {
		rec, ok = r.uow.store.partner(raw)
	}
	if !ok {
		return nil, errs.NewObjectNotFoundError("partner", id)
	}
	return fromRecord(rec)
}

func (r *PartnerRepository) GetByLogin(_ context.Context, login string) (*partner.Partner, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	rec, ok := r.uow.pendingPartner(func(p partnerRecord) bool { return p.login == login })
	if !ok {
		rec, ok = r.uow.store.partnerByLogin(login)
	}
	if !ok {
		return nil, errs.NewObjectNotFoundError("partner", login)
	}
	return fromRecord(rec)
}

func toRecord(p *partner.Partner) partnerRecord {
	return partnerRecord{
		id:           p.ID().Google(),
		name:         p.Name(),
		login:        p.Login(),
		passwordHash: p.PasswordHash(),
		verified:     p.IsVerified(),
		createdAt:    p.CreatedAt().UnixNano(),
	}
}

func fromRecord(rec partnerRecord) (*partner.Partner, error) {
	id, err := kernel.UUIDFromGoogle(rec.id)
	if err != nil {
		return nil, err
	}
	return partner.RestorePartner(id, rec.name, rec.login, rec.passwordHash, rec.verified, time.Unix(0, rec.createdAt))
}
