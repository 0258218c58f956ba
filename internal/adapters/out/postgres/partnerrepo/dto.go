// Package partnerrepo maps partner aggregates to the partners table.
package partnerrepo

import (
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"
	"partnerdispatch/internal/core/domain/model/partner"

	"github.com/google/uuid"
)

type PartnerDTO struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Login        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Verified     bool      `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (PartnerDTO) TableName() string {
	return "partners"
}

func fromDomain(p *partner.Partner) PartnerDTO {
	return PartnerDTO{
		ID:           p.ID().Google(),
		Name:         p.Name(),
		Login:        p.Login(),
		PasswordHash: p.PasswordHash(),
		Verified:     p.IsVerified(),
		CreatedAt:    p.CreatedAt().UTC(),
	}
}

func toDomain(dto PartnerDTO) (*partner.Partner, error) {
	id, err := kernel.UUIDFromGoogle(dto.ID)
	if err != nil {
		return nil, err
	}
	return partner.RestorePartner(id, dto.Name, dto.Login, dto.PasswordHash, dto.Verified, dto.CreatedAt.UTC())
}
