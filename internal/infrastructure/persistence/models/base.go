package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/temba/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// OrgAggregateModel provides the persistence fields of org scoped aggregate
// roots: identity, timestamps, optimistic lock version, org and creator.
type OrgAggregateModel struct {
	BaseModel
	Version   int        `gorm:"not null;default:1"`
	OrgID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
}

// FromDomainOrgAggregateRoot populates the model from a domain OrgAggregateRoot
func (m *OrgAggregateModel) FromDomainOrgAggregateRoot(a shared.OrgAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
	m.OrgID = a.OrgID
	m.CreatedBy = a.CreatedBy
}

// ToDomainOrgAggregateRoot rebuilds the domain OrgAggregateRoot
func (m *OrgAggregateModel) ToDomainOrgAggregateRoot() shared.OrgAggregateRoot {
	return shared.OrgAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		OrgID:     m.OrgID,
		CreatedBy: m.CreatedBy,
	}
}
