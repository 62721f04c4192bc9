package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/temba/backend/internal/domain/archive"
)

// ArchiveModel is the persistence model for the Archive aggregate root.
// (org_id, archive_type, period, start_date) is unique, see migrations.
type ArchiveModel struct {
	OrgAggregateModel
	ArchiveType   archive.ArchiveType `gorm:"type:varchar(16);not null"`
	Period        archive.Period      `gorm:"type:varchar(1);not null"`
	StartDate     time.Time           `gorm:"not null"`
	RecordCount   int                 `gorm:"not null;default:0"`
	Size          int64               `gorm:"not null;default:0"`
	Hash          string              `gorm:"type:text;not null;default:''"`
	URL           string              `gorm:"type:text;not null;default:''"`
	BuildTime     int                 `gorm:"not null;default:0"`
	NeedsDeletion bool                `gorm:"not null;default:false"`
	DeletedOn     *time.Time
	RollupID      *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ArchiveModel) TableName() string {
	return "archives_archive"
}

// ToDomain converts the persistence model to a domain Archive
func (m *ArchiveModel) ToDomain() *archive.Archive {
	return &archive.Archive{
		OrgAggregateRoot: m.ToDomainOrgAggregateRoot(),
		Type:             m.ArchiveType,
		Period:           m.Period,
		StartDate:        m.StartDate.UTC(),
		RecordCount:      m.RecordCount,
		Size:             m.Size,
		Hash:             m.Hash,
		URL:              m.URL,
		BuildTime:        m.BuildTime,
		NeedsDeletion:    m.NeedsDeletion,
		DeletedOn:        m.DeletedOn,
		RollupID:         m.RollupID,
	}
}

// ArchiveModelFromDomain creates a persistence model from a domain Archive
func ArchiveModelFromDomain(a *archive.Archive) *ArchiveModel {
	m := &ArchiveModel{
		ArchiveType:   a.Type,
		Period:        a.Period,
		StartDate:     a.StartDate,
		RecordCount:   a.RecordCount,
		Size:          a.Size,
		Hash:          a.Hash,
		URL:           a.URL,
		BuildTime:     a.BuildTime,
		NeedsDeletion: a.NeedsDeletion,
		DeletedOn:     a.DeletedOn,
		RollupID:      a.RollupID,
	}
	m.FromDomainOrgAggregateRoot(a.OrgAggregateRoot)
	return m
}
