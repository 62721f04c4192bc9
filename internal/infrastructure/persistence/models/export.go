package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/temba/backend/internal/domain/export"
)

// ExportModel is the persistence model for the Export aggregate root
type ExportModel struct {
	OrgAggregateModel
	ExportType export.ExportType `gorm:"type:varchar(20);not null"`
	Format     export.Format     `gorm:"type:varchar(8);not null"`
	Status     export.Status     `gorm:"type:varchar(1);not null;index"`
	StartDate  time.Time         `gorm:"not null"`
	EndDate    time.Time         `gorm:"not null"`
	ConfigJSON string            `gorm:"column:config;type:jsonb;not null;default:'{}'"`
	NumRecords int               `gorm:"not null;default:0"`
	Path       string            `gorm:"type:text;not null;default:''"`
	Error      string            `gorm:"type:text;not null;default:''"`
}

// TableName returns the table name for GORM
func (ExportModel) TableName() string {
	return "exports_export"
}

// ToDomain converts the persistence model to a domain Export
func (m *ExportModel) ToDomain() (*export.Export, error) {
	var cfg export.Config
	if m.ConfigJSON != "" {
		if err := json.Unmarshal([]byte(m.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("invalid config for export %s: %w", m.ID, err)
		}
	}

	return &export.Export{
		OrgAggregateRoot: m.ToDomainOrgAggregateRoot(),
		Type:             m.ExportType,
		Format:           m.Format,
		Status:           m.Status,
		StartDate:        m.StartDate.UTC(),
		EndDate:          m.EndDate.UTC(),
		Config:           cfg,
		NumRecords:       m.NumRecords,
		Path:             m.Path,
		Error:            m.Error,
	}, nil
}

// ExportModelFromDomain creates a persistence model from a domain Export
func ExportModelFromDomain(e *export.Export) (*ExportModel, error) {
	configJSON, err := json.Marshal(e.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export config: %w", err)
	}

	m := &ExportModel{
		ExportType: e.Type,
		Format:     e.Format,
		Status:     e.Status,
		StartDate:  e.StartDate,
		EndDate:    e.EndDate,
		ConfigJSON: string(configJSON),
		NumRecords: e.NumRecords,
		Path:       e.Path,
		Error:      e.Error,
	}
	m.FromDomainOrgAggregateRoot(e.OrgAggregateRoot)
	return m, nil
}
