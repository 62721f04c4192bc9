package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/temba/backend/internal/domain/archive"
	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormArchiveRepository implements ArchiveRepository using GORM
type GormArchiveRepository struct {
	db *gorm.DB
}

// NewGormArchiveRepository creates a new GormArchiveRepository
func NewGormArchiveRepository(db *gorm.DB) *GormArchiveRepository {
	return &GormArchiveRepository{db: db}
}

// Create persists a new archive
func (r *GormArchiveRepository) Create(ctx context.Context, a *archive.Archive) error {
	return createArchive(r.db.WithContext(ctx), a)
}

// CreateWithRollup persists a new archive and rolls it up into, or rolls
// into it, the other archives of its month
func (r *GormArchiveRepository) CreateWithRollup(ctx context.Context, a *archive.Archive) (int, error) {
	rolledUp := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		monthStart := time.Date(a.StartDate.Year(), a.StartDate.Month(), 1, 0, 0, 0, 0, time.UTC)

		if a.Period == archive.PeriodDaily {
			var monthly models.ArchiveModel
			err := tx.Where("org_id = ? AND archive_type = ? AND period = ? AND start_date = ?",
				a.OrgID, a.Type, archive.PeriodMonthly, monthStart).
				First(&monthly).Error
			switch {
			case err == nil:
				if err := a.RollUpInto(monthly.ToDomain()); err != nil {
					return err
				}
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
			return createArchive(tx, a)
		}

		if err := createArchive(tx, a); err != nil {
			return err
		}
		var dailies []models.ArchiveModel
		err := tx.Where("org_id = ? AND archive_type = ? AND period = ? AND start_date >= ? AND start_date < ? AND rollup_id IS NULL",
			a.OrgID, a.Type, archive.PeriodDaily, a.StartDate, a.EndDate()).
			Find(&dailies).Error
		if err != nil {
			return err
		}
		for i := range dailies {
			daily := dailies[i].ToDomain()
			if err := daily.RollUpInto(a); err != nil {
				return err
			}
			if err := updateArchive(tx, daily); err != nil {
				return fmt.Errorf("failed to roll up archive %s: %w", daily.ID, err)
			}
		}
		rolledUp = len(dailies)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rolledUp, nil
}

func createArchive(db *gorm.DB, a *archive.Archive) error {
	var count int64
	err := db.Model(&models.ArchiveModel{}).
		Where("org_id = ? AND archive_type = ? AND period = ? AND start_date = ?", a.OrgID, a.Type, a.Period, a.StartDate).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrAlreadyExists
	}

	if err := db.Create(models.ArchiveModelFromDomain(a)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update saves an archive with optimistic locking
func (r *GormArchiveRepository) Update(ctx context.Context, a *archive.Archive) error {
	return updateArchive(r.db.WithContext(ctx), a)
}

func updateArchive(db *gorm.DB, a *archive.Archive) error {
	model := models.ArchiveModelFromDomain(a)

	result := db.
		Model(&models.ArchiveModel{}).
		Where("id = ? AND org_id = ? AND version = ?", a.ID, a.OrgID, a.Version-1).
		Updates(map[string]any{
			"record_count":   model.RecordCount,
			"size":           model.Size,
			"hash":           model.Hash,
			"url":            model.URL,
			"build_time":     model.BuildTime,
			"needs_deletion": model.NeedsDeletion,
			"deleted_on":     model.DeletedOn,
			"rollup_id":      model.RollupID,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		db.Model(&models.ArchiveModel{}).Where("id = ?", a.ID).Count(&count)
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByIDForOrg finds an archive owned by the org
func (r *GormArchiveRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*archive.Archive, error) {
	var model models.ArchiveModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOrg lists the org's archives
func (r *GormArchiveRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter archive.ArchiveFilter) ([]archive.Archive, error) {
	var rows []models.ArchiveModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ArchiveModel{}).Where("org_id = ?", orgID), filter)
	query = paginate(query, filter.Filter, ArchiveSortFields, "start_date")

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toArchives(rows), nil
}

// CountForOrg counts the org's archives matching the filter
func (r *GormArchiveRepository) CountForOrg(ctx context.Context, orgID uuid.UUID, filter archive.ArchiveFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ArchiveModel{}).Where("org_id = ?", orgID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindCovering finds the archives holding records created in [after, before)
func (r *GormArchiveRepository) FindCovering(ctx context.Context, orgID uuid.UUID, archiveType archive.ArchiveType, after, before time.Time) ([]archive.Archive, error) {
	var rows []models.ArchiveModel

	// a monthly archive can start up to a month before after and still overlap
	err := r.db.WithContext(ctx).
		Where("org_id = ? AND archive_type = ? AND record_count > 0 AND rollup_id IS NULL", orgID, archiveType).
		Where("start_date < ? AND start_date > ?", before.UTC(), after.UTC().AddDate(0, -1, -1)).
		Order("start_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return archive.Covering(toArchives(rows), archiveType, after, before), nil
}

func (r *GormArchiveRepository) applyFilter(query *gorm.DB, filter archive.ArchiveFilter) *gorm.DB {
	if filter.Type != nil {
		query = query.Where("archive_type = ?", *filter.Type)
	}
	if filter.Period != nil {
		query = query.Where("period = ?", *filter.Period)
	}
	return query
}

func toArchives(rows []models.ArchiveModel) []archive.Archive {
	archives := make([]archive.Archive, len(rows))
	for i := range rows {
		archives[i] = *rows[i].ToDomain()
	}
	return archives
}

// Ensure GormArchiveRepository implements ArchiveRepository
var _ archive.ArchiveRepository = (*GormArchiveRepository)(nil)
