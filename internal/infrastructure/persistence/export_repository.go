package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/temba/backend/internal/domain/export"
	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormExportRepository implements ExportRepository using GORM
type GormExportRepository struct {
	db *gorm.DB
}

// NewGormExportRepository creates a new GormExportRepository
func NewGormExportRepository(db *gorm.DB) *GormExportRepository {
	return &GormExportRepository{db: db}
}

// Create persists a new export
func (r *GormExportRepository) Create(ctx context.Context, e *export.Export) error {
	model, err := models.ExportModelFromDomain(e)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update saves an export with optimistic locking
func (r *GormExportRepository) Update(ctx context.Context, e *export.Export) error {
	model, err := models.ExportModelFromDomain(e)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.ExportModel{}).
		Where("id = ? AND version = ?", e.ID, e.Version-1).
		Updates(map[string]any{
			"status":      model.Status,
			"num_records": model.NumRecords,
			"path":        model.Path,
			"error":       model.Error,
			"version":     model.Version,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		r.db.WithContext(ctx).Model(&models.ExportModel{}).Where("id = ?", e.ID).Count(&count)
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds an export regardless of org
func (r *GormExportRepository) FindByID(ctx context.Context, id uuid.UUID) (*export.Export, error) {
	var model models.ExportModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByIDForOrg finds an export owned by the org
func (r *GormExportRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*export.Export, error) {
	var model models.ExportModel
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAllForOrg lists the org's exports
func (r *GormExportRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter export.ExportFilter) ([]export.Export, error) {
	var rows []models.ExportModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ExportModel{}).Where("org_id = ?", orgID), filter)
	query = paginate(query, filter.Filter, ExportSortFields, "created_at")

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toExports(rows)
}

// CountForOrg counts the org's exports matching the filter
func (r *GormExportRepository) CountForOrg(ctx context.Context, orgID uuid.UUID, filter export.ExportFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ExportModel{}).Where("org_id = ?", orgID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindPending finds the oldest exports not yet picked up by a worker, along
// with processing exports whose worker stopped updating them before staleBefore
func (r *GormExportRepository) FindPending(ctx context.Context, staleBefore time.Time, limit int) ([]export.Export, error) {
	var rows []models.ExportModel
	err := r.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND updated_at < ?)", export.StatusPending, export.StatusProcessing, staleBefore.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toExports(rows)
}

// FindCreatedBefore finds exports of any org created before t, oldest first
func (r *GormExportRepository) FindCreatedBefore(ctx context.Context, t time.Time, limit int) ([]export.Export, error) {
	var rows []models.ExportModel
	err := r.db.WithContext(ctx).
		Where("created_at < ?", t.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toExports(rows)
}

// Delete deletes an export
func (r *GormExportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ExportModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormExportRepository) applyFilter(query *gorm.DB, filter export.ExportFilter) *gorm.DB {
	if filter.Type != nil {
		query = query.Where("export_type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	return query
}

func toExports(rows []models.ExportModel) ([]export.Export, error) {
	exports := make([]export.Export, 0, len(rows))
	for i := range rows {
		e, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		exports = append(exports, *e)
	}
	return exports, nil
}

// Ensure GormExportRepository implements ExportRepository
var _ export.ExportRepository = (*GormExportRepository)(nil)
