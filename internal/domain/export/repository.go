package export

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/temba/backend/internal/domain/shared"
)

// ExportRepository defines the interface for export persistence
type ExportRepository interface {
	// Create persists a new export
	Create(ctx context.Context, export *Export) error

	// Update saves changes to an export
	// The caller must increment the version before calling Update; the update
	// only succeeds if the stored version is export.Version - 1
	Update(ctx context.Context, export *Export) error

	// FindByID finds an export regardless of org, for use by workers
	// Returns shared.ErrNotFound if not found
	FindByID(ctx context.Context, id uuid.UUID) (*Export, error)

	// FindByIDForOrg finds an export owned by the org
	// Returns shared.ErrNotFound if not found
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Export, error)

	// FindAllForOrg lists the org's exports, newest first unless ordered otherwise
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter ExportFilter) ([]Export, error)

	// CountForOrg counts the org's exports matching the filter
	CountForOrg(ctx context.Context, orgID uuid.UUID, filter ExportFilter) (int64, error)

	// FindPending finds exports that haven't been picked up by a worker, and
	// exports still processing that were last updated before staleBefore
	FindPending(ctx context.Context, staleBefore time.Time, limit int) ([]Export, error)

	// FindCreatedBefore finds exports of any org created before t
	FindCreatedBefore(ctx context.Context, t time.Time, limit int) ([]Export, error)

	// Delete deletes an export
	Delete(ctx context.Context, id uuid.UUID) error
}

// ExportFilter extends shared.Filter with export-specific filters
type ExportFilter struct {
	shared.Filter
	Type   *ExportType
	Status *Status
}
