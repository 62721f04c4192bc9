package archive

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/temba/backend/internal/domain/shared"
)

// ArchiveRepository defines the interface for archive persistence
type ArchiveRepository interface {
	// Create persists a new archive
	// Returns shared.ErrAlreadyExists if the org already has an archive of
	// the same type and period starting on the same date
	Create(ctx context.Context, archive *Archive) error

	// CreateWithRollup persists a new archive and links it to the other
	// archives of its month in one transaction. A daily archive is rolled up
	// into the month's archive if one exists, and a monthly archive rolls up
	// the month's dailies. Returns how many existing dailies were rolled up,
	// or shared.ErrAlreadyExists like Create.
	CreateWithRollup(ctx context.Context, archive *Archive) (int, error)

	// Update saves changes to an archive
	// The caller must increment the version before calling Update; the update
	// only succeeds if the stored version is archive.Version - 1
	Update(ctx context.Context, archive *Archive) error

	// FindByIDForOrg finds an archive owned by the org
	// Returns shared.ErrNotFound if not found
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Archive, error)

	// FindAllForOrg lists the org's archives, newest first unless ordered otherwise
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter ArchiveFilter) ([]Archive, error)

	// CountForOrg counts the org's archives matching the filter
	CountForOrg(ctx context.Context, orgID uuid.UUID, filter ArchiveFilter) (int64, error)

	// FindCovering finds the archives holding records created in [after, before)
	// with the same semantics as Covering
	FindCovering(ctx context.Context, orgID uuid.UUID, archiveType ArchiveType, after, before time.Time) ([]Archive, error)
}

// ArchiveFilter extends shared.Filter with archive-specific filters
type ArchiveFilter struct {
	shared.Filter
	Type   *ArchiveType
	Period *Period
}

func sortByStart(archives []Archive) {
	sort.SliceStable(archives, func(i, j int) bool {
		return archives[i].StartDate.Before(archives[j].StartDate)
	})
}
