package archive

import (
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/temba/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeArchive = "Archive"

// Archive is a gzipped JSON lines file in S3 holding one org's messages or
// runs for a day or month. Monthly archives roll up that month's daily
// archives, which then point at the monthly archive through RollupID.
type Archive struct {
	shared.OrgAggregateRoot
	Type          ArchiveType
	Period        Period
	StartDate     time.Time
	RecordCount   int
	Size          int64
	Hash          string
	URL           string
	BuildTime     int
	NeedsDeletion bool
	DeletedOn     *time.Time
	RollupID      *uuid.UUID
}

// NewArchive creates an archive for a file built by the archiver
func NewArchive(orgID uuid.UUID, archiveType ArchiveType, period Period, startDate time.Time, archiveURL, hash string, size int64, recordCount, buildTime int) (*Archive, error) {
	if !archiveType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ARCHIVE_TYPE", "Archive type must be message or run")
	}
	if !period.IsValid() {
		return nil, shared.NewDomainError("INVALID_ARCHIVE_PERIOD", "Archive period must be D or M")
	}
	if !period.IsPeriodStart(startDate) {
		return nil, shared.NewDomainError("INVALID_START_DATE", "Archive start date must be the start of its period in UTC")
	}
	if recordCount < 0 || size < 0 {
		return nil, shared.NewDomainError("INVALID_ARCHIVE_SIZE", "Record count and size can't be negative")
	}
	if recordCount > 0 {
		if hash == "" {
			return nil, shared.NewDomainError("INVALID_ARCHIVE_HASH", "Archives with records must have a hash")
		}
		if _, _, err := ParseLocation(archiveURL); err != nil {
			return nil, err
		}
	}

	a := &Archive{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Type:             archiveType,
		Period:           period,
		StartDate:        startDate.UTC(),
		RecordCount:      recordCount,
		Size:             size,
		Hash:             hash,
		URL:              archiveURL,
		BuildTime:        buildTime,
		NeedsDeletion:    recordCount > 0,
	}
	a.AddDomainEvent(NewArchiveRegisteredEvent(a))
	return a, nil
}

// EndDate returns the exclusive end of the period the archive covers
func (a *Archive) EndDate() time.Time {
	return a.Period.End(a.StartDate)
}

// Location returns the bucket and key the archive is stored at
func (a *Archive) Location() (bucket, key string, err error) {
	return ParseLocation(a.URL)
}

// Filename returns the name the archive is downloaded as
func (a *Archive) Filename() string {
	return FilenameFor(a.Type, a.Period, a.StartDate, a.Hash)
}

// FilenameFor builds an archive filename such as message_D20240301_<hash>.jsonl.gz
func FilenameFor(archiveType ArchiveType, period Period, start time.Time, hash string) string {
	return string(archiveType) + "_" + string(period) + start.Format(period.dateLayout()) + "_" + hash + ".jsonl.gz"
}

// IsRolledUp returns true if the archive's records are also in a monthly archive
func (a *Archive) IsRolledUp() bool {
	return a.RollupID != nil
}

// Overlaps returns true if the archive's period intersects [after, before)
func (a *Archive) Overlaps(after, before time.Time) bool {
	return a.StartDate.Before(before) && a.EndDate().After(after)
}

// RollUpInto records that a monthly archive now holds this archive's records
func (a *Archive) RollUpInto(monthly *Archive) error {
	if a.Period != PeriodDaily || monthly.Period != PeriodMonthly {
		return shared.NewDomainError("INVALID_ROLLUP", "Only daily archives can be rolled up into monthly archives")
	}
	if a.Type != monthly.Type || a.OrgID != monthly.OrgID {
		return shared.NewDomainError("INVALID_ROLLUP", "Rollup archive must have the same org and type")
	}
	if !monthly.Overlaps(a.StartDate, a.EndDate()) {
		return shared.NewDomainError("INVALID_ROLLUP", "Rollup archive doesn't cover this archive's period")
	}
	id := monthly.ID
	a.RollupID = &id
	a.Touch()
	a.IncrementVersion()
	return nil
}

// Rewritten updates the archive after its contents were replaced by a
// filtered copy. The new file is stored next to the old one under a name
// derived from its new hash.
func (a *Archive) Rewritten(hash string, size int64, recordCount int) error {
	bucket, key, err := a.Location()
	if err != nil {
		return err
	}
	if recordCount > a.RecordCount {
		return shared.NewDomainError("INVALID_REWRITE", "Rewriting an archive can't add records")
	}

	removed := a.RecordCount - recordCount
	newKey := path.Join(path.Dir(key), FilenameFor(a.Type, a.Period, a.StartDate, hash))

	a.Hash = hash
	a.Size = size
	a.RecordCount = recordCount
	a.URL = BuildURL(bucket, newKey)
	a.Touch()
	a.IncrementVersion()
	a.AddDomainEvent(NewArchiveRewrittenEvent(a, removed))
	return nil
}

// MarkDeleted records that the archived records have been deleted from the database
func (a *Archive) MarkDeleted(at time.Time) {
	a.NeedsDeletion = false
	a.DeletedOn = &at
	a.Touch()
	a.IncrementVersion()
}

// Covering returns the archives of the given type that hold records created
// in [after, before), skipping empty archives and daily archives that were
// rolled up into a monthly one. The result is ordered by start date.
func Covering(archives []Archive, archiveType ArchiveType, after, before time.Time) []Archive {
	covering := make([]Archive, 0)
	for _, a := range archives {
		if a.Type != archiveType || a.RecordCount == 0 || a.IsRolledUp() {
			continue
		}
		if a.Overlaps(after, before) {
			covering = append(covering, a)
		}
	}
	sortByStart(covering)
	return covering
}
