package archive

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temba/backend/internal/domain/shared"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestArchive(t *testing.T, orgID uuid.UUID, typ ArchiveType, period Period, start time.Time, count int) *Archive {
	t.Helper()
	hash := "f0d79988b7772c003d04a28bd7417a62"
	url := BuildURL("temba-archives", orgID.String()+"/"+FilenameFor(typ, period, start, hash))
	a, err := NewArchive(orgID, typ, period, start, url, hash, 1024, count, 150)
	require.NoError(t, err)
	return a
}

func TestNewArchive(t *testing.T) {
	orgID := uuid.New()

	t.Run("valid daily archive", func(t *testing.T) {
		a := newTestArchive(t, orgID, TypeMessage, PeriodDaily, day(2024, 3, 1), 10)

		assert.Equal(t, orgID, a.OrgID)
		assert.Equal(t, TypeMessage, a.Type)
		assert.True(t, a.NeedsDeletion)
		assert.Equal(t, 1, a.GetVersion())

		events := a.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeArchiveRegistered, events[0].EventType())
		assert.Equal(t, orgID, events[0].OrgID())
	})

	t.Run("empty archives need no url", func(t *testing.T) {
		a, err := NewArchive(orgID, TypeRun, PeriodDaily, day(2024, 3, 1), "", "", 0, 0, 3)
		require.NoError(t, err)
		assert.False(t, a.NeedsDeletion)
	})

	tests := []struct {
		name     string
		typ      ArchiveType
		period   Period
		start    time.Time
		url      string
		hash     string
		count    int
		wantCode string
	}{
		{"bad type", "contact", PeriodDaily, day(2024, 3, 1), "s3://b/k", "abc", 1, "INVALID_ARCHIVE_TYPE"},
		{"bad period", TypeMessage, "W", day(2024, 3, 1), "s3://b/k", "abc", 1, "INVALID_ARCHIVE_PERIOD"},
		{"monthly not on first", TypeMessage, PeriodMonthly, day(2024, 3, 2), "s3://b/k", "abc", 1, "INVALID_START_DATE"},
		{"not midnight", TypeMessage, PeriodDaily, day(2024, 3, 2).Add(time.Hour), "s3://b/k", "abc", 1, "INVALID_START_DATE"},
		{"negative count", TypeMessage, PeriodDaily, day(2024, 3, 2), "s3://b/k", "abc", -1, "INVALID_ARCHIVE_SIZE"},
		{"missing hash", TypeMessage, PeriodDaily, day(2024, 3, 2), "s3://b/k", "", 1, "INVALID_ARCHIVE_HASH"},
		{"bad url", TypeMessage, PeriodDaily, day(2024, 3, 2), "https://example.com/k", "abc", 1, "INVALID_ARCHIVE_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewArchive(orgID, tt.typ, tt.period, tt.start, tt.url, tt.hash, 10, tt.count, 1)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.wantCode, domainErr.Code)
		})
	}
}

func TestArchive_EndDate(t *testing.T) {
	orgID := uuid.New()

	daily := newTestArchive(t, orgID, TypeMessage, PeriodDaily, day(2024, 2, 29), 1)
	assert.Equal(t, day(2024, 3, 1), daily.EndDate())

	monthly := newTestArchive(t, orgID, TypeMessage, PeriodMonthly, day(2024, 12, 1), 1)
	assert.Equal(t, day(2025, 1, 1), monthly.EndDate())
}

func TestArchive_Filename(t *testing.T) {
	orgID := uuid.New()

	daily := newTestArchive(t, orgID, TypeMessage, PeriodDaily, day(2024, 3, 5), 1)
	assert.Equal(t, "message_D20240305_f0d79988b7772c003d04a28bd7417a62.jsonl.gz", daily.Filename())

	monthly := newTestArchive(t, orgID, TypeRun, PeriodMonthly, day(2024, 3, 1), 1)
	assert.Equal(t, "run_M202403_f0d79988b7772c003d04a28bd7417a62.jsonl.gz", monthly.Filename())
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		url        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"https://temba-archives.s3.amazonaws.com/1/message_D20240301_abc.jsonl.gz", "temba-archives", "1/message_D20240301_abc.jsonl.gz", false},
		{"https://temba-archives.s3.eu-west-1.amazonaws.com/1/run_M202403_abc.jsonl.gz", "temba-archives", "1/run_M202403_abc.jsonl.gz", false},
		{"s3://temba-archives/1/message_D20240301_abc.jsonl.gz", "temba-archives", "1/message_D20240301_abc.jsonl.gz", false},
		{"https://example.com/archive.jsonl.gz", "", "", true},
		{"https://temba-archives.s3.amazonaws.com/", "", "", true},
		{"ftp://temba-archives/key", "", "", true},
		{"::not a url", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			bucket, key, err := ParseLocation(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestArchive_RollUpInto(t *testing.T) {
	orgID := uuid.New()
	daily := newTestArchive(t, orgID, TypeMessage, PeriodDaily, day(2024, 3, 5), 5)
	monthly := newTestArchive(t, orgID, TypeMessage, PeriodMonthly, day(2024, 3, 1), 50)

	require.NoError(t, daily.RollUpInto(monthly))
	assert.True(t, daily.IsRolledUp())
	assert.Equal(t, monthly.ID, *daily.RollupID)
	assert.Equal(t, 2, daily.GetVersion())

	otherMonth := newTestArchive(t, orgID, TypeMessage, PeriodMonthly, day(2024, 4, 1), 50)
	fresh := newTestArchive(t, orgID, TypeMessage, PeriodDaily, day(2024, 3, 6), 5)
	assert.Error(t, fresh.RollUpInto(otherMonth))

	runs := newTestArchive(t, orgID, TypeRun, PeriodMonthly, day(2024, 3, 1), 50)
	assert.Error(t, fresh.RollUpInto(runs))

	assert.Error(t, monthly.RollUpInto(daily))
}

func TestArchive_Rewritten(t *testing.T) {
	orgID := uuid.New()
	a := newTestArchive(t, orgID, TypeMessage, PeriodDaily, day(2024, 3, 5), 5)
	a.ClearDomainEvents()

	require.NoError(t, a.Rewritten("0123456789abcdef0123456789abcdef", 900, 3))

	assert.Equal(t, 3, a.RecordCount)
	assert.Equal(t, int64(900), a.Size)
	assert.Equal(t, "https://temba-archives.s3.amazonaws.com/"+orgID.String()+"/message_D20240305_0123456789abcdef0123456789abcdef.jsonl.gz", a.URL)
	assert.Equal(t, 2, a.GetVersion())

	events := a.GetDomainEvents()
	require.Len(t, events, 1)
	rewritten, ok := events[0].(*ArchiveRewrittenEvent)
	require.True(t, ok)
	assert.Equal(t, 2, rewritten.RecordsRemoved)

	err := a.Rewritten("abc", 1000, 10)
	assert.Error(t, err)
}

func TestArchive_MarkDeleted(t *testing.T) {
	a := newTestArchive(t, uuid.New(), TypeRun, PeriodDaily, day(2024, 3, 5), 5)
	now := time.Now()

	a.MarkDeleted(now)
	assert.False(t, a.NeedsDeletion)
	require.NotNil(t, a.DeletedOn)
	assert.Equal(t, now, *a.DeletedOn)
}

func TestCovering(t *testing.T) {
	orgID := uuid.New()

	feb := newTestArchive(t, orgID, TypeMessage, PeriodMonthly, day(2024, 2, 1), 100)
	febDay := newTestArchive(t, orgID, TypeMessage, PeriodDaily, day(2024, 2, 10), 5)
	require.NoError(t, febDay.RollUpInto(feb))
	mar1 := newTestArchive(t, orgID, TypeMessage, PeriodDaily, day(2024, 3, 1), 5)
	mar2 := newTestArchive(t, orgID, TypeMessage, PeriodDaily, day(2024, 3, 2), 0)
	mar3 := newTestArchive(t, orgID, TypeMessage, PeriodDaily, day(2024, 3, 3), 7)
	runs := newTestArchive(t, orgID, TypeRun, PeriodDaily, day(2024, 3, 1), 9)

	all := []Archive{*mar3, *runs, *mar2, *febDay, *mar1, *feb}

	t.Run("full range", func(t *testing.T) {
		got := Covering(all, TypeMessage, day(2024, 1, 1), day(2024, 4, 1))
		require.Len(t, got, 3)
		assert.Equal(t, feb.ID, got[0].ID)
		assert.Equal(t, mar1.ID, got[1].ID)
		assert.Equal(t, mar3.ID, got[2].ID)
	})

	t.Run("before is exclusive", func(t *testing.T) {
		got := Covering(all, TypeMessage, day(2024, 2, 15), day(2024, 3, 1))
		require.Len(t, got, 1)
		assert.Equal(t, feb.ID, got[0].ID)
	})

	t.Run("partial day overlap", func(t *testing.T) {
		got := Covering(all, TypeMessage, day(2024, 3, 3).Add(12*time.Hour), day(2024, 3, 3).Add(13*time.Hour))
		require.Len(t, got, 1)
		assert.Equal(t, mar3.ID, got[0].ID)
	})

	t.Run("other type", func(t *testing.T) {
		got := Covering(all, TypeRun, day(2024, 1, 1), day(2024, 4, 1))
		require.Len(t, got, 1)
		assert.Equal(t, runs.ID, got[0].ID)
	})

	t.Run("nothing covers", func(t *testing.T) {
		assert.Empty(t, Covering(all, TypeMessage, day(2023, 1, 1), day(2023, 2, 1)))
	})
}
