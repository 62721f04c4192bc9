package export

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temba/backend/internal/domain/shared"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newMessageExport(t *testing.T, config Config) *Export {
	t.Helper()
	e, err := NewExport(uuid.New(), uuid.New(), TypeMessages, FormatXLSX, date(2024, 3, 1), date(2024, 3, 31), config)
	require.NoError(t, err)
	return e
}

func TestNewExport(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()

	t.Run("messages", func(t *testing.T) {
		e, err := NewExport(orgID, userID, TypeMessages, FormatCSV, date(2024, 3, 1), date(2024, 3, 31), Config{})
		require.NoError(t, err)

		assert.Equal(t, StatusPending, e.Status)
		assert.Equal(t, orgID, e.OrgID)
		require.NotNil(t, e.CreatedBy)
		assert.Equal(t, userID, *e.CreatedBy)

		events := e.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeExportCreated, events[0].EventType())
	})

	t.Run("dates are truncated in the export timezone", func(t *testing.T) {
		// 2024-03-01 23:30 UTC is already March 2nd in Kigali
		start := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
		e, err := NewExport(orgID, userID, TypeMessages, FormatCSV, start, start, Config{Timezone: "Africa/Kigali"})
		require.NoError(t, err)
		assert.Equal(t, date(2024, 3, 2), e.StartDate)
		assert.Equal(t, date(2024, 3, 2), e.EndDate)
	})

	t.Run("results", func(t *testing.T) {
		_, err := NewExport(orgID, userID, TypeResults, FormatXLSX, date(2023, 1, 1), date(2024, 3, 31), Config{
			Flows:      []FlowRef{{UUID: uuid.New(), Name: "Registration"}},
			ResultKeys: []string{"age"},
		})
		require.NoError(t, err)
	})

	tests := []struct {
		name     string
		typ      ExportType
		format   Format
		start    time.Time
		end      time.Time
		config   Config
		wantCode string
	}{
		{"bad type", "contacts", FormatCSV, date(2024, 3, 1), date(2024, 3, 2), Config{}, "INVALID_EXPORT_TYPE"},
		{"bad format", TypeMessages, "pdf", date(2024, 3, 1), date(2024, 3, 2), Config{}, "INVALID_EXPORT_FORMAT"},
		{"end before start", TypeMessages, FormatCSV, date(2024, 3, 2), date(2024, 3, 1), Config{}, "INVALID_DATE_RANGE"},
		{"too long", TypeMessages, FormatCSV, date(2024, 1, 1), date(2024, 4, 1), Config{}, "INVALID_DATE_RANGE"},
		{"results without flows", TypeResults, FormatCSV, date(2024, 1, 1), date(2024, 1, 2), Config{}, "INVALID_EXPORT_CONFIG"},
		{"bad timezone", TypeMessages, FormatCSV, date(2024, 1, 1), date(2024, 1, 2), Config{Timezone: "Mars/Olympus"}, "INVALID_TIMEZONE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExport(orgID, userID, tt.typ, tt.format, tt.start, tt.end, tt.config)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.wantCode, domainErr.Code)
		})
	}
}

func TestNewExport_MaxRange(t *testing.T) {
	_, err := NewExport(uuid.New(), uuid.New(), TypeMessages, FormatCSV, date(2024, 1, 1), date(2024, 1, 1).AddDate(0, 0, MaxMessageExportDays), Config{})
	assert.NoError(t, err)
}

func TestExport_Range(t *testing.T) {
	e := newMessageExport(t, Config{Timezone: "America/New_York"})
	after, before := e.Range()

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.True(t, after.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, ny)))
	assert.True(t, before.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, ny)))
}

func TestExport_Lifecycle(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		e := newMessageExport(t, Config{})
		e.ClearDomainEvents()

		require.NoError(t, e.Start())
		assert.Equal(t, StatusProcessing, e.Status)

		require.NoError(t, e.Complete(42, e.StoragePath()))
		assert.Equal(t, StatusComplete, e.Status)
		assert.Equal(t, 42, e.NumRecords)
		assert.True(t, e.IsDownloadable())
		assert.Equal(t, 3, e.GetVersion())

		events := e.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeExportCompleted, events[0].EventType())
		assert.Equal(t, 42, events[0].(*ExportEvent).NumRecords)

		assert.Error(t, e.Fail("too late"))
		assert.Error(t, e.Start())
	})

	t.Run("fail from pending", func(t *testing.T) {
		e := newMessageExport(t, Config{})
		require.NoError(t, e.Fail("storage unavailable"))
		assert.Equal(t, StatusFailed, e.Status)
		assert.Equal(t, "storage unavailable", e.Error)
		assert.False(t, e.IsDownloadable())
	})

	t.Run("can't complete without starting", func(t *testing.T) {
		e := newMessageExport(t, Config{})
		err := e.Complete(1, "x")

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		assert.Equal(t, "Can't move export from pending to complete", domainErr.Message)
	})
}

func TestExport_Paths(t *testing.T) {
	e := newMessageExport(t, Config{})
	e.CreatedAt = time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "orgs/"+e.OrgID.String()+"/exports/"+e.ID.String()+".xlsx", e.StoragePath())
	assert.Equal(t, "messages_20240402.xlsx", e.DownloadFilename())
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusComplete.IsFinished())
	assert.True(t, StatusFailed.IsFinished())
	assert.False(t, StatusProcessing.IsFinished())
	assert.False(t, Status("X").IsValid())
	assert.False(t, StatusFailed.CanTransitionTo(StatusPending))
	assert.True(t, StatusPending.CanTransitionTo(StatusFailed))
}

func TestConfig_Headers(t *testing.T) {
	assert.Equal(t, MessageColumns, Config{}.Headers(TypeMessages))

	config := Config{
		Flows:      []FlowRef{{UUID: uuid.New(), Name: "Registration"}, {UUID: uuid.New(), Name: "Survey"}},
		ResultKeys: []string{"age", "name"},
	}
	headers := config.Headers(TypeResults)

	assert.Len(t, headers, len(ResultsBaseColumns)+4*3)
	assert.Equal(t, "Exited", headers[6])
	assert.Equal(t, "Registration:age (Category)", headers[7])
	assert.Equal(t, "Registration:age (Value)", headers[8])
	assert.Equal(t, "Registration:age (Text)", headers[9])
	assert.Equal(t, "Survey:name (Text)", headers[len(headers)-1])
}
