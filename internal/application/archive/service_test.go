package archive

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/temba/backend/internal/domain/archive"
	"github.com/temba/backend/internal/domain/shared"
	"github.com/temba/backend/internal/infrastructure/storage"
	"github.com/temba/backend/pkg/s3select"
)

const testBucket = "temba-archives"

// mockArchiveRepo is a mock implementation of archive.ArchiveRepository
type mockArchiveRepo struct {
	mock.Mock
}

func (m *mockArchiveRepo) Create(ctx context.Context, a *archive.Archive) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockArchiveRepo) CreateWithRollup(ctx context.Context, a *archive.Archive) (int, error) {
	args := m.Called(ctx, a)
	return args.Int(0), args.Error(1)
}

func (m *mockArchiveRepo) Update(ctx context.Context, a *archive.Archive) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockArchiveRepo) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*archive.Archive, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*archive.Archive), args.Error(1)
}

func (m *mockArchiveRepo) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter archive.ArchiveFilter) ([]archive.Archive, error) {
	args := m.Called(ctx, orgID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]archive.Archive), args.Error(1)
}

func (m *mockArchiveRepo) CountForOrg(ctx context.Context, orgID uuid.UUID, filter archive.ArchiveFilter) (int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockArchiveRepo) FindCovering(ctx context.Context, orgID uuid.UUID, archiveType archive.ArchiveType, after, before time.Time) ([]archive.Archive, error) {
	args := m.Called(ctx, orgID, archiveType, after, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]archive.Archive), args.Error(1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func msg(id string, createdOn string) map[string]any {
	return map[string]any{"uuid": id, "created_on": createdOn, "text": "hello " + id}
}

// storeArchive writes the records as an archive file and returns an archive pointing at it
func storeArchive(t *testing.T, objects *storage.MemoryObjectStorage, orgID uuid.UUID, period archive.Period, start time.Time, records ...map[string]any) *archive.Archive {
	t.Helper()

	var buf bytes.Buffer
	w := storage.NewJSONLWriter(&buf)
	for _, r := range records {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())

	key := orgID.String() + "/" + archive.FilenameFor(archive.TypeMessage, period, start, w.Hash())
	objects.PutBytes(testBucket, key, buf.Bytes())

	a, err := archive.NewArchive(orgID, archive.TypeMessage, period, start,
		archive.BuildURL(testBucket, key), w.Hash(), w.Size(), w.Records(), 12)
	require.NoError(t, err)
	a.ClearDomainEvents()
	return a
}

func newTestService(t *testing.T) (*ArchiveService, *mockArchiveRepo, *storage.MemoryObjectStorage, *recordingPublisher) {
	repo := new(mockArchiveRepo)
	objects := storage.NewMemoryObjectStorage()
	pub := &recordingPublisher{}
	svc := NewArchiveService(repo, objects, WithLogger(zaptest.NewLogger(t)), WithTempDir(t.TempDir()))
	svc.SetEventPublisher(pub)
	return svc, repo, objects, pub
}

func TestArchiveService_List(t *testing.T) {
	svc, repo, objects, _ := newTestService(t)
	orgID := uuid.New()
	a := storeArchive(t, objects, orgID, archive.PeriodDaily, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		msg(uuid.NewString(), "2024-03-01T10:00:00Z"))

	isFiltered := mock.MatchedBy(func(f archive.ArchiveFilter) bool {
		return f.Type != nil && *f.Type == archive.TypeMessage && f.Page == 2 && f.PageSize == 10
	})
	repo.On("FindAllForOrg", mock.Anything, orgID, isFiltered).Return([]archive.Archive{*a}, nil)
	repo.On("CountForOrg", mock.Anything, orgID, isFiltered).Return(int64(11), nil)

	items, total, err := svc.List(context.Background(), orgID, ListArchivesFilter{Type: "message", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, "message", items[0].Type)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), items[0].EndDate)
	assert.Equal(t, a.Filename(), items[0].Filename)
	assert.NotEmpty(t, items[0].SizeDisplay)
	repo.AssertExpectations(t)
}

func TestArchiveService_List_InvalidType(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, _, err := svc.List(context.Background(), uuid.New(), ListArchivesFilter{Type: "flows"})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_ARCHIVE_TYPE", domainErr.Code)
}

func TestArchiveService_DownloadURL(t *testing.T) {
	svc, repo, objects, _ := newTestService(t)
	orgID := uuid.New()
	a := storeArchive(t, objects, orgID, archive.PeriodDaily, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		msg(uuid.NewString(), "2024-03-01T10:00:00Z"))
	repo.On("FindByIDForOrg", mock.Anything, orgID, a.ID).Return(a, nil)

	resp, err := svc.DownloadURL(context.Background(), orgID, a.ID)
	require.NoError(t, err)
	assert.Contains(t, resp.URL, testBucket)
	assert.Equal(t, a.Filename(), resp.Filename)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
}

func TestArchiveService_DownloadURL_Empty(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	orgID := uuid.New()
	empty, err := archive.NewArchive(orgID, archive.TypeRun, archive.PeriodDaily, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "", "", 0, 0, 1)
	require.NoError(t, err)
	repo.On("FindByIDForOrg", mock.Anything, orgID, empty.ID).Return(empty, nil)

	_, err = svc.DownloadURL(context.Background(), orgID, empty.ID)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ARCHIVE_EMPTY", domainErr.Code)
}

func TestArchiveService_DownloadURL_NotFound(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	orgID, id := uuid.New(), uuid.New()
	repo.On("FindByIDForOrg", mock.Anything, orgID, id).Return(nil, shared.ErrNotFound)

	_, err := svc.DownloadURL(context.Background(), orgID, id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestArchiveService_Register(t *testing.T) {
	svc, repo, _, pub := newTestService(t)
	orgID := uuid.New()
	repo.On("CreateWithRollup", mock.Anything, mock.AnythingOfType("*archive.Archive")).Return(0, nil)

	resp, err := svc.Register(context.Background(), orgID, RegisterArchiveRequest{
		Type:        "run",
		Period:      "D",
		StartDate:   time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		URL:         "https://temba-archives.s3.amazonaws.com/org/run_D20240305_0123456789abcdef0123456789abcdef.jsonl.gz",
		Hash:        "0123456789abcdef0123456789abcdef",
		Size:        2048,
		RecordCount: 15,
		BuildTime:   30,
	})
	require.NoError(t, err)
	assert.Equal(t, "run", resp.Type)
	assert.Equal(t, 15, resp.RecordCount)
	require.Len(t, pub.events, 1)
	assert.Equal(t, archive.EventTypeArchiveRegistered, pub.events[0].EventType())
}

func TestArchiveService_Register_Duplicate(t *testing.T) {
	svc, repo, _, pub := newTestService(t)
	repo.On("CreateWithRollup", mock.Anything, mock.Anything).Return(0, shared.ErrAlreadyExists)

	_, err := svc.Register(context.Background(), uuid.New(), RegisterArchiveRequest{
		Type:      "message",
		Period:    "D",
		StartDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ARCHIVE_EXISTS", domainErr.Code)
	assert.Empty(t, pub.events)
}

func TestArchiveService_Register_InvalidStart(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	_, err := svc.Register(context.Background(), uuid.New(), RegisterArchiveRequest{
		Type:      "message",
		Period:    "M",
		StartDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_START_DATE", domainErr.Code)
	repo.AssertNotCalled(t, "CreateWithRollup", mock.Anything, mock.Anything)
}

func TestArchiveService_Register_RollupFailure(t *testing.T) {
	svc, repo, _, pub := newTestService(t)
	repo.On("CreateWithRollup", mock.Anything, mock.Anything).Return(0, shared.ErrConcurrencyConflict)

	_, err := svc.Register(context.Background(), uuid.New(), RegisterArchiveRequest{
		Type:      "message",
		Period:    "M",
		StartDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Empty(t, pub.events)
}

func TestArchiveService_IterRecords(t *testing.T) {
	svc, repo, objects, _ := newTestService(t)
	orgID := uuid.New()
	march := storeArchive(t, objects, orgID, archive.PeriodMonthly, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		msg("m1", "2024-03-01T10:00:00Z"),
		msg("m2", "2024-03-20T10:00:00Z"),
		msg("m3", "2024-03-31T23:59:59Z"),
	)
	april := storeArchive(t, objects, orgID, archive.PeriodDaily, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		msg("m4", "2024-04-01T08:00:00Z"),
		msg("m5", "2024-04-01T09:00:00Z"),
	)

	after := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	repo.On("FindCovering", mock.Anything, orgID, archive.TypeMessage, after, before).Return([]archive.Archive{*march, *april}, nil)

	var seen []string
	err := svc.IterRecords(context.Background(), orgID, archive.TypeMessage, after, before, nil, func(record map[string]any) error {
		seen = append(seen, record["uuid"].(string))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m3", "m4"}, seen)
}

func TestArchiveService_IterRecords_ExtraConditions(t *testing.T) {
	svc, repo, objects, _ := newTestService(t)
	orgID := uuid.New()
	march := storeArchive(t, objects, orgID, archive.PeriodMonthly, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		msg("m1", "2024-03-01T10:00:00Z"),
		msg("m2", "2024-03-20T10:00:00Z"),
	)
	after := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	repo.On("FindCovering", mock.Anything, orgID, archive.TypeMessage, after, before).Return([]archive.Archive{*march}, nil)

	var seen []string
	err := svc.IterRecords(context.Background(), orgID, archive.TypeMessage, after, before, s3select.Conditions{"uuid": "m1"}, func(record map[string]any) error {
		seen = append(seen, record["uuid"].(string))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, seen)
}

func TestArchiveService_Rewrite(t *testing.T) {
	svc, repo, objects, pub := newTestService(t)
	orgID := uuid.New()
	a := storeArchive(t, objects, orgID, archive.PeriodDaily, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		msg("m1", "2024-03-01T10:00:00Z"),
		msg("m2", "2024-03-01T11:00:00Z"),
		msg("m3", "2024-03-01T12:00:00Z"),
	)
	_, oldKey, err := a.Location()
	require.NoError(t, err)
	repo.On("Update", mock.Anything, a).Return(nil)

	err = svc.Rewrite(context.Background(), a, func(record map[string]any) (bool, error) {
		if record["uuid"] == "m2" {
			return false, nil
		}
		record["text"] = ""
		return true, nil
	})
	require.NoError(t, err)

	assert.Equal(t, 2, a.RecordCount)
	assert.Equal(t, 2, a.Version)
	assert.Len(t, a.Hash, 32)
	_, newKey, err := a.Location()
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, newKey)
	assert.False(t, objects.Exists(testBucket, oldKey))
	assert.True(t, objects.Exists(testBucket, newKey))

	var texts []any
	err = objects.SelectRecords(context.Background(), testBucket, newKey, nil, func(record map[string]any) error {
		texts = append(texts, record["text"])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"", ""}, texts)

	require.Len(t, pub.events, 1)
	rewritten := pub.events[0].(*archive.ArchiveRewrittenEvent)
	assert.Equal(t, 1, rewritten.RecordsRemoved)
}

func TestArchiveService_Rewrite_UpdateConflict(t *testing.T) {
	svc, repo, objects, pub := newTestService(t)
	a := storeArchive(t, objects, uuid.New(), archive.PeriodDaily, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		msg("m1", "2024-03-01T10:00:00Z"))
	_, oldKey, _ := a.Location()
	repo.On("Update", mock.Anything, a).Return(shared.ErrConcurrencyConflict)

	err := svc.Rewrite(context.Background(), a, func(map[string]any) (bool, error) { return false, nil })
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.True(t, objects.Exists(testBucket, oldKey))
	assert.Empty(t, pub.events)
}

func TestArchiveService_DeleteRecords(t *testing.T) {
	svc, repo, objects, _ := newTestService(t)
	orgID := uuid.New()
	target := uuid.New()
	other := uuid.New()

	day := storeArchive(t, objects, orgID, archive.PeriodDaily, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		msg(target.String(), "2024-03-01T10:00:00Z"),
		msg(other.String(), "2024-03-01T11:00:00Z"),
	)
	month := storeArchive(t, objects, orgID, archive.PeriodMonthly, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		msg(target.String(), "2024-03-01T10:00:00Z"),
		msg(other.String(), "2024-03-01T11:00:00Z"),
	)
	require.NoError(t, day.RollUpInto(month))
	untouched := storeArchive(t, objects, orgID, archive.PeriodDaily, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		msg(other.String(), "2024-04-01T11:00:00Z"),
	)

	isMessages := mock.MatchedBy(func(f archive.ArchiveFilter) bool {
		return f.Type != nil && *f.Type == archive.TypeMessage
	})
	repo.On("FindAllForOrg", mock.Anything, orgID, isMessages).Return([]archive.Archive{*day, *month, *untouched}, nil).Once()
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.DeleteRecords(context.Background(), orgID, RedactRequest{Type: "message", UUIDs: []uuid.UUID{target}})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ArchivesScanned)
	assert.Equal(t, 2, result.ArchivesRewritten)
	assert.Equal(t, 2, result.RecordsRemoved)
	assert.ElementsMatch(t, []uuid.UUID{day.ID, month.ID}, result.Rewritten)
	repo.AssertNumberOfCalls(t, "Update", 2)
}

func TestArchiveService_DeleteRecords_Validation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.DeleteRecords(context.Background(), uuid.New(), RedactRequest{Type: "message"})
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_UUIDS", domainErr.Code)

	_, err = svc.DeleteRecords(context.Background(), uuid.New(), RedactRequest{Type: "flow", UUIDs: []uuid.UUID{uuid.New()}})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_ARCHIVE_TYPE", domainErr.Code)
}
