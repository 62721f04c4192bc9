package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	archiveapp "github.com/temba/backend/internal/application/archive"
	exportapp "github.com/temba/backend/internal/application/export"
	flowresultapp "github.com/temba/backend/internal/application/flowresult"
	ivrapp "github.com/temba/backend/internal/application/ivr"
	"github.com/temba/backend/internal/domain/archive"
	"github.com/temba/backend/internal/infrastructure/cache"
	"github.com/temba/backend/internal/infrastructure/config"
	"github.com/temba/backend/internal/infrastructure/persistence"
	"github.com/temba/backend/internal/infrastructure/persistence/models"
	"github.com/temba/backend/internal/infrastructure/scheduler"
	"github.com/temba/backend/internal/infrastructure/storage"
	"github.com/temba/backend/internal/interfaces/http/dto"
	"github.com/temba/backend/internal/interfaces/http/middleware"
)

const (
	testArchiveBucket = "temba-archives"
	testExportBucket  = "temba-exports"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []*scheduler.Job
}

func (f *fakeSubmitter) Submit(job *scheduler.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// testEnv is the API wired over an in-memory sqlite database and object store
type testEnv struct {
	router   *gin.Engine
	objects  *storage.MemoryObjectStorage
	archives *archiveapp.ArchiveService
	exports  *exportapp.ExportService
	jobs     *fakeSubmitter
	orgID    uuid.UUID
	userID   uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", DBName: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.DB.AutoMigrate(&models.ArchiveModel{}, &models.ExportModel{}))
	require.NoError(t, db.DB.Exec(
		`CREATE UNIQUE INDEX idx_archives_archive_org_type_period_start ON archives_archive (org_id, archive_type, period, start_date)`,
	).Error)

	objects := storage.NewMemoryObjectStorage()
	locker := cache.NewInMemoryLocker()
	t.Cleanup(func() { _ = locker.Close() })
	jobs := &fakeSubmitter{}

	archives := archiveapp.NewArchiveService(persistence.NewGormArchiveRepository(db.DB), objects,
		archiveapp.WithLogger(log), archiveapp.WithTempDir(t.TempDir()))
	exports := exportapp.NewExportService(persistence.NewGormExportRepository(db.DB), archives, objects, locker, testExportBucket,
		exportapp.WithLogger(log), exportapp.WithJobSubmitter(jobs))
	results := flowresultapp.NewService(archives, cache.NewInMemoryResultCache(), flowresultapp.WithLogger(log))

	env := &testEnv{
		objects:  objects,
		archives: archives,
		exports:  exports,
		jobs:     jobs,
		orgID:    uuid.New(),
		userID:   uuid.New(),
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		if c.GetHeader("X-Anonymous") == "" {
			c.Set(middleware.JWTOrgIDKey, env.orgID.String())
			c.Set(middleware.JWTUserIDKey, env.userID.String())
		}
		c.Next()
	})

	ah := NewArchiveHandler(archives)
	api.GET("/archives", ah.List)
	api.GET("/archives/:id", ah.Get)
	api.GET("/archives/:id/download", ah.Download)
	api.POST("/archives", ah.Register)
	api.POST("/archives/redact", ah.Redact)

	eh := NewExportHandler(exports)
	api.POST("/exports", eh.Create)
	api.GET("/exports", eh.List)
	api.GET("/exports/:id", eh.Get)
	api.GET("/exports/:id/download", eh.Download)

	fh := NewFlowResultHandler(results)
	api.GET("/flows/:uuid/results/:key/categories", fh.NumericCategories)

	ih := NewIVRHandler(ivrapp.NewService(log))
	api.POST("/ivr/ncco", ih.RenderNCCO)

	env.router = r
	return env
}

// do sends a request to the API, encoding body as JSON when it is not nil
func (env *testEnv) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// storeArchive uploads the records as an archive file and registers it for the org
func (env *testEnv) storeArchive(t *testing.T, archiveType archive.ArchiveType, start time.Time, records ...map[string]any) *archiveapp.ArchiveResponse {
	t.Helper()

	var buf bytes.Buffer
	w := storage.NewJSONLWriter(&buf)
	for _, r := range records {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())

	key := env.orgID.String() + "/" + archive.FilenameFor(archiveType, archive.PeriodDaily, start, w.Hash())
	env.objects.PutBytes(testArchiveBucket, key, buf.Bytes())

	a, err := env.archives.Register(t.Context(), env.orgID, archiveapp.RegisterArchiveRequest{
		Type:        string(archiveType),
		Period:      string(archive.PeriodDaily),
		StartDate:   start,
		URL:         archive.BuildURL(testArchiveBucket, key),
		Hash:        w.Hash(),
		Size:        w.Size(),
		RecordCount: w.Records(),
		BuildTime:   10,
	})
	require.NoError(t, err)
	return a
}

// decodeResponse decodes the envelope, unmarshalling data into out if given
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()

	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return raw.Response
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
