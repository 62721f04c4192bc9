package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/temba/backend/pkg/s3select"
)

// MemoryObjectStorage keeps objects in memory. Select queries are evaluated
// with s3select.Conditions.Match over the decompressed records, so it stands
// in for S3 in development and tests.
type MemoryObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
	now     func() time.Time
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStorage creates an empty store
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		objects: make(map[string]memoryObject),
		baseURL: "http://storage.localhost",
		now:     time.Now,
	}
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

// EnsureBucket is a no-op, buckets exist implicitly
func (m *MemoryObjectStorage) EnsureBucket(ctx context.Context, bucket string) error {
	return nil
}

// PutObject stores the body under bucket/key
func (m *MemoryObjectStorage) PutObject(ctx context.Context, bucket, key string, body io.ReadSeeker, size int64, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read upload body: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectID(bucket, key)] = memoryObject{data: data, contentType: contentType}
	return nil
}

// PutBytes is a convenience for seeding objects
func (m *MemoryObjectStorage) PutBytes(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectID(bucket, key)] = memoryObject{data: bytes.Clone(data)}
}

// GetObject opens bucket/key for reading
func (m *MemoryObjectStorage) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	data, err := m.get(bucket, key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryObjectStorage) get(bucket, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[objectID(bucket, key)]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, key, ErrObjectNotFound)
	}
	return obj.data, nil
}

// DeleteObject removes bucket/key
func (m *MemoryObjectStorage) DeleteObject(ctx context.Context, bucket, key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectID(bucket, key))
	return nil
}

// Exists reports whether bucket/key is stored
func (m *MemoryObjectStorage) Exists(bucket, key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectID(bucket, key)]
	return ok
}

// Keys returns the stored keys of a bucket in order
func (m *MemoryObjectStorage) Keys(bucket string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := bucket + "/"
	var keys []string
	for id := range m.objects {
		if len(id) > len(prefix) && id[:len(prefix)] == prefix {
			keys = append(keys, id[len(prefix):])
		}
	}
	sort.Strings(keys)
	return keys
}

// PresignGet returns a fake URL naming the object
func (m *MemoryObjectStorage) PresignGet(ctx context.Context, bucket, key, filename string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	if expiresIn <= 0 {
		expiresIn = defaultPresignExpiry
	}
	expiresAt := m.now().Add(expiresIn)

	q := url.Values{}
	q.Set("expires", expiresAt.UTC().Format(time.RFC3339))
	if filename != "" {
		q.Set("filename", filename)
	}
	return m.baseURL + "/" + bucket + "/" + key + "?" + q.Encode(), expiresAt, nil
}

// SelectRecords decompresses the JSON lines object at bucket/key and streams
// the records matching where
func (m *MemoryObjectStorage) SelectRecords(ctx context.Context, bucket, key string, where s3select.Conditions, fn s3select.RecordFunc) error {
	// validate the conditions the same way a compiled query would
	if _, err := s3select.Compile("", where); err != nil {
		return err
	}

	data, err := m.get(bucket, key)
	if err != nil {
		return err
	}
	return ReadJSONL(ctx, bytes.NewReader(data), func(record map[string]any) error {
		ok, err := where.Match(record)
		if err != nil || !ok {
			return err
		}
		return fn(record)
	})
}
