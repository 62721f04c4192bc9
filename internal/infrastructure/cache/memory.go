package cache

import (
	"bytes"
	"strings"
	"sync"
	"time"
)

const memoryCleanupInterval = 5 * time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// memoryStore is an expiring key/value map. It backs every in-memory
// implementation in this package, which share state within a single process
// only.
type memoryStore struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newMemoryStore() *memoryStore {
	s := &memoryStore{
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

func (s *memoryStore) live(e memoryEntry) bool {
	return s.now().Before(e.expiresAt)
}

// setNX stores value unless a live entry exists, reporting whether it did
func (s *memoryStore) setNX(key string, value []byte, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && s.live(e) {
		return false
	}
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
	return true
}

func (s *memoryStore) set(key string, value []byte, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: s.now().Add(ttl)}
}

func (s *memoryStore) get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || !s.live(e) {
		return nil, false
	}
	return e.value, true
}

// deleteIfValue removes key only while it still holds value
func (s *memoryStore) deleteIfValue(key string, value []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !s.live(e) || !bytes.Equal(e.value, value) {
		return false
	}
	delete(s.entries, key)
	return true
}

func (s *memoryStore) deletePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			n++
		}
	}
	return n
}

// Size returns the number of entries, expired ones included until cleanup
func (s *memoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *memoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *memoryStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(memoryCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *memoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, e := range s.entries {
		if !s.live(e) {
			delete(s.entries, key)
		}
	}
}
