// Package uuids generates the UUIDs used for every entity in the system.
//
// Generation goes through a swappable generator so that tests can seed it and
// get a stable sequence of identifiers.
package uuids

import (
	"crypto/rand"
	"io"
	mrand "math/rand"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// Generator produces version 4 UUIDs from a source of random bytes
type Generator struct {
	mu  sync.Mutex
	src io.Reader
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{src: rand.Reader}
}

// NewSeededGenerator creates a generator whose output is fully determined by seed
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{src: mrand.New(mrand.NewSource(seed))}
}

// New returns the next UUID from this generator
func (g *Generator) New() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		// crypto/rand and math/rand never fail to fill a 16 byte buffer
		panic("uuids: unable to read random bytes: " + err.Error())
	}
	return u
}

var (
	currentMu sync.RWMutex
	current   = NewGenerator()
)

func generator() *Generator {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// New returns a new random v4 UUID
func New() uuid.UUID {
	return generator().New()
}

// NewString returns a new random v4 UUID in its canonical string form
func NewString() string {
	return New().String()
}

// Seed switches the process wide generator to a deterministic one
func Seed(seed int64) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = NewSeededGenerator(seed)
}

// Reset restores the process wide generator to crypto randomness
func Reset() {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = NewGenerator()
}

// IsUUID returns whether s is a UUID in canonical hyphenated form
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	return uuidRegex.MatchString(s)
}

// FindUUID returns the first UUID found in s, lowercased, or "" if there is none
func FindUUID(s string) string {
	return strings.ToLower(uuidRegex.FindString(s))
}
