package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store persists pattern sets and labeled documents.
// Only the pattern source is stored; automatons are always rebuilt from it.
type Store interface {
	Close() error

	// Pattern sets
	SavePatternSet(ctx context.Context, name string, patterns map[string]string) (PatternSet, error)
	GetPatternSet(ctx context.Context, id string) (PatternSet, error)
	LatestPatternSet(ctx context.Context, name string) (PatternSet, bool, error)
	ListPatternSets(ctx context.Context) ([]PatternSetInfo, error)

	// Labeled docs
	UpsertDoc(ctx context.Context, d Doc) error
	GetDocByURL(ctx context.Context, url string) (Doc, bool, error)
	CategoryCounts(ctx context.Context) (map[string]int64, error)
}

// PatternSet is a named, immutable snapshot of patterns.
// IDs are ULIDs, so they sort by creation time.
type PatternSet struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Patterns  map[string]string
}

// PatternSetInfo summarizes a stored pattern set
type PatternSetInfo struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Size      int
}

// Doc is a document and the label it received. An empty Category means no
// pattern matched.
type Doc struct {
	URL       string
	Title     string
	Category  string
	Pattern   string // winning pattern
	LabeledAt time.Time
}

// IDSource hands out monotonic ULIDs
type IDSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDSource creates an ID source seeded from crypto/rand
func NewIDSource() *IDSource {
	return &IDSource{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// New returns a fresh ID for time t
func (s *IDSource) New(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// CopyPatterns returns a copy of a pattern map
func CopyPatterns(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for p, c := range in {
		out[p] = c
	}
	return out
}
