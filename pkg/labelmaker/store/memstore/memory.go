package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/labelmaker/pkg/labelmaker/internalerr"
	"github.com/cognicore/labelmaker/pkg/labelmaker/store"
)

var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu   sync.RWMutex
	ids  *store.IDSource
	now  func() time.Time
	sets map[string]store.PatternSet
	docs map[string]store.Doc

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		ids:  store.NewIDSource(),
		now:  time.Now,
		sets: make(map[string]store.PatternSet),
		docs: make(map[string]store.Doc),
	}
}

var errClosed = fmt.Errorf("memstore closed: %w", internalerr.ErrStoreUnavailable)

// Close implements store.Store. Later calls fail with ErrStoreUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// SavePatternSet stores a snapshot of patterns under name.
func (s *Store) SavePatternSet(ctx context.Context, name string, patterns map[string]string) (store.PatternSet, error) {
	if name == "" {
		return store.PatternSet{}, fmt.Errorf("pattern set name: %w", internalerr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.PatternSet{}, errClosed
	}

	now := s.now().UTC()
	set := store.PatternSet{
		ID:        s.ids.New(now),
		Name:      name,
		CreatedAt: now,
		Patterns:  store.CopyPatterns(patterns),
	}
	s.sets[set.ID] = set
	return copySet(set), nil
}

// GetPatternSet returns a pattern set by ID.
func (s *Store) GetPatternSet(ctx context.Context, id string) (store.PatternSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return store.PatternSet{}, errClosed
	}

	set, ok := s.sets[id]
	if !ok {
		return store.PatternSet{}, fmt.Errorf("pattern set %s: %w", id, internalerr.ErrNotFound)
	}
	return copySet(set), nil
}

// LatestPatternSet returns the most recently saved set with the given name.
func (s *Store) LatestPatternSet(ctx context.Context, name string) (store.PatternSet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return store.PatternSet{}, false, errClosed
	}

	var latest store.PatternSet
	found := false
	for _, set := range s.sets {
		if set.Name != name {
			continue
		}
		if !found || set.ID > latest.ID {
			latest = set
			found = true
		}
	}
	if !found {
		return store.PatternSet{}, false, nil
	}
	return copySet(latest), true, nil
}

// ListPatternSets returns all sets, oldest first.
func (s *Store) ListPatternSets(ctx context.Context) ([]store.PatternSetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed
	}

	infos := make([]store.PatternSetInfo, 0, len(s.sets))
	for _, set := range s.sets {
		infos = append(infos, store.PatternSetInfo{
			ID:        set.ID,
			Name:      set.Name,
			CreatedAt: set.CreatedAt,
			Size:      len(set.Patterns),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// UpsertDoc inserts or updates a document, keyed by URL.
func (s *Store) UpsertDoc(ctx context.Context, d store.Doc) error {
	if d.URL == "" {
		return fmt.Errorf("doc url: %w", internalerr.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errClosed
	}

	if d.LabeledAt.IsZero() {
		d.LabeledAt = s.now().UTC()
	}
	s.docs[d.URL] = d
	return nil
}

// GetDocByURL returns a document by URL.
func (s *Store) GetDocByURL(ctx context.Context, url string) (store.Doc, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return store.Doc{}, false, errClosed
	}

	d, ok := s.docs[url]
	return d, ok, nil
}

// CategoryCounts returns the number of documents per category.
// Unlabeled documents are counted under "".
func (s *Store) CategoryCounts(ctx context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed
	}

	counts := make(map[string]int64)
	for _, d := range s.docs {
		counts[d.Category]++
	}
	return counts, nil
}

func copySet(set store.PatternSet) store.PatternSet {
	set.Patterns = store.CopyPatterns(set.Patterns)
	return set
}
