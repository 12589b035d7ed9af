package labelmaker

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cognicore/labelmaker/pkg/labelmaker/automaton"
	"github.com/cognicore/labelmaker/pkg/labelmaker/internalerr"
)

// Errors returned by LabelMaker operations.
var (
	ErrEmptyPattern = internalerr.ErrEmptyPattern
	ErrNotBuilt     = internalerr.ErrNotBuilt
	ErrAlreadyBuilt = internalerr.ErrAlreadyBuilt
	ErrConflict     = internalerr.ErrConflict
	ErrInvalidInput = internalerr.ErrInvalidInput
	ErrNotFound     = internalerr.ErrNotFound
)

// Match is re-exported so callers need not import the automaton package.
type Match = automaton.Match

// LabelMaker assigns a category to text based on the longest known pattern it
// contains. It starts in the building state, accepting Insert calls, and moves
// to the ready state on Finalize. Only a ready LabelMaker categorizes.
//
// Categorize and friends are safe for concurrent use; they read an immutable
// automaton and take no locks.
type LabelMaker struct {
	mu      sync.Mutex
	builder *automaton.Builder
	auto    atomic.Pointer[automaton.Automaton]
	opts    Options
	logger  *slog.Logger
}

// Options configures a LabelMaker
type Options struct {
	// FoldCase lower-cases patterns and text before matching. Match offsets
	// then refer to the lower-cased text.
	FoldCase bool

	// RejectConflicts makes Insert fail with ErrConflict when a pattern is
	// already labeled with a different category. Otherwise the last insert wins.
	RejectConflicts bool

	// Logger receives debug output. Defaults to slog.Default().
	Logger *slog.Logger
}

// Stats describes the pattern set behind a LabelMaker.
type Stats struct {
	Ready         bool
	Patterns      int
	Categories    int
	Nodes         int // zero until ready
	MaxPatternLen int // zero until ready
}

// New creates a LabelMaker in the building state.
func New(opts Options) *LabelMaker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LabelMaker{
		builder: automaton.NewBuilder(),
		opts:    opts,
		logger:  logger,
	}
}

// Build inserts every pattern of the map and finalizes the result.
func Build(patterns map[string]string) (*LabelMaker, error) {
	return BuildWithOptions(patterns, Options{})
}

// BuildWithOptions is Build with explicit options. Patterns are inserted in
// sorted order so the outcome never depends on map iteration.
func BuildWithOptions(patterns map[string]string, opts Options) (*LabelMaker, error) {
	l := New(opts)

	keys := make([]string, 0, len(patterns))
	for p := range patterns {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	for _, p := range keys {
		if err := l.Insert(p, patterns[p]); err != nil {
			return nil, fmt.Errorf("insert %q: %w", p, err)
		}
	}
	if err := l.Finalize(); err != nil {
		return nil, err
	}
	return l, nil
}

// Insert adds a pattern and its category. It fails with ErrEmptyPattern for
// an empty pattern and ErrAlreadyBuilt once the LabelMaker is finalized.
func (l *LabelMaker) Insert(pattern, category string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.auto.Load() != nil {
		return ErrAlreadyBuilt
	}

	pattern = l.fold(pattern)
	if l.opts.RejectConflicts {
		if existing, ok := l.builder.Lookup(pattern); ok {
			if existing != category {
				return fmt.Errorf("pattern %q is labeled %q, not %q: %w", pattern, existing, category, ErrConflict)
			}
			return nil
		}
	}
	return l.builder.Insert(pattern, category)
}

// Finalize compiles the inserted patterns and makes the LabelMaker ready.
// It is a one-time transition; a second call fails with ErrAlreadyBuilt.
func (l *LabelMaker) Finalize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.auto.Load() != nil {
		return ErrAlreadyBuilt
	}

	a, err := l.builder.Compile()
	if err != nil {
		return err
	}
	l.auto.Store(a)
	l.builder = nil

	l.logger.Debug("labelmaker finalized",
		"patterns", a.PatternCount(),
		"nodes", a.NodeCount(),
		"max_pattern_len", a.MaxPatternLen())
	return nil
}

// Ready reports whether Finalize has completed.
func (l *LabelMaker) Ready() bool {
	return l.auto.Load() != nil
}

// Categorize returns the category of the longest pattern found anywhere in
// text. ok is false when no pattern occurs. Equal-length matches resolve to the
// one found first.
func (l *LabelMaker) Categorize(text string) (category string, ok bool, err error) {
	m, ok, err := l.CategorizeMatch(text)
	if err != nil || !ok {
		return "", false, err
	}
	return m.Category, true, nil
}

// CategorizeMatch is Categorize returning the winning match itself.
func (l *LabelMaker) CategorizeMatch(text string) (Match, bool, error) {
	a := l.auto.Load()
	if a == nil {
		return Match{}, false, ErrNotBuilt
	}
	m, ok := a.Longest(l.fold(text))
	return m, ok, nil
}

// Matches returns every pattern occurrence in text in scan order.
func (l *LabelMaker) Matches(text string) ([]Match, error) {
	a := l.auto.Load()
	if a == nil {
		return nil, ErrNotBuilt
	}
	return a.All(l.fold(text)), nil
}

// Patterns returns a copy of the current pattern set.
func (l *LabelMaker) Patterns() map[string]string {
	if a := l.auto.Load(); a != nil {
		return a.Patterns()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if a := l.auto.Load(); a != nil {
		return a.Patterns()
	}
	return l.builder.Patterns()
}

// Stats summarizes the pattern set.
func (l *LabelMaker) Stats() Stats {
	patterns := l.Patterns()
	cats := make(map[string]struct{})
	for _, c := range patterns {
		cats[c] = struct{}{}
	}

	st := Stats{
		Patterns:   len(patterns),
		Categories: len(cats),
	}
	if a := l.auto.Load(); a != nil {
		st.Ready = true
		st.Nodes = a.NodeCount()
		st.MaxPatternLen = a.MaxPatternLen()
	}
	return st
}

func (l *LabelMaker) fold(s string) string {
	if l.opts.FoldCase {
		return strings.ToLower(s)
	}
	return s
}
