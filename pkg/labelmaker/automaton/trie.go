package automaton

import (
	"fmt"

	"github.com/cognicore/labelmaker/pkg/labelmaker/internalerr"
)

// Builder accumulates patterns into a trie. It is not safe for concurrent use.
// Compile consumes the builder; no pattern can be added afterwards.
type Builder struct {
	store    nodeStore
	patterns map[string]string
	maxLen   int
	compiled bool
}

// NewBuilder creates a builder holding only the root node.
func NewBuilder() *Builder {
	return &Builder{
		store:    newNodeStore(),
		patterns: make(map[string]string),
	}
}

// Insert adds pattern with its category. Inserting a pattern that already
// exists replaces its category (last write wins). A failed insert leaves the
// trie untouched.
func (b *Builder) Insert(pattern, category string) error {
	if b.compiled {
		return internalerr.ErrAlreadyBuilt
	}
	if pattern == "" {
		return internalerr.ErrEmptyPattern
	}
	if category == "" {
		return fmt.Errorf("empty category for pattern %q: %w", pattern, internalerr.ErrInvalidInput)
	}

	cur := root
	length := 0
	for _, r := range pattern {
		next, ok := b.store.child(cur, r)
		if !ok {
			next = b.store.add()
			b.store.setChild(cur, r, next)
		}
		cur = next
		length++
	}

	n := &b.store.nodes[cur]
	n.terminal = true
	n.pattern = pattern
	n.category = category
	n.length = length

	b.patterns[pattern] = category
	if length > b.maxLen {
		b.maxLen = length
	}
	return nil
}

// Lookup returns the category currently recorded for pattern.
func (b *Builder) Lookup(pattern string) (string, bool) {
	cat, ok := b.patterns[pattern]
	return cat, ok
}

// Len returns the number of distinct patterns inserted so far.
func (b *Builder) Len() int {
	return len(b.patterns)
}

// Compiled reports whether Compile has already run.
func (b *Builder) Compiled() bool {
	return b.compiled
}

// Patterns returns a copy of the pattern set inserted so far.
func (b *Builder) Patterns() map[string]string {
	out := make(map[string]string, len(b.patterns))
	for p, c := range b.patterns {
		out[p] = c
	}
	return out
}
