// Package automaton implements an Aho-Corasick automaton over literal patterns,
// each carrying a category label. Nodes live in a single arena and reference
// each other by index, so the compiled automaton has no pointers to share.
package automaton

// root is always the first node in the arena.
const root int32 = 0

// node is a trie state. children and fail are arena indices.
type node struct {
	children map[rune]int32
	fail     int32

	// terminal payload, set when a pattern ends exactly here
	terminal bool
	pattern  string
	category string
	length   int // in runes
}

// nodeStore owns every node of one trie.
type nodeStore struct {
	nodes []node
}

func newNodeStore() nodeStore {
	return nodeStore{nodes: []node{{fail: root}}}
}

// add appends an empty node and returns its index.
// Pointers into nodes must not be held across add.
func (s *nodeStore) add() int32 {
	s.nodes = append(s.nodes, node{fail: root})
	return int32(len(s.nodes) - 1)
}

func (s *nodeStore) child(i int32, r rune) (int32, bool) {
	next, ok := s.nodes[i].children[r]
	return next, ok
}

func (s *nodeStore) setChild(i int32, r rune, next int32) {
	n := &s.nodes[i]
	if n.children == nil {
		n.children = make(map[rune]int32)
	}
	n.children[r] = next
}
