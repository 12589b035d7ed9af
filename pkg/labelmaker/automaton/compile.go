package automaton

import (
	"github.com/cognicore/labelmaker/pkg/labelmaker/internalerr"
)

// Automaton is a compiled, read-only matcher. It is safe for concurrent use.
type Automaton struct {
	nodes    []node
	patterns int
	maxLen   int
}

// Compile computes failure links breadth-first and freezes the trie.
// An empty builder compiles into an automaton that never matches.
// Compile can run only once per builder.
func (b *Builder) Compile() (*Automaton, error) {
	if b.compiled {
		return nil, internalerr.ErrAlreadyBuilt
	}

	nodes := b.store.nodes
	nodes[root].fail = root

	queue := make([]int32, 0, len(nodes))
	for _, c := range nodes[root].children {
		nodes[c].fail = root
		queue = append(queue, c)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for r, c := range nodes[cur].children {
			f := nodes[cur].fail
			for {
				if next, ok := nodes[f].children[r]; ok {
					nodes[c].fail = next
					break
				}
				if f == root {
					nodes[c].fail = root
					break
				}
				f = nodes[f].fail
			}
			queue = append(queue, c)
		}
	}

	a := &Automaton{
		nodes:    nodes,
		patterns: len(b.patterns),
		maxLen:   b.maxLen,
	}

	b.compiled = true
	b.store = nodeStore{}
	return a, nil
}

// PatternCount returns the number of distinct patterns.
func (a *Automaton) PatternCount() int {
	return a.patterns
}

// NodeCount returns the number of trie nodes, root included.
func (a *Automaton) NodeCount() int {
	return len(a.nodes)
}

// MaxPatternLen returns the length in runes of the longest pattern.
func (a *Automaton) MaxPatternLen() int {
	return a.maxLen
}

// Patterns returns a copy of every pattern and its category.
func (a *Automaton) Patterns() map[string]string {
	out := make(map[string]string, a.patterns)
	for i := range a.nodes {
		if a.nodes[i].terminal {
			out[a.nodes[i].pattern] = a.nodes[i].category
		}
	}
	return out
}
