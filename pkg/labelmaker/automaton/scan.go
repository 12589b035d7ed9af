package automaton

import "unicode/utf8"

// Match is one pattern occurrence found while scanning.
type Match struct {
	Category string
	Pattern  string
	Start    int // byte offset, inclusive
	End      int // byte offset, exclusive
	Length   int // pattern length in runes
}

// Scan walks text once and calls fn for every pattern occurrence, in order of
// end position. Matches sharing an end position are reported longest first.
// Returning false from fn stops the scan.
func (a *Automaton) Scan(text string, fn func(Match) bool) {
	if a == nil || a.maxLen == 0 {
		return
	}

	// byte offsets of the last maxLen runes, to recover match starts
	starts := make([]int, a.maxLen)

	state := root
	for pos, k := 0, 0; pos < len(text); k++ {
		r, size := utf8.DecodeRuneInString(text[pos:])
		starts[k%a.maxLen] = pos
		pos += size

		state = a.step(state, r)

		for n := state; n != root; n = a.nodes[n].fail {
			nd := &a.nodes[n]
			if !nd.terminal {
				continue
			}
			m := Match{
				Category: nd.category,
				Pattern:  nd.pattern,
				Start:    starts[(k-nd.length+1)%a.maxLen],
				End:      pos,
				Length:   nd.length,
			}
			if !fn(m) {
				return
			}
		}
	}
}

// step follows the goto transition for r, falling back along failure links.
func (a *Automaton) step(state int32, r rune) int32 {
	for {
		if next, ok := a.nodes[state].children[r]; ok {
			return next
		}
		if state == root {
			return root
		}
		state = a.nodes[state].fail
	}
}

// Longest returns the longest match anywhere in text. Among matches of equal
// length the first one found wins.
func (a *Automaton) Longest(text string) (Match, bool) {
	var best Match
	found := false
	a.Scan(text, func(m Match) bool {
		if !found || m.Length > best.Length {
			best = m
			found = true
		}
		// nothing can beat the longest pattern
		return best.Length < a.maxLen
	})
	return best, found
}

// All collects every match in text.
func (a *Automaton) All(text string) []Match {
	var out []Match
	a.Scan(text, func(m Match) bool {
		out = append(out, m)
		return true
	})
	return out
}
