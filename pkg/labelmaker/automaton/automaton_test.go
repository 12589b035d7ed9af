package automaton

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/labelmaker/pkg/labelmaker/internalerr"
)

func compile(t *testing.T, patterns map[string]string) *Automaton {
	t.Helper()
	b := NewBuilder()
	keys := make([]string, 0, len(patterns))
	for p := range patterns {
		keys = append(keys, p)
	}
	sort.Strings(keys)
	for _, p := range keys {
		require.NoError(t, b.Insert(p, patterns[p]))
	}
	a, err := b.Compile()
	require.NoError(t, err)
	return a
}

func TestLongestPrefersLongerContainedPattern(t *testing.T) {
	a := compile(t, map[string]string{
		"rawr":  "Sad Noise",
		"rawrs": "Fossils Are Cool!",
	})

	m, ok := a.Longest("The dinosaur that rawrs.")
	require.True(t, ok)
	assert.Equal(t, "Fossils Are Cool!", m.Category)
	assert.Equal(t, "rawrs", m.Pattern)
	assert.Equal(t, 18, m.Start)
	assert.Equal(t, 23, m.End)
	assert.Equal(t, 5, m.Length)
}

func TestLongestScansWholeText(t *testing.T) {
	a := compile(t, map[string]string{"a": "X", "ab": "Y"})

	m, ok := a.Longest("xaby")
	require.True(t, ok)
	assert.Equal(t, "Y", m.Category)

	// the longer pattern appears after a shorter one has already matched
	a = compile(t, map[string]string{"rex": "short", "velociraptor": "long"})
	m, ok = a.Longest("rex chased a velociraptor")
	require.True(t, ok)
	assert.Equal(t, "long", m.Category)
}

func TestLongestTieKeepsFirstFound(t *testing.T) {
	a := compile(t, map[string]string{"cat": "feline", "dog": "canine"})

	m, ok := a.Longest("the dog saw a cat")
	require.True(t, ok)
	assert.Equal(t, "canine", m.Category)

	m, ok = a.Longest("the cat saw a dog")
	require.True(t, ok)
	assert.Equal(t, "feline", m.Category)
}

func TestLongestNoMatch(t *testing.T) {
	a := compile(t, map[string]string{"triceratops": "Ceratopsian"})

	_, ok := a.Longest("a stegosaurus walked by")
	assert.False(t, ok)

	_, ok = a.Longest("")
	assert.False(t, ok)
}

func TestEmptyAutomatonNeverMatches(t *testing.T) {
	a, err := NewBuilder().Compile()
	require.NoError(t, err)

	for _, text := range []string{"", "anything", "rawr", "\x00\xff"} {
		_, ok := a.Longest(text)
		assert.False(t, ok, "text %q", text)
		assert.Empty(t, a.All(text))
	}
	assert.Equal(t, 0, a.PatternCount())
	assert.Equal(t, 1, a.NodeCount())
}

func TestInsertErrors(t *testing.T) {
	b := NewBuilder()

	err := b.Insert("", "Nothing")
	assert.ErrorIs(t, err, internalerr.ErrEmptyPattern)

	err = b.Insert("rex", "")
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	assert.Equal(t, 0, b.Len())
	assert.Len(t, b.store.nodes, 1)

	require.NoError(t, b.Insert("rex", "Therapod"))
	_, err = b.Compile()
	require.NoError(t, err)

	err = b.Insert("Triceratops", "Ceratopsian")
	assert.ErrorIs(t, err, internalerr.ErrAlreadyBuilt)
}

func TestCompileTwiceFails(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Insert("rex", "Therapod"))

	_, err := b.Compile()
	require.NoError(t, err)
	assert.True(t, b.Compiled())

	_, err = b.Compile()
	assert.ErrorIs(t, err, internalerr.ErrAlreadyBuilt)
}

func TestDuplicatePatternLastWriteWins(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Insert("rex", "T"))
	require.NoError(t, b.Insert("rex", "Not-T"))
	assert.Equal(t, 1, b.Len())

	cat, ok := b.Lookup("rex")
	require.True(t, ok)
	assert.Equal(t, "Not-T", cat)

	a, err := b.Compile()
	require.NoError(t, err)

	m, ok := a.Longest("tyrannosaurus rex")
	require.True(t, ok)
	assert.Equal(t, "Not-T", m.Category)
	assert.Equal(t, map[string]string{"rex": "Not-T"}, a.Patterns())
}

func TestFailureLinks(t *testing.T) {
	b := NewBuilder()
	for _, p := range []string{"he", "she", "his", "hers"} {
		require.NoError(t, b.Insert(p, p))
	}
	a, err := b.Compile()
	require.NoError(t, err)

	walk := func(s string) int32 {
		cur := root
		for _, r := range s {
			next, ok := a.nodes[cur].children[r]
			require.True(t, ok, "missing path %q", s)
			cur = next
		}
		return cur
	}

	cases := map[string]string{
		"h":    "",
		"s":    "",
		"he":   "",
		"sh":   "h",
		"she":  "he",
		"hi":   "",
		"his":  "s",
		"her":  "",
		"hers": "s",
	}
	for path, want := range cases {
		assert.Equal(t, walk(want), a.nodes[walk(path)].fail, "fail(%q)", path)
	}
	assert.Equal(t, root, a.nodes[root].fail)
}

func TestAllReportsEveryOccurrence(t *testing.T) {
	a := compile(t, map[string]string{"he": "1", "she": "2", "his": "3", "hers": "4"})

	got := a.All("ushers")
	require.Len(t, got, 3)

	// same end position reports the longest pattern first
	assert.Equal(t, "she", got[0].Pattern)
	assert.Equal(t, "he", got[1].Pattern)
	assert.Equal(t, got[0].End, got[1].End)
	assert.Equal(t, "hers", got[2].Pattern)
	assert.Equal(t, 2, got[2].Start)
	assert.Equal(t, 6, got[2].End)
}

func TestScanStopsWhenCallbackReturnsFalse(t *testing.T) {
	a := compile(t, map[string]string{"a": "X"})

	calls := 0
	a.Scan("aaaa", func(Match) bool {
		calls++
		return calls < 2
	})
	assert.Equal(t, 2, calls)
}

func TestMultibyteOffsets(t *testing.T) {
	a := compile(t, map[string]string{
		"拼音":   "pinyin",
		"café": "coffee",
	})

	text := "测试拼音 and café"
	m, ok := a.Longest(text)
	require.True(t, ok)
	// 拼音 is 2 runes, café is 4
	assert.Equal(t, "coffee", m.Category)
	assert.Equal(t, 4, m.Length)
	assert.Equal(t, "café", text[m.Start:m.End])

	all := a.All(text)
	require.Len(t, all, 2)
	assert.Equal(t, "拼音", text[all[0].Start:all[0].End])
	assert.Equal(t, 2, all[0].Length)
}

func TestInvalidUTF8IsComparedConsistently(t *testing.T) {
	a := compile(t, map[string]string{"a\xffb": "raw"})

	m, ok := a.Longest("xxa\xffbyy")
	require.True(t, ok)
	assert.Equal(t, "raw", m.Category)
	assert.Equal(t, 2, m.Start)
	assert.Equal(t, 5, m.End)
}

type occurrence struct {
	pattern    string
	start, end int
}

func naiveAll(patterns map[string]string, text string) []occurrence {
	var out []occurrence
	for p := range patterns {
		for i := 0; i+len(p) <= len(text); i++ {
			if text[i:i+len(p)] == p {
				out = append(out, occurrence{p, i, i + len(p)})
			}
		}
	}
	sortOccurrences(out)
	return out
}

func sortOccurrences(occ []occurrence) {
	sort.Slice(occ, func(i, j int) bool {
		if occ[i].end != occ[j].end {
			return occ[i].end < occ[j].end
		}
		return occ[i].start < occ[j].start
	})
}

func randomWord(rng *rand.Rand, alphabet string, maxLen int) string {
	n := rng.Intn(maxLen) + 1
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte(alphabet[rng.Intn(len(alphabet))])
	}
	return sb.String()
}

func TestMatchesAgreeWithNaiveSearch(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		patterns := make(map[string]string)
		for i := rng.Intn(12); i >= 0; i-- {
			p := randomWord(rng, "abc", 5)
			patterns[p] = "cat-" + p
		}
		a := compile(t, patterns)

		text := randomWord(rng, "abcd", 40)

		var got []occurrence
		for _, m := range a.All(text) {
			got = append(got, occurrence{m.Pattern, m.Start, m.End})
			assert.Equal(t, patterns[m.Pattern], m.Category)
		}
		sortOccurrences(got)
		want := naiveAll(patterns, text)
		require.Equal(t, want, got, "patterns %v text %q", patterns, text)

		best, ok := a.Longest(text)
		require.Equal(t, len(want) > 0, ok)
		if ok {
			longest := 0
			for _, o := range want {
				if o.end-o.start > longest {
					longest = o.end - o.start
				}
			}
			assert.Equal(t, longest, best.Length)
		}
	}
}

func BenchmarkLongest(b *testing.B) {
	rng := rand.New(rand.NewSource(7))
	builder := NewBuilder()
	for i := 0; i < 500; i++ {
		p := randomWord(rng, "abcdefghijklmnopqrstuvwxyz", 12)
		_ = builder.Insert(p, "c")
	}
	a, err := builder.Compile()
	if err != nil {
		b.Fatal(err)
	}
	text := randomWord(rng, "abcdefghijklmnopqrstuvwxyz ", 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Longest(text)
	}
}
