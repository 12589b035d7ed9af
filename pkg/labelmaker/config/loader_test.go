package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/labelmaker/pkg/labelmaker"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{}

	comp, err := loader.Load()
	require.NoError(t, err, "empty loader should succeed")
	require.NotNil(t, comp.LabelMaker)
	assert.True(t, comp.LabelMaker.Ready())
	assert.Empty(t, comp.Patterns)

	_, ok, err := comp.LabelMaker.Categorize("anything at all")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoaderPatternsAndDict(t *testing.T) {
	patterns := writeFile(t, "patterns.yaml", `patterns:
  rawr: Sad Noise
  rex: Not-T
`)
	dict := writeFile(t, "patterns.dict", `rawrs|Fossils Are Cool!
rex|T
`)

	loader := Loader{PatternsPath: patterns, DictPath: dict}
	comp, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"rawr":  "Sad Noise",
		"rawrs": "Fossils Are Cool!",
		"rex":   "T",
	}, comp.Patterns)

	cat, ok, err := comp.LabelMaker.Categorize("The dinosaur that rawrs.")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Fossils Are Cool!", cat)
}

func TestLoaderFileOptions(t *testing.T) {
	patterns := writeFile(t, "patterns.yaml", `options:
  fold_case: true
patterns:
  Velociraptor: Therapod
`)

	loader := Loader{PatternsPath: patterns}
	comp, err := loader.Load()
	require.NoError(t, err)
	assert.True(t, comp.Options.FoldCase)

	cat, ok, err := comp.LabelMaker.Categorize("a VELOCIRAPTOR hunts")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Therapod", cat)
}

func TestLoaderRejectConflicts(t *testing.T) {
	patterns := writeFile(t, "patterns.yaml", `patterns:
  rex: Not-T
`)
	dict := writeFile(t, "patterns.dict", "rex|T\n")

	loader := Loader{
		PatternsPath: patterns,
		DictPath:     dict,
		Options:      labelmaker.Options{RejectConflicts: true},
	}
	_, err := loader.Load()
	assert.ErrorIs(t, err, labelmaker.ErrConflict)
}

func TestLoaderEmptyPatternInDict(t *testing.T) {
	dict := writeFile(t, "patterns.dict", "|Nothing\n")

	loader := Loader{DictPath: dict}
	_, err := loader.Load()
	assert.ErrorIs(t, err, labelmaker.ErrEmptyPattern)
}

func TestLoaderNonExistentPatterns(t *testing.T) {
	loader := Loader{PatternsPath: "/nonexistent/patterns.yaml"}

	_, err := loader.Load()
	assert.Error(t, err)
}

func TestLoaderNonExistentDict(t *testing.T) {
	loader := Loader{DictPath: "/nonexistent/patterns.dict"}

	_, err := loader.Load()
	assert.Error(t, err)
}
