// Package storetest holds behavior tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/labelmaker/pkg/labelmaker/internalerr"
	"github.com/cognicore/labelmaker/pkg/labelmaker/store"
)

// Run exercises open() against the store.Store contract. open must return a
// fresh, empty store for each call.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("pattern set round trip", func(t *testing.T) {
		testPatternSetRoundTrip(t, open(t))
	})
	t.Run("pattern set is a snapshot", func(t *testing.T) {
		testPatternSetSnapshot(t, open(t))
	})
	t.Run("latest pattern set", func(t *testing.T) {
		testLatestPatternSet(t, open(t))
	})
	t.Run("missing pattern set", func(t *testing.T) {
		testMissingPatternSet(t, open(t))
	})
	t.Run("list pattern sets", func(t *testing.T) {
		testListPatternSets(t, open(t))
	})
	t.Run("doc upsert", func(t *testing.T) {
		testDocUpsert(t, open(t))
	})
	t.Run("category counts", func(t *testing.T) {
		testCategoryCounts(t, open(t))
	})
	t.Run("invalid input", func(t *testing.T) {
		testInvalidInput(t, open(t))
	})
	t.Run("closed store", func(t *testing.T) {
		testClosed(t, open(t))
	})
}

var dinosaurs = map[string]string{
	"Tyrannosaurus rex": "Therapod",
	"Velociraptor":      "Therapod",
	"Brachiosaurus":     "Saurapod",
	"Patagotitan":       "Saurapod",
}

func testPatternSetRoundTrip(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	saved, err := st.SavePatternSet(ctx, "dinosaurs", dinosaurs)
	require.NoError(t, err)
	assert.Len(t, saved.ID, 26)
	assert.Equal(t, "dinosaurs", saved.Name)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := st.GetPatternSet(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "dinosaurs", got.Name)
	assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, dinosaurs, got.Patterns)
}

func testPatternSetSnapshot(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	patterns := map[string]string{"rawr": "Sad Noise"}
	saved, err := st.SavePatternSet(ctx, "noises", patterns)
	require.NoError(t, err)

	patterns["rawrs"] = "Fossils Are Cool!"
	got, err := st.GetPatternSet(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"rawr": "Sad Noise"}, got.Patterns)
}

func testLatestPatternSet(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	_, found, err := st.LatestPatternSet(ctx, "noises")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = st.SavePatternSet(ctx, "noises", map[string]string{"rawr": "Sad Noise"})
	require.NoError(t, err)
	second, err := st.SavePatternSet(ctx, "noises", map[string]string{"rawrs": "Fossils Are Cool!"})
	require.NoError(t, err)
	_, err = st.SavePatternSet(ctx, "dinosaurs", dinosaurs)
	require.NoError(t, err)

	latest, found, err := st.LatestPatternSet(ctx, "noises")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, map[string]string{"rawrs": "Fossils Are Cool!"}, latest.Patterns)
}

func testMissingPatternSet(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	_, err := st.GetPatternSet(ctx, "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func testListPatternSets(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	infos, err := st.ListPatternSets(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	first, err := st.SavePatternSet(ctx, "dinosaurs", dinosaurs)
	require.NoError(t, err)
	second, err := st.SavePatternSet(ctx, "empty", map[string]string{})
	require.NoError(t, err)

	infos, err = st.ListPatternSets(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, first.ID, infos[0].ID)
	assert.Equal(t, len(dinosaurs), infos[0].Size)
	assert.Equal(t, second.ID, infos[1].ID)
	assert.Equal(t, 0, infos[1].Size)
}

func testDocUpsert(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	doc := store.Doc{
		URL:       "https://example.com/rex",
		Title:     "Rex",
		Category:  "Therapod",
		Pattern:   "Tyrannosaurus rex",
		LabeledAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.UpsertDoc(ctx, doc))

	got, found, err := st.GetDocByURL(ctx, doc.URL)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Category, got.Category)
	assert.Equal(t, doc.Pattern, got.Pattern)
	assert.True(t, doc.LabeledAt.Equal(got.LabeledAt))

	// relabel the same URL
	doc.Category = ""
	doc.Pattern = ""
	require.NoError(t, st.UpsertDoc(ctx, doc))

	got, found, err = st.GetDocByURL(ctx, doc.URL)
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, got.Category)

	_, found, err = st.GetDocByURL(ctx, "https://example.com/missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func testCategoryCounts(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	docs := []store.Doc{
		{URL: "https://example.com/1", Category: "Therapod"},
		{URL: "https://example.com/2", Category: "Therapod"},
		{URL: "https://example.com/3", Category: "Saurapod"},
		{URL: "https://example.com/4"},
	}
	for _, d := range docs {
		require.NoError(t, st.UpsertDoc(ctx, d))
	}

	counts, err := st.CategoryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Therapod": 2, "Saurapod": 1, "": 1}, counts)
}

func testInvalidInput(t *testing.T, st store.Store) {
	ctx := context.Background()
	defer st.Close()

	_, err := st.SavePatternSet(ctx, "", dinosaurs)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)

	err = st.UpsertDoc(ctx, store.Doc{Title: "no url"})
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func testClosed(t *testing.T, st store.Store) {
	ctx := context.Background()
	require.NoError(t, st.Close())

	_, err := st.SavePatternSet(ctx, "dinosaurs", dinosaurs)
	assert.ErrorIs(t, err, internalerr.ErrStoreUnavailable)

	_, _, err = st.LatestPatternSet(ctx, "dinosaurs")
	assert.ErrorIs(t, err, internalerr.ErrStoreUnavailable)

	err = st.UpsertDoc(ctx, store.Doc{URL: "https://example.com/rex"})
	assert.ErrorIs(t, err, internalerr.ErrStoreUnavailable)

	_, err = st.CategoryCounts(ctx)
	assert.ErrorIs(t, err, internalerr.ErrStoreUnavailable)
}
