package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/labelmaker/pkg/labelmaker/store"
	"github.com/cognicore/labelmaker/pkg/labelmaker/store/storetest"
)

func openTemp(t *testing.T) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return st
}

func TestSQLiteStoreContract(t *testing.T) {
	storetest.Run(t, openTemp)
}

// TestSQLiteReopen checks that data survives closing and reopening the file
func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	st, err := OpenSQLite(ctx, dbPath)
	require.NoError(t, err)
	saved, err := st.SavePatternSet(ctx, "noises", map[string]string{
		"rawr":  "Sad Noise",
		"rawrs": "Fossils Are Cool!",
	})
	require.NoError(t, err)
	require.NoError(t, st.UpsertDoc(ctx, store.Doc{URL: "https://example.com/a", Category: "Sad Noise"}))
	require.NoError(t, st.Close())

	st, err = OpenSQLite(ctx, dbPath)
	require.NoError(t, err)
	defer st.Close()

	latest, found, err := st.LatestPatternSet(ctx, "noises")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, saved.ID, latest.ID)
	assert.Len(t, latest.Patterns, 2)

	counts, err := st.CategoryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["Sad Noise"])
}

// TestSQLiteConcurrentUpserts tests concurrent writers against one database
func TestSQLiteConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)
	defer st.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cat := "even"
			if i%2 == 1 {
				cat = "odd"
			}
			doc := store.Doc{URL: "https://example.com/" + string(rune('a'+i)), Category: cat}
			if err := st.UpsertDoc(ctx, doc); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("UpsertDoc: %v", err)
	}

	counts, err := st.CategoryCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"even": 10, "odd": 10}, counts)
}
