package report

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/movielens-etl/internal/store"
)

func TestExport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "movies.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	rating := 8.3
	director := "John Lasseter"
	year := 1995
	require.NoError(t, st.UpsertEnriched(ctx, store.EnrichedMovie{
		MovieID:     1,
		Title:       "Toy Story (1995)",
		Year:        &year,
		Genres:      "Animation",
		Director:    &director,
		IMDbRating:  &rating,
		OtherFields: `{"Rated":"G"}`,
	}))
	require.NoError(t, st.UpsertEnriched(ctx, store.EnrichedMovie{
		MovieID: 2,
		Title:   "Unrated Film",
	}))

	exportDir := filepath.Join(dir, "sample_output")
	path, err := Export(ctx, st, exportDir, 10)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(exportDir, "top10_enriched.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "movie_id", rows[0][0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Toy Story (1995)", rows[1][1])
	assert.Equal(t, "1995", rows[1][2])
	assert.Equal(t, "8.3", rows[1][7])

	// Rows without a rating sort last and export empty cells, not zeros.
	assert.Equal(t, "2", rows[2][0])
	assert.Equal(t, "", rows[2][7])
}

func TestExportEmptyStore(t *testing.T) {
	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "movies.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	path, err := Export(context.Background(), st, filepath.Join(dir, "out"), 5)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1) // header only
}
