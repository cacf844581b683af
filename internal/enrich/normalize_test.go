package enrich

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/movielens-etl/internal/dataset"
	"github.com/MimeLyc/movielens-etl/internal/omdb"
)

func TestNormalizeExtractsKnownFields(t *testing.T) {
	movie := dataset.Movie{ID: 1, Title: "Toy Story (1995)", Year: intPtr(1995), Genres: "Animation"}
	payload := omdb.Payload{
		"Title":      "Toy Story",
		"Year":       "1995",
		"Genre":      "Animation, Adventure",
		"Director":   "John Lasseter",
		"Plot":       "Toys come alive.",
		"BoxOffice":  "$223,225,679",
		"imdbRating": "8.3",
		"imdbID":     "tt0114709",
		"Rated":      "G",
		"Runtime":    "81 min",
		"Response":   "True",
	}

	enriched, err := Normalize(movie, payload)
	require.NoError(t, err)

	assert.Equal(t, int64(1), enriched.MovieID)
	assert.Equal(t, "Toy Story (1995)", enriched.Title)
	require.NotNil(t, enriched.Director)
	assert.Equal(t, "John Lasseter", *enriched.Director)
	require.NotNil(t, enriched.BoxOffice)
	assert.Equal(t, "$223,225,679", *enriched.BoxOffice)
	require.NotNil(t, enriched.IMDbRating)
	assert.Equal(t, 8.3, *enriched.IMDbRating)
	require.NotNil(t, enriched.IMDbID)
	assert.Equal(t, "tt0114709", *enriched.IMDbID)

	// Extracted fields stay out of other_fields; the rest is kept verbatim.
	var other map[string]any
	require.NoError(t, json.Unmarshal([]byte(enriched.OtherFields), &other))
	assert.NotContains(t, other, "Director")
	assert.NotContains(t, other, "imdbRating")
	assert.NotContains(t, other, "Genre")
	assert.Equal(t, "G", other["Rated"])
	assert.Equal(t, "81 min", other["Runtime"])
	assert.Equal(t, "True", other["Response"])
}

func TestNormalizeSentinelRating(t *testing.T) {
	movie := dataset.Movie{ID: 2, Title: "Obscure Film", Year: nil}
	payload := omdb.Payload{"imdbRating": "N/A", "Response": "True"}

	enriched, err := Normalize(movie, payload)
	require.NoError(t, err)

	// Unavailable ratings normalize to absent, never zero.
	assert.Nil(t, enriched.IMDbRating)
	assert.Nil(t, enriched.Director)
	assert.Nil(t, enriched.Year)
}
