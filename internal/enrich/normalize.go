package enrich

import (
	"encoding/json"
	"fmt"

	"github.com/MimeLyc/movielens-etl/internal/dataset"
	"github.com/MimeLyc/movielens-etl/internal/omdb"
	"github.com/MimeLyc/movielens-etl/internal/store"
)

// extractedFields are the payload fields with dedicated columns, plus the
// fields already carried by the base record. Everything else lands in
// other_fields verbatim.
var extractedFields = map[string]bool{
	"Title":      true,
	"Year":       true,
	"Director":   true,
	"Plot":       true,
	"BoxOffice":  true,
	"imdbRating": true,
	"imdbID":     true,
	"Genre":      true,
}

// Normalize builds the enriched record for a movie from a present,
// found payload. Known fields are extracted into typed columns; the numeric
// rating normalizes to absent for sentinel or non-numeric values.
func Normalize(movie dataset.Movie, payload omdb.Payload) (store.EnrichedMovie, error) {
	enriched := store.EnrichedMovie{
		MovieID:   movie.ID,
		Title:     movie.Title,
		Year:      movie.Year,
		Genres:    movie.Genres,
		Director:  strField(payload, "Director"),
		Plot:      strField(payload, "Plot"),
		BoxOffice: strField(payload, "BoxOffice"),
		IMDbID:    strField(payload, "imdbID"),
	}

	if rating, ok := payload.Rating(); ok {
		enriched.IMDbRating = &rating
	}

	other := make(map[string]any, len(payload))
	for field, value := range payload {
		if extractedFields[field] {
			continue
		}
		other[field] = value
	}
	otherJSON, err := json.Marshal(other)
	if err != nil {
		return store.EnrichedMovie{}, fmt.Errorf("failed to serialize extra fields: %w", err)
	}
	enriched.OtherFields = string(otherJSON)

	return enriched, nil
}

func strField(payload omdb.Payload, field string) *string {
	if v, ok := payload[field].(string); ok {
		return &v
	}
	return nil
}
