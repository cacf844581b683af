package store

// EnrichedMovie is a base movie augmented with externally sourced fields.
// One row per movie id, written exclusively by the enrichment loop,
// last write wins. Pointer fields are NULL in the database when the
// external payload did not carry them.
type EnrichedMovie struct {
	MovieID    int64
	Title      string
	Year       *int
	Genres     string
	Director   *string
	Plot       *string
	BoxOffice  *string
	IMDbRating *float64
	IMDbID     *string
	// OtherFields keeps every payload field not extracted above, as JSON,
	// so later consumers can read fields this schema does not know about.
	OtherFields string
}
