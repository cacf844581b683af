package dataset

// Movie is a base record imported from movies.csv, prior to enrichment.
// Year is extracted from the trailing parenthetical in the title and stays
// nil when the title carries no unambiguous year.
type Movie struct {
	ID     int64
	Title  string
	Year   *int
	Genres string
}

// Rating is one row of ratings.csv. The (UserID, MovieID, Timestamp) triple
// identifies a rating; re-importing the same triple must not duplicate it.
type Rating struct {
	UserID    int64
	MovieID   int64
	Value     float64
	Timestamp int64
}
