package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/MimeLyc/movielens-etl/internal/dataset"
)

// Store is the relational record store holding base movies, ratings and
// enriched movies. A single pipeline run owns it for the run's duration.
type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS movies (
			movie_id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			year INTEGER,
			genres TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS ratings (
			user_id INTEGER,
			movie_id INTEGER,
			rating REAL,
			timestamp INTEGER,
			PRIMARY KEY(user_id, movie_id, timestamp),
			FOREIGN KEY(movie_id) REFERENCES movies(movie_id)
		);`,
		`CREATE TABLE IF NOT EXISTS movies_enriched (
			movie_id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			year INTEGER,
			genres TEXT,
			director TEXT,
			plot TEXT,
			box_office TEXT,
			imdb_rating REAL,
			imdb_id TEXT,
			other_fields TEXT
		);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// UpsertMovies replaces or inserts base movies by primary id. Each record is
// independently idempotent to re-apply.
func (s *Store) UpsertMovies(ctx context.Context, movies []dataset.Movie) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO movies (movie_id, title, year, genres)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(movie_id) DO UPDATE SET
			title=excluded.title,
			year=excluded.year,
			genres=excluded.genres`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, movie := range movies {
		if _, err := stmt.ExecContext(ctx, movie.ID, movie.Title, nullableInt(movie.Year), movie.Genres); err != nil {
			return fmt.Errorf("upsert movie %d: %w", movie.ID, err)
		}
	}
	return tx.Commit()
}

// InsertRatings inserts ratings, silently dropping rows whose
// (user_id, movie_id, timestamp) triple is already stored. Re-running an
// import is a no-op on already-seen triples. Returns the number of rows
// actually inserted.
func (s *Store) InsertRatings(ctx context.Context, ratings []dataset.Rating) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO ratings (user_id, movie_id, rating, timestamp)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, movie_id, timestamp) DO NOTHING`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var inserted int64
	for _, rating := range ratings {
		res, err := stmt.ExecContext(ctx, rating.UserID, rating.MovieID, rating.Value, rating.Timestamp)
		if err != nil {
			return inserted, fmt.Errorf("insert rating (%d,%d,%d): %w", rating.UserID, rating.MovieID, rating.Timestamp, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// ListMovies returns all base movies, ordered by id. This full scan drives
// the enrichment loop.
func (s *Store) ListMovies(ctx context.Context) ([]dataset.Movie, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT movie_id, title, year, genres FROM movies ORDER BY movie_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]dataset.Movie, 0)
	for rows.Next() {
		var (
			item   dataset.Movie
			year   sql.NullInt64
			genres sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Title, &year, &genres); err != nil {
			return nil, err
		}
		if year.Valid {
			y := int(year.Int64)
			item.Year = &y
		}
		item.Genres = genres.String
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// UpsertEnriched replaces or inserts one enriched movie. Each call commits
// on its own so a crash mid-run keeps every record enriched so far.
func (s *Store) UpsertEnriched(ctx context.Context, movie EnrichedMovie) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO movies_enriched (
			movie_id, title, year, genres, director, plot, box_office, imdb_rating, imdb_id, other_fields
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(movie_id) DO UPDATE SET
			title=excluded.title,
			year=excluded.year,
			genres=excluded.genres,
			director=excluded.director,
			plot=excluded.plot,
			box_office=excluded.box_office,
			imdb_rating=excluded.imdb_rating,
			imdb_id=excluded.imdb_id,
			other_fields=excluded.other_fields`,
		movie.MovieID,
		movie.Title,
		nullableInt(movie.Year),
		movie.Genres,
		nullableString(movie.Director),
		nullableString(movie.Plot),
		nullableString(movie.BoxOffice),
		nullableFloat(movie.IMDbRating),
		nullableString(movie.IMDbID),
		movie.OtherFields,
	)
	return err
}

// TopRated returns up to n enriched movies ordered by external rating,
// highest first, rows without a rating last.
func (s *Store) TopRated(ctx context.Context, n int) ([]EnrichedMovie, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT movie_id, title, year, genres, director, plot, box_office, imdb_rating, imdb_id, other_fields
		 FROM movies_enriched
		 ORDER BY (imdb_rating IS NULL), imdb_rating DESC
		 LIMIT ?`,
		n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]EnrichedMovie, 0, n)
	for rows.Next() {
		var (
			item      EnrichedMovie
			year      sql.NullInt64
			genres    sql.NullString
			director  sql.NullString
			plot      sql.NullString
			boxOffice sql.NullString
			rating    sql.NullFloat64
			imdbID    sql.NullString
			other     sql.NullString
		)
		if err := rows.Scan(
			&item.MovieID,
			&item.Title,
			&year,
			&genres,
			&director,
			&plot,
			&boxOffice,
			&rating,
			&imdbID,
			&other,
		); err != nil {
			return nil, err
		}
		if year.Valid {
			y := int(year.Int64)
			item.Year = &y
		}
		item.Genres = genres.String
		item.Director = stringPtr(director)
		item.Plot = stringPtr(plot)
		item.BoxOffice = stringPtr(boxOffice)
		if rating.Valid {
			r := rating.Float64
			item.IMDbRating = &r
		}
		item.IMDbID = stringPtr(imdbID)
		item.OtherFields = other.String
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
