package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/MimeLyc/movielens-etl/internal/store"
)

// Export writes the top-n enriched movies by external rating to a flat CSV
// file under dir and returns the file's path. It is a read-only projection
// of the enriched store.
func Export(ctx context.Context, st *store.Store, dir string, n int) (string, error) {
	movies, err := st.TopRated(ctx, n)
	if err != nil {
		return "", fmt.Errorf("failed to query top rated movies: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("top%d_enriched.csv", n))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	header := []string{
		"movie_id", "title", "year", "genres", "director", "plot",
		"box_office", "imdb_rating", "imdb_id", "other_fields",
	}
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("failed to write export header: %w", err)
	}

	for _, movie := range movies {
		row := []string{
			strconv.FormatInt(movie.MovieID, 10),
			movie.Title,
			intString(movie.Year),
			movie.Genres,
			strString(movie.Director),
			strString(movie.Plot),
			strString(movie.BoxOffice),
			floatString(movie.IMDbRating),
			strString(movie.IMDbID),
			movie.OtherFields,
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write export row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush export file: %w", err)
	}
	return path, nil
}

func intString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func strString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func floatString(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
