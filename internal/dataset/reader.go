package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/movielens-etl/pkg/log"
)

const (
	moviesFileName  = "movies.csv"
	ratingsFileName = "ratings.csv"
)

// MissingInputError reports that a required input file is absent. It is the
// only failure that aborts a run before any store mutation.
type MissingInputError struct {
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("required input file not found: %s", e.Path)
}

// IsMissingInput reports whether err is (or wraps) a MissingInputError.
func IsMissingInput(err error) bool {
	var missing *MissingInputError
	return errors.As(err, &missing)
}

// ReadDir reads movies.csv and ratings.csv from dir. Both files are loaded
// concurrently; if either is missing the whole read fails with a
// MissingInputError before any rows are returned.
func ReadDir(dir string) ([]Movie, []Rating, error) {
	moviesPath := filepath.Join(dir, moviesFileName)
	ratingsPath := filepath.Join(dir, ratingsFileName)

	for _, path := range []string{moviesPath, ratingsPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, nil, &MissingInputError{Path: path}
		}
	}

	var (
		movies  []Movie
		ratings []Rating
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		movies, err = readMovies(moviesPath)
		return err
	})
	g.Go(func() error {
		var err error
		ratings, err = readRatings(ratingsPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return movies, ratings, nil
}

func readMovies(path string) ([]Movie, error) {
	rows, err := readCSV(path, 3)
	if err != nil {
		return nil, err
	}

	ret := make([]Movie, 0, len(rows))
	for _, row := range rows {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			log.Warn("Skipping movie row with bad id %q: %v", row[0], err)
			continue
		}
		title := row[1]
		ret = append(ret, Movie{
			ID:     id,
			Title:  title,
			Year:   ExtractYear(title),
			Genres: row[2],
		})
	}
	return ret, nil
}

func readRatings(path string) ([]Rating, error) {
	rows, err := readCSV(path, 4)
	if err != nil {
		return nil, err
	}

	ret := make([]Rating, 0, len(rows))
	for _, row := range rows {
		userID, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			log.Warn("Skipping rating row with bad userId %q: %v", row[0], err)
			continue
		}
		movieID, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			log.Warn("Skipping rating row with bad movieId %q: %v", row[1], err)
			continue
		}
		value, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			log.Warn("Skipping rating row with bad rating %q: %v", row[2], err)
			continue
		}
		timestamp, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			log.Warn("Skipping rating row with bad timestamp %q: %v", row[3], err)
			continue
		}
		ret = append(ret, Rating{
			UserID:    userID,
			MovieID:   movieID,
			Value:     value,
			Timestamp: timestamp,
		})
	}
	return ret, nil
}

// readCSV reads all data rows of a headered CSV file, requiring at least
// minFields columns per row.
func readCSV(path string, minFields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingInputError{Path: path}
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	// Skip the header row.
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if len(row) < minFields {
			log.Warn("Skipping short row in %s: %v", filepath.Base(path), row)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ExtractYear pulls the production year out of a MovieLens title such as
// "Toy Story (1995)". A title that does not end in a 4-digit parenthetical
// yields nil; absence propagates rather than being defaulted.
func ExtractYear(title string) *int {
	trimmed := strings.TrimSpace(title)
	if !strings.HasSuffix(trimmed, ")") || len(trimmed) < 6 {
		return nil
	}
	yearPart := trimmed[len(trimmed)-5 : len(trimmed)-1]
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return nil
	}
	if trimmed[len(trimmed)-6] != '(' {
		return nil
	}
	return &year
}
