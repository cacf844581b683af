package enrich

import (
	"context"
	"time"

	"github.com/MimeLyc/movielens-etl/internal/dataset"
	"github.com/MimeLyc/movielens-etl/internal/lookupcache"
	"github.com/MimeLyc/movielens-etl/internal/omdb"
	"github.com/MimeLyc/movielens-etl/internal/store"
	"github.com/MimeLyc/movielens-etl/pkg/log"
)

// Client is the single-lookup surface of the external metadata service.
type Client interface {
	Lookup(ctx context.Context, title string, year *int) (omdb.Payload, error)
}

// Stats summarizes one enrichment run. There is no per-record failure
// report beyond these counters; failures degrade to unenriched records.
type Stats struct {
	Processed   int
	CacheHits   int
	CacheMisses int
	Skipped     int
}

// Enricher drives the cache-or-fetch loop over all base movies. Exactly one
// of mock and live resolution is active per run: a non-nil Mock map bypasses
// the client entirely.
type Enricher struct {
	Store  *store.Store
	Cache  *lookupcache.Cache
	Client Client

	// Mock, when non-nil, resolves cache misses from a static mapping keyed
	// like the cache itself. Absence in the map is memoized as a confirmed
	// miss, not an error.
	Mock map[string]omdb.Payload

	// Delay is slept after every genuine network round trip, to stay inside
	// the service's informal rate limits. Cache hits never pay it.
	Delay time.Duration

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// Run enriches every movie returned by the store, sequentially. Per-record
// failures are logged and leave the record unenriched; only a store scan
// failure or context cancellation ends the run early.
func (e *Enricher) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	movies, err := e.Store.ListMovies(ctx)
	if err != nil {
		return stats, err
	}

	sleep := e.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for _, movie := range movies {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		key := lookupcache.Key(movie.Title, movie.Year)
		payload, attempted := e.Cache.Lookup(key)
		if attempted {
			stats.CacheHits++
		} else {
			var networkCall bool
			payload, networkCall, attempted = e.resolve(ctx, key, movie)
			if !attempted {
				stats.Skipped++
				continue
			}
			stats.CacheMisses++

			// Persist the whole mapping before moving on, so a crash loses
			// at most the in-flight lookup.
			if err := e.Cache.Save(); err != nil {
				log.Error("Failed to persist lookup cache: %v", err)
			}
			if networkCall {
				sleep(e.Delay)
			}
		}

		if payload == nil || payload.NotFound() {
			continue
		}

		enriched, err := Normalize(movie, payload)
		if err != nil {
			log.Warn("Failed to normalize payload for %q: %v", movie.Title, err)
			continue
		}
		if err := e.Store.UpsertEnriched(ctx, enriched); err != nil {
			log.Error("Failed to persist enriched movie %d: %v", movie.ID, err)
			continue
		}
		stats.Processed++
	}

	if err := e.Cache.Save(); err != nil {
		log.Error("Failed to persist lookup cache: %v", err)
	}
	log.Info("Enrichment done. Processed:%d cache_hits:%d cache_misses:%d skipped:%d",
		stats.Processed, stats.CacheHits, stats.CacheMisses, stats.Skipped)
	return stats, nil
}

// resolve handles a cache miss. It returns the resolved payload (possibly
// nil for a confirmed absence), whether a network round trip happened, and
// whether the lookup was attempted at all. A record skipped for lack of a
// credential is not attempted and leaves no cache entry.
func (e *Enricher) resolve(ctx context.Context, key string, movie dataset.Movie) (omdb.Payload, bool, bool) {
	if e.Mock != nil {
		payload, ok := e.Mock[key]
		if !ok || payload == nil {
			e.Cache.PutAbsent(key)
			return nil, false, true
		}
		e.Cache.PutFound(key, payload)
		return payload, false, true
	}

	if e.Client == nil {
		log.Info("No API key provided and no mock entry for %s -> skipping", key)
		return nil, false, false
	}

	payload, err := e.Client.Lookup(ctx, movie.Title, movie.Year)
	if err != nil {
		log.Error("OMDb request failed for %s (%v): %v", movie.Title, yearLabel(movie.Year), err)
		e.Cache.PutAbsent(key)
		return nil, true, true
	}
	e.Cache.PutFound(key, payload)
	return payload, true, true
}

func yearLabel(year *int) any {
	if year == nil {
		return "unknown"
	}
	return *year
}
