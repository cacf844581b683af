package service

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/movielens-etl/internal/config"
	"github.com/MimeLyc/movielens-etl/internal/dataset"
	"github.com/MimeLyc/movielens-etl/internal/enrich"
	"github.com/MimeLyc/movielens-etl/internal/lookupcache"
	"github.com/MimeLyc/movielens-etl/internal/omdb"
	"github.com/MimeLyc/movielens-etl/internal/report"
	"github.com/MimeLyc/movielens-etl/internal/store"
	"github.com/MimeLyc/movielens-etl/pkg/icron"
	"github.com/MimeLyc/movielens-etl/pkg/log"
	"github.com/robfig/cron/v3"
)

// Mode selects how cache misses are resolved during enrichment. Exactly one
// mode is active per run.
type Mode int

const (
	// ModeNone imports and exports but performs no enrichment.
	ModeNone Mode = iota
	// ModeMock resolves misses from the persisted mapping only, without
	// network calls.
	ModeMock
	// ModeLive resolves misses against the OMDb API.
	ModeLive
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeMock:
		return "mock"
	case ModeLive:
		return "live"
	default:
		return "unknown"
	}
}

type etlService struct {
	cfg  config.Config
	mode Mode
	cron *cron.Cron
}

func NewRunnableETLService(
	cfg config.Config,
	mode Mode,
	cron *cron.Cron,
) etlService {
	return etlService{
		cfg:  cfg,
		mode: mode,
		cron: cron,
	}
}

var singleflightGroup singleflight.Group

// Schedule registers the pipeline under the configured cron expression and
// starts the scheduler. Overlapping triggers collapse into the in-flight
// run. Blocks until ctx is done.
func (s etlService) Schedule(ctx context.Context) error {
	runFunc := func() {
		_, _, _ = singleflightGroup.Do("run", func() (any, error) {
			if err := s.RunOnce(ctx); err != nil {
				log.Error("Scheduled run failed: %v", err)
			}
			return nil, nil
		})
	}
	if _, err := s.cron.AddFunc(s.cfg.CronExpr, runFunc); err != nil {
		return err
	}

	if info, err := icron.GetTriggerInfo(s.cfg.CronExpr, time.Now()); err == nil {
		log.Info("Scheduled pipeline with %q, next run at %v", s.cfg.CronExpr, info.Next)
	}

	s.cron.Start()
	defer s.cron.Stop()
	<-ctx.Done()
	return ctx.Err()
}

// RunOnce executes one full pipeline run: import, enrichment per the active
// mode, export. A missing input file aborts before any store mutation;
// every other failure degrades to unenriched records or a missing report.
func (s etlService) RunOnce(ctx context.Context) error {
	log.Info("Starting ETL")

	movies, ratings, err := dataset.ReadDir(s.cfg.Paths.DataDir)
	if err != nil {
		log.Error("Error reading CSVs: %v", err)
		return err
	}

	st, err := store.New(s.cfg.Paths.DBFile)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.UpsertMovies(ctx, movies); err != nil {
		return err
	}
	log.Info("Upserted %d movies into movies table", len(movies))

	inserted, err := st.InsertRatings(ctx, ratings)
	if err != nil {
		return err
	}
	log.Info("Inserted %d of %d ratings into ratings table (duplicates ignored)", inserted, len(ratings))

	if err := s.enrichMovies(ctx, st); err != nil {
		return err
	}

	if path, err := report.Export(ctx, st, s.cfg.Export.Dir, s.cfg.Export.TopN); err != nil {
		log.Error("Could not export report: %v", err)
	} else {
		log.Info("Exported %s", path)
	}

	log.Info("ETL finished")
	return nil
}

func (s etlService) enrichMovies(ctx context.Context, st *store.Store) error {
	if s.mode == ModeNone {
		log.Info("Skipping enrichment (no OMDb key and not mock mode)")
		return nil
	}

	cache, status := lookupcache.Load(s.cfg.Paths.CacheFile)
	if status == lookupcache.RecoveredCorrupt {
		log.Warn("Lookup cache at %s was unreadable, starting from an empty cache", s.cfg.Paths.CacheFile)
	}

	enricher := &enrich.Enricher{
		Store: st,
		Cache: cache,
		Delay: s.cfg.OMDb.RequestDelay(),
	}

	switch s.mode {
	case ModeMock:
		log.Info("Running in mock mode; resolving lookups from %s", s.cfg.Paths.CacheFile)
		enricher.Mock = cache.Entries()
	case ModeLive:
		if s.cfg.OMDb.APIKey != "" {
			client, err := omdb.NewClient(s.cfg.OMDb)
			if err != nil {
				return err
			}
			enricher.Client = client
		}
		// With no credential the enricher skips uncached records one by one.
	}

	_, err := enricher.Run(ctx)
	return err
}
