package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/movielens-etl/internal/config"
	"github.com/MimeLyc/movielens-etl/internal/service"
	"github.com/MimeLyc/movielens-etl/pkg/log"
)

func main() {
	omdbKey := flag.String("omdb-key", "", "OMDb API key")
	useOMDb := flag.Bool("use-omdb", false, "use OMDb; key read from OMDB_API_KEY (.env supported) when -omdb-key is not given")
	mockOMDb := flag.Bool("mock-omdb", false, "resolve lookups from the persisted cache only, no network calls")
	schedule := flag.Bool("schedule", false, "keep running and trigger the pipeline on CRON_EXPR")
	dataDir := flag.String("data-dir", "", "override the input data directory")
	flag.Parse()

	// Populate the environment from .env before the config reads it.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv(
		config.WithDataDir(*dataDir),
		config.WithAPIKey(*omdbKey),
	)
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	// The environment key only counts when -use-omdb asked for it.
	if *omdbKey == "" && !*useOMDb {
		cfg.OMDb.APIKey = ""
	}

	closer, err := log.InitRunLogger(cfg.Paths.LogFile, log.ParseLevel(cfg.LogLevel))
	if err != nil {
		log.Fatal("Failed to open run log: %v", err)
	}
	defer closer.Close()

	if *useOMDb && cfg.OMDb.APIKey == "" {
		log.Warn("-use-omdb requested but OMDB_API_KEY not found in .env or -omdb-key not provided")
	}

	mode := service.ModeNone
	switch {
	case *mockOMDb:
		mode = service.ModeMock
	case cfg.OMDb.APIKey != "":
		mode = service.ModeLive
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewRunnableETLService(*cfg, mode, cron.New())
	if *schedule {
		if err := svc.Schedule(ctx); err != nil && ctx.Err() == nil {
			log.Fatal("Scheduler stopped: %v", err)
		}
		return
	}

	if err := svc.RunOnce(ctx); err != nil {
		log.Fatal("ETL run failed: %v", err)
	}
}
