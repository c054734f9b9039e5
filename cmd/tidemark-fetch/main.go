package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"tidemark/internal/config"
	"tidemark/internal/domain"
	"tidemark/internal/gather"
	"tidemark/internal/marketdata"
	"tidemark/internal/store"
	"tidemark/internal/universe"
	"tidemark/internal/util"
)

func main() {
	startFlag := flag.String("start", "", "window start (YYYY-MM-DD), overrides config")
	endFlag := flag.String("end", "", "window end (YYYY-MM-DD), defaults to today")
	daemon := flag.Bool("daemon", false, "keep running and sync on the configured cron schedule")
	progress := flag.Bool("progress", false, "show a terminal progress bar")
	flag.Parse()

	cfgPath := "config/tidemark.yaml"
	if p := os.Getenv("TIDEMARK_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Dual logger: stdout + /tmp log file.
	logFileName := fmt.Sprintf("/tmp/tidemark-fetch-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.Create(logFileName)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	w := io.MultiWriter(os.Stdout, logFile)
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, w)
	util.SetDefault(logger)

	opts := gather.SyncOptions{
		Throttle:        time.Duration(cfg.Sync.ThrottleSecs * float64(time.Second)),
		Workers:         cfg.Sync.MaxWorkers,
		RateLimitPerMin: cfg.Sync.RateLimitPerMin,
		Progress:        *progress,
	}

	startStr := cfg.Sync.StartDate
	if *startFlag != "" {
		startStr = *startFlag
	}
	if startStr != "" {
		opts.Start, err = time.Parse(domain.DateLayout, startStr)
		if err != nil {
			log.Fatalf("invalid start date %q: %v", startStr, err)
		}
	}
	if *endFlag != "" {
		opts.End, err = time.Parse(domain.DateLayout, *endFlag)
		if err != nil {
			log.Fatalf("invalid end date %q: %v", *endFlag, err)
		}
	}

	provider := marketdata.NewAlpacaProvider(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.BaseURL,
		cfg.Alpaca.DataURL,
	)
	barStore := store.NewCSVStore(cfg.Storage.DataDir)
	tracker := universe.NewTracker(cfg.Storage.SnapshotPath, cfg.Storage.ChangelogPath)

	syncer := gather.NewDailySyncer(provider, barStore, tracker, opts)

	if cfg.Storage.SQLitePath != "" {
		runs, err := store.NewRunStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open run store: %v", err)
		}
		defer runs.Close()
		syncer.SetRunStore(runs)
	}
	if cfg.Sync.Archive && cfg.Storage.ArchiveDir != "" {
		syncer.SetArchive(store.NewParquetArchive(cfg.Storage.ArchiveDir))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting tidemark-fetch", "logFile", logFileName, "daemon", *daemon)

	if !*daemon {
		if err := syncer.Run(ctx); err != nil {
			log.Fatalf("sync error: %v", err)
		}
		return
	}

	spec := cfg.Schedule.DailyCron
	if spec == "" {
		spec = "0 18 * * 1-5"
	}
	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		if err := syncer.Run(ctx); err != nil {
			logger.Error("scheduled sync failed", "err", err)
		}
	})
	if err != nil {
		log.Fatalf("invalid cron spec %q: %v", spec, err)
	}

	logger.Info("daemon scheduled", "cron", spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}
