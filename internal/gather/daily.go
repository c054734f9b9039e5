package gather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"

	"tidemark/internal/marketdata"
	"tidemark/internal/store"
	"tidemark/internal/universe"
	"tidemark/internal/util"
)

// Compile-time interface check.
var _ Gatherer = (*DailySyncer)(nil)

// SyncOptions holds the tunables for one synchronization pass.
type SyncOptions struct {
	// Start of the requested window. Zero means five years before End.
	Start time.Time
	// End of the requested window. Zero means the current date, re-evaluated
	// on every Run, which is what scheduled daemon runs want.
	End time.Time
	// Throttle is the base inter-symbol delay; the actual delay is jittered.
	Throttle time.Duration
	// Workers is the number of concurrent per-symbol sync workers.
	Workers int
	// RateLimitPerMin caps provider calls per minute across all workers.
	// Zero disables the limiter.
	RateLimitPerMin int
	// Progress enables the terminal progress bar.
	Progress bool
}

// DailySyncer fetches each symbol's missing daily bars and merges them into
// the CSV datasets. Per-symbol failures are logged and skipped; only universe
// bookkeeping failures abort the run.
type DailySyncer struct {
	provider marketdata.Provider
	store    store.BarStore
	tracker  *universe.Tracker
	opts     SyncOptions

	runs    *store.RunStore
	archive *store.ParquetArchive
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewDailySyncer creates a syncer over the given provider, dataset store, and
// universe tracker.
func NewDailySyncer(provider marketdata.Provider, barStore store.BarStore, tracker *universe.Tracker, opts SyncOptions) *DailySyncer {
	s := &DailySyncer{
		provider: provider,
		store:    barStore,
		tracker:  tracker,
		opts:     opts,
		log:      slog.Default().With("gatherer", "daily-sync"),
	}
	if opts.RateLimitPerMin > 0 {
		s.limiter = util.NewRateLimiter(opts.RateLimitPerMin)
	}
	return s
}

// SetRunStore enables run-history persistence to SQLite.
func (s *DailySyncer) SetRunStore(rs *store.RunStore) { s.runs = rs }

// SetArchive enables the Parquet mirror of each synced dataset.
func (s *DailySyncer) SetArchive(a *store.ParquetArchive) { s.archive = a }

// Name returns the gatherer identifier.
func (s *DailySyncer) Name() string { return "daily-sync" }

// Run lists the universe, records its diff, then syncs every symbol.
func (s *DailySyncer) Run(ctx context.Context) error {
	start, end := s.window()
	runDate := time.Now().UTC().Truncate(24 * time.Hour)

	// A failed listing aborts the run, so it gets a few attempts. Individual
	// symbol fetches below are never retried within a run.
	var symbols []string
	err := util.Retry(ctx, 3, 2*time.Second, func() error {
		var lerr error
		symbols, lerr = s.provider.ListSymbols(ctx)
		return lerr
	})
	if err != nil {
		return fmt.Errorf("listing symbols: %w", err)
	}

	entry, err := s.tracker.DiffAndRecord(symbols, runDate)
	if err != nil {
		return fmt.Errorf("recording universe: %w", err)
	}
	s.log.Info("universe recorded",
		"symbols", len(symbols),
		"added", len(entry.Added),
		"removed", len(entry.Removed),
	)

	var bar *progressbar.ProgressBar
	if s.opts.Progress {
		bar = progressbar.NewOptions(len(symbols),
			progressbar.OptionSetDescription("syncing"),
			progressbar.OptionShowCount(),
		)
	}

	symbolCh := make(chan string, len(symbols))
	for _, sym := range symbols {
		symbolCh <- sym
	}
	close(symbolCh)

	var (
		wg        sync.WaitGroup
		rowsAdded atomic.Int64
		skipped   atomic.Int64
		failed    atomic.Int64
		runStart  = time.Now()
	)

	workers := s.opts.Workers
	if workers < 1 {
		workers = 1
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range symbolCh {
				if ctx.Err() != nil {
					return
				}

				res, err := s.SyncSymbol(ctx, sym, start, end)
				switch {
				case err != nil:
					failed.Add(1)
					s.log.Error("sync failed", "symbol", sym, "err", err)
				case res.Status == store.StatusSkipped:
					skipped.Add(1)
				default:
					rowsAdded.Add(int64(res.RowsAdded))
				}

				if bar != nil {
					bar.Add(1)
				}
				if err := util.SleepJitter(ctx, s.opts.Throttle); err != nil {
					return
				}
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if s.runs != nil {
		if err := s.runs.RecordSync(ctx, runDate, len(symbols), int(rowsAdded.Load()), int(skipped.Load()), int(failed.Load())); err != nil {
			s.log.Warn("recording sync run", "err", err)
		}
	}

	s.log.Info("sync complete",
		"symbols", len(symbols),
		"rowsAdded", rowsAdded.Load(),
		"skipped", skipped.Load(),
		"failed", failed.Load(),
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return nil
}

// SyncSymbol brings one symbol's dataset up to date within [start, end]. The
// effective fetch start is the day after the stored tail when one exists; a
// tail at or past end skips the fetch entirely.
func (s *DailySyncer) SyncSymbol(ctx context.Context, symbol string, start, end time.Time) (store.SyncResult, error) {
	if last, ok := s.store.LastDate(symbol); ok {
		if !last.Before(end) {
			return store.SyncResult{Status: store.StatusSkipped}, nil
		}
		if next := last.AddDate(0, 0, 1); next.After(start) {
			start = next
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return store.SyncResult{}, err
		}
	}

	bars, err := s.provider.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return store.SyncResult{}, fmt.Errorf("fetching %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return store.SyncResult{Status: store.StatusSkipped}, nil
	}

	res, err := s.store.Merge(symbol, bars)
	if err != nil {
		return store.SyncResult{}, fmt.Errorf("merging %s: %w", symbol, err)
	}

	if s.archive != nil {
		full, rerr := s.store.ReadBars(symbol)
		if rerr != nil {
			s.log.Warn("reading dataset for archive", "symbol", symbol, "err", rerr)
		} else if aerr := s.archive.Export(symbol, full); aerr != nil {
			s.log.Warn("archiving dataset", "symbol", symbol, "err", aerr)
		}
	}

	return res, nil
}

// window resolves the configured date range, applying the defaults for zero
// values.
func (s *DailySyncer) window() (time.Time, time.Time) {
	end := s.opts.End
	if end.IsZero() {
		now := time.Now().UTC()
		end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	start := s.opts.Start
	if start.IsZero() {
		start = end.AddDate(-5, 0, 0)
	}
	return start, end
}
