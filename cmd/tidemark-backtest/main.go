package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tidemark/internal/backtest"
	"tidemark/internal/config"
	"tidemark/internal/domain"
	"tidemark/internal/report"
	"tidemark/internal/store"
	"tidemark/internal/util"
)

func main() {
	holdFlag := flag.Int("hold", 0, "forward holding window in bars, overrides config")
	flag.Parse()

	cfgPath := "config/tidemark.yaml"
	if p := os.Getenv("TIDEMARK_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	util.SetDefault(logger)

	holdDays := cfg.Backtest.HoldDays
	if *holdFlag > 0 {
		holdDays = *holdFlag
	}

	writer := report.NewWriter(cfg.Storage.OutputDir)
	signals, err := writer.ReadSignals()
	if err != nil {
		log.Fatalf("failed to read signals: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	barStore := store.NewCSVStore(cfg.Storage.DataDir)

	var results []domain.TradeResult
	for _, sig := range signals {
		if ctx.Err() != nil {
			break
		}
		bars, err := barStore.ReadBars(sig.Symbol)
		if err != nil {
			logger.Warn("reading dataset", "symbol", sig.Symbol, "err", err)
			continue
		}
		forward := backtest.ForwardBars(bars, holdDays)
		if res := backtest.Simulate(sig, forward); res != nil {
			results = append(results, *res)
		}
	}

	summary := backtest.Summarize(results)

	if err := writer.WriteTrades(results); err != nil {
		log.Fatalf("failed to write trade report: %v", err)
	}
	if err := writer.WriteSummary(summary); err != nil {
		log.Fatalf("failed to write summary: %v", err)
	}

	if cfg.Storage.SQLitePath != "" {
		runs, err := store.NewRunStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open run store: %v", err)
		}
		defer runs.Close()
		runDate := time.Now().UTC().Truncate(24 * time.Hour)
		if err := runs.SaveTrades(ctx, runDate, results); err != nil {
			logger.Warn("recording trades", "err", err)
		}
	}

	logger.Info("backtest complete",
		"signals", len(signals),
		"trades", summary.Trades,
		"totalPnL", summary.TotalPnL,
		"winRate", summary.WinRate,
		"sharpe", summary.Sharpe,
		"report", writer.TradesPath(),
		"summary", writer.SummaryPath(),
	)
}
