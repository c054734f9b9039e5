package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tidemark/internal/config"
	"tidemark/internal/domain"
	"tidemark/internal/report"
	"tidemark/internal/store"
	"tidemark/internal/strategy"
	"tidemark/internal/util"
)

func main() {
	ruleFlag := flag.String("rule", "", "decision rule to run, overrides config")
	listRules := flag.Bool("list", false, "list the available rules and exit")
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

	registry := strategy.NewRegistry()
	registry.Register(strategy.NewMACross(
		cfg.Strategy.ShortPeriod,
		cfg.Strategy.LongPeriod,
		cfg.Strategy.CapitalPerTrade,
	))

	if *listRules {
		log.Println("available rules:", strings.Join(registry.List(), ", "))
		return
	}

	ruleName := cfg.Strategy.Rule
	if *ruleFlag != "" {
		ruleName = *ruleFlag
	}
	rule, ok := registry.Get(ruleName)
	if !ok {
		log.Fatalf("unknown rule %q, available: %s", ruleName, strings.Join(registry.List(), ", "))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	barStore := store.NewCSVStore(cfg.Storage.DataDir)
	symbols, err := barStore.ListSymbols()
	if err != nil {
		log.Fatalf("failed to list datasets: %v", err)
	}

	signals := scan(ctx, logger, barStore, rule, symbols)

	writer := report.NewWriter(cfg.Storage.OutputDir)
	if err := writer.WriteSignals(signals); err != nil {
		log.Fatalf("failed to write signals: %v", err)
	}

	if cfg.Storage.SQLitePath != "" {
		runs, err := store.NewRunStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open run store: %v", err)
		}
		defer runs.Close()
		runDate := time.Now().UTC().Truncate(24 * time.Hour)
		if err := runs.SaveSignals(ctx, runDate, signals); err != nil {
			logger.Warn("recording signals", "err", err)
		}
	}

	logger.Info("scan complete",
		"rule", rule.Name(),
		"symbols", len(symbols),
		"signals", len(signals),
		"output", writer.SignalsPath(),
	)
}

// scan evaluates the rule over every dataset. Unreadable datasets and rule
// errors are logged and skipped.
func scan(ctx context.Context, logger *slog.Logger, barStore *store.CSVStore, rule strategy.Rule, symbols []string) []domain.Signal {
	var signals []domain.Signal
	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		bars, err := barStore.ReadBars(sym)
		if err != nil {
			logger.Warn("reading dataset", "symbol", sym, "err", err)
			continue
		}
		sig, err := rule.Evaluate(bars)
		if err != nil {
			logger.Warn("evaluating rule", "symbol", sym, "err", err)
			continue
		}
		if sig != nil {
			signals = append(signals, *sig)
		}
	}
	return signals
}
