package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"tidemark/internal/domain"
)

// RunStore persists per-run history to SQLite: sync outcomes, fired signals,
// and simulated trades. The file outputs remain the pipeline's interchange
// format; the database exists for querying history across runs.
type RunStore struct {
	db *sql.DB
}

// NewRunStore opens (or creates) the SQLite database at dbPath and runs
// migrations.
func NewRunStore(dbPath string) (*RunStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so reporting tools can read while a run is writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &RunStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *RunStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_date   TEXT NOT NULL,
			symbols    INTEGER NOT NULL,
			rows_added INTEGER NOT NULL,
			skipped    INTEGER NOT NULL,
			failed     INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_date    TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			buy_price   REAL NOT NULL,
			buy_qty     INTEGER NOT NULL,
			take_profit REAL NOT NULL,
			stop_loss   REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_run ON signals(run_date)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_date    TEXT NOT NULL,
			symbol      TEXT NOT NULL,
			buy_price   REAL NOT NULL,
			buy_qty     INTEGER NOT NULL,
			take_profit REAL NOT NULL,
			stop_loss   REAL NOT NULL,
			sell_price  REAL NOT NULL,
			pnl         REAL NOT NULL,
			return_pct  REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_date)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// RecordSync inserts one row summarising a sync run.
func (s *RunStore) RecordSync(ctx context.Context, runDate time.Time, symbols, rowsAdded, skipped, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (run_date, symbols, rows_added, skipped, failed) VALUES (?, ?, ?, ?, ?)`,
		runDate.Format(domain.DateLayout), symbols, rowsAdded, skipped, failed,
	)
	return err
}

// SaveSignals inserts the signals fired during one run.
func (s *RunStore) SaveSignals(ctx context.Context, runDate time.Time, signals []domain.Signal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO signals (run_date, symbol, buy_price, buy_qty, take_profit, stop_loss) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	date := runDate.Format(domain.DateLayout)
	for _, sig := range signals {
		if _, err := stmt.ExecContext(ctx, date, sig.Symbol, sig.BuyPrice, sig.BuyQty, sig.TakeProfit, sig.StopLoss); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SaveTrades inserts the simulated trade results of one run.
func (s *RunStore) SaveTrades(ctx context.Context, runDate time.Time, results []domain.TradeResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trades (run_date, symbol, buy_price, buy_qty, take_profit, stop_loss, sell_price, pnl, return_pct)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	date := runDate.Format(domain.DateLayout)
	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, date, r.Symbol, r.BuyPrice, r.BuyQty, r.TakeProfit, r.StopLoss, r.SellPrice, r.PnL, r.ReturnPct); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSignals returns the signals recorded for a run date.
func (s *RunStore) ListSignals(ctx context.Context, runDate time.Time) ([]domain.Signal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, buy_price, buy_qty, take_profit, stop_loss FROM signals WHERE run_date = ? ORDER BY symbol`,
		runDate.Format(domain.DateLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		var sig domain.Signal
		if err := rows.Scan(&sig.Symbol, &sig.BuyPrice, &sig.BuyQty, &sig.TakeProfit, &sig.StopLoss); err != nil {
			return nil, err
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}
