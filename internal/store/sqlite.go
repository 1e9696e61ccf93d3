package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// SQLiteStore implements RunStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the run database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the runs table.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		ticker TEXT NOT NULL,
		strategy TEXT NOT NULL,
		risk_policy TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		ticks INTEGER NOT NULL,
		final_net_liq TEXT NOT NULL,
		max_drawdown TEXT NOT NULL,
		mean_daily_pl REAL NOT NULL,
		stddev_daily_pl REAL NOT NULL,
		wins INTEGER NOT NULL,
		losses INTEGER NOT NULL,
		ledger_path TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun inserts one run summary.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	query := `
	INSERT INTO runs (
		id, name, ticker, strategy, risk_policy,
		started_at, finished_at, ticks,
		final_net_liq, max_drawdown, mean_daily_pl, stddev_daily_pl,
		wins, losses, ledger_path
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Name, run.Ticker, run.Strategy, run.RiskPolicy,
		run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Ticks,
		run.FinalNetLiq.String(), run.MaxDrawdown.String(),
		run.MeanDailyPL, run.StdDevDailyPL,
		run.Wins, run.Losses, run.LedgerPath,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.Name, err)
	}
	return nil
}

// ListRuns returns all recorded runs, most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*Run, error) {
	query := `
	SELECT id, name, ticker, strategy, risk_policy,
	       started_at, finished_at, ticks,
	       final_net_liq, max_drawdown, mean_daily_pl, stddev_daily_pl,
	       wins, losses, ledger_path
	FROM runs
	ORDER BY started_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var finalNetLiq, maxDrawdown string
		var ledgerPath sql.NullString
		err := rows.Scan(
			&run.ID, &run.Name, &run.Ticker, &run.Strategy, &run.RiskPolicy,
			&run.StartedAt, &run.FinishedAt, &run.Ticks,
			&finalNetLiq, &maxDrawdown, &run.MeanDailyPL, &run.StdDevDailyPL,
			&run.Wins, &run.Losses, &ledgerPath,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.FinalNetLiq, err = decimal.NewFromString(finalNetLiq); err != nil {
			return nil, fmt.Errorf("corrupt final_net_liq for run %s: %w", run.ID, err)
		}
		if run.MaxDrawdown, err = decimal.NewFromString(maxDrawdown); err != nil {
			return nil, fmt.Errorf("corrupt max_drawdown for run %s: %w", run.ID, err)
		}
		run.LedgerPath = ledgerPath.String
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
