package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"InsiderSentinel/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists runs, trades and trend segments to SQLite.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id         TEXT PRIMARY KEY,
			started_at     INTEGER NOT NULL,
			finished_at    INTEGER NOT NULL,
			tickers        INTEGER,
			failed         INTEGER,
			trades         INTEGER,
			wins           INTEGER,
			win_rate       REAL,
			avg_return_pct REAL,
			errors         TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS closed_trades (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			ticker       TEXT NOT NULL,
			entry_date   TEXT NOT NULL,
			entry_price  REAL,
			exit_date    TEXT NOT NULL,
			exit_price   REAL,
			days_held    INTEGER,
			return_pct   REAL,
			exit_reason  TEXT,
			tier         TEXT,
			scenario     TEXT,
			target_price REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON closed_trades(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ticker ON closed_trades(ticker, entry_date)`,

		`CREATE TABLE IF NOT EXISTS trend_segments (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			ticker       TEXT NOT NULL,
			type         TEXT NOT NULL,
			start_date   TEXT NOT NULL,
			start_price  REAL,
			end_date     TEXT NOT NULL,
			end_price    REAL,
			peak_price   REAL,
			duration     INTEGER,
			change_pct   REAL,
			insider_events INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trends_run ON trend_segments(run_id, ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(run *model.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR REPLACE INTO runs
		(run_id, started_at, finished_at, tickers, failed, trades, wins, win_rate, avg_return_pct, errors)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Tickers, run.Failed, run.Trades, run.Wins, run.WinRate, run.AvgReturnPct,
		strings.Join(run.Errors, "\n"),
	)
	return err
}

func (r *SQLiteRecorder) RecordTrades(runID string, trades []model.ClosedTrade) error {
	if len(trades) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO closed_trades
		(run_id, ticker, entry_date, entry_price, exit_date, exit_price, days_held,
		 return_pct, exit_reason, tier, scenario, target_price)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.Exec(runID, t.Ticker,
			t.EntryDate.Format(dateLayout), t.EntryPrice,
			t.ExitDate.Format(dateLayout), t.ExitPrice,
			t.DaysHeld, t.ReturnPct, string(t.Reason), string(t.Tier), string(t.Scenario), t.TargetPrice,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert trade %s: %w", t.Ticker, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordTrends(runID, symbol string, trends []model.CompletedTrendEvent) error {
	if len(trends) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO trend_segments
		(run_id, ticker, type, start_date, start_price, end_date, end_price,
		 peak_price, duration, change_pct, insider_events)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, ev := range trends {
		if _, err := stmt.Exec(runID, symbol, string(ev.Type),
			ev.StartDate.Format(dateLayout), ev.StartPrice,
			ev.EndDate.Format(dateLayout), ev.EndPrice,
			ev.PeakPrice, ev.Duration, ev.ChangePct, len(ev.Events),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert trend %s: %w", symbol, err)
		}
	}
	return tx.Commit()
}

// CountTrades returns the number of stored trades for runID.
func (r *SQLiteRecorder) CountTrades(runID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM closed_trades WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
