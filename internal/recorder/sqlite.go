package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"SignalBacktest/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database at full precision.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a scheduled run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			duration_ms      INTEGER,
			status           TEXT NOT NULL,
			error            TEXT,
			symbol           TEXT NOT NULL,
			source           TEXT,
			start_date       TEXT,
			end_date         TEXT,
			closed_trades    INTEGER,
			open_trades      INTEGER,
			wins             INTEGER,
			avg_buy_price    REAL,
			avg_sell_price   REAL,
			avg_profit_pct   REAL,
			win_rate         REAL,
			max_profit_pct   REAL,
			min_profit_pct   REAL,
			holding_window   INTEGER,
			postbuy_trades   INTEGER,
			postbuy_skipped  INTEGER,
			postbuy_wins     INTEGER,
			postbuy_losses   INTEGER,
			postbuy_win_rate REAL,
			avg_hpr          REAL,
			avg_hpr_win      REAL,
			avg_hpr_loss     REAL,
			risk_reward      REAL,
			expectancy       REAL,
			avg_annualized   REAL,
			avg_max_drawdown REAL,
			worst_drawdown   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     INTEGER NOT NULL REFERENCES runs(id),
			buy_date   TEXT NOT NULL,
			buy_price  REAL,
			sell_date  TEXT,
			sell_price REAL,
			profit_pct REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id)`,

		`CREATE TABLE IF NOT EXISTS post_buy (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            INTEGER NOT NULL REFERENCES runs(id),
			buy_date          TEXT NOT NULL,
			buy_price         REAL,
			end_date          TEXT,
			end_price         REAL,
			hpr               REAL,
			annualized_return REAL,
			max_drawdown      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_post_buy_run ON post_buy(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(model.DateLayout), Valid: true}
}

// nullFloat stores undefined or infinite values as NULL.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// RecordRun writes the run row and its trade and post-buy rows in one transaction.
func (r *SQLiteRecorder) RecordRun(snap *RunSnapshot) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	s, pb := snap.Summary, snap.PostBuy
	res, err := tx.Exec(`INSERT INTO runs
		(timestamp, duration_ms, status, error, symbol, source, start_date, end_date,
		 closed_trades, open_trades, wins, avg_buy_price, avg_sell_price, avg_profit_pct,
		 win_rate, max_profit_pct, min_profit_pct,
		 holding_window, postbuy_trades, postbuy_skipped, postbuy_wins, postbuy_losses, postbuy_win_rate,
		 avg_hpr, avg_hpr_win, avg_hpr_loss, risk_reward, expectancy,
		 avg_annualized, avg_max_drawdown, worst_drawdown)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.StartedAt.Unix(), snap.Duration.Milliseconds(), snap.Status, snap.Error,
		snap.Symbol, snap.Source, nullDate(snap.Start), nullDate(snap.End),
		s.ClosedTrades, s.OpenTrades, s.Wins, s.AvgBuyPrice, s.AvgSellPrice, s.AvgProfitPct,
		s.WinRate, s.MaxProfitPct, s.MinProfitPct,
		pb.Window, len(pb.Trades), pb.Skipped, pb.Wins, pb.Losses, pb.WinRate,
		pb.AvgHPR, pb.AvgHPRWin, pb.AvgHPRLoss, nullFloat(pb.RiskReward), pb.Expectancy,
		nullFloat(pb.AvgAnnualized), pb.AvgMaxDrawdown, pb.WorstDrawdown,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, t := range snap.Trades {
		var sellPrice, profit sql.NullFloat64
		if !t.IsOpen() {
			sellPrice, profit = nullFloat(t.SellPrice), nullFloat(t.ProfitPct)
		}
		if _, err := tx.Exec(`INSERT INTO trades
			(run_id, buy_date, buy_price, sell_date, sell_price, profit_pct)
			VALUES (?,?,?,?,?,?)`,
			id, t.BuyDate.Format(model.DateLayout), t.BuyPrice, nullDate(t.SellDate), sellPrice, profit,
		); err != nil {
			return 0, fmt.Errorf("insert trade: %w", err)
		}
	}

	for _, t := range pb.Trades {
		if _, err := tx.Exec(`INSERT INTO post_buy
			(run_id, buy_date, buy_price, end_date, end_price, hpr, annualized_return, max_drawdown)
			VALUES (?,?,?,?,?,?,?,?)`,
			id, t.BuyDate.Format(model.DateLayout), t.BuyPrice, t.EndDate.Format(model.DateLayout),
			t.EndPrice, t.HPR, nullFloat(t.AnnualizedReturn), t.MaxDrawdown,
		); err != nil {
			return 0, fmt.Errorf("insert post-buy row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	snap.ID = id
	return id, nil
}

func parseDate(ns sql.NullString) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	t, _ := time.Parse(model.DateLayout, ns.String)
	return t
}

// LastRun returns the most recent run with its aggregates. Trade rows are
// not loaded; PostBuyCount carries the number of analysed buys.
func (r *SQLiteRecorder) LastRun() (*RunSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		snap            RunSnapshot
		ts, durMS       int64
		errText, source sql.NullString
		start, end      sql.NullString
		riskReward      sql.NullFloat64
		annualized      sql.NullFloat64
	)
	s, pb := &snap.Summary, &snap.PostBuy
	err := r.db.QueryRow(`SELECT id, timestamp, duration_ms, status, error, symbol, source, start_date, end_date,
		closed_trades, open_trades, wins, avg_buy_price, avg_sell_price, avg_profit_pct,
		win_rate, max_profit_pct, min_profit_pct,
		holding_window, postbuy_trades, postbuy_skipped, postbuy_wins, postbuy_losses, postbuy_win_rate,
		avg_hpr, avg_hpr_win, avg_hpr_loss, risk_reward, expectancy,
		avg_annualized, avg_max_drawdown, worst_drawdown
		FROM runs ORDER BY id DESC LIMIT 1`).Scan(
		&snap.ID, &ts, &durMS, &snap.Status, &errText, &snap.Symbol, &source, &start, &end,
		&s.ClosedTrades, &s.OpenTrades, &s.Wins, &s.AvgBuyPrice, &s.AvgSellPrice, &s.AvgProfitPct,
		&s.WinRate, &s.MaxProfitPct, &s.MinProfitPct,
		&pb.Window, &snap.PostBuyCount, &pb.Skipped, &pb.Wins, &pb.Losses, &pb.WinRate,
		&pb.AvgHPR, &pb.AvgHPRWin, &pb.AvgHPRLoss, &riskReward, &pb.Expectancy,
		&annualized, &pb.AvgMaxDrawdown, &pb.WorstDrawdown,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}

	snap.StartedAt = time.Unix(ts, 0)
	snap.Duration = time.Duration(durMS) * time.Millisecond
	snap.Error, snap.Source = errText.String, source.String
	snap.Start, snap.End = parseDate(start), parseDate(end)
	s.Empty = s.ClosedTrades == 0
	pb.Empty = snap.PostBuyCount == 0
	pb.HasLosses = pb.Losses > 0
	pb.RiskReward = math.Inf(1)
	if riskReward.Valid {
		pb.RiskReward = riskReward.Float64
	}
	pb.AvgAnnualized = math.Inf(1)
	if annualized.Valid {
		pb.AvgAnnualized = annualized.Float64
	}
	return &snap, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
