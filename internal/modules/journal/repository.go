// Package journal persists generated signals so a session's recommendations
// survive restarts and can be reviewed later.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/ashare-monitor/internal/domain"
)

// Entry is one journaled signal, buy or sell.
type Entry struct {
	ID          int64     `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Side        string    `json:"side"`
	SignalType  string    `json:"signal_type"`
	Strength    int       `json:"strength"`
	Urgency     string    `json:"urgency"`
	Action      string    `json:"action"`
	Price       float64   `json:"price"`
	PnLPct      float64   `json:"pnl_pct"`
	Reason      string    `json:"reason"`
	GeneratedAt time.Time `json:"generated_at"`
}

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Repository reads and writes the signal_journal table.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a journal repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "journal").Logger(),
	}
}

// RecordBuy journals a buy signal.
func (r *Repository) RecordBuy(signal domain.BuySignal) error {
	_, err := r.db.Exec(`
		INSERT INTO signal_journal (code, name, side, signal_type, strength, price, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		signal.Code, signal.Name, SideBuy, "buy_entry", signal.SignalStrength,
		signal.EntryPrice, signal.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record buy signal for %s: %w", signal.Code, err)
	}
	return nil
}

// RecordSell journals a sell signal.
func (r *Repository) RecordSell(signal domain.SellSignal) error {
	_, err := r.db.Exec(`
		INSERT INTO signal_journal (code, name, side, signal_type, urgency, action, price, pnl_pct, reason, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		signal.Code, signal.Name, SideSell, string(signal.Type), string(signal.Urgency),
		string(signal.Action), signal.CurrentPrice, signal.PnLPct, signal.Reason, signal.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record sell signal for %s: %w", signal.Code, err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (r *Repository) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, code, name, side, signal_type, strength, urgency, action, price, pnl_pct, reason, generated_at
		FROM signal_journal
		ORDER BY generated_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Code, &e.Name, &e.Side, &e.SignalType, &e.Strength,
			&e.Urgency, &e.Action, &e.Price, &e.PnLPct, &e.Reason, &e.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecentForCode returns the latest entries for one code, newest first.
func (r *Repository) RecentForCode(code string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, code, name, side, signal_type, strength, urgency, action, price, pnl_pct, reason, generated_at
		FROM signal_journal
		WHERE code = ?
		ORDER BY generated_at DESC, id DESC
		LIMIT ?`, code, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal for %s: %w", code, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Code, &e.Name, &e.Side, &e.SignalType, &e.Strength,
			&e.Urgency, &e.Action, &e.Price, &e.PnLPct, &e.Reason, &e.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
