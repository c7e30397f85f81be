// Package refdata persists per-symbol reference data: the StockInfo blob
// fetched from the market-data provider plus its corporate actions. Info
// blobs carry an expiration timestamp for cache-first behavior; stale data
// is still served as a fallback when the provider is unreachable.
package refdata

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliotracker/folio/internal/domain"
)

// Repository provides reference-data storage over the folio database.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a reference-data repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "refdata").Logger(),
	}
}

// StoreInfo upserts a symbol's reference record with expiration = now + ttl.
func (r *Repository) StoreInfo(info domain.StockInfo, ttl time.Duration) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal stock info for %s: %w", info.Symbol, err)
	}

	expiresAt := time.Now().Add(ttl).Unix()
	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO stock_info (symbol, data, expires_at) VALUES (?, ?, ?)",
		info.Symbol, string(data), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store stock info for %s: %w", info.Symbol, err)
	}
	return nil
}

// GetInfoIfFresh returns the stored record only while it is unexpired.
// Returns nil, nil when the symbol is absent or expired.
func (r *Repository) GetInfoIfFresh(symbol string) (*domain.StockInfo, error) {
	return r.getInfo(symbol, true)
}

// GetInfo returns the stored record regardless of expiration. Stale data is
// better than no data when the provider is down. Returns nil, nil when the
// symbol is absent.
func (r *Repository) GetInfo(symbol string) (*domain.StockInfo, error) {
	return r.getInfo(symbol, false)
}

func (r *Repository) getInfo(symbol string, freshOnly bool) (*domain.StockInfo, error) {
	query := "SELECT data FROM stock_info WHERE symbol = ?"
	args := []interface{}{symbol}
	if freshOnly {
		query += " AND expires_at > ?"
		args = append(args, time.Now().Unix())
	}

	var data string
	err := r.db.QueryRow(query, args...).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock info for %s: %w", symbol, err)
	}

	var info domain.StockInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stock info for %s: %w", symbol, err)
	}
	return &info, nil
}

// ReplaceSplits replaces a symbol's stored split history in one transaction.
func (r *Repository) ReplaceSplits(symbol string, splits []domain.StockSplit) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin splits transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM stock_splits WHERE symbol = ?", symbol); err != nil {
		return fmt.Errorf("failed to clear splits for %s: %w", symbol, err)
	}
	for _, s := range splits {
		_, err := tx.Exec(
			"INSERT INTO stock_splits (symbol, split_date, ratio) VALUES (?, ?, ?)",
			symbol, domain.DateKey(s.SplitDate), s.Ratio,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split for %s: %w", symbol, err)
		}
	}
	return tx.Commit()
}

// GetSplits returns a symbol's split history in date order.
func (r *Repository) GetSplits(symbol string) ([]domain.StockSplit, error) {
	rows, err := r.db.Query(
		"SELECT split_date, ratio FROM stock_splits WHERE symbol = ? ORDER BY split_date",
		symbol,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query splits for %s: %w", symbol, err)
	}
	defer rows.Close()

	var splits []domain.StockSplit
	for rows.Next() {
		var date string
		var ratio float64
		if err := rows.Scan(&date, &ratio); err != nil {
			return nil, fmt.Errorf("failed to scan split for %s: %w", symbol, err)
		}
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse split date %q for %s: %w", date, symbol, err)
		}
		splits = append(splits, domain.StockSplit{SplitDate: parsed, Ratio: ratio})
	}
	return splits, rows.Err()
}

// ReplaceDividends replaces a symbol's stored dividend history in one transaction.
func (r *Repository) ReplaceDividends(symbol string, dividends []domain.Dividend) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin dividends transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM dividends WHERE symbol = ?", symbol); err != nil {
		return fmt.Errorf("failed to clear dividends for %s: %w", symbol, err)
	}
	for _, d := range dividends {
		_, err := tx.Exec(
			"INSERT INTO dividends (symbol, ex_date, amount) VALUES (?, ?, ?)",
			symbol, domain.DateKey(d.ExDate), d.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert dividend for %s: %w", symbol, err)
		}
	}
	return tx.Commit()
}

// GetDividends returns a symbol's dividend history in ex-date order.
func (r *Repository) GetDividends(symbol string) ([]domain.Dividend, error) {
	rows, err := r.db.Query(
		"SELECT ex_date, amount FROM dividends WHERE symbol = ? ORDER BY ex_date",
		symbol,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividends for %s: %w", symbol, err)
	}
	defer rows.Close()

	var dividends []domain.Dividend
	for rows.Next() {
		var date string
		var amount float64
		if err := rows.Scan(&date, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan dividend for %s: %w", symbol, err)
		}
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ex-date %q for %s: %w", date, symbol, err)
		}
		dividends = append(dividends, domain.Dividend{ExDate: parsed, Amount: amount})
	}
	return dividends, rows.Err()
}

// Symbols returns all symbols with a stored reference record, sorted.
func (r *Repository) Symbols() ([]string, error) {
	rows, err := r.db.Query("SELECT symbol FROM stock_info ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query stored symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// DeleteExpired removes expired info blobs and returns how many were dropped.
// Corporate actions are kept; they do not expire.
func (r *Repository) DeleteExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM stock_info WHERE expires_at < ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired stock info: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
