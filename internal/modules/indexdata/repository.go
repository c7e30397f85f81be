// Package indexdata persists daily closing levels for the three tracked
// benchmark indices and serves them to the reconstruction pipeline as an
// on-or-before lookup history.
package indexdata

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/foliotracker/folio/internal/domain"
)

// Repository provides benchmark level storage over the folio database.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates an index-data repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "indexdata").Logger(),
	}
}

// Upsert stores the levels for one date, replacing any previous row.
func (r *Repository) Upsert(date string, levels domain.IndexLevels) error {
	_, err := r.db.Exec(
		"INSERT OR REPLACE INTO index_history (date, nifty50, bsesensex, niftybank) VALUES (?, ?, ?, ?)",
		date, levels.Nifty50, levels.BSESensex, levels.NiftyBank,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert index levels for %s: %w", date, err)
	}
	return nil
}

// UpsertMany stores a date-keyed batch of levels in one transaction.
func (r *Repository) UpsertMany(levels map[string]domain.IndexLevels) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin index batch: %w", err)
	}
	defer tx.Rollback()

	for date, lv := range levels {
		_, err := tx.Exec(
			"INSERT OR REPLACE INTO index_history (date, nifty50, bsesensex, niftybank) VALUES (?, ?, ?, ?)",
			date, lv.Nifty50, lv.BSESensex, lv.NiftyBank,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert index levels for %s: %w", date, err)
		}
	}
	return tx.Commit()
}

// History returns the full stored level series.
func (r *Repository) History() (domain.IndexHistory, error) {
	rows, err := r.db.Query("SELECT date, nifty50, bsesensex, niftybank FROM index_history")
	if err != nil {
		return domain.IndexHistory{}, fmt.Errorf("failed to query index history: %w", err)
	}
	defer rows.Close()

	levels := make(map[string]domain.IndexLevels)
	for rows.Next() {
		var date string
		var lv domain.IndexLevels
		if err := rows.Scan(&date, &lv.Nifty50, &lv.BSESensex, &lv.NiftyBank); err != nil {
			return domain.IndexHistory{}, fmt.Errorf("failed to scan index levels: %w", err)
		}
		levels[date] = lv
	}
	if err := rows.Err(); err != nil {
		return domain.IndexHistory{}, err
	}
	return domain.NewIndexHistory(levels), nil
}
