package refdata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliotracker/folio/internal/domain"
)

// Fetcher retrieves a symbol's reference record from the market-data provider.
type Fetcher interface {
	FetchStockInfo(ctx context.Context, symbol string) (domain.StockInfo, error)
}

// Service composes stored reference data into read-only snapshots for the
// reconstruction pipeline and keeps the store warm from the provider. The
// pipeline itself never talks to the provider: Snapshot reads only what is
// already on disk.
type Service struct {
	repo    *Repository
	fetcher Fetcher
	ttl     time.Duration
	log     zerolog.Logger
}

// NewService creates a reference-data service. ttl bounds how long a fetched
// record is considered fresh.
func NewService(repo *Repository, fetcher Fetcher, ttl time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		fetcher: fetcher,
		ttl:     ttl,
		log:     log.With().Str("service", "refdata").Logger(),
	}
}

// Snapshot assembles the reference snapshot for a symbol set from the store.
// Stale records are included; symbols with no stored record at all are simply
// absent, which downstream reports as a price-stale holding. Stored corporate
// actions override whatever the info blob carried.
func (s *Service) Snapshot(symbols []string) (domain.ReferenceSnapshot, error) {
	stocks := make(map[string]domain.StockInfo, len(symbols))
	for _, symbol := range symbols {
		info, err := s.repo.GetInfo(symbol)
		if err != nil {
			return domain.ReferenceSnapshot{}, fmt.Errorf("failed to read reference data for %s: %w", symbol, err)
		}
		if info == nil {
			continue
		}

		splits, err := s.repo.GetSplits(symbol)
		if err != nil {
			return domain.ReferenceSnapshot{}, err
		}
		dividends, err := s.repo.GetDividends(symbol)
		if err != nil {
			return domain.ReferenceSnapshot{}, err
		}
		info.Splits = splits
		info.Dividends = dividends

		stocks[symbol] = *info
	}
	return domain.NewReferenceSnapshot(stocks), nil
}

// Ensure fetches reference data for every symbol whose stored record is
// missing or expired. Provider failures keep the stale record and are not
// fatal: the refresh is best-effort per symbol. Returns how many symbols were
// fetched.
func (s *Service) Ensure(ctx context.Context, symbols []string) (int, error) {
	fetched := 0
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}

		fresh, err := s.repo.GetInfoIfFresh(symbol)
		if err != nil {
			return fetched, err
		}
		if fresh != nil {
			continue
		}

		info, err := s.fetcher.FetchStockInfo(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Reference fetch failed; keeping stale record")
			continue
		}

		if err := s.repo.StoreInfo(info, s.ttl); err != nil {
			return fetched, err
		}
		if err := s.repo.ReplaceSplits(symbol, info.Splits); err != nil {
			return fetched, err
		}
		if err := s.repo.ReplaceDividends(symbol, info.Dividends); err != nil {
			return fetched, err
		}
		fetched++
	}

	s.log.Info().Int("symbols", len(symbols)).Int("fetched", fetched).Msg("Reference data ensured")
	return fetched, nil
}
