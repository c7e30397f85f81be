package indexdata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/foliotracker/folio/internal/domain"
)

// Fetcher retrieves benchmark level history from the market-data provider.
type Fetcher interface {
	FetchIndexHistory(ctx context.Context) (map[string]domain.IndexLevels, error)
}

// Service serves the stored benchmark history to the pipeline and refreshes
// it from the provider.
type Service struct {
	repo    *Repository
	fetcher Fetcher
	log     zerolog.Logger
}

// NewService creates an index-data service.
func NewService(repo *Repository, fetcher Fetcher, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		fetcher: fetcher,
		log:     log.With().Str("service", "indexdata").Logger(),
	}
}

// History returns the stored benchmark series.
func (s *Service) History() (domain.IndexHistory, error) {
	return s.repo.History()
}

// Refresh pulls the latest level history from the provider and merges it into
// the store. Existing dates are overwritten; history never shrinks.
func (s *Service) Refresh(ctx context.Context) error {
	levels, err := s.fetcher.FetchIndexHistory(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch index history: %w", err)
	}
	if err := s.repo.UpsertMany(levels); err != nil {
		return err
	}
	s.log.Info().Int("dates", len(levels)).Msg("Benchmark history refreshed")
	return nil
}
