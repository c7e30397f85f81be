package holdings

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/foliotracker/folio/internal/domain"
	"github.com/foliotracker/folio/internal/modules/tradebook"
)

// TradeSource provides the normalized tradebook.
type TradeSource interface {
	Load() ([]domain.Trade, error)
}

// ReferenceProvider assembles the read-only reference snapshot for a symbol set.
type ReferenceProvider interface {
	Snapshot(symbols []string) (domain.ReferenceSnapshot, error)
}

// IndexProvider returns the benchmark index level history.
type IndexProvider interface {
	History() (domain.IndexHistory, error)
}

// Service orchestrates the reconstruction pipeline: tradebook → split
// adjustment → per-symbol reconstruction. Every Rebuild discards previous
// state and rebuilds from scratch.
type Service struct {
	trades  TradeSource
	refdata ReferenceProvider
	index   IndexProvider
	builder *Builder
	workers int
	log     zerolog.Logger
}

// NewService creates a holdings service.
func NewService(trades TradeSource, refdata ReferenceProvider, index IndexProvider, builder *Builder, workers int, log zerolog.Logger) *Service {
	return &Service{
		trades:  trades,
		refdata: refdata,
		index:   index,
		builder: builder,
		workers: workers,
		log:     log.With().Str("service", "holdings").Logger(),
	}
}

// BuildResult carries the reconstructed holdings together with the snapshot
// they were priced against, so downstream aggregation sees the same data.
type BuildResult struct {
	Holdings []*domain.Holding
	Snapshot domain.ReferenceSnapshot
}

// Rebuild runs the full pipeline and returns all holdings, one per symbol
// seen in either the tradebook or the reference snapshot.
func (s *Service) Rebuild() (*BuildResult, error) {
	raw, err := s.trades.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load tradebook: %w", err)
	}

	symbols := tradebook.Symbols(raw)
	snapshot, err := s.refdata.Snapshot(symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to build reference snapshot: %w", err)
	}
	index, err := s.index.History()
	if err != nil {
		return nil, fmt.Errorf("failed to load index history: %w", err)
	}

	adjusted := tradebook.AdjustForSplits(raw, snapshot)
	all := unionSymbols(symbols, snapshot.Symbols())
	holdings := s.builder.BuildAll(all, tradebook.BySymbol(adjusted), snapshot, index, s.workers)

	stale := 0
	for _, h := range holdings {
		if h.PriceStale {
			stale++
		}
	}
	s.log.Info().
		Int("symbols", len(all)).
		Int("trades", len(adjusted)).
		Int("price_stale", stale).
		Msg("Holdings rebuilt")

	return &BuildResult{Holdings: holdings, Snapshot: snapshot}, nil
}

// Current returns holdings with an open position.
func Current(holdings []*domain.Holding) []*domain.Holding {
	var open []*domain.Holding
	for _, h := range holdings {
		if h.Quantity != 0 {
			open = append(open, h)
		}
	}
	return open
}

// Past returns holdings that realized profit at some point, open or not.
func Past(holdings []*domain.Holding) []*domain.Holding {
	var past []*domain.Holding
	for _, h := range holdings {
		if len(h.RealizedProfitHistory) > 0 {
			past = append(past, h)
		}
	}
	return past
}

func unionSymbols(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		seen[s] = struct{}{}
	}
	for _, s := range b {
		seen[s] = struct{}{}
	}
	union := make([]string, 0, len(seen))
	for s := range seen {
		union = append(union, s)
	}
	sort.Strings(union)
	return union
}
