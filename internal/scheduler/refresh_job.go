package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/foliotracker/folio/internal/domain"
	"github.com/foliotracker/folio/internal/modules/tradebook"
)

// TradeSource provides the normalized tradebook, used only to learn which
// symbols need reference data.
type TradeSource interface {
	Load() ([]domain.Trade, error)
}

// ReferenceEnsurer fetches reference data for symbols with missing or expired
// records.
type ReferenceEnsurer interface {
	Ensure(ctx context.Context, symbols []string) (int, error)
}

// BenchmarkRefresher pulls the latest benchmark level history.
type BenchmarkRefresher interface {
	Refresh(ctx context.Context) error
}

// HoldingsRebuilder reruns the reconstruction pipeline, replacing the cached
// holdings the HTTP surface serves.
type HoldingsRebuilder interface {
	Rebuild() error
}

// RebuildFunc adapts a plain function to HoldingsRebuilder.
type RebuildFunc func() error

// Rebuild implements HoldingsRebuilder.
func (f RebuildFunc) Rebuild() error { return f() }

// RefreshJob is the nightly data refresh: reference data for every traded
// symbol, benchmark history, then a holdings rebuild so the next request
// serves fresh numbers.
type RefreshJob struct {
	trades     TradeSource
	refdata    ReferenceEnsurer
	benchmarks BenchmarkRefresher
	holdings   HoldingsRebuilder
	timeout    time.Duration
	log        zerolog.Logger
}

// NewRefreshJob creates the refresh job.
func NewRefreshJob(trades TradeSource, refdata ReferenceEnsurer, benchmarks BenchmarkRefresher, holdings HoldingsRebuilder, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		trades:     trades,
		refdata:    refdata,
		benchmarks: benchmarks,
		holdings:   holdings,
		timeout:    15 * time.Minute,
		log:        log.With().Str("job", "refresh").Logger(),
	}
}

// Name implements Job.
func (j *RefreshJob) Name() string { return "data_refresh" }

// Run implements Job. Provider steps are best-effort: a failed benchmark
// refresh still lets the rebuild proceed on stored data.
func (j *RefreshJob) Run() error {
	runID := uuid.New().String()
	log := j.log.With().Str("run_id", runID).Logger()
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	raw, err := j.trades.Load()
	if err != nil {
		return err
	}
	symbols := tradebook.Symbols(raw)

	fetched, err := j.refdata.Ensure(ctx, symbols)
	if err != nil {
		return err
	}

	if err := j.benchmarks.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("Benchmark refresh failed; rebuilding on stored history")
	}

	if err := j.holdings.Rebuild(); err != nil {
		return err
	}

	log.Info().
		Int("symbols", len(symbols)).
		Int("fetched", fetched).
		Dur("duration", time.Since(start)).
		Msg("Data refresh completed")
	return nil
}
