package holdings

import (
	"sort"
	"sync"

	"github.com/foliotracker/folio/internal/domain"
)

// BuildAll reconstructs every symbol on a bounded worker pool. Per-symbol
// reconstruction has no cross-symbol dependencies: each worker owns its
// symbol's holding exclusively and shares only the read-only snapshot and
// index history. Results are collected over a channel, never a shared map.
//
// Symbols without trades (reference-data-only records) still yield a valid
// flat holding. Output is sorted by symbol for deterministic runs.
func (b *Builder) BuildAll(symbols []string, tradesBySymbol map[string][]domain.Trade, snapshot domain.ReferenceSnapshot, index domain.IndexHistory, workers int) []*domain.Holding {
	if len(symbols) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(symbols) {
		workers = len(symbols)
	}

	jobs := make(chan string)
	results := make(chan *domain.Holding, len(symbols))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				results <- b.Build(symbol, tradesBySymbol[symbol], snapshot, index)
			}
		}()
	}

	go func() {
		for _, symbol := range symbols {
			jobs <- symbol
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	holdings := make([]*domain.Holding, 0, len(symbols))
	for h := range results {
		holdings = append(holdings, h)
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	return holdings
}
