package tradebook

import (
	"sort"

	"github.com/foliotracker/folio/internal/domain"
)

// AdjustForSplits rewrites a normalized trade stream so historical share
// counts reflect subsequent stock splits. For every split event where the
// running quantity immediately before the split date is positive, a bonus buy
// of running × (ratio − 1) shares at price 0 is synthesized on the split date
// and folded into the running quantity, so later splits on the same symbol
// compound. Splits against flat or short running quantity are ignored: no
// bonus shares are issued to short or flat holders.
//
// Same-date ordering is trades-before-splits: split markers are appended
// after the trades and the sort is stable, so a trade dated on the split date
// participates in the bonus calculation.
func AdjustForSplits(trades []domain.Trade, snapshot domain.ReferenceSnapshot) []domain.Trade {
	merged := make([]domain.Trade, 0, len(trades))
	merged = append(merged, trades...)
	for _, symbol := range snapshot.Symbols() {
		info, _ := snapshot.Get(symbol)
		for _, split := range info.Splits {
			merged = append(merged, domain.Trade{
				Symbol: symbol,
				Type:   domain.TradeSplit,
				Price:  split.Ratio, // ratio rides in the price field
				Date:   domain.Day(split.SplitDate),
			})
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })

	adjusted := make([]domain.Trade, 0, len(trades))
	running := make(map[string]float64)

	for _, t := range merged {
		switch t.Type {
		case domain.TradeBuy:
			running[t.Symbol] += t.Quantity
			adjusted = append(adjusted, t)

		case domain.TradeSell:
			running[t.Symbol] -= t.Quantity
			adjusted = append(adjusted, t)

		case domain.TradeSplit:
			if running[t.Symbol] > 0 {
				bonus := running[t.Symbol] * (t.Price - 1)
				running[t.Symbol] += bonus
				adjusted = append(adjusted, domain.Trade{
					Symbol:   t.Symbol,
					Quantity: bonus,
					Price:    0,
					Type:     domain.TradeBuy,
					Date:     t.Date,
					Remark:   "bonus shares from stock split",
				})
			}
		}
	}

	return adjusted
}
