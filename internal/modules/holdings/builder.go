// Package holdings reconstructs per-symbol position state from a
// split-adjusted, date-ordered trade stream: running quantity, moving-average
// cost, realized-profit ledger, dividend income and benchmark-relative return
// series. Reconstruction is a full rebuild on every run; holdings are never
// updated incrementally.
package holdings

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliotracker/folio/internal/domain"
)

// CostModel selects how the cost basis is recomputed when a trade reduces or
// reverses the position.
type CostModel string

const (
	// CostModelAveraged keeps the moving-average identity on every path:
	// while the original direction survives, investment = buyAvg × |remaining|;
	// on a flip the new side opens at the trade price.
	CostModelAveraged CostModel = "averaged"
	// CostModelBlended reproduces the legacy subtractive approximation:
	// investment = |investment − qty×price|.
	CostModelBlended CostModel = "blended"
)

// position is the direction of the open position. Exhaustive switches over
// this type carry the reversal-matching logic.
type position int

const (
	positionFlat position = iota // no open position (also the undetermined initial state)
	positionLong
	positionShort
)

func (p position) String() string {
	switch p {
	case positionLong:
		return "long"
	case positionShort:
		return "short"
	default:
		return "flat"
	}
}

// Options configures a Builder.
type Options struct {
	RiskFreeRate float64 // annualized, e.g. 0.075
	CostModel    CostModel
}

// Builder reconstructs holdings from adjusted trade streams. It is stateless
// across symbols and safe for concurrent use: every Build call owns its
// Holding exclusively and only reads the shared snapshot.
type Builder struct {
	riskFreeRate float64
	costModel    CostModel
	log          zerolog.Logger
}

// NewBuilder creates a holdings builder.
func NewBuilder(opts Options, log zerolog.Logger) *Builder {
	model := opts.CostModel
	if model == "" {
		model = CostModelAveraged
	}
	return &Builder{
		riskFreeRate: opts.RiskFreeRate,
		costModel:    model,
		log:          log.With().Str("component", "holdings_builder").Logger(),
	}
}

// Build runs the single-pass state machine for one symbol and returns the
// finished holding. An empty trade list yields a valid flat holding. Missing
// reference data is a degraded-quality condition, not an error: the current
// price defaults to 0 and the holding is flagged PriceStale.
func (b *Builder) Build(symbol string, trades []domain.Trade, snapshot domain.ReferenceSnapshot, index domain.IndexHistory) *domain.Holding {
	h := domain.NewHolding(symbol)
	h.Trades = trades

	pos := positionFlat
	for _, t := range trades {
		if t.Type != domain.TradeBuy && t.Type != domain.TradeSell {
			continue // split markers never reach the builder; ignore defensively-typed rows
		}
		b.apply(h, &pos, t)

		h.QuantityTrend = append(h.QuantityTrend, domain.TrendPoint{Date: t.Date, Value: h.Quantity})
		if h.Quantity != 0 {
			h.BuyAverage = math.Abs(h.Investment / h.Quantity)
		} else {
			h.BuyAverage = 0
		}
		h.InvestmentTrend = append(h.InvestmentTrend, domain.TrendPoint{Date: t.Date, Value: h.Investment})
	}

	info, ok := snapshot.Get(symbol)
	if ok {
		h.CurrentPrice = info.PreviousClose
	} else {
		h.PriceStale = true
		b.log.Debug().Str("symbol", symbol).Msg("No reference data; current price defaulted to 0")
	}

	switch {
	case h.Quantity > 0:
		h.UnrealizedProfit = (h.CurrentPrice - h.BuyAverage) * h.Quantity
	case h.Quantity < 0:
		h.UnrealizedProfit = (h.BuyAverage - h.CurrentPrice) * -h.Quantity
	}

	if ok {
		b.creditDividends(h, info.Dividends)
	}
	b.attributeReturns(h, index)

	return h
}

// apply advances the position state machine by one trade.
func (b *Builder) apply(h *domain.Holding, pos *position, t domain.Trade) {
	direction := 1.0
	if t.Type == domain.TradeSell {
		direction = -1.0
	}

	switch *pos {
	case positionFlat:
		// Opening contribution: adopt the trade's direction.
		h.Quantity += direction * t.Quantity
		h.Investment += t.Quantity * t.Price

	case positionLong, positionShort:
		if sameDirection(*pos, t.Type) {
			// Scaling up exposure, nothing is realized.
			h.Quantity += direction * t.Quantity
			h.Investment += t.Quantity * t.Price
			break
		}

		// Reducing or reversing: realize profit on the matched quantity.
		matched := math.Min(t.Quantity, math.Abs(h.Quantity))
		var realized float64
		if *pos == positionShort {
			realized = matched * (h.BuyAverage - t.Price) // buying back a short
		} else {
			realized = matched * (t.Price - h.BuyAverage) // selling down a long
		}
		h.RealizedProfitHistory = append(h.RealizedProfitHistory, domain.RealizedEntry{
			Date:     t.Date,
			Quantity: matched,
			Price:    t.Price,
			Amount:   realized,
		})
		h.RealizedProfit += realized

		previousAverage := h.BuyAverage
		remaining := h.Quantity + direction*t.Quantity

		switch b.costModel {
		case CostModelBlended:
			h.Investment = math.Abs(h.Investment - t.Quantity*t.Price)
		default:
			switch {
			case remaining == 0:
				h.Investment = 0
			case remaining*h.Quantity > 0:
				// Same side survives: unmatched shares keep their average.
				h.Investment = previousAverage * math.Abs(remaining)
			default:
				// Flipped: the excess opens the new side at the trade price.
				h.Investment = t.Price * math.Abs(remaining)
			}
		}
		h.Quantity = remaining
	}

	// The position follows the post-trade sign; crossing through zero closes
	// the position, so the next trade opens fresh.
	switch {
	case h.Quantity > 0:
		*pos = positionLong
	case h.Quantity < 0:
		*pos = positionShort
	default:
		*pos = positionFlat
		if b.costModel == CostModelAveraged {
			h.Investment = 0
		}
	}
}

// creditDividends credits each dividend against the quantity held on or
// before its ex-date. Dividends on flat or short positions pay nothing.
func (b *Builder) creditDividends(h *domain.Holding, dividends []domain.Dividend) {
	for _, d := range dividends {
		quantity := quantityOnOrBefore(h.QuantityTrend, d.ExDate)
		if quantity <= 0 {
			continue
		}
		credit := d.Amount * quantity
		h.DividendHistory = append(h.DividendHistory, domain.DividendCredit{ExDate: d.ExDate, Amount: credit})
		h.DividendIncome += credit
	}
}

// quantityOnOrBefore returns the trend value at the latest point not after d,
// or 0 when no such point exists.
func quantityOnOrBefore(trend []domain.TrendPoint, d time.Time) float64 {
	day := domain.Day(d)
	value := 0.0
	for _, p := range trend {
		if p.Date.After(day) {
			break
		}
		value = p.Value
	}
	return value
}

func sameDirection(pos position, t domain.TradeType) bool {
	return (pos == positionLong && t == domain.TradeBuy) ||
		(pos == positionShort && t == domain.TradeSell)
}
