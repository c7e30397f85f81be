package holdings

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotracker/folio/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func buy(symbol string, qty, price float64, date string) domain.Trade {
	return domain.Trade{Symbol: symbol, Quantity: qty, Price: price, Type: domain.TradeBuy, Date: day(date)}
}

func sell(symbol string, qty, price float64, date string) domain.Trade {
	return domain.Trade{Symbol: symbol, Quantity: qty, Price: price, Type: domain.TradeSell, Date: day(date)}
}

func testBuilder(model CostModel) *Builder {
	return NewBuilder(Options{RiskFreeRate: 0.075, CostModel: model}, zerolog.Nop())
}

func snapshotWithClose(symbol string, previousClose float64) domain.ReferenceSnapshot {
	return domain.NewReferenceSnapshot(map[string]domain.StockInfo{
		symbol: {Symbol: symbol, PreviousClose: previousClose},
	})
}

var emptyIndex = domain.NewIndexHistory(nil)

func TestBuildLongAccumulation(t *testing.T) {
	b := testBuilder(CostModelAveraged)
	h := b.Build("TCS", []domain.Trade{
		buy("TCS", 10, 100, "2024-01-01"),
		buy("TCS", 10, 120, "2024-01-10"),
	}, snapshotWithClose("TCS", 130), emptyIndex)

	assert.Equal(t, 20.0, h.Quantity)
	assert.Equal(t, 2200.0, h.Investment)
	assert.Equal(t, 110.0, h.BuyAverage)
	assert.Empty(t, h.RealizedProfitHistory)
	assert.InDelta(t, (130.0-110.0)*20, h.UnrealizedProfit, 1e-9)
	assert.False(t, h.PriceStale)
}

func TestBuildReversalLongToShort(t *testing.T) {
	// Buy 100 @ 10, sell 150 @ 12: the matched 100 realize 100×(12−10)=200,
	// the remaining 50 open a short.
	b := testBuilder(CostModelAveraged)
	h := b.Build("X", []domain.Trade{
		buy("X", 100, 10, "2024-01-01"),
		sell("X", 150, 12, "2024-02-01"),
	}, snapshotWithClose("X", 12), emptyIndex)

	require.Len(t, h.RealizedProfitHistory, 1)
	assert.InDelta(t, 200.0, h.RealizedProfitHistory[0].Amount, 1e-9)
	assert.Equal(t, 100.0, h.RealizedProfitHistory[0].Quantity)
	assert.InDelta(t, 200.0, h.RealizedProfit, 1e-9)
	assert.Equal(t, -50.0, h.Quantity)
	// The short side opened at the trade price.
	assert.InDelta(t, 12.0, h.BuyAverage, 1e-9)
	assert.InDelta(t, 600.0, h.Investment, 1e-9)
}

func TestBuildReversalShortToLong(t *testing.T) {
	b := testBuilder(CostModelAveraged)
	h := b.Build("X", []domain.Trade{
		sell("X", 40, 50, "2024-01-01"),
		buy("X", 100, 45, "2024-02-01"),
	}, snapshotWithClose("X", 45), emptyIndex)

	require.Len(t, h.RealizedProfitHistory, 1)
	// Short covered below the sale price: 40×(50−45)=200.
	assert.InDelta(t, 200.0, h.RealizedProfitHistory[0].Amount, 1e-9)
	assert.Equal(t, 60.0, h.Quantity)
	assert.InDelta(t, 45.0, h.BuyAverage, 1e-9)
}

func TestBuildScenarioBothCostModels(t *testing.T) {
	trades := []domain.Trade{
		buy("X", 10, 100, "2024-01-01"),
		sell("X", 5, 120, "2024-01-10"),
		buy("X", 5, 90, "2024-01-20"),
	}

	testCases := []struct {
		model          CostModel
		wantInvestment float64
		wantAverage    float64
	}{
		// Averaged: 5 unmatched shares keep avg 100 → 500; +5×90 → 950.
		{model: CostModelAveraged, wantInvestment: 950.0, wantAverage: 95.0},
		// Blended: |1000 − 600| = 400; +450 → 850.
		{model: CostModelBlended, wantInvestment: 850.0, wantAverage: 85.0},
	}

	for _, tc := range testCases {
		t.Run(string(tc.model), func(t *testing.T) {
			h := testBuilder(tc.model).Build("X", trades, snapshotWithClose("X", 100), emptyIndex)

			require.Len(t, h.RealizedProfitHistory, 1)
			assert.InDelta(t, 100.0, h.RealizedProfitHistory[0].Amount, 1e-9, "5×(120−100)")
			assert.Equal(t, 10.0, h.Quantity)
			assert.InDelta(t, tc.wantInvestment, h.Investment, 1e-9)
			assert.InDelta(t, tc.wantAverage, h.BuyAverage, 1e-9)
		})
	}
}

func TestBuildCloseThroughZeroReopensFresh(t *testing.T) {
	b := testBuilder(CostModelAveraged)
	h := b.Build("X", []domain.Trade{
		buy("X", 10, 100, "2024-01-01"),
		sell("X", 10, 120, "2024-01-10"),
		buy("X", 5, 90, "2024-01-20"),
	}, snapshotWithClose("X", 95), emptyIndex)

	require.Len(t, h.RealizedProfitHistory, 1)
	assert.InDelta(t, 200.0, h.RealizedProfit, 1e-9)
	assert.Equal(t, 5.0, h.Quantity)
	// The closed position does not leak basis into the reopened one.
	assert.InDelta(t, 90.0, h.BuyAverage, 1e-9)
	assert.InDelta(t, 450.0, h.Investment, 1e-9)
}

func TestBuildSplitHalvesBuyAverage(t *testing.T) {
	// A 2:1 split arrives as a zero-cost bonus buy from the adjuster:
	// 100 shares @ 3000 + 100 bonus @ 0 → 200 shares at half the basis.
	b := testBuilder(CostModelAveraged)
	h := b.Build("TCS", []domain.Trade{
		buy("TCS", 100, 3000, "2023-01-10"),
		{Symbol: "TCS", Quantity: 100, Price: 0, Type: domain.TradeBuy, Date: day("2023-06-01")},
	}, snapshotWithClose("TCS", 1600), emptyIndex)

	assert.Equal(t, 200.0, h.Quantity)
	assert.InDelta(t, 1500.0, h.BuyAverage, 1e-9)
	assert.InDelta(t, 300000.0, h.Investment, 1e-9)
}

func TestBuildEmptyTradeListYieldsFlatHolding(t *testing.T) {
	b := testBuilder(CostModelAveraged)
	h := b.Build("IDEA", nil, snapshotWithClose("IDEA", 13.5), emptyIndex)

	assert.Equal(t, 0.0, h.Quantity)
	assert.Equal(t, 0.0, h.BuyAverage)
	assert.Equal(t, 13.5, h.CurrentPrice)
	assert.Equal(t, 0.0, h.RealizedProfit)
	assert.Equal(t, 0.0, h.UnrealizedProfit)
	assert.Empty(t, h.QuantityTrend)
	assert.Empty(t, h.InvestmentTrend)
	assert.Empty(t, h.RiskFreeReturnTrend)
}

func TestBuildMissingReferenceDataIsFlaggedNotFatal(t *testing.T) {
	b := testBuilder(CostModelAveraged)
	h := b.Build("UNLISTED", []domain.Trade{
		buy("UNLISTED", 10, 50, "2024-01-01"),
	}, domain.NewReferenceSnapshot(nil), emptyIndex)

	assert.True(t, h.PriceStale)
	assert.Equal(t, 0.0, h.CurrentPrice)
	assert.Equal(t, 10.0, h.Quantity)
}

func TestBuildTrendInvariants(t *testing.T) {
	trades := []domain.Trade{
		buy("X", 10, 100, "2024-01-01"),
		buy("X", 5, 110, "2024-01-05"),
		sell("X", 8, 120, "2024-02-01"),
		sell("X", 10, 90, "2024-03-01"),
		buy("X", 2, 80, "2024-04-01"),
	}

	for _, model := range []CostModel{CostModelAveraged, CostModelBlended} {
		t.Run(string(model), func(t *testing.T) {
			h := testBuilder(model).Build("X", trades, snapshotWithClose("X", 100), emptyIndex)

			require.Equal(t, len(h.QuantityTrend), len(h.InvestmentTrend))
			require.Equal(t, len(trades), len(h.QuantityTrend))
			for i := 1; i < len(h.QuantityTrend); i++ {
				assert.False(t, h.QuantityTrend[i].Date.Before(h.QuantityTrend[i-1].Date), "quantity trend dates must be non-decreasing")
				assert.False(t, h.InvestmentTrend[i].Date.Before(h.InvestmentTrend[i-1].Date), "investment trend dates must be non-decreasing")
			}
		})
	}
}

func TestBuildAverageQuantityIdentity(t *testing.T) {
	// Under the averaged model, buyAverage × |quantity| ≈ investment after
	// every trade, on every path through the state machine.
	trades := []domain.Trade{
		buy("X", 10, 100, "2024-01-01"),
		sell("X", 4, 130, "2024-01-10"),
		sell("X", 10, 90, "2024-02-01"),
		buy("X", 3, 95, "2024-03-01"),
	}
	b := testBuilder(CostModelAveraged)
	snapshot := snapshotWithClose("X", 100)

	for n := 1; n <= len(trades); n++ {
		h := b.Build("X", trades[:n], snapshot, emptyIndex)
		assert.InDelta(t, h.Investment, h.BuyAverage*mathAbs(h.Quantity), 1e-9, "after %d trades", n)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	trades := []domain.Trade{
		buy("X", 10, 100, "2024-01-01"),
		sell("X", 15, 120, "2024-02-01"),
		buy("X", 5, 90, "2024-03-01"),
	}
	snapshot := snapshotWithClose("X", 100)

	b := testBuilder(CostModelAveraged)
	first := b.Build("X", trades, snapshot, emptyIndex)
	second := b.Build("X", trades, snapshot, emptyIndex)

	assert.Equal(t, first, second)
}

func TestCreditDividends(t *testing.T) {
	b := testBuilder(CostModelAveraged)
	snapshot := domain.NewReferenceSnapshot(map[string]domain.StockInfo{
		"ITC": {
			Symbol:        "ITC",
			PreviousClose: 450,
			Dividends: []domain.Dividend{
				{ExDate: day("2023-12-01"), Amount: 6.25}, // before any position
				{ExDate: day("2024-02-01"), Amount: 6.25}, // 20 shares held
				{ExDate: day("2024-04-01"), Amount: 10},   // flat by then
			},
		},
	})

	h := b.Build("ITC", []domain.Trade{
		buy("ITC", 20, 400, "2024-01-01"),
		sell("ITC", 20, 440, "2024-03-01"),
	}, snapshot, emptyIndex)

	require.Len(t, h.DividendHistory, 1)
	assert.InDelta(t, 125.0, h.DividendIncome, 1e-9, "6.25 × 20 shares on the only eligible ex-date")
	assert.Equal(t, day("2024-02-01"), h.DividendHistory[0].ExDate)
}

func TestShortPositionUnrealizedProfit(t *testing.T) {
	b := testBuilder(CostModelAveraged)
	h := b.Build("X", []domain.Trade{
		sell("X", 10, 100, "2024-01-01"),
	}, snapshotWithClose("X", 90), emptyIndex)

	assert.Equal(t, -10.0, h.Quantity)
	assert.InDelta(t, 100.0, h.BuyAverage, 1e-9)
	assert.InDelta(t, 100.0, h.UnrealizedProfit, 1e-9, "short 10 @ 100 marked at 90 gains 100")
}

func mathAbs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
