package holdings

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotracker/folio/internal/domain"
)

type stubTradeSource struct {
	trades []domain.Trade
	err    error
}

func (s *stubTradeSource) Load() ([]domain.Trade, error) { return s.trades, s.err }

type stubReferenceProvider struct {
	snapshot domain.ReferenceSnapshot
	err      error
	asked    []string
}

func (s *stubReferenceProvider) Snapshot(symbols []string) (domain.ReferenceSnapshot, error) {
	s.asked = symbols
	return s.snapshot, s.err
}

type stubIndexProvider struct {
	history domain.IndexHistory
	err     error
}

func (s *stubIndexProvider) History() (domain.IndexHistory, error) { return s.history, s.err }

func newTestService(trades *stubTradeSource, refdata *stubReferenceProvider, index *stubIndexProvider) *Service {
	builder := testBuilder(CostModelAveraged)
	return NewService(trades, refdata, index, builder, 2, zerolog.Nop())
}

func TestServiceRebuildPipeline(t *testing.T) {
	trades := &stubTradeSource{trades: []domain.Trade{
		buy("TCS", 100, 3000, "2023-01-10"),
		buy("ITC", 20, 400, "2024-01-01"),
	}}
	refdata := &stubReferenceProvider{snapshot: domain.NewReferenceSnapshot(map[string]domain.StockInfo{
		"TCS": {
			Symbol:        "TCS",
			PreviousClose: 1600,
			Splits:        []domain.StockSplit{{SplitDate: day("2023-06-01"), Ratio: 2}},
		},
		"ITC": {Symbol: "ITC", PreviousClose: 450},
		// Reference-only symbol: never traded, still yields a flat holding.
		"WIPRO": {Symbol: "WIPRO", PreviousClose: 500},
	})}
	index := &stubIndexProvider{history: emptyIndex}

	result, err := newTestService(trades, refdata, index).Rebuild()
	require.NoError(t, err)
	require.Len(t, result.Holdings, 3)

	byn := map[string]*domain.Holding{}
	for _, h := range result.Holdings {
		byn[h.Symbol] = h
	}

	// Snapshot was requested for traded symbols only, sorted.
	assert.Equal(t, []string{"ITC", "TCS"}, refdata.asked)

	// The split was folded into the trade stream before reconstruction.
	tcs := byn["TCS"]
	require.NotNil(t, tcs)
	assert.Equal(t, 200.0, tcs.Quantity)
	assert.InDelta(t, 1500.0, tcs.BuyAverage, 1e-9)

	itc := byn["ITC"]
	require.NotNil(t, itc)
	assert.Equal(t, 20.0, itc.Quantity)
	assert.False(t, itc.PriceStale)

	wipro := byn["WIPRO"]
	require.NotNil(t, wipro)
	assert.Equal(t, 0.0, wipro.Quantity)
	assert.Equal(t, 500.0, wipro.CurrentPrice)
}

func TestServiceRebuildPropagatesErrors(t *testing.T) {
	loadErr := errors.New("tradebook unreadable")
	refErr := errors.New("refdata down")
	indexErr := errors.New("index unavailable")

	testCases := []struct {
		name    string
		trades  *stubTradeSource
		refdata *stubReferenceProvider
		index   *stubIndexProvider
		wantErr error
	}{
		{
			name:    "trade source failure",
			trades:  &stubTradeSource{err: loadErr},
			refdata: &stubReferenceProvider{},
			index:   &stubIndexProvider{},
			wantErr: loadErr,
		},
		{
			name:    "reference failure",
			trades:  &stubTradeSource{},
			refdata: &stubReferenceProvider{err: refErr},
			index:   &stubIndexProvider{},
			wantErr: refErr,
		},
		{
			name:    "index failure",
			trades:  &stubTradeSource{},
			refdata: &stubReferenceProvider{},
			index:   &stubIndexProvider{err: indexErr},
			wantErr: indexErr,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := newTestService(tc.trades, tc.refdata, tc.index).Rebuild()
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCurrentAndPastFilters(t *testing.T) {
	open := domain.NewHolding("OPEN")
	open.Quantity = 10

	closed := domain.NewHolding("CLOSED")
	closed.RealizedProfitHistory = []domain.RealizedEntry{{Quantity: 5, Amount: 100}}

	trimmed := domain.NewHolding("TRIMMED")
	trimmed.Quantity = 3
	trimmed.RealizedProfitHistory = []domain.RealizedEntry{{Quantity: 2, Amount: 40}}

	flat := domain.NewHolding("FLAT")

	all := []*domain.Holding{open, closed, trimmed, flat}

	current := Current(all)
	require.Len(t, current, 2)
	assert.Equal(t, "OPEN", current[0].Symbol)
	assert.Equal(t, "TRIMMED", current[1].Symbol)

	past := Past(all)
	require.Len(t, past, 2)
	assert.Equal(t, "CLOSED", past[0].Symbol)
	assert.Equal(t, "TRIMMED", past[1].Symbol)
}
