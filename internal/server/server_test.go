package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliotracker/folio/internal/domain"
	"github.com/foliotracker/folio/internal/modules/holdings"
	"github.com/foliotracker/folio/internal/modules/portfolio"
)

type stubTrades struct{ trades []domain.Trade }

func (s *stubTrades) Load() ([]domain.Trade, error) { return s.trades, nil }

type stubRefdata struct{ snapshot domain.ReferenceSnapshot }

func (s *stubRefdata) Snapshot([]string) (domain.ReferenceSnapshot, error) { return s.snapshot, nil }

type stubIndex struct{}

func (stubIndex) History() (domain.IndexHistory, error) { return domain.NewIndexHistory(nil), nil }

type stubJob struct {
	called bool
	err    error
}

func (j *stubJob) Run() error {
	j.called = true
	return j.err
}

func (j *stubJob) Name() string { return "stub" }

func newTestServer(t *testing.T, refresh *stubJob) *Server {
	t.Helper()

	trades := &stubTrades{trades: []domain.Trade{
		{Symbol: "ITC", Quantity: 20, Price: 400, Type: domain.TradeBuy},
	}}
	refdata := &stubRefdata{snapshot: domain.NewReferenceSnapshot(map[string]domain.StockInfo{
		"ITC": {Symbol: "ITC", PreviousClose: 450},
	})}

	builder := holdings.NewBuilder(holdings.Options{RiskFreeRate: 0.075}, zerolog.Nop())
	service := holdings.NewService(trades, refdata, stubIndex{}, builder, 2, zerolog.Nop())
	holdingsHandler := holdings.NewHandler(service, zerolog.Nop())
	portfolioHandler := portfolio.NewHandler(holdingsHandler, portfolio.Options{}, zerolog.Nop())

	return New(Config{
		Port:      0,
		Log:       zerolog.Nop(),
		DevMode:   true,
		Holdings:  holdingsHandler,
		Portfolio: portfolioHandler,
		Refresh:   refresh,
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubJob{})

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHoldingsRouteMounted(t *testing.T) {
	srv := newTestServer(t, &stubJob{})

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/holdings", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var got []domain.Holding
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "ITC", got[0].Symbol)
}

func TestPortfolioRouteMounted(t *testing.T) {
	srv := newTestServer(t, &stubJob{})

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("GET", "/api/portfolio", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var got domain.Portfolio
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.InDelta(t, 8000.0, got.TotalInvestment, 1e-9)
}

func TestManualRefresh(t *testing.T) {
	job := &stubJob{}
	srv := newTestServer(t, job)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("POST", "/api/refresh", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, job.called)
}

func TestManualRefreshFailure(t *testing.T) {
	job := &stubJob{err: errors.New("provider down")}
	srv := newTestServer(t, job)

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, httptest.NewRequest("POST", "/api/refresh", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
