// Package marketdata is the HTTP client for the market-data provider. It
// resolves Indian symbols against the NSE listing first and falls back to the
// BSE listing, and maps provider quotes onto the domain reference records.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliotracker/folio/internal/domain"
)

// ErrSymbolNotFound indicates the provider knows neither listing of a symbol.
var ErrSymbolNotFound = errors.New("symbol not found on provider")

// Config holds client configuration.
type Config struct {
	BaseURL string
	// Provider symbols of the tracked benchmark indices.
	Nifty50   string
	BSESensex string
	NiftyBank string
}

// Client talks to the market-data provider.
type Client struct {
	baseURL    string
	benchmarks map[string]string // provider symbol → levels field
	client     *http.Client
	log        zerolog.Logger
}

// NewClient creates a market-data client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		benchmarks: map[string]string{
			"nifty50":   cfg.Nifty50,
			"bsesensex": cfg.BSESensex,
			"niftybank": cfg.NiftyBank,
		},
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.With().Str("client", "marketdata").Logger(),
	}
}

// quote is the provider's quote payload, reduced to the fields we keep.
type quote struct {
	Symbol              string  `json:"symbol"`
	LongName            string  `json:"longName"`
	City                string  `json:"city"`
	Industry            string  `json:"industry"`
	Sector              string  `json:"sector"`
	PreviousClose       float64 `json:"previousClose"`
	Volume              int64   `json:"volume"`
	AverageVolume10Days int64   `json:"averageVolume10days"`
	AverageVolume3M     int64   `json:"averageVolume3months"`
	FiftyTwoWeekLow     float64 `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh    float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekChange  float64 `json:"52WeekChange"`

	MarketCap           int64   `json:"marketCap"`
	BookValue           float64 `json:"bookValue"`
	PriceToSales        float64 `json:"priceToSalesTrailing12Months"`
	PriceToBook         float64 `json:"priceToBook"`
	TrailingPE          float64 `json:"trailingPE"`
	ForwardPE           float64 `json:"forwardPE"`
	TrailingEPS         float64 `json:"trailingEps"`
	ForwardEPS          float64 `json:"forwardEps"`
	PriceEPSCurrentYear float64 `json:"priceEpsCurrentYear"`

	FiftyDayAverage      float64 `json:"fiftyDayAverage"`
	TwoHundredDayAverage float64 `json:"twoHundredDayAverage"`

	Beta                float64 `json:"beta"`
	DebtToEquity        float64 `json:"debtToEquity"`
	EnterpriseToRevenue float64 `json:"enterpriseToRevenue"`
	EnterpriseToEBITDA  float64 `json:"enterpriseToEbitda"`

	EBITDA           int64   `json:"ebitda"`
	TotalDebt        int64   `json:"totalDebt"`
	TotalRevenue     int64   `json:"totalRevenue"`
	RevenuePerShare  float64 `json:"revenuePerShare"`
	GrossProfit      int64   `json:"grossProfits"`
	RevenueGrowth    float64 `json:"revenueGrowth"`
	GrossMargins     float64 `json:"grossMargins"`
	EBITDAMargins    float64 `json:"ebitdaMargins"`
	OperatingMargins float64 `json:"operatingMargins"`
	EPSTrailing12M   float64 `json:"epsTrailingTwelveMonths"`
	EPSForward       float64 `json:"epsForward"`
	EPSCurrentYear   float64 `json:"epsCurrentYear"`

	TargetHighPrice float64 `json:"targetHighPrice"`
	TargetLowPrice  float64 `json:"targetLowPrice"`
	TargetMeanPrice float64 `json:"targetMeanPrice"`

	DividendYield       float64 `json:"dividendYield"`
	FiveYearAvgDivYield float64 `json:"fiveYearAvgDividendYield"`
}

// events is the provider's corporate-actions payload.
type events struct {
	Splits []struct {
		Date  string  `json:"date"`
		Ratio float64 `json:"ratio"`
	} `json:"splits"`
	Dividends []struct {
		ExDate string  `json:"ex_date"`
		Amount float64 `json:"amount"`
	} `json:"dividends"`
}

// FetchStockInfo retrieves the reference record for an Indian symbol, trying
// the NSE listing first and the BSE listing second.
func (c *Client) FetchStockInfo(ctx context.Context, symbol string) (domain.StockInfo, error) {
	for _, provider := range []string{symbol + ".NS", symbol + ".BO"} {
		info, err := c.fetchListing(ctx, symbol, provider)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, ErrSymbolNotFound) {
			return domain.StockInfo{}, err
		}
		c.log.Debug().Str("symbol", symbol).Str("listing", provider).Msg("Listing not found, trying fallback")
	}
	return domain.StockInfo{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
}

func (c *Client) fetchListing(ctx context.Context, symbol, provider string) (domain.StockInfo, error) {
	var q quote
	if err := c.getJSON(ctx, "/quote?symbol="+url.QueryEscape(provider), &q); err != nil {
		return domain.StockInfo{}, err
	}

	info := domain.StockInfo{
		Symbol:   symbol,
		Provider: provider,
		Name:     q.LongName,
		City:     q.City,
		Industry: q.Industry,
		Sector:   q.Sector,

		PreviousClose:       q.PreviousClose,
		Volume:              q.Volume,
		AverageVolume10Days: q.AverageVolume10Days,
		AverageVolume3M:     q.AverageVolume3M,
		FiftyTwoWeekLow:     q.FiftyTwoWeekLow,
		FiftyTwoWeekHigh:    q.FiftyTwoWeekHigh,
		FiftyTwoWeekChange:  q.FiftyTwoWeekChange,

		MarketCap:           q.MarketCap,
		BookValue:           q.BookValue,
		PriceToSales:        q.PriceToSales,
		PriceToBook:         q.PriceToBook,
		TrailingPE:          q.TrailingPE,
		ForwardPE:           q.ForwardPE,
		TrailingEPS:         q.TrailingEPS,
		ForwardEPS:          q.ForwardEPS,
		PriceEPSCurrentYear: q.PriceEPSCurrentYear,

		FiftyDayAverage:      q.FiftyDayAverage,
		TwoHundredDayAverage: q.TwoHundredDayAverage,

		Beta:                q.Beta,
		DebtToEquity:        q.DebtToEquity,
		EnterpriseToRevenue: q.EnterpriseToRevenue,
		EnterpriseToEBITDA:  q.EnterpriseToEBITDA,

		EBITDA:           q.EBITDA,
		TotalDebt:        q.TotalDebt,
		TotalRevenue:     q.TotalRevenue,
		RevenuePerShare:  q.RevenuePerShare,
		GrossProfit:      q.GrossProfit,
		RevenueGrowth:    q.RevenueGrowth,
		GrossMargins:     q.GrossMargins,
		EBITDAMargins:    q.EBITDAMargins,
		OperatingMargins: q.OperatingMargins,
		EPSTrailing12M:   q.EPSTrailing12M,
		EPSForward:       q.EPSForward,
		EPSCurrentYear:   q.EPSCurrentYear,

		TargetHighPrice: q.TargetHighPrice,
		TargetLowPrice:  q.TargetLowPrice,
		TargetMeanPrice: q.TargetMeanPrice,

		DividendYield:       q.DividendYield,
		FiveYearAvgDivYield: q.FiveYearAvgDivYield,
	}

	var ev events
	if err := c.getJSON(ctx, "/events?symbol="+url.QueryEscape(provider), &ev); err != nil {
		if !errors.Is(err, ErrSymbolNotFound) {
			return domain.StockInfo{}, err
		}
		// Quote without events is still usable.
		return info, nil
	}
	for _, s := range ev.Splits {
		date, err := time.Parse("2006-01-02", s.Date)
		if err != nil {
			c.log.Warn().Str("symbol", symbol).Str("date", s.Date).Msg("Skipping split with unparseable date")
			continue
		}
		info.Splits = append(info.Splits, domain.StockSplit{SplitDate: date, Ratio: s.Ratio})
	}
	for _, d := range ev.Dividends {
		date, err := time.Parse("2006-01-02", d.ExDate)
		if err != nil {
			c.log.Warn().Str("symbol", symbol).Str("date", d.ExDate).Msg("Skipping dividend with unparseable ex-date")
			continue
		}
		info.Dividends = append(info.Dividends, domain.Dividend{ExDate: date, Amount: d.Amount})
	}
	return info, nil
}

// FetchIndexHistory retrieves the daily close series for all three tracked
// benchmarks and merges them into one date-keyed map.
func (c *Client) FetchIndexHistory(ctx context.Context) (map[string]domain.IndexLevels, error) {
	merged := make(map[string]domain.IndexLevels)
	for field, provider := range c.benchmarks {
		var payload struct {
			Closes map[string]float64 `json:"closes"`
		}
		if err := c.getJSON(ctx, "/history?symbol="+url.QueryEscape(provider), &payload); err != nil {
			return nil, fmt.Errorf("failed to fetch history for %s: %w", provider, err)
		}
		for date, level := range payload.Closes {
			levels := merged[date]
			switch field {
			case "nifty50":
				levels.Nifty50 = level
			case "bsesensex":
				levels.BSESensex = level
			case "niftybank":
				levels.NiftyBank = level
			}
			merged[date] = levels
		}
	}
	return merged, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrSymbolNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
