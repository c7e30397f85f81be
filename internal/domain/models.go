// Package domain provides core domain models and types.
package domain

import "time"

// TradeType represents the kind of tradebook event
type TradeType string

const (
	// TradeBuy adds to a long position (or reduces a short one)
	TradeBuy TradeType = "buy"
	// TradeSell reduces a long position (or adds to a short one)
	TradeSell TradeType = "sell"
	// TradeSplit is a synthetic corporate-action marker; Price carries the split ratio
	TradeSplit TradeType = "split"
	// TradeBonus is a zero-cost buy synthesized from a stock split
	TradeBonus TradeType = "bonus"
)

// Trade represents a single immutable tradebook event.
// Quantity is always a non-negative magnitude; direction comes from Type.
// Dates carry calendar granularity only (UTC midnight).
type Trade struct {
	Symbol   string    `json:"symbol"`
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
	Type     TradeType `json:"type"`
	Date     time.Time `json:"date"`
	Remark   string    `json:"remark,omitempty"`
}

// TrendPoint is one (date, value) sample of a holding time series.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// RealizedEntry records the profit locked in by one closing (or reversing) trade.
type RealizedEntry struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"` // matched quantity
	Price    float64   `json:"price"`    // execution price of the closing trade
	Amount   float64   `json:"amount"`   // realized profit (signed)
}

// DividendCredit records dividend income credited against the position held on the ex-date.
type DividendCredit struct {
	ExDate time.Time `json:"ex_date"`
	Amount float64   `json:"amount"` // per-share amount × quantity held
}

/// Holding is the reconstructed state of a single symbol. Quantity is signed:
// positive = long, negative = short, zero = flat. All trend series are in
// non-decreasing date order and quantity/investment trends are point-aligned.
type Holding struct {
	Symbol           string  `json:"symbol"`
	Quantity         float64 `json:"quantity"`
	BuyAverage       float64 `json:"buy_average"`
	Investment       float64 `json:"investment"`
	CurrentPrice     float64 `json:"current_price"`
	PriceStale       bool    `json:"price_stale"` // no reference data; CurrentPrice defaulted to 0
	UnrealizedProfit float64 `json:"unrealized_profit"`

	Trades                []Trade          `json:"trades"`
	QuantityTrend         []TrendPoint     `json:"quantity_trend"`
	InvestmentTrend       []TrendPoint     `json:"investment_trend"`
	RealizedProfitHistory []RealizedEntry  `json:"realized_profit_history"`
	DividendHistory       []DividendCredit `json:"dividend_history"`

	RealizedProfit float64 `json:"realized_profit"`
	DividendIncome float64 `json:"dividend_income"`

	RiskFreeReturnTrend  []TrendPoint `json:"risk_free_return_trend"`
	Nifty50ReturnTrend   []TrendPoint `json:"nifty50_return_trend"`
	BSESensexReturnTrend []TrendPoint `json:"bsesensex_return_trend"`
	NiftyBankReturnTrend []TrendPoint `json:"niftybank_return_trend"`
}

// NewHolding creates an empty flat holding for a symbol.
func NewHolding(symbol string) *Holding {
	return &Holding{Symbol: symbol}
}

// StockSplit is a corporate action splitting each share into Ratio shares on SplitDate.
type StockSplit struct {
	SplitDate time.Time `json:"split_date"`
	Ratio     float64   `json:"ratio"`
}

// Dividend is a per-share dividend with its ex-date.
type Dividend struct {
	ExDate time.Time `json:"ex_date"`
	Amount float64   `json:"amount"`
}

// StockInfo holds per-symbol reference data fetched from the market-data
// provider. The reconstruction core treats it as a read-only lookup record.
type StockInfo struct {
	Symbol   string `json:"symbol"`
	Provider string `json:"provider_symbol"` // symbol as known to the provider (e.g. TCS.NS)
	Name     string `json:"name"`
	City     string `json:"city"`
	Industry string `json:"industry"`
	Sector   string `json:"sector"`

	PreviousClose       float64 `json:"previous_close"`
	Volume              int64   `json:"volume"`
	AverageVolume10Days int64   `json:"average_volume_10days"`
	AverageVolume3M     int64   `json:"average_volume_3months"`
	FiftyTwoWeekLow     float64 `json:"fifty_two_week_low"`
	FiftyTwoWeekHigh    float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekChange  float64 `json:"fifty_two_week_change"`

	MarketCap           int64   `json:"market_cap"`
	BookValue           float64 `json:"book_value"`
	PriceToSales        float64 `json:"price_to_sales_trailing_12_months"`
	PriceToBook         float64 `json:"price_to_book"`
	TrailingPE          float64 `json:"trailing_pe"`
	ForwardPE           float64 `json:"forward_pe"`
	TrailingEPS         float64 `json:"trailing_eps"`
	ForwardEPS          float64 `json:"forward_eps"`
	PriceEPSCurrentYear float64 `json:"price_eps_current_year"`

	FiftyDayAverage      float64 `json:"fifty_day_average"`
	TwoHundredDayAverage float64 `json:"two_hundred_day_average"`

	Beta                float64 `json:"beta"`
	DebtToEquity        float64 `json:"debt_to_equity"`
	EnterpriseToRevenue float64 `json:"enterprise_to_revenue"`
	EnterpriseToEBITDA  float64 `json:"enterprise_to_ebitda"`

	EBITDA           int64   `json:"ebitda"`
	TotalDebt        int64   `json:"total_debt"`
	TotalRevenue     int64   `json:"total_revenue"`
	RevenuePerShare  float64 `json:"revenue_per_share"`
	GrossProfit      int64   `json:"gross_profit"`
	RevenueGrowth    float64 `json:"revenue_growth"`
	GrossMargins     float64 `json:"gross_margins"`
	EBITDAMargins    float64 `json:"ebitda_margins"`
	OperatingMargins float64 `json:"operating_margins"`
	EPSTrailing12M   float64 `json:"eps_trailing_12months"`
	EPSForward       float64 `json:"eps_forward"`
	EPSCurrentYear   float64 `json:"eps_current_year"`

	TargetHighPrice float64 `json:"target_high_price"`
	TargetLowPrice  float64 `json:"target_low_price"`
	TargetMeanPrice float64 `json:"target_mean_price"`

	DividendYield       float64 `json:"dividend_yield"`
	FiveYearAvgDivYield float64 `json:"five_year_average_dividend_yield"`

	Splits    []StockSplit `json:"stock_splits,omitempty"`
	Dividends []Dividend   `json:"dividends,omitempty"`
}

// AllocationBucket aggregates holdings sharing a sector or industry.
type AllocationBucket struct {
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

// Portfolio is a pure projection over a completed holdings set. It is rebuilt
// in full on every query and never persisted.
type Portfolio struct {
	// Investment metrics
	TotalInvestment float64 `json:"total_investment"`
	CurrentValue    float64 `json:"current_value"`
	ProfitLoss      float64 `json:"profit_loss"`
	YieldOnCost     float64 `json:"yield_on_cost"`

	// Income metrics
	DividendYield            float64 `json:"dividend_yield"`
	AverageDividendYield     float64 `json:"average_dividend_yield"`
	WeightedAvgDividendYield float64 `json:"weighted_average_dividend_yield"`

	// Valuation metrics
	TrailingPE                     float64 `json:"trailing_pe"`
	ForwardPE                      float64 `json:"forward_pe"`
	WeightedAvgPriceToBook         float64 `json:"weighted_average_price_to_book"`
	WeightedAvgPriceToSales        float64 `json:"weighted_average_price_to_sales"`
	WeightedAvgEnterpriseToRevenue float64 `json:"weighted_average_enterprise_to_revenue"`
	WeightedAvgEnterpriseToEBITDA  float64 `json:"weighted_average_enterprise_to_ebitda"`
	WeightedAvgTargetPrice         float64 `json:"weighted_average_target_price"`
	WeightedAvgMarketCap           float64 `json:"weighted_average_market_cap"`

	// Risk metrics
	Beta              float64 `json:"beta"`
	WeightedAvgBeta   float64 `json:"weighted_average_beta"`
	StandardDeviation float64 `json:"standard_deviation"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	Alpha             float64 `json:"alpha"`
	TrackingError     float64 `json:"tracking_error"`

	// Profitability metrics
	WeightedAvgEBITDAMargin    float64 `json:"weighted_average_ebitda_margin"`
	WeightedAvgOperatingMargin float64 `json:"weighted_average_operating_margin"`
	WeightedAvgGrossMargin     float64 `json:"weighted_average_gross_margin"`

	// Growth metrics
	WeightedAvgRevenueGrowth float64 `json:"weighted_average_revenue_growth"`

	// Leverage metrics
	WeightedAvgDebtToEquity float64 `json:"weighted_average_debt_to_equity"`

	// Allocation metrics
	SectorWeights   map[string]AllocationBucket `json:"sector_weights"`
	IndustryWeights map[string]AllocationBucket `json:"industry_weights"`

	Normalized bool `json:"normalized"` // true when weighted sums were divided by total weight
}
