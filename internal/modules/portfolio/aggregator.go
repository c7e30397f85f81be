// Package portfolio reduces a completed holdings set plus reference data into
// a single flat aggregate record: valuation, risk and income metrics plus
// sector and industry allocation. The aggregate is a pure projection rebuilt
// on every query; it performs no I/O and is never persisted.
package portfolio

import (
	"github.com/foliotracker/folio/internal/domain"
)

// Options configures the aggregation.
type Options struct {
	// NormalizeWeights divides every quantity-weighted sum by the total
	// quantity, turning the sums into true weighted averages. The default
	// (false) keeps the historical un-normalized sums.
	NormalizeWeights bool
}

// Aggregate folds the holdings into one Portfolio record. Reference fields for
// symbols absent from the snapshot default to 0. Holdings with zero quantity
// contribute nothing to the quantity-weighted sums but still count toward the
// per-holding averages.
func Aggregate(holdings []*domain.Holding, snapshot domain.ReferenceSnapshot, opts Options) *domain.Portfolio {
	p := &domain.Portfolio{
		SectorWeights:   make(map[string]domain.AllocationBucket),
		IndustryWeights: make(map[string]domain.AllocationBucket),
		Normalized:      opts.NormalizeWeights,
	}
	if len(holdings) == 0 {
		return p
	}

	totalQuantity := 0.0
	for _, h := range holdings {
		info, _ := snapshot.Get(h.Symbol) // zero value stands in for missing reference data

		p.TotalInvestment += h.BuyAverage * h.Quantity
		p.CurrentValue += h.CurrentPrice * h.Quantity
		p.ProfitLoss += (h.CurrentPrice - h.BuyAverage) * h.Quantity
		if h.BuyAverage != 0 {
			p.YieldOnCost += (h.CurrentPrice - h.BuyAverage) / h.BuyAverage * 100
		}

		p.DividendYield += h.DividendIncome * h.Quantity
		if p.CurrentValue > 0 {
			p.WeightedAvgDividendYield += h.DividendIncome * h.Quantity / p.CurrentValue
		}
		p.AverageDividendYield += h.DividendIncome / float64(len(holdings))

		p.TrailingPE += info.TrailingPE * h.Quantity
		p.ForwardPE += info.ForwardPE * h.Quantity
		p.WeightedAvgPriceToBook += info.PriceToBook * h.Quantity
		p.WeightedAvgPriceToSales += info.PriceToSales * h.Quantity
		p.WeightedAvgEnterpriseToRevenue += info.EnterpriseToRevenue * h.Quantity
		p.WeightedAvgEnterpriseToEBITDA += info.EnterpriseToEBITDA * h.Quantity
		p.WeightedAvgTargetPrice += info.TargetHighPrice * h.Quantity
		p.WeightedAvgMarketCap += float64(info.MarketCap) * h.Quantity
		p.Beta += info.Beta * h.Quantity
		p.WeightedAvgBeta += info.Beta * h.Quantity
		p.WeightedAvgEBITDAMargin += info.EBITDAMargins * h.Quantity
		p.WeightedAvgOperatingMargin += info.OperatingMargins * h.Quantity
		p.WeightedAvgGrossMargin += info.GrossMargins * h.Quantity
		p.WeightedAvgRevenueGrowth += info.RevenueGrowth * h.Quantity
		p.WeightedAvgDebtToEquity += info.DebtToEquity * h.Quantity

		monthly := MonthlyInvestmentTrend(h.InvestmentTrend)
		p.StandardDeviation += ReturnStdDev(monthly) * h.Quantity
		p.MaxDrawdown += MaxDrawdown(monthly) * h.Quantity

		totalQuantity += h.Quantity
	}

	allocate(p, holdings, snapshot)

	if opts.NormalizeWeights && totalQuantity != 0 {
		for _, sum := range []*float64{
			&p.DividendYield,
			&p.TrailingPE, &p.ForwardPE,
			&p.WeightedAvgPriceToBook, &p.WeightedAvgPriceToSales,
			&p.WeightedAvgEnterpriseToRevenue, &p.WeightedAvgEnterpriseToEBITDA,
			&p.WeightedAvgTargetPrice, &p.WeightedAvgMarketCap,
			&p.Beta, &p.WeightedAvgBeta,
			&p.WeightedAvgEBITDAMargin, &p.WeightedAvgOperatingMargin,
			&p.WeightedAvgGrossMargin, &p.WeightedAvgRevenueGrowth,
			&p.WeightedAvgDebtToEquity,
			&p.StandardDeviation, &p.MaxDrawdown,
		} {
			*sum /= totalQuantity
		}
	}

	return p
}

// allocate fills the sector and industry buckets with investment-share
// weights. Holdings with no reference record land in the empty-name bucket.
func allocate(p *domain.Portfolio, holdings []*domain.Holding, snapshot domain.ReferenceSnapshot) {
	totalInvestment := 0.0
	for _, h := range holdings {
		totalInvestment += h.Investment
	}
	if totalInvestment <= 0 {
		return
	}

	for _, h := range holdings {
		info, _ := snapshot.Get(h.Symbol)
		weight := h.Investment / totalInvestment

		sector := p.SectorWeights[info.Sector]
		sector.Count++
		sector.Weight += weight
		p.SectorWeights[info.Sector] = sector

		industry := p.IndustryWeights[info.Industry]
		industry.Count++
		industry.Weight += weight
		p.IndustryWeights[info.Industry] = industry
	}
}
