package holdings

import (
	"github.com/foliotracker/folio/internal/domain"
)

// attributeReturns derives the risk-free and benchmark return series from the
// investment trend. All four series are point-aligned with the investment
// trend and start at (firstDate, 0). Each point is the return the prior
// interval's capital would have earned: the risk-free leg accrues
// investment × days × rate/365, each benchmark leg accrues investment × the
// fractional level change between the two dates.
//
// Index levels are resolved on-or-before the requested date; intervals with
// no usable level (or a zero previous level) contribute 0 rather than failing.
func (b *Builder) attributeReturns(h *domain.Holding, index domain.IndexHistory) {
	if len(h.InvestmentTrend) == 0 {
		return
	}

	first := h.InvestmentTrend[0].Date
	h.RiskFreeReturnTrend = append(h.RiskFreeReturnTrend, domain.TrendPoint{Date: first})
	h.Nifty50ReturnTrend = append(h.Nifty50ReturnTrend, domain.TrendPoint{Date: first})
	h.BSESensexReturnTrend = append(h.BSESensexReturnTrend, domain.TrendPoint{Date: first})
	h.NiftyBankReturnTrend = append(h.NiftyBankReturnTrend, domain.TrendPoint{Date: first})

	for i := 1; i < len(h.InvestmentTrend); i++ {
		prev := h.InvestmentTrend[i-1]
		cur := h.InvestmentTrend[i]
		days := cur.Date.Sub(prev.Date).Hours() / 24

		h.RiskFreeReturnTrend = append(h.RiskFreeReturnTrend, domain.TrendPoint{
			Date:  cur.Date,
			Value: prev.Value * days * b.riskFreeRate / 365,
		})

		prevLevels, okPrev := index.OnOrBefore(prev.Date)
		curLevels, okCur := index.OnOrBefore(cur.Date)
		ok := okPrev && okCur

		h.Nifty50ReturnTrend = append(h.Nifty50ReturnTrend, domain.TrendPoint{
			Date:  cur.Date,
			Value: indexContribution(prev.Value, prevLevels.Nifty50, curLevels.Nifty50, ok),
		})
		h.BSESensexReturnTrend = append(h.BSESensexReturnTrend, domain.TrendPoint{
			Date:  cur.Date,
			Value: indexContribution(prev.Value, prevLevels.BSESensex, curLevels.BSESensex, ok),
		})
		h.NiftyBankReturnTrend = append(h.NiftyBankReturnTrend, domain.TrendPoint{
			Date:  cur.Date,
			Value: indexContribution(prev.Value, prevLevels.NiftyBank, curLevels.NiftyBank, ok),
		})
	}
}

// indexContribution is the return the invested capital would have earned had
// it tracked the index over the interval. A zero or unknown previous level
// short-circuits to 0.
func indexContribution(investment, prevLevel, curLevel float64, ok bool) float64 {
	if !ok || prevLevel <= 0 {
		return 0
	}
	return investment * (curLevel - prevLevel) / prevLevel
}
