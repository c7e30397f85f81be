package portfolio

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/foliotracker/folio/internal/domain"
)

// MonthlyInvestmentTrend resamples a trade-dated investment trend to month-end
// granularity: the last observation of each month wins, and months with no
// observations carry the previous month's value forward. The result spans
// every calendar month from the first observation to the last.
func MonthlyInvestmentTrend(trend []domain.TrendPoint) []domain.TrendPoint {
	if len(trend) == 0 {
		return nil
	}

	last := make(map[string]float64, len(trend))
	for _, p := range trend {
		last[p.Date.Format("2006-01")] = p.Value
	}

	start := monthEnd(trend[0].Date)
	end := monthEnd(trend[len(trend)-1].Date)

	monthly := make([]domain.TrendPoint, 0, len(last))
	carried := trend[0].Value
	for d := start; !d.After(end); d = monthEnd(d.AddDate(0, 0, 1)) {
		if v, ok := last[d.Format("2006-01")]; ok {
			carried = v
		}
		monthly = append(monthly, domain.TrendPoint{Date: d, Value: carried})
	}
	return monthly
}

// ReturnStdDev is the sample standard deviation of period-over-period returns
// along a trend. Intervals starting from a non-positive value are skipped;
// fewer than two usable returns yield 0.
func ReturnStdDev(trend []domain.TrendPoint) float64 {
	if len(trend) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(trend)-1)
	for i := 1; i < len(trend); i++ {
		prev := trend[i-1].Value
		if prev > 0 {
			returns = append(returns, (trend[i].Value-prev)/prev)
		}
	}
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil)
}

// MaxDrawdown is the largest peak-to-trough decline along a trend, as a
// fraction of the peak. A zero peak contributes no drawdown.
func MaxDrawdown(trend []domain.TrendPoint) float64 {
	if len(trend) == 0 {
		return 0
	}
	maxDrawdown := 0.0
	peak := trend[0].Value
	for _, p := range trend {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			if dd := (peak - p.Value) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}
	return maxDrawdown
}

// monthEnd returns the last calendar day of d's month at UTC midnight.
func monthEnd(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}
