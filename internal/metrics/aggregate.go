package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/AngelCh415/campaign-dash/internal/config"
	"github.com/AngelCh415/campaign-dash/internal/models"
)

const secondsPerDay = 24 * 60 * 60

// Budget carries the business constants behind the budget KPIs.
type Budget struct {
	Total         float64
	DailyDivisor  float64
	DailySpendCap float64
}

func BudgetFromConfig(c config.PipelineConfig) Budget {
	return Budget{Total: c.TotalBudget, DailyDivisor: c.DailyBudgetDivisor, DailySpendCap: c.DailySpendCap}
}

type Aggregator struct {
	budget Budget
	// YesterdayFromUnfiltered sums spendYesterday over every record of the
	// campaign instead of the date window. Kept on until product confirms
	// which one the dashboard should show.
	YesterdayFromUnfiltered bool
}

func NewAggregator(b Budget, yesterdayFromUnfiltered bool) *Aggregator {
	return &Aggregator{budget: b, YesterdayFromUnfiltered: yesterdayFromUnfiltered}
}

type campaignAcc struct {
	name        string
	country     string
	impressions int
	clicks      int
	installs    int
	cost        decimal.Decimal
}

// Aggregate returns one KPI per campaign present in the window, in order of
// first appearance. now drives spendToday and spendYesterday.
func (a *Aggregator) Aggregate(all []models.FactRecord, window DateRange, now time.Time) []models.CampaignKPI {
	groups := map[string]*campaignAcc{}
	order := []string{}
	for _, r := range all {
		if !window.Contains(r.Date) {
			continue
		}
		acc, ok := groups[r.CampaignName]
		if !ok {
			acc = &campaignAcc{name: r.CampaignName, country: r.Country}
			groups[r.CampaignName] = acc
			order = append(order, r.CampaignName)
		}
		acc.impressions += r.Impressions
		acc.clicks += r.Clicks
		acc.installs += r.Installs
		acc.cost = acc.cost.Add(decimal.NewFromFloat(r.Cost))
	}

	yesterday := a.yesterdaySpend(all, window, now)
	spendToday := SpendToday(now, a.budget.DailySpendCap)
	total := decimal.NewFromFloat(a.budget.Total)

	out := make([]models.CampaignKPI, 0, len(order))
	for _, name := range order {
		acc := groups[name]
		k := models.CampaignKPI{
			ID:               name,
			Name:             name,
			TotalBudget:      a.budget.Total,
			DailyBudget:      a.budget.Total / a.budget.DailyDivisor,
			SpendTotal:       round2(acc.cost),
			SpendToday:       spendToday,
			SpendYesterday:   round2(yesterday[name]),
			TotalClicks:      acc.clicks,
			TotalInstalls:    acc.installs,
			TotalImpressions: acc.impressions,
			Status:           models.StatusLive,
			Country:          acc.country,
			RemainingBudget:  round2(total.Sub(acc.cost)),
		}
		if !total.IsZero() {
			k.PercentageSpent = round2(acc.cost.Div(total).Mul(decimal.NewFromInt(100)))
		}
		if acc.installs > 0 {
			cpa := round2(acc.cost.Div(decimal.NewFromInt(int64(acc.installs))))
			k.CPA = &cpa
		}
		out = append(out, k)
	}
	return out
}

func (a *Aggregator) yesterdaySpend(all []models.FactRecord, window DateRange, now time.Time) map[string]decimal.Decimal {
	y := dayStart(now).AddDate(0, 0, -1)
	sums := map[string]decimal.Decimal{}
	for _, r := range all {
		if !a.YesterdayFromUnfiltered && !window.Contains(r.Date) {
			continue
		}
		if !dayStart(r.Date.In(now.Location())).Equal(y) {
			continue
		}
		sums[r.CampaignName] = sums[r.CampaignName].Add(decimal.NewFromFloat(r.Cost))
	}
	return sums
}

// SpendToday projects the daily cap linearly over the wall-clock seconds of
// now's day. Sub-second precision is dropped.
func SpendToday(now time.Time, dailyCap float64) float64 {
	h, m, sec := now.Clock()
	elapsed := int64(h*3600 + m*60 + sec)
	v := decimal.NewFromInt(elapsed).
		Div(decimal.NewFromInt(secondsPerDay)).
		Mul(decimal.NewFromFloat(dailyCap))
	return round2(v)
}

func round2(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }
