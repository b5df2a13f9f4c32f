package contracts

import (
	"sort"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TopN is the number of entries kept in unit and nature rankings.
const TopN = 5

// Aggregate computes dashboard statistics over already classified contracts.
// All expiration windows are always computed; cfg only matters to the alert
// generator.
func Aggregate(classified []Contract, _ AlertConfig, today civil.Date) Statistics {
	stats := Statistics{
		TotalMonthlyValue: decimal.Zero,
		ByStatus:          make(map[Status]int, len(Statuses)),
		TopUnits:          []RankedValue{},
		TopNatures:        []RankedValue{},
	}

	units := make(map[string]struct{})
	byUnit := newRanking()
	byNature := newRanking()

	for i := range classified {
		c := &classified[i]

		stats.ByStatus[c.Status]++

		if c.Status == StatusExpired {
			stats.Expired++
		}

		if !c.Status.InForce() {
			continue
		}

		stats.TotalInForce++
		stats.TotalMonthlyValue = stats.TotalMonthlyValue.Add(c.MonthlyValue)
		units[c.UnitKey()] = struct{}{}

		byUnit.add(c.UnitLabel(), c.MonthlyValue)
		byNature.add(c.Nature, c.MonthlyValue)

		if c.EndDate == nil {
			continue
		}

		days := DaysUntil(*c.EndDate, today)
		if days <= 0 {
			continue
		}

		if days <= 30 {
			stats.Expiring30++
		}
		if days <= 60 {
			stats.Expiring60++
		}
		if days <= 90 {
			stats.Expiring90++
		}
		if days <= 180 {
			stats.Expiring180++
		}
	}

	stats.TotalUnits = len(units)
	stats.TopUnits = byUnit.top(TopN)
	stats.TopNatures = byNature.top(TopN)

	return stats
}

// ranking sums values per name, remembering first-seen order for stable ties.
type ranking struct {
	index   map[string]int
	entries []RankedValue
}

func newRanking() *ranking {
	return &ranking{index: make(map[string]int)}
}

func (r *ranking) add(name string, value decimal.Decimal) {
	if i, ok := r.index[name]; ok {
		r.entries[i].Value = r.entries[i].Value.Add(value)

		return
	}

	r.index[name] = len(r.entries)
	r.entries = append(r.entries, RankedValue{Name: name, Value: value})
}

func (r *ranking) top(n int) []RankedValue {
	out := make([]RankedValue, len(r.entries))
	copy(out, r.entries)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value.GreaterThan(out[j].Value)
	})

	if len(out) > n {
		out = out[:n]
	}

	return out
}

// NatureSummary is one row of the per-nature breakdown.
type NatureSummary struct {
	Nature       string          `json:"natureza"`
	Contracts    int             `json:"contratos"`
	InForce      int             `json:"vigentes"`
	MonthlyValue decimal.Decimal `json:"valorMensal"`
	Vendors      int             `json:"empresas"`
}

// SummarizeNatures groups classified contracts by nature, ordered by in-force
// monthly value descending with first-seen order on ties.
func SummarizeNatures(classified []Contract) []NatureSummary {
	index := make(map[string]int)
	vendors := make([]map[string]struct{}, 0)
	out := make([]NatureSummary, 0)

	for i := range classified {
		c := &classified[i]

		pos, ok := index[c.Nature]
		if !ok {
			pos = len(out)
			index[c.Nature] = pos
			out = append(out, NatureSummary{Nature: c.Nature, MonthlyValue: decimal.Zero})
			vendors = append(vendors, make(map[string]struct{}))
		}

		out[pos].Contracts++
		vendors[pos][c.Vendor] = struct{}{}

		if c.Status.InForce() {
			out[pos].InForce++
			out[pos].MonthlyValue = out[pos].MonthlyValue.Add(c.MonthlyValue)
		}
	}

	for i := range out {
		out[i].Vendors = len(vendors[i])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MonthlyValue.GreaterThan(out[j].MonthlyValue)
	})

	return out
}
