package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Period is a bonus half-year. The first half of year Y covers December of
// Y-1 through May of Y; the second half covers June through November of Y.
type Period struct {
	Year int `json:"year"`
	Half int `json:"half"`
}

// PeriodFor returns the half-year a review for the given month belongs to.
func PeriodFor(year int, month time.Month) Period {
	switch {
	case month == time.December:
		return Period{Year: year + 1, Half: 1}
	case month < time.June:
		return Period{Year: year, Half: 1}
	default:
		return Period{Year: year, Half: 2}
	}
}

// String renders the period as e.g. "1st half 2026".
func (p Period) String() string {
	if p.Half == 1 {
		return fmt.Sprintf("1st half %d", p.Year)
	}
	return fmt.Sprintf("2nd half %d", p.Year)
}

// Before reports whether p precedes o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Half < o.Half
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Months returns the six calendar months of the period in order.
func (p Period) Months() []YearMonth {
	if p.Half == 1 {
		months := []YearMonth{{Year: p.Year - 1, Month: time.December}}
		for m := time.January; m <= time.May; m++ {
			months = append(months, YearMonth{Year: p.Year, Month: m})
		}
		return months
	}
	months := make([]YearMonth, 0, monthsPerPeriod)
	for m := time.June; m <= time.November; m++ {
		months = append(months, YearMonth{Year: p.Year, Month: m})
	}
	return months
}

// Entry is one monthly result fed into Aggregate.
type Entry struct {
	Year  int
	Month time.Month
	Total float64
	Bonus decimal.Decimal
}

// PeriodSummary sums the entries of one half-year.
type PeriodSummary struct {
	Period     Period          `json:"period"`
	Label      string          `json:"label"`
	Months     int             `json:"months"`
	TotalScore float64         `json:"total_score"`
	Bonus      decimal.Decimal `json:"bonus"`
}

// Aggregate buckets entries by half-year and returns the sums in
// chronological order.
func Aggregate(entries []Entry) []PeriodSummary {
	byPeriod := make(map[Period]*PeriodSummary)
	for _, e := range entries {
		p := PeriodFor(e.Year, e.Month)
		summary, ok := byPeriod[p]
		if !ok {
			summary = &PeriodSummary{Period: p, Label: p.String(), Bonus: decimal.Zero}
			byPeriod[p] = summary
		}
		summary.Months++
		summary.TotalScore += e.Total
		summary.Bonus = summary.Bonus.Add(e.Bonus)
	}

	out := make([]PeriodSummary, 0, len(byPeriod))
	for _, summary := range byPeriod {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period.Before(out[j].Period)
	})
	return out
}
