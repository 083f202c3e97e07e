// Package scoring computes monthly performance scores and bonuses for monteurs.
//
// A review rates five dimensions. The weighted sum of those ratings is the
// total score, which is classified into one of three outcomes and converted
// into a monthly share of a half-year bonus pool. All functions are pure:
// callers load Settings once and pass them in.
package scoring

import (
	"github.com/shopspring/decimal"
)

// Outcome is the classification of a total score.
type Outcome string

const (
	OutcomeBonus       Outcome = "bonus"
	OutcomeNeutral     Outcome = "neutral"
	OutcomeImprovement Outcome = "improvement"
)

// maxScore is the score that earns the full monthly share of the pool.
const maxScore = 2.0

// monthsPerPeriod is the number of monthly reviews sharing one half-year pool.
const monthsPerPeriod = 6

// Subscores are the five ratings entered by a reviewer.
type Subscores struct {
	Speed       float64 `json:"speed"`
	Quality     float64 `json:"quality"`
	Reliability float64 `json:"reliability"`
	Team        float64 `json:"team"`
	Cleanliness float64 `json:"cleanliness"`
}

// Weights are the per-dimension multipliers. They are expected to sum to 1.
type Weights struct {
	Speed       float64 `json:"speed"`
	Quality     float64 `json:"quality"`
	Reliability float64 `json:"reliability"`
	Team        float64 `json:"team"`
	Cleanliness float64 `json:"cleanliness"`
}

// Sum returns the sum of all weights.
func (w Weights) Sum() float64 {
	return w.Speed + w.Quality + w.Reliability + w.Team + w.Cleanliness
}

// Settings are the global scoring parameters.
type Settings struct {
	Weights             Weights         `json:"weights"`
	MinBonusThreshold   float64         `json:"min_bonus_threshold"`
	MinNeutralThreshold float64         `json:"min_neutral_threshold"`
	HalfYearBonusPool   decimal.Decimal `json:"half_year_bonus_pool"`
}

// DefaultSettings returns the parameters used until an admin changes them.
func DefaultSettings() Settings {
	return Settings{
		Weights: Weights{
			Speed:       0.30,
			Quality:     0.30,
			Reliability: 0.15,
			Team:        0.15,
			Cleanliness: 0.10,
		},
		MinBonusThreshold:   1.0,
		MinNeutralThreshold: 0.5,
		HalfYearBonusPool:   decimal.NewFromInt(2000),
	}
}

// CalculateScore returns the weighted sum of the subscores. Neither inputs
// nor result are clamped.
func (s Settings) CalculateScore(sub Subscores) float64 {
	w := s.Weights
	return sub.Speed*w.Speed +
		sub.Quality*w.Quality +
		sub.Reliability*w.Reliability +
		sub.Team*w.Team +
		sub.Cleanliness*w.Cleanliness
}

// Classify maps a total score onto an outcome. Both thresholds are inclusive.
func (s Settings) Classify(total float64) Outcome {
	switch {
	case total >= s.MinBonusThreshold:
		return OutcomeBonus
	case total >= s.MinNeutralThreshold:
		return OutcomeNeutral
	default:
		return OutcomeImprovement
	}
}

// MonthlyBonus returns the bonus earned for one month. Scores below the
// bonus threshold earn nothing; otherwise the score, read as a fraction of
// maxScore, is applied to one sixth of the half-year pool. Scores above
// maxScore are not capped.
func (s Settings) MonthlyBonus(total float64) decimal.Decimal {
	if total < s.MinBonusThreshold {
		return decimal.Zero
	}
	share := s.HalfYearBonusPool.Div(decimal.NewFromInt(monthsPerPeriod))
	return decimal.NewFromFloat(total).Div(decimal.NewFromFloat(maxScore)).Mul(share)
}

// Evaluation is the complete result of scoring one review.
type Evaluation struct {
	Total        float64         `json:"total"`
	Outcome      Outcome         `json:"outcome"`
	MonthlyBonus decimal.Decimal `json:"monthly_bonus"`
}

// Evaluate scores sub and rounds the bonus to cents.
func (s Settings) Evaluate(sub Subscores) Evaluation {
	total := s.CalculateScore(sub)
	return Evaluation{
		Total:        total,
		Outcome:      s.Classify(total),
		MonthlyBonus: s.MonthlyBonus(total).Round(2),
	}
}
