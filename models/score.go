package models

import (
	"time"

	"github.com/kendall-kelly/fieldservice-api/scoring"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Score entry lifecycle
const (
	ScoreStatusDraft    = "draft"
	ScoreStatusApproved = "approved"
)

// ScoreEntry is a monthly performance review of a monteur
type ScoreEntry struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	MonteurID        uint            `gorm:"not null;uniqueIndex:idx_score_monteur_month" json:"monteur_id"`
	Monteur          User            `gorm:"foreignKey:MonteurID" json:"monteur"`
	ReviewerID       uint            `gorm:"not null;index" json:"reviewer_id"`
	Year             int             `gorm:"not null;uniqueIndex:idx_score_monteur_month" json:"year"`
	Month            int             `gorm:"not null;uniqueIndex:idx_score_monteur_month;check:month BETWEEN 1 AND 12" json:"month"`
	SpeedScore       float64         `gorm:"not null" json:"speed_score"`
	QualityScore     float64         `gorm:"not null" json:"quality_score"`
	ReliabilityScore float64         `gorm:"not null" json:"reliability_score"`
	TeamScore        float64         `gorm:"not null" json:"team_score"`
	CleanlinessScore float64         `gorm:"not null" json:"cleanliness_score"`
	TotalScore       float64         `gorm:"not null" json:"total_score"`
	Outcome          string          `gorm:"not null" json:"outcome"`
	MonthlyBonus     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monthly_bonus"`
	Status           string          `gorm:"not null;default:'draft'" json:"status"`
	Comment          *string         `gorm:"type:text" json:"comment"`
	ApprovedAt       *time.Time      `json:"approved_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the ScoreEntry model
func (ScoreEntry) TableName() string {
	return "score_entries"
}

// Subscores returns the five ratings of the entry.
func (e ScoreEntry) Subscores() scoring.Subscores {
	return scoring.Subscores{
		Speed:       e.SpeedScore,
		Quality:     e.QualityScore,
		Reliability: e.ReliabilityScore,
		Team:        e.TeamScore,
		Cleanliness: e.CleanlinessScore,
	}
}

// SetSubscores stores sub and recomputes the derived total, outcome and bonus.
func (e *ScoreEntry) SetSubscores(sub scoring.Subscores, settings scoring.Settings) {
	e.SpeedScore = sub.Speed
	e.QualityScore = sub.Quality
	e.ReliabilityScore = sub.Reliability
	e.TeamScore = sub.Team
	e.CleanlinessScore = sub.Cleanliness

	eval := settings.Evaluate(sub)
	e.TotalScore = eval.Total
	e.Outcome = string(eval.Outcome)
	e.MonthlyBonus = eval.MonthlyBonus
}

// IsApproved reports whether the entry has been approved.
func (e ScoreEntry) IsApproved() bool {
	return e.Status == ScoreStatusApproved
}

// BonusSettingsID is the primary key of the single settings row.
const BonusSettingsID = 1

// BonusSettings is the global, admin-editable scoring configuration
type BonusSettings struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	WeightSpeed         float64         `gorm:"not null" json:"weight_speed"`
	WeightQuality       float64         `gorm:"not null" json:"weight_quality"`
	WeightReliability   float64         `gorm:"not null" json:"weight_reliability"`
	WeightTeam          float64         `gorm:"not null" json:"weight_team"`
	WeightCleanliness   float64         `gorm:"not null" json:"weight_cleanliness"`
	MinBonusThreshold   float64         `gorm:"not null" json:"min_bonus_threshold"`
	MinNeutralThreshold float64         `gorm:"not null" json:"min_neutral_threshold"`
	HalfYearBonusPool   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"half_year_bonus_pool"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the BonusSettings model
func (BonusSettings) TableName() string {
	return "bonus_settings"
}

// DefaultBonusSettings returns the row seeded on first start.
func DefaultBonusSettings() BonusSettings {
	return NewBonusSettings(scoring.DefaultSettings())
}

// NewBonusSettings converts scoring parameters into the settings row.
func NewBonusSettings(s scoring.Settings) BonusSettings {
	return BonusSettings{
		ID:                  BonusSettingsID,
		WeightSpeed:         s.Weights.Speed,
		WeightQuality:       s.Weights.Quality,
		WeightReliability:   s.Weights.Reliability,
		WeightTeam:          s.Weights.Team,
		WeightCleanliness:   s.Weights.Cleanliness,
		MinBonusThreshold:   s.MinBonusThreshold,
		MinNeutralThreshold: s.MinNeutralThreshold,
		HalfYearBonusPool:   s.HalfYearBonusPool,
	}
}

// Scoring converts the row into the value passed to the scoring engine.
func (b BonusSettings) Scoring() scoring.Settings {
	return scoring.Settings{
		Weights: scoring.Weights{
			Speed:       b.WeightSpeed,
			Quality:     b.WeightQuality,
			Reliability: b.WeightReliability,
			Team:        b.WeightTeam,
			Cleanliness: b.WeightCleanliness,
		},
		MinBonusThreshold:   b.MinBonusThreshold,
		MinNeutralThreshold: b.MinNeutralThreshold,
		HalfYearBonusPool:   b.HalfYearBonusPool,
	}
}

// LoadBonusSettings returns the stored settings, seeding the defaults if
// the row does not exist yet.
func LoadBonusSettings(db *gorm.DB) (BonusSettings, error) {
	settings := DefaultBonusSettings()
	if err := db.Where(BonusSettings{ID: BonusSettingsID}).FirstOrCreate(&settings).Error; err != nil {
		return BonusSettings{}, err
	}
	return settings, nil
}
