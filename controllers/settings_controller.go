package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/scoring"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UpdateBonusSettingsRequest represents the request body for changing the scoring parameters
type UpdateBonusSettingsRequest struct {
	WeightSpeed         *float64        `json:"weight_speed" binding:"required,gte=0"`
	WeightQuality       *float64        `json:"weight_quality" binding:"required,gte=0"`
	WeightReliability   *float64        `json:"weight_reliability" binding:"required,gte=0"`
	WeightTeam          *float64        `json:"weight_team" binding:"required,gte=0"`
	WeightCleanliness   *float64        `json:"weight_cleanliness" binding:"required,gte=0"`
	MinBonusThreshold   *float64        `json:"min_bonus_threshold" binding:"required"`
	MinNeutralThreshold *float64        `json:"min_neutral_threshold" binding:"required"`
	HalfYearBonusPool   decimal.Decimal `json:"half_year_bonus_pool"`
}

// BonusSettingsResponse adds derived information to the stored settings
type BonusSettingsResponse struct {
	models.BonusSettings
	WeightsSum       float64 `json:"weights_sum"`
	RecomputedDrafts int     `json:"recomputed_drafts,omitempty"`
}

// GetBonusSettings handles GET /api/v1/settings/bonus
func GetBonusSettings(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	settings, err := models.LoadBonusSettings(config.GetDB())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load bonus settings")
		return
	}

	respondData(c, http.StatusOK, BonusSettingsResponse{
		BonusSettings: settings,
		WeightsSum:    settings.Scoring().Weights.Sum(),
	})
}

// UpdateBonusSettings handles PUT /api/v1/settings/bonus (admin only)
// Draft reviews are recomputed with the new parameters; approved ones keep their values.
func UpdateBonusSettings(c *gin.Context) {
	var req UpdateBonusSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only admins can change bonus settings", models.RoleAdmin) {
		return
	}

	if req.HalfYearBonusPool.IsNegative() {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "half_year_bonus_pool must not be negative")
		return
	}

	settings := models.NewBonusSettings(scoring.Settings{
		Weights: scoring.Weights{
			Speed:       *req.WeightSpeed,
			Quality:     *req.WeightQuality,
			Reliability: *req.WeightReliability,
			Team:        *req.WeightTeam,
			Cleanliness: *req.WeightCleanliness,
		},
		MinBonusThreshold:   *req.MinBonusThreshold,
		MinNeutralThreshold: *req.MinNeutralThreshold,
		HalfYearBonusPool:   req.HalfYearBonusPool.Round(2),
	})

	recomputed := 0
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&settings).Error; err != nil {
			return err
		}

		var drafts []models.ScoreEntry
		if err := tx.Where("status = ?", models.ScoreStatusDraft).Find(&drafts).Error; err != nil {
			return err
		}
		for i := range drafts {
			drafts[i].SetSubscores(drafts[i].Subscores(), settings.Scoring())
			if err := tx.Model(&drafts[i]).Updates(map[string]interface{}{
				"total_score":   drafts[i].TotalScore,
				"outcome":       drafts[i].Outcome,
				"monthly_bonus": drafts[i].MonthlyBonus,
			}).Error; err != nil {
				return err
			}
		}
		recomputed = len(drafts)
		return nil
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save bonus settings")
		return
	}

	respondData(c, http.StatusOK, BonusSettingsResponse{
		BonusSettings:    settings,
		WeightsSum:       settings.Scoring().Weights.Sum(),
		RecomputedDrafts: recomputed,
	})
}
