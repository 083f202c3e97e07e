package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/scoring"
	"github.com/kendall-kelly/fieldservice-api/utils"
	"gorm.io/gorm"
)

// SubscoresRequest carries the five ratings of a review
type SubscoresRequest struct {
	Speed       *float64 `json:"speed" binding:"required,gte=0,lte=5"`
	Quality     *float64 `json:"quality" binding:"required,gte=0,lte=5"`
	Reliability *float64 `json:"reliability" binding:"required,gte=0,lte=5"`
	Team        *float64 `json:"team" binding:"required,gte=0,lte=5"`
	Cleanliness *float64 `json:"cleanliness" binding:"required,gte=0,lte=5"`
}

func (r SubscoresRequest) subscores() scoring.Subscores {
	return scoring.Subscores{
		Speed:       *r.Speed,
		Quality:     *r.Quality,
		Reliability: *r.Reliability,
		Team:        *r.Team,
		Cleanliness: *r.Cleanliness,
	}
}

// CreateScoreRequest represents the request body for a monthly review
type CreateScoreRequest struct {
	SubscoresRequest
	MonteurID uint    `json:"monteur_id" binding:"required"`
	Year      int     `json:"year" binding:"required,gte=2000,lte=2100"`
	Month     int     `json:"month" binding:"required,gte=1,lte=12"`
	Comment   *string `json:"comment"`
}

// UpdateScoreRequest represents the request body for editing a draft review
type UpdateScoreRequest struct {
	SubscoresRequest
	Comment *string `json:"comment"`
}

// BonusHistoryResponse is a monteur's approved reviews summed per half-year
type BonusHistoryResponse struct {
	MonteurID uint                    `json:"monteur_id"`
	Periods   []scoring.PeriodSummary `json:"periods"`
	Entries   []models.ScoreEntry     `json:"entries"`
}

// CreateScore handles POST /api/v1/scores - records a monthly review (admin only)
func CreateScore(c *gin.Context) {
	var req CreateScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	admin, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, admin, "Only admins can enter reviews", models.RoleAdmin) {
		return
	}

	db := config.GetDB()
	var monteur models.User
	if err := db.Where("id = ? AND role = ?", req.MonteurID, models.RoleMonteur).First(&monteur).Error; err != nil {
		respondError(c, http.StatusBadRequest, "MONTEUR_NOT_FOUND", "Monteur not found")
		return
	}

	settings, err := models.LoadBonusSettings(db)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load bonus settings")
		return
	}

	entry := models.ScoreEntry{
		MonteurID:  monteur.ID,
		ReviewerID: admin.ID,
		Year:       req.Year,
		Month:      req.Month,
		Status:     models.ScoreStatusDraft,
		Comment:    req.Comment,
	}
	entry.SetSubscores(req.subscores(), settings.Scoring())

	if err := db.Create(&entry).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "SCORE_EXISTS", "A review for this monteur and month already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create review")
		return
	}

	entry.Monteur = monteur
	respondData(c, http.StatusCreated, entry)
}

// UpdateScore handles PUT /api/v1/scores/:id - edits a draft review (admin only)
func UpdateScore(c *gin.Context) {
	var req UpdateScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	admin, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, admin, "Only admins can edit reviews", models.RoleAdmin) {
		return
	}

	entry, ok := scoreForRequest(c)
	if !ok {
		return
	}
	if entry.IsApproved() {
		respondError(c, http.StatusConflict, "SCORE_APPROVED", "Approved reviews can no longer be changed")
		return
	}

	db := config.GetDB()
	settings, err := models.LoadBonusSettings(db)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load bonus settings")
		return
	}

	entry.SetSubscores(req.subscores(), settings.Scoring())
	if req.Comment != nil {
		entry.Comment = req.Comment
	}

	result := db.Model(&models.ScoreEntry{}).
		Where("id = ? AND status = ?", entry.ID, models.ScoreStatusDraft).
		Updates(map[string]interface{}{
			"speed_score":       entry.SpeedScore,
			"quality_score":     entry.QualityScore,
			"reliability_score": entry.ReliabilityScore,
			"team_score":        entry.TeamScore,
			"cleanliness_score": entry.CleanlinessScore,
			"total_score":       entry.TotalScore,
			"outcome":           entry.Outcome,
			"monthly_bonus":     entry.MonthlyBonus,
			"comment":           entry.Comment,
		})
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update review")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusConflict, "SCORE_APPROVED", "Approved reviews can no longer be changed")
		return
	}

	respondData(c, http.StatusOK, entry)
}

// ApproveScore handles POST /api/v1/scores/:id/approve - freezes a review (admin only)
func ApproveScore(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, admin, "Only admins can approve reviews", models.RoleAdmin) {
		return
	}

	entry, ok := scoreForRequest(c)
	if !ok {
		return
	}
	if entry.IsApproved() {
		respondError(c, http.StatusConflict, "SCORE_APPROVED", "Review is already approved")
		return
	}

	now := time.Now()
	result := config.GetDB().Model(&models.ScoreEntry{}).
		Where("id = ? AND status = ?", entry.ID, models.ScoreStatusDraft).
		Updates(map[string]interface{}{
			"status":      models.ScoreStatusApproved,
			"approved_at": now,
		})
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to approve review")
		return
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusConflict, "SCORE_APPROVED", "Review is already approved")
		return
	}

	entry.Status = models.ScoreStatusApproved
	entry.ApprovedAt = &now
	respondData(c, http.StatusOK, entry)
}

// ListScores handles GET /api/v1/scores
// Optional query parameters: monteur_id, year, status
// Monteurs only see their own reviews.
func ListScores(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	query := config.GetDB().Preload("Monteur").Order("year DESC, month DESC, id ASC")
	if user.IsStaff() {
		if monteurID := c.Query("monteur_id"); monteurID != "" {
			query = query.Where("monteur_id = ?", monteurID)
		}
	} else {
		query = query.Where("monteur_id = ?", user.ID)
	}
	if year := c.Query("year"); year != "" {
		query = query.Where("year = ?", year)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var entries []models.ScoreEntry
	if err := query.Find(&entries).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch reviews")
		return
	}

	respondData(c, http.StatusOK, entries)
}

// GetMyBonusHistory handles GET /api/v1/users/me/bonus-history
func GetMyBonusHistory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	respondBonusHistory(c, user.ID)
}

// GetBonusHistory handles GET /api/v1/users/:id/bonus-history (admin and office only)
func GetBonusHistory(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only office staff can view other users' bonuses", models.RoleAdmin, models.RoleOffice) {
		return
	}

	monteurID, ok := idParam(c, "id")
	if !ok {
		return
	}

	respondBonusHistory(c, monteurID)
}

// respondBonusHistory sums the approved reviews of a monteur per half-year
func respondBonusHistory(c *gin.Context, monteurID uint) {
	history, err := bonusHistory(config.GetDB(), monteurID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch bonus history")
		return
	}

	respondData(c, http.StatusOK, history)
}

func bonusHistory(db *gorm.DB, monteurID uint) (BonusHistoryResponse, error) {
	entries := []models.ScoreEntry{}
	if err := db.Where("monteur_id = ? AND status = ?", monteurID, models.ScoreStatusApproved).
		Order("year ASC, month ASC").
		Find(&entries).Error; err != nil {
		return BonusHistoryResponse{}, err
	}

	inputs := make([]scoring.Entry, len(entries))
	for i, e := range entries {
		inputs[i] = scoring.Entry{
			Year:  e.Year,
			Month: time.Month(e.Month),
			Total: e.TotalScore,
			Bonus: e.MonthlyBonus,
		}
	}

	return BonusHistoryResponse{
		MonteurID: monteurID,
		Periods:   scoring.Aggregate(inputs),
		Entries:   entries,
	}, nil
}

// scoreForRequest loads the review named by :id
func scoreForRequest(c *gin.Context) (models.ScoreEntry, bool) {
	scoreID, ok := idParam(c, "id")
	if !ok {
		return models.ScoreEntry{}, false
	}

	var entry models.ScoreEntry
	if err := config.GetDB().Preload("Monteur").First(&entry, scoreID).Error; err != nil {
		respondError(c, http.StatusNotFound, "SCORE_NOT_FOUND", "Review not found")
		return models.ScoreEntry{}, false
	}
	return entry, true
}
