package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/validation"
)

// UpdateStatusRequest represents the request body for a status change
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ValidationResponse is returned by the validation endpoints
type ValidationResponse struct {
	Status     models.Status        `json:"status"`
	Live       bool                 `json:"live"`
	Valid      bool                 `json:"valid"`
	Warnings   []string             `json:"warnings"`
	Details    []validation.Warning `json:"details"`
	NextStatus *models.Status       `json:"next_status"`
	CanAdvance bool                 `json:"can_advance"`
}

// changeStatus gates a transition and writes it with a compare-and-set on
// the current status. model must point at a zero value of the row type.
// On failure it writes the error response and returns false.
func changeStatus(c *gin.Context, model interface{}, id uint, from models.Status, target string, validate func() validation.Result) (models.Status, bool) {
	to, err := models.ParseStatus(target)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", err.Error())
		return "", false
	}

	if err := validation.CheckTransition(from, to, validate); err != nil {
		var transitionErr *validation.TransitionError
		if errors.As(err, &transitionErr) {
			result := transitionErr.Result
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"error": gin.H{
					"code":     "VALIDATION_FAILED",
					"message":  "Requirements for status " + string(to) + " are not met",
					"warnings": result.Messages(renderer(c)),
					"details":  result.Warnings,
				},
			})
			return "", false
		}
		respondError(c, http.StatusBadRequest, "INVALID_TRANSITION", err.Error())
		return "", false
	}

	result := config.GetDB().Model(model).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update status")
		return "", false
	}
	if result.RowsAffected == 0 {
		respondError(c, http.StatusConflict, "STATUS_CONFLICT", "Status was changed by someone else, reload and try again")
		return "", false
	}

	return to, true
}

// validationReport evaluates live validation and whether the next step is open
func validationReport(c *gin.Context, status models.Status, validate func() validation.Result) ValidationResponse {
	var cached *validation.Result
	once := func() validation.Result {
		if cached == nil {
			r := validate()
			cached = &r
		}
		return *cached
	}

	result, live := validation.Live(status, once)
	resp := ValidationResponse{
		Status:   status,
		Live:     live,
		Valid:    result.Valid,
		Warnings: result.Messages(renderer(c)),
		Details:  result.Warnings,
	}
	if next, ok := status.Next(); ok {
		resp.NextStatus = &next
		resp.CanAdvance = validation.CheckTransition(status, next, once) == nil
	}
	return resp
}
