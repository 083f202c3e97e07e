package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateDocumentTypeRequest represents the request body for creating a document type
type CreateDocumentTypeRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// FieldDefinitionRequest describes one custom field of an appointment type
type FieldDefinitionRequest struct {
	Label    string   `json:"label" binding:"required,max=100"`
	Kind     string   `json:"kind" binding:"required,oneof=text boolean date dropdown"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

// CreateAppointmentTypeRequest represents the request body for creating an appointment type
type CreateAppointmentTypeRequest struct {
	Name            string                   `json:"name" binding:"required,min=1,max=100"`
	Fields          []FieldDefinitionRequest `json:"fields" binding:"dive"`
	DocumentTypeIDs []uint                   `json:"document_type_ids"`
}

// CreateDocumentType handles POST /api/v1/document-types (admin only)
func CreateDocumentType(c *gin.Context) {
	var req CreateDocumentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only admins can manage document types", models.RoleAdmin) {
		return
	}

	docType := models.DocumentType{Name: req.Name}
	if err := config.GetDB().Create(&docType).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "DOCUMENT_TYPE_EXISTS", "A document type with this name already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create document type")
		return
	}

	respondData(c, http.StatusCreated, docType)
}

// ListDocumentTypes handles GET /api/v1/document-types
func ListDocumentTypes(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var docTypes []models.DocumentType
	if err := config.GetDB().Order("name ASC").Find(&docTypes).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch document types")
		return
	}

	respondData(c, http.StatusOK, docTypes)
}

// CreateAppointmentType handles POST /api/v1/appointment-types (admin only)
// Fields keep the order in which they are submitted.
func CreateAppointmentType(c *gin.Context) {
	var req CreateAppointmentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, ok := currentUser(c)
	if !ok {
		return
	}
	if !requireRole(c, user, "Only admins can manage appointment types", models.RoleAdmin) {
		return
	}

	for _, f := range req.Fields {
		if f.Kind == models.FieldKindDropdown && len(f.Options) == 0 {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Dropdown field \""+f.Label+"\" needs at least one option")
			return
		}
	}

	db := config.GetDB()
	if len(req.DocumentTypeIDs) > 0 {
		var count int64
		if err := db.Model(&models.DocumentType{}).Where("id IN ?", req.DocumentTypeIDs).Count(&count).Error; err != nil {
			respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check document types")
			return
		}
		if int(count) != len(uniqueIDs(req.DocumentTypeIDs)) {
			respondError(c, http.StatusBadRequest, "DOCUMENT_TYPE_NOT_FOUND", "One or more document types do not exist")
			return
		}
	}

	apptType := models.AppointmentType{Name: req.Name}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&apptType).Error; err != nil {
			return err
		}
		for i, f := range req.Fields {
			def := models.FieldDefinition{
				AppointmentTypeID: apptType.ID,
				Label:             f.Label,
				Kind:              f.Kind,
				Required:          f.Required,
				Position:          i,
			}
			if len(f.Options) > 0 {
				options, err := json.Marshal(f.Options)
				if err != nil {
					return err
				}
				def.Options = datatypes.JSON(options)
			}
			if err := tx.Create(&def).Error; err != nil {
				return err
			}
		}
		for _, docTypeID := range uniqueIDs(req.DocumentTypeIDs) {
			requirement := models.DocumentRequirement{
				AppointmentTypeID: apptType.ID,
				DocumentTypeID:    docTypeID,
			}
			if err := tx.Create(&requirement).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if utils.IsUniqueViolation(err) {
			respondError(c, http.StatusConflict, "APPOINTMENT_TYPE_EXISTS", "An appointment type with this name already exists")
			return
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create appointment type")
		return
	}

	if err := preloadAppointmentType(db).First(&apptType, apptType.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load appointment type")
		return
	}

	respondData(c, http.StatusCreated, apptType)
}

// ListAppointmentTypes handles GET /api/v1/appointment-types
func ListAppointmentTypes(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var apptTypes []models.AppointmentType
	if err := preloadAppointmentType(config.GetDB()).Order("name ASC").Find(&apptTypes).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch appointment types")
		return
	}

	respondData(c, http.StatusOK, apptTypes)
}

// preloadAppointmentType loads fields in display order and the required document types
func preloadAppointmentType(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Fields", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Preload("DocumentRequirements.DocumentType")
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
