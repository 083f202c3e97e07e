package controllers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/kendall-kelly/fieldservice-api/services"
	"github.com/kendall-kelly/fieldservice-api/utils"
)

// UploadDocument handles POST /api/v1/appointments/:id/documents - uploads a document file
// Expects multipart form data with "file" and "document_type_id".
func UploadDocument(c *gin.Context) {
	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !canViewAppointment(user, appt) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to upload documents for this appointment")
		return
	}

	docTypeID, err := strconv.ParseUint(c.PostForm("document_type_id"), 10, 64)
	if err != nil || docTypeID == 0 {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "document_type_id is required")
		return
	}

	db := config.GetDB()
	var docType models.DocumentType
	if err := db.First(&docType, docTypeID).Error; err != nil {
		respondError(c, http.StatusBadRequest, "DOCUMENT_TYPE_NOT_FOUND", "Document type not found")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "file is required")
		return
	}

	storage := services.GetDocumentService()
	if storage == nil {
		respondError(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Document storage is not configured")
		return
	}

	stored, err := storage.Upload(c.Request.Context(), appt.ID, fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		log.Printf("Document upload failed for appointment %d: %v", appt.ID, err)
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store document")
		return
	}

	doc := models.Document{
		AppointmentID:  appt.ID,
		DocumentTypeID: docType.ID,
		FileName:       stored.FileName,
		StorageKey:     stored.Key,
		ContentType:    stored.ContentType,
		Size:           stored.Size,
		UploadedByID:   user.ID,
	}

	if err := db.Create(&doc).Error; err != nil {
		// Don't leave an orphaned object behind
		if delErr := storage.Delete(c.Request.Context(), stored.Key); delErr != nil {
			log.Printf("Failed to remove orphaned document %s: %v", stored.Key, delErr)
		}
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save document")
		return
	}

	doc.DocumentType = docType
	docs := []models.Document{doc}
	attachURLs(c.Request.Context(), docs)

	respondData(c, http.StatusCreated, docs[0])
}

// ListAppointmentDocuments handles GET /api/v1/appointments/:id/documents
func ListAppointmentDocuments(c *gin.Context) {
	user, appt, ok := appointmentForRequest(c)
	if !ok {
		return
	}
	if !canViewAppointment(user, appt) {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to view documents for this appointment")
		return
	}

	docs, err := documentsFor(config.GetDB(), appt.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch documents")
		return
	}

	attachURLs(c.Request.Context(), docs)
	respondData(c, http.StatusOK, docs)
}

// DeleteDocument handles DELETE /api/v1/documents/:id
// Staff may delete any document, others only their own uploads.
func DeleteDocument(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	docID, ok := idParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	var doc models.Document
	if err := db.First(&doc, docID).Error; err != nil {
		respondError(c, http.StatusNotFound, "DOCUMENT_NOT_FOUND", "Document not found")
		return
	}

	if !user.IsStaff() && doc.UploadedByID != user.ID {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You can only delete documents you uploaded")
		return
	}

	if err := db.Delete(&doc).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete document")
		return
	}

	if storage := services.GetDocumentService(); storage != nil {
		if err := storage.Delete(c.Request.Context(), doc.StorageKey); err != nil {
			log.Printf("Failed to remove stored file %s: %v", doc.StorageKey, err)
		}
	}

	c.Status(http.StatusNoContent)
}

// GetLocalFile handles GET /api/v1/files/:filename - serves documents kept in local storage
func GetLocalFile(c *gin.Context) {
	filename := c.Param("filename")

	// Prevent directory traversal
	if !utils.SafeFilename(filename) {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	contentType, ok := utils.ContentTypeFor(filename)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Unsupported file type")
		return
	}

	filePath := filepath.Join(config.GetConfig().UploadDir, filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=3600")
	c.File(filePath)
}
