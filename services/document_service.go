package services

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/utils"
)

// StoredFile describes an uploaded document file
type StoredFile struct {
	Key         string
	FileName    string
	ContentType string
	Size        int64
}

// DocumentStorage handles upload, retrieval and deletion of document files
type DocumentStorage interface {
	// Upload validates and stores a file for an appointment
	Upload(ctx context.Context, appointmentID uint, fileHeader *multipart.FileHeader) (StoredFile, error)

	// URL returns a download URL for a stored file
	URL(ctx context.Context, key string) (string, error)

	// Delete removes a stored file
	Delete(ctx context.Context, key string) error
}

// DocumentService implements DocumentStorage on top of an ObjectStore
type DocumentService struct {
	store ObjectStore
}

var documentServiceInstance DocumentStorage

// NewDocumentService creates a document service backed by store
func NewDocumentService(store ObjectStore) *DocumentService {
	return &DocumentService{store: store}
}

// InitDocumentService builds the object store selected by cfg and installs
// the document service as the process-wide instance
func InitDocumentService(ctx context.Context, cfg *config.Config) (DocumentStorage, error) {
	var store ObjectStore
	switch cfg.StorageBackend {
	case config.StorageS3:
		s3Store, err := NewS3Service(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = s3Store
		log.Printf("Storing documents in S3 bucket %s", cfg.AWSS3Bucket)
	default:
		store = NewLocalStore(cfg.UploadDir)
		log.Printf("Storing documents in %s", cfg.UploadDir)
	}

	documentServiceInstance = NewDocumentService(store)
	return documentServiceInstance, nil
}

// GetDocumentService returns the initialized document service instance
func GetDocumentService() DocumentStorage {
	return documentServiceInstance
}

// SetDocumentService sets the document service instance (primarily for testing)
func SetDocumentService(service DocumentStorage) {
	documentServiceInstance = service
}

// Upload validates the file and stores it under a unique key
func (s *DocumentService) Upload(ctx context.Context, appointmentID uint, fileHeader *multipart.FileHeader) (StoredFile, error) {
	if err := utils.ValidateDocumentFile(fileHeader); err != nil {
		return StoredFile{}, err
	}

	contentType, _ := utils.ContentTypeFor(fileHeader.Filename)
	filename := sanitizeFilename(fileHeader.Filename)
	key := fmt.Sprintf("documents/%d/%s_%s", appointmentID, uuid.NewString(), filename)

	file, err := fileHeader.Open()
	if err != nil {
		return StoredFile{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: failed to close file: %v", closeErr)
		}
	}()

	if err := s.store.PutObject(ctx, key, contentType, file); err != nil {
		return StoredFile{}, fmt.Errorf("failed to upload document: %w", err)
	}

	return StoredFile{
		Key:         key,
		FileName:    filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
	}, nil
}

// URL generates a download URL for a stored document
func (s *DocumentService) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.store.ObjectURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate document URL: %w", err)
	}
	return url, nil
}

// Delete removes a stored document
func (s *DocumentService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	if err := s.store.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// sanitizeFilename strips directories and spaces from a client-supplied name
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	return strings.ReplaceAll(name, " ", "_")
}
