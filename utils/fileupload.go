package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
)

// allowedDocumentTypes maps accepted file extensions to their content type
var allowedDocumentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// ValidateDocumentFile validates the uploaded file format and size
func ValidateDocumentFile(fileHeader *multipart.FileHeader) error {
	if fileHeader.Size > MaxFileSize {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
		}
	}

	if fileHeader.Size == 0 {
		return &FileUploadError{
			Code:    "EMPTY_FILE",
			Message: "Uploaded file is empty",
		}
	}

	if _, ok := ContentTypeFor(fileHeader.Filename); !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only PDF, PNG and JPEG files are allowed",
		}
	}

	return nil
}

// ContentTypeFor returns the content type for an accepted file name
func ContentTypeFor(filename string) (string, bool) {
	contentType, ok := allowedDocumentTypes[strings.ToLower(filepath.Ext(filename))]
	return contentType, ok
}

// SafeFilename reports whether name can be used as a single path element
func SafeFilename(name string) bool {
	return name != "" && name != "." &&
		!strings.Contains(name, "..") &&
		!strings.ContainsAny(name, `/\`)
}

// SaveFile writes src to dir/filename, creating dir if needed
func SaveFile(src io.Reader, dir, filename string) (err error) {
	if !SafeFilename(filename) {
		return fmt.Errorf("invalid filename %q", filename)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}

	return nil
}

// LocalFileURL returns the URL path for a file kept in local storage
func LocalFileURL(filename string) string {
	if filename == "" {
		return ""
	}
	return fmt.Sprintf("/api/v1/files/%s", filename)
}
