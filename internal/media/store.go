// Package media stores user-uploaded profile pictures on the local filesystem.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"quill/internal/config"
	"quill/internal/middleware"
	"quill/internal/models"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultMediaDir        = "./media"
	DefaultMaxUploadSizeMB = 5
)

// Store writes validated images into a media directory and serves deletes.
type Store struct {
	dir            string
	maxUploadBytes int64
}

// NewStore builds a Store rooted at the configured media directory.
func NewStore(cfg *config.Config) *Store {
	dir := DefaultMediaDir
	if cfg != nil && cfg.MediaDir != "" {
		dir = cfg.MediaDir
	}
	return &Store{
		dir:            dir,
		maxUploadBytes: DefaultMaxUploadSizeMB * 1024 * 1024,
	}
}

func isAllowedImageMIME(mimeType string) bool {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}

// Save validates the bytes as a decodable image and writes them under a
// fresh random filename. Returns the stored filename.
func (s *Store) Save(ctx context.Context, content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxUploadBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(content)
	if !isAllowedImageMIME(detectedType) {
		return "", models.NewValidationError("Invalid image type")
	}

	// DecodeConfig parses only the header, so a file with a forged MIME
	// prefix but broken image data is still rejected.
	_, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", models.NewInternalError(err)
	}

	filename := fmt.Sprintf("%s.%s", uuid.NewString(), format)
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "Stored profile picture", "filename", filename, "bytes", len(content))
	return filename, nil
}

// Delete removes a stored picture. The shared default picture is never
// deleted, and a missing file is not an error.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if filename == "" || filename == models.DefaultPicture {
		return nil
	}
	// Reject path traversal in stored names.
	if filepath.Base(filename) != filename {
		return models.NewValidationError("Invalid filename")
	}

	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !os.IsNotExist(err) {
		middleware.Logger.WarnContext(ctx, "Failed to delete picture", "filename", filename, "error", err)
		return models.NewInternalError(err)
	}
	return nil
}

// Path returns the on-disk path for a stored filename.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filename)
}

// Dir returns the media directory root.
func (s *Store) Dir() string {
	return s.dir
}
