// Package uploads stores product images on the local filesystem under
// collision-resistant generated names and serves their lifecycle:
// validated save on product create/update, best-effort delete when an
// image is replaced or its product removed.
package uploads

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"pasar/internal/models"

	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix under which stored assets are served
// read-only. The references returned by Save start with it.
const PublicPrefix = "/uploads"

// allowedExtensions is the image allow-list. Both the file extension
// and the declared content type must name one of these formats.
var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// allowedContentTypes holds the acceptable declared media types. A
// bare image/ prefix is not enough: image/svg+xml under a .png name
// must fail.
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Manager writes and removes image assets in a single directory.
// It has no knowledge of product records; callers own the coupling
// between a stored asset and the record referencing it.
type Manager struct {
	dir     string
	maxSize int64
}

// NewManager ensures the upload directory exists and returns a
// manager writing into it. maxSize is the per-file ceiling in bytes.
func NewManager(dir string, maxSize int64) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &Manager{
		dir:     dir,
		maxSize: maxSize,
	}, nil
}

// Save validates and stores an uploaded file, returning its public
// reference (e.g. "/uploads/<name>"). Nothing is left on disk when
// validation or the write fails.
func (m *Manager) Save(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", models.ErrUnsupportedImage
	}
	if contentType := file.Header.Get("Content-Type"); contentType != "" {
		mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
		if !allowedContentTypes[mediaType] {
			return "", models.ErrUnsupportedImage
		}
	}
	if file.Size > m.maxSize {
		return "", models.ErrImageTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	name := uuid.New().String() + ext
	full := filepath.Join(m.dir, name)

	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("failed to create asset file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		// Do not leave a partial upload behind.
		if rmErr := os.Remove(full); rmErr != nil {
			log.Printf("Failed to remove partial upload %s: %v", full, rmErr)
		}
		return "", fmt.Errorf("failed to write asset file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close asset file: %w", err)
	}

	return PublicPrefix + "/" + name, nil
}

// Delete removes a stored asset by its public reference. A reference
// that is already gone is not an error; other failures are returned
// so the caller can decide whether to log or propagate.
func (m *Manager) Delete(ref string) error {
	name := path.Base(ref)
	if name == "." || name == "/" || name == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(m.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete asset %s: %w", ref, err)
	}
	return nil
}

// Dir returns the directory assets are written to, for static serving.
func (m *Manager) Dir() string {
	return m.dir
}
