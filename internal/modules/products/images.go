package products

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nexusfarm/nexus/internal/utils"
)

var allowedImageExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// ImageStore saves product photos under a directory served at /uploads.
type ImageStore struct {
	dir string
	now func() time.Time
}

// NewImageStore creates the upload directory if needed
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ImageStore{dir: dir, now: time.Now}, nil
}

// Dir returns the upload directory
func (s *ImageStore) Dir() string {
	return s.dir
}

// Save writes src as "<unix>_<sanitised name>" and returns the stored file name
func (s *ImageStore) Save(filename string, src io.Reader) (string, error) {
	clean := utils.SanitizeFilename(filename)
	if clean == "" || !allowedImageExt[strings.ToLower(filepath.Ext(clean))] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, filename)
	}

	stored := strconv.FormatInt(s.now().Unix(), 10) + "_" + clean
	dst, err := os.OpenFile(filepath.Join(s.dir, stored), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close image file: %w", err)
	}
	return stored, nil
}

// Remove deletes a stored image. The shared default image is never removed.
func (s *ImageStore) Remove(name string) {
	if name == "" || name == DefaultImage {
		return
	}
	_ = os.Remove(filepath.Join(s.dir, filepath.Base(name)))
}
