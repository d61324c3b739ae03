// Package storage keeps uploaded images on local disk, served back under
// /uploads/.
package storage

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore writes data-URL encoded images into a directory and returns
// the public path they are served from.
type ImageStore struct {
	dir string
}

// NewImageStore ensures dir exists and returns a store over it.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Dir returns the directory images are written to.
func (s *ImageStore) Dir() string { return s.dir }

var extByMIME = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// SaveDataURL decodes a "data:image/...;base64," payload to disk and
// returns the URL path it will be served from. Inputs that are not data
// URLs (already-stored paths) are returned unchanged.
func (s *ImageStore) SaveDataURL(dataURL string) (string, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return dataURL, nil
	}

	meta, encoded, ok := strings.Cut(dataURL, ",")
	if !ok {
		return "", fmt.Errorf("malformed data URL")
	}

	mime := strings.TrimPrefix(meta, "data:")
	mime = strings.TrimSuffix(mime, ";base64")
	ext, ok := extByMIME[mime]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", mime)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return "/uploads/" + name, nil
}
