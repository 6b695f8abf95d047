package server

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// maxPhotoBytes bounds a single upload (8 MiB).
const maxPhotoBytes = 8 << 20

// photoStore writes uploaded photos under the data directory and hands back
// the URL path they are served from.
type photoStore struct {
	dir string
}

func newPhotoStore(dataDir string) *photoStore {
	return &photoStore{dir: filepath.Join(dataDir, "photos")}
}

func (p *photoStore) save(contentType string, body io.Reader) (string, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("create photo directory: %w", err)
	}

	name := uuid.NewString() + extensionFor(contentType)
	path := filepath.Join(p.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, io.LimitReader(body, maxPhotoBytes)); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write photo: %w", err)
	}
	return "/photos/" + name, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
