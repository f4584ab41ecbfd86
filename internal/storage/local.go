package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader writes objects under a base directory, mirroring the object
// key as a relative path. It is the fallback when no bucket is configured.
type LocalUploader struct {
	baseDir string
}

func NewLocalUploader(baseDir string) (*LocalUploader, error) {
	if baseDir == "" {
		baseDir = "./storage"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	return &LocalUploader{baseDir: baseDir}, nil
}

func (u *LocalUploader) Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error) {
	// Object keys are generated internally, but uploads must never escape
	// the base directory.
	if strings.Contains(objectName, "..") {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}

	path := filepath.Join(u.baseDir, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
