package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type StorageService interface {
	Upload(bucket, filename string, src io.Reader) (string, error)
}

type storageService struct {
	uploadDir     string
	publicBaseURL string
}

// NewStorageService stores uploads on local disk under per-bucket
// directories and serves them from /uploads.
func NewStorageService(uploadDir, publicBaseURL string) StorageService {
	return &storageService{uploadDir: uploadDir, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (s *storageService) Upload(bucket, filename string, src io.Reader) (string, error) {
	bucket = filepath.Base(bucket) // no path traversal via bucket names
	dir := filepath.Join(s.uploadDir, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create bucket directory: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(filename)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return fmt.Sprintf("%s/uploads/%s/%s", s.publicBaseURL, bucket, name), nil
}
