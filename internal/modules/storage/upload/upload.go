// Package upload stores featured images and hands back a public handle.
package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/blogsphere/core/internal/config"
	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/google/uuid"
)

// Backend writes an object and returns its handle.
type Backend interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error)
}

type Options struct {
	MaxBytes       int64
	AllowedFormats []string
}

// Service validates uploads and delegates storage to a Backend.
type Service struct {
	backend  Backend
	maxBytes int64
	allowed  map[string]struct{}
	formats  string
}

func NewService(backend Backend, opts Options) *Service {
	allowed := make(map[string]struct{}, len(opts.AllowedFormats))
	for _, f := range opts.AllowedFormats {
		allowed[strings.ToLower(strings.TrimPrefix(f, "."))] = struct{}{}
	}
	return &Service{
		backend:  backend,
		maxBytes: opts.MaxBytes,
		allowed:  allowed,
		formats:  strings.Join(opts.AllowedFormats, ", "),
	}
}

// Save stores file under a fresh random name that keeps the extension.
func (s *Service) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	ext, err := s.check(file.Filename, file.Size)
	if err != nil {
		return "", err
	}
	f, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	contentType, err := sniff(f, ext)
	if err != nil {
		return "", err
	}
	key := strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext
	handle, err := s.backend.Put(ctx, key, f, file.Size, contentType)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return handle, nil
}

func (s *Service) check(filename string, size int64) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(filename))), ".")
	if _, ok := s.allowed[ext]; !ok {
		return "", apperr.Validation(fmt.Sprintf("Only image files are allowed (%s)", s.formats))
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return "", apperr.Validation(fmt.Sprintf("File too large, maximum is %dMB", s.maxBytes>>20))
	}
	return ext, nil
}

// sniff picks a content type from the extension, falling back to the
// leading bytes, and rewinds f.
func sniff(f io.ReadSeeker, ext string) (string, error) {
	if ct := mime.TypeByExtension("." + ext); ct != "" {
		return ct, nil
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}

// FromConfig builds the configured service. localDir is the directory to
// serve under the public path, empty when uploads go to S3.
func FromConfig(cfg *config.AppConfig) (svc *Service, localDir string, err error) {
	opts := Options{MaxBytes: cfg.MaxUploadBytes(), AllowedFormats: cfg.Uploads.AllowedFormats}
	if cfg.Uploads.Driver == config.UploadS3 {
		return NewService(NewS3(cfg.Uploads.S3), opts), "", nil
	}
	local, err := NewLocal(cfg.UploadDir(), cfg.Uploads.PublicPath)
	if err != nil {
		return nil, "", err
	}
	return NewService(local, opts), local.Dir(), nil
}
