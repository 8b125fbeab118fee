package document

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"rahmah-exchange/internal/config"
	"rahmah-exchange/internal/domain"
)

// Upload is one file taken from a multipart request.
type Upload struct {
	FileName string
	Size     int64
	MimeType string
	Reader   io.Reader
}

// Store keeps document bytes. Metadata lives in the documents table.
type Store interface {
	Put(ctx context.Context, folder string, upload Upload) (domain.StoredFile, error)
	Remove(ctx context.Context, storedName string) error
}

type minioStore struct {
	client *minio.Client
	cfg    *config.Config
}

func NewMinIOStore(client *minio.Client, cfg *config.Config) Store {
	return &minioStore{client: client, cfg: cfg}
}

func (s *minioStore) Put(ctx context.Context, folder string, upload Upload) (domain.StoredFile, error) {
	storedName := fmt.Sprintf("%s/%s/%s%s", folder, time.Now().UTC().Format("2006/01"), uuid.NewString(), strings.ToLower(path.Ext(upload.FileName)))

	_, err := s.client.PutObject(ctx, s.cfg.MinIOBucket, storedName, upload.Reader, upload.Size, minio.PutObjectOptions{
		ContentType: upload.MimeType,
	})
	if err != nil {
		return domain.StoredFile{}, fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	return domain.StoredFile{
		URL:        s.publicURL(storedName),
		StoredName: storedName,
		FileName:   upload.FileName,
		Size:       upload.Size,
		MimeType:   upload.MimeType,
	}, nil
}

func (s *minioStore) Remove(ctx context.Context, storedName string) error {
	return s.client.RemoveObject(ctx, s.cfg.MinIOBucket, storedName, minio.RemoveObjectOptions{})
}

func (s *minioStore) publicURL(storedName string) string {
	scheme := "http"
	if s.cfg.MinIOPublicUseSSL {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: s.cfg.MinIOPublicEndpoint, Path: "/" + s.cfg.MinIOBucket + "/" + storedName}
	return u.String()
}

var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"image/jpeg":         true,
	"image/png":          true,
	"image/webp":         true,
	"image/heic":         true,

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// Validate checks an upload against the size limit and the accepted types.
func Validate(u Upload, maxBytes int64) error {
	if strings.TrimSpace(u.FileName) == "" {
		return fmt.Errorf("%w: file name is required", domain.ErrValidation)
	}
	if u.Size <= 0 {
		return fmt.Errorf("%w: %s is empty", domain.ErrValidation, u.FileName)
	}
	if maxBytes > 0 && u.Size > maxBytes {
		return fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrValidation, u.FileName, maxBytes)
	}
	mimeType := strings.ToLower(strings.TrimSpace(strings.SplitN(u.MimeType, ";", 2)[0]))
	if !allowedMimeTypes[mimeType] {
		return fmt.Errorf("%w: %s has unsupported type %q", domain.ErrValidation, u.FileName, u.MimeType)
	}
	return nil
}

// PutAll stores every upload, removing the ones already stored when any of
// them fails.
func PutAll(ctx context.Context, store Store, folder string, uploads []Upload) ([]domain.StoredFile, error) {
	stored := make([]domain.StoredFile, 0, len(uploads))
	for _, u := range uploads {
		f, err := store.Put(ctx, folder, u)
		if err != nil {
			RemoveAll(ctx, store, stored)
			return nil, err
		}
		stored = append(stored, f)
	}
	return stored, nil
}

func RemoveAll(ctx context.Context, store Store, files []domain.StoredFile) {
	for _, f := range files {
		_ = store.Remove(ctx, f.StoredName)
	}
}
