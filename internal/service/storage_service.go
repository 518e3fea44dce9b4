package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"examforge_backend/internal/config"
	"examforge_backend/internal/util"
	"examforge_backend/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageService persists uploaded syllabus source files. Backed by MinIO in
// deployments and by the local filesystem in development, selected via config.
type StorageService struct {
	cfg    config.StorageConfig
	client *minio.Client
}

func NewStorageService(cfg config.StorageConfig) (*StorageService, error) {
	s := &StorageService{cfg: cfg}

	switch cfg.Type {
	case util.StorageMinio:
		client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
			Secure: cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("init minio client: %w", err)
		}
		s.client = client

		exists, err := client.BucketExists(context.Background(), cfg.MinioBucket)
		if err != nil {
			return nil, fmt.Errorf("check bucket %s: %w", cfg.MinioBucket, err)
		}
		if !exists {
			if err := client.MakeBucket(context.Background(), cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
				return nil, fmt.Errorf("create bucket %s: %w", cfg.MinioBucket, err)
			}
			logger.Log.Info("created storage bucket", zap.String("bucket", cfg.MinioBucket))
		}
	case util.StorageLocal:
		if err := os.MkdirAll(cfg.LocalPath, 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}

	return s, nil
}

// SaveSyllabusFile stores the upload under a per-syllabus prefix and returns
// the URL or path where it can be retrieved.
func (s *StorageService) SaveSyllabusFile(ctx context.Context, syllabusID, fileName string, r io.Reader, size int64, contentType string) (string, error) {
	objectName := fmt.Sprintf("syllabi/%s/%s", syllabusID, sanitizeFileName(fileName))

	if s.cfg.Type == util.StorageMinio {
		_, err := s.client.PutObject(ctx, s.cfg.MinioBucket, objectName, r, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return "", fmt.Errorf("store object %s: %w", objectName, err)
		}
		scheme := "http"
		if s.cfg.MinioUseSSL {
			scheme = "https"
		}
		return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.MinioEndpoint, s.cfg.MinioBucket, objectName), nil
	}

	dst := filepath.Join(s.cfg.LocalPath, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(dst), nil
}

// sanitizeFileName keeps the base name only and replaces characters that are
// awkward in object keys.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer(" ", "_", "#", "", "?", "", "%", "")
	name = replacer.Replace(name)
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}
