// Package storage provides the object storage backends used for remote class
// archives and uploaded analysis reports.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hierarchy-analysis/pkg/config"
	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// Storage is an object store addressed by slash-separated keys.
type Storage interface {
	// Upload writes reader to key, replacing any existing object.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadFile uploads a local file to key.
	UploadFile(ctx context.Context, key string, localPath string) error

	// Download opens the object at key. A missing key yields an error
	// matching apperrors.ErrNotFound.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns every key under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// GetURL returns a location for key that a reader of the report can follow.
	GetURL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
	StorageTypeS3    StorageType = "s3"
)

// NewStorage creates a Storage from configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	case StorageTypeS3:
		return NewS3Storage(&S3Config{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return apperrors.New(apperrors.CodeConfigError, "storage config is nil")
	}

	storageType := StorageType(cfg.Type)
	if storageType == "" {
		storageType = StorageTypeLocal
	}

	var problem string
	switch storageType {
	case StorageTypeLocal:
		if cfg.LocalPath == "" {
			problem = "local storage path is required"
		}
	case StorageTypeCOS:
		switch {
		case cfg.Bucket == "":
			problem = "COS bucket is required"
		case cfg.Region == "":
			problem = "COS region is required"
		case cfg.SecretID == "" || cfg.SecretKey == "":
			problem = "COS credentials are required"
		}
	case StorageTypeS3:
		switch {
		case cfg.Endpoint == "":
			problem = "S3 endpoint is required"
		case cfg.Bucket == "":
			problem = "S3 bucket is required"
		case cfg.SecretID == "" || cfg.SecretKey == "":
			problem = "S3 credentials are required"
		}
	default:
		problem = fmt.Sprintf("unsupported storage type: %s", cfg.Type)
	}

	if problem != "" {
		return apperrors.New(apperrors.CodeConfigError, problem)
	}
	return nil
}

func notFound(key string, err error) error {
	return apperrors.Wrap(apperrors.CodeNotFound, "object not found: "+key, err)
}

// JoinKey joins key segments with single slashes.
func JoinKey(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
