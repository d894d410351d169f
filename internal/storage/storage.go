package storage

import (
	"context"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

// Backend is the uniform capability over the sealed set of storage variants.
// Read distinguishes object absence (not-found kind) from transient backend
// failure (backend kind) so callers can branch into the recompute path.
type Backend interface {
	// Read returns the full object at key.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write stores data at key, overwriting any existing object.
	Write(ctx context.Context, key string, data []byte) error
	// List returns every key under prefix, draining pagination before
	// returning. Variants without listing support return an unsupported
	// error.
	List(ctx context.Context, prefix string) ([]string, error)
	// CheckCredentials verifies the configured credentials are usable.
	CheckCredentials(ctx context.Context) error
}

type Type string

const (
	TypeS3    Type = "s3"
	TypeFTP   Type = "ftp"
	TypeSFTP  Type = "sftp"
	TypeLocal Type = "local"
)

// BackendConfig holds the union of per-variant settings, resolved once at
// configuration-load time.
type BackendConfig struct {
	Type Type `mapstructure:"type"`

	// s3
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`

	// ftp / sftp
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// common path prefix; local root directory
	BasePath string `mapstructure:"base_path"`
	Path     string `mapstructure:"path"`
}

// NewBackend resolves the variant for a configuration entry.
func NewBackend(config *BackendConfig) (Backend, error) {
	switch config.Type {
	case TypeS3:
		return NewS3Storage(config)
	case TypeFTP:
		return NewFTPStorage(config), nil
	case TypeSFTP:
		return NewSFTPStorage(config), nil
	case TypeLocal:
		return NewLocalStorage(config)
	default:
		return nil, apperr.New(apperr.KindInvalidParameter,
			"unknown storage type %q", config.Type)
	}
}
