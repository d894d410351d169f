package storage

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/imagehub/imagehub_server/internal/apperr"
)

// S3Storage is the object-store variant. Calls are connectionless; the minio
// client manages its own transport.
type S3Storage struct {
	client   *minio.Client
	bucket   string
	basePath string
}

func NewS3Storage(config *BackendConfig) (*S3Storage, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBackend, err, "s3 client init failed")
	}

	return &S3Storage{
		client:   client,
		bucket:   config.Bucket,
		basePath: strings.Trim(config.BasePath, "/"),
	}, nil
}

func (s *S3Storage) key(key string) string {
	if s.basePath == "" {
		return key
	}
	return s.basePath + "/" + strings.TrimPrefix(key, "/")
}

func (s *S3Storage) Read(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyS3(err, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyS3(err, key)
	}
	return data, nil
}

func (s *S3Storage) Write(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(key),
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return apperr.Wrap(apperr.KindBackend, err, "s3 write %q failed", key)
	}
	return nil
}

// List drains the paginated object listing into a complete snapshot before
// returning.
func (s *S3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    s.key(strings.TrimPrefix(prefix, "/")),
		Recursive: true,
	}

	var keys []string
	for object := range s.client.ListObjects(ctx, s.bucket, opts) {
		if object.Err != nil {
			return nil, apperr.Wrap(apperr.KindBackend, object.Err, "s3 list %q failed", prefix)
		}
		key := object.Key
		if s.basePath != "" {
			key = strings.TrimPrefix(key, s.basePath+"/")
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *S3Storage) CheckCredentials(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return apperr.Wrap(apperr.KindAuth, err, "s3 credential check failed")
	}
	if !exists {
		return apperr.New(apperr.KindAuth, "s3 bucket %q not accessible", s.bucket)
	}
	return nil
}

func classifyS3(err error, key string) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return apperr.Wrap(apperr.KindNotFound, err, "object %q not found", key)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return apperr.Wrap(apperr.KindAuth, err, "s3 access denied for %q", key)
	default:
		return apperr.Wrap(apperr.KindBackend, err, "s3 read %q failed", key)
	}
}
