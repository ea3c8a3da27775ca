package store

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ibraahimlab/voice-collector/internal/config"
)

// Open constructs the ObjectStore described by cfg.
//
// createMissing controls what happens when the repository does not
// exist yet: the ingestion service creates it on first use, while the
// materialization pass treats a missing repository as fatal. For the
// remote backends existence is checked lazily on the first operation,
// so createMissing only affects the local backend.
func Open(cfg config.StoreConfig, createMissing bool) (ObjectStore, error) {
	switch cfg.Backend {
	case "local":
		if createMissing {
			return NewLocal(cfg.Repository)
		}
		return OpenLocal(cfg.Repository)

	case "s3":
		return NewS3(newS3Client(cfg), cfg.Bucket, cfg.Repository), nil

	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		return NewMinio(client, cfg.Bucket, cfg.Repository), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// newS3Client builds an s3.Client from the static credential in cfg.
func newS3Client(cfg config.StoreConfig) *s3.Client {
	opts := s3.Options{
		Region: cfg.Region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     cfg.AccessKey,
					SecretAccessKey: cfg.SecretKey,
				}, nil
			})),
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	if cfg.Timeout > 0 {
		opts.HTTPClient = &http.Client{Timeout: cfg.GetTimeoutDuration()}
	}
	return s3.New(opts)
}
