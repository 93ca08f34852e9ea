package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/opencontainers/go-digest"

	"github.com/chainhaven/custodian/common/config"
)

// S3Store keeps content in an S3-compatible bucket keyed by digest, so
// identical bytes land on the same object and Put stays idempotent.
type S3Store struct {
	client *s3.Client
	bucket string
	logger Logger
}

// NewS3Store creates an S3-backed content store
func NewS3Store(ctx context.Context, cfg config.StoreConfig, logger Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
	})

	return &S3Store{
		client: client,
		bucket: cfg.S3Bucket,
		logger: logger,
	}, nil
}

// Put stores the bytes under their digest and returns the digest as cid
func (s *S3Store) Put(ctx context.Context, data []byte, name string) (string, error) {
	dgst := digest.FromBytes(data)
	key := objectKey(dgst)

	uploader := manager.NewUploader(s.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata:    map[string]string{"file-name": name},
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	s.logger.Info("stored content in s3", "cid", dgst.String(), "bytes", len(data))
	return dgst.String(), nil
}

// Get fetches the bytes for a cid and re-verifies the digest
func (s *S3Store) Get(ctx context.Context, cid string) ([]byte, error) {
	dgst, err := digest.Parse(cid)
	if err != nil {
		return nil, fmt.Errorf("invalid cid %q: %w", cid, err)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(dgst)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, cid)
		}
		return nil, fmt.Errorf("s3 download failed: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3 object: %w", err)
	}

	// The object key is derived from the digest, so a mismatch means
	// the bucket was modified out of band.
	if got := digest.FromBytes(data); got != dgst {
		return nil, fmt.Errorf("content for %s fails digest verification (got %s)", cid, got)
	}

	return data, nil
}

func objectKey(dgst digest.Digest) string {
	return fmt.Sprintf("%s/%s", dgst.Algorithm(), dgst.Encoded())
}
