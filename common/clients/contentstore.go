package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/chainhaven/custodian/common/config"
	rediscommon "github.com/chainhaven/custodian/common/redis"
)

// ErrNotFound is returned when no content exists for a cid
var ErrNotFound = errors.New("content not found")

// ContentStore is the content-addressed store the custody core writes to.
// Identical bytes always converge on the same cid, so Put is idempotent
// and a half-finished create never leaves harmful state behind.
// All implementations must be context-aware and thread-safe.
type ContentStore interface {
	// Put stores the bytes and returns their content identifier.
	// The name is advisory (pinning services record it); it never
	// influences the cid.
	Put(ctx context.Context, data []byte, name string) (string, error)

	// Get returns the bytes for a cid, or ErrNotFound.
	Get(ctx context.Context, cid string) ([]byte, error)
}

// NewContentStore creates a content store based on configuration.
//
// Backends:
//
//	STORE_BACKEND=pinning → remote pinning service + IPFS gateway (default)
//	STORE_BACKEND=s3      → S3-compatible object store, digest-keyed
//	STORE_BACKEND=redis   → Redis, zstd-compressed (dev/test)
func NewContentStore(cfg *config.Config, redisClient *rediscommon.Client, logger Logger) (ContentStore, error) {
	switch cfg.Store.Backend {
	case "pinning":
		logger.Info("using pinning service content store", "endpoint", cfg.Store.PinEndpoint, "gateway", cfg.Store.PinGateway)
		httpClient := NewHTTPClient(&http.Client{Timeout: cfg.Store.Timeout}, logger)
		return NewPinningStore(cfg.Store, httpClient, logger), nil

	case "s3":
		logger.Info("using s3 content store", "bucket", cfg.Store.S3Bucket, "endpoint", cfg.Store.S3Endpoint)
		return NewS3Store(context.Background(), cfg.Store, logger)

	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis content store requires a redis connection")
		}
		logger.Info("using redis content store")
		return NewRedisStore(redisClient, logger), nil

	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}
