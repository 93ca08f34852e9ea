package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/opencontainers/go-digest"

	rediscommon "github.com/chainhaven/custodian/common/redis"
)

const redisKeyPrefix = "cas:"

// RedisStore keeps content in Redis, zstd-compressed at rest. Meant for
// development and tests; values carry no TTL so a deposited blob stays
// addressable for the life of the instance.
type RedisStore struct {
	redis   *rediscommon.Client
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  Logger
}

// NewRedisStore creates a Redis-backed content store
func NewRedisStore(redisClient *rediscommon.Client, logger Logger) *RedisStore {
	// Both are safe for concurrent use
	encoder, _ := zstd.NewWriter(nil)
	decoder, _ := zstd.NewReader(nil)

	return &RedisStore{
		redis:   redisClient,
		encoder: encoder,
		decoder: decoder,
		logger:  logger,
	}
}

// Put stores the bytes under their digest and returns the digest as cid
func (s *RedisStore) Put(ctx context.Context, data []byte, name string) (string, error) {
	dgst := digest.FromBytes(data)
	cid := dgst.String()
	key := redisKeyPrefix + cid

	// Same bytes, same key: skip the write when already present
	exists, err := s.redis.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check content existence: %w", err)
	}
	if exists {
		s.logger.Debug("content already stored", "cid", cid)
		return cid, nil
	}

	compressed := s.encoder.EncodeAll(data, nil)
	if err := s.redis.SetBytes(ctx, key, compressed, 0); err != nil {
		return "", fmt.Errorf("failed to store content: %w", err)
	}

	s.logger.Info("stored content in redis", "cid", cid, "bytes", len(data), "compressed_bytes", len(compressed))
	return cid, nil
}

// Get fetches and decompresses the bytes for a cid
func (s *RedisStore) Get(ctx context.Context, cid string) ([]byte, error) {
	compressed, err := s.redis.GetBytes(ctx, redisKeyPrefix+cid)
	if err != nil {
		if errors.Is(err, rediscommon.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, cid)
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	data, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress content %s: %w", cid, err)
	}

	return data, nil
}
