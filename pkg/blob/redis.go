package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	fieldData = "data"
	fieldMime = "mime"
)

// RedisStore は Redis のハッシュにメディアを保持します。
// キーには TTL を付け、セッションを越えて残さないようにします。
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore は接続を確認してから RedisStore を作成します。
func NewRedisStore(ctx context.Context, client *redis.Client, keyPrefix string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redisへの接続に失敗しました: %w", err)
	}
	if keyPrefix == "" {
		keyPrefix = "studio:"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix + "blob:", ttl: ttl}, nil
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

// Put はメディアを保存し、新しい ID を返します。
func (s *RedisStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("空のメディアは保存できません")
	}
	id := uuid.NewString()
	key := s.key(id)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fieldData, data, fieldMime, mimeType)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("メディアの保存に失敗しました: %w", err)
	}
	return id, nil
}

// Get は ID に対応するメディアを返します。
func (s *RedisStore) Get(ctx context.Context, id string) (Blob, error) {
	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Blob{}, ErrNotFound
		}
		return Blob{}, fmt.Errorf("メディアの取得に失敗しました: %w", err)
	}
	data, ok := fields[fieldData]
	if !ok {
		return Blob{}, ErrNotFound
	}
	return Blob{Data: []byte(data), MimeType: fields[fieldMime]}, nil
}

// Close は Redis との接続を閉じます。
func (s *RedisStore) Close() error {
	return s.client.Close()
}
