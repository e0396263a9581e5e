package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/swifty-companion/student-api/pkg/oauthLocal"
)

// TokenStore persists the access token as a JSON document under a single key.
type TokenStore struct {
	rdb *redis.Client
	key string
}

var _ oauthLocal.Store = (*TokenStore)(nil)

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb, key: oauthLocal.StorageKey}
}

func (s *TokenStore) Load(ctx context.Context) (*oauthLocal.AccessToken, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, oauthLocal.ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token from cache: %w", err)
	}

	var tok oauthLocal.AccessToken
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode cached token: %w", err)
	}
	return &tok, nil
}

// Save writes the token without a TTL; validity is decided by the token
// manager from issue time and lifetime.
func (s *TokenStore) Save(ctx context.Context, tok oauthLocal.AccessToken) error {
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := s.rdb.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to set token in cache: %w", err)
	}
	return nil
}
