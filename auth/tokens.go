package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore registers issued token ids so that sign-out can revoke them
// before they expire.
type TokenStore interface {
	Register(ctx context.Context, username, tokenID string, ttl time.Duration) error
	Registered(ctx context.Context, username, tokenID string) (bool, error)
	Revoke(ctx context.Context, username, tokenID string) error
}

func tokenKey(username, tokenID string) string {
	return fmt.Sprintf("auth:token:%s:%s", username, tokenID)
}

// RedisTokenStore keeps one key per live token, expiring with the token.
type RedisTokenStore struct {
	client *redis.Client
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Register(ctx context.Context, username, tokenID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, tokenKey(username, tokenID), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("register token: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Registered(ctx context.Context, username, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, tokenKey(username, tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check token: %w", err)
	}
	return n > 0, nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, username, tokenID string) error {
	if err := s.client.Del(ctx, tokenKey(username, tokenID)).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// MemoryTokenStore is the in-process TokenStore.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryTokenStore) Register(_ context.Context, username, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenKey(username, tokenID)] = s.now().Add(ttl)
	return nil
}

func (s *MemoryTokenStore) Registered(_ context.Context, username, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tokenKey(username, tokenID)
	exp, ok := s.tokens[key]
	if ok && !s.now().Before(exp) {
		delete(s.tokens, key)
		return false, nil
	}
	return ok, nil
}

func (s *MemoryTokenStore) Revoke(_ context.Context, username, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenKey(username, tokenID))
	return nil
}
