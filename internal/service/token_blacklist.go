package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const blacklistKeyPrefix = "jwt:blacklist:"

// TokenBlacklist 记录已注销的令牌 ID 直到其自然过期；优先使用 redis
type TokenBlacklist struct {
	redis   *redis.Client
	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewTokenBlacklist(rdb *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{redis: rdb, revoked: make(map[string]time.Time)}
}

func (b *TokenBlacklist) Revoke(tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if b.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return b.redis.Set(ctx, blacklistKeyPrefix+tokenID, "1", ttl).Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	for id, exp := range b.revoked {
		if now.After(exp) {
			delete(b.revoked, id)
		}
	}
	b.revoked[tokenID] = expiresAt
	return nil
}

// IsRevoked redis 出错时放行，避免误伤所有会话
func (b *TokenBlacklist) IsRevoked(tokenID string) bool {
	if tokenID == "" {
		return false
	}
	if b.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := b.redis.Exists(ctx, blacklistKeyPrefix+tokenID).Result()
		return err == nil && n > 0
	}
	b.mu.RLock()
	exp, ok := b.revoked[tokenID]
	b.mu.RUnlock()
	return ok && time.Now().Before(exp)
}
