package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/repository"
)

type sessionCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewSessionCache creates the Redis fast-path mirror of the session ledger.
// Entries live at most ttl (or until the ledger expiry, whichever is sooner)
// and are removed on logout before the ledger row is deactivated, so a cache
// hit can never outlive a revocation.
func NewSessionCache(client *redislib.Client, ttl time.Duration) repository.SessionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &sessionCache{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (c *sessionCache) Get(ctx context.Context, token string) (*domain.Session, error) {
	result, err := c.client.Get(ctx, c.key(token)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(result), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionCache) Put(ctx context.Context, session *domain.Session) error {
	if session == nil || session.Token == "" {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	ttl := c.ttl
	if remaining := time.Until(session.ExpiresAt); remaining > 0 && remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil
	}

	return c.client.Set(ctx, c.key(session.Token), payload, ttl).Err()
}

func (c *sessionCache) Remove(ctx context.Context, token string) error {
	return c.client.Del(ctx, c.key(token)).Err()
}

// key hashes the token so raw JWTs never appear as Redis keys in diagnostics.
func (c *sessionCache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.prefix + hex.EncodeToString(sum[:])
}
