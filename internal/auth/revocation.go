package auth

import (
	"context"
	"fmt"
	"time"

	"taskflow-api/internal/cache"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// RevocationStore remembers token IDs revoked by logout until they would
// have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocationStore keeps revoked token IDs in a process-local cache.
type MemoryRevocationStore struct {
	entries cache.Cache[string, struct{}]
}

// NewMemoryRevocationStore wraps c.
func NewMemoryRevocationStore(c cache.Cache[string, struct{}]) *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: c}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.entries.SetUntil(tokenID, struct{}{}, until)
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := s.entries.Get(tokenID)
	return ok, nil
}

// RedisRevocationStore shares revocations between server instances.
// Calls go through a circuit breaker so a dead Redis fails fast.
type RedisRevocationStore struct {
	client  *redis.Client
	prefix  string
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewRedisRevocationStore builds a store on client. log receives breaker
// state changes.
func NewRedisRevocationStore(client *redis.Client, log logrus.FieldLogger) *RedisRevocationStore {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-revocations",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return &RedisRevocationStore{
		client:  client,
		prefix:  "revoked:",
		breaker: breaker,
		now:     time.Now,
	}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.Set(ctx, s.prefix+tokenID, "1", ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.breaker.Execute(func() (interface{}, error) {
		return s.client.Exists(ctx, s.prefix+tokenID).Result()
	})
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n.(int64) > 0, nil
}

var (
	_ RevocationStore = (*MemoryRevocationStore)(nil)
	_ RevocationStore = (*RedisRevocationStore)(nil)
)
