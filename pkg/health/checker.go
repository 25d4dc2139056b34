package health

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const checkTimeout = 2 * time.Second

// Pinger is anything that can be pinged with a context
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker returns a health check function for any Pinger
func PingChecker(p Pinger) func() error {
	return func() error {
		if p == nil {
			return errors.New("not configured")
		}
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		return p.Ping(ctx)
	}
}

// DatabaseChecker returns a health check function for the PostgreSQL pool
func DatabaseChecker(pool *pgxpool.Pool) func() error {
	if pool == nil {
		return PingChecker(nil)
	}
	return PingChecker(pool)
}

// RedisChecker returns a health check function for Redis
func RedisChecker(client redis.UniversalClient) func() error {
	return func() error {
		if client == nil {
			return errors.New("not configured")
		}
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}
