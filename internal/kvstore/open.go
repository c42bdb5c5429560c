package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

type Options struct {
	Driver string

	DataDir string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration
}

// OpenBackend builds the backend selected by opts.Driver.
func OpenBackend(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemBackend(), nil
	case DriverFile:
		return NewFileBackend(opts.DataDir)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DatabaseURL)
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisBackend(client, opts.RedisTTL), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
