package pubsub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes how to reach the Redis server gateways listen on.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"1s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// RedisURL builds a connection URL from a host and port pair.
func RedisURL(host, port string) string {
	return "redis://" + net.JoinHostPort(host, port)
}

// Redis publishes with PUBLISH on a go-redis client.
type Redis struct {
	client redis.UniversalClient
	closed atomic.Bool
}

// NewRedis adopts an already configured client. Close closes it.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// ConnectRedis dials Redis and pings it until it answers, retrying with
// exponential backoff. The returned publisher owns the client.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(cfg.ConnectionURL, "redis://") && !strings.HasPrefix(cfg.ConnectionURL, "rediss://") {
		return nil, fmt.Errorf("%w: unsupported scheme in %q", ErrFailedToParseRedisConnString, cfg.ConnectionURL)
	}

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client := redis.NewClient(opts)
	attempts := max(cfg.RetryAttempts, 1)
	interval := cfg.RetryInterval

	for i := 0; i < attempts; i++ {
		if err = client.Ping(ctx).Err(); err == nil {
			return NewRedis(client), nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, errors.Join(ErrRedisNotReady, ctx.Err(), err)
		case <-time.After(interval):
		}
		interval *= 2
	}

	_ = client.Close()
	return nil, errors.Join(ErrRedisNotReady, err)
}

func (r *Redis) Publish(ctx context.Context, topic string, payload []byte) error {
	if r.closed.Load() {
		return ErrClosed
	}
	return r.client.Publish(ctx, topic, payload).Err()
}

// Healthcheck pings the server.
func (r *Redis) Healthcheck(ctx context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

func (r *Redis) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.client.Close()
}
