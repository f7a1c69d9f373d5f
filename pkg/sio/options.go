package sio

import (
	"fmt"
	"log/slog"

	"github.com/sarnezclutch/sioemit/pkg/pubsub"
	"github.com/sarnezclutch/sioemit/pkg/sio/parser"
)

// Options is the construction surface read from the environment. Host and
// Port are only consulted when no publisher is supplied and Redis has no URL.
type Options struct {
	Key   string `env:"SIO_EMITTER_KEY"`
	Host  string `env:"REDIS_HOST"`
	Port  string `env:"REDIS_PORT"`
	Redis pubsub.RedisConfig
}

// RedisConfig resolves the Redis connection, building the URL from Host and
// Port when none is set.
func (o Options) RedisConfig() (pubsub.RedisConfig, error) {
	cfg := o.Redis
	if cfg.ConnectionURL != "" {
		return cfg, nil
	}
	if o.Host == "" {
		return cfg, fmt.Errorf("%w: missing redis host", ErrConfig)
	}
	if o.Port == "" {
		return cfg, fmt.Errorf("%w: missing redis port", ErrConfig)
	}
	cfg.ConnectionURL = pubsub.RedisURL(o.Host, o.Port)
	return cfg, nil
}

type Option func(*Emitter)

// WithKey sets the channel key; topics then start with "<key>#emitter#".
func WithKey(key string) Option {
	return func(e *Emitter) {
		e.prefix = topicPrefix(key)
	}
}

// WithCodec replaces the msgpack wire codec.
func WithCodec(codec parser.Codec) Option {
	return func(e *Emitter) {
		if codec != nil {
			e.codec = codec
		}
	}
}

// WithLogger sets the logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Emitter) {
		if logger != nil {
			e.logger = logger
		}
	}
}
