// Package pubsub holds the publish side of the bus the emitter writes to.
//
// Gateways subscribe to the same topics on the same bus; nothing in this
// package acknowledges, persists or retries a message.
package pubsub

import (
	"context"
	"errors"
)

// Publisher publishes opaque payloads to named topics. Implementations must
// be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}

var (
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("publisher is closed")

	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
)
