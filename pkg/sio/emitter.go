// Package sio publishes Socket.IO events to gateway servers over a pub/sub
// bus, without holding client connections.
//
// An Emitter owns the publisher. Routing is described by a Selector value
// obtained from the Emitter; the terminal Emit calls build a packet,
// encode it and publish it on the selector's topic:
//
//	e, err := sio.Dial(ctx, sio.Options{Host: "localhost", Port: "6379"})
//	if err != nil {
//		return err
//	}
//	defer e.Close()
//
//	err = e.To("room1").To("room2").Of("chat").EmitJSON(ctx, "msg", map[string]any{"x": 1})
//
// Topics follow "<prefix><token>#<token>#...", where the prefix is
// "socket.io#" or "<key>#emitter#" and each To/In/Of call appends one token
// in call order.
package sio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/sarnezclutch/sioemit/internal/logger"
	"github.com/sarnezclutch/sioemit/pkg/pubsub"
	"github.com/sarnezclutch/sioemit/pkg/sio/parser"
)

type Emitter struct {
	pub    pubsub.Publisher
	codec  parser.Codec
	logger *slog.Logger
	prefix string
	closed atomic.Bool
}

// New returns an Emitter publishing through pub, which it takes ownership of.
func New(pub pubsub.Publisher, opts ...Option) (*Emitter, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: nil publisher", ErrConfig)
	}

	e := &Emitter{
		pub:    pub,
		codec:  parser.Msgpack,
		logger: slog.Default(),
		prefix: topicPrefix(""),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Dial connects to Redis as described by o and returns an Emitter owning
// the connection. Without a Redis URL both Host and Port are required.
func Dial(ctx context.Context, o Options, opts ...Option) (*Emitter, error) {
	cfg, err := o.RedisConfig()
	if err != nil {
		return nil, err
	}

	pub, err := pubsub.ConnectRedis(ctx, cfg)
	if err != nil {
		if errors.Is(err, pubsub.ErrEmptyConnectionURL) || errors.Is(err, pubsub.ErrFailedToParseRedisConnString) {
			return nil, fmt.Errorf("%w: %w", ErrConfig, err)
		}
		return nil, fmt.Errorf("sio: connect redis: %w", err)
	}

	return New(pub, append([]Option{WithKey(o.Key)}, opts...)...)
}

// Prefix is the topic a selector chain starts from.
func (e *Emitter) Prefix() string { return e.prefix }

// Selector starts a new, empty selector chain.
func (e *Emitter) Selector() Selector {
	return Selector{emitter: e, topic: e.prefix}
}

func (e *Emitter) To(room string) Selector { return e.Selector().To(room) }
func (e *Emitter) In(room string) Selector { return e.Selector().In(room) }
func (e *Emitter) Of(nsp string) Selector { return e.Selector().Of(nsp) }
func (e *Emitter) JSON() Selector { return e.Selector().JSON() }
func (e *Emitter) Volatile() Selector { return e.Selector().Volatile() }
func (e *Emitter) Broadcast() Selector { return e.Selector().Broadcast() }

func (e *Emitter) Emit(ctx context.Context, event string, args ...string) error {
	return e.Selector().Emit(ctx, event, args...)
}

func (e *Emitter) EmitJSON(ctx context.Context, event string, value any) error {
	return e.Selector().EmitJSON(ctx, event, value)
}

func (e *Emitter) EmitBinary(ctx context.Context, data []byte) error {
	return e.Selector().EmitBinary(ctx, data)
}

func (e *Emitter) publish(ctx context.Context, s Selector, payload parser.Payload) error {
	if e.closed.Load() {
		return ErrNotConnected
	}

	packet := s.Packet(payload)
	b, err := e.codec.Encode(packet)
	if err != nil {
		e.logger.ErrorContext(ctx, "sio: encode failed",
			logger.Topic(s.topic),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	start := time.Now()
	if err := e.pub.Publish(ctx, s.topic, b); err != nil {
		e.logger.ErrorContext(ctx, "sio: publish failed",
			logger.Topic(s.topic),
			logger.Error(err),
		)
		if errors.Is(err, pubsub.ErrClosed) {
			return fmt.Errorf("%w: %w", ErrNotConnected, err)
		}
		return fmt.Errorf("%w to %q: %w", ErrPublish, s.topic, err)
	}

	e.logger.DebugContext(ctx, "sio: published",
		logger.Topic(s.topic),
		logger.Namespace(packet.Namespace),
		logger.Rooms(packet.Rooms),
		slog.String("flags", packet.Flags.String()),
		logger.Size(len(b)),
		logger.Elapsed(start),
	)
	return nil
}

// Close releases the publisher. It is safe to call more than once; emits
// after Close return ErrNotConnected.
func (e *Emitter) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	return e.pub.Close()
}
