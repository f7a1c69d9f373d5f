package sio

import "errors"

// Errors returned by the emitter. Causes are wrapped, so use errors.Is to
// classify a failure and errors.Unwrap (or errors.As) to reach the cause.
var (
	// ErrConfig is returned at construction when no publisher can be built.
	ErrConfig = errors.New("sio: invalid emitter configuration")

	// ErrEncode is returned when a packet cannot be serialized.
	ErrEncode = errors.New("sio: failed to encode packet")

	// ErrPublish is returned when the transport rejects a publish.
	ErrPublish = errors.New("sio: failed to publish packet")

	// ErrNotConnected is returned by emits after Close.
	ErrNotConnected = errors.New("sio: emitter is not connected")
)
