package sio_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarnezclutch/sioemit/pkg/pubsub"
	"github.com/sarnezclutch/sioemit/pkg/sio"
	"github.com/sarnezclutch/sioemit/pkg/sio/parser"
)

type published struct {
	topic  string
	packet parser.Packet
}

// recorder is a Publisher that keeps every message and can be told to fail.
type recorder struct {
	mu     sync.Mutex
	msgs   []published
	fail   error
	closed bool
}

func (r *recorder) Publish(_ context.Context, topic string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail != nil {
		err := r.fail
		r.fail = nil
		return err
	}

	var p parser.Packet
	if err := parser.Msgpack.Decode(payload, &p); err != nil {
		return err
	}
	r.msgs = append(r.msgs, published{topic: topic, packet: p})
	return nil
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) failNext(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

func (r *recorder) last(t *testing.T) published {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.msgs)
	return r.msgs[len(r.msgs)-1]
}

func (r *recorder) all() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]published(nil), r.msgs...)
}

func newEmitter(t *testing.T, opts ...sio.Option) (*sio.Emitter, *recorder) {
	t.Helper()
	rec := &recorder{}
	e, err := sio.New(rec, opts...)
	require.NoError(t, err)
	return e, rec
}

func TestEmitter_TextDefaults(t *testing.T) {
	t.Parallel()

	e, rec := newEmitter(t)
	require.NoError(t, e.Emit(context.Background(), "update", "a", "b"))

	msg := rec.last(t)
	assert.Equal(t, "socket.io#", msg.topic)
	assert.Equal(t, parser.Event, msg.packet.Type())
	assert.Equal(t, parser.Text{Event: "update", Args: []string{"a", "b"}}, msg.packet.Payload())
	assert.Equal(t, "/", msg.packet.Namespace)
	assert.Empty(t, msg.packet.Rooms)
	assert.Empty(t, msg.packet.Flags.Names())
}

func TestEmitter_RoomsAndNamespace(t *testing.T) {
	t.Parallel()

	e, rec := newEmitter(t)
	err := e.To("room1").To("room2").Of("chat").EmitJSON(context.Background(), "msg", map[string]any{"x": 1})
	require.NoError(t, err)

	msg := rec.last(t)
	assert.Equal(t, "socket.io#room1#room2#chat#", msg.topic)
	assert.Equal(t, parser.Event, msg.packet.Type())
	assert.Equal(t, parser.JSON{Event: "msg", Value: map[string]any{"x": int64(1)}}, msg.packet.Payload())
	assert.Equal(t, "chat", msg.packet.Namespace)
	assert.Equal(t, []string{"room1", "room2"}, msg.packet.Rooms)
	assert.NotContains(t, msg.packet.Flags.Names(), "nsp")
	assert.Empty(t, msg.packet.Flags.Names())
}

func TestEmitter_Flags(t *testing.T) {
	t.Parallel()

	e, rec := newEmitter(t)
	require.NoError(t, e.JSON().Broadcast().Emit(context.Background(), "x"))

	msg := rec.last(t)
	assert.True(t, msg.packet.Flags.IsJSON())
	assert.True(t, msg.packet.Flags.IsBroadcast())
	assert.False(t, msg.packet.Flags.IsVolatile())
	assert.Equal(t, "socket.io#", msg.topic)

	require.NoError(t, e.Volatile().EmitBinary(context.Background(), []byte{1, 2, 3}))
	msg = rec.last(t)
	assert.Equal(t, parser.BinaryEvent, msg.packet.Type())
	assert.Equal(t, parser.Binary{1, 2, 3}, msg.packet.Payload())
	assert.Equal(t, []string{"volatile"}, msg.packet.Flags.Names())
}

func TestEmitter_NoStateCarriedBetweenEmits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, rec := newEmitter(t)

	require.NoError(t, e.To("room1").Of("/admin").Volatile().Emit(ctx, "first"))
	require.NoError(t, e.Emit(ctx, "second"))

	msg := rec.last(t)
	assert.Equal(t, "socket.io#", msg.topic)
	assert.Equal(t, "/", msg.packet.Namespace)
	assert.Empty(t, msg.packet.Rooms)
	assert.Empty(t, msg.packet.Flags.Names())
}

func TestEmitter_PublishFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, rec := newEmitter(t)

	cause := errors.New("connection reset by peer")
	rec.failNext(cause)

	err := e.To("room1").Of("chat").JSON().Emit(ctx, "lost")
	require.Error(t, err)
	assert.ErrorIs(t, err, sio.ErrPublish)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, sio.ErrEncode)
	assert.Contains(t, err.Error(), "socket.io#room1#chat#")

	require.NoError(t, e.Emit(ctx, "after"))
	msg := rec.last(t)
	assert.Equal(t, "socket.io#", msg.topic)
	assert.Equal(t, "/", msg.packet.Namespace)
	assert.Empty(t, msg.packet.Rooms)
	assert.Empty(t, msg.packet.Flags.Names())
	assert.Len(t, rec.all(), 1)
}

func TestEmitter_EncodeFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, rec := newEmitter(t)

	err := e.To("room1").EmitJSON(ctx, "bad", map[string]any{"fn": func() {}})
	require.Error(t, err)
	assert.ErrorIs(t, err, sio.ErrEncode)
	assert.ErrorIs(t, err, parser.ErrUnsupportedValue)
	assert.Empty(t, rec.all())

	require.NoError(t, e.Emit(ctx, "good"))
	assert.Equal(t, "socket.io#", rec.last(t).topic)
}

func TestEmitter_Close(t *testing.T) {
	t.Parallel()

	e, rec := newEmitter(t)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.True(t, rec.closed)

	ctx := context.Background()
	assert.ErrorIs(t, e.Emit(ctx, "x"), sio.ErrNotConnected)
	assert.ErrorIs(t, e.To("r").EmitBinary(ctx, []byte("x")), sio.ErrNotConnected)
	assert.Empty(t, rec.all())
}

func TestEmitter_ClosedTransport(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	bus := pubsub.NewMemory()
	e, err := sio.New(bus, sio.WithLogger(log))
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	err = e.To("r1").Emit(context.Background(), "x")
	assert.ErrorIs(t, err, sio.ErrNotConnected)
	assert.ErrorIs(t, err, pubsub.ErrClosed)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "sio: publish failed")
	assert.Contains(t, buf.String(), "topic=socket.io#r1#")
}

func TestEmitter_WithKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	e, rec := newEmitter(t, sio.WithKey("app"))
	assert.Equal(t, "app#emitter#", e.Prefix())

	require.NoError(t, e.To("r1").Emit(ctx, "a"))
	assert.Equal(t, "app#emitter#r1#", rec.last(t).topic)

	require.NoError(t, e.Emit(ctx, "b"))
	assert.Equal(t, "app#emitter#", rec.last(t).topic)
}

func TestEmitter_MemoryBusEndToEnd(t *testing.T) {
	t.Parallel()

	bus := pubsub.NewMemory()
	e, err := sio.New(bus)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	ch, cancel := bus.Subscribe("socket.io#lobby#/chat#", 1)
	defer cancel()

	require.NoError(t, e.In("lobby").Of("/chat").Emit(context.Background(), "hello", "world"))

	select {
	case msg := <-ch:
		var p parser.Packet
		require.NoError(t, parser.Msgpack.Decode(msg.Payload, &p))
		assert.Equal(t, "/chat", p.Namespace)
		assert.Equal(t, []string{"lobby"}, p.Rooms)
		assert.Equal(t, parser.Text{Event: "hello", Args: []string{"world"}}, p.Payload())
	case <-time.After(time.Second):
		t.Fatal("no message on subscribed topic")
	}
}

func TestEmitter_ConcurrentChainsDoNotLeak(t *testing.T) {
	t.Parallel()

	e, rec := newEmitter(t)

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room := fmt.Sprintf("room%d", i)
			s := e.To(room)
			if i%2 == 0 {
				s = s.Volatile()
			}
			assert.NoError(t, s.Emit(context.Background(), "tick", room))
		}(i)
	}
	wg.Wait()

	msgs := rec.all()
	require.Len(t, msgs, n)
	for _, msg := range msgs {
		text, ok := msg.packet.Payload().(parser.Text)
		require.True(t, ok)
		room := text.Args[0]
		assert.Equal(t, "socket.io#"+room+"#", msg.topic)
		assert.Equal(t, []string{room}, msg.packet.Rooms)

		var i int
		_, err := fmt.Sscanf(room, "room%d", &i)
		require.NoError(t, err)
		assert.Equal(t, i%2 == 0, msg.packet.Flags.IsVolatile(), room)
	}
}

func TestEmitter_LogsPublishes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e, rec := newEmitter(t, sio.WithLogger(log))
	ctx := context.Background()

	require.NoError(t, e.To("r1").Emit(ctx, "a"))
	assert.Contains(t, buf.String(), "sio: published")
	assert.Contains(t, buf.String(), "topic=socket.io#r1#")

	rec.failNext(errors.New("boom"))
	require.Error(t, e.Emit(ctx, "b"))
	assert.Contains(t, buf.String(), "sio: publish failed")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestEmitter_WithCodec(t *testing.T) {
	t.Parallel()

	bus := pubsub.NewMemory()
	e, err := sio.New(bus, sio.WithCodec(parser.JSONCodec))
	require.NoError(t, err)

	ch, cancel := bus.Subscribe("socket.io#", 1)
	defer cancel()

	require.NoError(t, e.Emit(context.Background(), "update", "a"))
	msg := <-ch
	assert.JSONEq(t, `[2,"/",["update","a"],[],{}]`, string(msg.Payload))
}

func TestNew_NilPublisher(t *testing.T) {
	t.Parallel()

	_, err := sio.New(nil)
	assert.ErrorIs(t, err, sio.ErrConfig)
}

func TestDial_ConfigErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tests := []struct {
		name string
		opts sio.Options
		msg  string
	}{
		{name: "nothing", opts: sio.Options{}, msg: "missing redis host"},
		{name: "host only", opts: sio.Options{Host: "localhost"}, msg: "missing redis port"},
		{name: "port only", opts: sio.Options{Port: "6379"}, msg: "missing redis host"},
		{name: "bad url", opts: sio.Options{Redis: pubsub.RedisConfig{ConnectionURL: "http://localhost"}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := sio.Dial(ctx, tt.opts)
			require.Error(t, err)
			assert.Nil(t, e)
			assert.ErrorIs(t, err, sio.ErrConfig)
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestSelector_Unbound(t *testing.T) {
	t.Parallel()

	var s sio.Selector
	assert.ErrorIs(t, s.To("r").Emit(context.Background(), "x"), sio.ErrNotConnected)
}
