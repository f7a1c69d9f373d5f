package sio

import (
	"context"
	"slices"

	"github.com/sarnezclutch/sioemit/pkg/sio/parser"
)

// Selector accumulates the routing of one emission: rooms, namespace and
// flags, and the topic they address. It is a value; every method returns a
// new Selector and leaves the receiver untouched, so a Selector can be
// shared, branched and used from several goroutines.
//
//	room := e.Of("/chat").To("lobby")
//	_ = room.Emit(ctx, "joined", "alice")
//	_ = room.Volatile().Emit(ctx, "typing", "alice")
type Selector struct {
	emitter *Emitter
	topic   string
	rooms   []string
	flags   parser.Flags
	nsp     string
	hasNsp  bool
}

// To limits the emission to room. A room is recorded once, but every call
// appends a topic token, so To("a").To("a") publishes on "<prefix>a#a#".
func (s Selector) To(room string) Selector {
	if !slices.Contains(s.rooms, room) {
		s.rooms = append(slices.Clip(s.rooms), room)
	}
	s.topic += room + separator
	return s
}

// In is an alias for To.
func (s Selector) In(room string) Selector {
	return s.To(room)
}

// Of selects the namespace. The last call wins for the packet; each call
// appends a topic token.
func (s Selector) Of(nsp string) Selector {
	s.nsp = nsp
	s.hasNsp = true
	s.topic += nsp + separator
	return s
}

func (s Selector) JSON() Selector { return s.with(parser.FlagJSON) }
func (s Selector) Volatile() Selector { return s.with(parser.FlagVolatile) }
func (s Selector) Broadcast() Selector { return s.with(parser.FlagBroadcast) }

func (s Selector) with(flag parser.Flags) Selector {
	s.flags |= flag
	return s
}

// Topic is the pub/sub topic the emission is published on.
func (s Selector) Topic() string { return s.topic }

func (s Selector) Rooms() []string {
	if len(s.rooms) == 0 {
		return []string{}
	}
	return slices.Clone(s.rooms)
}

// Namespace returns the selected namespace, or "/" if Of was never called.
func (s Selector) Namespace() string {
	if !s.hasNsp {
		return parser.DefaultNamespace
	}
	return s.nsp
}

func (s Selector) Flags() parser.Flags { return s.flags }

// Packet builds the packet this selector would publish for payload.
func (s Selector) Packet(payload parser.Payload) *parser.Packet {
	p := parser.NewPacket(payload)
	p.Namespace = s.Namespace()
	p.Rooms = s.Rooms()
	p.Flags = s.flags
	return p
}

// Emit publishes a text event: [event, args...].
func (s Selector) Emit(ctx context.Context, event string, args ...string) error {
	return s.emit(ctx, parser.Text{Event: event, Args: args})
}

// EmitJSON publishes an event carrying one structured value.
func (s Selector) EmitJSON(ctx context.Context, event string, value any) error {
	return s.emit(ctx, parser.JSON{Event: event, Value: value})
}

// EmitBinary publishes raw bytes with no event framing.
func (s Selector) EmitBinary(ctx context.Context, data []byte) error {
	return s.emit(ctx, parser.Binary(data))
}

func (s Selector) emit(ctx context.Context, payload parser.Payload) error {
	if s.emitter == nil {
		return ErrNotConnected
	}
	return s.emitter.publish(ctx, s, payload)
}
