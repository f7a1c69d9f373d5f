package parser

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// DefaultNamespace is used when no namespace was selected.
const DefaultNamespace = "/"

// envelopeLen is the number of positional fields on the wire:
// [type, nsp, data, rooms, flags].
const envelopeLen = 5

// Packet is one outgoing emission. The type and payload are fixed by
// NewPacket; only the envelope fields are filled in afterwards.
type Packet struct {
	typ     PacketTypes
	payload Payload

	Namespace string
	Rooms     []string
	Flags     Flags
}

func NewPacket(payload Payload) *Packet {
	return &Packet{
		typ:       payload.packetType(),
		payload:   payload,
		Namespace: DefaultNamespace,
	}
}

func (p *Packet) Type() PacketTypes { return p.typ }

func (p *Packet) Payload() Payload { return p.payload }

func (p *Packet) rooms() []string {
	if p.Rooms == nil {
		return []string{}
	}
	return p.Rooms
}

func (p *Packet) fields() ([]any, error) {
	if p.payload == nil {
		return nil, fmt.Errorf("%w: packet has no payload", ErrUnsupportedValue)
	}
	data, err := p.payload.wireData()
	if err != nil {
		return nil, err
	}
	return []any{int(p.typ), p.Namespace, data, p.rooms(), p.Flags}, nil
}

var (
	_ msgpack.CustomEncoder = (*Packet)(nil)
	_ msgpack.CustomDecoder = (*Packet)(nil)
)

func (p *Packet) EncodeMsgpack(enc *msgpack.Encoder) error {
	fields, err := p.fields()
	if err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(fields)); err != nil {
		return err
	}
	for _, f := range fields {
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packet) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return err
	}
	if n != envelopeLen {
		return fmt.Errorf("invalid packet: expected %d fields, got %d", envelopeLen, n)
	}

	typ, err := dec.DecodeInt()
	if err != nil {
		return err
	}
	nsp, err := dec.DecodeString()
	if err != nil {
		return err
	}

	var payload Payload
	switch PacketTypes(typ) {
	case BinaryEvent:
		b, err := dec.DecodeBytes()
		if err != nil {
			return err
		}
		payload = Binary(b)
	case Event:
		data, err := dec.DecodeSlice()
		if err != nil {
			return err
		}
		if payload, err = eventPayload(data); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid packet: unexpected type %s", PacketTypes(typ))
	}

	var rooms []string
	if err := dec.Decode(&rooms); err != nil {
		return err
	}
	var flags Flags
	if err := dec.Decode(&flags); err != nil {
		return err
	}

	*p = Packet{
		typ:       PacketTypes(typ),
		payload:   payload,
		Namespace: nsp,
		Rooms:     rooms,
		Flags:     flags,
	}
	return nil
}

func (p *Packet) MarshalJSON() ([]byte, error) {
	fields, err := p.fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (p *Packet) UnmarshalJSON(b []byte) error {
	var raw []stdjson.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != envelopeLen {
		return fmt.Errorf("invalid packet: expected %d fields, got %d", envelopeLen, len(raw))
	}

	var (
		typ   PacketTypes
		out   Packet
		flags Flags
	)
	if err := json.Unmarshal(raw[0], &typ); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &out.Namespace); err != nil {
		return err
	}
	switch typ {
	case BinaryEvent:
		var b []byte
		if err := json.Unmarshal(raw[2], &b); err != nil {
			return err
		}
		out.payload = Binary(b)
	case Event:
		var data []any
		dec := json.NewDecoder(bytes.NewReader(raw[2]))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return err
		}
		payload, err := eventPayload(fixNumbers(data).([]any))
		if err != nil {
			return err
		}
		out.payload = payload
	default:
		return fmt.Errorf("invalid packet: unexpected type %s", typ)
	}
	if err := json.Unmarshal(raw[3], &out.Rooms); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[4], &flags); err != nil {
		return err
	}
	out.typ = typ
	out.Flags = flags
	*p = out
	return nil
}

// eventPayload rebuilds an Event payload from its data slot. Data made of
// strings only decodes as Text; anything else must be [event, value].
func eventPayload(data []any) (Payload, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("invalid packet: empty event data")
	}
	event, ok := data[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid packet: event name is %T", data[0])
	}

	args := make([]string, 0, len(data)-1)
	for _, d := range data[1:] {
		s, ok := d.(string)
		if !ok {
			break
		}
		args = append(args, s)
	}
	if len(args) == len(data)-1 {
		return Text{Event: event, Args: args}, nil
	}
	if len(data) != 2 {
		return nil, fmt.Errorf("invalid packet: json event carries %d values", len(data)-1)
	}
	return JSON{Event: event, Value: data[1]}, nil
}
