package parser

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrUnsupportedValue is returned when a JSON payload value cannot be
// represented on the wire.
var ErrUnsupportedValue = errors.New("unsupported payload value")

// Payload is the variant part of a packet. It is implemented by Text, JSON
// and Binary only.
type Payload interface {
	packetType() PacketTypes
	// wireData returns the value stored in the packet's data slot.
	wireData() (any, error)
}

// Text is an event with string arguments. On the wire: [event, args...].
type Text struct {
	Event string
	Args  []string
}

func (Text) packetType() PacketTypes { return Event }

func (p Text) wireData() (any, error) {
	data := make([]string, 0, len(p.Args)+1)
	data = append(data, p.Event)
	return append(data, p.Args...), nil
}

// JSON is an event carrying one structured value. On the wire: [event, value].
// Value may be any Go value json-iterator can marshal; it is normalized to
// maps, slices, strings, numbers, bools and nil before encoding.
type JSON struct {
	Event string
	Value any
}

func (JSON) packetType() PacketTypes { return Event }

func (p JSON) wireData() (any, error) {
	v, err := normalize(p.Value)
	if err != nil {
		return nil, err
	}
	return []any{p.Event, v}, nil
}

// Binary is opaque application data with no event framing.
type Binary []byte

func (Binary) packetType() PacketTypes { return BinaryEvent }

func (p Binary) wireData() (any, error) {
	if p == nil {
		return []byte{}, nil
	}
	return []byte(p), nil
}

// normalize round-trips v through JSON so the encoder only ever sees
// JSON-shaped values. Integral numbers stay integers.
func normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}
	var out any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}
	return fixNumbers(out), nil
}

func fixNumbers(v any) any {
	switch t := v.(type) {
	case stdjson.Number:
		return parseNumber(string(t))
	case jsoniter.Number:
		return parseNumber(string(t))
	case map[string]any:
		for k, val := range t {
			t[k] = fixNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = fixNumbers(val)
		}
		return t
	default:
		return v
	}
}

func parseNumber(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
