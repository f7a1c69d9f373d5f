package parser

import (
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Flags is the set of broadcast modifiers attached to a packet.
type Flags uint8

const (
	FlagJSON Flags = 1 << iota
	FlagVolatile
	FlagBroadcast
)

// flagNames is ordered; encoders walk it so output is deterministic.
var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagJSON, "json"},
	{FlagVolatile, "volatile"},
	{FlagBroadcast, "broadcast"},
}

func (f Flags) Has(flag Flags) bool { return f&flag == flag }

func (f Flags) IsJSON() bool { return f.Has(FlagJSON) }
func (f Flags) IsVolatile() bool { return f.Has(FlagVolatile) }
func (f Flags) IsBroadcast() bool { return f.Has(FlagBroadcast) }

// Names returns the wire names of the set flags.
func (f Flags) Names() []string {
	names := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return names
}

// Map returns the flags as the name => true map subscribers expect.
func (f Flags) Map() map[string]bool {
	m := make(map[string]bool, len(flagNames))
	for _, name := range f.Names() {
		m[name] = true
	}
	return m
}

func (f Flags) String() string {
	return "[" + strings.Join(f.Names(), " ") + "]"
}

// FlagsFromMap is the inverse of Map. Unknown names and false values are ignored.
func FlagsFromMap(m map[string]bool) Flags {
	var f Flags
	for _, fn := range flagNames {
		if m[fn.name] {
			f |= fn.flag
		}
	}
	return f
}

var (
	_ msgpack.CustomEncoder = Flags(0)
	_ msgpack.CustomDecoder = (*Flags)(nil)
)

func (f Flags) EncodeMsgpack(enc *msgpack.Encoder) error {
	names := f.Names()
	if err := enc.EncodeMapLen(len(names)); err != nil {
		return err
	}
	for _, name := range names {
		if err := enc.EncodeString(name); err != nil {
			return err
		}
		if err := enc.EncodeBool(true); err != nil {
			return err
		}
	}
	return nil
}

func (f *Flags) DecodeMsgpack(dec *msgpack.Decoder) error {
	var m map[string]bool
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*f = FlagsFromMap(m)
	return nil
}

func (f Flags) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Map())
}

func (f *Flags) UnmarshalJSON(b []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*f = FlagsFromMap(m)
	return nil
}
