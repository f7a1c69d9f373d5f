package parser

import "strconv"

type PacketTypes int

const (
	Connect PacketTypes = iota
	Disconnect
	Event
	Ack
	Error
	BinaryEvent
	BinaryAck
)

var packetTypeNames = []string{"Connect", "Disconnect", "Event", "Ack", "Error", "BinaryEvent", "BinaryAck"}

func (t PacketTypes) String() string {
	if t < Connect || t > BinaryAck {
		return "PacketTypes(" + strconv.Itoa(int(t)) + ")"
	}
	return packetTypeNames[t]
}
