package protocol

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Header constants
const (
	HeaderSize      = 36
	ProtocolNumber  = 1024
	MaxPacketSize   = 1024
	DefaultUDPPort  = 56700
	addressableBit  = 1 << 12
	taggedBit       = 1 << 13
	protocolMask    = 0x0FFF
	flagResRequired = 0x01
	flagAckRequired = 0x02
)

// Header is the decoded 36-byte LIFX packet header.
type Header struct {
	Size        uint16
	Protocol    uint16
	Addressable bool
	Tagged      bool
	Source      uint32
	Target      uint64
	ResRequired bool
	AckRequired bool
	Sequence    uint8
	Type        uint16
}

// Packet is a header plus its raw payload.
type Packet struct {
	Header
	Payload []byte
	Raw     []byte // Original packet bytes for debugging
}

// NewRequest builds a request packet. A zero target means broadcast, in which
// case the tagged bit is set as the protocol requires.
func NewRequest(source uint32, target uint64, sequence uint8, msgType uint16, payload []byte) *Packet {
	return &Packet{
		Header: Header{
			Protocol:    ProtocolNumber,
			Addressable: true,
			Tagged:      target == 0,
			Source:      source,
			Target:      target,
			ResRequired: true,
			Sequence:    sequence,
			Type:        msgType,
		},
		Payload: payload,
	}
}

// MarshalBinary encodes the packet. The Size field is computed from the payload.
func (p *Packet) MarshalBinary() ([]byte, error) {
	total := HeaderSize + len(p.Payload)
	if total > MaxPacketSize {
		return nil, fmt.Errorf("packet too large: %d bytes (max %d)", total, MaxPacketSize)
	}

	buf := make([]byte, total)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(total))

	proto := p.Protocol & protocolMask
	if p.Addressable {
		proto |= addressableBit
	}
	if p.Tagged {
		proto |= taggedBit
	}
	binary.LittleEndian.PutUint16(buf[2:4], proto)
	binary.LittleEndian.PutUint32(buf[4:8], p.Source)
	binary.LittleEndian.PutUint64(buf[8:16], p.Target)

	var flags byte
	if p.ResRequired {
		flags |= flagResRequired
	}
	if p.AckRequired {
		flags |= flagAckRequired
	}
	buf[22] = flags
	buf[23] = p.Sequence
	binary.LittleEndian.PutUint16(buf[32:34], p.Type)

	copy(buf[HeaderSize:], p.Payload)
	return buf, nil
}

// ParsePacket decodes a packet received from the network.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(data))
	}

	size := binary.LittleEndian.Uint16(data[0:2])
	if int(size) < HeaderSize || int(size) > len(data) {
		return nil, fmt.Errorf("%w: size field %d, have %d bytes", ErrBadSize, size, len(data))
	}

	proto := binary.LittleEndian.Uint16(data[2:4])
	if proto&protocolMask != ProtocolNumber {
		return nil, fmt.Errorf("%w: %d", ErrBadProtocol, proto&protocolMask)
	}

	raw := make([]byte, size)
	copy(raw, data[:size])

	return &Packet{
		Header: Header{
			Size:        size,
			Protocol:    proto & protocolMask,
			Addressable: proto&addressableBit != 0,
			Tagged:      proto&taggedBit != 0,
			Source:      binary.LittleEndian.Uint32(raw[4:8]),
			Target:      binary.LittleEndian.Uint64(raw[8:16]),
			ResRequired: raw[22]&flagResRequired != 0,
			AckRequired: raw[22]&flagAckRequired != 0,
			Sequence:    raw[23],
			Type:        binary.LittleEndian.Uint16(raw[32:34]),
		},
		Payload: raw[HeaderSize:],
		Raw:     raw,
	}, nil
}

// TargetFromMAC packs a hardware address into the header target field.
func TargetFromMAC(mac net.HardwareAddr) uint64 {
	var b [8]byte
	copy(b[:], mac)
	return binary.LittleEndian.Uint64(b[:])
}

// TargetToMAC unpacks the header target field into a 6-byte hardware address.
func TargetToMAC(target uint64) net.HardwareAddr {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], target)
	return net.HardwareAddr(b[:6])
}

// TypeName returns a human-readable message type name
func TypeName(msgType uint16) string {
	if name, ok := typeNames[msgType]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", msgType)
}

// String returns a debug representation of the packet
func (p *Packet) String() string {
	return fmt.Sprintf("Packet{type=%s, target=%s, source=0x%08x, seq=%d, len=%d}",
		TypeName(p.Type), TargetToMAC(p.Target), p.Source, p.Sequence, len(p.Payload))
}
