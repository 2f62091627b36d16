package protocol

import (
	"encoding/binary"
	"sync/atomic"
)

// Message constructors for requests sent to bulbs, plus the matching State
// payload encoders used when answering as a bulb (tests and simulators).

// Global sequence counter (thread-safe). The header only carries 8 bits, so
// the value wraps at 256.
var sequenceCounter uint32

// NextSequence returns the next request sequence number.
func NextSequence() uint8 {
	return uint8(atomic.AddUint32(&sequenceCounter, 1))
}

// BuildGetService builds the discovery broadcast.
func BuildGetService(source uint32) ([]byte, error) {
	return NewRequest(source, 0, NextSequence(), TypeGetService, nil).MarshalBinary()
}

// BuildQuery builds a payload-less Get request addressed to one bulb.
//
// All Get messages used by the exporter (GetLabel, GetVersion, GetLocation,
// GetGroup, GetHostFirmware, GetWifiFirmware, LightGet) have an empty payload.
func BuildQuery(source uint32, target uint64, sequence uint8, msgType uint16) ([]byte, error) {
	return NewRequest(source, target, sequence, msgType, nil).MarshalBinary()
}

// BuildResponse builds a State packet as a bulb would send it: addressed to
// the requester's source and echoing its sequence, with the bulb's MAC as target.
func BuildResponse(source uint32, target uint64, sequence uint8, msgType uint16, payload []byte) ([]byte, error) {
	p := NewRequest(source, target, sequence, msgType, payload)
	p.Tagged = false
	p.ResRequired = false
	return p.MarshalBinary()
}

// EncodeStateService encodes a StateService payload
func EncodeStateService(s StateService) []byte {
	buf := make([]byte, stateServiceSize)
	buf[0] = s.Service
	binary.LittleEndian.PutUint32(buf[1:5], s.Port)
	return buf
}

// EncodeStateFirmware encodes a StateHostFirmware or StateWifiFirmware payload
func EncodeStateFirmware(f StateFirmware) []byte {
	buf := make([]byte, firmwareSize)
	binary.LittleEndian.PutUint64(buf[0:8], f.Build)
	binary.LittleEndian.PutUint16(buf[16:18], f.VersionMinor)
	binary.LittleEndian.PutUint16(buf[18:20], f.VersionMajor)
	return buf
}

// EncodeStateLabel encodes a StateLabel payload. Labels longer than 32 bytes
// are truncated.
func EncodeStateLabel(label string) []byte {
	buf := make([]byte, labelSize)
	copy(buf, label)
	return buf
}

// EncodeStateVersion encodes a StateVersion payload
func EncodeStateVersion(v StateVersion) []byte {
	buf := make([]byte, stateVersionSize)
	binary.LittleEndian.PutUint32(buf[0:4], v.Vendor)
	binary.LittleEndian.PutUint32(buf[4:8], v.Product)
	return buf
}

// EncodeStateCollection encodes a StateLocation or StateGroup payload
func EncodeStateCollection(c StateCollection) []byte {
	buf := make([]byte, stateCollection)
	copy(buf[0:16], c.ID[:])
	copy(buf[16:16+labelSize], c.Label)
	binary.LittleEndian.PutUint64(buf[48:56], c.UpdatedAt)
	return buf
}

// EncodeLightState encodes a LightState payload
func EncodeLightState(s LightState) []byte {
	buf := make([]byte, lightStateSize)
	binary.LittleEndian.PutUint16(buf[0:2], s.Hue)
	binary.LittleEndian.PutUint16(buf[2:4], s.Saturation)
	binary.LittleEndian.PutUint16(buf[4:6], s.Brightness)
	binary.LittleEndian.PutUint16(buf[6:8], s.Kelvin)
	binary.LittleEndian.PutUint16(buf[10:12], s.Power)
	copy(buf[12:12+labelSize], s.Label)
	return buf
}
