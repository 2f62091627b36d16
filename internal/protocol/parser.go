package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Message types
const (
	TypeGetService        uint16 = 2
	TypeStateService      uint16 = 3
	TypeGetHostFirmware   uint16 = 14
	TypeStateHostFirmware uint16 = 15
	TypeGetWifiFirmware   uint16 = 18
	TypeStateWifiFirmware uint16 = 19
	TypeGetLabel          uint16 = 23
	TypeStateLabel        uint16 = 25
	TypeGetVersion        uint16 = 32
	TypeStateVersion      uint16 = 33
	TypeAcknowledgement   uint16 = 45
	TypeGetLocation       uint16 = 48
	TypeStateLocation     uint16 = 50
	TypeGetGroup          uint16 = 51
	TypeStateGroup        uint16 = 53
	TypeLightGet          uint16 = 101
	TypeLightState        uint16 = 107
)

// ServiceUDP is the StateService service number for the UDP LAN API.
const ServiceUDP = 1

var typeNames = map[uint16]string{
	TypeGetService:        "GetService",
	TypeStateService:      "StateService",
	TypeGetHostFirmware:   "GetHostFirmware",
	TypeStateHostFirmware: "StateHostFirmware",
	TypeGetWifiFirmware:   "GetWifiFirmware",
	TypeStateWifiFirmware: "StateWifiFirmware",
	TypeGetLabel:          "GetLabel",
	TypeStateLabel:        "StateLabel",
	TypeGetVersion:        "GetVersion",
	TypeStateVersion:      "StateVersion",
	TypeAcknowledgement:   "Acknowledgement",
	TypeGetLocation:       "GetLocation",
	TypeStateLocation:     "StateLocation",
	TypeGetGroup:          "GetGroup",
	TypeStateGroup:        "StateGroup",
	TypeLightGet:          "LightGet",
	TypeLightState:        "LightState",
}

// Decode errors
var (
	ErrShortPacket  = errors.New("packet shorter than header")
	ErrBadSize      = errors.New("invalid size field")
	ErrBadProtocol  = errors.New("unsupported protocol number")
	ErrShortPayload = errors.New("payload too short")
)

// Payload sizes
const (
	stateServiceSize = 5
	firmwareSize     = 20
	labelSize        = 32
	stateVersionSize = 12
	stateCollection  = 16 + labelSize + 8
	lightStateSize   = 52
)

// StateService (type 3) - reply to the discovery broadcast
type StateService struct {
	Service uint8
	Port    uint32
}

// StateFirmware (types 15 and 19) - host or wifi firmware version
type StateFirmware struct {
	Build        uint64
	VersionMinor uint16
	VersionMajor uint16
}

func (f StateFirmware) String() string {
	return fmt.Sprintf("%d.%d", f.VersionMajor, f.VersionMinor)
}

// StateVersion (type 33) - hardware vendor and product codes
type StateVersion struct {
	Vendor  uint32
	Product uint32
}

// StateCollection (types 50 and 53) - location or group membership
type StateCollection struct {
	ID        [16]byte
	Label     string
	UpdatedAt uint64
}

// LightState (type 107) - color and power of a light
type LightState struct {
	Hue        uint16
	Saturation uint16
	Brightness uint16
	Kelvin     uint16
	Power      uint16
	Label      string
}

func (s *LightState) String() string {
	return fmt.Sprintf("LightState{hue=%d, sat=%d, bri=%d, kelvin=%d, power=%d, label=%q}",
		s.Hue, s.Saturation, s.Brightness, s.Kelvin, s.Power, s.Label)
}

func checkLen(payload []byte, want int, name string) error {
	if len(payload) < want {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortPayload, name, want, len(payload))
	}
	return nil
}

// ParseStateService decodes a StateService payload
func ParseStateService(payload []byte) (*StateService, error) {
	if err := checkLen(payload, stateServiceSize, "StateService"); err != nil {
		return nil, err
	}
	return &StateService{
		Service: payload[0],
		Port:    binary.LittleEndian.Uint32(payload[1:5]),
	}, nil
}

// ParseStateFirmware decodes a StateHostFirmware or StateWifiFirmware payload
//
//	[0-7]   build
//	[8-15]  reserved
//	[16-17] version minor
//	[18-19] version major
func ParseStateFirmware(payload []byte) (*StateFirmware, error) {
	if err := checkLen(payload, firmwareSize, "StateFirmware"); err != nil {
		return nil, err
	}
	return &StateFirmware{
		Build:        binary.LittleEndian.Uint64(payload[0:8]),
		VersionMinor: binary.LittleEndian.Uint16(payload[16:18]),
		VersionMajor: binary.LittleEndian.Uint16(payload[18:20]),
	}, nil
}

// ParseStateLabel decodes a StateLabel payload
func ParseStateLabel(payload []byte) (string, error) {
	if err := checkLen(payload, labelSize, "StateLabel"); err != nil {
		return "", err
	}
	return decodeString(payload[:labelSize]), nil
}

// ParseStateVersion decodes a StateVersion payload
func ParseStateVersion(payload []byte) (*StateVersion, error) {
	if err := checkLen(payload, stateVersionSize, "StateVersion"); err != nil {
		return nil, err
	}
	return &StateVersion{
		Vendor:  binary.LittleEndian.Uint32(payload[0:4]),
		Product: binary.LittleEndian.Uint32(payload[4:8]),
	}, nil
}

// ParseStateCollection decodes a StateLocation or StateGroup payload
//
//	[0-15]  collection id
//	[16-47] label
//	[48-55] updated_at (ns since epoch)
func ParseStateCollection(payload []byte) (*StateCollection, error) {
	if err := checkLen(payload, stateCollection, "StateCollection"); err != nil {
		return nil, err
	}
	c := &StateCollection{
		Label:     decodeString(payload[16 : 16+labelSize]),
		UpdatedAt: binary.LittleEndian.Uint64(payload[48:56]),
	}
	copy(c.ID[:], payload[0:16])
	return c, nil
}

// ParseLightState decodes a LightState payload
//
//	[0-7]   hue, saturation, brightness, kelvin (uint16 each)
//	[8-9]   reserved
//	[10-11] power level
//	[12-43] label
//	[44-51] reserved
func ParseLightState(payload []byte) (*LightState, error) {
	if err := checkLen(payload, lightStateSize, "LightState"); err != nil {
		return nil, err
	}
	return &LightState{
		Hue:        binary.LittleEndian.Uint16(payload[0:2]),
		Saturation: binary.LittleEndian.Uint16(payload[2:4]),
		Brightness: binary.LittleEndian.Uint16(payload[4:6]),
		Kelvin:     binary.LittleEndian.Uint16(payload[6:8]),
		Power:      binary.LittleEndian.Uint16(payload[10:12]),
		Label:      decodeString(payload[12 : 12+labelSize]),
	}, nil
}

// decodeString trims a fixed-size NUL padded field. A multi-byte character
// cut off by the field size is replaced with U+FFFD.
func decodeString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.ToValidUTF8(string(b), "\uFFFD")
}
