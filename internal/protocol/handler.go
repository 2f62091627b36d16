package protocol

import "fmt"

// Message is a decoded response payload.
type Message interface {
	Type() uint16
	String() string
}

// ServiceMessage wraps StateService
type ServiceMessage struct{ StateService }

func (m *ServiceMessage) Type() uint16 { return TypeStateService }
func (m *ServiceMessage) String() string {
	return fmt.Sprintf("StateService{service=%d, port=%d}", m.Service, m.Port)
}

// FirmwareMessage wraps StateHostFirmware and StateWifiFirmware
type FirmwareMessage struct {
	StateFirmware
	msgType uint16
}

func (m *FirmwareMessage) Type() uint16 { return m.msgType }
func (m *FirmwareMessage) String() string {
	return fmt.Sprintf("%s{version=%s, build=%d}", TypeName(m.msgType), m.StateFirmware.String(), m.Build)
}

// LabelMessage wraps StateLabel
type LabelMessage struct{ Label string }

func (m *LabelMessage) Type() uint16   { return TypeStateLabel }
func (m *LabelMessage) String() string { return fmt.Sprintf("StateLabel{%q}", m.Label) }

// VersionMessage wraps StateVersion
type VersionMessage struct{ StateVersion }

func (m *VersionMessage) Type() uint16 { return TypeStateVersion }
func (m *VersionMessage) String() string {
	return fmt.Sprintf("StateVersion{vendor=%d, product=%d}", m.Vendor, m.Product)
}

// CollectionMessage wraps StateLocation and StateGroup
type CollectionMessage struct {
	StateCollection
	msgType uint16
}

func (m *CollectionMessage) Type() uint16 { return m.msgType }
func (m *CollectionMessage) String() string {
	return fmt.Sprintf("%s{label=%q, id=%x}", TypeName(m.msgType), m.Label, m.ID)
}

// LightMessage wraps LightState
type LightMessage struct{ LightState }

func (m *LightMessage) Type() uint16   { return TypeLightState }
func (m *LightMessage) String() string { return m.LightState.String() }

// UnknownMessage represents a message type the exporter does not decode
type UnknownMessage struct {
	MsgType uint16
	Payload []byte
}

func (m *UnknownMessage) Type() uint16 { return m.MsgType }
func (m *UnknownMessage) String() string {
	return fmt.Sprintf("UnknownMessage{type=%d, len=%d}", m.MsgType, len(m.Payload))
}

// Decode dispatches on the packet type and decodes its payload.
// Unknown types are returned as *UnknownMessage without error.
func Decode(p *Packet) (Message, error) {
	switch p.Type {
	case TypeStateService:
		s, err := ParseStateService(p.Payload)
		if err != nil {
			return nil, err
		}
		return &ServiceMessage{*s}, nil

	case TypeStateHostFirmware, TypeStateWifiFirmware:
		f, err := ParseStateFirmware(p.Payload)
		if err != nil {
			return nil, err
		}
		return &FirmwareMessage{StateFirmware: *f, msgType: p.Type}, nil

	case TypeStateLabel:
		l, err := ParseStateLabel(p.Payload)
		if err != nil {
			return nil, err
		}
		return &LabelMessage{Label: l}, nil

	case TypeStateVersion:
		v, err := ParseStateVersion(p.Payload)
		if err != nil {
			return nil, err
		}
		return &VersionMessage{*v}, nil

	case TypeStateLocation, TypeStateGroup:
		c, err := ParseStateCollection(p.Payload)
		if err != nil {
			return nil, err
		}
		return &CollectionMessage{StateCollection: *c, msgType: p.Type}, nil

	case TypeLightState:
		s, err := ParseLightState(p.Payload)
		if err != nil {
			return nil, err
		}
		return &LightMessage{*s}, nil

	default:
		return &UnknownMessage{MsgType: p.Type, Payload: p.Payload}, nil
	}
}
