package protocol

import (
	"errors"
	"testing"
)

func TestParseLightState(t *testing.T) {
	payload := []byte{
		0x34, 0x12, // hue 0x1234
		0xFF, 0xFF, // saturation 65535
		0x00, 0x80, // brightness 32768
		0xAC, 0x0D, // kelvin 3500
		0x00, 0x00, // reserved
		0xFF, 0xFF, // power 65535
	}
	label := make([]byte, 32)
	copy(label, "Desk")
	payload = append(payload, label...)
	payload = append(payload, make([]byte, 8)...)

	s, err := ParseLightState(payload)
	if err != nil {
		t.Fatalf("ParseLightState() error = %v", err)
	}
	if s.Hue != 0x1234 {
		t.Errorf("Hue = %d, want %d", s.Hue, 0x1234)
	}
	if s.Saturation != 65535 {
		t.Errorf("Saturation = %d, want 65535", s.Saturation)
	}
	if s.Brightness != 32768 {
		t.Errorf("Brightness = %d, want 32768", s.Brightness)
	}
	if s.Kelvin != 3500 {
		t.Errorf("Kelvin = %d, want 3500", s.Kelvin)
	}
	if s.Power != 65535 {
		t.Errorf("Power = %d, want 65535", s.Power)
	}
	if s.Label != "Desk" {
		t.Errorf("Label = %q, want Desk", s.Label)
	}
}

func TestParse_ShortPayloads(t *testing.T) {
	tests := []struct {
		name  string
		parse func([]byte) error
		size  int
	}{
		{"StateService", func(b []byte) error { _, err := ParseStateService(b); return err }, stateServiceSize},
		{"StateFirmware", func(b []byte) error { _, err := ParseStateFirmware(b); return err }, firmwareSize},
		{"StateLabel", func(b []byte) error { _, err := ParseStateLabel(b); return err }, labelSize},
		{"StateVersion", func(b []byte) error { _, err := ParseStateVersion(b); return err }, stateVersionSize},
		{"StateCollection", func(b []byte) error { _, err := ParseStateCollection(b); return err }, stateCollection},
		{"LightState", func(b []byte) error { _, err := ParseLightState(b); return err }, lightStateSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.parse(make([]byte, tt.size-1)); !errors.Is(err, ErrShortPayload) {
				t.Errorf("error = %v, want ErrShortPayload", err)
			}
			if err := tt.parse(make([]byte, tt.size)); err != nil {
				t.Errorf("exact size error = %v", err)
			}
		})
	}
}

func TestParseStateFirmware_Offsets(t *testing.T) {
	payload := make([]byte, firmwareSize)
	payload[0] = 0x01  // build low byte
	payload[16] = 0x50 // minor 80
	payload[18] = 0x03 // major 3

	f, err := ParseStateFirmware(payload)
	if err != nil {
		t.Fatalf("ParseStateFirmware() error = %v", err)
	}
	if f.Build != 1 || f.VersionMinor != 80 || f.VersionMajor != 3 {
		t.Errorf("got %+v, want build=1 minor=80 major=3", f)
	}
	if f.String() != "3.80" {
		t.Errorf("String() = %s, want 3.80", f.String())
	}
}

func TestParseStateCollection_FullLabel(t *testing.T) {
	label := "abcdefghijklmnopqrstuvwxyz012345" // exactly 32 bytes, no NUL
	c := StateCollection{Label: label, UpdatedAt: 99}
	c.ID[0] = 0xAA

	got, err := ParseStateCollection(EncodeStateCollection(c))
	if err != nil {
		t.Fatalf("ParseStateCollection() error = %v", err)
	}
	if got.Label != label {
		t.Errorf("Label = %q, want %q", got.Label, label)
	}
	if got.ID[0] != 0xAA || got.UpdatedAt != 99 {
		t.Errorf("got %+v", got)
	}
}

func TestParseLabel_TruncatedRune(t *testing.T) {
	// 33 bytes of text: the field cut leaves the last sun symbol incomplete
	label := "Living room lamp! \u2600\u2600\u2600\u2600\u2600"
	want := "Living room lamp! \u2600\u2600\u2600\u2600\uFFFD"

	got, err := ParseStateLabel(EncodeStateLabel(label))
	if err != nil {
		t.Fatalf("ParseStateLabel() error = %v", err)
	}
	if got != want {
		t.Errorf("ParseStateLabel() = %q, want %q", got, want)
	}

	c, err := ParseStateCollection(EncodeStateCollection(StateCollection{Label: label}))
	if err != nil {
		t.Fatalf("ParseStateCollection() error = %v", err)
	}
	if c.Label != want {
		t.Errorf("collection Label = %q, want %q", c.Label, want)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		msgType  uint16
		payload  []byte
		wantType uint16
		check    func(t *testing.T, m Message)
	}{
		{
			name:     "service",
			msgType:  TypeStateService,
			payload:  EncodeStateService(StateService{Service: ServiceUDP, Port: DefaultUDPPort}),
			wantType: TypeStateService,
			check: func(t *testing.T, m Message) {
				if m.(*ServiceMessage).Port != DefaultUDPPort {
					t.Errorf("Port = %d", m.(*ServiceMessage).Port)
				}
			},
		},
		{
			name:     "wifi firmware keeps type",
			msgType:  TypeStateWifiFirmware,
			payload:  EncodeStateFirmware(StateFirmware{VersionMajor: 1, VersionMinor: 2}),
			wantType: TypeStateWifiFirmware,
		},
		{
			name:     "group keeps type",
			msgType:  TypeStateGroup,
			payload:  EncodeStateCollection(StateCollection{Label: "Upstairs"}),
			wantType: TypeStateGroup,
			check: func(t *testing.T, m Message) {
				if m.(*CollectionMessage).Label != "Upstairs" {
					t.Errorf("Label = %q", m.(*CollectionMessage).Label)
				}
			},
		},
		{
			name:     "version",
			msgType:  TypeStateVersion,
			payload:  EncodeStateVersion(StateVersion{Vendor: 1, Product: 27}),
			wantType: TypeStateVersion,
		},
		{
			name:     "light",
			msgType:  TypeLightState,
			payload:  EncodeLightState(LightState{Power: 65535}),
			wantType: TypeLightState,
		},
		{
			name:     "unknown type",
			msgType:  TypeAcknowledgement,
			wantType: TypeAcknowledgement,
			check: func(t *testing.T, m Message) {
				if _, ok := m.(*UnknownMessage); !ok {
					t.Errorf("got %T, want *UnknownMessage", m)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Decode(&Packet{Header: Header{Type: tt.msgType}, Payload: tt.payload})
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if m.Type() != tt.wantType {
				t.Errorf("Type() = %d, want %d", m.Type(), tt.wantType)
			}
			if m.String() == "" {
				t.Error("String() should not be empty")
			}
			if tt.check != nil {
				tt.check(t, m)
			}
		})
	}
}

func TestDecode_ShortPayload(t *testing.T) {
	_, err := Decode(&Packet{Header: Header{Type: TypeLightState}, Payload: []byte{1, 2}})
	if !errors.Is(err, ErrShortPayload) {
		t.Errorf("error = %v, want ErrShortPayload", err)
	}
}
