package protocol

import (
	"testing"
)

func TestBuildGetService(t *testing.T) {
	buf, err := BuildGetService(0x1234)
	if err != nil {
		t.Fatalf("BuildGetService() error = %v", err)
	}

	p, err := ParsePacket(buf)
	if err != nil {
		t.Fatalf("ParsePacket() error = %v", err)
	}
	if !p.Tagged {
		t.Error("discovery broadcast must be tagged")
	}
	if p.Target != 0 {
		t.Errorf("Target = %d, want 0", p.Target)
	}
	if p.Type != TypeGetService {
		t.Errorf("Type = %d, want %d", p.Type, TypeGetService)
	}
	if len(p.Payload) != 0 {
		t.Errorf("payload length = %d, want 0", len(p.Payload))
	}
}

func TestBuildQuery(t *testing.T) {
	queries := []uint16{
		TypeGetLabel, TypeGetVersion, TypeGetLocation, TypeGetGroup,
		TypeGetHostFirmware, TypeGetWifiFirmware, TypeLightGet,
	}

	for _, q := range queries {
		t.Run(TypeName(q), func(t *testing.T) {
			buf, err := BuildQuery(5, 0xAABB, 33, q)
			if err != nil {
				t.Fatalf("BuildQuery() error = %v", err)
			}
			p, err := ParsePacket(buf)
			if err != nil {
				t.Fatalf("ParsePacket() error = %v", err)
			}
			if p.Type != q || p.Target != 0xAABB || p.Sequence != 33 || p.Source != 5 {
				t.Errorf("header mismatch: %s", p)
			}
			if p.Tagged {
				t.Error("addressed query must not be tagged")
			}
			if !p.ResRequired {
				t.Error("query must request a response")
			}
		})
	}
}

func TestBuildResponse(t *testing.T) {
	buf, err := BuildResponse(7, 0xCAFE, 3, TypeStateVersion, EncodeStateVersion(StateVersion{Vendor: 1, Product: 27}))
	if err != nil {
		t.Fatalf("BuildResponse() error = %v", err)
	}
	p, err := ParsePacket(buf)
	if err != nil {
		t.Fatalf("ParsePacket() error = %v", err)
	}
	if p.ResRequired {
		t.Error("response must not request a response")
	}
	v, err := ParseStateVersion(p.Payload)
	if err != nil {
		t.Fatalf("ParseStateVersion() error = %v", err)
	}
	if v.Vendor != 1 || v.Product != 27 {
		t.Errorf("got %+v, want vendor=1 product=27", v)
	}
}

func TestEncodeStateLabel_Truncates(t *testing.T) {
	long := "this label is definitely longer than thirty-two bytes"
	got, err := ParseStateLabel(EncodeStateLabel(long))
	if err != nil {
		t.Fatalf("ParseStateLabel() error = %v", err)
	}
	if got != long[:32] {
		t.Errorf("label = %q, want %q", got, long[:32])
	}
}

func TestNextSequence(t *testing.T) {
	a := NextSequence()
	b := NextSequence()
	if b != a+1 {
		t.Errorf("NextSequence() = %d then %d, want consecutive", a, b)
	}
}

func BenchmarkBuildQuery(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = BuildQuery(1, 1, uint8(i), TypeLightGet)
	}
}
