package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/muurk/lifx-exporter/internal/device"
)

func newTestSink(t *testing.T) *Prometheus {
	t.Helper()
	p, err := NewPrometheus(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewPrometheus() error = %v", err)
	}
	return p
}

func TestPrometheus_Publish(t *testing.T) {
	p := newTestSink(t)
	labels := Labels{Name: "Desk", Location: "Home", Group: "Office", Type: "LIFX A19"}

	p.Publish(Record{DeviceID: "a", Labels: labels, Power: 1, Hue: 10, Saturation: 20, Brightness: 30, Kelvin: 3500})

	checks := []struct {
		name string
		vec  *prometheus.GaugeVec
		want float64
	}{
		{MetricOn, p.on, 1},
		{MetricHue, p.hue, 10},
		{MetricSaturation, p.saturation, 20},
		{MetricBrightness, p.brightness, 30},
		{MetricKelvin, p.kelvin, 3500},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.vec.WithLabelValues(labels.Values()...)); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}

	// Overwrite with sentinel
	p.Publish(Record{DeviceID: "a", Labels: labels, Power: -1, Hue: -1, Saturation: -1, Brightness: -1, Kelvin: -1})
	if got := testutil.ToFloat64(p.on.WithLabelValues(labels.Values()...)); got != SentinelValue {
		t.Errorf("%s after timeout = %v, want -1", MetricOn, got)
	}
	if n := testutil.CollectAndCount(p.on); n != 1 {
		t.Errorf("series count = %d, want 1", n)
	}
}

func TestPrometheus_InvalidUTF8Label(t *testing.T) {
	p := newTestSink(t)
	d := device.Device{ID: "d0:73:d5:00:00:01", Label: "Lamp \xe2\x98", Location: "Caf\xc3"}

	p.Publish(Project(d, &device.State{Power: 65535}))

	labels := Labels{Name: "Lamp \uFFFD", Location: "Caf\uFFFD", Type: "unknown"}
	if got := testutil.ToFloat64(p.on.WithLabelValues(labels.Values()...)); got != 1 {
		t.Errorf("%s = %v, want 1", MetricOn, got)
	}
	if n := testutil.CollectAndCount(p.on); n != 1 {
		t.Errorf("series count = %d, want 1", n)
	}
}

func TestPrometheus_RelabelDropsOldSeries(t *testing.T) {
	p := newTestSink(t)

	before := Labels{Name: "d0:73:d5:00:00:01", Type: "unknown"}
	after := Labels{Name: "Kitchen", Type: "LIFX A19"}

	p.Publish(Record{DeviceID: "d0:73:d5:00:00:01", Labels: before, Power: 1})
	p.Publish(Record{DeviceID: "d0:73:d5:00:00:01", Labels: after, Power: 0})

	for _, v := range p.vecs() {
		if n := testutil.CollectAndCount(v); n != 1 {
			t.Errorf("series count = %d, want 1", n)
		}
	}
	if got := testutil.ToFloat64(p.on.WithLabelValues(after.Values()...)); got != 0 {
		t.Errorf("new series = %v, want 0", got)
	}
}

func TestPrometheus_SharedTupleKept(t *testing.T) {
	p := newTestSink(t)
	shared := Labels{Name: "Lamp", Type: "LIFX A19"}

	p.Publish(Record{DeviceID: "a", Labels: shared, Power: 1})
	p.Publish(Record{DeviceID: "b", Labels: shared, Power: 1})
	p.Forget("a")

	if n := testutil.CollectAndCount(p.on); n != 1 {
		t.Errorf("series count after forgetting one of two = %d, want 1", n)
	}

	p.Forget("b")
	if n := testutil.CollectAndCount(p.on); n != 0 {
		t.Errorf("series count after forgetting both = %d, want 0", n)
	}
}

func TestPrometheus_Forget(t *testing.T) {
	p := newTestSink(t)
	p.Publish(Record{DeviceID: "a", Labels: Labels{Name: "A"}, Power: 1})
	p.Publish(Record{DeviceID: "b", Labels: Labels{Name: "B"}, Power: 1})

	p.Forget("a")
	p.Forget("missing")

	if n := testutil.CollectAndCount(p.kelvin); n != 1 {
		t.Errorf("series count = %d, want 1", n)
	}
}

func TestPrometheus_DeviceCount(t *testing.T) {
	p := newTestSink(t)
	p.SetDeviceCount(3)
	if got := testutil.ToFloat64(p.devices); got != 3 {
		t.Errorf("%s = %v, want 3", MetricDevices, got)
	}
}

func TestNewPrometheus_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheus(reg); err != nil {
		t.Fatalf("first NewPrometheus() error = %v", err)
	}
	if _, err := NewPrometheus(reg); err == nil {
		t.Error("second NewPrometheus() on the same registry should fail")
	}
}

type recordingSink struct {
	published []Record
	forgotten []string
}

func (s *recordingSink) Publish(r Record) { s.published = append(s.published, r) }
func (s *recordingSink) Forget(id string) { s.forgotten = append(s.forgotten, id) }

func TestMultiSink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	m := MultiSink{a, Nop{}, b}

	m.Publish(Record{DeviceID: "x"})
	m.Forget("x")

	for i, s := range []*recordingSink{a, b} {
		if len(s.published) != 1 || len(s.forgotten) != 1 {
			t.Errorf("sink %d got %d publishes and %d forgets, want 1 and 1", i, len(s.published), len(s.forgotten))
		}
	}
}
