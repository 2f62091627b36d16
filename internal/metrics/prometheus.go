package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names
const (
	MetricOn         = "lifx_bulb_on"
	MetricHue        = "lifx_bulb_hue"
	MetricSaturation = "lifx_bulb_saturation"
	MetricBrightness = "lifx_bulb_brightness"
	MetricKelvin     = "lifx_bulb_kelvin"
	MetricDevices    = "lifx_exporter_devices"
)

var labelNames = []string{"name", "location", "group", "type"}

// Prometheus is the Sink backing the /metrics endpoint.
//
// Each Publish overwrites the series for the record's label tuple. The sink
// remembers the last tuple per device so that a relabelled bulb does not
// leave a stale series behind, and Forget removes a departed bulb's series.
type Prometheus struct {
	on         *prometheus.GaugeVec
	hue        *prometheus.GaugeVec
	saturation *prometheus.GaugeVec
	brightness *prometheus.GaugeVec
	kelvin     *prometheus.GaugeVec
	devices    prometheus.Gauge

	mu   sync.Mutex
	last map[string]Labels
}

// NewPrometheus creates the gauges and registers them with reg
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		on: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricOn,
			Help: "Whether the bulb is on (1), off (0), or unreachable (-1).",
		}, labelNames),
		hue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricHue,
			Help: "Bulb hue (0-65535), -1 when unreachable.",
		}, labelNames),
		saturation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricSaturation,
			Help: "Bulb saturation (0-65535), -1 when unreachable.",
		}, labelNames),
		brightness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricBrightness,
			Help: "Bulb brightness (0-65535), -1 when unreachable.",
		}, labelNames),
		kelvin: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricKelvin,
			Help: "Bulb color temperature in kelvin, -1 when unreachable.",
		}, labelNames),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricDevices,
			Help: "Number of bulbs currently registered.",
		}),
		last: make(map[string]Labels),
	}

	for _, c := range []prometheus.Collector{p.on, p.hue, p.saturation, p.brightness, p.kelvin, p.devices} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) vecs() []*prometheus.GaugeVec {
	return []*prometheus.GaugeVec{p.on, p.hue, p.saturation, p.brightness, p.kelvin}
}

// Publish sets the five gauges for the record's label tuple
func (p *Prometheus) Publish(r Record) {
	values := r.Labels.Values()

	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.last[r.DeviceID]; ok && prev != r.Labels {
		p.deleteLocked(prev)
	}
	p.last[r.DeviceID] = r.Labels

	p.on.WithLabelValues(values...).Set(r.Power)
	p.hue.WithLabelValues(values...).Set(r.Hue)
	p.saturation.WithLabelValues(values...).Set(r.Saturation)
	p.brightness.WithLabelValues(values...).Set(r.Brightness)
	p.kelvin.WithLabelValues(values...).Set(r.Kelvin)
}

// Forget deletes the series last published for the device
func (p *Prometheus) Forget(deviceID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.last[deviceID]; ok {
		p.deleteLocked(prev)
		delete(p.last, deviceID)
	}
}

// SetDeviceCount updates lifx_exporter_devices
func (p *Prometheus) SetDeviceCount(n int) {
	p.devices.Set(float64(n))
}

// deleteLocked removes a label tuple unless another device still publishes it
func (p *Prometheus) deleteLocked(l Labels) {
	shared := 0
	for _, other := range p.last {
		if other == l {
			shared++
		}
	}
	if shared > 1 {
		return
	}
	for _, v := range p.vecs() {
		v.DeleteLabelValues(l.Values()...)
	}
}
