package metrics

import (
	"strings"

	"github.com/muurk/lifx-exporter/internal/device"
)

// SentinelValue is published for every gauge when a bulb did not answer
const SentinelValue = -1.0

// Labels is the label tuple attached to every bulb series
type Labels struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Group    string `json:"group"`
	Type     string `json:"type"`
}

// Values returns the labels in gauge label order
func (l Labels) Values() []string {
	return []string{l.Name, l.Location, l.Group, l.Type}
}

// Record is the projection of one bulb's state onto the five gauges
type Record struct {
	DeviceID   string  `json:"id"`
	Labels     Labels  `json:"labels"`
	Power      float64 `json:"power"`
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Brightness float64 `json:"brightness"`
	Kelvin     float64 `json:"kelvin"`
}

// OK reports whether the record carries real data rather than the sentinel
func (r Record) OK() bool {
	return r.Power != SentinelValue
}

// LabelsFor builds the label tuple for a device. Label values must be valid
// UTF-8 or the gauges panic.
func LabelsFor(d device.Device) Labels {
	return Labels{
		Name:     validLabel(d.DisplayName()),
		Location: validLabel(d.Location),
		Group:    validLabel(d.Group),
		Type:     validLabel(d.ProductName()),
	}
}

func validLabel(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// Project maps a device and its state onto a Record. A nil state yields
// SentinelValue for all five values. Power is clamped to 1 so any non-zero
// power level reads as "on".
func Project(d device.Device, s *device.State) Record {
	r := Record{
		DeviceID: d.ID,
		Labels:   LabelsFor(d),
	}

	if s == nil {
		r.Power = SentinelValue
		r.Hue = SentinelValue
		r.Saturation = SentinelValue
		r.Brightness = SentinelValue
		r.Kelvin = SentinelValue
		return r
	}

	r.Power = float64(min(s.Power, 1))
	r.Hue = float64(s.Hue)
	r.Saturation = float64(s.Saturation)
	r.Brightness = float64(s.Brightness)
	r.Kelvin = float64(s.Kelvin)
	return r
}
