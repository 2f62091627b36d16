// Package metrics projects bulb state onto Prometheus gauges.
//
// Project is a pure function from a device and its (possibly missing) state
// to a Record. Missing state becomes SentinelValue (-1) on every gauge, and
// the raw 16-bit power level is clamped so lifx_bulb_on is 0 or 1.
//
// Records flow into a Sink. The Prometheus sink owns the lifx_bulb_* gauge
// vectors; other sinks (the websocket hub, the MQTT mirror) are combined with
// it through MultiSink.
package metrics
