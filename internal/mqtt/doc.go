// Package mqtt mirrors bulb state to an MQTT broker.
//
// The Mirror implements metrics.Sink, so it receives the same records as the
// Prometheus gauges. Records are published as retained JSON documents:
//
//	lifx/d0:73:d5:01:02:03/state
//	{"id":"d0:73:d5:01:02:03","labels":{...},"reachable":true,"on":1,"hue":21845,...}
//
// A departed bulb's retained message is cleared with an empty payload, and
// lifx/exporter/state carries "online"/"offline" (set as the last will).
//
// The mirror is optional: a failed connection is reported to the caller,
// which logs it and carries on without MQTT.
package mqtt
