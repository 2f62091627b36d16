// Package server exposes the exporter over HTTP.
//
// # Endpoints
//
//	/             index page with links
//	/metrics      Prometheus exposition (promhttp)
//	/healthz      "ok" while the process is serving
//	/api/devices  JSON snapshot of the bulb registry
//	/ws           websocket stream of published records
//
// The /ws stream carries one JSON object per message:
//
//	{"type":"record","timestamp":"...","record":{"id":"d0:73:d5:01:02:03","power":1,...}}
//	{"type":"forget","timestamp":"...","id":"d0:73:d5:01:02:03"}
//
// The Hub implements metrics.Sink and is fed by the poller alongside the
// Prometheus gauges. Clients that fall behind are disconnected.
//
// # Lifecycle
//
// Start binds the address synchronously, so a port already in use is
// reported as *BindError before any background work starts. Shutdown closes
// websocket clients, then drains in-flight requests for up to ShutdownTimeout.
//
// # mDNS
//
// Advertise registers the endpoint as _prometheus-http._tcp so it can be
// found without static scrape configuration.
package server
