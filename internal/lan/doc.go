// Package lan is the UDP transport for the LIFX LAN protocol.
//
// A Client binds one UDP socket (port 56700 by default) and uses it both to
// broadcast GetService discovery and to send addressed Get requests to bulbs.
//
// # Discovery
//
// Run broadcasts discovery immediately and then every DiscoveryInterval. The
// first StateService reply from a bulb records it as a peer and emits an
// Appeared event; later replies only refresh its address. Any packet from a
// peer counts as a sign of life, and a peer silent for longer than
// ExpireAfter is dropped with a Disappeared event.
//
// # Requests
//
// Request correlates a response by the bulb's target and the request's
// sequence number. It waits until the context ends (or RequestTimeout when
// the context has no deadline) and fails with an error matching ErrTimeout.
// Requests to a bulb that is not a known peer fail with ErrUnknownDevice.
//
// The typed helpers (LightState, Label, Location, Group, Version,
// HostFirmware, WifiFirmware) make Client satisfy both the poller's
// StateQuerier and the discovery bridge's AttributeFetcher.
package lan
