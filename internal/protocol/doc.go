// Package protocol implements the subset of the LIFX LAN binary protocol used
// by the exporter.
//
// This package handles encoding and decoding of the 36-byte LIFX header and
// the payloads of the discovery, attribute and light-state messages. It has
// no I/O; the UDP transport lives in package lan.
//
// # Header Layout
//
// Every packet starts with a 36-byte little-endian header:
//
//	[0-1]   size           Total packet size including header
//	[2-3]   protocol       bits 0-11 protocol (1024), bit 12 addressable,
//	                       bit 13 tagged, bits 14-15 origin (0)
//	[4-7]   source         Client identifier, echoed by the bulb
//	[8-15]  target         Bulb MAC in the first 6 bytes, zero for broadcast
//	[16-21] reserved
//	[22]    flags          bit 0 res_required, bit 1 ack_required
//	[23]    sequence       Per-request counter, echoed by the bulb
//	[24-31] reserved
//	[32-33] type           Message type
//	[34-35] reserved
//
// # Message Types
//
// Requests sent by the exporter:
//   - GetService (2): discovery broadcast
//   - GetHostFirmware (14), GetWifiFirmware (18)
//   - GetLabel (23), GetVersion (32), GetLocation (48), GetGroup (51)
//   - LightGet (101): color and power state
//
// Responses decoded by the exporter:
//   - StateService (3), StateHostFirmware (15), StateWifiFirmware (19)
//   - StateLabel (25), StateVersion (33), StateLocation (50), StateGroup (53)
//   - LightState (107)
//
// # Usage Example
//
//	pkt := protocol.NewRequest(source, target, protocol.NextSequence(), protocol.TypeLightGet, nil)
//	buf, err := pkt.MarshalBinary()
//	...
//	resp, err := protocol.ParsePacket(data)
//	state, err := protocol.ParseLightState(resp.Payload)
//
// # Thread Safety
//
// All encoding and decoding functions are stateless and safe for concurrent use.
package protocol
