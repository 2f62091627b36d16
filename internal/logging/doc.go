// Package logging provides structured logging for the LIFX exporter.
//
// This package wraps a package-level zap logger with convenience functions
// for the logging patterns used across the exporter.
//
// # Log Levels
//
//   - Debug: packet hex dumps, per-query failures, attribute fetch failures
//   - Info: device appeared/departed, server start and stop
//   - Warn: optional subsystems unavailable (MQTT, mDNS)
//   - Error: startup failures
//
// # Specialized Logging
//
//	logging.LogPacket("sent", "192.168.1.40:56700", "LightGet", buf)
//	logging.LogDeviceEvent("d0:73:d5:01:02:03", "appeared")
//	logging.LogConnection(remoteAddr, "websocket_subscribed")
//
// # Configuration
//
//	if err := logging.InitializeWith(logging.Options{Level: "debug", Format: "json"}); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// With an empty level the LIFX_EXPORTER_LOG_LEVEL environment variable is
// consulted; if that is unset too the logger is a no-op. The scan command
// relies on this to keep its table output clean.
package logging
