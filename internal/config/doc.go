// Package config provides configuration management for the LIFX exporter.
//
// Configuration comes from an optional YAML file layered over built-in
// defaults; command line flags then override individual values. Durations
// use Go syntax ("5s", "2m").
//
// # Configuration File Location
//
// When --config is not given, the file is looked up in the platform location:
//   - Linux: $XDG_CONFIG_HOME/lifx-exporter/config.yaml or $HOME/.config/lifx-exporter/config.yaml
//   - macOS: $HOME/.config/lifx-exporter/config.yaml
//   - Windows: %LOCALAPPDATA%\lifx-exporter\config.yaml
//
// A missing file at the default location is not an error.
//
// # Example
//
//	listen:
//	  port: 8564
//	poll:
//	  interval: 5s
//	  query_timeout: 2s
//	  skip_in_flight: true
//	discovery:
//	  port: 56700
//	  broadcast: 255.255.255.255
//	  interval: 30s
//	  expire_after: 90s
//	  fetch_timeout: 5s
//	log:
//	  level: info
//	  format: console
//	mdns:
//	  enabled: false
//	mqtt:
//	  enabled: false
//	  broker: tcp://localhost:1883
//	  topic_prefix: lifx
//
// # Security
//
// The MQTT password, if used, is stored in plain text. Save writes the file
// with 0600 permissions.
package config
