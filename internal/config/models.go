package config

import "time"

// Config represents the exporter configuration file.
// Every field has a default (see Default), so an empty or missing file is valid.
type Config struct {
	Listen    Listen    `yaml:"listen"`
	Poll      Poll      `yaml:"poll"`
	Discovery Discovery `yaml:"discovery"`
	Log       Log       `yaml:"log"`
	MDNS      MDNS      `yaml:"mdns"`
	MQTT      MQTT      `yaml:"mqtt"`
}

// Listen configures the HTTP metrics endpoint.
type Listen struct {
	Address string `yaml:"address"` // Bind host, empty for all interfaces
	Port    int    `yaml:"port"`    // Metrics port (default 8564)
}

// Poll configures the state polling loop.
type Poll struct {
	Interval     time.Duration `yaml:"interval"`       // Time between ticks (default 5s)
	QueryTimeout time.Duration `yaml:"query_timeout"`  // Per-query timeout (default 2s)
	SkipInFlight bool          `yaml:"skip_in_flight"` // Skip bulbs whose previous query is outstanding
}

// Discovery configures the LIFX LAN transport.
type Discovery struct {
	Port         int           `yaml:"port"`          // Local UDP port (default 56700)
	Broadcast    string        `yaml:"broadcast"`     // Broadcast address (default 255.255.255.255)
	Interval     time.Duration `yaml:"interval"`      // Time between discovery broadcasts (default 30s)
	ExpireAfter  time.Duration `yaml:"expire_after"`  // Silence before a bulb is dropped (default 90s)
	FetchTimeout time.Duration `yaml:"fetch_timeout"` // Per-attribute fetch timeout (default 5s)
}

// Log configures logging.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// MDNS configures zeroconf advertisement of the metrics endpoint.
type MDNS struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"` // Service instance name (default lifx-exporter)
}

// MQTT configures the optional state mirror.
type MQTT struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`       // e.g. tcp://localhost:1883
	ClientID    string `yaml:"client_id"`    // default lifx-exporter
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix"` // default lifx
	QoS         byte   `yaml:"qos"`          // 0, 1 or 2
	Retain      bool   `yaml:"retain"`       // publish state as retained (default true)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen: Listen{
			Port: 8564,
		},
		Poll: Poll{
			Interval:     5 * time.Second,
			QueryTimeout: 2 * time.Second,
			SkipInFlight: true,
		},
		Discovery: Discovery{
			Port:         56700,
			Broadcast:    "255.255.255.255",
			Interval:     30 * time.Second,
			ExpireAfter:  90 * time.Second,
			FetchTimeout: 5 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
		MDNS: MDNS{
			Instance: "lifx-exporter",
		},
		MQTT: MQTT{
			Broker:      "tcp://localhost:1883",
			ClientID:    "lifx-exporter",
			TopicPrefix: "lifx",
			Retain:      true,
		},
	}
}
