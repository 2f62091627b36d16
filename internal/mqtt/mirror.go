package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/muurk/lifx-exporter/internal/logging"
	"github.com/muurk/lifx-exporter/internal/metrics"
)

const connectTimeout = 10 * time.Second

// Config holds MQTT mirror configuration.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Retain      bool
}

// publishFunc sends one message; the paho client in production, a recorder in tests.
type publishFunc func(topic string, qos byte, retained bool, payload []byte)

// Mirror is a metrics.Sink that republishes bulb records to MQTT.
//
// Each record is published as JSON to <prefix>/<device id>/state, only when
// it differs from the last one sent for that device. Forget clears the
// retained message. The exporter's own availability is kept at
// <prefix>/exporter/state ("online"/"offline", with a last will).
type Mirror struct {
	client  pahomqtt.Client
	publish publishFunc
	cfg     Config

	mu   sync.Mutex
	last map[string][]byte
}

// statePayload is the JSON document published per bulb
type statePayload struct {
	ID         string         `json:"id"`
	Labels     metrics.Labels `json:"labels"`
	Reachable  bool           `json:"reachable"`
	On         float64        `json:"on"`
	Hue        float64        `json:"hue"`
	Saturation float64        `json:"saturation"`
	Brightness float64        `json:"brightness"`
	Kelvin     float64        `json:"kelvin"`
}

// Connect creates and connects an MQTT mirror.
func Connect(cfg Config) (*Mirror, error) {
	m := newMirror(cfg, nil)

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(m.availabilityTopic(), "offline", 1, true).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			logging.LogConnection(cfg.Broker, "mqtt_connected")
			m.publishAvailability("online")
			m.republish()
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			logging.Warn("MQTT connection lost", zap.String("broker", cfg.Broker), zap.Error(err))
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	m.client = client
	m.publish = func(topic string, qos byte, retained bool, payload []byte) {
		client.Publish(topic, qos, retained, payload)
	}

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		// Stop the background connect retries
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect to %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	return m, nil
}

func newMirror(cfg Config, publish publishFunc) *Mirror {
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "lifx"
	}
	return &Mirror{
		publish: publish,
		cfg:     cfg,
		last:    make(map[string][]byte),
	}
}

// StateTopic returns the topic a device's state is published on
func (m *Mirror) StateTopic(deviceID string) string {
	return m.cfg.TopicPrefix + "/" + deviceID + "/state"
}

func (m *Mirror) availabilityTopic() string {
	return m.cfg.TopicPrefix + "/exporter/state"
}

// Publish sends the record if it changed since the last one for the device
func (m *Mirror) Publish(r metrics.Record) {
	payload, err := json.Marshal(statePayload{
		ID:         r.DeviceID,
		Labels:     r.Labels,
		Reachable:  r.OK(),
		On:         r.Power,
		Hue:        r.Hue,
		Saturation: r.Saturation,
		Brightness: r.Brightness,
		Kelvin:     r.Kelvin,
	})
	if err != nil {
		logging.Error("Failed to encode MQTT state", zap.String("device_id", r.DeviceID), zap.Error(err))
		return
	}

	m.mu.Lock()
	if string(m.last[r.DeviceID]) == string(payload) {
		m.mu.Unlock()
		return
	}
	m.last[r.DeviceID] = payload
	publish := m.publish
	m.mu.Unlock()

	if publish != nil {
		publish(m.StateTopic(r.DeviceID), m.cfg.QoS, m.cfg.Retain, payload)
	}
}

// Forget clears the device's retained state
func (m *Mirror) Forget(deviceID string) {
	m.mu.Lock()
	_, known := m.last[deviceID]
	delete(m.last, deviceID)
	publish := m.publish
	m.mu.Unlock()

	if known && publish != nil {
		publish(m.StateTopic(deviceID), m.cfg.QoS, true, nil)
	}
}

// republish resends every known state after a reconnect
func (m *Mirror) republish() {
	m.mu.Lock()
	pending := make(map[string][]byte, len(m.last))
	for id, p := range m.last {
		pending[id] = p
	}
	publish := m.publish
	m.mu.Unlock()

	if publish == nil {
		return
	}
	for id, p := range pending {
		publish(m.StateTopic(id), m.cfg.QoS, m.cfg.Retain, p)
	}
}

func (m *Mirror) publishAvailability(state string) {
	m.mu.Lock()
	publish := m.publish
	m.mu.Unlock()
	if publish != nil {
		publish(m.availabilityTopic(), 1, true, []byte(state))
	}
}

// Close publishes offline and disconnects
func (m *Mirror) Close() {
	m.publishAvailability("offline")
	if m.client != nil {
		m.client.Disconnect(1000)
	}
	logging.Info("MQTT mirror stopped")
}
