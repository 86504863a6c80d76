// Package mirror republishes every derived entity write to an MQTT broker
// as a retained message.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/employee-presence-engine/internal/hass"
)

var ErrNotConnected = errors.New("mqtt mirror not connected")

const (
	publishTimeout = 2 * time.Second
	qos            = 0
	// retained so a late subscriber sees the current state at once
	retained = true
)

// Message is the retained payload for one entity.
type Message struct {
	State      string          `json:"state"`
	Attributes hass.Attributes `json:"attributes"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Topic maps sensor.jan_status to {prefix}/sensor/jan_status/state.
func Topic(prefix, entityID string) string {
	return strings.TrimRight(prefix, "/") + "/" + strings.Replace(entityID, ".", "/", 1) + "/state"
}

// Encode builds the payload published for one entity write. A nil
// attribute map is sent as an empty object.
func Encode(state string, attrs hass.Attributes, at time.Time) ([]byte, error) {
	if attrs == nil {
		attrs = hass.Attributes{}
	}
	return json.Marshal(Message{State: state, Attributes: attrs, UpdatedAt: at.UTC()})
}

// MQTT is a suture.Service that owns the broker connection.
type MQTT struct {
	opts   *mqtt.ClientOptions
	prefix string

	mu     sync.RWMutex
	client mqtt.Client
}

func NewMQTT(broker, clientID, prefix string) *MQTT {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	return &MQTT{opts: opts, prefix: prefix}
}

// Publish sends one retained message. It never blocks longer than a
// couple of seconds.
func (m *MQTT) Publish(entityID, state string, attrs hass.Attributes) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil || !client.IsConnectionOpen() {
		return ErrNotConnected
	}

	payload, err := Encode(state, attrs, time.Now())
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", entityID, err)
	}
	token := client.Publish(Topic(m.prefix, entityID), qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s timed out", entityID)
	}
	return token.Error()
}

// Serve connects and holds the connection until ctx is canceled.
func (m *MQTT) Serve(ctx context.Context) error {
	client := mqtt.NewClient(m.opts)
	token := client.Connect()
	select {
	case <-ctx.Done():
		client.Disconnect(0)
		return ctx.Err()
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	log.Info().Str("prefix", m.prefix).Msg("mqtt mirror connected")

	m.mu.Lock()
	m.client = client
	m.mu.Unlock()

	<-ctx.Done()

	m.mu.Lock()
	m.client = nil
	m.mu.Unlock()
	client.Disconnect(250)
	return ctx.Err()
}

func (m *MQTT) String() string { return "mqtt-mirror" }
