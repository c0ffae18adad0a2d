// Package mqtt publishes the samples to a mqtt broker.
package mqtt

import (
	"encoding/json"
	"errors"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"github.com/womat/debug"
)

const (
	// disconnectWait is the time in milliseconds pending messages may take before the connection is closed.
	disconnectWait = 250
	// publishTimeout limits the wait for the broker to acknowledge a message.
	publishTimeout = 5 * time.Second
	// connectTimeout limits the wait for a (re)connection.
	connectTimeout = 10 * time.Second
)

var ErrTimeout = errors.New("mqtt broker didn't respond in time")

// Handler publishes every message sent to channel C.
// Without a broker the messages are dropped.
type Handler struct {
	client mqttlib.Client
	// C queues the messages to publish, closing C stops Service.
	C chan Message
}

// Message is a mqtt message.
type Message struct {
	Topic    string
	Payload  []byte
	Qos      byte
	Retained bool
}

// New creates a handler without a broker connection.
func New() *Handler {
	return &Handler{C: make(chan Message)}
}

// Connect connects to broker (e.g. tcp://127.0.0.1:1883).
// An empty broker disables publishing.
func (m *Handler) Connect(broker, clientID string) error {
	if broker == "" {
		debug.InfoLog.Print("no mqtt broker configured, samples are not published")
		return nil
	}

	opts := mqttlib.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	m.client = mqttlib.NewClient(opts)
	return wait(m.client.Connect(), connectTimeout)
}

// Close stops Service and closes the broker connection.
func (m *Handler) Close() error {
	close(m.C)

	if m.client != nil {
		m.client.Disconnect(disconnectWait)
	}
	return nil
}

// Marshal builds a retained message with the json representation of v.
func Marshal(topic string, v interface{}) (Message, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Message{}, err
	}

	return Message{Topic: topic, Payload: b, Retained: true}, nil
}

// Service publishes the messages of channel C in order until C is closed.
// Messages without topic are dropped.
func (m *Handler) Service() {
	for msg := range m.C {
		if m.client == nil || msg.Topic == "" {
			continue
		}

		if err := m.publish(msg); err != nil {
			debug.ErrorLog.Printf("publishing topic %v: %v", msg.Topic, err)
		}
	}
}

func (m *Handler) publish(msg Message) error {
	if !m.client.IsConnected() {
		debug.DebugLog.Print("mqtt broker isn't connected, reconnect it")

		if err := wait(m.client.Connect(), connectTimeout); err != nil {
			return err
		}
	}

	debug.DebugLog.Printf("publishing %v bytes to topic %v", len(msg.Payload), msg.Topic)
	return wait(m.client.Publish(msg.Topic, msg.Qos, msg.Retained, msg.Payload), publishTimeout)
}

// wait waits until the token is completed and returns its error.
func wait(t mqttlib.Token, d time.Duration) error {
	if !t.WaitTimeout(d) {
		return ErrTimeout
	}
	return t.Error()
}
