// Package mqtt publishes messages to an mqtt broker without blocking the sender.
package mqtt

import (
	"sync"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/womat/debug"
)

const (
	// quiesce is the specified number of milliseconds to wait for existing work to be completed.
	quiesce = 250
	// queueSize is the number of messages buffered before Publish drops messages.
	queueSize = 16
)

// Handler contains the handler of the mqtt broker.
type Handler struct {
	client mqttlib.Client
	// C is the channel to service the mqtt message
	// sending a message to channel C will send the message.
	C chan Message

	mu      sync.Mutex
	dropped uint64
	closed  bool
}

// Message contains the properties of the mqtt message.
type Message struct {
	Topic    string
	Payload  []byte
	Qos      byte
	Retained bool
}

// New generate a new mqtt broker client.
func New() *Handler {
	return &Handler{
		C: make(chan Message, queueSize),
	}
}

// Connect connects to the mqtt broker.
// If no broker is defined, no mqtt message are send.
func (m *Handler) Connect(broker, clientID string) error {
	if broker == "" {
		return nil
	}

	opts := mqttlib.NewClientOptions().AddBroker(broker).SetClientID(clientID).SetAutoReconnect(true)
	m.client = mqttlib.NewClient(opts)
	if err := m.ReConnect(); err != nil {
		return errors.Wrapf(err, "connecting mqtt broker %s", broker)
	}
	return nil
}

// Connected reports whether a broker is configured.
func (m *Handler) Connected() bool {
	return m.client != nil
}

// ReConnect reconnects to the defined mqtt broker.
func (m *Handler) ReConnect() error {
	t := m.client.Connect()
	<-t.Done()
	return t.Error()
}

// Publish queues msg. If the queue is full the message is dropped, the
// caller is never blocked.
func (m *Handler) Publish(msg Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	select {
	case m.C <- msg:
		return true
	default:
		m.dropped++
		debug.TraceLog.Printf("mqtt queue full, dropping message for topic %v", msg.Topic)
		return false
	}
}

// Dropped returns the number of messages dropped by Publish.
func (m *Handler) Dropped() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Disconnect closes the queue and ends the connection to the broker.
func (m *Handler) Disconnect() error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.C)
	}
	m.mu.Unlock()

	if m.client == nil {
		return nil
	}
	m.client.Disconnect(quiesce)
	return nil
}

// Service listen to a message on the channel C and send the message to mqtt.
// If no handler or topic is defined, the message will be ignored.
// Service returns when the queue is closed by Disconnect.
func (m *Handler) Service() {
	for msg := range m.C {
		if m.client == nil || msg.Topic == "" {
			continue
		}

		if !m.client.IsConnected() {
			debug.DebugLog.Printf("mqtt broker isn't connected, reconnect it")

			if err := m.ReConnect(); err != nil {
				debug.ErrorLog.Printf("can't reconnect to mqtt broker %v", err)
				continue
			}
		}

		debug.DebugLog.Printf("publishing %v bytes to topic %v", len(msg.Payload), msg.Topic)
		t := m.client.Publish(msg.Topic, msg.Qos, msg.Retained, msg.Payload)

		// the asynchronous nature of this library makes it easy to forget to check for errors.
		go func(topic string) {
			<-t.Done()
			if err := t.Error(); err != nil {
				debug.ErrorLog.Printf("publishing topic %v: %v", topic, err)
			}
		}(msg.Topic)
	}
}
