package app

import (
	"encoding/json"
	"time"

	"mesa/pkg/mqtt"
	"mesa/pkg/port"

	"github.com/womat/debug"
)

// portsMessage is the payload of the port mirror.
type portsMessage struct {
	TimeStamp time.Time       `json:"timestamp"`
	Ports     map[string]byte `json:"ports"`
}

// publishPorts sends the snapshot to the mqtt broker.
// It runs on the scheduler goroutine and never blocks.
func (app *App) publishPorts(s port.Snapshot) {
	if !app.mqtt.Connected() || app.config.MQTT.Topic == "" {
		return
	}

	b, err := json.Marshal(portsMessage{TimeStamp: time.Now(), Ports: s.Map()})
	if err != nil {
		debug.ErrorLog.Printf("publishPorts marshal: %v", err)
		return
	}

	app.mqtt.Publish(mqtt.Message{
		Qos:      0,
		Retained: true,
		Topic:    app.config.MQTT.Topic,
		Payload:  b,
	})
}
