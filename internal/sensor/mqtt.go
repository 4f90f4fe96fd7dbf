package sensor

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LHacuevas/strideSync/internal/cadence"
)

const mqttConnectTimeout = 5 * time.Second

// MQTT subscribes to a topic carrying one JSON sample per message
type MQTT struct {
	*hub
	broker   string
	topic    string
	clientID string
	logger   *slog.Logger
}

// NewMQTT creates an MQTT source; nothing connects until the first subscription
func NewMQTT(broker, topic, clientID string, logger *slog.Logger) *MQTT {
	m := &MQTT{
		broker:   broker,
		topic:    topic,
		clientID: clientID,
		logger:   logger,
	}
	m.hub = newHub(m.run)
	return m
}

// Subscribe implements cadence.MotionSource
func (m *MQTT) Subscribe(handler func(cadence.MotionSample)) (func(), error) {
	return m.subscribe(handler)
}

func (m *MQTT) run() (func(), error) {
	opts := mqtt.NewClientOptions().
		AddBroker(m.broker).
		SetClientID(m.clientID).
		SetConnectTimeout(mqttConnectTimeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to %s: %w", m.broker, token.Error())
	}
	m.logger.Info("connected to MQTT broker", "broker", m.broker)

	token := client.Subscribe(m.topic, 0, m.onMessage)
	token.Wait()
	if token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("subscribing to %s: %w", m.topic, token.Error())
	}
	m.logger.Info("subscribed to motion topic", "topic", m.topic)

	return func() {
		client.Unsubscribe(m.topic).Wait()
		client.Disconnect(250)
		m.logger.Info("disconnected from MQTT broker", "broker", m.broker)
	}, nil
}

func (m *MQTT) onMessage(_ mqtt.Client, msg mqtt.Message) {
	s, err := ParseJSON(msg.Payload(), time.Now())
	if err != nil {
		m.logger.Debug("dropping MQTT payload", "topic", msg.Topic(), "error", err)
		return
	}
	m.publish(s)
}
