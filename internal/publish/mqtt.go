package publish

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/markerpose/internal/mocap"
)

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish within the configured timeout.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Client is the part of mqtt.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Dial connects to an MQTT broker such as "tcp://localhost:1883".
func Dial(broker, clientID string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect to %s: timed out after %v", broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	mocap.Diagf("connected to MQTT broker %s as %s", broker, clientID)
	return client, nil
}

// MQTTPublisher sends each subject's frames to its own topic under a base
// topic.
type MQTTPublisher struct {
	client  Client
	topic   string
	timeout time.Duration
}

// NewMQTTPublisher creates a publisher on base topic.
func NewMQTTPublisher(client Client, topic string, timeout time.Duration) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: strings.TrimSuffix(topic, "/"), timeout: timeout}
}

// Topic returns the topic used for a subject prefix. Separator and
// wildcard characters are dropped from the prefix.
func (p *MQTTPublisher) Topic(prefix string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#', ':':
			return -1
		}
		return r
	}, prefix)
	name = strings.Trim(name, "_")
	if name == "" {
		return p.topic
	}
	return p.topic + "/" + name
}

// Publish encodes msg and waits for the broker to accept it.
func (p *MQTTPublisher) Publish(msg FrameMessage) error {
	payload, err := EncodeFrame(msg)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", msg.Frame, err)
	}
	topic := p.Topic(msg.Prefix)
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%s frame %d: %w", topic, msg.Frame, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s frame %d: %w", topic, msg.Frame, err)
	}
	return nil
}
