package sink

import (
	"encoding/binary"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/neopixelsim/internal/pixel"
)

type MQTTConfig struct {
	URL      string `yaml:"url"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// token is the part of mqtt.Token the sink waits on.
type token interface {
	WaitTimeout(time.Duration) bool
	Error() error
}

// publisher is the part of mqtt.Client the sink uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) token
	Disconnect(quiesce uint)
}

type pahoPublisher struct{ c mqtt.Client }

func (p pahoPublisher) Publish(topic string, qos byte, retained bool, payload interface{}) token {
	return p.c.Publish(topic, qos, retained, payload)
}

func (p pahoPublisher) Disconnect(quiesce uint) { p.c.Disconnect(quiesce) }

// MQTT streams frames to an LED receiver over MQTT. Each message is a
// little endian uint16 pixel count followed by RGB triples.
type MQTT struct {
	client  publisher
	topic   string
	qos     byte
	order   pixel.ChannelOrder
	timeout time.Duration
}

// DialMQTT connects to the broker and returns a sink publishing to cfg.Topic.
func DialMQTT(cfg MQTTConfig, order pixel.ChannelOrder) (*MQTT, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "neopixelsim"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			log.Info().Str("broker", cfg.URL).Msg("mqtt connected")
		})
	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", cfg.URL)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.URL, err)
	}
	return newMQTT(pahoPublisher{client}, cfg.Topic, cfg.QoS, order), nil
}

// NewMQTT publishes through an already connected client.
func NewMQTT(client mqtt.Client, topic string, qos byte, order pixel.ChannelOrder) *MQTT {
	return newMQTT(pahoPublisher{client}, topic, qos, order)
}

func newMQTT(client publisher, topic string, qos byte, order pixel.ChannelOrder) *MQTT {
	return &MQTT{client: client, topic: topic, qos: qos, order: order, timeout: 5 * time.Second}
}

// EncodeFrame builds the wire message for rgb.
func EncodeFrame(rgb []byte) []byte {
	data := make([]byte, 2, 2+len(rgb))
	binary.LittleEndian.PutUint16(data, uint16(len(rgb)/3))
	return append(data, rgb...)
}

func (m *MQTT) Write(rgb []byte) error {
	tok := m.client.Publish(m.topic, m.qos, false, EncodeFrame(toRGB(m.order, rgb)))
	if !tok.WaitTimeout(m.timeout) {
		return fmt.Errorf("mqtt publish %s: timed out", m.topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", m.topic, err)
	}
	return nil
}

func (m *MQTT) Close() error {
	m.client.Disconnect(250)
	return nil
}
