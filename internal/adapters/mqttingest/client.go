// Package mqttingest adapts an MQTT broker connection to the ingestion port.
// Every delivered message becomes a bus event with a fresh correlation id.
package mqttingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Sindrekaurin/grefur-backend/internal/bus"
	"github.com/Sindrekaurin/grefur-backend/internal/events"
	"github.com/Sindrekaurin/grefur-backend/internal/ports"
)

const source = "MqttIngestor"

// Config captures the runtime details required to reach the broker.
type Config struct {
	BrokerURL string `yaml:"broker_url"`
	ClientID  string `yaml:"client_id"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	QoS       byte   `yaml:"qos"`
	Debug     bool   `yaml:"debug"`
}

func (c *Config) ApplyDefaults() {
	if c.ClientID == "" {
		c.ClientID = "grefur-backend"
	}
	if c.QoS > 2 {
		c.QoS = 1
	}
}

func (c *Config) Validate() error {
	if c.BrokerURL == "" {
		return errors.New("broker_url is required")
	}
	return nil
}

// Client is the paho-backed ports.Ingestor. Connection state changes and
// inbound messages both surface as bus events; nothing else in the system
// touches the broker directly.
type Client struct {
	cfg    Config
	logger *slog.Logger
	bus    *bus.Bus
	client mqtt.Client
}

var _ ports.Ingestor = (*Client)(nil)

func New(logger *slog.Logger, b *bus.Bus, cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:    cfg,
		logger: logger.With("component", "mqtt_ingestor"),
		bus:    b,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.OnConnect = func(mqtt.Client) {
		c.logger.Info("connected to broker", "broker", cfg.BrokerURL)
		c.bus.Publish(context.Background(), events.NewBrokerConnection(
			events.BrokerConnected, cfg.BrokerURL, "", source, events.NewCorrelationID()))
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		c.logger.Warn("broker connection lost", "error", err)
		c.bus.Publish(context.Background(), events.NewBrokerConnection(
			events.BrokerDisconnected, cfg.BrokerURL, err.Error(), source, events.NewCorrelationID()))
	}

	c.client = mqtt.NewClient(opts)
	return c, nil
}

// Connect dials the broker and waits for the handshake or the context.
func (c *Client) Connect(ctx context.Context) error {
	token := c.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		c.bus.Publish(ctx, events.NewBrokerConnection(
			events.BrokerConnectionFailed, c.cfg.BrokerURL, err.Error(), source, events.NewCorrelationID()))
		return fmt.Errorf("connect %s: %w", c.cfg.BrokerURL, err)
	}
	return nil
}

// Subscribe binds a topic or wildcard pattern to the inbound message handler.
func (c *Client) Subscribe(topic string) error {
	token := c.client.Subscribe(topic, c.cfg.QoS, c.onMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	c.logger.Info("subscribed", "topic", topic, "qos", c.cfg.QoS)
	return nil
}

func (c *Client) IsConnected() bool { return c.client.IsConnected() }

// Close drops the broker connection after letting in-flight work settle.
func (c *Client) Close() {
	c.client.Disconnect(250)
}

func (c *Client) onMessage(_ mqtt.Client, msg mqtt.Message) {
	parts := strings.Split(msg.Topic(), "/")
	if len(parts) < 2 {
		c.logger.Warn("discarding message on malformed topic", "topic", msg.Topic())
		return
	}
	deviceID := parts[0]
	valueType := parts[len(parts)-1]

	if c.cfg.Debug {
		c.logger.Debug("message received", "topic", msg.Topic(), "payload", string(msg.Payload()))
	}
	c.bus.Publish(context.Background(), events.NewMqttMessageReceived(
		deviceID, valueType, msg.Topic(), string(msg.Payload()),
		source, events.NewCorrelationID()))
}
