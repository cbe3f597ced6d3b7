// Package notify publishes valve positions to an MQTT broker.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"i4.energy/across/valvegw/valve"
)

const (
	payloadOpen    = "open"
	payloadClosed  = "closed"
	payloadOnline  = "online"
	payloadOffline = "offline"
)

type ClientConfig struct {
	Broker   string // tcp://host:port
	ClientID string
	Username string
	Password string
	Prefix   string
}

// New builds a publisher on a client that reconnects on its own and leaves
// an "offline" status behind when the connection drops.
func New(cfg ClientConfig, logger *slog.Logger) *Publisher {
	p := NewPublisher(nil, cfg.Prefix, logger)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetWill(statusTopic(cfg.Prefix), payloadOffline, 1, true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		p.logger.Warn("MQTT connection lost", "error", err)
	})
	// Subscriptions do not survive a clean session.
	opts.SetOnConnectHandler(p.subscribe)

	p.client = mqtt.NewClient(opts)
	return p
}

// Publisher mirrors valve events as retained messages under
// <prefix>/valve/<n>/state.
type Publisher struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger

	sender      Sender
	sendTimeout time.Duration
}

func NewPublisher(client mqtt.Client, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{
		client:      client,
		prefix:      prefix,
		qos:         1,
		timeout:     2 * time.Second,
		logger:      logger,
		sendTimeout: 2 * time.Minute,
	}
}

// SetSender makes the publisher accept send requests under
// <prefix>/sms/send. It must be called before Connect.
func (p *Publisher) SetSender(s Sender) {
	p.sender = s
}

// Connect retries until the broker accepts the connection or ctx ends,
// then announces the gateway online and publishes the current states.
func (p *Publisher) Connect(ctx context.Context, states []valve.State) error {
	for !p.client.IsConnected() {
		tok := p.client.Connect()
		if !tok.WaitTimeout(p.timeout) {
			p.logger.Warn("Timeout connecting to MQTT broker, retrying")
		} else if err := tok.Error(); err != nil {
			p.logger.Warn("Error connecting to MQTT broker", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if err := p.publish(statusTopic(p.prefix), payloadOnline); err != nil {
		return err
	}
	for _, s := range states {
		if err := p.publish(p.valveTopic(s.Valve), statePayload(s.Open)); err != nil {
			return err
		}
	}
	p.logger.Info("Connected to MQTT broker")
	return nil
}

// ValveChanged implements valve.Observer. Failures are logged; the next
// change or reconnect publishes the state again.
func (p *Publisher) ValveChanged(ev valve.Event) {
	if err := p.publish(p.valveTopic(ev.Valve), statePayload(ev.Open)); err != nil {
		p.logger.Warn("Failed to publish valve state", "valve", ev.Valve, "error", err)
	}
}

// Close marks the gateway offline and disconnects.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		if err := p.publish(statusTopic(p.prefix), payloadOffline); err != nil {
			p.logger.Warn("Failed to publish offline status", "error", err)
		}
	}
	p.client.Disconnect(250)
}

func (p *Publisher) publish(topic, payload string) error {
	tok := p.client.Publish(topic, p.qos, true, payload)
	if !tok.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) valveTopic(n int) string {
	return p.prefix + "/valve/" + strconv.Itoa(n) + "/state"
}

func statusTopic(prefix string) string {
	return prefix + "/status"
}

func statePayload(open bool) string {
	if open {
		return payloadOpen
	}
	return payloadClosed
}
