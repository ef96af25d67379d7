package notify

import (
	"context"
	"encoding/json"
	"net"
	"strings"
	"time"

	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/logger"
	"github.com/eclipse/paho.golang/paho"
)

const defaultKeepAlive = 30 * time.Second

type MQTTConfig struct {
	Broker      string
	TopicPrefix string
	ClientID    string
	QoS         byte
	KeepAlive   time.Duration
}

// MQTT publishes events as JSON to <prefix>/<topic>/<event>.
type MQTT struct {
	client *paho.Client
	cfg    MQTTConfig
	logger logger.Logger
}

// DialMQTT connects to the broker with a clean session.
func DialMQTT(ctx context.Context, cfg MQTTConfig) (*MQTT, error) {
	errFactory := errors.New()
	log := logger.Default()

	if cfg.KeepAlive <= 0 {
		cfg.KeepAlive = defaultKeepAlive
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.Broker)
	if err != nil {
		return nil, errFactory.WithData(errors.ErrInitFailed, struct {
			Phase  string
			Broker string
			Error  string
		}{
			Phase:  "dial_broker",
			Broker: cfg.Broker,
			Error:  err.Error(),
		})
	}

	client := paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: cfg.ClientID,
		OnClientError: func(err error) {
			log.Error().Err(err).Msg("MQTT client error")
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			log.Warn().Uint8("reason_code", d.ReasonCode).Msg("MQTT broker disconnected")
		},
	})

	connack, err := client.Connect(ctx, &paho.Connect{
		ClientID:   cfg.ClientID,
		CleanStart: true,
		KeepAlive:  uint16(cfg.KeepAlive.Seconds()),
	})
	if err != nil {
		conn.Close()
		data := struct {
			Phase      string
			ReasonCode byte
			Error      string
		}{Phase: "connect", Error: err.Error()}
		if connack != nil {
			data.ReasonCode = connack.ReasonCode
		}
		return nil, errFactory.WithData(errors.ErrInitFailed, data)
	}

	log.Info().
		Str("broker", cfg.Broker).
		Str("client_id", cfg.ClientID).
		Msg("Connected to MQTT broker")

	return &MQTT{client: client, cfg: cfg, logger: log}, nil
}

// Topic returns the MQTT topic for an event.
func (m *MQTT) Topic(topic, event string) string {
	parts := []string{topic, event}
	if m.cfg.TopicPrefix != "" {
		parts = append([]string{strings.TrimSuffix(m.cfg.TopicPrefix, "/")}, parts...)
	}
	return strings.Join(parts, "/")
}

func (m *MQTT) Publish(ctx context.Context, topic, event string, payload any) error {
	errFactory := errors.New()

	body, err := json.Marshal(payload)
	if err != nil {
		return errFactory.Wrap(errors.ErrPublishFailed, err)
	}

	pub := &paho.Publish{
		QoS:     m.cfg.QoS,
		Topic:   m.Topic(topic, event),
		Payload: body,
		Properties: &paho.PublishProperties{
			ContentType: "application/json",
		},
	}

	res, err := m.client.Publish(ctx, pub)
	// paho v0.21 may answer QoS 0 publishes with (nil, nil).
	if pub.QoS == 0 && res == nil && err == nil {
		return nil
	}
	if err != nil {
		return errFactory.Wrap(errors.ErrPublishFailed, err)
	}
	if res != nil && res.ReasonCode >= 0x80 {
		return errFactory.WithData(errors.ErrPublishFailed, struct {
			Topic      string
			ReasonCode byte
		}{
			Topic:      pub.Topic,
			ReasonCode: res.ReasonCode,
		})
	}

	m.logger.Debug().Str("topic", pub.Topic).Int("bytes", len(body)).Msg("Published to MQTT")
	return nil
}

func (m *MQTT) Close() error {
	if err := m.client.Disconnect(&paho.Disconnect{ReasonCode: 0}); err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}
	return nil
}
