package homeassistant

import (
	"context"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"time"
)

const (
	defaultPublishTimeout = 2 * time.Second
	defaultStateTimeout   = 250 * time.Millisecond
	connectRetryInterval  = 5 * time.Second

	qosAtMostOnce = 0
)

// Client is the subset of mqtt.Client used by the sink.
type Client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// to allow testing
var newMQTTClient = func(opts *mqtt.ClientOptions) Client {
	return mqtt.NewClient(opts)
}

type Config struct {
	BrokerURL      string
	Username       string
	Password       string
	PublishTimeout time.Duration
	// StateTimeout bounds the wait for a state record. Publish runs inside the
	// packet pipeline, so it stays short.
	StateTimeout time.Duration
	Discovery    *Discovery
}

// Sink publishes discovery configuration and state records to an MQTT broker.
type Sink struct {
	discovery      *Discovery
	publishTimeout time.Duration
	stateTimeout   time.Duration
	client         Client
}

func NewSink(cfg Config) (*Sink, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("mqtt broker url is required")
	}
	if cfg.Discovery == nil {
		cfg.Discovery = DefaultDiscovery()
	}
	if cfg.Discovery.Device.Name == "" {
		return nil, errors.New("device name is required")
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}
	if cfg.StateTimeout <= 0 {
		cfg.StateTimeout = defaultStateTimeout
	}
	if cfg.StateTimeout > cfg.PublishTimeout {
		cfg.StateTimeout = cfg.PublishTimeout
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID("forzadash-" + uuid.New().String()).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetOnConnectHandler(func(mqtt.Client) {
			log.WithField("broker", cfg.BrokerURL).Info("connected to mqtt broker")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithField("err", err).Warn("lost connection to mqtt broker")
		})

	return &Sink{
		discovery:      cfg.Discovery,
		publishTimeout: cfg.PublishTimeout,
		stateTimeout:   cfg.StateTimeout,
		client:         newMQTTClient(opts),
	}, nil
}

func (s *Sink) Discovery() *Discovery {
	return s.discovery
}

// Connect waits for the first connection to the broker or for ctx.
func (s *Sink) Connect(ctx context.Context) error {
	token := s.client.Connect()
	select {
	case <-token.Done():
		return errors.Wrap(token.Error(), "unable to connect to mqtt broker")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register publishes one retained discovery message per declared entity.
func (s *Sink) Register() error {
	for _, domain := range s.discovery.Domains {
		for _, entity := range domain.Entities {
			payload, err := s.discovery.ConfigPayload(entity)
			if err != nil {
				return err
			}
			topic := s.discovery.ConfigTopic(domain.Name, entity.ResolvedKey())
			if err := s.publish(topic, true, payload, s.publishTimeout); err != nil {
				return errors.Wrapf(err, "unable to register %s", entity.Name)
			}
			log.WithField("topic", topic).Debug("registered discovery entity")
		}
	}
	return nil
}

// Publish sends a state record to the device state topic. It blocks the
// caller for at most the state timeout while the broker is stalled.
func (s *Sink) Publish(payload []byte) error {
	return s.publish(s.discovery.StateTopic(), false, payload, s.stateTimeout)
}

func (s *Sink) publish(topic string, retained bool, payload []byte, timeout time.Duration) error {
	token := s.client.Publish(topic, qosAtMostOnce, retained, payload)
	if !token.WaitTimeout(timeout) {
		return errors.Errorf("timed out publishing to %s", topic)
	}
	return errors.Wrapf(token.Error(), "unable to publish to %s", topic)
}

func (s *Sink) Close() error {
	s.client.Disconnect(uint(s.publishTimeout / time.Millisecond))
	return nil
}
