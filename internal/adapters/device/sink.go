// Package device sends fire-and-forget commands to physical controllers.
package device

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ericggul/moodscape/pkg/logger"
	"github.com/ericggul/moodscape/pkg/metrics"
)

// Command carries exactly one parameter. The core never sends more than one
// parameter per call and never awaits a meaningful response.
type Command struct {
	Param string    `json:"param"`
	Value any       `json:"value"`
	TS    time.Time `json:"ts"`
}

// Sink delivers commands to downstream device controllers, best effort.
type Sink interface {
	// Send publishes one single-parameter command for a device type.
	// Failures are logged, never returned.
	Send(ctx context.Context, deviceType string, cmd Command)

	// Close releases the underlying connection.
	Close()
}

// NoopSink is used when no broker is configured.
type NoopSink struct{}

func (NoopSink) Send(context.Context, string, Command) {}
func (NoopSink) Close()                                {}

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// MQTTSink publishes commands to <prefix>/<deviceType> at QoS 0.
type MQTTSink struct {
	client mqtt.Client
	prefix string
	logger logger.Logger
}

// NewMQTTSink connects to the broker and returns the sink. Connection errors
// are returned so startup can decide whether to continue without devices.
func NewMQTTSink(broker, prefix string, lg logger.Logger) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("moodscape-orchestrator").
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, context.DeadlineExceeded
	}
	if err := token.Error(); err != nil {
		return nil, err
	}

	if lg == nil {
		lg = logger.Get().Named("device")
	}
	return &MQTTSink{client: client, prefix: prefix, logger: lg}, nil
}

// Send publishes one command. Fire and forget: a failed publish is counted
// and logged, then dropped.
func (s *MQTTSink) Send(ctx context.Context, deviceType string, cmd Command) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		s.logger.Error(ctx, "marshal device command", logger.Error(err))
		return
	}

	topic := s.prefix + "/" + deviceType
	token := s.client.Publish(topic, 0, false, payload)
	metrics.RecordDeviceCommand()

	// Wait briefly off the caller's critical path; the decision pipeline
	// never blocks on device delivery.
	go func() {
		if token.WaitTimeout(publishTimeout) && token.Error() == nil {
			return
		}
		metrics.RecordDeviceCommandError()
		s.logger.Warn(context.Background(), "device command publish failed",
			logger.String("topic", topic),
			logger.Error(token.Error()),
		)
	}()
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
