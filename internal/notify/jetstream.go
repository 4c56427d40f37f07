package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const StreamName = "NOTIFICATIONS"

// JetStreamPublisher publishes to a durable stream so notifications survive
// until a delivery worker acknowledges them.
type JetStreamPublisher struct {
	js jetstream.JetStream
}

// NewJetStreamPublisher creates or updates the notifications stream.
func NewJetStreamPublisher(ctx context.Context, js jetstream.JetStream) (*JetStreamPublisher, error) {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Outbound email and SMS notifications",
		Subjects:    []string{"notifications.>"},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      72 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}
	return &JetStreamPublisher{js: js}, nil
}

func (p *JetStreamPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}
