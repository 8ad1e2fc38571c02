package event

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubNotifier publishes domain events to a Pub/Sub topic.
type PubSubNotifier struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
	logger    zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub notifier.
type PubSubConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// PubSubConfigFromEnv creates a PubSubConfig from environment variables.
func PubSubConfigFromEnv(logger zerolog.Logger) PubSubConfig {
	return PubSubConfig{
		ProjectID: os.Getenv("PUBSUB_PROJECT_ID"),
		TopicName: getEnvOrDefault("PUBSUB_TOPIC", "domain-events"),
		Logger:    logger,
	}
}

// NewPubSubNotifier creates a new Pub/Sub notifier.
func NewPubSubNotifier(ctx context.Context, cfg PubSubConfig) (*PubSubNotifier, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubNotifier{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		topicName: cfg.TopicName,
		logger:    cfg.Logger,
	}, nil
}

// Publish emits one event to the topic and blocks until the bus assigns an
// event id. Message attributes carry the source and detail-type so consumers
// can filter without decoding the payload.
func (n *PubSubNotifier) Publish(ctx context.Context, source, prefix, eventType string, detail any) (string, error) {
	payload, err := json.Marshal(detail)
	if err != nil {
		return "", fmt.Errorf("%w: encode detail: %v", ErrPublishFailed, err)
	}

	detailType := DetailType(prefix, eventType)
	data, err := json.Marshal(Envelope{
		Source:     source,
		DetailType: detailType,
		Detail:     payload,
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode envelope: %v", ErrPublishFailed, err)
	}

	result := n.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"source":      source,
			"detail-type": detailType,
		},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	n.logger.Debug().
		Str("event_id", id).
		Str("detail_type", detailType).
		Str("source", source).
		Msg("event published")

	return id, nil
}

// Close stops the publisher and releases the client.
func (n *PubSubNotifier) Close() error {
	n.publisher.Stop()
	return n.client.Close()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Ensure PubSubNotifier implements Notifier interface.
var _ Notifier = (*PubSubNotifier)(nil)
