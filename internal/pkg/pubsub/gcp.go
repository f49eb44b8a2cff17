package pubsub

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/kollektive-hackathon/peril-backend/internal/pkg/utils"
	"github.com/rs/zerolog/log"
)

type GcpBroker struct {
	client *pubsub.Client
}

func NewGcpBroker(ctx context.Context, projectID string) (*GcpBroker, error) {
	if projectID == "" {
		return nil, errors.New("pub sub missing projectID to initialize")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("could not initialize pub sub client: %w", err)
	}
	log.Info().Str("projectId", projectID).Msg("Successful pubsub init")
	return &GcpBroker{client: client}, nil
}

func (b *GcpBroker) Publish(ctx context.Context, message Publishable) error {
	data, err := utils.JsonEncode(message)
	if err != nil {
		return err
	}

	t, err := b.getTopic(ctx, message.GetEventTopicName())
	if err != nil {
		return err
	}
	defer t.Stop()

	result := t.Publish(ctx, &pubsub.Message{Data: data})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish message for %s: %w", message.GetEventTopicName(), err)
	}
	return nil
}

func (b *GcpBroker) Subscribe(ctx context.Context, handler SubscriptionHandler) error {
	sub := b.client.Subscription(handler.SubscriptionId)
	err := sub.Receive(ctx, func(ctx context.Context, message *pubsub.Message) {
		switch handler.Handler(ctx, message.Data) {
		case NackRequeue:
			message.Nack()
		default:
			// a nack would redeliver, discarding means acknowledging
			message.Ack()
		}
	})
	if err != nil {
		return fmt.Errorf("subscriber error for sub id %s: %w", handler.SubscriptionId, err)
	}
	return nil
}

func (b *GcpBroker) Close() error {
	return b.client.Close()
}

func (b *GcpBroker) getTopic(ctx context.Context, topicName string) (*pubsub.Topic, error) {
	t := b.client.Topic(topicName)
	exists, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return t, nil
	}

	log.Info().Msg(fmt.Sprintf("Topic %s does not exist. Creating new", topicName))
	nt, err := b.client.CreateTopic(ctx, topicName)
	if err != nil {
		return nil, fmt.Errorf("cant create topic %s: %w", topicName, err)
	}
	return nt, nil
}
