package pubsub

import (
	"context"
	"fmt"

	"github.com/kollektive-hackathon/peril-backend/internal/pkg/config"
)

const (
	BrokerMemory   = "memory"
	BrokerGcp      = "gcp"
	BrokerRabbitMq = "rabbitmq"
)

type Publishable interface {
	GetEventTopicName() string
}

type AckType int

const (
	Ack AckType = iota
	NackRequeue
	NackDiscard
)

func (a AckType) String() string {
	switch a {
	case Ack:
		return "ack"
	case NackRequeue:
		return "nack-requeue"
	case NackDiscard:
		return "nack-discard"
	default:
		return fmt.Sprintf("AckType(%d)", int(a))
	}
}

type SubscriptionHandler struct {
	SubscriptionId string
	Topic          string
	QueueType      SimpleQueueType
	Handler        func(ctx context.Context, data []byte) AckType
}

// Broker moves JSON encoded messages between publishers and subscriptions.
// Subscribe blocks until ctx is done or the underlying transport fails.
type Broker interface {
	Publish(ctx context.Context, message Publishable) error
	Subscribe(ctx context.Context, handler SubscriptionHandler) error
	Close() error
}

func NewBroker(ctx context.Context, cfg config.Config) (Broker, error) {
	switch cfg.Broker {
	case "", BrokerMemory:
		return NewMemoryBroker(), nil
	case BrokerGcp:
		return NewGcpBroker(ctx, cfg.GoogleProjectId)
	case BrokerRabbitMq:
		return NewRabbitBroker(cfg.RabbitMqUrl)
	default:
		return nil, fmt.Errorf("unknown broker %q", cfg.Broker)
	}
}
