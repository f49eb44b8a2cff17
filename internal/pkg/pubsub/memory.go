package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kollektive-hackathon/peril-backend/internal/pkg/utils"
	"github.com/rs/zerolog/log"
)

const maxMemoryRedeliveries = 3

var (
	ErrNoSubscribers     = errors.New("no subscription bound to topic")
	ErrDeliveryExhausted = errors.New("message requeued too many times")
)

// MemoryBroker delivers messages in-process and synchronously, in
// subscription order, to every handler bound to the message topic. Publish
// fails when nobody is subscribed or a handler keeps requeueing, since the
// message is gone afterwards.
type MemoryBroker struct {
	mu            sync.RWMutex
	subscriptions map[string][]*SubscriptionHandler
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subscriptions: make(map[string][]*SubscriptionHandler),
	}
}

func (b *MemoryBroker) Publish(ctx context.Context, message Publishable) error {
	data, err := utils.JsonEncode(message)
	if err != nil {
		return err
	}

	topic := message.GetEventTopicName()
	b.mu.RLock()
	handlers := append([]*SubscriptionHandler(nil), b.subscriptions[topic]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		return fmt.Errorf("%w: %s", ErrNoSubscribers, topic)
	}

	var errs []error
	for _, h := range handlers {
		if err := deliver(ctx, h, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func deliver(ctx context.Context, h *SubscriptionHandler, data []byte) error {
	for attempt := 0; attempt <= maxMemoryRedeliveries; attempt++ {
		ack := h.Handler(ctx, data)
		if ack != NackRequeue {
			return nil
		}
	}
	log.Warn().
		Str("subscription", h.SubscriptionId).
		Msg("Dropping message after repeated requeue")
	return fmt.Errorf("%w: %s", ErrDeliveryExhausted, h.SubscriptionId)
}

func (b *MemoryBroker) Subscribe(ctx context.Context, handler SubscriptionHandler) error {
	h := &handler

	b.mu.Lock()
	b.subscriptions[h.Topic] = append(b.subscriptions[h.Topic], h)
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscriptions[h.Topic]
	for i, s := range subs {
		if s == h {
			b.subscriptions[h.Topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscriptions[h.Topic]) == 0 {
		delete(b.subscriptions, h.Topic)
	}
	return nil
}

func (b *MemoryBroker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions[topic])
}

func (b *MemoryBroker) Close() error {
	return nil
}
