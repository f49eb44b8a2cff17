package pubsub

import (
	"context"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog/log"
)

var newBackoff = func() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}
}

// SubscribeWithRetry keeps the subscription alive until ctx is done,
// backing off between failed attempts.
func SubscribeWithRetry(ctx context.Context, broker Broker, handler SubscriptionHandler) {
	b := newBackoff()
	for {
		err := broker.Subscribe(ctx, handler)
		if ctx.Err() != nil {
			return
		}

		wait := b.Duration()
		if err != nil {
			log.Warn().Err(err).
				Str("subscription", handler.SubscriptionId).
				Dur("retryIn", wait).
				Msg("Subscriber failed")
		} else {
			b.Reset()
			wait = b.Duration()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
