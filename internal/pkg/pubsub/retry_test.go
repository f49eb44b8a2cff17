package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jpillora/backoff"
	"github.com/stretchr/testify/assert"
)

type flakyBroker struct {
	MemoryBroker
	mu       sync.Mutex
	failures int
	attempts int
	done     chan struct{}
}

func (b *flakyBroker) Subscribe(ctx context.Context, _ SubscriptionHandler) error {
	b.mu.Lock()
	b.attempts++
	attempt := b.attempts
	b.mu.Unlock()

	if attempt <= b.failures {
		return errors.New("connection reset")
	}
	close(b.done)
	<-ctx.Done()
	return nil
}

func TestSubscribeWithRetryRecovers(t *testing.T) {
	restore := newBackoff
	newBackoff = func() *backoff.Backoff {
		return &backoff.Backoff{Min: time.Millisecond, Max: 5 * time.Millisecond, Factor: 2}
	}
	defer func() { newBackoff = restore }()

	broker := &flakyBroker{failures: 2, done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	finished := make(chan struct{})
	go func() {
		SubscribeWithRetry(ctx, broker, SubscriptionHandler{SubscriptionId: "moves-sub"})
		close(finished)
	}()

	select {
	case <-broker.done:
	case <-time.After(time.Second):
		t.Fatal("subscriber never recovered")
	}
	cancel()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("SubscribeWithRetry did not return after cancel")
	}
	assert.Equal(t, 3, broker.attempts)
}
