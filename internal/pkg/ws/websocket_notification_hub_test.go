package ws

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeListener struct {
	events []any
	err    error
}

func (f *fakeListener) WriteJSON(v interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, v)
	return nil
}

func TestHubPublishesToTopicListeners(t *testing.T) {
	hub := newHub()
	first, second, other := &fakeListener{}, &fakeListener{}, &fakeListener{}
	hub.RegisterListener(BattlesTopic, first)
	hub.RegisterListener(BattlesTopic, second)
	hub.RegisterListener("pause", other)

	delivered := hub.Publish(BattlesTopic, "round-1")

	assert.Equal(t, 2, delivered)
	assert.Equal(t, []any{"round-1"}, first.events)
	assert.Equal(t, []any{"round-1"}, second.events)
	assert.Empty(t, other.events)
}

func TestHubSkipsBrokenListeners(t *testing.T) {
	hub := newHub()
	broken := &fakeListener{err: errors.New("broken pipe")}
	healthy := &fakeListener{}
	hub.RegisterListener(BattlesTopic, broken)
	hub.RegisterListener(BattlesTopic, healthy)

	assert.Equal(t, 1, hub.Publish(BattlesTopic, "round-1"))
	assert.Equal(t, 2, hub.ListenerCount(BattlesTopic))
}

func TestHubUnregisterRemovesOnlyThatListener(t *testing.T) {
	hub := newHub()
	first, second := &fakeListener{}, &fakeListener{}
	hub.RegisterListener(BattlesTopic, first)
	hub.RegisterListener(BattlesTopic, second)

	hub.UnregisterListener(BattlesTopic, first)
	hub.Publish(BattlesTopic, "round-2")

	assert.Empty(t, first.events)
	assert.Equal(t, []any{"round-2"}, second.events)

	hub.UnregisterListener(BattlesTopic, second)
	assert.Zero(t, hub.ListenerCount(BattlesTopic))
}

func TestNewNotificationHubIsShared(t *testing.T) {
	assert.Same(t, NewNotificationHub(), NewNotificationHub())
}
