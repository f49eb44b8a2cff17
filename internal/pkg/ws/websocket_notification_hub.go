package ws

import (
	"sync"

	"github.com/rs/zerolog/log"
)

const BattlesTopic = "battles"

var singletonMutex sync.Mutex

// Listener is the write side of a websocket connection.
type Listener interface {
	WriteJSON(v interface{}) error
}

type WebSocketNotificationHub struct {
	registrationMutex sync.Mutex
	listeners         map[string][]Listener
}

func (hub *WebSocketNotificationHub) RegisterListener(topic string, conn Listener) {
	hub.registrationMutex.Lock()
	defer hub.registrationMutex.Unlock()

	hub.listeners[topic] = append(hub.listeners[topic], conn)
}

func (hub *WebSocketNotificationHub) UnregisterListener(topic string, conn Listener) {
	hub.registrationMutex.Lock()
	defer hub.registrationMutex.Unlock()

	listeners := hub.listeners[topic]
	for i, listener := range listeners {
		if listener == conn {
			hub.listeners[topic] = append(listeners[:i:i], listeners[i+1:]...)
			break
		}
	}

	if len(hub.listeners[topic]) == 0 {
		delete(hub.listeners, topic)
	}
}

// Publish writes event to every listener of targetTopic and reports how many
// writes succeeded.
func (hub *WebSocketNotificationHub) Publish(targetTopic string, event any) int {
	hub.registrationMutex.Lock()
	defer hub.registrationMutex.Unlock()

	delivered := 0
	for _, listener := range hub.listeners[targetTopic] {
		if err := listener.WriteJSON(event); err != nil {
			log.Warn().Err(err).Str("topic", targetTopic).Msg("Error writing ws message")
			continue
		}
		delivered++
	}
	return delivered
}

func (hub *WebSocketNotificationHub) ListenerCount(topic string) int {
	hub.registrationMutex.Lock()
	defer hub.registrationMutex.Unlock()
	return len(hub.listeners[topic])
}

var notificationHubSingleton *WebSocketNotificationHub

func NewNotificationHub() *WebSocketNotificationHub {
	singletonMutex.Lock()
	defer singletonMutex.Unlock()

	if notificationHubSingleton == nil {
		notificationHubSingleton = newHub()
	}

	return notificationHubSingleton
}

func newHub() *WebSocketNotificationHub {
	return &WebSocketNotificationHub{
		listeners: make(map[string][]Listener),
	}
}
