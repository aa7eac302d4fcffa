// Package hub fans engine events out to presentation sessions in the same
// process.
package hub

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Event is one message for a session. Payload is JSON.
type Event struct {
	Type    string          `json:"type"`
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
}

type Hub struct {
	mutex       sync.RWMutex
	sessions    map[int64]chan Event
	subscribers map[string][]int64
	buffer      int
	sugar       *zap.SugaredLogger
}

func New(sugar *zap.SugaredLogger, buffer int) *Hub {
	return &Hub{
		sessions:    make(map[int64]chan Event),
		subscribers: make(map[string][]int64),
		buffer:      buffer,
		sugar:       sugar,
	}
}

// Connect registers a session and returns the channel its events arrive on.
func (h *Hub) Connect(sessionID int64) <-chan Event {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if ch, exists := h.sessions[sessionID]; exists {
		return ch
	}

	ch := make(chan Event, h.buffer)
	h.sessions[sessionID] = ch
	h.sugar.Debugf("Session ID %d connected to hub", sessionID)
	return ch
}

// Disconnect removes the session from every key and closes its channel.
func (h *Hub) Disconnect(sessionID int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	ch, exists := h.sessions[sessionID]
	if !exists {
		return
	}

	for key := range h.subscribers {
		h.unsubscribe(key, sessionID)
	}
	delete(h.sessions, sessionID)
	close(ch)

	h.sugar.Debugf("Session ID %d disconnected from hub", sessionID)
}

func (h *Hub) Subscribe(key string, sessionID int64) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, exists := h.sessions[sessionID]; !exists {
		return fmt.Errorf("session ID [%d] tried to subscribe to [%s] but the session isn't connected to hub", sessionID, key)
	}

	for _, id := range h.subscribers[key] {
		if id == sessionID {
			return nil
		}
	}
	h.subscribers[key] = append(h.subscribers[key], sessionID)

	h.sugar.Debugf("Session ID %d subscribed to %s", sessionID, key)
	return nil
}

func (h *Hub) Unsubscribe(key string, sessionID int64) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.unsubscribe(key, sessionID)
}

func (h *Hub) unsubscribe(key string, sessionID int64) {
	sessionIDs := h.subscribers[key]

	// this won't run in case key doesn't exist since length will be 0
	for i := range sessionIDs {
		if sessionIDs[i] == sessionID {
			sessionIDs[i] = sessionIDs[len(sessionIDs)-1]
			h.subscribers[key] = sessionIDs[:len(sessionIDs)-1]
			break
		}
	}

	// delete key from map if no session is subscribed to it
	if len(h.subscribers[key]) == 0 {
		delete(h.subscribers, key)
	}
}

// Emit sends message to every session subscribed to key. A session whose
// buffer is full misses the event rather than stalling the sender.
func (h *Hub) Emit(eventType string, key string, message any) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	event := Event{Type: eventType, Key: key, Payload: payload}

	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for _, sessionID := range h.subscribers[key] {
		ch, exists := h.sessions[sessionID]
		if !exists {
			h.sugar.Warnf("Session ID %d is supposed to be available", sessionID)
			continue
		}

		select {
		case ch <- event:
		default:
			h.sugar.Warnf("Session ID %d is not keeping up, dropped %s on %s", sessionID, eventType, key)
		}
	}

	return nil
}
