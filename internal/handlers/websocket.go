package handlers

import (
	"context"
	"net/http"

	"chatapp-client/internal/hub"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// HandleWebSocket pushes hub events to the presentation layer: the user's
// own conversation events and directory changes.
func HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	sessionID, _, err := deps.SessionIDs.Generate()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has answered already
		sugar.Debug(err)
		return
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			sugar.Debug(err)
		}
	}()

	sugar.Debugf("User ID %d connected to websocket as session ID %d", user.ID, sessionID)

	events := deps.Hub.Connect(sessionID)
	defer deps.Hub.Disconnect(sessionID)

	for _, key := range []string{hub.ConversationKey(user.ID), hub.KeyDirectory} {
		err = deps.Hub.Subscribe(key, sessionID)
		if err != nil {
			sugar.Error(err)
			return
		}
	}

	// tells the client it will not miss events from here on
	err = conn.WriteJSON(hub.Event{Type: hub.Connected})
	if err != nil {
		sugar.Debug(err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// forwarding hub events to the client
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				err := conn.WriteJSON(event)
				if err != nil {
					sugar.Debug(err)
					return
				}
			}
		}
	}()

	// reading only to notice the client going away
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			sugar.Debugf("Session ID %d left: %v", sessionID, err)
			break
		}
	}
}
