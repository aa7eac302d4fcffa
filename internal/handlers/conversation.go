package handlers

import (
	"net/http"

	"chatapp-client/internal/chaterr"
	"chatapp-client/internal/conversation"
)

// targetRequest names a channel or, for a direct conversation, the other
// user. Exactly one must be set.
type targetRequest struct {
	ChannelID int64 `json:"channelID,string,omitempty"`
	PeerID    int64 `json:"peerID,string,omitempty"`
}

func (t targetRequest) target(self int64) (conversation.Target, error) {
	switch {
	case t.ChannelID != 0 && t.PeerID == 0:
		return conversation.Channel(t.ChannelID), nil
	case t.PeerID != 0 && t.ChannelID == 0:
		return conversation.Direct(self, t.PeerID), nil
	default:
		return conversation.Target{}, chaterr.Invalid("exactly one of channelID and peerID is needed")
	}
}

func OpenConversation(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if !readJSON(w, r, &req) {
		return
	}

	user := currentUser(r)

	target, err := req.target(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	err = deps.Conversations.For(user.ID).Open(r.Context(), target)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, target)
}

// GetConversationView answers with the current user's own view, or 204
// until its first poll has completed.
func GetConversationView(w http.ResponseWriter, r *http.Request) {
	view, ok := deps.Conversations.For(currentUser(r).ID).View()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func CloseConversation(w http.ResponseWriter, r *http.Request) {
	deps.Conversations.For(currentUser(r).ID).Close()
	w.WriteHeader(http.StatusOK)
}

func SendMessage(w http.ResponseWriter, r *http.Request) {
	type Message struct {
		targetRequest
		Content string `json:"content"`
	}

	var msg Message
	if !readJSON(w, r, &msg) {
		return
	}

	user := currentUser(r)

	target, err := msg.target(user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := deps.Sender.Send(r.Context(), target, user, msg.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
