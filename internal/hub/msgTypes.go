package hub

import "fmt"

// Event types
const (
	Connected       = "Connected"
	ViewUpdated     = "ViewUpdated"
	ServerCreated   = "ServerCreated"
	ChannelCreated  = "ChannelCreated"
	MessageSent     = "MessageSent"
	ProfileModified = "ProfileModified"
)

// Keys sessions subscribe to
const (
	KeyConversation = "conversation"
	KeyDirectory    = "directory"
)

// ConversationKey carries the conversation events of one user only.
func ConversationKey(userID int64) string {
	return fmt.Sprintf("%s:%d", KeyConversation, userID)
}
