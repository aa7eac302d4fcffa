package conversation

import (
	"fmt"

	"chatapp-client/internal/chaterr"
)

type Mode string

const (
	ModeChannel Mode = "channel"
	ModeDirect  Mode = "direct"
)

// Target identifies a conversation: one channel, or the unordered pair of
// users in a direct conversation. Self and Peer only orient the queries.
type Target struct {
	Mode      Mode  `json:"mode"`
	ChannelID int64 `json:"channelID,omitempty"`
	Self      int64 `json:"self,omitempty"`
	Peer      int64 `json:"peer,omitempty"`
}

func Channel(channelID int64) Target {
	return Target{Mode: ModeChannel, ChannelID: channelID}
}

func Direct(self, peer int64) Target {
	return Target{Mode: ModeDirect, Self: self, Peer: peer}
}

// Key is equal for both orientations of the same direct conversation.
func (t Target) Key() string {
	if t.Mode == ModeChannel {
		return fmt.Sprintf("channel:%d", t.ChannelID)
	}

	low, high := t.Self, t.Peer
	if low > high {
		low, high = high, low
	}
	return fmt.Sprintf("dm:%d:%d", low, high)
}

func (t Target) Validate() error {
	switch t.Mode {
	case ModeChannel:
		if t.ChannelID == 0 {
			return chaterr.Invalid("channel target without channel ID")
		}
	case ModeDirect:
		if t.Self == 0 || t.Peer == 0 {
			return chaterr.Invalid("direct target needs both users")
		}
		if t.Self == t.Peer {
			return chaterr.Invalid("direct target needs two different users")
		}
	default:
		return chaterr.Invalid("unknown conversation mode %q", t.Mode)
	}
	return nil
}

func (t Target) String() string {
	return t.Key()
}
