package conversation

import (
	"cmp"
	"slices"
	"time"

	"chatapp-client/internal/grouping"
	"chatapp-client/internal/models"
)

// Item is a message of either conversation kind as the views show it.
type Item struct {
	ID          int64     `json:"id,string"`
	Author      int64     `json:"authorID,string"`
	AuthorName  string    `json:"authorName"`
	RecipientID int64     `json:"recipientID,string,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (i Item) AuthorID() int64 {
	return i.Author
}

func FromMessage(m models.Message) Item {
	return Item{
		ID:         m.ID,
		Author:     m.UserID,
		AuthorName: m.Username,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt,
	}
}

func FromDirectMessage(d models.DirectMessage) Item {
	return Item{
		ID:          d.ID,
		Author:      d.SenderID,
		AuthorName:  d.SenderUsername,
		RecipientID: d.ReceiverID,
		Content:     d.Content,
		CreatedAt:   d.CreatedAt,
	}
}

// Compare orders by creation time, then identifier.
func Compare(a, b Item) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Merge combines independently fetched sets into one sequence sorted by
// Compare. An identifier seen in more than one set is kept once.
func Merge(sets ...[]Item) []Item {
	size := 0
	for _, set := range sets {
		size += len(set)
	}

	seen := make(map[int64]struct{}, size)
	merged := make([]Item, 0, size)
	for _, set := range sets {
		for _, item := range set {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			merged = append(merged, item)
		}
	}

	slices.SortFunc(merged, Compare)
	return merged
}

// View is one synchronization result for a conversation.
type View struct {
	Target    Target    `json:"target"`
	Key       string    `json:"key"`
	Items     []Item    `json:"items"`
	RunStarts []bool    `json:"runStarts"`
	Version   uint64    `json:"version"`
	SyncedAt  time.Time `json:"syncedAt"`
}

func newView(target Target, items []Item, version uint64, at time.Time) View {
	return View{
		Target:    target,
		Key:       target.Key(),
		Items:     items,
		RunStarts: grouping.RunStarts(items),
		Version:   version,
		SyncedAt:  at,
	}
}

// Contains reports whether the view holds the item with id.
func (v View) Contains(id int64) bool {
	return slices.ContainsFunc(v.Items, func(i Item) bool { return i.ID == id })
}
