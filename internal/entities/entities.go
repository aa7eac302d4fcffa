// Package entities defines the record store contract every other
// component reads and writes through. Implementations assign identifiers
// and creation timestamps; callers never assume transactions across calls.
package entities

import (
	"context"
	"strings"
)

type Kind string

const (
	KindUser          Kind = "user"
	KindServer        Kind = "server"
	KindChannel       Kind = "channel"
	KindServerMember  Kind = "server_member"
	KindMessage       Kind = "message"
	KindDirectMessage Kind = "direct_message"
)

// Field names shared by several kinds.
const (
	FieldID          = "id"
	FieldCreatedDate = "created_date"
	FieldServerID    = "server_id"
	FieldChannelID   = "channel_id"
	FieldUserID      = "user_id"
	FieldSenderID    = "sender_id"
	FieldReceiverID  = "receiver_id"
	FieldPosition    = "position"
)

// Fields is an exact-match predicate or the column values of a new record.
type Fields map[string]any

// Record is a raw row as returned by a Store, keyed by field name.
type Record map[string]any

func (r Record) ID() int64 {
	switch v := r[FieldID].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Query describes a filtered listing. OrderBy is a field name, prefixed
// with "-" for descending order. Limit <= 0 means no limit.
type Query struct {
	Where   Fields
	OrderBy string
	Limit   int
}

type Store interface {
	Get(ctx context.Context, kind Kind, id int64) (Record, error)
	Filter(ctx context.Context, kind Kind, q Query) ([]Record, error)
	List(ctx context.Context, kind Kind, orderBy string) ([]Record, error)
	Create(ctx context.Context, kind Kind, fields Fields) (Record, error)
	BulkCreate(ctx context.Context, kind Kind, fields []Fields) ([]Record, error)
}

// ParseOrder splits an order string into its field and direction.
func ParseOrder(orderBy string) (field string, desc bool) {
	if strings.HasPrefix(orderBy, "-") {
		return orderBy[1:], true
	}
	return orderBy, false
}

// Desc builds a descending order string for field.
func Desc(field string) string {
	return "-" + field
}
