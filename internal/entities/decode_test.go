package entities

import (
	"testing"
	"time"

	"chatapp-client/internal/chaterr"
	"chatapp-client/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNormalizesUser(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rec := Record{
		"id":            int64(42),
		"username":      "neo",
		"email":         "neo@example.com",
		"status":        "dancing",
		"created_date":  created,
		"password_hash": "ignored",
	}

	user, err := Decode[models.User](rec)
	require.NoError(t, err)

	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "offline", user.Status)
	assert.Equal(t, created, user.CreatedAt)
}

func TestDecodeDefaultsChannelType(t *testing.T) {
	channel, err := Decode[models.Channel](Record{"id": int64(1), "server_id": int64(2), "name": "general"})
	require.NoError(t, err)
	assert.Equal(t, models.ChannelText, channel.Type)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{name: "missing content", rec: Record{"id": int64(1), "channel_id": int64(2), "user_id": int64(3)}},
		{name: "missing id", rec: Record{"channel_id": int64(2), "user_id": int64(3), "content": "hi"}},
		{name: "wrong type", rec: Record{"id": "abc", "channel_id": int64(2), "user_id": int64(3), "content": "hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode[models.Message](tt.rec)
			assert.ErrorIs(t, err, chaterr.ErrInvalid)
		})
	}
}

func TestDecodeEachSkipsBadRecords(t *testing.T) {
	recs := []Record{
		{"id": int64(1), "channel_id": int64(2), "user_id": int64(3), "content": "ok"},
		{"id": int64(2), "channel_id": int64(2), "user_id": int64(3)},
	}

	msgs, errs := DecodeEach[models.Message](recs)
	assert.Len(t, msgs, 1)
	assert.Len(t, errs, 1)

	_, err := DecodeAll[models.Message](recs)
	assert.ErrorIs(t, err, chaterr.ErrInvalid)
}

func TestParseOrder(t *testing.T) {
	field, desc := ParseOrder("-created_date")
	assert.Equal(t, "created_date", field)
	assert.True(t, desc)

	field, desc = ParseOrder(FieldPosition)
	assert.Equal(t, "position", field)
	assert.False(t, desc)

	assert.Equal(t, "-created_date", Desc(FieldCreatedDate))
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, int64(5), Record{"id": int64(5)}.ID())
	assert.Equal(t, int64(5), Record{"id": 5}.ID())
	assert.Equal(t, int64(5), Record{"id": float64(5)}.ID())
	assert.Equal(t, int64(0), Record{}.ID())
}
