package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserHandle(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		expected string
	}{
		{name: "username wins", user: User{Username: "neo", DisplayName: "Thomas", Email: "tom@example.com"}, expected: "neo"},
		{name: "display name fallback", user: User{DisplayName: "Thomas", Email: "tom@example.com"}, expected: "Thomas"},
		{name: "email local part", user: User{Email: "tom@example.com"}, expected: "tom"},
		{name: "email without at sign", user: User{Email: "tom"}, expected: "tom"},
		{name: "nothing", user: User{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.user.Handle())
		})
	}
}

func TestNormalize(t *testing.T) {
	u := User{Status: "sleeping"}
	u.Normalize()
	assert.Equal(t, "offline", u.Status)

	c := Channel{}
	c.Normalize()
	assert.Equal(t, ChannelText, c.Type)

	m := ServerMember{}
	m.Normalize()
	assert.Equal(t, RoleMember, m.Role)
}
