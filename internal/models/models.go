package models

import (
	"strings"
	"time"

	"chatapp-client/internal/presence"
)

type User struct {
	ID          int64     `json:"id" validate:"required"`
	Username    string    `json:"username,omitempty" validate:"max=32"`
	Email       string    `json:"email,omitempty" validate:"max=64"`
	DisplayName string    `json:"display_name,omitempty" validate:"max=64"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Status      string    `json:"status"`
	Bio         string    `json:"bio,omitempty" validate:"max=200"`
	BannerColor string    `json:"banner_color,omitempty"`
	CreatedAt   time.Time `json:"created_date"`
}

// Handle is the name shown for a user: username, then display name, then
// the local part of the email address.
func (u User) Handle() string {
	if u.Username != "" {
		return u.Username
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

func (u User) Presence() presence.Status {
	return presence.Resolve(u.Status)
}

func (u *User) Normalize() {
	u.Status = string(presence.Resolve(u.Status))
}

type Server struct {
	ID          int64     `json:"id" validate:"required"`
	Name        string    `json:"name" validate:"required,max=64"`
	Description string    `json:"description,omitempty"`
	IconURL     string    `json:"icon_url,omitempty"`
	OwnerID     int64     `json:"owner_id" validate:"required"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_date"`
}

type ChannelType string

const (
	ChannelText  ChannelType = "text"
	ChannelVoice ChannelType = "voice"
	ChannelVideo ChannelType = "video"
)

type Channel struct {
	ID          int64       `json:"id" validate:"required"`
	ServerID    int64       `json:"server_id" validate:"required"`
	Name        string      `json:"name" validate:"required,max=32"`
	Description string      `json:"description,omitempty"`
	Type        ChannelType `json:"type" validate:"oneof=text voice video"`
	Position    int         `json:"position" validate:"min=0"`
	CreatedAt   time.Time   `json:"created_date"`
}

func (c *Channel) Normalize() {
	if c.Type == "" {
		c.Type = ChannelText
	}
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type ServerMember struct {
	ID        int64     `json:"id" validate:"required"`
	ServerID  int64     `json:"server_id" validate:"required"`
	UserID    int64     `json:"user_id" validate:"required"`
	Username  string    `json:"username,omitempty"`
	Role      Role      `json:"role" validate:"oneof=owner admin member"`
	Nickname  string    `json:"nickname,omitempty"`
	CreatedAt time.Time `json:"created_date"`
}

func (m *ServerMember) Normalize() {
	if m.Role == "" {
		m.Role = RoleMember
	}
}

type Message struct {
	ID        int64     `json:"id" validate:"required"`
	ChannelID int64     `json:"channel_id" validate:"required"`
	UserID    int64     `json:"user_id" validate:"required"`
	Username  string    `json:"username,omitempty"`
	Content   string    `json:"content" validate:"required"`
	CreatedAt time.Time `json:"created_date"`
}

type DirectMessage struct {
	ID             int64     `json:"id" validate:"required"`
	SenderID       int64     `json:"sender_id" validate:"required"`
	ReceiverID     int64     `json:"receiver_id" validate:"required"`
	SenderUsername string    `json:"sender_username,omitempty"`
	Content        string    `json:"content" validate:"required"`
	CreatedAt      time.Time `json:"created_date"`
}
