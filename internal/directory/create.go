package directory

import (
	"context"
	"slices"
	"strings"

	"chatapp-client/internal/chaterr"
	"chatapp-client/internal/entities"
	"chatapp-client/internal/hub"
	"chatapp-client/internal/models"
	"chatapp-client/internal/validator"
)

const DefaultChannelName = "new-channel"

type defaultChannel struct {
	name     string
	kind     models.ChannelType
	position int
}

var defaultChannels = []defaultChannel{
	{"general", models.ChannelText, 0},
	{"voice-chat", models.ChannelVoice, 1},
}

type ServerParams struct {
	Name        string `json:"name" validate:"required,max=64"`
	Description string `json:"description" validate:"max=512"`
	IconURL     string `json:"icon_url" validate:"omitempty,url"`
	IsPublic    bool   `json:"is_public"`
}

// CreateServer creates a server owned by owner, the owner's membership and
// the default channels. The steps are separate writes. If one after the
// server fails, the server is left in place and the error is a
// *chaterr.PartialCreateError; ResumeCreate finishes the job.
func (m *Model) CreateServer(ctx context.Context, owner models.User, params ServerParams) (Detail, error) {
	if owner.ID == 0 {
		return Detail{}, chaterr.ErrUnauthenticated
	}

	params.Name = strings.TrimSpace(params.Name)
	if err := validator.Struct(params); err != nil {
		return Detail{}, err
	}

	server, err := entities.CreateAs[models.Server](ctx, m.store, entities.KindServer, entities.Fields{
		"name":        params.Name,
		"description": params.Description,
		"icon_url":    params.IconURL,
		"owner_id":    owner.ID,
		"is_public":   params.IsPublic,
	})
	if err != nil {
		return Detail{}, err
	}

	// the server exists from here on, even if a later step fails
	m.mutex.Lock()
	m.servers = append([]models.Server{server}, m.servers...)
	m.mutex.Unlock()

	detail, err := m.finishCreate(ctx, owner, server)
	if err != nil {
		return Detail{}, err
	}

	m.sugar.Infof("User ID %d created server ID %d", owner.ID, server.ID)
	m.emit(hub.ServerCreated, detail)
	return detail, nil
}

// ResumeCreate re-runs the steps after server creation, skipping what is
// already there. It is safe to call on a server that is complete.
func (m *Model) ResumeCreate(ctx context.Context, owner models.User, serverID int64) (Detail, error) {
	if owner.ID == 0 {
		return Detail{}, chaterr.ErrUnauthenticated
	}

	server, err := entities.GetAs[models.Server](ctx, m.store, entities.KindServer, serverID)
	if err != nil {
		return Detail{}, err
	}
	if server.OwnerID != owner.ID {
		return Detail{}, chaterr.Invalid("user %d does not own server %d", owner.ID, serverID)
	}

	return m.finishCreate(ctx, owner, server)
}

func (m *Model) finishCreate(ctx context.Context, owner models.User, server models.Server) (Detail, error) {
	membership, err := m.ensureOwnerMembership(ctx, owner, server.ID)
	if err != nil {
		return Detail{}, &chaterr.PartialCreateError{ServerID: server.ID, Step: chaterr.StepMembership, Err: err}
	}

	channels, err := m.ensureDefaultChannels(ctx, server.ID)
	if err != nil {
		return Detail{}, &chaterr.PartialCreateError{ServerID: server.ID, Step: chaterr.StepChannels, Err: err}
	}

	return Detail{
		Server:   server,
		Channels: channels,
		Members:  []Member{{Membership: membership, Presence: owner.Presence()}},
	}, nil
}

func (m *Model) ensureOwnerMembership(ctx context.Context, owner models.User, serverID int64) (models.ServerMember, error) {
	existing, err := entities.FilterAs[models.ServerMember](ctx, m.store, entities.KindServerMember, entities.Query{
		Where: entities.Fields{
			entities.FieldServerID: serverID,
			entities.FieldUserID:   owner.ID,
		},
		Limit: 1,
	})
	if err != nil {
		return models.ServerMember{}, err
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	return entities.CreateAs[models.ServerMember](ctx, m.store, entities.KindServerMember, entities.Fields{
		entities.FieldServerID: serverID,
		entities.FieldUserID:   owner.ID,
		"username":             owner.Handle(),
		"role":                 string(models.RoleOwner),
	})
}

// ensureDefaultChannels creates the default channels whose positions are
// still free and returns every channel of the server.
func (m *Model) ensureDefaultChannels(ctx context.Context, serverID int64) ([]models.Channel, error) {
	channels, err := m.loadChannels(ctx, serverID)
	if err != nil {
		return nil, err
	}

	taken := make(map[int]struct{}, len(channels))
	for _, c := range channels {
		taken[c.Position] = struct{}{}
	}

	var missing []entities.Fields
	for _, d := range defaultChannels {
		if _, ok := taken[d.position]; ok {
			continue
		}
		missing = append(missing, entities.Fields{
			entities.FieldServerID: serverID,
			"name":                 d.name,
			"type":                 string(d.kind),
			entities.FieldPosition: d.position,
		})
	}
	if len(missing) == 0 {
		return channels, nil
	}

	if _, err := m.store.BulkCreate(ctx, entities.KindChannel, missing); err != nil {
		return nil, err
	}

	return m.loadChannels(ctx, serverID)
}

// CreateChannel appends a channel after the last one of serverID. An empty
// name becomes DefaultChannelName and an empty kind becomes text.
func (m *Model) CreateChannel(ctx context.Context, serverID int64, name string, kind models.ChannelType) (models.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultChannelName
	}
	if len(name) > 32 {
		return models.Channel{}, chaterr.Invalid("channel name longer than 32 characters")
	}
	if kind == "" {
		kind = models.ChannelText
	}
	switch kind {
	case models.ChannelText, models.ChannelVoice, models.ChannelVideo:
	default:
		return models.Channel{}, chaterr.Invalid("unknown channel kind %q", kind)
	}

	m.createMutex.Lock()
	defer m.createMutex.Unlock()

	if _, err := m.store.Get(ctx, entities.KindServer, serverID); err != nil {
		return models.Channel{}, err
	}

	last, err := entities.FilterAs[models.Channel](ctx, m.store, entities.KindChannel, entities.Query{
		Where:   entities.Fields{entities.FieldServerID: serverID},
		OrderBy: entities.Desc(entities.FieldPosition),
		Limit:   1,
	})
	if err != nil {
		return models.Channel{}, err
	}

	position := 0
	if len(last) > 0 {
		position = last[0].Position + 1
	}

	channel, err := entities.CreateAs[models.Channel](ctx, m.store, entities.KindChannel, entities.Fields{
		entities.FieldServerID: serverID,
		"name":                 name,
		"type":                 string(kind),
		entities.FieldPosition: position,
	})
	if err != nil {
		return models.Channel{}, err
	}

	m.mutex.Lock()
	if m.open != nil && m.open.Server.ID == serverID {
		updated := *m.open
		updated.Channels = append(slices.Clone(m.open.Channels), channel)
		m.open = &updated
	}
	m.mutex.Unlock()

	m.emit(hub.ChannelCreated, channel)
	return channel, nil
}
