// Package directory holds the servers visible to the current user and the
// channel and member graph of the open server.
package directory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"chatapp-client/internal/chaterr"
	"chatapp-client/internal/entities"
	"chatapp-client/internal/hub"
	"chatapp-client/internal/models"
	"chatapp-client/internal/presence"

	"go.uber.org/zap"
)

type Member struct {
	Membership models.ServerMember `json:"membership"`
	Presence   presence.Status     `json:"presence"`
}

type Contact struct {
	User     models.User     `json:"user"`
	Presence presence.Status `json:"presence"`
}

// Detail is a snapshot of one server. Channels are in display order.
type Detail struct {
	Server   models.Server    `json:"server"`
	Channels []models.Channel `json:"channels"`
	Members  []Member         `json:"members"`
}

type Model struct {
	store entities.Store
	hub   *hub.Hub
	sugar *zap.SugaredLogger

	mutex   sync.RWMutex
	servers []models.Server
	open    *Detail

	// channel positions are read then written, one creation at a time
	createMutex sync.Mutex
}

// New returns a Model. events may be nil.
func New(store entities.Store, events *hub.Hub, sugar *zap.SugaredLogger) *Model {
	return &Model{store: store, hub: events, sugar: sugar}
}

// LoadServers returns the servers user can see, newest first: public
// servers, servers user owns and servers user is a member of.
func (m *Model) LoadServers(ctx context.Context, user models.User) ([]models.Server, error) {
	if user.ID == 0 {
		return nil, chaterr.ErrUnauthenticated
	}

	recs, err := m.store.List(ctx, entities.KindServer, entities.Desc(entities.FieldCreatedDate))
	if err != nil {
		return nil, err
	}
	all := decode[models.Server](m, recs)

	memberRecs, err := m.store.Filter(ctx, entities.KindServerMember, entities.Query{
		Where: entities.Fields{entities.FieldUserID: user.ID},
	})
	if err != nil {
		return nil, err
	}

	joined := make(map[int64]struct{})
	for _, membership := range decode[models.ServerMember](m, memberRecs) {
		joined[membership.ServerID] = struct{}{}
	}

	servers := make([]models.Server, 0, len(all))
	for _, server := range all {
		_, member := joined[server.ID]
		if server.IsPublic || server.OwnerID == user.ID || member {
			servers = append(servers, server)
		}
	}

	m.mutex.Lock()
	m.servers = servers
	m.mutex.Unlock()

	return servers, nil
}

// Servers returns the list from the last successful LoadServers, with
// servers created since then in front.
func (m *Model) Servers() []models.Server {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.servers
}

// LoadServerDetail reads one server with its channels ordered by position,
// then identifier, and its members with their presence.
func (m *Model) LoadServerDetail(ctx context.Context, serverID int64) (Detail, error) {
	server, err := entities.GetAs[models.Server](ctx, m.store, entities.KindServer, serverID)
	if err != nil {
		return Detail{}, err
	}

	channels, err := m.loadChannels(ctx, serverID)
	if err != nil {
		return Detail{}, err
	}

	memberRecs, err := m.store.Filter(ctx, entities.KindServerMember, entities.Query{
		Where:   entities.Fields{entities.FieldServerID: serverID},
		OrderBy: entities.FieldCreatedDate,
	})
	if err != nil {
		return Detail{}, err
	}

	memberships := decode[models.ServerMember](m, memberRecs)
	members := make([]Member, len(memberships))
	users := make(map[int64]models.User, len(memberships))
	for i, membership := range memberships {
		user, seen := users[membership.UserID]
		if !seen {
			user, err = m.memberUser(ctx, membership.UserID)
			if err != nil {
				return Detail{}, err
			}
			users[membership.UserID] = user
		}

		// unknown users resolve like an unset status
		members[i] = Member{
			Membership: membership,
			Presence:   user.Presence(),
		}
	}

	return Detail{Server: server, Channels: channels, Members: members}, nil
}

// memberUser reads one member's user. A missing or malformed user is the
// zero User, which resolves to offline.
func (m *Model) memberUser(ctx context.Context, userID int64) (models.User, error) {
	user, err := entities.GetAs[models.User](ctx, m.store, entities.KindUser, userID)
	switch {
	case errors.Is(err, chaterr.ErrNotFound):
		return models.User{}, nil
	case errors.Is(err, chaterr.ErrInvalid):
		m.sugar.Warnf("Skipping malformed user ID %d: %v", userID, err)
		return models.User{}, nil
	case err != nil:
		return models.User{}, err
	}
	return user, nil
}

func (m *Model) loadChannels(ctx context.Context, serverID int64) ([]models.Channel, error) {
	recs, err := m.store.Filter(ctx, entities.KindChannel, entities.Query{
		Where:   entities.Fields{entities.FieldServerID: serverID},
		OrderBy: entities.FieldPosition,
	})
	if err != nil {
		return nil, err
	}

	channels := decode[models.Channel](m, recs)
	slices.SortStableFunc(channels, func(a, b models.Channel) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return channels, nil
}

// Open loads serverID and keeps it as the open server. On failure the
// previously open server stays.
func (m *Model) Open(ctx context.Context, serverID int64) (Detail, error) {
	detail, err := m.LoadServerDetail(ctx, serverID)
	if err != nil {
		return Detail{}, err
	}

	m.mutex.Lock()
	m.open = &detail
	m.mutex.Unlock()

	return detail, nil
}

// Current returns the open server.
func (m *Model) Current() (Detail, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.open == nil {
		return Detail{}, false
	}
	return *m.open, true
}

// LoadUsers lists everyone except self for starting direct conversations.
// A non-empty query keeps users whose username or email contains it,
// ignoring case.
func (m *Model) LoadUsers(ctx context.Context, self models.User, query string) ([]Contact, error) {
	if self.ID == 0 {
		return nil, chaterr.ErrUnauthenticated
	}

	recs, err := m.store.List(ctx, entities.KindUser, "")
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))

	var contacts []Contact
	for _, user := range decode[models.User](m, recs) {
		if user.ID == self.ID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(user.Username), query) &&
			!strings.Contains(strings.ToLower(user.Email), query) {
			continue
		}
		contacts = append(contacts, Contact{User: user, Presence: user.Presence()})
	}

	slices.SortFunc(contacts, func(a, b Contact) int {
		if c := strings.Compare(strings.ToLower(a.User.Handle()), strings.ToLower(b.User.Handle())); c != 0 {
			return c
		}
		return cmp.Compare(a.User.ID, b.User.ID)
	})
	return contacts, nil
}

// decode converts what it can and logs the records it had to skip.
func decode[T any](m *Model, recs []entities.Record) []T {
	out, errs := entities.DecodeEach[T](recs)
	for _, err := range errs {
		m.sugar.Warnf("Skipping malformed record: %v", err)
	}
	return out
}

func (m *Model) emit(eventType string, message any) {
	if m.hub == nil {
		return
	}
	if err := m.hub.Emit(eventType, hub.KeyDirectory, message); err != nil {
		m.sugar.Error(err)
	}
}
