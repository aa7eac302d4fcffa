// Package identity registers and signs in local users and answers who the
// current user is.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatapp-client/internal/chaterr"
	"chatapp-client/internal/entities"
	"chatapp-client/internal/keyValue"
	"chatapp-client/internal/models"
	"chatapp-client/internal/presence"
	"chatapp-client/internal/validator"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const passwordField = "password_hash"

// ProfileWriter updates user records in place.
type ProfileWriter interface {
	UpdateUser(ctx context.Context, id int64, fields entities.Fields) (entities.Record, error)
}

type Provider struct {
	store    entities.Store
	profiles ProfileWriter
	cache    *keyValue.Cache
	secret   []byte
	cacheTTL time.Duration
	sugar    *zap.SugaredLogger

	bcryptCost int
	now        func() time.Time
}

func New(store entities.Store, profiles ProfileWriter, cache *keyValue.Cache, secret string, cacheTTL time.Duration, sugar *zap.SugaredLogger) *Provider {
	return &Provider{
		store:      store,
		profiles:   profiles,
		cache:      cache,
		secret:     []byte(secret),
		cacheTTL:   cacheTTL,
		sugar:      sugar,
		bcryptCost: 12,
		now:        time.Now,
	}
}

type Registration struct {
	Email    string `json:"email" validate:"required,email,max=64"`
	Username string `json:"username" validate:"max=32"`
	Password string `json:"password" validate:"password"`
}

func (p *Provider) Register(ctx context.Context, reg Registration) (models.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Username = strings.TrimSpace(reg.Username)

	err := validator.Struct(reg)
	if err != nil {
		return models.User{}, err
	}

	existing, err := p.store.Filter(ctx, entities.KindUser, entities.Query{
		Where: entities.Fields{"email": reg.Email},
		Limit: 1,
	})
	if err != nil {
		return models.User{}, err
	}
	if len(existing) > 0 {
		return models.User{}, chaterr.Invalid("email already registered")
	}

	if reg.Username == "" {
		reg.Username, _, _ = strings.Cut(reg.Email, "@")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), p.bcryptCost)
	if err != nil {
		return models.User{}, err
	}

	user, err := entities.CreateAs[models.User](ctx, p.store, entities.KindUser, entities.Fields{
		"email":       reg.Email,
		"username":    reg.Username,
		"status":      string(presence.Online),
		passwordField: string(hash),
	})
	if err != nil {
		return models.User{}, err
	}

	p.sugar.Infof("Registered user ID %d", user.ID)
	return user, nil
}

// Login checks the credentials and returns a signed session token.
func (p *Provider) Login(ctx context.Context, email string, password string, remember bool) (string, time.Time, models.User, error) {
	recs, err := p.store.Filter(ctx, entities.KindUser, entities.Query{
		Where: entities.Fields{"email": strings.TrimSpace(email)},
		Limit: 1,
	})
	if err != nil {
		return "", time.Time{}, models.User{}, err
	}
	if len(recs) == 0 {
		return "", time.Time{}, models.User{}, chaterr.ErrUnauthenticated
	}

	hash, _ := recs[0][passwordField].(string)
	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		p.sugar.Debug(err)
		return "", time.Time{}, models.User{}, chaterr.ErrUnauthenticated
	}

	user, err := entities.Decode[models.User](recs[0])
	if err != nil {
		return "", time.Time{}, models.User{}, err
	}

	token, expires, err := p.CreateToken(user.ID, remember)
	if err != nil {
		return "", time.Time{}, models.User{}, err
	}
	return token, expires, user, nil
}

// WhoAmI resolves a session token to its user. Users are cached for a
// while so that every request doesn't hit the store.
func (p *Provider) WhoAmI(ctx context.Context, tokenString string) (models.User, error) {
	token, err := p.VerifyToken(tokenString)
	if err != nil {
		return models.User{}, err
	}
	return p.User(ctx, token.UserID)
}

// User loads a user through the cache. A user that no longer exists is
// ErrUnauthenticated.
func (p *Provider) User(ctx context.Context, userID int64) (models.User, error) {
	key := cacheKey(userID)

	cached, err := p.cache.Get(ctx, key)
	if err != nil {
		p.sugar.Warnf("Reading cached user ID %d: %v", userID, err)
	} else if cached != "" {
		var user models.User
		if err := json.Unmarshal([]byte(cached), &user); err == nil {
			p.sugar.Debugf("User ID %d was found in cache", userID)
			return user, nil
		}
	}

	user, err := entities.GetAs[models.User](ctx, p.store, entities.KindUser, userID)
	if errors.Is(err, chaterr.ErrNotFound) {
		return models.User{}, fmt.Errorf("%w: user %d no longer exists", chaterr.ErrUnauthenticated, userID)
	} else if err != nil {
		return models.User{}, err
	}

	p.remember(ctx, user)
	return user, nil
}

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=64"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,uri,max=512"`
	Status      *string `json:"status" validate:"omitempty,oneof=online away busy offline"`
	Bio         *string `json:"bio" validate:"omitempty,max=200"`
	BannerColor *string `json:"banner_color" validate:"omitempty,len=7,hexcolor"`
}

func (p *Provider) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (models.User, error) {
	if userID == 0 {
		return models.User{}, chaterr.ErrUnauthenticated
	}

	if update.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*update.Status))
		update.Status = &status
	}

	err := validator.Struct(update)
	if err != nil {
		return models.User{}, err
	}

	fields := entities.Fields{}
	set := func(name string, value *string) {
		if value != nil {
			fields[name] = *value
		}
	}
	set("display_name", update.DisplayName)
	set("avatar_url", update.AvatarURL)
	set("status", update.Status)
	set("bio", update.Bio)
	set("banner_color", update.BannerColor)

	if len(fields) == 0 {
		return p.User(ctx, userID)
	}

	rec, err := p.profiles.UpdateUser(ctx, userID, fields)
	if errors.Is(err, chaterr.ErrNotFound) {
		return models.User{}, fmt.Errorf("%w: user %d no longer exists", chaterr.ErrUnauthenticated, userID)
	} else if err != nil {
		return models.User{}, err
	}

	user, err := entities.Decode[models.User](rec)
	if err != nil {
		return models.User{}, err
	}

	p.remember(ctx, user)
	return user, nil
}

func (p *Provider) remember(ctx context.Context, user models.User) {
	bytes, err := json.Marshal(user)
	if err != nil {
		p.sugar.Error(err)
		return
	}

	err = p.cache.Set(ctx, cacheKey(user.ID), string(bytes), p.cacheTTL)
	if err != nil {
		p.sugar.Warnf("Caching user ID %d: %v", user.ID, err)
	}
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
