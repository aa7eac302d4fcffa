package identity

import (
	"fmt"
	"time"

	"chatapp-client/internal/chaterr"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionLifetime  = time.Hour * 24         // 1 day
	rememberLifetime = time.Hour * 24 * 7 * 4 // 4 weeks

	// tokens older than this are reissued on use
	RenewAfter = 15 * time.Minute
)

type Token struct {
	UserID   int64 `json:"userID"`
	Remember bool  `json:"rem"`
	jwt.RegisteredClaims
}

// CreateToken signs a session token for userID.
func (p *Provider) CreateToken(userID int64, remember bool) (string, time.Time, error) {
	lifetime := sessionLifetime
	if remember {
		lifetime = rememberLifetime
	}

	issued := p.now().UTC()
	expires := issued.Add(lifetime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Token{
		UserID:   userID,
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})

	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// VerifyToken checks signature and expiry. Every failure matches
// chaterr.ErrUnauthenticated.
func (p *Provider) VerifyToken(tokenString string) (Token, error) {
	var claims Token
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithTimeFunc(p.now), jwt.WithExpirationRequired())
	if err != nil {
		return Token{}, fmt.Errorf("%w: %w", chaterr.ErrUnauthenticated, err)
	}
	if claims.UserID == 0 {
		return Token{}, fmt.Errorf("%w: token without user", chaterr.ErrUnauthenticated)
	}
	return claims, nil
}

// NeedsRenewal reports whether a verified token should be reissued.
func (p *Provider) NeedsRenewal(token Token) bool {
	if token.IssuedAt == nil {
		return true
	}
	return p.now().Sub(token.IssuedAt.Time) >= RenewAfter
}
