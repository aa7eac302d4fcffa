package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"chatapp-client/internal/chaterr"
	"chatapp-client/internal/models"

	"github.com/google/uuid"
)

const jwtCookieName = "JWT"

type UserKeyType struct{}
type RequestIDKeyType struct{}

func AllowCors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequestID tags every request with an identifier, reusing one the caller
// sent.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		ctx := context.WithValue(r.Context(), RequestIDKeyType{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFrom(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return "", errors.New("authorization header is not a bearer token")
		}
		return token, nil
	}

	cookie, err := r.Cookie(jwtCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func UserVerifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := tokenFrom(r)
		if err != nil {
			sugar.Debug(err)
			http.Error(w, "No token was provided", http.StatusUnauthorized)
			return
		}

		token, err := deps.Identity.VerifyToken(tokenString)
		if err != nil {
			sugar.Debug(err)
			http.Error(w, "Couldn't verify JWT", http.StatusUnauthorized)
			return
		}

		user, err := deps.Identity.User(r.Context(), token.UserID)
		if err != nil {
			// the account is gone but the client kept its token
			if errors.Is(err, chaterr.ErrUnauthenticated) {
				http.SetCookie(w, expiredCookie())
			}
			writeError(w, err)
			return
		}

		if deps.Identity.NeedsRenewal(token) {
			signed, expires, err := deps.Identity.CreateToken(token.UserID, token.Remember)
			if err != nil {
				sugar.Error(err)
				http.Error(w, "Couldn't renew cookie", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, sessionCookie(signed, expires, token.Remember))
		}

		ctx := context.WithValue(r.Context(), UserKeyType{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) models.User {
	user, _ := r.Context().Value(UserKeyType{}).(models.User)
	return user
}

func sessionCookie(token string, expires time.Time, remember bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     jwtCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.Expires = expires
	}
	return cookie
}

func expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     jwtCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	}
}
