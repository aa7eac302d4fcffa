package handlers

import (
	"net/http"

	"chatapp-client/internal/identity"
	"chatapp-client/internal/validator"
)

func Register(w http.ResponseWriter, r *http.Request) {
	var registration identity.Registration
	if !readJSON(w, r, &registration) {
		return
	}

	user, err := deps.Identity.Register(r.Context(), registration)
	if err != nil {
		// sends back the form field errors when there are any
		if fields := validator.Fields(err); fields != nil {
			writeJSON(w, http.StatusBadRequest, fields)
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func Login(w http.ResponseWriter, r *http.Request) {
	type Login struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var login Login
	if !readJSON(w, r, &login) {
		return
	}

	remember := r.URL.Query().Get("rememberMe") == "true"

	token, expires, user, err := deps.Identity.Login(r.Context(), login.Email, login.Password, remember)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, sessionCookie(token, expires, remember))
	writeJSON(w, http.StatusOK, user)
}

func Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, expiredCookie())
	w.WriteHeader(http.StatusOK)
}
