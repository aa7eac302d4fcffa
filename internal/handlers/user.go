package handlers

import (
	"net/http"

	"chatapp-client/internal/hub"
	"chatapp-client/internal/identity"
)

func GetUserInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func UpdateUserInfo(w http.ResponseWriter, r *http.Request) {
	var update identity.ProfileUpdate
	if !readJSON(w, r, &update) {
		return
	}

	user, err := deps.Identity.UpdateProfile(r.Context(), currentUser(r).ID, update)
	if err != nil {
		writeError(w, err)
		return
	}

	err = deps.Hub.Emit(hub.ProfileModified, hub.KeyDirectory, user)
	if err != nil {
		sugar.Error(err)
	}

	writeJSON(w, http.StatusOK, user)
}

// GetUserList lists who the current user can start a direct conversation
// with, filtered by the search query parameter.
func GetUserList(w http.ResponseWriter, r *http.Request) {
	contacts, err := deps.Directory.LoadUsers(r.Context(), currentUser(r), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, contacts)
}
