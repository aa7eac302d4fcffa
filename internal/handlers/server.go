package handlers

import (
	"net/http"

	"chatapp-client/internal/directory"
	"chatapp-client/internal/models"
)

func GetServerList(w http.ResponseWriter, r *http.Request) {
	servers, err := deps.Directory.LoadServers(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, servers)
}

func OpenServer(w http.ResponseWriter, r *http.Request) {
	serverID, ok := queryID(w, r, "serverID")
	if !ok {
		return
	}

	detail, err := deps.Directory.Open(r.Context(), serverID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func CreateServer(w http.ResponseWriter, r *http.Request) {
	var params directory.ServerParams
	if !readJSON(w, r, &params) {
		return
	}

	detail, err := deps.Directory.CreateServer(r.Context(), currentUser(r), params)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, detail)
}

// ResumeServerCreate finishes a server whose creation stopped halfway.
func ResumeServerCreate(w http.ResponseWriter, r *http.Request) {
	serverID, ok := queryID(w, r, "serverID")
	if !ok {
		return
	}

	detail, err := deps.Directory.ResumeCreate(r.Context(), currentUser(r), serverID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

func CreateChannel(w http.ResponseWriter, r *http.Request) {
	type NewChannel struct {
		ServerID int64              `json:"serverID,string"`
		Name     string             `json:"name"`
		Type     models.ChannelType `json:"type"`
	}

	var newChannel NewChannel
	if !readJSON(w, r, &newChannel) {
		return
	}

	channel, err := deps.Directory.CreateChannel(r.Context(), newChannel.ServerID, newChannel.Name, newChannel.Type)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, channel)
}
