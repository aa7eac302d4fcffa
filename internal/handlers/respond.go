package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"chatapp-client/internal/chaterr"
)

func statusFor(err error) int {
	switch {
	// a partial create also wraps the cause, so it goes first
	case errors.Is(err, chaterr.ErrPartialCreate):
		return http.StatusMultiStatus
	case errors.Is(err, chaterr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chaterr.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, chaterr.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, chaterr.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, chaterr.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)

	var partial *chaterr.PartialCreateError
	if errors.As(err, &partial) {
		sugar.Warn(err)
		writeJSON(w, status, map[string]string{
			"serverID": strconv.FormatInt(partial.ServerID, 10),
			"step":     string(partial.Step),
			"error":    partial.Err.Error(),
		})
		return
	}

	if status >= http.StatusInternalServerError {
		sugar.Error(err)
		http.Error(w, "", status)
		return
	}

	sugar.Debug(err)
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		sugar.Error(err)
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return false
	}
	return true
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
