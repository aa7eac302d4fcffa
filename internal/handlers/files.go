package handlers

import (
	"errors"
	"io"
	"net/http"
)

const maxUploadBytes = 8 << 20

func Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)

	file, _, err := r.FormFile("file")
	if err != nil {
		sugar.Debug(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}
	defer func() {
		err := file.Close()
		if err != nil {
			sugar.Error(err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "", http.StatusRequestEntityTooLarge)
			return
		}
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	result, err := deps.Uploads.Upload(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func AskAssistant(w http.ResponseWriter, r *http.Request) {
	type Prompt struct {
		Prompt string `json:"prompt"`
	}

	var prompt Prompt
	if !readJSON(w, r, &prompt) {
		return
	}

	text, err := deps.Assistant.Invoke(r.Context(), prompt.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}
