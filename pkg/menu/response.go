package menu

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mchmarny/actionmenu/pkg/logger"
)

// ErrNotFound is returned by a ContextFunc when the requested object does
// not exist.
var ErrNotFound = errors.New("not found")

// StatusFor maps a ContextFunc error to an HTTP status.
func StatusFor(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// WriteError writes {"error": message} with status.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logger.FromContext(r.Context()).Warn("handling error response",
		"status", status,
		"message", message,
	)
	WriteJSON(w, r, status, map[string]string{"error": message})
}

// WriteJSON writes data as JSON with status.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	log := logger.FromContext(r.Context())

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error("failed to marshal JSON response", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(jsonData); err != nil {
		log.Error("failed to write JSON response", "error", err)
	}
}
