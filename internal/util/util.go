package util

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// WithBodyAndStatus writes a JSON response body with the given status.
func WithBodyAndStatus(body interface{}, status int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("failed to write response body")
	}
}
