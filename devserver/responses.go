package devserver

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("devserver: failed to encode response")
	}
}

// writeDetail sends the FastAPI style {"detail": ...} error body
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, apperrors.ErrorBody{Detail: detail})
}

// writeMessage sends a {"message": ...} error body
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apperrors.ErrorBody{Message: message})
}
