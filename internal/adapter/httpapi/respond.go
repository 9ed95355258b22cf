package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

// errorBody is the JSON body of every API error.
type errorBody struct {
	Message string `json:"message"`
}

// respondJSON sends v as JSON with the given status.
func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal JSON response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logger.Debug("failed to write JSON response", slog.Any("error", err))
	}
}

// respondError sends {"message": message}.
func respondError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	respondJSON(w, logger, status, errorBody{Message: message})
}
