package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/starford/appcatalog/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps domain errors onto status codes. Unavailable sources get
// 503 with a Retry-After hint so clients can tell an outage from "no matches".
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrSourceUnavailable):
		secs := int(math.Ceil(apperr.RetryAfter(err).Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		slog.Warn("catalog unavailable", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorBody("catalog unavailable, try again later"))
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
	default:
		slog.Error("request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
