package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/m3rciful/datepicker/core/calendar"
	"github.com/m3rciful/datepicker/core/logger"
)

const (
	codeUnauthorized = "Unauthorized"
	codeBadRequest   = "BadRequest"
	codeNotFound     = "NotFound"
	codeInternal     = "Internal"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.LogEvent(context.Background(), logger.API, slog.LevelWarn, "response.encode_failed", slog.String("err", err.Error()))
	}
}

func writeFailure(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// writeError maps core errors to 400 with their kind as code; anything else
// is a 500 and its text is not leaked.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *calendar.Error
	if errors.As(err, &ce) {
		writeFailure(w, http.StatusBadRequest, ce.Code(), ce.Error())
		return
	}
	var re *requestError
	if errors.As(err, &re) {
		writeFailure(w, http.StatusBadRequest, codeBadRequest, re.Error())
		return
	}
	logger.LogEvent(r.Context(), logger.API, slog.LevelError, "handler.failed",
		slog.String("path", r.URL.Path),
		slog.String("err", err.Error()),
	)
	writeFailure(w, http.StatusInternalServerError, codeInternal, "internal error")
}
