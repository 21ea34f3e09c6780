package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/driftice/gcdserver/store"
	"github.com/go-chi/chi/v5"
)

// envelope is the uniform response shape of every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Service) respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Service) respondErrorStatus(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}

// respondError maps store sentinels onto HTTP statuses so callers can tell
// "no such record" (404) and "bad request" (409/400) apart from "system
// unavailable" (500).
func (s *Service) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.respondErrorStatus(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicate):
		s.respondErrorStatus(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.respondErrorStatus(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// uint32Param parses a numeric chi URL parameter.
func uint32Param(r *http.Request, name string) (uint32, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
