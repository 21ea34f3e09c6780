package api

import (
	"encoding/json"
	"net/http"

	"github.com/driftice/gcdserver/store"
	"github.com/go-chi/chi/v5"
)

type createConfigurationRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (s *Service) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	cfgs, err := s.store.ListConfigurations(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, cfgs)
}

func (s *Service) handleCreateConfiguration(w http.ResponseWriter, r *http.Request) {
	var req createConfigurationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid configuration payload: "+err.Error())
		return
	}
	if req.Key == "" {
		s.respondErrorStatus(w, http.StatusBadRequest, "configuration key is required")
		return
	}

	c := store.Configuration{Key: req.Key, Value: req.Value, Timestamp: s.now()}
	if err := s.store.InsertConfiguration(r.Context(), c); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("created configuration", "key", req.Key)
	s.respond(w, http.StatusCreated, c)
}

func (s *Service) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	c, err := s.store.GetConfiguration(r.Context(), key)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, c)
}

func (s *Service) handleUpdateConfiguration(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req createConfigurationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid configuration payload: "+err.Error())
		return
	}

	c := store.Configuration{Key: key, Value: req.Value, Timestamp: s.now()}
	if err := s.store.UpdateConfiguration(r.Context(), c); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("updated configuration", "key", key)
	s.respond(w, http.StatusOK, c)
}

func (s *Service) handleDeleteConfiguration(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := s.store.DeleteConfiguration(r.Context(), key); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("deleted configuration", "key", key)
	w.WriteHeader(http.StatusNoContent)
}
