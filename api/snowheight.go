package api

import (
	"net/http"

	"github.com/driftice/gcdserver/store"
)

type createSnowHeightRequest struct {
	RunNumber uint32  `json:"run_number"`
	Height    float64 `json:"height"`
}

func (s *Service) handleListSnowHeights(w http.ResponseWriter, r *http.Request) {
	shs, err := s.store.ListSnowHeights(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, shs)
}

func (s *Service) handleCreateSnowHeight(w http.ResponseWriter, r *http.Request) {
	var req createSnowHeightRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid snow height payload: "+err.Error())
		return
	}

	sh := store.SnowHeight{RunNumber: req.RunNumber, Height: req.Height, Timestamp: s.now()}
	if err := s.store.InsertSnowHeight(r.Context(), sh); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("created snow height", "run_number", req.RunNumber, "height", req.Height)
	s.respond(w, http.StatusCreated, sh)
}

func (s *Service) handleGetSnowHeight(w http.ResponseWriter, r *http.Request) {
	runNumber, err := uint32Param(r, "run_number")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid run_number")
		return
	}
	sh, err := s.store.GetSnowHeight(r.Context(), runNumber)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, sh)
}

func (s *Service) handleUpdateSnowHeight(w http.ResponseWriter, r *http.Request) {
	runNumber, err := uint32Param(r, "run_number")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid run_number")
		return
	}
	var req createSnowHeightRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid snow height payload: "+err.Error())
		return
	}

	sh := store.SnowHeight{RunNumber: runNumber, Height: req.Height, Timestamp: s.now()}
	if err := s.store.UpdateSnowHeight(r.Context(), sh); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("updated snow height", "run_number", runNumber)
	s.respond(w, http.StatusOK, sh)
}

func (s *Service) handleDeleteSnowHeight(w http.ResponseWriter, r *http.Request) {
	runNumber, err := uint32Param(r, "run_number")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid run_number")
		return
	}
	if err := s.store.DeleteSnowHeight(r.Context(), runNumber); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("deleted snow height", "run_number", runNumber)
	w.WriteHeader(http.StatusNoContent)
}
