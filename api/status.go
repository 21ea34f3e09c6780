package api

import (
	"net/http"

	"github.com/driftice/gcdserver/gcd"
)

type createStatusRequest struct {
	DOMID     uint32 `json:"dom_id"`
	RunNumber uint32 `json:"run_number"`
	Status    string `json:"status"`
	IsBad     bool   `json:"is_bad"`
}

func (s *Service) handleListStatus(w http.ResponseWriter, r *http.Request) {
	sts, err := s.store.ListStatus(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("retrieved detector status", "count", len(sts))
	s.respond(w, http.StatusOK, sts)
}

func (s *Service) handleCreateStatus(w http.ResponseWriter, r *http.Request) {
	var req createStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid status payload: "+err.Error())
		return
	}

	st := gcd.DetectorStatus{
		DOMID:     req.DOMID,
		RunNumber: req.RunNumber,
		Status:    req.Status,
		IsBad:     req.IsBad,
		Timestamp: s.now(),
	}
	if err := s.store.InsertStatus(r.Context(), st); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("created detector status", "dom_id", req.DOMID, "run_number", req.RunNumber)
	s.respond(w, http.StatusCreated, st)
}

func (s *Service) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	domID, err := uint32Param(r, "dom_id")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid dom_id")
		return
	}
	st, err := s.store.GetStatusByDOM(r.Context(), domID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, st)
}

func (s *Service) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	domID, err := uint32Param(r, "dom_id")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid dom_id")
		return
	}
	var req createStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid status payload: "+err.Error())
		return
	}

	st := gcd.DetectorStatus{
		DOMID:     domID,
		RunNumber: req.RunNumber,
		Status:    req.Status,
		IsBad:     req.IsBad,
		Timestamp: s.now(),
	}
	if err := s.store.UpdateStatus(r.Context(), st); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("updated detector status", "dom_id", domID, "run_number", req.RunNumber)
	s.respond(w, http.StatusOK, st)
}

func (s *Service) handleDeleteStatus(w http.ResponseWriter, r *http.Request) {
	domID, err := uint32Param(r, "dom_id")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid dom_id")
		return
	}
	if err := s.store.DeleteStatusByDOM(r.Context(), domID); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("deleted detector status", "dom_id", domID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleBadDOMs(w http.ResponseWriter, r *http.Request) {
	sts, err := s.store.ListBadDOMs(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, sts)
}
