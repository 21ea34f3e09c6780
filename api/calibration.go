package api

import (
	"net/http"

	"github.com/driftice/gcdserver/gcd"
)

type createCalibrationRequest struct {
	DOMID  uint32     `json:"dom_id"`
	DOMCal gcd.DOMCal `json:"domcal"`
}

func (s *Service) handleListCalibrations(w http.ResponseWriter, r *http.Request) {
	cals, err := s.store.ListCalibrations(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("retrieved calibrations", "count", len(cals))
	s.respond(w, http.StatusOK, cals)
}

// handleCreateCalibration records a new calibration version for a DOM,
// stamped with the current time. Earlier versions stay on file.
func (s *Service) handleCreateCalibration(w http.ResponseWriter, r *http.Request) {
	var req createCalibrationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid calibration payload: "+err.Error())
		return
	}

	c := gcd.Calibration{
		DOMID:     req.DOMID,
		DOMCal:    req.DOMCal,
		Timestamp: s.now(),
	}
	if err := s.store.InsertCalibration(r.Context(), c); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("created calibration", "dom_id", req.DOMID)
	s.respond(w, http.StatusCreated, c)
}

func (s *Service) handleGetCalibration(w http.ResponseWriter, r *http.Request) {
	domID, err := uint32Param(r, "dom_id")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid dom_id")
		return
	}
	cals, err := s.store.ListCalibrationsByDOM(r.Context(), domID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, cals)
}

func (s *Service) handleLatestCalibration(w http.ResponseWriter, r *http.Request) {
	domID, err := uint32Param(r, "dom_id")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid dom_id")
		return
	}
	c, err := s.store.LatestCalibration(r.Context(), domID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, c)
}

// handleUpdateCalibration corrects the newest version in place rather than
// adding to the history.
func (s *Service) handleUpdateCalibration(w http.ResponseWriter, r *http.Request) {
	domID, err := uint32Param(r, "dom_id")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid dom_id")
		return
	}
	var req createCalibrationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid calibration payload: "+err.Error())
		return
	}

	c, err := s.store.ReplaceLatestCalibration(r.Context(), domID, req.DOMCal, s.now())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("updated calibration", "dom_id", domID)
	s.respond(w, http.StatusOK, c)
}

func (s *Service) handleDeleteCalibration(w http.ResponseWriter, r *http.Request) {
	domID, err := uint32Param(r, "dom_id")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid dom_id")
		return
	}
	if err := s.store.DeleteCalibrations(r.Context(), domID); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("deleted calibrations", "dom_id", domID)
	w.WriteHeader(http.StatusNoContent)
}
