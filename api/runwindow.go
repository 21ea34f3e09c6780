package api

import (
	"net/http"
	"time"

	"github.com/driftice/gcdserver/gcd"
)

type createRunWindowRequest struct {
	RunNumber         uint32     `json:"run_number"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	ConfigurationName string     `json:"configuration_name,omitempty"`
}

func (s *Service) handleListRunWindows(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.ListRunWindows(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("retrieved run metadata", "count", len(ws))
	s.respond(w, http.StatusOK, ws)
}

func (s *Service) handleCreateRunWindow(w http.ResponseWriter, r *http.Request) {
	var req createRunWindowRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid run metadata payload: "+err.Error())
		return
	}

	win := gcd.RunWindow{
		RunNumber:         req.RunNumber,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		ConfigurationName: req.ConfigurationName,
		Timestamp:         s.now(),
	}
	if err := s.store.InsertRunWindow(r.Context(), win); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("created run metadata", "run_number", req.RunNumber)
	s.respond(w, http.StatusCreated, win)
}

func (s *Service) handleGetRunWindow(w http.ResponseWriter, r *http.Request) {
	runNumber, err := uint32Param(r, "run_number")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid run_number")
		return
	}
	win, err := s.store.GetRunWindow(r.Context(), runNumber)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, win)
}

func (s *Service) handleUpdateRunWindow(w http.ResponseWriter, r *http.Request) {
	runNumber, err := uint32Param(r, "run_number")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid run_number")
		return
	}
	var req createRunWindowRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid run metadata payload: "+err.Error())
		return
	}

	win := gcd.RunWindow{
		RunNumber:         runNumber,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		ConfigurationName: req.ConfigurationName,
		Timestamp:         s.now(),
	}
	if err := s.store.UpdateRunWindow(r.Context(), win); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("updated run metadata", "run_number", runNumber)
	s.respond(w, http.StatusOK, win)
}

func (s *Service) handleDeleteRunWindow(w http.ResponseWriter, r *http.Request) {
	runNumber, err := uint32Param(r, "run_number")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid run_number")
		return
	}
	if err := s.store.DeleteRunWindow(r.Context(), runNumber); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("deleted run metadata", "run_number", runNumber)
	s.respond(w, http.StatusOK, map[string]any{"deleted": true, "run_number": runNumber})
}
