package api

import (
	"net/http"

	"github.com/driftice/gcdserver/gcd"
)

type createGeometryRequest struct {
	String   uint32          `json:"string"`
	Position uint32          `json:"position"`
	Location gcd.GeoLocation `json:"location"`
}

func (s *Service) handleListGeometry(w http.ResponseWriter, r *http.Request) {
	geoms, err := s.store.ListGeometry(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("retrieved geometry", "count", len(geoms))
	s.respond(w, http.StatusOK, geoms)
}

func (s *Service) handleCreateGeometry(w http.ResponseWriter, r *http.Request) {
	var req createGeometryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid geometry payload: "+err.Error())
		return
	}

	g := gcd.Geometry{
		String:    req.String,
		Position:  req.Position,
		Location:  req.Location,
		Timestamp: s.now(),
	}
	if err := s.store.InsertGeometry(r.Context(), g); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("created geometry", "string", req.String, "position", req.Position)
	s.respond(w, http.StatusCreated, g)
}

func (s *Service) geometryKey(w http.ResponseWriter, r *http.Request) (str, pos uint32, ok bool) {
	str, err := uint32Param(r, "string")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid string")
		return 0, 0, false
	}
	pos, err = uint32Param(r, "position")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid position")
		return 0, 0, false
	}
	return str, pos, true
}

func (s *Service) handleGetGeometry(w http.ResponseWriter, r *http.Request) {
	str, pos, ok := s.geometryKey(w, r)
	if !ok {
		return
	}
	g, err := s.store.GetGeometry(r.Context(), str, pos)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, g)
}

func (s *Service) handleGeometryByString(w http.ResponseWriter, r *http.Request) {
	str, err := uint32Param(r, "string")
	if err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid string")
		return
	}
	geoms, err := s.store.ListGeometryByString(r.Context(), str)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, geoms)
}

func (s *Service) handleUpdateGeometry(w http.ResponseWriter, r *http.Request) {
	str, pos, ok := s.geometryKey(w, r)
	if !ok {
		return
	}
	var req createGeometryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid geometry payload: "+err.Error())
		return
	}

	g := gcd.Geometry{String: str, Position: pos, Location: req.Location, Timestamp: s.now()}
	if err := s.store.UpdateGeometry(r.Context(), g); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("updated geometry", "string", str, "position", pos)
	s.respond(w, http.StatusOK, g)
}

func (s *Service) handleDeleteGeometry(w http.ResponseWriter, r *http.Request) {
	str, pos, ok := s.geometryKey(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteGeometry(r.Context(), str, pos); err != nil {
		s.respondError(w, err)
		return
	}
	s.logger.Info("deleted geometry", "string", str, "position", pos)
	w.WriteHeader(http.StatusNoContent)
}
