package api

import "net/http"

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB.PingContext(r.Context()); err != nil {
		s.respondErrorStatus(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	s.respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "gcdserver",
	})
}
