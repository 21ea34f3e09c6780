// Package api is the HTTP surface of gcdserver: CRUD for the raw record
// kinds, token issuance, and GCD snapshot generation.
package api

import (
	"log/slog"
	"time"

	"github.com/driftice/gcdserver/auth"
	"github.com/driftice/gcdserver/gcd"
	"github.com/driftice/gcdserver/observability"
	"github.com/driftice/gcdserver/store"
	"github.com/go-chi/chi/v5"
)

// Service holds the handler dependencies.
type Service struct {
	store     *store.Store
	logger    *slog.Logger
	assembler *gcd.Assembler
	audit     *observability.EventLogger
	metrics   *observability.Metrics
	secret    []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithAudit attaches a business event logger.
func WithAudit(l *observability.EventLogger) Option {
	return func(s *Service) { s.audit = l }
}

// WithMetrics attaches snapshot generation metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAssembler overrides the snapshot assembler (tests pin its clock and
// ID generator).
func WithAssembler(a *gcd.Assembler) Option {
	return func(s *Service) { s.assembler = a }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the API service. secret signs and validates tokens; tokenTTL
// bounds their lifetime.
func New(st *store.Store, logger *slog.Logger, secret []byte, tokenTTL time.Duration, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:     st,
		logger:    logger,
		assembler: gcd.NewAssembler(),
		secret:    secret,
		tokenTTL:  tokenTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RegisterHTTP mounts all routes. Health and login are public; everything
// else requires a valid bearer token (the token-parsing middleware itself is
// installed by the caller, before routing).
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.With(auth.RequireAuth).Get("/verify", s.handleVerify)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Route("/calibration", func(r chi.Router) {
			r.Get("/", s.handleListCalibrations)
			r.Post("/", s.handleCreateCalibration)
			r.Get("/latest/{dom_id}", s.handleLatestCalibration)
			r.Get("/{dom_id}", s.handleGetCalibration)
			r.Put("/{dom_id}", s.handleUpdateCalibration)
			r.Delete("/{dom_id}", s.handleDeleteCalibration)
		})

		r.Route("/geometry", func(r chi.Router) {
			r.Get("/", s.handleListGeometry)
			r.Post("/", s.handleCreateGeometry)
			r.Get("/string/{string}", s.handleGeometryByString)
			r.Get("/{string}/{position}", s.handleGetGeometry)
			r.Put("/{string}/{position}", s.handleUpdateGeometry)
			r.Delete("/{string}/{position}", s.handleDeleteGeometry)
		})

		r.Route("/detector-status", func(r chi.Router) {
			r.Get("/", s.handleListStatus)
			r.Post("/", s.handleCreateStatus)
			r.Get("/bad-doms", s.handleBadDOMs)
			r.Get("/{dom_id}", s.handleGetStatus)
			r.Put("/{dom_id}", s.handleUpdateStatus)
			r.Delete("/{dom_id}", s.handleDeleteStatus)
		})

		r.Route("/run-metadata", func(r chi.Router) {
			r.Get("/", s.handleListRunWindows)
			r.Post("/", s.handleCreateRunWindow)
			r.Get("/{run_number}", s.handleGetRunWindow)
			r.Put("/{run_number}", s.handleUpdateRunWindow)
			r.Delete("/{run_number}", s.handleDeleteRunWindow)
		})

		r.Route("/configuration", func(r chi.Router) {
			r.Get("/", s.handleListConfigurations)
			r.Post("/", s.handleCreateConfiguration)
			r.Get("/{key}", s.handleGetConfiguration)
			r.Put("/{key}", s.handleUpdateConfiguration)
			r.Delete("/{key}", s.handleDeleteConfiguration)
		})

		r.Route("/snow-height", func(r chi.Router) {
			r.Get("/", s.handleListSnowHeights)
			r.Post("/", s.handleCreateSnowHeight)
			r.Get("/{run_number}", s.handleGetSnowHeight)
			r.Put("/{run_number}", s.handleUpdateSnowHeight)
			r.Delete("/{run_number}", s.handleDeleteSnowHeight)
		})

		r.Route("/gcd", func(r chi.Router) {
			r.Post("/generate/{run_number}", s.handleGenerateSnapshot)
			r.Get("/collection/{collection_id}", s.handleGetSnapshot)
		})
	})
}
