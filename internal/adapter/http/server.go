package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/impact-atlas/internal/bodies"
	"github.com/couchcryptid/impact-atlas/internal/impact"
	"github.com/couchcryptid/impact-atlas/internal/neo"
	"github.com/couchcryptid/impact-atlas/internal/risk"
	"github.com/couchcryptid/impact-atlas/internal/service"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// API is the set of operations served over HTTP.
type API interface {
	GeoRisk(ctx context.Context, lat, lon float64) (risk.GeoRisk, error)
	AssessImpact(ctx context.Context, p impact.Params) (service.ImpactResult, error)
	Asteroids(ctx context.Context, hazardousOnly bool) []neo.DisplayRecord
	CreateCustomBody(ctx context.Context, name string, b impact.Body) (bodies.Body, error)
	ListCustomBodies(ctx context.Context) []bodies.Body
	DeleteCustomBody(ctx context.Context, id string) error
}

// Server exposes the atlas API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
}

// NewServer creates an HTTP server. corsOrigin is sent as
// Access-Control-Allow-Origin on every response; empty disables CORS headers.
func NewServer(addr string, api API, ready sharedobs.ReadinessChecker, corsOrigin string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      withCORS(corsOrigin, mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /geo", s.handleGeo)
	mux.HandleFunc("POST /api/impact", s.handleImpact)
	mux.HandleFunc("GET /api/asteroids/all", s.handleAsteroids(false))
	mux.HandleFunc("GET /api/asteroids/hazardous", s.handleAsteroids(true))
	mux.HandleFunc("POST /api/asteroids/custom", s.handleCreateCustom)
	mux.HandleFunc("GET /api/asteroids/custom", s.handleListCustom)
	mux.HandleFunc("DELETE /api/asteroids/custom/{id}", s.handleDeleteCustom)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func withCORS(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleGeo(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := parseCoordinate(q, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lon, err := parseCoordinate(q, "lon")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.api.GeoRisk(r.Context(), lat, lon)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

func parseCoordinate(q map[string][]string, key string) (float64, error) {
	vals := q[key]
	if len(vals) == 0 || vals[0] == "" {
		return 0, fmt.Errorf("missing %s query parameter", key)
	}
	v, err := strconv.ParseFloat(vals[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

func (s *Server) handleImpact(w http.ResponseWriter, r *http.Request) {
	var p impact.Params
	if err := decodeBody(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.api.AssessImpact(r.Context(), p)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleAsteroids(hazardousOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sharedobs.WriteJSON(w, http.StatusOK, s.api.Asteroids(r.Context(), hazardousOnly))
	}
}

// customBodyRequest mirrors impact.Body with optional density and angle,
// which default to impact.DefaultDensity and impact.DefaultAngle.
type customBodyRequest struct {
	Name        string   `json:"name"`
	DiameterM   float64  `json:"diameter_m"`
	DensityKgM3 *float64 `json:"density_kg_m3"`
	VelocityKmS float64  `json:"velocity_km_s"`
	AngleDeg    *float64 `json:"impact_angle_deg"`
}

func (c customBodyRequest) body() impact.Body {
	b := impact.Body{
		DiameterM:   c.DiameterM,
		DensityKgM3: impact.DefaultDensity,
		VelocityKmS: c.VelocityKmS,
		AngleDeg:    impact.DefaultAngle,
	}
	if c.DensityKgM3 != nil {
		b.DensityKgM3 = *c.DensityKgM3
	}
	if c.AngleDeg != nil {
		b.AngleDeg = *c.AngleDeg
	}
	return b
}

func (s *Server) handleCreateCustom(w http.ResponseWriter, r *http.Request) {
	var req customBodyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	body, err := s.api.CreateCustomBody(r.Context(), req.Name, req.body())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusCreated, body)
}

func (s *Server) handleListCustom(w http.ResponseWriter, r *http.Request) {
	list := s.api.ListCustomBodies(r.Context())
	if list == nil {
		list = []bodies.Body{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleDeleteCustom(w http.ResponseWriter, r *http.Request) {
	if err := s.api.DeleteCustomBody(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// writeServiceError maps service errors onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, impact.ErrInvalidBody), errors.Is(err, service.ErrInvalidCoordinate):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, bodies.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}

// ReadinessGroup reports ready only when every member does.
type ReadinessGroup []sharedobs.ReadinessChecker

// CheckReadiness returns the first member error.
func (g ReadinessGroup) CheckReadiness(ctx context.Context) error {
	for _, c := range g {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
