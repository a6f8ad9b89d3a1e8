// Package service composes the region index, risk catalog, impact model,
// asteroid catalog and custom-body store behind the operations served over
// HTTP. Every geo and impact query is recorded to history on a best-effort
// basis.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/couchcryptid/impact-atlas/internal/bodies"
	"github.com/couchcryptid/impact-atlas/internal/history"
	"github.com/couchcryptid/impact-atlas/internal/impact"
	"github.com/couchcryptid/impact-atlas/internal/neo"
	"github.com/couchcryptid/impact-atlas/internal/observability"
	"github.com/couchcryptid/impact-atlas/internal/risk"
)

// ErrInvalidCoordinate is returned for latitudes or longitudes that are not
// finite or fall outside [-90, 90] and [-180, 180].
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Service implements the atlas operations.
type Service struct {
	assessor *risk.Assessor
	catalog  *neo.Catalog
	bodies   *bodies.Store
	recorder history.Recorder
	metrics  *observability.Metrics
	logger   *slog.Logger
	ready    atomic.Bool
}

// New creates a Service. A nil recorder disables history.
func New(assessor *risk.Assessor, catalog *neo.Catalog, store *bodies.Store, recorder history.Recorder, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = history.Discard{}
	}
	return &Service{
		assessor: assessor,
		catalog:  catalog,
		bodies:   store,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger,
	}
}

// MarkReady flags the service as ready to serve traffic.
func (s *Service) MarkReady() {
	s.ready.Store(true)
}

// CheckReadiness returns nil once MarkReady has been called.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("datasets not loaded yet")
	}
	return nil
}

// GeoRequest is the recorded form of a geo query.
type GeoRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoRisk classifies a coordinate and attaches its biome risk record.
func (s *Service) GeoRisk(ctx context.Context, lat, lon float64) (risk.GeoRisk, error) {
	if err := validateCoordinate(lat, lon); err != nil {
		return risk.GeoRisk{}, err
	}

	result := s.assessor.Assess(lat, lon)

	outcome := "region"
	if result.IsOcean() {
		outcome = "ocean"
	}
	s.metrics.GeoQueries.WithLabelValues(outcome).Inc()

	s.record(ctx, history.KindGeoRisk, GeoRequest{Lat: lat, Lon: lon}, result)
	return result, nil
}

// ImpactResult is the outcome of an impact assessment.
type ImpactResult struct {
	impact.Effects
	Model       impact.Model `json:"model"`
	TNTMegatons float64      `json:"tnt_megatons"`
}

// AssessImpact runs the impact model on p.
func (s *Service) AssessImpact(ctx context.Context, p impact.Params) (ImpactResult, error) {
	eff, model, err := impact.Assess(p)
	if err != nil {
		s.observeError(err)
		return ImpactResult{}, err
	}
	s.metrics.ImpactAssessments.WithLabelValues(string(model)).Inc()

	result := ImpactResult{
		Effects:     eff,
		Model:       model,
		TNTMegatons: impact.Megatons(eff.KineticEnergyJ),
	}
	s.record(ctx, history.KindImpact, p, result)
	return result, nil
}

// Asteroids returns the catalog formatted for display, optionally limited to
// objects flagged hazardous upstream. Objects the impact model rejects are
// still listed, without effects.
func (s *Service) Asteroids(_ context.Context, hazardousOnly bool) []neo.DisplayRecord {
	objects := s.catalog.All()
	if hazardousOnly {
		objects = s.catalog.Hazardous()
	}

	out := make([]neo.DisplayRecord, 0, len(objects))
	for _, o := range objects {
		rec, err := neo.Format(o)
		if err != nil {
			s.logger.Debug("asteroid listed without effects", "name", o.Name, "error", err)
		} else {
			s.metrics.ImpactAssessments.WithLabelValues(string(impact.ModelScalingLaw)).Inc()
		}
		out = append(out, rec)
	}
	return out
}

// CustomBodyRequest is the recorded form of a custom body submission.
type CustomBodyRequest struct {
	Name string `json:"name"`
	impact.Body
}

// CreateCustomBody stores a user-defined impactor with its angle-factor effects.
func (s *Service) CreateCustomBody(ctx context.Context, name string, b impact.Body) (bodies.Body, error) {
	body, err := s.bodies.Create(ctx, name, b)
	if err != nil {
		s.observeError(err)
		return bodies.Body{}, fmt.Errorf("create custom body: %w", err)
	}
	s.metrics.ImpactAssessments.WithLabelValues(string(impact.ModelAngleFactor)).Inc()

	s.record(ctx, history.KindCustomBody, CustomBodyRequest{Name: name, Body: b}, body)
	return body, nil
}

// ListCustomBodies returns every stored custom body in creation order.
func (s *Service) ListCustomBodies(ctx context.Context) []bodies.Body {
	return s.bodies.List(ctx)
}

// DeleteCustomBody removes a custom body. The error wraps bodies.ErrNotFound
// when id is unknown.
func (s *Service) DeleteCustomBody(ctx context.Context, id string) error {
	return s.bodies.Delete(ctx, id)
}

func (s *Service) observeError(err error) {
	if errors.Is(err, impact.ErrInvalidBody) {
		s.metrics.ValidationErrors.Inc()
	}
}

// record writes a history entry. Failures are logged and otherwise ignored.
func (s *Service) record(ctx context.Context, kind history.Kind, req, resp any) {
	entry, err := history.NewEntry(kind, req, resp)
	if err != nil {
		s.logger.Warn("build history entry failed", "kind", kind, "error", err)
		return
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Warn("record history failed", "kind", kind, "id", entry.ID, "error", err)
	}
}

func validateCoordinate(lat, lon float64) error {
	switch {
	case math.IsNaN(lat) || lat < -90 || lat > 90:
		return fmt.Errorf("%w: lat %v outside [-90, 90]", ErrInvalidCoordinate, lat)
	case math.IsNaN(lon) || lon < -180 || lon > 180:
		return fmt.Errorf("%w: lon %v outside [-180, 180]", ErrInvalidCoordinate, lon)
	}
	return nil
}
