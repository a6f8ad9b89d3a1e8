package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/couchcryptid/impact-atlas/internal/bodies"
	"github.com/couchcryptid/impact-atlas/internal/ecoregion"
	"github.com/couchcryptid/impact-atlas/internal/history"
	"github.com/couchcryptid/impact-atlas/internal/impact"
	"github.com/couchcryptid/impact-atlas/internal/neo"
	"github.com/couchcryptid/impact-atlas/internal/observability"
	"github.com/couchcryptid/impact-atlas/internal/risk"
	"github.com/couchcryptid/impact-atlas/internal/service"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
	err     error
}

func (m *memRecorder) Record(_ context.Context, e history.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memRecorder) kinds() []history.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]history.Kind, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Kind
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func square(name string, biome any, minLon, minLat, maxLon, maxLat float64) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{orb.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}})
	f.Properties["ECO_NAME"] = name
	f.Properties["BIOME"] = biome
	f.Properties["REALM"] = "Palearctic"
	return f
}

type fixture struct {
	svc      *service.Service
	recorder *memRecorder
	metrics  *observability.Metrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	idx, stats := ecoregion.NewIndex([]*geojson.Feature{
		square("Kazakh Steppe", 8.0, 50, 45, 80, 55),
		square("Uncatalogued Flats", "42", 10, 10, 20, 20),
	}, discardLogger())
	require.Equal(t, 2, stats.Loaded)

	catalog := neo.NewCatalog([]neo.Object{
		{Name: "(2015 RC)", Date: "2015-09-08", VelocityKmS: 19.5, MissDistanceKm: 3991573.9, EstimatedDiameterM: 30},
		{Name: "465633 (2009 JR5)", Date: "2015-09-07", Hazardous: true, VelocityKmS: 18.1, MissDistanceKm: 45290438.2, EstimatedDiameterM: 100},
		{Name: "(2015 QZ)", Date: "2015-09-07", EstimatedDiameterM: 80},
	})

	rec := &memRecorder{}
	metrics := observability.NewMetricsForTesting()
	svc := service.New(
		risk.NewAssessor(idx, nil),
		catalog,
		bodies.Open("", nil, discardLogger()),
		rec,
		metrics,
		discardLogger(),
	)
	return fixture{svc: svc, recorder: rec, metrics: metrics}
}

func TestGeoRisk_Region(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.GeoRisk(context.Background(), 48, 68)
	require.NoError(t, err)

	assert.Equal(t, "Kazakh Steppe", got.EcoName)
	assert.Equal(t, "8", got.BiomeCode)
	assert.Equal(t, "Palearctic", got.Realm)
	assert.Equal(t, risk.DefaultCatalog().Lookup("8"), got.Record)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.GeoQueries.WithLabelValues("region")), 0)
	assert.Equal(t, []history.Kind{history.KindGeoRisk}, f.recorder.kinds())
}

func TestGeoRisk_Ocean(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.GeoRisk(context.Background(), 0, -160)
	require.NoError(t, err)

	assert.True(t, got.IsOcean())
	assert.Equal(t, risk.OceanCode, got.BiomeCode)
	assert.Equal(t, risk.OceanEcoName, got.EcoName)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.GeoQueries.WithLabelValues("ocean")), 0)
}

func TestGeoRisk_UncataloguedBiome(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.GeoRisk(context.Background(), 15, 15)
	require.NoError(t, err)

	assert.Equal(t, "42", got.BiomeCode)
	assert.Equal(t, risk.DefaultCatalog().Lookup(risk.UnknownCode), got.Record)
}

func TestGeoRisk_InvalidCoordinates(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"lat too high", 90.5, 0},
		{"lat too low", -91, 0},
		{"lon too high", 0, 180.01},
		{"lon too low", 0, -200},
		{"nan lat", math.NaN(), 0},
		{"nan lon", 0, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.GeoRisk(context.Background(), tt.lat, tt.lon)
			require.ErrorIs(t, err, service.ErrInvalidCoordinate)
		})
	}
	assert.Empty(t, f.recorder.kinds())
}

func TestGeoRisk_PoleAndAntimeridianAccepted(t *testing.T) {
	f := newFixture(t)

	for _, pt := range [][2]float64{{90, 180}, {-90, -180}} {
		got, err := f.svc.GeoRisk(context.Background(), pt[0], pt[1])
		require.NoError(t, err)
		assert.True(t, got.IsOcean())
	}
}

func TestGeoRisk_HistoryFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = errors.New("disk full")

	_, err := f.svc.GeoRisk(context.Background(), 48, 68)
	require.NoError(t, err)
}

func TestAssessImpact(t *testing.T) {
	f := newFixture(t)
	angle, density := 90.0, 3000.0

	got, err := f.svc.AssessImpact(context.Background(), impact.Params{
		DiameterM: 100, DensityKgM3: &density, VelocityKmS: 20, AngleDeg: &angle,
	})
	require.NoError(t, err)

	assert.Equal(t, impact.ModelAngleFactor, got.Model)
	assert.InDelta(t, 2000, got.CraterDiameterM, 1e-9)
	assert.InDelta(t, impact.Megatons(got.KineticEnergyJ), got.TNTMegatons, 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ImpactAssessments.WithLabelValues("angle_factor")), 0)
	assert.Equal(t, []history.Kind{history.KindImpact}, f.recorder.kinds())
}

func TestAssessImpact_MassSelectsScalingLaw(t *testing.T) {
	f := newFixture(t)
	mass := 1e9

	got, err := f.svc.AssessImpact(context.Background(), impact.Params{
		DiameterM: 100, VelocityKmS: 20, MassKg: &mass,
	})
	require.NoError(t, err)

	assert.Equal(t, impact.ModelScalingLaw, got.Model)
	assert.InDelta(t, impact.ScalingLawCrater(got.KineticEnergyJ), got.CraterDiameterM, 0)
}

func TestAssessImpact_Invalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.AssessImpact(context.Background(), impact.Params{DiameterM: -1, VelocityKmS: 20})
	require.ErrorIs(t, err, impact.ErrInvalidBody)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ValidationErrors), 0)
	assert.Empty(t, f.recorder.kinds())
}

func TestAsteroids(t *testing.T) {
	f := newFixture(t)

	all := f.svc.Asteroids(context.Background(), false)
	require.Len(t, all, 3)
	assert.NotNil(t, all[0].Crater)
	assert.Nil(t, all[2].Crater, "object without velocity has no effects")

	hazardous := f.svc.Asteroids(context.Background(), true)
	require.Len(t, hazardous, 1)
	assert.Equal(t, "465633 (2009 JR5)", hazardous[0].Name)
	assert.True(t, hazardous[0].Hazardous)
}

func TestCustomBodies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateCustomBody(ctx, "Backyard Rock", impact.Body{
		DiameterM: 50, DensityKgM3: 2600, VelocityKmS: 15, AngleDeg: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "Backyard Rock", created.Name)
	assert.InDelta(t, impact.AngleFactorCrater(50, 30), created.Effects.CraterDiameterM, 1e-9)

	list := f.svc.ListCustomBodies(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	require.NoError(t, f.svc.DeleteCustomBody(ctx, created.ID))
	assert.Empty(t, f.svc.ListCustomBodies(ctx))
	require.ErrorIs(t, f.svc.DeleteCustomBody(ctx, created.ID), bodies.ErrNotFound)

	assert.Equal(t, []history.Kind{history.KindCustomBody}, f.recorder.kinds())
}

func TestCreateCustomBody_Invalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateCustomBody(context.Background(), "x", impact.Body{DiameterM: 10, DensityKgM3: 3000, VelocityKmS: 10, AngleDeg: 0})
	require.ErrorIs(t, err, impact.ErrInvalidBody)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ValidationErrors), 0)
}

func TestReadiness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.Error(t, f.svc.CheckReadiness(ctx))
	f.svc.MarkReady()
	require.NoError(t, f.svc.CheckReadiness(ctx))
}
