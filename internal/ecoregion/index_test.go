package ecoregion

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadFixture(t *testing.T) *Index {
	t.Helper()
	idx, stats, err := LoadFile(filepath.Join("testdata", "ecoregions.geojson"), discardLogger())
	require.NoError(t, err)
	require.Equal(t, 3, stats.Loaded)
	return idx
}

func squareFeature(name string, biome any, minLon, minLat, maxLon, maxLat float64) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{orb.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}})
	f.Properties["ECO_NAME"] = name
	f.Properties["BIOME"] = biome
	f.Properties["REALM"] = "Test"
	return f
}

func TestLoadFile_SkipsMalformedFeatures(t *testing.T) {
	idx, stats, err := LoadFile(filepath.Join("testdata", "ecoregions.geojson"), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Loaded)
	assert.Equal(t, 3, stats.Skipped, "unclosed ring, point geometry, garbled coordinates")
	assert.Equal(t, 3, idx.Len())
}

func TestLoadFile_Missing(t *testing.T) {
	idx, stats, err := LoadFile(filepath.Join(t.TempDir(), "absent.geojson"), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, Stats{}, stats)

	_, ok := idx.Classify(43.2, 76.9)
	assert.False(t, ok)
}

func TestLoadFile_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.geojson")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := LoadFile(path, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode feature collection")
}

func TestLoad_WrongType(t *testing.T) {
	_, _, err := Load(strings.NewReader(`{"type":"Feature","features":[]}`), discardLogger())
	require.Error(t, err)
}

func TestLoad_EmptyCollection(t *testing.T) {
	idx, stats, err := Load(strings.NewReader(`{"type":"FeatureCollection","features":[]}`), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, stats.Loaded)
}

func TestClassify(t *testing.T) {
	idx := loadFixture(t)

	tests := []struct {
		name      string
		lat, lon  float64
		wantFound bool
		wantName  string
		wantBiome string
	}{
		{"inside steppe", 50, 60, true, "Kazakh Steppe", "8"},
		{"inside montane steppe", 43.238949, 76.889709, true, "Tian Shan Montane Steppe", "10"},
		{"inside multipolygon first part", -5, -65, true, "Amazon Islands", "1"},
		{"inside multipolygon second part", -1, -41, true, "Amazon Islands", "1"},
		{"inside a hole", -5, -45, false, "", ""},
		{"mid ocean", 0, -160, false, "", ""},
		{"transposed axes", 76.889709, 43.238949, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, ok := idx.Classify(tt.lat, tt.lon)
			assert.Equal(t, tt.wantFound, ok)
			assert.Equal(t, tt.wantName, region.EcoName)
			assert.Equal(t, tt.wantBiome, region.BiomeCode)
		})
	}
}

func TestClassify_OverlapFirstLoadedWins(t *testing.T) {
	idx := loadFixture(t)

	// The steppe (loaded first) and the montane steppe overlap at lat 45-46, lon 70-80.
	region, ok := idx.Classify(45.5, 75)
	require.True(t, ok)
	assert.Equal(t, "Kazakh Steppe", region.EcoName)

	reversed, _ := NewIndex([]*geojson.Feature{
		squareFeature("second", 2, 0, 0, 10, 10),
		squareFeature("first", 1, 0, 0, 10, 10),
	}, discardLogger())
	region, ok = reversed.Classify(5, 5)
	require.True(t, ok)
	assert.Equal(t, "second", region.EcoName)
}

// Boundary points follow orb/planar: on an outer ring they are contained,
// on a hole boundary they are not. Repeated queries must agree.
func TestClassify_BoundaryConvention(t *testing.T) {
	idx := loadFixture(t)

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"top edge", 55, 60, true},
		{"left edge", 50, 50, true},
		{"bottom edge", 45, 60, true},
		{"corner vertex", 45, 50, true},
		{"hole edge", -5, -47, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 5; i++ {
				_, ok := idx.Classify(tt.lat, tt.lon)
				assert.Equal(t, tt.want, ok)
			}
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	idx := loadFixture(t)

	first, ok := idx.Classify(50, 60)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := idx.Classify(50, 60)
		require.True(t, ok)
		assert.Equal(t, first.EcoName, again.EcoName)
		assert.Equal(t, first.BiomeCode, again.BiomeCode)
		assert.Equal(t, first.Bound(), again.Bound())
	}
}

func TestClassify_NilIndex(t *testing.T) {
	var idx *Index
	_, ok := idx.Classify(0, 0)
	assert.False(t, ok)
	assert.Equal(t, 0, idx.Len())
}

func TestNewIndex_RejectsInvalidGeometry(t *testing.T) {
	open := geojson.NewFeature(orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}})
	short := geojson.NewFeature(orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {0, 0}}})
	empty := geojson.NewFeature(orb.MultiPolygon{})
	line := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})
	noGeom := &geojson.Feature{Type: "Feature", Properties: geojson.Properties{}}

	idx, stats := NewIndex([]*geojson.Feature{open, short, empty, line, noGeom, nil}, discardLogger())
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 6, stats.Skipped)
}

func TestNewIndex_DefaultsMissingName(t *testing.T) {
	f := geojson.NewFeature(orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}})

	idx, _ := NewIndex([]*geojson.Feature{f}, discardLogger())
	region, ok := idx.Classify(0.5, 0.5)
	require.True(t, ok)
	assert.Equal(t, UnknownBiome, region.EcoName)
	assert.Equal(t, UnknownBiome, region.BiomeCode)
	assert.Empty(t, region.Realm)
}

func TestIndex_BiomeCodes(t *testing.T) {
	idx := loadFixture(t)
	assert.Equal(t, map[string]int{"8": 1, "10": 1, "1": 1}, idx.BiomeCodes())

	var nilIdx *Index
	assert.Empty(t, nilIdx.BiomeCodes())
}
