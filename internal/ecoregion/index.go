package ecoregion

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Classifier answers which region, if any, contains a coordinate.
type Classifier interface {
	Classify(lat, lon float64) (Region, bool)
}

// Stats summarizes an index build.
type Stats struct {
	Loaded  int
	Skipped int
}

// Index is an immutable, load-ordered collection of regions. It is safe for
// concurrent use. A nil or empty Index classifies every point as "no region".
type Index struct {
	regions []Region
}

// NewIndex builds an Index from decoded features. Features whose geometry is
// missing, unsupported, or not made of closed rings are skipped and logged.
func NewIndex(features []*geojson.Feature, logger *slog.Logger) (*Index, Stats) {
	idx := &Index{regions: make([]Region, 0, len(features))}
	var stats Stats

	for i, f := range features {
		region, err := regionFromFeature(f)
		if err != nil {
			logger.Warn("skipping ecoregion feature", "index", i, "error", err)
			stats.Skipped++
			continue
		}
		idx.regions = append(idx.regions, region)
		stats.Loaded++
	}

	return idx, stats
}

// Len returns the number of loaded regions.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.regions)
}

// BiomeCodes returns the number of regions per normalized biome code.
func (idx *Index) BiomeCodes() map[string]int {
	codes := make(map[string]int)
	if idx == nil {
		return codes
	}
	for i := range idx.regions {
		codes[idx.regions[i].BiomeCode]++
	}
	return codes
}

// Classify returns the first region, in load order, whose geometry contains
// the point. Arguments are (lat, lon); the point is built as (lon, lat) to
// match the dataset's axis order.
//
// Boundary convention: a point on an outer ring edge or vertex is contained;
// a point on a hole's boundary is not. When regions overlap, the earliest
// loaded region wins.
func (idx *Index) Classify(lat, lon float64) (Region, bool) {
	if idx == nil {
		return Region{}, false
	}

	pt := orb.Point{lon, lat}
	for i := range idx.regions {
		r := &idx.regions[i]
		if !r.bound.Contains(pt) {
			continue
		}
		if geometryContains(r.Geometry, pt) {
			return *r, true
		}
	}
	return Region{}, false
}

func geometryContains(g orb.Geometry, pt orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, pt)
	default:
		return false
	}
}

func regionFromFeature(f *geojson.Feature) (Region, error) {
	if f == nil {
		return Region{}, errors.New("nil feature")
	}
	if err := validateGeometry(f.Geometry); err != nil {
		return Region{}, err
	}

	props := map[string]any(f.Properties)
	name := stringProp(props, propEcoName)
	if name == "" {
		name = UnknownBiome
	}

	return Region{
		EcoName:   name,
		BiomeCode: NormalizeBiomeCode(props[propBiome]),
		Realm:     stringProp(props, propRealm),
		Geometry:  f.Geometry,
		bound:     f.Geometry.Bound(),
	}, nil
}

func validateGeometry(g orb.Geometry) error {
	switch geom := g.(type) {
	case nil:
		return errors.New("missing geometry")
	case orb.Polygon:
		return validatePolygon(geom)
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return errors.New("empty multipolygon")
		}
		for i, p := range geom {
			if err := validatePolygon(p); err != nil {
				return fmt.Errorf("polygon %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported geometry type %q", g.GeoJSONType())
	}
}

func validatePolygon(p orb.Polygon) error {
	if len(p) == 0 {
		return errors.New("empty polygon")
	}
	for i, ring := range p {
		if len(ring) < 4 {
			return fmt.Errorf("ring %d has %d points, need at least 4", i, len(ring))
		}
		if ring[0] != ring[len(ring)-1] {
			return fmt.Errorf("ring %d is not closed", i)
		}
		for _, pt := range ring {
			if !finite(pt[0]) || !finite(pt[1]) {
				return fmt.Errorf("ring %d has a non-finite coordinate", i)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
