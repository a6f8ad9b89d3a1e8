package ecoregion

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// UnknownBiome is the biome code assigned when the source value is absent or unusable.
const UnknownBiome = "Unknown"

// Feature property keys in the source dataset.
const (
	propEcoName = "ECO_NAME"
	propBiome   = "BIOME"
	propRealm   = "REALM"
)

// Region is one ecoregion polygon with its classification tags.
// Geometry is either orb.Polygon or orb.MultiPolygon in (lon, lat) order.
type Region struct {
	EcoName   string
	BiomeCode string
	Realm     string
	Geometry  orb.Geometry

	bound orb.Bound
}

// Bound returns the region's bounding box.
func (r Region) Bound() orb.Bound {
	return r.bound
}

// NormalizeBiomeCode collapses the loosely typed BIOME property into a
// canonical string key. Integer-valued floats lose their decimal point
// (4.0 -> "4"), strings are trimmed, numeric strings are normalized the same
// way as numbers, and anything else becomes UnknownBiome.
func NormalizeBiomeCode(v any) string {
	switch x := v.(type) {
	case nil:
		return UnknownBiome
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return UnknownBiome
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return formatFloatCode(f)
		}
		return s
	case json.Number:
		return NormalizeBiomeCode(x.String())
	case float64:
		return formatFloatCode(x)
	case float32:
		return formatFloatCode(float64(x))
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return UnknownBiome
	}
}

func formatFloatCode(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return UnknownBiome
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func stringProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return strings.TrimSpace(s)
}
