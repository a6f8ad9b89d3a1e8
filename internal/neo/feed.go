package neo

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// fallbackDiameterM is used when the feed reports no usable diameter estimate.
const fallbackDiameterM = 100.0

type feedDocument struct {
	NearEarthObjects map[string][]feedObject `json:"near_earth_objects"`
}

type feedObject struct {
	Name              string `json:"name"`
	Hazardous         bool   `json:"is_potentially_hazardous_asteroid"`
	EstimatedDiameter struct {
		Meters struct {
			Min float64 `json:"estimated_diameter_min"`
			Max float64 `json:"estimated_diameter_max"`
		} `json:"meters"`
	} `json:"estimated_diameter"`
	CloseApproachData []struct {
		RelativeVelocity struct {
			KilometersPerSecond string `json:"kilometers_per_second"`
		} `json:"relative_velocity"`
		MissDistance struct {
			Kilometers string `json:"kilometers"`
		} `json:"miss_distance"`
	} `json:"close_approach_data"`
}

// ParseFeed converts a saved NeoWs feed document into catalog objects.
// Dates are emitted in ascending order; within a date the feed order is kept.
// The diameter is the mean of the min/max estimates, or 100 m when that mean
// is not positive. Velocity and miss distance come from the first close
// approach and are zero when absent or unparseable.
func ParseFeed(r io.Reader) ([]Object, error) {
	var doc feedDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode neo feed: %w", err)
	}

	var objects []Object
	for _, date := range slices.Sorted(maps.Keys(doc.NearEarthObjects)) {
		for _, fo := range doc.NearEarthObjects[date] {
			diameter := (fo.EstimatedDiameter.Meters.Min + fo.EstimatedDiameter.Meters.Max) / 2
			if !(diameter > 0) {
				diameter = fallbackDiameterM
			}

			obj := Object{
				Name:               fo.Name,
				Date:               date,
				Hazardous:          fo.Hazardous,
				EstimatedDiameterM: diameter,
			}
			if len(fo.CloseApproachData) > 0 {
				approach := fo.CloseApproachData[0]
				obj.VelocityKmS = parseFloatOrZero(approach.RelativeVelocity.KilometersPerSecond)
				obj.MissDistanceKm = parseFloatOrZero(approach.MissDistance.Kilometers)
			}
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
