// Package neo holds the catalog of pre-classified near-Earth objects and
// formats them for display with the scaling-law impact model.
package neo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/impact-atlas/internal/impact"
)

// Object is one catalog entry as produced by the feed converter.
type Object struct {
	Name               string  `json:"name"`
	Date               string  `json:"date"`
	Hazardous          bool    `json:"hazardous"`
	VelocityKmS        float64 `json:"velocity_km_s"`
	MissDistanceKm     float64 `json:"miss_distance_km"`
	EstimatedDiameterM float64 `json:"estimated_diameter_m"`
}

// Catalog is an immutable list of objects in file order.
type Catalog struct {
	objects []Object
}

// NewCatalog wraps objects in a Catalog.
func NewCatalog(objects []Object) *Catalog {
	return &Catalog{objects: slices.Clone(objects)}
}

// Load decodes a JSON array of objects.
func Load(r io.Reader) (*Catalog, error) {
	var objects []Object
	if err := json.NewDecoder(r).Decode(&objects); err != nil {
		return nil, fmt.Errorf("decode neo catalog: %w", err)
	}
	return &Catalog{objects: objects}, nil
}

// LoadFile reads a catalog from disk. A missing file yields an empty catalog.
func LoadFile(path string, logger *slog.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("neo catalog not found, serving an empty list", "path", path)
		return &Catalog{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open neo catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Len returns the number of objects.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.objects)
}

// All returns every object.
func (c *Catalog) All() []Object {
	if c == nil {
		return nil
	}
	return slices.Clone(c.objects)
}

// Hazardous returns the objects flagged hazardous upstream.
func (c *Catalog) Hazardous() []Object {
	var out []Object
	for _, o := range c.All() {
		if o.Hazardous {
			out = append(out, o)
		}
	}
	return out
}

// DiameterRange is the estimated diameter band in meters.
type DiameterRange struct {
	Min float64 `json:"estimated_diameter_min"`
	Max float64 `json:"estimated_diameter_max"`
}

// Crater is the display form of the scaling-law crater effects.
type Crater struct {
	DiameterM   float64 `json:"diameter_m"`
	DustRadiusM float64 `json:"dust_radius_m"`
	DustHeightM float64 `json:"dust_height_m"`
}

// DisplayRecord is an object formatted for the front end.
type DisplayRecord struct {
	Name              string `json:"name"`
	Date              string `json:"date"`
	Hazardous         bool   `json:"is_potentially_hazardous_asteroid"`
	EstimatedDiameter struct {
		Meters DiameterRange `json:"meters"`
	} `json:"estimated_diameter"`
	RelativeVelocity struct {
		KilometersPerSecond string `json:"kilometers_per_second"`
	} `json:"relative_velocity"`
	MissDistance struct {
		Kilometers string `json:"kilometers"`
	} `json:"miss_distance"`
	MassKg              float64 `json:"mass_kg,omitempty"`
	KineticEnergyJoules float64 `json:"kinetic_energy_joules,omitempty"`
	EnergyMegatonsTNT   float64 `json:"energy_megatons_TNT,omitempty"`
	Crater              *Crater `json:"crater,omitempty"`
}

// Format renders an object for display. Mass is derived at the default
// density and the crater uses the scaling law; the hazard flag is the
// object's own. Objects the impact model rejects (no velocity, no diameter)
// are returned without effects.
func Format(o Object) (DisplayRecord, error) {
	var rec DisplayRecord
	rec.Name = o.Name
	rec.Date = o.Date
	rec.Hazardous = o.Hazardous
	rec.EstimatedDiameter.Meters = DiameterRange{
		Min: o.EstimatedDiameterM * 0.9,
		Max: o.EstimatedDiameterM * 1.1,
	}
	rec.RelativeVelocity.KilometersPerSecond = formatDecimal(o.VelocityKmS)
	rec.MissDistance.Kilometers = formatDecimal(o.MissDistanceKm)

	eff, err := impact.CatalogEffects(impact.CatalogBody{
		DiameterM:   o.EstimatedDiameterM,
		VelocityKmS: o.VelocityKmS,
		Hazardous:   o.Hazardous,
	})
	if err != nil {
		return rec, fmt.Errorf("format %q: %w", o.Name, err)
	}

	rec.MassKg = eff.MassKg
	rec.KineticEnergyJoules = eff.KineticEnergyJ
	rec.EnergyMegatonsTNT = impact.Megatons(eff.KineticEnergyJ)
	rec.Crater = &Crater{
		DiameterM:   eff.CraterDiameterM,
		DustRadiusM: eff.EjectaRadiusM,
		DustHeightM: eff.DustPlumeHeightM,
	}
	return rec, nil
}

// formatDecimal renders v as the shortest round-tripping decimal, always
// with a fractional part ("20.0"), switching to exponent form below 1e-4 and
// from 1e16 up ("1e+16").
func formatDecimal(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
