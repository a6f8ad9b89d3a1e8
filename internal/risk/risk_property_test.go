//go:build property

package risk_test

import (
	"slices"
	"testing"

	"github.com/couchcryptid/impact-atlas/internal/risk"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: Lookup returns a populated record for any code
func TestLookupTotal(t *testing.T) {
	catalog := risk.DefaultCatalog()
	known := catalog.Codes()
	unknown := catalog.Lookup(risk.UnknownCode)

	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("uncatalogued codes fall back to Unknown", prop.ForAll(
		func(code string) bool {
			rec := catalog.Lookup(code)
			if rec.Severity == "" || rec.Description == "" {
				return false
			}
			if slices.Contains(known, code) {
				return true
			}
			return rec.Severity == unknown.Severity && rec.Description == unknown.Description
		},
		gen.OneGenOf(gen.AnyString(), gen.NumString(), gen.OneConstOf("1", "8", "14", "98", "99", "Unknown", "")),
	))

	properties.TestingRun(t)
}

// Property: with no regions loaded every coordinate is ocean
func TestEmptyIndexIsOcean(t *testing.T) {
	assessor := risk.NewAssessor(nil, nil)

	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("no region means biome 99", prop.ForAll(
		func(lat, lon float64) bool {
			got := assessor.Assess(lat, lon)
			return got.IsOcean() && got.EcoName == risk.OceanEcoName
		},
		gen.Float64Range(-90, 90),
		gen.Float64Range(-180, 180),
	))

	properties.TestingRun(t)
}
