package risk

import "github.com/couchcryptid/impact-atlas/internal/ecoregion"

// Names reported when no land region contains the point.
const (
	OceanEcoName = "Ocean"
	OceanRealm   = "Oceanic"
)

// GeoRisk is the combined classification and risk profile of a coordinate.
type GeoRisk struct {
	EcoName   string `json:"eco_name"`
	BiomeCode string `json:"biome_code"`
	Realm     string `json:"realm"`
	Record
}

// IsOcean reports whether the point fell outside every loaded region.
func (g GeoRisk) IsOcean() bool {
	return g.BiomeCode == OceanCode
}

// Assessor joins a region classifier with a risk catalog.
type Assessor struct {
	classifier ecoregion.Classifier
	catalog    *Catalog
}

// NewAssessor creates an Assessor. A nil classifier behaves like an empty
// index; a nil catalog uses DefaultCatalog.
func NewAssessor(classifier ecoregion.Classifier, catalog *Catalog) *Assessor {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Assessor{classifier: classifier, catalog: catalog}
}

// Assess classifies (lat, lon) and attaches the biome's risk record.
//
// A point outside every loaded region is treated as ocean (biome "99"), not as
// Unknown: the land dataset covers land only, so "no region" means open water
// while "Unknown" means a land region whose biome is not catalogued.
func (a *Assessor) Assess(lat, lon float64) GeoRisk {
	var (
		region ecoregion.Region
		found  bool
	)
	if a.classifier != nil {
		region, found = a.classifier.Classify(lat, lon)
	}

	if !found {
		return GeoRisk{
			EcoName:   OceanEcoName,
			BiomeCode: OceanCode,
			Realm:     OceanRealm,
			Record:    a.catalog.Ocean(),
		}
	}

	return GeoRisk{
		EcoName:   region.EcoName,
		BiomeCode: region.BiomeCode,
		Realm:     region.Realm,
		Record:    a.catalog.Lookup(region.BiomeCode),
	}
}

// Catalog returns the catalog backing the assessor.
func (a *Assessor) Catalog() *Catalog {
	return a.catalog
}
