// Package risk maps biome codes to ecosystem risk profiles and combines them
// with ecoregion classification.
package risk

import (
	"maps"
	"slices"
)

// Severity grades how badly an impact would hurt a biome.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
	SeverityUnknown  Severity = "unknown"
)

// Reserved catalog keys.
const (
	UnknownCode = "Unknown"
	OceanCode   = "99"
)

// Record is the risk profile of one biome.
type Record struct {
	Severity      Severity `json:"risk_level"`
	Description   string   `json:"risk_description"`
	ImpactFactors []string `json:"risk_factors"`
}

// Catalog is an immutable biome code -> Record table.
type Catalog struct {
	records map[string]Record
}

// NewCatalog builds a catalog from records. The Unknown and ocean entries are
// filled in from the defaults when absent so Lookup and the ocean fallback
// always resolve.
func NewCatalog(records map[string]Record) *Catalog {
	c := &Catalog{records: make(map[string]Record, len(records)+2)}
	for code, rec := range records {
		c.records[code] = cloneRecord(rec)
	}
	defaults := defaultRecords()
	for _, code := range []string{UnknownCode, OceanCode} {
		if _, ok := c.records[code]; !ok {
			c.records[code] = defaults[code]
		}
	}
	return c
}

// DefaultCatalog returns the built-in table keyed by WWF terrestrial biome
// codes (1-14), lakes (98), ocean (99) and Unknown.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultRecords())
}

// Lookup returns the record for an exact, already normalized biome code, or
// the Unknown record when the code is not in the table. It never fails.
func (c *Catalog) Lookup(code string) Record {
	if rec, ok := c.records[code]; ok {
		return cloneRecord(rec)
	}
	return cloneRecord(c.records[UnknownCode])
}

// Ocean returns the reserved ocean record.
func (c *Catalog) Ocean() Record {
	return c.Lookup(OceanCode)
}

// Codes returns the catalog keys in sorted order.
func (c *Catalog) Codes() []string {
	return slices.Sorted(maps.Keys(c.records))
}

func cloneRecord(r Record) Record {
	r.ImpactFactors = slices.Clone(r.ImpactFactors)
	return r
}

func defaultRecords() map[string]Record {
	return map[string]Record{
		"1": {
			Severity:      SeverityCritical,
			Description:   "Tropical and subtropical moist broadleaf forest: the densest biodiversity on land, vulnerable to firestorms and long canopy recovery.",
			ImpactFactors: []string{"wildfires", "biodiversity loss", "deforestation", "flooding"},
		},
		"2": {
			Severity:      SeverityHigh,
			Description:   "Tropical and subtropical dry broadleaf forest: seasonal drought makes ignition and spread of fire likely.",
			ImpactFactors: []string{"wildfires", "drought", "biodiversity loss"},
		},
		"3": {
			Severity:      SeverityHigh,
			Description:   "Tropical and subtropical coniferous forest: resinous stands burn readily and endemic species have small ranges.",
			ImpactFactors: []string{"wildfires", "biodiversity loss", "soil erosion"},
		},
		"4": {
			Severity:      SeverityHigh,
			Description:   "Temperate broadleaf and mixed forest: often near dense human settlement, so ecological and human losses compound.",
			ImpactFactors: []string{"wildfires", "infrastructure damage", "air pollution"},
		},
		"5": {
			Severity:      SeverityHigh,
			Description:   "Temperate conifer forest: large fuel loads and slow regrowth after crown fires.",
			ImpactFactors: []string{"wildfires", "soil erosion", "biodiversity loss"},
		},
		"6": {
			Severity:      SeverityCritical,
			Description:   "Boreal forest and taiga: vast carbon stores in trees and permafrost could be released by fire and thaw.",
			ImpactFactors: []string{"wildfires", "permafrost thaw", "carbon release"},
		},
		"7": {
			Severity:      SeverityMedium,
			Description:   "Tropical and subtropical grassland, savanna and shrubland: fire adapted but grazing herds and water sources are exposed.",
			ImpactFactors: []string{"wildfires", "drought", "ecosystem collapse"},
		},
		"8": {
			Severity:      SeverityMedium,
			Description:   "Temperate grassland, savanna and shrubland: open terrain spreads blast and dust widely over farmland.",
			ImpactFactors: []string{"dust storms", "crop loss", "soil erosion"},
		},
		"9": {
			Severity:      SeverityHigh,
			Description:   "Flooded grassland and savanna: wetlands and waterbird habitat sensitive to contamination and altered hydrology.",
			ImpactFactors: []string{"water contamination", "flooding", "biodiversity loss"},
		},
		"10": {
			Severity:      SeverityHigh,
			Description:   "Montane grassland and shrubland: steep slopes turn ground shock into landslides and avalanches.",
			ImpactFactors: []string{"landslides", "avalanches", "glacial melt"},
		},
		"11": {
			Severity:      SeverityMedium,
			Description:   "Tundra: sparse life but fragile soils and permafrost recover over centuries.",
			ImpactFactors: []string{"permafrost thaw", "methane release", "soil damage"},
		},
		"12": {
			Severity:      SeverityMedium,
			Description:   "Mediterranean forest, woodland and scrub: fire-prone climate and dense coastal populations.",
			ImpactFactors: []string{"wildfires", "drought", "infrastructure damage"},
		},
		"13": {
			Severity:      SeverityLow,
			Description:   "Desert and xeric shrubland: little biomass to lose, but fine dust lofts easily into the atmosphere.",
			ImpactFactors: []string{"dust storms", "soil salinization", "heat"},
		},
		"14": {
			Severity:      SeverityCritical,
			Description:   "Mangroves: coastal nurseries and storm buffers that a tsunami or surge would strip away.",
			ImpactFactors: []string{"tsunamis", "coastal erosion", "biodiversity loss"},
		},
		"98": {
			Severity:      SeverityHigh,
			Description:   "Lake: an impact would vaporize water, contaminate supply and send waves onto the shore.",
			ImpactFactors: []string{"water contamination", "shoreline flooding", "steam explosion"},
		},
		OceanCode: {
			Severity:      SeverityHigh,
			Description:   "Ocean: an impact at sea would raise tsunamis that reach distant coastlines and inject water vapour into the stratosphere.",
			ImpactFactors: []string{"tsunamis", "coastal flooding", "marine ecosystem collapse"},
		},
		UnknownCode: {
			Severity:      SeverityUnknown,
			Description:   "Ecosystem requires further study. Impact could have unpredictable consequences for local flora and fauna.",
			ImpactFactors: []string{"ecosystem collapse", "biodiversity loss"},
		},
	}
}
