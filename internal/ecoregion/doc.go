// Package ecoregion classifies coordinates into terrestrial ecoregions.
//
// # Data Source
//
// Regions come from a GeoJSON FeatureCollection in the layout of the WWF
// Terrestrial Ecoregions of the World dataset. The file is read once at
// startup; the index is immutable afterwards and safe for concurrent use.
//
// # Feature Conventions
//
// Properties:
//
//	ECO_NAME  human-readable region name, e.g. "Kazakh Steppe"
//	BIOME     biome code; numeric in the source (8.0) or a string ("8")
//	REALM     biogeographic realm, e.g. "Palearctic"
//
// Biome codes are normalized to their integer text form, so 8, 8.0 and "8"
// all become "8". A missing or unreadable BIOME becomes "Unknown"; a missing
// ECO_NAME does too.
//
// Geometry:
//
//	Polygon or MultiPolygon only. Every ring must be closed and have at least
//	four positions with finite coordinates. Positions are (lon, lat), so
//	Classify swaps its (lat, lon) arguments before testing containment.
//
// Features that fail to decode or validate are skipped with a warning and
// counted in [Stats]. A missing file yields an empty index; a document that is
// not a FeatureCollection is an error.
//
// # Classification
//
// [Index.Classify] walks regions in load order and returns the first whose
// geometry contains the point, so overlapping regions resolve to the one
// listed first in the file. A point on an outer ring's edge or vertex is
// inside; a point on a hole's boundary is outside. No match means open
// water, which callers report as ocean.
//
// [CachedClassifier] memoizes results, including misses, keyed on the exact
// bit pattern of the coordinates.
package ecoregion
