package ecoregion

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/paulmach/orb/geojson"
)

// rawCollection defers feature decoding so one malformed feature does not
// reject the whole collection.
type rawCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// Load decodes a GeoJSON FeatureCollection and builds an Index from it.
// Only a malformed top-level document is an error; individual features that
// fail to decode are skipped and counted.
func Load(r io.Reader, logger *slog.Logger) (*Index, Stats, error) {
	var rc rawCollection
	if err := json.NewDecoder(r).Decode(&rc); err != nil {
		return nil, Stats{}, fmt.Errorf("decode feature collection: %w", err)
	}
	if rc.Type != "" && rc.Type != "FeatureCollection" {
		return nil, Stats{}, fmt.Errorf("decode feature collection: unexpected type %q", rc.Type)
	}

	features := make([]*geojson.Feature, 0, len(rc.Features))
	decodeSkipped := 0
	for i, raw := range rc.Features {
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			logger.Warn("skipping undecodable ecoregion feature", "index", i, "error", err)
			decodeSkipped++
			continue
		}
		features = append(features, f)
	}

	idx, stats := NewIndex(features, logger)
	stats.Skipped += decodeSkipped
	return idx, stats, nil
}

// LoadFile reads an ecoregion dataset from disk. A missing file yields an empty
// index and no error: classification then degrades to "no region" everywhere.
func LoadFile(path string, logger *slog.Logger) (*Index, Stats, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("ecoregion dataset not found, every point will classify as ocean", "path", path)
		return &Index{}, Stats{}, nil
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open ecoregion dataset: %w", err)
	}
	defer f.Close()

	idx, stats, err := Load(f, logger)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load %s: %w", path, err)
	}
	if idx.Len() == 0 {
		logger.Warn("ecoregion dataset is empty", "path", path, "skipped", stats.Skipped)
	}
	return idx, stats, nil
}
