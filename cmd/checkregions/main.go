// Command checkregions performs integrity checks on an ecoregion dataset
// before it is deployed: it verifies that features load, that every biome
// code in the file has a risk record, and that known probe points classify
// to the expected biome.
//
// Usage:
//
//	go run ./cmd/checkregions \
//	  -geojson data/ecoregions.geojson \
//	  -probes data/probes.json
//
// The probes file is a JSON array of {"name", "lat", "lon", "biome_code"}.
// A probe with biome_code "99" expects open ocean.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/couchcryptid/impact-atlas/internal/ecoregion"
	"github.com/couchcryptid/impact-atlas/internal/risk"
)

// probe is a coordinate with a known expected biome.
type probe struct {
	Name      string  `json:"name"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	BiomeCode string  `json:"biome_code"`
}

// defaultProbes are used when no probes file is given.
var defaultProbes = []probe{
	{Name: "mid-Pacific", Lat: 0, Lon: -160, BiomeCode: risk.OceanCode},
	{Name: "south Atlantic", Lat: -30, Lon: -20, BiomeCode: risk.OceanCode},
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	geojsonPath := flag.String("geojson", "data/ecoregions.geojson", "path to the ecoregion FeatureCollection")
	probesPath := flag.String("probes", "", "optional JSON file of probe points")
	verbose := flag.Bool("v", false, "log skipped features")
	flag.Parse()

	os.Exit(run(os.Stdout, *geojsonPath, *probesPath, *verbose))
}

func run(w io.Writer, geojsonPath, probesPath string, verbose bool) int {
	level := slog.LevelError
	if verbose {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	fmt.Fprintln(w, "=== Ecoregion Dataset Check ===")
	fmt.Fprintln(w)

	f, err := os.Open(geojsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open dataset: %v\n", err)
		return 1
	}
	defer f.Close()

	index, stats, err := ecoregion.Load(f, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	probes := defaultProbes
	if probesPath != "" {
		probes, err = loadProbes(probesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load probes: %v\n", err)
			return 1
		}
	}

	catalog := risk.DefaultCatalog()
	phases := []*phase{
		checkLoad(stats),
		checkCatalogCoverage(index, catalog),
		checkProbes(risk.NewAssessor(index, catalog), probes),
	}

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Features: %d loaded, %d skipped; %d probes\n", stats.Loaded, stats.Skipped, len(probes))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll checks passed.")
		return 0
	}
	fmt.Fprintln(w, "\nCheck FAILED.")
	return 1
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var probes []probe
	if err := json.Unmarshal(data, &probes); err != nil {
		return nil, err
	}
	return probes, nil
}

// ── Phase 1: Load ──

func checkLoad(stats ecoregion.Stats) *phase {
	p := &phase{name: "Phase 1: Load (geometry validity)"}
	if stats.Loaded == 0 {
		p.errorf("no usable features (%d skipped)", stats.Skipped)
	}
	return p
}

// ── Phase 2: Catalog coverage ──
// Every biome code in the dataset should have its own risk record rather
// than falling back to Unknown.

func checkCatalogCoverage(index *ecoregion.Index, catalog *risk.Catalog) *phase {
	p := &phase{name: "Phase 2: Catalog Coverage (biome codes)"}

	known := catalog.Codes()
	counts := index.BiomeCodes()
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	for _, code := range codes {
		if code == ecoregion.UnknownBiome {
			p.errorf("%d region(s) have no BIOME property", counts[code])
			continue
		}
		if !slices.Contains(known, code) {
			p.errorf("biome code %q (%d regions) has no risk record", code, counts[code])
		}
	}
	return p
}

// ── Phase 3: Probes ──

func checkProbes(assessor *risk.Assessor, probes []probe) *phase {
	p := &phase{name: "Phase 3: Probe Points (classification)"}
	for _, pr := range probes {
		got := assessor.Assess(pr.Lat, pr.Lon)
		if got.BiomeCode != pr.BiomeCode {
			p.errorf("%s (%g, %g): expected biome %q, got %q (%s)", pr.Name, pr.Lat, pr.Lon, pr.BiomeCode, got.BiomeCode, got.EcoName)
		}
	}
	return p
}
