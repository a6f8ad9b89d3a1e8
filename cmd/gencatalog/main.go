// Command gencatalog converts a saved NeoWs feed document into the asteroid
// catalog file served by the atlas. It runs offline: the feed must already be
// on disk.
//
// Usage:
//
//	go run ./cmd/gencatalog \
//	  -feed testdata/neows_feed_2015-09-07.json \
//	  -out data/asteroids.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/impact-atlas/internal/impact"
	"github.com/couchcryptid/impact-atlas/internal/neo"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	feedPath := flag.String("feed", "", "path to a saved NeoWs feed JSON document")
	outPath := flag.String("out", "data/asteroids.json", "output path for the catalog file")
	flag.Parse()

	if *feedPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -feed")
	}

	f, err := os.Open(*feedPath)
	if err != nil {
		return fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	objects, err := neo.ParseFeed(f)
	if err != nil {
		return err
	}
	log.Printf("parsed %d objects from %s", len(objects), *feedPath)

	if err := writeJSON(*outPath, objects); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	log.Printf("wrote catalog: %s", *outPath)

	printStats(os.Stdout, objects)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// catalogStats holds aggregated counts for printStats reporting.
type catalogStats struct {
	byDate      map[string]int
	hazardous   int
	noVelocity  int
	maxEnergyJ  float64
	maxEnergyOf string
}

func collectStats(objects []neo.Object) catalogStats {
	s := catalogStats{byDate: map[string]int{}}
	for _, o := range objects {
		s.byDate[o.Date]++
		if o.Hazardous {
			s.hazardous++
		}
		eff, err := impact.CatalogEffects(impact.CatalogBody{DiameterM: o.EstimatedDiameterM, VelocityKmS: o.VelocityKmS})
		if err != nil {
			s.noVelocity++
			continue
		}
		if eff.KineticEnergyJ > s.maxEnergyJ {
			s.maxEnergyJ = eff.KineticEnergyJ
			s.maxEnergyOf = o.Name
		}
	}
	return s
}

func printStats(w io.Writer, objects []neo.Object) {
	s := collectStats(objects)

	fmt.Fprintln(w, "\n=== Catalog stats ===")
	fmt.Fprintf(w, "Total: %d\n", len(objects))
	fmt.Fprintf(w, "Hazardous (upstream flag): %d\n", s.hazardous)
	fmt.Fprintf(w, "Without usable velocity: %d\n", s.noVelocity)
	for _, o := range objects {
		if n, ok := s.byDate[o.Date]; ok {
			fmt.Fprintf(w, "  %s: %d\n", o.Date, n)
			delete(s.byDate, o.Date)
		}
	}
	if s.maxEnergyOf != "" {
		fmt.Fprintf(w, "Most energetic: %s (%.3g J, %.3g Mt TNT)\n",
			s.maxEnergyOf, s.maxEnergyJ, impact.Megatons(s.maxEnergyJ))
	}
}
