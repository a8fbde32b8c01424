//go:build ignore
// +build ignore

// generate_testdata.go creates family datasets for benchmarking the tree
// builder, layout and exporters.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/benchmark/small.json   (100 members, 3 families)
//	testdata/benchmark/medium.json  (1000 members, 10 families)
//	testdata/benchmark/large.json   (5000 members, 25 families)
//	testdata/benchmark/huge.json    (20000 members, 60 families)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/famtree/pkg/testutil"
)

type datasetSpec struct {
	name  string
	size  int
	roots int
}

var datasets = []datasetSpec{
	{"small", 100, 3},
	{"medium", 1000, 10},
	{"large", 5000, 25},
	{"huge", 20000, 60},
}

func main() {
	outputDir := filepath.Join("testdata", "benchmark")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d members)...\n", ds.name, ds.size)

		cfg := testutil.DefaultConfig()
		cfg.Seed = int64(ds.size) // reproducible per size
		cfg.IDPrefix = "bench"
		cfg.IncludeDetail = true

		gen := testutil.New(cfg)
		members := gen.Shuffle(gen.RandomForest(ds.size, ds.roots))
		doc := testutil.ToDocument(members)

		outputPath := filepath.Join(outputDir, ds.name+".json")
		if err := os.WriteFile(outputPath, doc, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("  Written %s (%d bytes)\n", outputPath, len(doc))
	}

	fmt.Println("\nDone! Datasets created in", outputDir)
}
