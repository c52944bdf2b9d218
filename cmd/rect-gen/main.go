package main

import (
	"bufio"
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"spatialgrid/internal/loader"
	"spatialgrid/internal/model"
)

func main() {
	// Define command line flags
	count := flag.Int("n", 1000, "Number of rectangles to generate")
	prefix := flag.String("prefix", "R", "Identifier prefix, rectangles are named <prefix>1..<prefix>N")
	outputFile := flag.String("output", "", "Output CSV file (default: stdout)")
	xl := flag.Float64("xl", 0, "Lower x bound of the generated area")
	yl := flag.Float64("yl", 0, "Lower y bound of the generated area")
	xu := flag.Float64("xu", 100, "Upper x bound of the generated area")
	yu := flag.Float64("yu", 100, "Upper y bound of the generated area")
	maxWidth := flag.Float64("max-width", 5, "Maximum rectangle width")
	maxHeight := flag.Float64("max-height", 5, "Maximum rectangle height")
	seed := flag.Int64("seed", 0, "Random seed, 0 picks one from the clock")

	flag.Parse()

	if *count < 0 {
		log.Fatal("Rectangle count must not be negative")
	}
	bounds := model.NewMBR("", *xl, *yl, *xu, *yu)
	if !bounds.Valid() {
		log.Fatalf("Invalid bounds: %s", bounds)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	gen := loader.Generator{
		Bounds:    bounds,
		MaxWidth:  *maxWidth,
		MaxHeight: *maxHeight,
		Rand:      rand.New(rand.NewSource(*seed)),
	}

	startTime := time.Now()
	data := gen.Generate(*count, *prefix)

	out := os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	if err := loader.WriteCSV(w, data); err != nil {
		log.Fatalf("Failed to write rectangles: %v", err)
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to write rectangles: %v", err)
	}

	log.Printf("Generated %d rectangles (seed %d) in %v", len(data), *seed, time.Since(startTime))
}
