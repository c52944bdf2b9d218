package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"spatialgrid/internal/loader"
	"spatialgrid/internal/postgres"
)

func main() {
	var (
		osmFilePath string
		outputFile  string
		dbURL       string
		label       string
		tag         string
		values      string
		nodes       bool
		procs       int
	)

	// Define command line flags
	flag.StringVar(&osmFilePath, "osm-file", "", "Path to OSM PBF file")
	flag.StringVar(&outputFile, "output", "", "Output CSV file (default: stdout unless -db-url is set)")
	flag.StringVar(&dbURL, "db-url", "", "Database connection URL, stores the rectangles as a dataset")
	flag.StringVar(&label, "label", "default", "Dataset label used with -db-url")
	flag.StringVar(&tag, "tag", "building", "Tag key an object must carry")
	flag.StringVar(&values, "values", "", "Comma-separated list of accepted tag values (default: any)")
	flag.BoolVar(&nodes, "nodes", false, "Also import tagged nodes as point rectangles")
	flag.IntVar(&procs, "procs", 0, "Decoder goroutines (default: GOMAXPROCS)")

	flag.Parse()

	if osmFilePath == "" {
		log.Fatal("No input file specified. Use --osm-file flag")
	}

	f, err := os.Open(osmFilePath)
	if err != nil {
		log.Fatalf("Failed to open OSM file: %v", err)
	}
	defer f.Close()

	opts := loader.OSMOptions{Tag: tag, Nodes: nodes, Procs: procs}
	if values != "" {
		opts.Values = strings.Split(values, ",")
	}

	startTime := time.Now()
	data, report, err := loader.ImportOSM(f, opts)
	if err != nil {
		log.Fatalf("Failed to import OSM data: %v", err)
	}
	log.Printf("Imported %d rectangles from %s (%d nodes, %d ways read)",
		len(data), osmFilePath, report.NodesRead, report.WaysRead)

	if dbURL != "" {
		db := postgres.Init(dbURL)
		defer func() {
			if err := postgres.Close(); err != nil {
				log.Printf("Error closing PostgreSQL connection: %v", err)
			}
		}()

		repo := postgres.NewDatasetRepository(db)
		if err := repo.SaveDataset(context.Background(), label, data); err != nil {
			log.Fatalf("Failed to save dataset %q: %v", label, err)
		}
		log.Printf("Saved dataset %q to PostgreSQL", label)
		if outputFile == "" {
			log.Printf("Done in %v", time.Since(startTime))
			return
		}
	}

	out := os.Stdout
	if outputFile != "" {
		of, err := os.Create(outputFile)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer of.Close()
		out = of
	}

	w := bufio.NewWriter(out)
	if err := loader.WriteCSV(w, data); err != nil {
		log.Fatalf("Failed to write rectangles: %v", err)
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to write rectangles: %v", err)
	}

	log.Printf("Done in %v", time.Since(startTime))
}
