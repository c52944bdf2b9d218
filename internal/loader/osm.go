package loader

import (
	"fmt"
	"io"
	"log"
	"runtime"
	"slices"
	"time"

	"github.com/paulmach/orb"
	"github.com/qedus/osmpbf"

	"spatialgrid/internal/model"
)

// OSMOptions select which OpenStreetMap objects become rectangles
type OSMOptions struct {
	// Tag is the key an object must carry, e.g. "building"
	Tag string
	// Values restricts the tag values, empty accepts any value
	Values []string
	// Nodes also imports tagged nodes as point rectangles
	Nodes bool
	// Procs is the number of decoder goroutines, 0 means GOMAXPROCS
	Procs int
}

func (o OSMOptions) matches(tags map[string]string) bool {
	value, ok := tags[o.Tag]
	if !ok {
		return false
	}
	return len(o.Values) == 0 || slices.Contains(o.Values, value)
}

// OSMReport counts what an import produced
type OSMReport struct {
	NodesRead      int           `json:"nodes_read"`
	WaysRead       int           `json:"ways_read"`
	NodeObjects    int           `json:"node_objects"`
	WayObjects     int           `json:"way_objects"`
	WaysIncomplete int           `json:"ways_incomplete"`
	Elapsed        time.Duration `json:"elapsed"`
}

// osmCollector turns decoded nodes and ways into rectangles. x is the
// longitude and y the latitude.
type osmCollector struct {
	opts   OSMOptions
	coords map[int64]orb.Point
	data   []model.MBR
	report OSMReport
}

func newOSMCollector(opts OSMOptions) *osmCollector {
	return &osmCollector{opts: opts, coords: make(map[int64]orb.Point)}
}

func (c *osmCollector) addNode(node *osmpbf.Node) {
	c.report.NodesRead++
	p := orb.Point{node.Lon, node.Lat}
	c.coords[node.ID] = p

	if c.opts.Nodes && c.opts.matches(node.Tags) {
		c.data = append(c.data, model.FromBound(fmt.Sprintf("n%d", node.ID), p.Bound()))
		c.report.NodeObjects++
	}
}

func (c *osmCollector) addWay(way *osmpbf.Way) {
	c.report.WaysRead++
	if !c.opts.matches(way.Tags) {
		return
	}

	var (
		bound orb.Bound
		found bool
	)
	for _, id := range way.NodeIDs {
		p, ok := c.coords[id]
		if !ok {
			continue
		}
		if !found {
			bound = p.Bound()
			found = true
			continue
		}
		bound = bound.Extend(p)
	}
	if !found {
		c.report.WaysIncomplete++
		return
	}

	c.data = append(c.data, model.FromBound(fmt.Sprintf("w%d", way.ID), bound))
	c.report.WayObjects++
}

// ImportOSM reads an OSM PBF stream in two passes, first caching node
// coordinates, then bounding the ways that carry opts.Tag
func ImportOSM(r io.ReadSeeker, opts OSMOptions) ([]model.MBR, OSMReport, error) {
	start := time.Now()
	if opts.Tag == "" {
		return nil, OSMReport{}, fmt.Errorf("osm import: tag must not be empty")
	}
	procs := opts.Procs
	if procs <= 0 {
		procs = runtime.GOMAXPROCS(-1)
	}

	c := newOSMCollector(opts)

	log.Println("Phase 1: Collecting node coordinates...")
	err := decodeOSM(r, procs, func(object interface{}) {
		if node, ok := object.(*osmpbf.Node); ok {
			c.addNode(node)
		}
	})
	if err != nil {
		return nil, c.report, err
	}
	log.Printf("Collected %d nodes, %d node objects", c.report.NodesRead, c.report.NodeObjects)

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, c.report, fmt.Errorf("osm import: rewinding input: %w", err)
	}

	log.Println("Phase 2: Collecting ways...")
	err = decodeOSM(r, procs, func(object interface{}) {
		if way, ok := object.(*osmpbf.Way); ok {
			c.addWay(way)
		}
	})
	if err != nil {
		return nil, c.report, err
	}

	c.report.Elapsed = time.Since(start)
	log.Printf("Collected %d ways, %d way objects, %d without coordinates in %v",
		c.report.WaysRead, c.report.WayObjects, c.report.WaysIncomplete, c.report.Elapsed)
	return c.data, c.report, nil
}

func decodeOSM(r io.Reader, procs int, fn func(object interface{})) error {
	decoder := osmpbf.NewDecoder(r)
	decoder.SetBufferSize(osmpbf.MaxBlobSize)
	if err := decoder.Start(procs); err != nil {
		return fmt.Errorf("osm import: starting decoder: %w", err)
	}

	for {
		object, err := decoder.Decode()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("osm import: decoding: %w", err)
		}
		fn(object)
	}
}
