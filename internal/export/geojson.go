package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"spatialgrid/internal/grid"
	"spatialgrid/internal/join"
	"spatialgrid/internal/knn"
	"spatialgrid/internal/model"
)

// geometry renders a rectangle as a polygon, or as a point when it has no area
func geometry(m model.MBR) orb.Geometry {
	if m.XMin == m.XMax && m.YMin == m.YMax {
		return orb.Point{m.XMin, m.YMin}
	}
	return m.Bound().ToPolygon()
}

func objectFeature(m model.MBR) *geojson.Feature {
	feature := geojson.NewFeature(geometry(m))
	if m.ID != "" {
		feature.ID = m.ID
		feature.Properties["id"] = m.ID
	}
	return feature
}

// ObjectsGeoJSON exports objects as a feature collection
func ObjectsGeoJSON(objects []model.MBR) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, o := range objects {
		fc.Append(objectFeature(o))
	}
	return fc
}

// NeighborsGeoJSON exports k-NN results with their rank and distance, plus
// the query point as the last feature
func NeighborsGeoJSON(qx, qy float64, neighbors []knn.Neighbor) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, n := range neighbors {
		feature := objectFeature(n.Object)
		feature.Properties["rank"] = i + 1
		feature.Properties["distance"] = n.Distance
		fc.Append(feature)
	}

	query := geojson.NewFeature(orb.Point{qx, qy})
	query.Properties["role"] = "query"
	fc.Append(query)
	return fc
}

// PairsGeoJSON exports one feature per pair covering the intersection rectangle
func PairsGeoJSON(pairs []join.Pair) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range pairs {
		feature := geojson.NewFeature(geometry(p.Intersection()))
		feature.Properties["a"] = p.A.ID
		feature.Properties["b"] = p.B.ID
		fc.Append(feature)
	}
	return fc
}

// GridGeoJSON exports every cell with the number of objects per label
func GridGeoJSON(g *grid.Grid) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	labels := g.Labels()
	for _, c := range g.Cells() {
		feature := geojson.NewFeature(c.Bounds.Bound().ToPolygon())
		feature.Properties["i"] = c.I
		feature.Properties["j"] = c.J

		counts := make(map[string]int, len(labels))
		for _, label := range labels {
			counts[label] = c.Count(label)
		}
		feature.Properties["counts"] = counts
		fc.Append(feature)
	}
	return fc
}
