package model

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
)

// MBR is an axis-aligned minimum bounding rectangle.
// An empty ID marks a synthetic rectangle (cell bounds, intersections).
type MBR struct {
	ID   string  `json:"id,omitempty"`
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// NewMBR creates a rectangle from its identifier and bounds
func NewMBR(id string, xmin, ymin, xmax, ymax float64) MBR {
	return MBR{ID: id, XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
}

// Valid reports whether the bounds are finite and ordered on both axes
func (m MBR) Valid() bool {
	for _, v := range []float64{m.XMin, m.YMin, m.XMax, m.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return m.XMin <= m.XMax && m.YMin <= m.YMax
}

// Intersects reports whether two rectangles share at least one point.
// Rectangles touching on an edge or a corner intersect.
func (m MBR) Intersects(o MBR) bool {
	return !(m.XMax < o.XMin || m.XMin > o.XMax ||
		m.YMax < o.YMin || m.YMin > o.YMax)
}

// Intersects is the symmetric free-function form of MBR.Intersects
func Intersects(a, b MBR) bool {
	return a.Intersects(b)
}

// ContainsPoint reports whether (x, y) lies in the closed rectangle
func (m MBR) ContainsPoint(x, y float64) bool {
	return m.Rect().ContainsPoint(r2.Point{X: x, Y: y})
}

// DistanceToPoint returns the Euclidean distance from (x, y) to the nearest
// point of the rectangle, zero when the point is inside
func (m MBR) DistanceToPoint(x, y float64) float64 {
	p := r2.Point{X: x, Y: y}
	return p.Sub(m.Rect().ClampPoint(p)).Norm()
}

// MinDistSquared returns the squared distance from (x, y) to the rectangle
func (m MBR) MinDistSquared(x, y float64) float64 {
	dx := math.Max(math.Max(m.XMin-x, 0), x-m.XMax)
	dy := math.Max(math.Max(m.YMin-y, 0), y-m.YMax)
	return dx*dx + dy*dy
}

// Center returns the midpoint of both axes
func (m MBR) Center() (float64, float64) {
	c := m.Rect().Center()
	return c.X, c.Y
}

// Intersection returns the overlapping rectangle without an identifier.
// ok is false when the rectangles are disjoint.
func (m MBR) Intersection(o MBR) (MBR, bool) {
	if !m.Intersects(o) {
		return MBR{}, false
	}
	r := m.Rect().Intersection(o.Rect())
	return MBR{XMin: r.X.Lo, YMin: r.Y.Lo, XMax: r.X.Hi, YMax: r.Y.Hi}, true
}

// ContainsRect reports whether o lies entirely inside m
func (m MBR) ContainsRect(o MBR) bool {
	return m.XMin <= o.XMin && o.XMax <= m.XMax && m.YMin <= o.YMin && o.YMax <= m.YMax
}

// Rect converts the rectangle to an r2.Rect
func (m MBR) Rect() r2.Rect {
	return r2.Rect{
		X: r1.Interval{Lo: m.XMin, Hi: m.XMax},
		Y: r1.Interval{Lo: m.YMin, Hi: m.YMax},
	}
}

// Bound converts the rectangle to an orb.Bound
func (m MBR) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{m.XMin, m.YMin},
		Max: orb.Point{m.XMax, m.YMax},
	}
}

// FromBound creates a rectangle from an orb.Bound
func FromBound(id string, b orb.Bound) MBR {
	return MBR{ID: id, XMin: b.Min[0], YMin: b.Min[1], XMax: b.Max[0], YMax: b.Max[1]}
}

func (m MBR) String() string {
	return fmt.Sprintf("MBR(%s, xmin=%g, ymin=%g, xmax=%g, ymax=%g)", m.ID, m.XMin, m.YMin, m.XMax, m.YMax)
}

// SquaredDistance returns the squared Euclidean distance between two points
func SquaredDistance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}
