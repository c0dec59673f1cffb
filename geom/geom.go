// Package geom implements the planar primitives the slot pipeline needs on
// top of orb types: arc-length parameterization, side tests, offset curves
// and corridor arithmetic. All coordinates are in a projected, metric CRS.
package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Cross returns the z component of (a-o) x (b-o). Positive means b lies
// left of the directed line o->a.
func Cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (b[0]-o[0])*(a[1]-o[1])
}

// IsLeft reports which side of the directed line the point falls on:
// 1 left, -1 right, 0 on the line. The side is taken relative to the
// segment of the line closest to the point, matching the reference
// orientation start->end.
func IsLeft(line orb.LineString, p orb.Point) int {
	if len(line) < 2 {
		return 0
	}
	best := math.Inf(1)
	seg := 0
	for i := 0; i+1 < len(line); i++ {
		d := distanceToSegment(line[i], line[i+1], p)
		if d < best {
			best = d
			seg = i
		}
	}
	c := Cross(line[seg], line[seg+1], p)
	if c > 0 {
		return 1
	}
	if c < 0 {
		return -1
	}
	return 0
}

// Length returns the planar length of the linestring.
func Length(line orb.LineString) float64 {
	return planar.Length(line)
}

// Distance is the planar distance between two points.
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// ExpandBBox grows a bound by margin units on every side.
func ExpandBBox(b orb.Bound, margin float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.Min[0] - margin, b.Min[1] - margin},
		Max: orb.Point{b.Max[0] + margin, b.Max[1] + margin},
	}
}

func distanceToSegment(a, b, p orb.Point) float64 {
	return planar.Distance(p, projectOnSegment(a, b, p))
}

// projectOnSegment returns the point on segment ab closest to p.
func projectOnSegment(a, b, p orb.Point) orb.Point {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return orb.Point{a[0] + t*dx, a[1] + t*dy}
}
