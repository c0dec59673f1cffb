package geom

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// segmentIntersection returns the proper (interior) intersection point of
// segments p1p2 and p3p4, if any. Touching endpoints do not count.
func segmentIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	d := (p2[0]-p1[0])*(p4[1]-p3[1]) - (p2[1]-p1[1])*(p4[0]-p3[0])
	if math.Abs(d) < 1e-12 {
		return orb.Point{}, false
	}
	t := ((p3[0]-p1[0])*(p4[1]-p3[1]) - (p3[1]-p1[1])*(p4[0]-p3[0])) / d
	u := ((p3[0]-p1[0])*(p2[1]-p1[1]) - (p3[1]-p1[1])*(p2[0]-p1[0])) / d
	const eps = 1e-9
	if t <= eps || t >= 1-eps || u <= eps || u >= 1-eps {
		return orb.Point{}, false
	}
	return orb.Point{p1[0] + t*(p2[0]-p1[0]), p1[1] + t*(p2[1]-p1[1])}, true
}

// Crossings returns the points where a and b properly cross, sorted by
// their arc-length position along a.
func Crossings(a, b orb.LineString) []orb.Point {
	var pts []orb.Point
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if p, ok := segmentIntersection(a[i], a[i+1], b[j], b[j+1]); ok {
				pts = append(pts, p)
			}
		}
	}
	sort.Slice(pts, func(i, j int) bool {
		return LineLocatePoint(a, pts[i]) < LineLocatePoint(a, pts[j])
	})
	return pts
}

// Crosses reports whether the two lines properly cross at least once.
func Crosses(a, b orb.LineString) bool {
	for i := 0; i+1 < len(a); i++ {
		for j := 0; j+1 < len(b); j++ {
			if _, ok := segmentIntersection(a[i], a[i+1], b[j], b[j+1]); ok {
				return true
			}
		}
	}
	return false
}

// MinDistance is the minimum distance between two linestrings.
func MinDistance(a, b orb.LineString) float64 {
	if Crosses(a, b) {
		return 0
	}
	best := math.Inf(1)
	for _, p := range a {
		if d := DistanceToLine(b, p); d < best {
			best = d
		}
	}
	for _, p := range b {
		if d := DistanceToLine(a, p); d < best {
			best = d
		}
	}
	return best
}

// DWithin reports whether the lines come within dist of each other.
func DWithin(a, b orb.LineString, dist float64) bool {
	return MinDistance(a, b) <= dist
}

// HausdorffDistance is the discrete Hausdorff distance between the two
// lines, computed over their vertices.
func HausdorffDistance(a, b orb.LineString) float64 {
	return math.Max(directedHausdorff(a, b), directedHausdorff(b, a))
}

func directedHausdorff(a, b orb.LineString) float64 {
	var worst float64
	for _, p := range a {
		if d := DistanceToLine(b, p); d > worst {
			worst = d
		}
	}
	return worst
}

// corridor subtraction samples the line at this arc-length step
const corridorStep = 0.5

// SubtractCorridor removes the parts of line lying within radius of
// center, returning the surviving pieces. This is the line/buffer
// difference the road-crossing cut needs, computed by sampling.
func SubtractCorridor(line, center orb.LineString, radius float64) []orb.LineString {
	total := planar.Length(line)
	if total == 0 {
		return nil
	}
	n := int(math.Ceil(total/corridorStep)) + 1
	if n < 2 {
		n = 2
	}

	outside := make([]bool, n)
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1)
		outside[i] = DistanceToLine(center, LineInterpolatePoint(line, f)) > radius
	}

	var pieces []orb.LineString
	start := -1
	for i := 0; i <= n; i++ {
		if i < n && outside[i] {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			from := float64(start) / float64(n-1)
			to := float64(i-1) / float64(n-1)
			if sub := LineSubstring(line, from, to); sub != nil {
				pieces = append(pieces, sub)
			}
			start = -1
		}
	}
	return pieces
}

// ContainedInCorridor reports whether every vertex of line lies within
// radius of center.
func ContainedInCorridor(line, center orb.LineString, radius float64) bool {
	for _, p := range line {
		if DistanceToLine(center, p) > radius {
			return false
		}
	}
	return true
}

// IntersectCorridor returns the parts of line lying within radius of
// center, the complement of SubtractCorridor.
func IntersectCorridor(line, center orb.LineString, radius float64) []orb.LineString {
	total := planar.Length(line)
	if total == 0 {
		return nil
	}
	n := int(math.Ceil(total/corridorStep)) + 1
	if n < 2 {
		n = 2
	}

	inside := make([]bool, n)
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1)
		inside[i] = DistanceToLine(center, LineInterpolatePoint(line, f)) <= radius
	}

	var pieces []orb.LineString
	start := -1
	for i := 0; i <= n; i++ {
		if i < n && inside[i] {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			from := float64(start) / float64(n-1)
			to := float64(i-1) / float64(n-1)
			if sub := LineSubstring(line, from, to); sub != nil {
				pieces = append(pieces, sub)
			}
			start = -1
		}
	}
	return pieces
}

// MaxRange takes the sorted crossing positions along a slot's [0,1]
// parameter and returns the bounds of the widest surviving gap.
func MaxRange(locations []float64) (start, stop float64) {
	bounds := make([]float64, 0, len(locations)+2)
	bounds = append(bounds, 0)
	bounds = append(bounds, locations...)
	bounds = append(bounds, 1)
	sort.Float64s(bounds)

	start, stop = bounds[0], bounds[1]
	for i := 0; i+1 < len(bounds); i++ {
		if bounds[i+1]-bounds[i] > stop-start {
			start, stop = bounds[i], bounds[i+1]
		}
	}
	return start, stop
}
