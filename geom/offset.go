package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// miter joins longer than this multiple of the offset distance are beveled
const miterLimit = 5.0

// OffsetCurve shifts the line laterally by dist units. Positive dist
// offsets to the left of the digitized direction, negative to the right.
// On sharply curved or very short input the result can fold back over
// itself; such failures are reported with ok=false and the caller is
// expected to drop the segment.
func OffsetCurve(line orb.LineString, dist float64) (orb.LineString, bool) {
	if len(line) < 2 || dist == 0 {
		return nil, false
	}

	type seg struct{ a, b orb.Point }
	segs := make([]seg, 0, len(line)-1)
	for i := 0; i+1 < len(line); i++ {
		dx, dy := line[i+1][0]-line[i][0], line[i+1][1]-line[i][1]
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		// left normal of the direction vector
		nx, ny := -dy/l*dist, dx/l*dist
		segs = append(segs, seg{
			a: orb.Point{line[i][0] + nx, line[i][1] + ny},
			b: orb.Point{line[i+1][0] + nx, line[i+1][1] + ny},
		})
	}
	if len(segs) == 0 {
		return nil, false
	}

	out := orb.LineString{segs[0].a}
	for i := 0; i+1 < len(segs); i++ {
		join, ok := lineIntersection(segs[i].a, segs[i].b, segs[i+1].a, segs[i+1].b)
		if ok && planar.Distance(join, segs[i].b) <= miterLimit*math.Abs(dist) {
			out = append(out, join)
		} else {
			out = append(out, segs[i].b, segs[i+1].a)
		}
	}
	out = append(out, segs[len(segs)-1].b)
	out = dedupe(out)

	if len(out) < 2 || selfIntersects(out) {
		return nil, false
	}
	// A folded offset can stay simple yet land short of, or on the wrong
	// side of, the input. Every vertex must sit at least the offset
	// distance away, on the requested side.
	side := 1
	if dist < 0 {
		side = -1
	}
	for _, p := range out {
		if DistanceToLine(line, p) < 0.99*math.Abs(dist) || IsLeft(line, p) != side {
			return nil, false
		}
	}
	return out, true
}

// lineIntersection intersects the infinite lines through p1p2 and p3p4.
func lineIntersection(p1, p2, p3, p4 orb.Point) (orb.Point, bool) {
	d := (p2[0]-p1[0])*(p4[1]-p3[1]) - (p2[1]-p1[1])*(p4[0]-p3[0])
	if math.Abs(d) < 1e-12 {
		return orb.Point{}, false
	}
	t := ((p3[0]-p1[0])*(p4[1]-p3[1]) - (p3[1]-p1[1])*(p4[0]-p3[0])) / d
	return orb.Point{p1[0] + t*(p2[0]-p1[0]), p1[1] + t*(p2[1]-p1[1])}, true
}

func dedupe(line orb.LineString) orb.LineString {
	out := line[:1]
	for _, p := range line[1:] {
		if planar.Distance(out[len(out)-1], p) > 1e-9 {
			out = append(out, p)
		}
	}
	return out
}

func selfIntersects(line orb.LineString) bool {
	for i := 0; i+1 < len(line); i++ {
		for j := i + 2; j+1 < len(line); j++ {
			if i == 0 && j+2 == len(line) && planar.Distance(line[0], line[len(line)-1]) < 1e-9 {
				continue
			}
			if _, ok := segmentIntersection(line[i], line[i+1], line[j], line[j+1]); ok {
				return true
			}
		}
	}
	return false
}
