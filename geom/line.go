package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ClosestPoint returns the point on the line closest to p.
func ClosestPoint(line orb.LineString, p orb.Point) orb.Point {
	best := math.Inf(1)
	var out orb.Point
	for i := 0; i+1 < len(line); i++ {
		cand := projectOnSegment(line[i], line[i+1], p)
		if d := planar.Distance(p, cand); d < best {
			best = d
			out = cand
		}
	}
	return out
}

// DistanceToLine is the minimum distance from p to the line.
func DistanceToLine(line orb.LineString, p orb.Point) float64 {
	return planar.Distance(p, ClosestPoint(line, p))
}

// LineLocatePoint returns the arc-length fraction in [0,1] of the point on
// the line closest to p.
func LineLocatePoint(line orb.LineString, p orb.Point) float64 {
	total := planar.Length(line)
	if total == 0 {
		return 0
	}
	best := math.Inf(1)
	var acc, at float64
	for i := 0; i+1 < len(line); i++ {
		cand := projectOnSegment(line[i], line[i+1], p)
		if d := planar.Distance(p, cand); d < best {
			best = d
			at = acc + planar.Distance(line[i], cand)
		}
		acc += planar.Distance(line[i], line[i+1])
	}
	f := at / total
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// LineInterpolatePoint returns the point at arc-length fraction f.
func LineInterpolatePoint(line orb.LineString, f float64) orb.Point {
	if len(line) == 0 {
		return orb.Point{}
	}
	if f <= 0 {
		return line[0]
	}
	if f >= 1 {
		return line[len(line)-1]
	}
	target := f * planar.Length(line)
	var acc float64
	for i := 0; i+1 < len(line); i++ {
		seg := planar.Distance(line[i], line[i+1])
		if acc+seg >= target && seg > 0 {
			t := (target - acc) / seg
			return orb.Point{
				line[i][0] + t*(line[i+1][0]-line[i][0]),
				line[i][1] + t*(line[i+1][1]-line[i][1]),
			}
		}
		acc += seg
	}
	return line[len(line)-1]
}

// LineSubstring returns the sub-linestring between arc-length fractions
// start and end. Arguments are swapped if given out of order.
func LineSubstring(line orb.LineString, start, end float64) orb.LineString {
	if start > end {
		start, end = end, start
	}
	if start < 0 {
		start = 0
	}
	if end > 1 {
		end = 1
	}
	total := planar.Length(line)
	if total == 0 || start == end {
		return nil
	}
	from, to := start*total, end*total

	out := orb.LineString{LineInterpolatePoint(line, start)}
	var acc float64
	for i := 0; i+1 < len(line); i++ {
		seg := planar.Distance(line[i], line[i+1])
		acc += seg
		if acc > from && acc < to {
			out = append(out, line[i+1])
		}
	}
	last := LineInterpolatePoint(line, end)
	if planar.Distance(out[len(out)-1], last) > 0 {
		out = append(out, last)
	}
	if len(out) < 2 {
		return nil
	}
	return out
}

// Reverse returns the line with vertex order flipped.
func Reverse(line orb.LineString) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, p := range line {
		out[len(line)-1-i] = p
	}
	return out
}
