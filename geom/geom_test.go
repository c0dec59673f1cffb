package geom

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func straight(length float64) orb.LineString {
	return orb.LineString{{0, 0}, {length, 0}}
}

func TestIsLeft(t *testing.T) {
	road := straight(100)

	assert.Equal(t, 1, IsLeft(road, orb.Point{50, 10}))
	assert.Equal(t, -1, IsLeft(road, orb.Point{50, -10}))
	assert.Equal(t, 0, IsLeft(road, orb.Point{50, 0}))

	// reversed digitization flips the sides
	rev := Reverse(road)
	assert.Equal(t, -1, IsLeft(rev, orb.Point{50, 10}))
	assert.Equal(t, 1, IsLeft(rev, orb.Point{50, -10}))
}

func TestLineLocatePoint(t *testing.T) {
	road := straight(100)

	assert.InDelta(t, 0.3, LineLocatePoint(road, orb.Point{30, 5}), 1e-9)
	assert.InDelta(t, 0, LineLocatePoint(road, orb.Point{-10, 0}), 1e-9)
	assert.InDelta(t, 1, LineLocatePoint(road, orb.Point{110, 3}), 1e-9)

	bent := orb.LineString{{0, 0}, {10, 0}, {10, 10}}
	assert.InDelta(t, 0.5, LineLocatePoint(bent, orb.Point{10, 0}), 1e-9)
}

func TestLineSubstring(t *testing.T) {
	road := straight(100)

	sub := LineSubstring(road, 0.3, 0.7)
	require.Len(t, sub, 2)
	assert.InDelta(t, 30, sub[0][0], 1e-9)
	assert.InDelta(t, 70, sub[1][0], 1e-9)
	assert.InDelta(t, 40, Length(sub), 1e-9)

	// swapped bounds are tolerated
	sub = LineSubstring(road, 0.7, 0.3)
	assert.InDelta(t, 40, Length(sub), 1e-9)

	// interior vertices are preserved
	bent := orb.LineString{{0, 0}, {10, 0}, {10, 10}}
	sub = LineSubstring(bent, 0.25, 0.75)
	require.Len(t, sub, 3)
	assert.Equal(t, orb.Point{10, 0}, sub[1])

	assert.Nil(t, LineSubstring(road, 0.5, 0.5))
}

func TestClosestPoint(t *testing.T) {
	bent := orb.LineString{{0, 0}, {10, 0}, {10, 10}}
	cp := ClosestPoint(bent, orb.Point{4, 3})
	assert.InDelta(t, 4, cp[0], 1e-9)
	assert.InDelta(t, 0, cp[1], 1e-9)
}

func TestOffsetCurve(t *testing.T) {
	road := straight(100)

	left, ok := OffsetCurve(road, 6)
	require.True(t, ok)
	assert.InDelta(t, 6, left[0][1], 1e-9)
	assert.InDelta(t, 6, left[len(left)-1][1], 1e-9)

	right, ok := OffsetCurve(road, -6)
	require.True(t, ok)
	assert.InDelta(t, -6, right[0][1], 1e-9)

	// a corner joins without folding; every vertex keeps the full
	// offset distance on the left
	bent := orb.LineString{{0, 0}, {50, 0}, {50, 50}}
	off, ok := OffsetCurve(bent, 6)
	require.True(t, ok)
	for _, p := range off {
		assert.GreaterOrEqual(t, DistanceToLine(bent, p), 6.0-1e-9)
		assert.Equal(t, 1, IsLeft(bent, p))
	}

	// hairpin shorter than the offset distance folds over itself: the
	// joined result is a simple line but lands on the wrong side
	hairpin := orb.LineString{{0, 0}, {2, 0}, {2, 0.5}, {0, 0.5}}
	_, ok = OffsetCurve(hairpin, 6)
	assert.False(t, ok)

	// the outer side of the same hairpin offsets cleanly
	_, ok = OffsetCurve(hairpin, -6)
	assert.True(t, ok)

	_, ok = OffsetCurve(orb.LineString{{0, 0}}, 6)
	assert.False(t, ok)
}

func TestCrossings(t *testing.T) {
	a := straight(100)
	b := orb.LineString{{50, -10}, {50, 10}}

	pts := Crossings(a, b)
	require.Len(t, pts, 1)
	assert.InDelta(t, 50, pts[0][0], 1e-9)
	assert.True(t, Crosses(a, b))

	// touching at an endpoint is not a crossing
	c := orb.LineString{{100, 0}, {100, 10}}
	assert.False(t, Crosses(a, c))
}

func TestHausdorffDistance(t *testing.T) {
	a := straight(100)
	b := orb.LineString{{0, 4}, {100, 4}}
	assert.InDelta(t, 4, HausdorffDistance(a, b), 1e-9)
	assert.InDelta(t, 0, HausdorffDistance(a, a), 1e-9)
}

func TestSubtractCorridor(t *testing.T) {
	slot := straight(100)
	crossing := orb.LineString{{50, -20}, {50, 20}}

	pieces := SubtractCorridor(slot, crossing, 6)
	require.Len(t, pieces, 2)
	total := Length(pieces[0]) + Length(pieces[1])
	assert.InDelta(t, 88, total, 2.0)

	// far-away corridor removes nothing
	pieces = SubtractCorridor(slot, orb.LineString{{0, 500}, {100, 500}}, 6)
	require.Len(t, pieces, 1)
	assert.InDelta(t, 100, Length(pieces[0]), 1e-6)
}

func TestIntersectCorridor(t *testing.T) {
	slot := straight(100)
	zone := orb.LineString{{20, 0}, {60, 0}}

	pieces := IntersectCorridor(slot, zone, 1)
	require.Len(t, pieces, 1)
	assert.InDelta(t, 42, Length(pieces[0]), 2.0)
}

func TestMaxRange(t *testing.T) {
	start, stop := MaxRange([]float64{0.2, 0.3})
	assert.InDelta(t, 0.3, start, 1e-9)
	assert.InDelta(t, 1.0, stop, 1e-9)

	start, stop = MaxRange([]float64{0.9})
	assert.InDelta(t, 0.0, start, 1e-9)
	assert.InDelta(t, 0.9, stop, 1e-9)

	start, stop = MaxRange(nil)
	assert.InDelta(t, 0.0, start, 1e-9)
	assert.InDelta(t, 1.0, stop, 1e-9)
}

func TestMinDistance(t *testing.T) {
	a := straight(100)
	b := orb.LineString{{0, 5}, {100, 5}}
	assert.InDelta(t, 5, MinDistance(a, b), 1e-9)
	assert.True(t, DWithin(a, b, 5))
	assert.False(t, DWithin(a, b, 4.9))

	crossing := orb.LineString{{50, -10}, {50, 10}}
	assert.InDelta(t, 0, MinDistance(a, crossing), 1e-9)
}
