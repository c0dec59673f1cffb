package signs

import (
	"math"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/rtree"

	"github.com/curbd/curbd/geom"
	"github.com/curbd/curbd/roads"
)

// maxProjectDistance bounds the spatial join when a signpost carries no
// road key to restrict candidates.
const maxProjectDistance = 30

// Projected is a signpost snapped onto its nearest matched road.
type Projected struct {
	Signpost *Signpost
	Road     *roads.Road
	// Position is the arc-length fraction of the closest point.
	Position float64
	// IsLeft is 1 when the signpost falls left of the road's digitized
	// direction, -1 right.
	IsLeft int
}

// ProjectionResult carries the projections plus the partial-failure
// report the orchestrator surfaces.
type ProjectionResult struct {
	Projected  []Projected
	Orphans    []*Signpost
	Duplicates int
}

// Coverage is the percentage of signposts that found a road.
func (r *ProjectionResult) Coverage() float64 {
	total := len(r.Projected) + len(r.Orphans)
	if total == 0 {
		return 100
	}
	return float64(len(r.Projected)) / float64(total) * 100
}

// Project binds every signpost to the single nearest road. Signposts with
// a road key only consider roads whose geobase edge carries that key;
// the rest fall back to a distance-bounded spatial join. Unmatched
// signposts become orphans: excluded downstream, reported, never fatal.
func Project(city string, posts []Signpost, network []roads.Road, keyOf func(*roads.Road) string) ProjectionResult {
	var tr rtree.RTreeG[int]
	byKey := make(map[string][]int)
	for i := range network {
		b := network[i].Geom.Bound()
		tr.Insert(b.Min, b.Max, i)
		if keyOf != nil {
			byKey[keyOf(&network[i])] = append(byKey[keyOf(&network[i])], i)
		}
	}

	var res ProjectionResult
	for i := range posts {
		sp := &posts[i]

		var candidates []int
		if sp.RoadKey != "" && keyOf != nil {
			candidates = byKey[sp.RoadKey]
		} else {
			b := geom.ExpandBBox(orb.Bound{Min: sp.Geom, Max: sp.Geom}, maxProjectDistance)
			tr.Search(b.Min, b.Max, func(min, max [2]float64, idx int) bool {
				candidates = append(candidates, idx)
				return true
			})
		}

		best, bestDist, ties := -1, math.Inf(1), 0
		for _, idx := range candidates {
			d := geom.DistanceToLine(network[idx].Geom, sp.Geom)
			if sp.RoadKey == "" && d > maxProjectDistance {
				continue
			}
			switch {
			case d < bestDist:
				best, bestDist, ties = idx, d, 0
			case d == bestDist && best >= 0:
				ties++
				// deterministic winner: keep the lower bridge id
				if network[idx].BridgeID < network[best].BridgeID {
					best = idx
				}
			}
		}

		if best < 0 {
			res.Orphans = append(res.Orphans, sp)
			continue
		}
		if ties > 0 {
			res.Duplicates++
		}

		road := &network[best]
		res.Projected = append(res.Projected, Projected{
			Signpost: sp,
			Road:     road,
			Position: geom.LineLocatePoint(road.Geom, sp.Geom),
			IsLeft:   geom.IsLeft(road.Geom, sp.Geom),
		})
	}

	if res.Duplicates > 0 {
		log.Warnf("%s: %d signposts projected at equal distance to multiple roads, first deterministic match kept", city, res.Duplicates)
	}
	return res
}
