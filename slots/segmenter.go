package slots

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/curbd/curbd/geom"
	"github.com/curbd/curbd/roads"
	"github.com/curbd/curbd/signs"
)

// cut positions closer than this along the normalized parameter collapse
const positionTolerance = 1e-6

// Candidate is a sub-span of one road between two consecutive cut
// positions on one side. Candidates on a road+side tile [0,1] without
// gaps or overlaps.
type Candidate struct {
	Road   *roads.Road
	IsLeft int
	Start  float64
	End    float64
	// StartPost and EndPost are the projected signposts bounding the
	// span; nil at a road endpoint with no signpost.
	StartPost *signs.Projected
	EndPost   *signs.Projected
	Geom      orb.LineString
}

// SignpostIDs returns the bounding signpost ids, 0 standing in for a bare
// road endpoint.
func (c *Candidate) SignpostIDs() []int {
	ids := []int{0, 0}
	if c.StartPost != nil {
		ids[0] = c.StartPost.Signpost.ID
	}
	if c.EndPost != nil {
		ids[1] = c.EndPost.Signpost.ID
	}
	return ids
}

// SegmentRoad cuts a road into ordered candidate segments for one side,
// using the road's endpoints plus every signpost projected onto that side
// as cut positions.
func SegmentRoad(road *roads.Road, projected []signs.Projected, isLeft int) []Candidate {
	type cut struct {
		pos  float64
		post *signs.Projected
	}
	cuts := []cut{{pos: 0}, {pos: 1}}
	for i := range projected {
		p := &projected[i]
		if p.Road != road || p.IsLeft != isLeft {
			continue
		}
		cuts = append(cuts, cut{pos: p.Position, post: p})
	}

	sort.Slice(cuts, func(i, j int) bool { return cuts[i].pos < cuts[j].pos })

	// dedupe within tolerance, preferring the entry that carries a post
	deduped := cuts[:1]
	for _, c := range cuts[1:] {
		last := &deduped[len(deduped)-1]
		if c.pos-last.pos < positionTolerance {
			if last.post == nil {
				last.post = c.post
			}
			continue
		}
		deduped = append(deduped, c)
	}

	out := make([]Candidate, 0, len(deduped)-1)
	for i := 0; i+1 < len(deduped); i++ {
		sub := geom.LineSubstring(road.Geom, deduped[i].pos, deduped[i+1].pos)
		if sub == nil {
			continue
		}
		out = append(out, Candidate{
			Road:      road,
			IsLeft:    isLeft,
			Start:     deduped[i].pos,
			End:       deduped[i+1].pos,
			StartPost: deduped[i].post,
			EndPost:   deduped[i+1].post,
			Geom:      sub,
		})
	}
	return out
}
