package slots

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/curbd/curbd/geom"
	"github.com/curbd/curbd/roads"
	"github.com/curbd/curbd/rules"
	"github.com/curbd/curbd/signs"
)

// AssignConfig carries the per-city knobs of slot construction.
type AssignConfig struct {
	// Offset is the lateral distance from centerline to slot geometry.
	Offset float64
	// KeepUnrestricted keeps candidate segments that end up with no
	// applicable regulation as unrestricted slots. Cities that only
	// publish signed curb space leave this off.
	KeepUnrestricted bool
}

// BuildStats reports the lossy edge cases of one road's slot build.
type BuildStats struct {
	// DiscardedOffsets counts segments dropped because the offset curve
	// folded into a non-simple line.
	DiscardedOffsets int
}

// BuildForRoad derives the slot candidates of one road, both sides,
// resolving for every candidate segment the regulations that bind it.
func BuildForRoad(road *roads.Road, projected []signs.Projected, signsByPost map[int][]signs.Sign, catalog rules.Catalog, cfg AssignConfig) ([]Slot, BuildStats) {
	var out []Slot
	var stats BuildStats

	for _, isLeft := range []int{1, -1} {
		cands := SegmentRoad(road, projected, isLeft)
		codes := assignRules(road, cands, signsByPost)

		for i := range cands {
			if len(codes[i]) == 0 && !cfg.KeepUnrestricted {
				continue
			}
			offset, ok := geom.OffsetCurve(cands[i].Geom, float64(isLeft)*cfg.Offset)
			if !ok {
				stats.DiscardedOffsets++
				continue
			}
			out = append(out, Slot{
				City:      road.City,
				SideID:    road.SideID(isLeft == 1),
				Position:  cands[i].Start,
				Signposts: cands[i].SignpostIDs(),
				Rules:     resolveRules(codes[i], catalog, road.Name),
				WayName:   road.Name,
				Geom:      offset,
				Road:      road,
			})
		}
	}
	return out, stats
}

// assignRules returns, per candidate, the set of regulation codes that
// bind it. Directional signs attach to the single segment lying in the
// indicated direction from their signpost; both-direction signs state
// the curb's standing regulation and carry outward from their signpost
// until the next signpost that sets a regime of its own, or the road end.
func assignRules(road *roads.Road, cands []Candidate, signsByPost map[int][]signs.Sign) [][]string {
	codes := make([][]string, len(cands))
	seen := make([]map[string]bool, len(cands))
	for i := range cands {
		seen[i] = make(map[string]bool)
	}
	add := func(i int, code string) {
		if !seen[i][code] {
			seen[i][code] = true
			codes[i] = append(codes[i], code)
		}
	}

	// directional signs, resolved with the signed-area nextpoint test
	for i := range cands {
		for _, post := range []*signs.Projected{cands[i].StartPost, cands[i].EndPost} {
			if post == nil {
				continue
			}
			for _, s := range signsByPost[post.Signpost.ID] {
				if s.Direction == signs.DirectionBoth {
					continue
				}
				if directionClass(road, post, &cands[i]) == s.Direction {
					add(i, s.Code)
				}
			}
		}
	}

	// both-direction signs, walked outward across the boundary list
	n := len(cands)
	bothAt := func(b int) []string {
		var post *signs.Projected
		if b < n {
			post = cands[b].StartPost
		} else if n > 0 {
			post = cands[n-1].EndPost
		}
		if post == nil {
			return nil
		}
		var cs []string
		for _, s := range signsByPost[post.Signpost.ID] {
			if s.Direction == signs.DirectionBoth {
				cs = append(cs, s.Code)
			}
		}
		return cs
	}

	for b := 0; b <= n; b++ {
		cs := bothAt(b)
		if len(cs) == 0 {
			continue
		}
		for j := b; j < n; j++ { // forward
			for _, c := range cs {
				add(j, c)
			}
			if len(bothAt(j+1)) > 0 {
				break
			}
		}
		for j := b - 1; j >= 0; j-- { // backward
			for _, c := range cs {
				add(j, c)
			}
			if len(bothAt(j)) > 0 {
				break
			}
		}
	}
	return codes
}

// directionClass classifies which way a candidate segment runs as seen
// from the signpost: compare the vector to the segment's next vertex
// against the vector to the physical sign, the cross product's sign
// separating left (1) from right (2).
func directionClass(road *roads.Road, post *signs.Projected, c *Candidate) signs.Direction {
	onRoad := geom.LineInterpolatePoint(road.Geom, post.Position)

	var next orb.Point
	switch {
	case c.StartPost == post:
		next = c.Geom[1]
	case c.EndPost == post:
		next = c.Geom[len(c.Geom)-2]
	default:
		return signs.DirectionBoth
	}

	if geom.Cross(onRoad, post.Signpost.Geom, next) > 0 {
		return signs.DirectionLeft
	}
	return signs.DirectionRight
}

func resolveRules(codes []string, catalog rules.Catalog, wayName string) []rules.Rule {
	out := make([]rules.Rule, 0, len(codes))
	for _, code := range codes {
		r, ok := catalog[code]
		if !ok {
			continue
		}
		r.Address = wayName
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
