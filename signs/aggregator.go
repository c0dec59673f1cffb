package signs

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// CentroidMode selects how a signpost's representative point moves as
// signs merge into it. Cities disagree on this convention.
type CentroidMode int

const (
	// CentroidMidpoint replaces the point with the midpoint of the new
	// sign and the current representative point.
	CentroidMidpoint CentroidMode = iota
	// CentroidMean keeps the true running mean of all member signs.
	CentroidMean
	// CentroidFirst pins the representative point to the first sign.
	CentroidFirst
)

// AggregatorConfig is a city's clustering convention.
type AggregatorConfig struct {
	// Tolerance is the merge distance between a sign and an existing
	// signpost's representative point, in map units.
	Tolerance float64
	Centroid  CentroidMode
}

// Aggregate partitions signs into signposts with greedy sequential
// clustering. The pass is online: each sign either joins the first
// existing signpost on the same street and side within tolerance, or
// starts a new one. Input is processed in canonical (road key, side, id)
// order so reruns are reproducible regardless of caller ordering; the
// ordering is part of the contract, not an accident of iteration.
// Signpost ids are assigned to the signs in place.
func Aggregate(in []Sign, cfg AggregatorConfig) []Signpost {
	ordered := make([]*Sign, len(in))
	for i := range in {
		ordered[i] = &in[i]
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.RoadKey != b.RoadKey {
			return a.RoadKey < b.RoadKey
		}
		if a.Side != b.Side {
			return a.Side < b.Side
		}
		return a.ID < b.ID
	})

	var posts []Signpost
	counts := make(map[int]int) // members per post, for the running mean
	for _, s := range ordered {
		match := -1
		for i := range posts {
			if posts[i].RoadKey != s.RoadKey || posts[i].Side != s.Side {
				continue
			}
			if planar.Distance(posts[i].Geom, s.Geom) <= cfg.Tolerance {
				match = i
				break
			}
		}

		if match < 0 {
			posts = append(posts, Signpost{
				ID:      len(posts) + 1,
				SignIDs: []int64{s.ID},
				Geom:    s.Geom,
				RoadKey: s.RoadKey,
				Side:    s.Side,
			})
			counts[len(posts)] = 1
			s.SignpostID = len(posts)
			continue
		}

		p := &posts[match]
		p.SignIDs = append(p.SignIDs, s.ID)
		n := float64(counts[p.ID])
		switch cfg.Centroid {
		case CentroidMidpoint:
			p.Geom = orb.Point{(p.Geom[0] + s.Geom[0]) / 2, (p.Geom[1] + s.Geom[1]) / 2}
		case CentroidMean:
			p.Geom = orb.Point{
				(p.Geom[0]*n + s.Geom[0]) / (n + 1),
				(p.Geom[1]*n + s.Geom[1]) / (n + 1),
			}
		case CentroidFirst:
			// representative point stays put
		}
		counts[p.ID]++
		s.SignpostID = p.ID
	}
	return posts
}
