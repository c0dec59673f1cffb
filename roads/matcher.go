package roads

import (
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/texttheater/golang-levenshtein/levenshtein"
	"github.com/tidwall/rtree"

	"github.com/curbd/curbd/geom"
)

const (
	// spatial join margin for candidate lookup
	searchMargin = 10
	// corridor radius for the buffer-containment predicate
	containRadius = 30
	// edges shorter than this are considered degenerate
	minEdgeLength = 1e-6
)

// MatchResult is the outcome of matching one city's networks.
type MatchResult struct {
	Roads     []Road
	Unmatched int
}

// Matcher scores generic-network edges against geobase candidates.
type Matcher struct {
	City string
}

// Match selects, for every source edge, the best-scoring geobase edge
// within tolerance. Edges unmatched after the direct pass are retried
// with the buffer containment inverted, which catches short or partial
// ways the first pass misses. Edges still unmatched are dropped from the
// canonical network.
func (m *Matcher) Match(source, geobase []Edge) MatchResult {
	var tr rtree.RTreeG[int]
	for i, g := range geobase {
		if geom.Length(g.Geom) < minEdgeLength {
			continue
		}
		b := g.Geom.Bound()
		tr.Insert(b.Min, b.Max, i)
	}

	// stable processing order, independent of caller's slice order
	ordered := make([]Edge, len(source))
	copy(ordered, source)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var out MatchResult
	for pass := 0; pass < 2; pass++ {
		var remaining []Edge
		for _, src := range ordered {
			if geom.Length(src.Geom) < minEdgeLength {
				continue
			}
			best, ok := m.bestCandidate(&tr, src, geobase, pass == 1)
			if !ok {
				remaining = append(remaining, src)
				continue
			}
			out.Roads = append(out.Roads, Road{
				BridgeID:  bridgeID(src.ID, best.ID),
				SourceID:  src.ID,
				GeobaseID: best.ID,
				Name:      src.Name,
				City:      m.City,
				Geom:      src.Geom,
				Length:    geom.Length(src.Geom),
			})
		}
		ordered = remaining
	}

	out.Unmatched = len(ordered)
	if out.Unmatched > 0 {
		log.Warnf("%s: %d network edges had no geobase match and were dropped", m.City, out.Unmatched)
	}
	return out
}

type score struct {
	shape       float64
	editDist    int
	lengthRatio float64
	geobaseID   int64
}

func (s score) less(o score) bool {
	if s.shape != o.shape {
		return s.shape < o.shape
	}
	if s.editDist != o.editDist {
		return s.editDist < o.editDist
	}
	if s.lengthRatio != o.lengthRatio {
		return s.lengthRatio < o.lengthRatio
	}
	// exact score ties pick a single deterministic winner
	return s.geobaseID < o.geobaseID
}

func (m *Matcher) bestCandidate(tr *rtree.RTreeG[int], src Edge, geobase []Edge, inverted bool) (Edge, bool) {
	srcLen := geom.Length(src.Geom)
	bound := geom.ExpandBBox(src.Geom.Bound(), searchMargin)

	bestIdx := -1
	var bestScore score
	tr.Search(bound.Min, bound.Max, func(min, max [2]float64, i int) bool {
		cand := geobase[i]
		contained := geom.ContainedInCorridor(src.Geom, cand.Geom, containRadius)
		if inverted {
			contained = geom.ContainedInCorridor(cand.Geom, src.Geom, containRadius)
		}
		if !contained {
			return true
		}
		candLen := geom.Length(cand.Geom)
		longer := srcLen
		if candLen > longer {
			longer = candLen
		}
		s := score{
			shape:       geom.HausdorffDistance(src.Geom, cand.Geom),
			editDist:    levenshtein.DistanceForStrings([]rune(src.Name), []rune(cand.Name), levenshtein.DefaultOptions),
			lengthRatio: abs(srcLen-candLen) / longer,
			geobaseID:   cand.ID,
		}
		if bestIdx < 0 || s.less(bestScore) {
			bestIdx, bestScore = i, s
		}
		return true
	})

	if bestIdx < 0 {
		return Edge{}, false
	}
	return geobase[bestIdx], true
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
