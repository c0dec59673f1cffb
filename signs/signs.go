// Package signs turns raw per-city sign records into signposts bound to
// the canonical road network: catalog filtering, greedy clustering of
// collocated signs, and projection onto the nearest matched road.
package signs

import (
	log "github.com/sirupsen/logrus"
	"github.com/paulmach/orb"

	"github.com/curbd/curbd/rules"
)

// Direction is the side of the road a sign's regulation binds, as printed
// on the sign itself.
type Direction int

const (
	DirectionBoth  Direction = 0
	DirectionLeft  Direction = 1
	DirectionRight Direction = 2
)

// Sign is a single physical regulatory sign. Immutable once loaded except
// for the late-bound signpost id.
type Sign struct {
	ID          int64
	SourceID    int64
	Code        string
	Description string
	Direction   Direction
	Geom        orb.Point

	// RoadKey groups signs by the higher-level street identifier their
	// city source ties them to; empty when the source has none.
	RoadKey string
	// Side is the curb side relative to the street's digitized
	// direction: 1 left, -1 right.
	Side int

	// SignpostID is assigned by the aggregator.
	SignpostID int
}

// Signpost is a cluster of signs mounted at the same physical location.
type Signpost struct {
	ID      int
	SignIDs []int64
	Geom    orb.Point
	RoadKey string
	Side    int
}

// FilterByCatalog keeps only signs whose regulation code exists in the
// rules catalog; everything else is noise from the source feed.
func FilterByCatalog(city string, in []Sign, catalog rules.Catalog) []Sign {
	out := make([]Sign, 0, len(in))
	for _, s := range in {
		if catalog.Has(s.Code) {
			out = append(out, s)
		}
	}
	if dropped := len(in) - len(out); dropped > 0 {
		log.Debugf("%s: dropped %d signs with codes missing from the rules catalog", city, dropped)
	}
	return out
}
