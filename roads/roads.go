// Package roads aligns the generic road network against each city's
// authoritative geobase, producing the canonical road set every later
// stage cuts slots from.
package roads

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Edge is a raw polyline from either the generic network or a city
// geobase.
type Edge struct {
	ID   int64
	Name string
	Geom orb.LineString
}

// Road is a canonical network edge: a generic-network way bound to its
// best-matching geobase edge.
type Road struct {
	// BridgeID is the stable id joining the two networks, carried
	// through every later stage. It is derived from the pair of source
	// ids so reruns on identical input produce identical ids.
	BridgeID  string
	SourceID  int64
	GeobaseID int64
	Name      string
	City      string
	Geom      orb.LineString
	Length    float64
}

// SideID appends the side digit to the bridge id, giving the namespace
// slots on one curb of the road share.
func (r *Road) SideID(isLeft bool) string {
	if isLeft {
		return r.BridgeID + "0"
	}
	return r.BridgeID + "1"
}

func bridgeID(sourceID, geobaseID int64) string {
	return fmt.Sprintf("%07d%07d", sourceID, geobaseID)
}
