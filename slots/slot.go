// Package slots builds the final curb segments: it cuts roads at signpost
// projections, resolves which regulations bind each cut, reconciles paid
// zones, and cleans up and merges the resulting geometries.
package slots

import (
	"encoding/json"

	"github.com/paulmach/orb"

	"github.com/curbd/curbd/roads"
	"github.com/curbd/curbd/rules"
)

// Slot is a finished curb segment: a linestring offset to one side of a
// road carrying the set of regulations that apply there.
type Slot struct {
	// ID is the stable composite id: side id plus a two-digit sequence,
	// assigned by the merge step.
	ID     string
	City   string
	SideID string
	// Position is the arc-length fraction of the slot's start along its
	// road, used to order slots on one curb.
	Position  float64
	Signposts []int
	Rules     []rules.Rule
	WayName   string
	Geom      orb.LineString

	// Road is the canonical edge the slot was cut from. Not serialized;
	// cleanup stages need it to re-locate positions.
	Road *roads.Road `json:"-"`
}

// RulesEqual compares two slots' rule sets byte for byte, the identity
// the merge step requires.
func RulesEqual(a, b []rules.Rule) bool {
	if len(a) != len(b) {
		return false
	}
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(aj) == string(bj)
}
