package slots

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/rtree"

	"github.com/curbd/curbd/geom"
	"github.com/curbd/curbd/roads"
)

// roads within this distance of a slot participate in the crossing cut
const roadCutSearchRadius = 4.0

// CutCrossingRoads clips every slot against the corridors of nearby
// roads other than its own: a slot drawn across an intersection loses
// the part inside the crossing road's corridor. Pieces that survive at
// minimum length re-enter as their own slots; the rest are discarded.
func CutCrossingRoads(slotsIn []Slot, network []roads.Road, offset float64) ([]Slot, int) {
	var tr rtree.RTreeG[int]
	for i := range network {
		b := geom.ExpandBBox(network[i].Geom.Bound(), offset+roadCutSearchRadius)
		tr.Insert(b.Min, b.Max, i)
	}

	var out []Slot
	discarded := 0
	for _, s := range slotsIn {
		var nearby []int
		sb := s.Geom.Bound()
		tr.Search(sb.Min, sb.Max, func(min, max [2]float64, i int) bool {
			if &network[i] != s.Road && geom.DWithin(s.Geom, network[i].Geom, roadCutSearchRadius) {
				nearby = append(nearby, i)
			}
			return true
		})
		if len(nearby) == 0 {
			out = append(out, s)
			continue
		}

		pieces := []orb.LineString{s.Geom}
		for _, i := range nearby {
			var next []orb.LineString
			for _, piece := range pieces {
				next = append(next, geom.SubtractCorridor(piece, network[i].Geom, offset)...)
			}
			pieces = next
		}

		if len(pieces) == 1 && geom.Length(pieces[0]) >= geom.Length(s.Geom)-1e-6 {
			out = append(out, s)
			continue
		}
		if len(pieces) == 0 {
			discarded++
			continue
		}
		for _, piece := range pieces {
			if geom.Length(piece) < minSlotLength {
				discarded++
				continue
			}
			ns := s
			ns.Geom = piece
			ns.Position = piecePosition(&ns, piece)
			out = append(out, ns)
		}
	}
	return out, discarded
}

// CutCrossingSlots truncates every slot that properly crosses another
// slot at a point: the slot keeps the widest stretch of its arc-length
// parameter free of crossing points. Decisions are taken on a snapshot
// of the input so the outcome does not depend on iteration order.
func CutCrossingSlots(slotsIn []Slot) []Slot {
	out := make([]Slot, 0, len(slotsIn))
	for i := range slotsIn {
		s := slotsIn[i]
		var locations []float64
		for j := range slotsIn {
			if i == j {
				continue
			}
			for _, p := range geom.Crossings(s.Geom, slotsIn[j].Geom) {
				locations = append(locations, geom.LineLocatePoint(s.Geom, p))
			}
		}
		if len(locations) == 0 {
			out = append(out, s)
			continue
		}
		sort.Float64s(locations)
		start, stop := geom.MaxRange(locations)
		if sub := geom.LineSubstring(s.Geom, start, stop); sub != nil {
			s.Geom = sub
		}
		out = append(out, s)
	}
	return out
}

// MergeLikeSlots walks each road side in position order and merges
// adjacent slots carrying byte-identical rule sets into one contiguous
// slot, accumulating signpost ids. The composite slot id is assigned
// here: side id plus a two-digit sequence. Running the merge again over
// its own output is a no-op.
func MergeLikeSlots(city string, slotsIn []Slot, within float64) []Slot {
	bySide := make(map[string][]Slot)
	var sides []string
	for _, s := range slotsIn {
		if _, ok := bySide[s.SideID]; !ok {
			sides = append(sides, s.SideID)
		}
		bySide[s.SideID] = append(bySide[s.SideID], s)
	}
	sort.Strings(sides)

	var out []Slot
	for _, side := range sides {
		group := bySide[side]
		sort.Slice(group, func(i, j int) bool { return group[i].Position < group[j].Position })

		var merged []Slot
		for _, s := range group {
			if len(merged) > 0 {
				prev := &merged[len(merged)-1]
				if RulesEqual(prev.Rules, s.Rules) && geom.DWithin(prev.Geom, s.Geom, within) {
					prev.Geom = joinLines(prev.Geom, s.Geom)
					prev.Signposts = appendUnique(prev.Signposts, s.Signposts)
					continue
				}
			}
			merged = append(merged, s)
		}

		for i := range merged {
			merged[i].City = city
			merged[i].ID = fmt.Sprintf("%s%02d", side, i)
			out = append(out, merged[i])
		}
	}

	if len(out) < len(slotsIn) {
		log.Debugf("%s: merged %d slot candidates into %d slots", city, len(slotsIn), len(out))
	}
	return out
}

// joinLines concatenates b onto a, orienting by endpoint proximity.
func joinLines(a, b orb.LineString) orb.LineString {
	if geom.Distance(a[len(a)-1], b[0]) <= geom.Distance(b[len(b)-1], a[0]) {
		return append(append(orb.LineString{}, a...), b...)
	}
	return append(append(orb.LineString{}, b...), a...)
}

func appendUnique(dst []int, add []int) []int {
	seen := make(map[int]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range add {
		if !seen[v] {
			seen[v] = true
			dst = append(dst, v)
		}
	}
	return dst
}
