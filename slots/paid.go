package slots

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/rtree"

	"github.com/curbd/curbd/geom"
	"github.com/curbd/curbd/roads"
	"github.com/curbd/curbd/rules"
	"github.com/curbd/curbd/signs"
)

const (
	// paid-zone corridor radius around the zone geometry
	paidCorridorRadius = 1.0
	// slot fragments shorter than this are discarded as noise
	minSlotLength = 4.0
	// road-less zones bind to a road within this distance
	zoneBindRadius = 30.0
	// meter clusters farther apart than this along the road start a new
	// zone
	meterRunGap = 10.0
	// zones reach past their outermost meter by this much
	meterZonePad = 2.0
)

// PaidZone is an independently derived stretch of paid parking pushed to
// one curb, carrying the paid regulation with its hourly rate.
type PaidZone struct {
	Road   *roads.Road
	IsLeft int
	Geom   orb.LineString
	Rule   rules.Rule
}

// ZonesFromMeters derives paid zones for cities that publish raw meter
// points instead of drawn stretches. Meters cluster the same way signs
// do, bind to the nearest road, and every run of clusters on one curb
// becomes a single zone pushed to that curb.
func ZonesFromMeters(city string, meters []orb.Point, network []roads.Road, tolerance, offset float64) []PaidZone {
	if len(meters) == 0 {
		return nil
	}
	ms := make([]signs.Sign, len(meters))
	for i, p := range meters {
		ms[i] = signs.Sign{ID: int64(i), Geom: p}
	}
	posts := signs.Aggregate(ms, signs.AggregatorConfig{
		Tolerance: tolerance,
		Centroid:  signs.CentroidMean,
	})
	proj := signs.Project(city, posts, network, nil)
	if len(proj.Orphans) > 0 {
		log.Debugf("%s: %d meter clusters too far from any road", city, len(proj.Orphans))
	}

	type curb struct {
		road *roads.Road
		left bool
	}
	runs := make(map[curb][]float64)
	for _, pr := range proj.Projected {
		k := curb{pr.Road, pr.IsLeft == 1}
		runs[k] = append(runs[k], pr.Position)
	}
	curbs := make([]curb, 0, len(runs))
	for k := range runs {
		curbs = append(curbs, k)
	}
	sort.Slice(curbs, func(i, j int) bool {
		if curbs[i].road.BridgeID != curbs[j].road.BridgeID {
			return curbs[i].road.BridgeID < curbs[j].road.BridgeID
		}
		return curbs[i].left && !curbs[j].left
	})

	var zones []PaidZone
	for _, k := range curbs {
		pos := runs[k]
		sort.Float64s(pos)
		start := 0
		for i := 1; i <= len(pos); i++ {
			if i < len(pos) && (pos[i]-pos[i-1])*k.road.Length <= meterRunGap {
				continue
			}
			if z, ok := zoneFromRun(k.road, k.left, pos[start:i], offset); ok {
				zones = append(zones, z)
			}
			start = i
		}
	}
	return zones
}

func zoneFromRun(road *roads.Road, left bool, pos []float64, offset float64) (PaidZone, bool) {
	if road.Length == 0 || len(pos) == 0 {
		return PaidZone{}, false
	}
	pad := meterZonePad / road.Length
	a, b := pos[0]-pad, pos[len(pos)-1]+pad
	if a < 0 {
		a = 0
	}
	if b > 1 {
		b = 1
	}
	sub := geom.LineSubstring(road.Geom, a, b)
	if sub == nil {
		return PaidZone{}, false
	}

	dist, isLeft := offset, 1
	if !left {
		dist, isLeft = -offset, -1
	}
	g, ok := geom.OffsetCurve(sub, dist)
	if !ok {
		return PaidZone{}, false
	}
	return PaidZone{Road: road, IsLeft: isLeft, Geom: g}, true
}

// BindZoneRoads attaches every road-less zone to the single nearest
// matched road. A standalone paid slot takes its curb side, way name and
// id namespace from its road, so zones no road comes near are dropped.
func BindZoneRoads(city string, zones []PaidZone, network []roads.Road) []PaidZone {
	var tr rtree.RTreeG[int]
	for i := range network {
		b := network[i].Geom.Bound()
		tr.Insert(b.Min, b.Max, i)
	}

	out := make([]PaidZone, 0, len(zones))
	dropped := 0
	for _, z := range zones {
		if z.Road != nil || len(z.Geom) == 0 {
			out = append(out, z)
			continue
		}

		var candidates []int
		b := geom.ExpandBBox(z.Geom.Bound(), zoneBindRadius)
		tr.Search(b.Min, b.Max, func(min, max [2]float64, idx int) bool {
			candidates = append(candidates, idx)
			return true
		})

		best, bestDist := -1, math.Inf(1)
		for _, idx := range candidates {
			d := geom.MinDistance(network[idx].Geom, z.Geom)
			if d > zoneBindRadius {
				continue
			}
			if d < bestDist ||
				(d == bestDist && best >= 0 && network[idx].BridgeID < network[best].BridgeID) {
				best, bestDist = idx, d
			}
		}
		if best < 0 {
			dropped++
			continue
		}

		z.Road = &network[best]
		if z.IsLeft == 0 {
			z.IsLeft = geom.IsLeft(z.Road.Geom, z.Geom[0])
		}
		out = append(out, z)
	}
	if dropped > 0 {
		log.Warnf("%s: dropped %d paid zones with no matched road within %g units", city, dropped, zoneBindRadius)
	}
	return out
}

// OverlayPaid reconciles paid-parking zones with the normal slot set.
// Slots overlapping a zone corridor by at least the minimum length are
// split: the overlapping part gains the zone's paid rule on top of its
// own, the remainder keeps only the originals. Fragments below the
// minimum length are dropped. Zones no slot covers become standalone
// paid-only slots.
func OverlayPaid(slotsIn []Slot, zones []PaidZone) []Slot {
	covered := make([]bool, len(zones))
	var out []Slot

	for _, s := range slotsIn {
		var hits []int
		for zi := range zones {
			if geom.DWithin(s.Geom, zones[zi].Geom, paidCorridorRadius) {
				hits = append(hits, zi)
				covered[zi] = true
			}
		}
		if len(hits) == 0 {
			out = append(out, s)
			continue
		}

		centers := make([]orb.LineString, len(hits))
		for i, zi := range hits {
			centers[i] = zones[zi].Geom
		}
		inside, outside := splitByZones(s.Geom, centers, paidCorridorRadius)

		if totalLength(inside) < minSlotLength {
			// overlap too small to split on, slot stays as-is
			out = append(out, s)
			continue
		}

		paidRule := zones[hits[0]].Rule
		paidRule.Address = s.WayName
		for _, piece := range inside {
			if geom.Length(piece) < minSlotLength {
				continue
			}
			ns := s
			ns.Geom = piece
			ns.Rules = append(append([]rules.Rule{}, s.Rules...), paidRule)
			ns.Position = piecePosition(&ns, piece)
			out = append(out, ns)
		}
		for _, piece := range outside {
			if geom.Length(piece) < minSlotLength {
				continue
			}
			ns := s
			ns.Geom = piece
			ns.Position = piecePosition(&ns, piece)
			out = append(out, ns)
		}
	}

	// zones untouched by any slot become standalone paid slots
	for zi := range zones {
		if covered[zi] || geom.Length(zones[zi].Geom) < minSlotLength {
			continue
		}
		z := zones[zi]
		rule := z.Rule
		if z.Road != nil {
			rule.Address = z.Road.Name
		}
		s := Slot{
			Signposts: []int{0, 0},
			Rules:     []rules.Rule{rule},
			Geom:      z.Geom,
			Road:      z.Road,
		}
		if z.Road != nil {
			s.City = z.Road.City
			s.SideID = z.Road.SideID(z.IsLeft == 1)
			s.WayName = z.Road.Name
			s.Position = geom.LineLocatePoint(z.Road.Geom, z.Geom[0])
		}
		out = append(out, s)
	}
	return out
}

func piecePosition(s *Slot, piece orb.LineString) float64 {
	if s.Road == nil {
		return s.Position
	}
	return geom.LineLocatePoint(s.Road.Geom, piece[0])
}

func totalLength(pieces []orb.LineString) float64 {
	var sum float64
	for _, p := range pieces {
		sum += geom.Length(p)
	}
	return sum
}

// splitByZones partitions a line into the parts inside and outside the
// union of the zone corridors, sampling along the line the same way the
// single-corridor primitives do.
func splitByZones(line orb.LineString, centers []orb.LineString, radius float64) (inside, outside []orb.LineString) {
	total := geom.Length(line)
	if total == 0 {
		return nil, nil
	}
	n := int(math.Ceil(total/0.5)) + 1
	if n < 2 {
		n = 2
	}

	in := make([]bool, n)
	for i := 0; i < n; i++ {
		p := geom.LineInterpolatePoint(line, float64(i)/float64(n-1))
		for _, c := range centers {
			if geom.DistanceToLine(c, p) <= radius {
				in[i] = true
				break
			}
		}
	}

	flush := func(from, to int, inCorridor bool) {
		a := float64(from) / float64(n-1)
		b := float64(to) / float64(n-1)
		sub := geom.LineSubstring(line, a, b)
		if sub == nil {
			return
		}
		if inCorridor {
			inside = append(inside, sub)
		} else {
			outside = append(outside, sub)
		}
	}

	// consecutive pieces share the transition sample so no interval is
	// lost between them
	start := 0
	for i := 1; i < n; i++ {
		if in[i] == in[start] {
			continue
		}
		flush(start, i, in[start])
		start = i
	}
	flush(start, n-1, in[start])
	return inside, outside
}
