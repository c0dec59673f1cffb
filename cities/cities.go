// Package cities holds the per-city conventions of the slot pipeline:
// every supported city publishes signs in its own dialect, clusters its
// posts at a different density, and prices paid parking its own way.
package cities

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/curbd/curbd/roads"
	"github.com/curbd/curbd/signs"
)

// Convention is the knob set one city contributes to the otherwise
// city-agnostic pipeline stages.
type Convention struct {
	Name string

	// ClusterTolerance is the distance under which two signs merge into
	// one signpost.
	ClusterTolerance float64
	// Centroid selects how a signpost's point moves as signs join it.
	Centroid signs.CentroidMode

	// MergeTolerance is the gap under which rule-identical adjacent
	// slots on one curb side collapse into one.
	MergeTolerance float64

	// KeepUnrestricted keeps curb stretches with no applicable signs as
	// unrestricted slots.
	KeepUnrestricted bool

	// PaidCode and PaidHourlyRate describe the city's metered-parking
	// regulation; empty PaidCode skips the paid overlay stage.
	PaidCode       string
	PaidHourlyRate float64

	// DecodeDirection maps the city's raw arrow encoding to a side.
	DecodeDirection func(arrow int, description string) signs.Direction

	// RoadKeyOf derives the key signs reference their street by, for
	// feeds that carry one. Cities without it project by distance alone.
	RoadKeyOf func(r *roads.Road) string
}

var conventions = map[string]Convention{
	"montreal": {
		Name:             "montreal",
		ClusterTolerance: 1,
		Centroid:         signs.CentroidFirst,
		MergeTolerance:   0.1,
		DecodeDirection:  arrowDirection,
	},
	"quebec": {
		Name:             "quebec",
		ClusterTolerance: 7,
		Centroid:         signs.CentroidMidpoint,
		MergeTolerance:   0.1,
		PaidCode:         "QCPAID",
		PaidHourlyRate:   2.25,
		DecodeDirection:  descriptionDirection,
	},
	"newyork": {
		Name:             "newyork",
		ClusterTolerance: 5,
		Centroid:         signs.CentroidMean,
		MergeTolerance:   0.1,
		DecodeDirection:  arrowDirection,
		RoadKeyOf:        roadNameKey,
	},
	"seattle": {
		Name:             "seattle",
		ClusterTolerance: 5,
		Centroid:         signs.CentroidMean,
		MergeTolerance:   3,
		DecodeDirection:  arrowDirection,
	},
	"boston": {
		Name:             "boston",
		ClusterTolerance: 1,
		Centroid:         signs.CentroidMidpoint,
		MergeTolerance:   0.1,
		DecodeDirection:  arrowDirection,
		RoadKeyOf:        roadNameKey,
	},
}

// roadNameKey keys streets by their uppercased name, the convention of
// the feeds that reference signs to streets by name.
func roadNameKey(r *roads.Road) string {
	return strings.ToUpper(r.Name)
}

// Get returns the convention of one city.
func Get(name string) (Convention, error) {
	c, ok := conventions[strings.ToLower(name)]
	if !ok {
		return Convention{}, fmt.Errorf("unsupported city %q", name)
	}
	return c, nil
}

// All returns every supported city name, sorted.
func All() []string {
	out := make([]string, 0, len(conventions))
	for name := range conventions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// arrowDirection decodes the numeric arrow field carried by most sign
// feeds: 2 points left, 3 points right, 0 and 8 mean the rule holds on
// both sides of the post.
func arrowDirection(arrow int, _ string) signs.Direction {
	switch arrow {
	case 2:
		return signs.DirectionLeft
	case 3:
		return signs.DirectionRight
	default:
		return signs.DirectionBoth
	}
}

var (
	reFlecheDroite = regexp.MustCompile(`\((fl.*dr.*)\)`)
	reFlecheGauche = regexp.MustCompile(`\((fl.*ga.*)\)`)
)

// descriptionDirection decodes the arrow from the free-text description,
// the only place some feeds carry it ("(flèche droite)" and friends).
// No recognizable arrow means both sides.
func descriptionDirection(_ int, description string) signs.Direction {
	d := strings.ToLower(description)
	switch {
	case reFlecheDroite.MatchString(d):
		return signs.DirectionRight
	case reFlecheGauche.MatchString(d):
		return signs.DirectionLeft
	default:
		return signs.DirectionBoth
	}
}
