// Package pipeline sequences the slot construction stages for each city
// and loads the results: rules, road matching, signposts, projection,
// candidate slots, paid overlay, cleanup, merge, permits.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/curbd/curbd/cities"
	"github.com/curbd/curbd/database"
	"github.com/curbd/curbd/export"
	"github.com/curbd/curbd/lots"
	"github.com/curbd/curbd/roads"
	"github.com/curbd/curbd/rules"
	"github.com/curbd/curbd/signs"
	"github.com/curbd/curbd/slots"
)

// Options selects what one run processes.
type Options struct {
	Cities []string
	// Offset is the lateral distance from centerline to slot geometry.
	Offset float64
	// Debug additionally loads pre-merge candidate slots.
	Debug bool
}

// Summary is one city's end-of-run accounting.
type Summary struct {
	City               string
	Roads              int
	UnmatchedEdges     int
	Signposts          int
	Orphans            int
	Duplicates         int
	Coverage           float64
	DiscardedOffsets   int
	DiscardedFragments int
	Slots              int
}

// Pipeline runs the slot construction stages.
type Pipeline struct {
	src   Source
	store Store
}

func New(src Source, store Store) *Pipeline {
	return &Pipeline{src: src, store: store}
}

// Run processes the requested cities, each under its own goroutine, and
// reports per-city summaries. Parking lots load first: they are shared
// reference data independent of the slot stages.
func (p *Pipeline) Run(ctx context.Context, opts Options) ([]Summary, error) {
	runID := uuid.NewString()
	log.Infof("run %s: processing %d cities", runID, len(opts.Cities))

	if err := p.store.Setup(ctx); err != nil {
		return nil, fmt.Errorf("setup schema: %w", err)
	}

	if err := p.processLots(ctx, opts.Cities); err != nil {
		return nil, err
	}

	summaries := make([]Summary, len(opts.Cities))
	g, gctx := errgroup.WithContext(ctx)
	for i, city := range opts.Cities {
		i, city := i, city
		g.Go(func() error {
			s, err := p.ProcessCity(gctx, city, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", city, err)
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, s := range summaries {
		log.Infof("%s: %d slots from %d roads (%d unmatched edges, %d orphan signposts, %d discarded offsets, %d discarded fragments)",
			s.City, s.Slots, s.Roads, s.UnmatchedEdges, s.Orphans,
			s.DiscardedOffsets, s.DiscardedFragments)
	}
	return summaries, nil
}

// ProcessCity runs every stage for one city and loads the results.
func (p *Pipeline) ProcessCity(ctx context.Context, city string, opts Options) (Summary, error) {
	conv, err := cities.Get(city)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{City: city}

	log.Infof("%s: loading and normalizing rules", city)
	rawRules, err := p.src.RuleRows(ctx, city)
	if err != nil {
		return sum, err
	}
	ruleList := rules.GroupRules(rawRules)
	catalog := rules.NewCatalog(ruleList)
	if err := p.store.InsertRules(ctx, ruleList); err != nil {
		return sum, err
	}

	log.Infof("%s: matching network edges with geobase", city)
	edges, err := p.src.Edges(ctx, city)
	if err != nil {
		return sum, err
	}
	geobase, err := p.src.Geobase(ctx, city)
	if err != nil {
		return sum, err
	}
	matcher := roads.Matcher{City: city}
	match := matcher.Match(edges, geobase)
	sum.Roads = len(match.Roads)
	sum.UnmatchedEdges = match.Unmatched

	log.Infof("%s: clustering signs into signposts", city)
	rawSigns, err := p.src.Signs(ctx, city, conv)
	if err != nil {
		return sum, err
	}
	filtered := signs.FilterByCatalog(city, rawSigns, catalog)
	posts := signs.Aggregate(filtered, signs.AggregatorConfig{
		Tolerance: conv.ClusterTolerance,
		Centroid:  conv.Centroid,
	})
	sum.Signposts = len(posts)

	log.Infof("%s: projecting signposts on roads", city)
	proj := signs.Project(city, posts, match.Roads, conv.RoadKeyOf)
	sum.Orphans = len(proj.Orphans)
	sum.Duplicates = proj.Duplicates
	sum.Coverage = proj.Coverage()
	if sum.Coverage < 100 {
		log.Warnf("%s: only %.0f%% of %d signposts have been bound to a road",
			city, sum.Coverage, len(posts))
	}
	if len(proj.Orphans) > 0 {
		if err := p.store.InsertOrphans(ctx, city, proj.Orphans); err != nil {
			return sum, err
		}
	}

	log.Infof("%s: creating slots between signposts", city)
	signsByPost := make(map[int][]signs.Sign)
	for _, s := range filtered {
		signsByPost[s.SignpostID] = append(signsByPost[s.SignpostID], s)
	}
	byRoad := make(map[*roads.Road][]signs.Projected)
	for _, pr := range proj.Projected {
		byRoad[pr.Road] = append(byRoad[pr.Road], pr)
	}
	cfg := slots.AssignConfig{Offset: opts.Offset, KeepUnrestricted: conv.KeepUnrestricted}
	var built []slots.Slot
	for i := range match.Roads {
		road := &match.Roads[i]
		ss, stats := slots.BuildForRoad(road, byRoad[road], signsByPost, catalog, cfg)
		built = append(built, ss...)
		sum.DiscardedOffsets += stats.DiscardedOffsets
	}

	if conv.PaidCode != "" {
		log.Infof("%s: overlaying paid slots", city)
		zones, err := p.src.PaidZones(ctx, city)
		if err != nil {
			return sum, err
		}
		meters, err := p.src.PaidMeters(ctx, city)
		if err != nil {
			return sum, err
		}
		zones = append(zones, slots.ZonesFromMeters(city, meters, match.Roads,
			conv.ClusterTolerance, opts.Offset)...)
		paidRule, ok := catalog[conv.PaidCode]
		if !ok {
			log.Warnf("%s: paid code %s missing from the rules catalog, skipping overlay",
				city, conv.PaidCode)
		} else if len(zones) > 0 {
			paidRule.PaidHourlyRate = conv.PaidHourlyRate
			for i := range zones {
				zones[i].Rule = paidRule
			}
			zones = slots.BindZoneRoads(city, zones, match.Roads)
			built = slots.OverlayPaid(built, zones)
		}
	}

	if opts.Debug {
		debugRows, err := export.Rows(city, built)
		if err != nil {
			return sum, err
		}
		if err := p.store.InsertDebugSlots(ctx, city, debugRows); err != nil {
			return sum, err
		}
	}

	log.Infof("%s: shortening slots crossing roads or slots", city)
	built, discarded := slots.CutCrossingRoads(built, match.Roads, opts.Offset)
	sum.DiscardedFragments = discarded
	built = slots.CutCrossingSlots(built)

	log.Infof("%s: aggregating like slots", city)
	final := slots.MergeLikeSlots(city, built, conv.MergeTolerance)
	sum.Slots = len(final)

	rows, err := export.Rows(city, final)
	if err != nil {
		return sum, err
	}
	if err := p.store.ClearCity(ctx, city); err != nil {
		return sum, err
	}
	if err := p.store.InsertSlots(ctx, city, rows); err != nil {
		return sum, err
	}
	if err := p.store.InsertPermits(ctx, ExtractPermits(city, final)); err != nil {
		return sum, err
	}
	return sum, nil
}

// processLots loads each city's parking lot inventory where one exists.
func (p *Pipeline) processLots(ctx context.Context, cityNames []string) error {
	var all []lots.Lot
	for _, city := range cityNames {
		raw, err := p.src.RawLots(ctx, city)
		if errors.Is(err, ErrNoLots) {
			log.Debugf("%s: no parking lot inventory", city)
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", city, err)
		}
		for _, r := range raw {
			lot, err := lots.Build(city, r)
			if err != nil {
				log.Warnf("%s: %v, skipping lot", city, err)
				continue
			}
			all = append(all, lot)
		}
		log.Infof("%s: processed %d parking lots", city, len(raw))
	}
	if len(all) == 0 {
		return nil
	}
	return p.store.InsertLots(ctx, all)
}

// ExtractPermits collects the distinct permit designations of one
// city's finished slots.
func ExtractPermits(city string, ss []slots.Slot) []database.Permit {
	seen := make(map[string]bool)
	for _, s := range ss {
		for _, r := range s.Rules {
			if r.PermitNo != "" {
				seen[r.PermitNo] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for p := range seen {
		names = append(names, p)
	}
	sort.Strings(names)

	out := make([]database.Permit, 0, len(names))
	for _, p := range names {
		out = append(out, database.Permit{
			City:        city,
			Permit:      p,
			Residential: rules.ResidentialPermit(p),
		})
	}
	return out
}
