// Package chart maps a classified result shape to an ordered list of chart
// encodings. Selection is driven by a declarative rule table over the multiset of
// column roles; a new role combination is a new table row, not new branching. The
// table fallback is always appended last, so no shape ever yields zero charts.
package chart

import (
	"sort"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

// Options holds chart selection thresholds.
type Options struct {
	SampleThreshold  int // Rows above which point-dense charts carry the sample flag
	PieMaxCategories int // Largest aggregated result a pie may encode
}

// DefaultOptions returns the documented thresholds.
func DefaultOptions() Options {
	return Options{SampleThreshold: 2000, PieMaxCategories: 10}
}

// FromConfig builds Options from the application configuration.
func FromConfig(cfg model.ChartConfig) Options {
	opts := DefaultOptions()
	if cfg.SampleThreshold > 0 {
		opts.SampleThreshold = cfg.SampleThreshold
	}
	if cfg.PieMaxCategories > 0 {
		opts.PieMaxCategories = cfg.PieMaxCategories
	}
	return opts
}

// binding names a channel's source: the n-th column carrying a role.
type binding struct {
	role    model.ColumnRole
	ordinal int  // 0 = first column with the role, 1 = second, ...
	numeric bool // Accept either numeric role when true
}

var (
	noBinding     = binding{}
	firstTemporal = binding{role: model.RoleTemporal}
	firstEntity   = binding{role: model.RoleCategorical}
	secondEntity  = binding{role: model.RoleCategorical, ordinal: 1}
	firstGeo      = binding{role: model.RoleGeographic}
	firstNumeric  = binding{numeric: true}
	secondNumeric = binding{numeric: true, ordinal: 1}
)

// rule is one row of the decision table.
type rule struct {
	kind      model.ChartKind
	score     int // Relevance; output is ordered highest first
	rationale string

	// Shape requirements over the role multiset.
	minTemporal, minCategorical, minNumeric, minGeographic int
	noTemporal, noCategorical, noGeographic                bool
	maxRows                                                int // 0 = unbounded
	minRowsForSecondary                                    int // Rule fires only above this row count

	x, y, series binding
	pointDense   bool // Carries the sample flag on large results
}

// selectionRules is the encoding decision table, in priority order. Callers render
// whichever prefix of the returned specs they want; the table fallback appended by
// Select is a guaranteed non-failing option and is not part of this table.
var selectionRules = []rule{
	{
		kind: model.ChartLine, score: 100,
		rationale:   "trend over time",
		minTemporal: 1, minNumeric: 1,
		x: firstTemporal, y: firstNumeric, series: firstEntity,
		pointDense: true,
	},
	// Density is the only trigger for the scatter alternative. Selection sees
	// roles and the row count, not cell values, so it cannot tell a monotonic
	// series from a noisy one; a dense noisy series is the case scatter serves.
	{
		kind: model.ChartScatter, score: 60,
		rationale:           "point distribution over time for a dense result",
		minTemporal:         1, minNumeric: 1,
		minRowsForSecondary: 500,
		x:                   firstTemporal, y: firstNumeric,
		pointDense: true,
	},
	{
		kind: model.ChartChoropleth, score: 95,
		rationale:     "metric by geography",
		minGeographic: 1, minNumeric: 1,
		x: firstGeo, y: firstNumeric,
	},
	{
		kind: model.ChartBar, score: 70,
		rationale:     "bar fallback when geographic rendering is unavailable",
		minGeographic: 1, minNumeric: 1, noTemporal: true,
		x: firstGeo, y: firstNumeric,
	},
	{
		kind: model.ChartBar, score: 90,
		rationale:      "comparison across categories",
		minCategorical: 1, minNumeric: 1, noTemporal: true,
		x: firstEntity, y: firstNumeric,
	},
	{
		kind: model.ChartGroupedBar, score: 85,
		rationale:      "comparison across one category grouped by another",
		minCategorical: 2, minNumeric: 1, noTemporal: true,
		x: firstEntity, y: firstNumeric, series: secondEntity,
	},
	{
		kind: model.ChartPie, score: 50,
		rationale:      "composition across a small number of categories",
		minCategorical: 1, minNumeric: 1, noTemporal: true,
		maxRows:        -1, // Bounded by Options.PieMaxCategories at evaluation time
		x:              firstEntity, y: firstNumeric,
	},
	{
		kind: model.ChartScatter, score: 80,
		rationale:  "relationship between two numeric columns",
		minNumeric: 2, noTemporal: true, noCategorical: true, noGeographic: true,
		x: firstNumeric, y: secondNumeric,
		pointDense: true,
	},
}

// Select returns the ordered, never-empty chart specs for a classified result.
// roles must align to columns. Every qualifying table row produces one spec; the
// table fallback closes the list so an unseen shape degrades instead of failing.
func Select(columns []model.Column, roles []model.ColumnRole, rowCount int, opts Options) []model.ChartSpec {
	counts := roleCounts(roles)

	var specs []model.ChartSpec
	for _, r := range selectionRules {
		if !r.matches(counts, rowCount, opts) {
			continue
		}
		spec, ok := r.bind(columns, roles)
		if !ok {
			continue
		}
		if r.pointDense && rowCount > opts.SampleThreshold {
			spec.Sample = true
		}
		specs = append(specs, spec)
	}

	// Order by relevance, stable within equal scores.
	sort.SliceStable(specs, func(i, j int) bool {
		return specs[i].Score > specs[j].Score
	})

	specs = append(specs, model.ChartSpec{
		Kind:      model.ChartTable,
		Rationale: "raw table is always renderable",
	})
	return specs
}

func (r rule) matches(counts map[model.ColumnRole]int, rowCount int, opts Options) bool {
	numeric := counts[model.RoleNumericContinuous] + counts[model.RoleNumericCount]
	switch {
	case counts[model.RoleTemporal] < r.minTemporal,
		counts[model.RoleCategorical] < r.minCategorical,
		counts[model.RoleGeographic] < r.minGeographic,
		numeric < r.minNumeric:
		return false
	case r.noTemporal && counts[model.RoleTemporal] > 0,
		r.noCategorical && counts[model.RoleCategorical] > 0,
		r.noGeographic && counts[model.RoleGeographic] > 0:
		return false
	case r.minRowsForSecondary > 0 && rowCount <= r.minRowsForSecondary:
		return false
	case r.maxRows == -1 && rowCount > opts.PieMaxCategories:
		return false
	case r.maxRows > 0 && rowCount > r.maxRows:
		return false
	}
	return true
}

// bind resolves the rule's channel bindings against the actual columns. A rule
// whose required channels cannot bind simply does not fire.
func (r rule) bind(columns []model.Column, roles []model.ColumnRole) (model.ChartSpec, bool) {
	spec := model.ChartSpec{Kind: r.kind, Score: r.score, Rationale: r.rationale}

	if name, ok := resolve(r.x, columns, roles); ok {
		spec.X = name
	} else if r.x != noBinding {
		return model.ChartSpec{}, false
	}
	if name, ok := resolve(r.y, columns, roles); ok {
		spec.Y = name
	} else if r.y != noBinding {
		return model.ChartSpec{}, false
	}
	// Series is always optional: it enriches the encoding when present.
	if name, ok := resolve(r.series, columns, roles); ok && name != spec.X {
		spec.Series = name
	}
	return spec, true
}

// resolve finds the ordinal-th column matching the binding's role.
func resolve(b binding, columns []model.Column, roles []model.ColumnRole) (string, bool) {
	if b == noBinding {
		return "", false
	}
	seen := 0
	for i, role := range roles {
		match := role == b.role
		if b.numeric {
			match = role.Numeric()
		}
		if !match {
			continue
		}
		if seen == b.ordinal {
			return columns[i].Name, true
		}
		seen++
	}
	return "", false
}

func roleCounts(roles []model.ColumnRole) map[model.ColumnRole]int {
	counts := make(map[model.ColumnRole]int, len(roles))
	for _, r := range roles {
		counts[r]++
	}
	return counts
}
