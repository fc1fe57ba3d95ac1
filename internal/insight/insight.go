// Package insight derives quantitative findings from a classified result set:
// baseline comparisons (an entity against its own history, or against its peer
// group), per-capita normalization of count metrics, and supporting descriptive
// statistics. Derivation is a pure function over the immutable result set; records
// are computed fresh per query and never cached.
package insight

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"time"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

// metricPriorities rank metrics for tie-breaking: mortality and incidence metrics
// outrank utilization metrics. First matching row wins.
var metricPriorities = []struct {
	pattern  *regexp.Regexp
	priority int
}{
	{regexp.MustCompile(`(?i)(death|mortality|fatality|stillbirth)`), 30},
	{regexp.MustCompile(`(?i)(incidence|cases|outbreak|daly)`), 20},
	{regexp.MustCompile(`(?i)(coverage|immuni|vaccin)`), 10},
	{regexp.MustCompile(`(?i)(beds|physicians|nurses|expenditure|visits|attendance)`), 5},
}

// populationNames identifies a denominator column usable for per-capita rates.
var populationNames = regexp.MustCompile(`(?i)(^|_)(population|pop|denominator)($|_)`)

// Options holds the insight-engine policy.
type Options struct {
	MaxFindings     int
	PerCapitaUnit   float64 // Standard denominator for normalized rates
	TrailingPeriods int     // Window for the historical-self baseline

	// ReferencePopulation resolves an entity's population when the result itself
	// carries no denominator column. Injected from the data dictionary; nil
	// disables reference-based normalization.
	ReferencePopulation func(entity string) (float64, bool)
}

// DefaultOptions returns the documented policy constants.
func DefaultOptions() Options {
	return Options{MaxFindings: 5, PerCapitaUnit: 100000, TrailingPeriods: 3}
}

// FromConfig builds Options from the application configuration.
func FromConfig(cfg model.InsightConfig, refPop func(string) (float64, bool)) Options {
	opts := DefaultOptions()
	if cfg.MaxFindings > 0 {
		opts.MaxFindings = cfg.MaxFindings
	}
	if cfg.PerCapitaUnit > 0 {
		opts.PerCapitaUnit = cfg.PerCapitaUnit
	}
	if cfg.TrailingPeriods > 0 {
		opts.TrailingPeriods = cfg.TrailingPeriods
	}
	opts.ReferencePopulation = refPop
	return opts
}

// Derive computes the ranked findings for a classified result set. It is total
// over well-formed inputs: zero rows yield no insights, a single row omits
// baseline comparisons, and truncated results are marked non-exhaustive rather
// than overstated.
func Derive(rs *model.ResultSet, roles []model.ColumnRole, opts Options) []model.InsightRecord {
	if rs == nil || rs.Empty() {
		return nil
	}
	if opts.MaxFindings <= 0 {
		opts.MaxFindings = 5
	}
	if opts.PerCapitaUnit <= 0 {
		opts.PerCapitaUnit = 100000
	}

	shape := analyzeShape(rs, roles)
	if shape.metricIdx == -1 {
		return nil // Nothing quantitative to report on
	}

	var baselines []model.InsightRecord
	baselines = append(baselines, deriveHistorical(rs, shape, opts)...)
	baselines = append(baselines, derivePeerGroup(rs, shape, opts)...)

	// Baseline findings rank by relative deviation, ties by metric priority.
	sort.SliceStable(baselines, func(i, j int) bool {
		di, dj := deviation(baselines[i]), deviation(baselines[j])
		if di != dj {
			return di > dj
		}
		return metricPriority(baselines[i].Metric) > metricPriority(baselines[j].Metric)
	})

	records := baselines
	records = append(records, deriveRankings(rs, shape)...)
	records = append(records, deriveStatistics(rs, shape)...)
	records = append(records, deriveConcentration(rs, shape)...)

	if len(records) > opts.MaxFindings {
		records = records[:opts.MaxFindings]
	}
	for i := range records {
		records[i].Exhaustive = !rs.Truncated
	}
	return records
}

// shape locates the columns the derivations work from.
type shape struct {
	entityIdx   int   // Geographic or categorical entity column, -1 when absent
	temporalIdx []int // Temporal columns in column order (composite period key)
	metricIdx   int   // Highest-priority numeric column, -1 when absent
	metricRole  model.ColumnRole
	popIdx      int // Population/denominator column, -1 when absent
}

func analyzeShape(rs *model.ResultSet, roles []model.ColumnRole) shape {
	s := shape{entityIdx: -1, metricIdx: -1, popIdx: -1}
	bestPriority := -1
	for i, role := range roles {
		name := rs.Columns[i].Name
		switch {
		case role == model.RoleTemporal:
			s.temporalIdx = append(s.temporalIdx, i)
		case role == model.RoleGeographic:
			if s.entityIdx == -1 || roles[s.entityIdx] != model.RoleGeographic {
				s.entityIdx = i // Geographic wins over categorical as the entity
			}
		case role == model.RoleCategorical:
			if s.entityIdx == -1 {
				s.entityIdx = i
			}
		case role.Numeric():
			if populationNames.MatchString(name) {
				if s.popIdx == -1 {
					s.popIdx = i
				}
				continue // A denominator is not itself a metric
			}
			if p := metricPriority(name); p > bestPriority {
				bestPriority = p
				s.metricIdx = i
				s.metricRole = role
			}
		}
	}
	return s
}

// series is one entity's rows ordered by period.
type series struct {
	entity string
	points []point
}

type point struct {
	period []float64 // Composite sort key over the temporal columns
	value  float64
	pop    float64 // 0 when unknown
}

// buildSeries groups rows by entity (a single unnamed series when no entity
// column exists) and orders each group chronologically.
func buildSeries(rs *model.ResultSet, s shape) []series {
	groups := make(map[string]*series)
	var order []string

	for _, row := range rs.Rows {
		v, ok := floatAt(row, s.metricIdx)
		if !ok {
			continue
		}
		entity := ""
		if s.entityIdx != -1 {
			entity = textAt(row, s.entityIdx)
		}
		p := point{value: v}
		for _, ti := range s.temporalIdx {
			key, _ := periodKey(row[ti])
			p.period = append(p.period, key)
		}
		if s.popIdx != -1 {
			if pop, ok := floatAt(row, s.popIdx); ok && pop > 0 {
				p.pop = pop
			}
		}
		g, exists := groups[entity]
		if !exists {
			g = &series{entity: entity}
			groups[entity] = g
			order = append(order, entity)
		}
		g.points = append(g.points, p)
	}

	out := make([]series, 0, len(order))
	for _, entity := range order {
		g := groups[entity]
		sort.SliceStable(g.points, func(i, j int) bool {
			return lessPeriod(g.points[i].period, g.points[j].period)
		})
		out = append(out, *g)
	}
	return out
}

// deriveHistorical compares each entity's latest value against the mean of its
// own trailing periods. Requires a temporal column and at least two periods.
func deriveHistorical(rs *model.ResultSet, s shape, opts Options) []model.InsightRecord {
	if len(s.temporalIdx) == 0 {
		return nil
	}
	metric := rs.Columns[s.metricIdx].Name

	var records []model.InsightRecord
	for _, ser := range buildSeries(rs, s) {
		n := len(ser.points)
		if n < 2 {
			continue // Single observation: baseline omitted, not errored
		}
		latest := ser.points[n-1]
		window := ser.points[max(0, n-1-opts.TrailingPeriods) : n-1]
		baseline := 0.0
		for _, p := range window {
			baseline += p.value
		}
		baseline /= float64(len(window))

		rec := model.InsightRecord{
			Metric:        metric,
			Entity:        ser.entity,
			Kind:          "baseline",
			Observed:      latest.value,
			Baseline:      baseline,
			BaselineKind:  model.BaselineHistoricalSelf,
			Normalization: model.NormRaw,
			Delta:         latest.value - baseline,
		}
		if baseline != 0 {
			rec.Ratio = latest.value / baseline
		}
		applyPerCapita(&rec, latest.pop, meanPop(window), s, opts)
		rec.Finding = describeBaseline(rec, "its recent trend")
		records = append(records, rec)
	}
	return records
}

// derivePeerGroup compares each entity's mean against the mean of the other
// entities in the result. Requires at least two entities.
func derivePeerGroup(rs *model.ResultSet, s shape, opts Options) []model.InsightRecord {
	if s.entityIdx == -1 {
		return nil
	}
	all := buildSeries(rs, s)
	if len(all) < 2 {
		return nil
	}
	metric := rs.Columns[s.metricIdx].Name

	means := make([]float64, len(all))
	pops := make([]float64, len(all))
	for i, ser := range all {
		sum, pop := 0.0, 0.0
		for _, p := range ser.points {
			sum += p.value
			if p.pop > 0 {
				pop = p.pop // Latest known population for the entity
			}
		}
		means[i] = sum / float64(len(ser.points))
		pops[i] = pop
	}

	var records []model.InsightRecord
	for i, ser := range all {
		peerSum := 0.0
		for j, m := range means {
			if j != i {
				peerSum += m
			}
		}
		baseline := peerSum / float64(len(all)-1)

		rec := model.InsightRecord{
			Metric:        metric,
			Entity:        ser.entity,
			Kind:          "baseline",
			Observed:      means[i],
			Baseline:      baseline,
			BaselineKind:  model.BaselinePeerGroup,
			Normalization: model.NormRaw,
			Delta:         means[i] - baseline,
		}
		if baseline != 0 {
			rec.Ratio = means[i] / baseline
		}
		peerPop := 0.0
		known := 0
		for j, p := range pops {
			if j != i && p > 0 {
				peerPop += p
				known++
			}
		}
		if known == len(all)-1 && known > 0 {
			peerPop /= float64(known)
		} else {
			peerPop = 0
		}
		applyPerCapita(&rec, resolvePop(ser.entity, pops[i], opts), peerPop, s, opts)
		rec.Finding = describeBaseline(rec, "its peer group")
		records = append(records, rec)
	}
	return records
}

// applyPerCapita attaches normalized values to a count-metric record whenever a
// population is known for both sides of the comparison. Raw values are always
// retained alongside the rate.
func applyPerCapita(rec *model.InsightRecord, obsPop, basePop float64, s shape, opts Options) {
	if s.metricRole != model.RoleNumericCount {
		return
	}
	if obsPop <= 0 && opts.ReferencePopulation != nil && rec.Entity != "" {
		if p, ok := opts.ReferencePopulation(rec.Entity); ok {
			obsPop = p
		}
	}
	if obsPop <= 0 {
		return
	}
	rec.NormObserved = rec.Observed / obsPop * opts.PerCapitaUnit
	if basePop > 0 {
		rec.NormBaseline = rec.Baseline / basePop * opts.PerCapitaUnit
	} else {
		rec.NormBaseline = rec.Baseline / obsPop * opts.PerCapitaUnit
	}
	rec.Normalization = model.NormPerCapita
}

// deriveRankings reports the top and bottom entity by the primary metric, after
// the original top-N/bottom-N findings.
func deriveRankings(rs *model.ResultSet, s shape) []model.InsightRecord {
	if s.entityIdx == -1 {
		return nil
	}
	all := buildSeries(rs, s)
	if len(all) < 2 {
		return nil
	}
	metric := rs.Columns[s.metricIdx].Name

	type total struct {
		entity string
		sum    float64
	}
	totals := make([]total, 0, len(all))
	for _, ser := range all {
		sum := 0.0
		for _, p := range ser.points {
			sum += p.value
		}
		totals = append(totals, total{ser.entity, sum})
	}
	sort.SliceStable(totals, func(i, j int) bool { return totals[i].sum > totals[j].sum })

	top, bottom := totals[0], totals[len(totals)-1]
	return []model.InsightRecord{
		{
			Metric: metric, Entity: top.entity, Kind: "ranking",
			Observed: top.sum, BaselineKind: model.BaselineNone, Normalization: model.NormRaw,
			Finding: fmt.Sprintf("%s has the highest total %s (%.0f)", top.entity, metric, top.sum),
		},
		{
			Metric: metric, Entity: bottom.entity, Kind: "ranking",
			Observed: bottom.sum, BaselineKind: model.BaselineNone, Normalization: model.NormRaw,
			Finding: fmt.Sprintf("%s has the lowest total %s (%.0f)", bottom.entity, metric, bottom.sum),
		},
	}
}

// deriveStatistics reports mean/median/range plus an IQR outlier count for the
// primary metric.
func deriveStatistics(rs *model.ResultSet, s shape) []model.InsightRecord {
	vals := numericColumn(rs, s.metricIdx)
	if len(vals) == 0 {
		return nil
	}
	metric := rs.Columns[s.metricIdx].Name

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	median := quantile(sorted, 0.5)

	records := []model.InsightRecord{{
		Metric: metric, Kind: "statistic",
		Observed: mean, BaselineKind: model.BaselineNone, Normalization: model.NormRaw,
		Finding: fmt.Sprintf("%s: mean=%.2f, median=%.2f, range=[%.2f, %.2f]",
			metric, mean, median, sorted[0], sorted[len(sorted)-1]),
	}}

	q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
	iqr := q3 - q1
	outliers := 0
	for _, v := range vals {
		if v < q1-1.5*iqr || v > q3+1.5*iqr {
			outliers++
		}
	}
	if outliers > 0 {
		records = append(records, model.InsightRecord{
			Metric: metric, Kind: "outlier",
			Observed: float64(outliers), BaselineKind: model.BaselineNone, Normalization: model.NormRaw,
			Finding: fmt.Sprintf("%d potential outliers detected in %s", outliers, metric),
		})
	}
	return records
}

// deriveConcentration reports what share of the metric total the top fifth of
// rows accounts for.
func deriveConcentration(rs *model.ResultSet, s shape) []model.InsightRecord {
	vals := numericColumn(rs, s.metricIdx)
	if len(vals) < 5 {
		return nil
	}
	total := 0.0
	for _, v := range vals {
		total += v
	}
	if total <= 0 {
		return nil
	}
	sorted := append([]float64(nil), vals...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	topN := len(sorted) / 5
	if topN < 1 {
		topN = 1
	}
	topSum := 0.0
	for _, v := range sorted[:topN] {
		topSum += v
	}
	share := topSum / total * 100
	metric := rs.Columns[s.metricIdx].Name
	return []model.InsightRecord{{
		Metric: metric, Kind: "concentration",
		Observed: share, BaselineKind: model.BaselineNone, Normalization: model.NormRaw,
		Finding: fmt.Sprintf("top 20%% of entries account for %.1f%% of total %s", share, metric),
	}}
}

// Helpers

func describeBaseline(rec model.InsightRecord, against string) string {
	direction := "above"
	if rec.Delta < 0 {
		direction = "below"
	}
	subject := rec.Metric
	if rec.Entity != "" {
		subject = fmt.Sprintf("%s for %s", rec.Metric, rec.Entity)
	}
	finding := fmt.Sprintf("%s is %.1f %s %s (%.1f vs %.1f)",
		subject, math.Abs(rec.Delta), direction, against, rec.Observed, rec.Baseline)
	if rec.Normalization == model.NormPerCapita {
		finding += fmt.Sprintf("; %.2f per 100,000", rec.NormObserved)
	}
	return finding
}

func deviation(rec model.InsightRecord) float64 {
	if rec.Baseline == 0 {
		return math.Abs(rec.Delta)
	}
	return math.Abs(rec.Delta / rec.Baseline)
}

func metricPriority(name string) int {
	for _, row := range metricPriorities {
		if row.pattern.MatchString(name) {
			return row.priority
		}
	}
	return 0
}

func resolvePop(entity string, pop float64, opts Options) float64 {
	if pop > 0 {
		return pop
	}
	if opts.ReferencePopulation != nil && entity != "" {
		if p, ok := opts.ReferencePopulation(entity); ok {
			return p
		}
	}
	return 0
}

func meanPop(points []point) float64 {
	sum, n := 0.0, 0
	for _, p := range points {
		if p.pop > 0 {
			sum += p.pop
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func numericColumn(rs *model.ResultSet, idx int) []float64 {
	var vals []float64
	for _, row := range rs.Rows {
		if v, ok := floatAt(row, idx); ok {
			vals = append(vals, v)
		}
	}
	return vals
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func floatAt(row []any, idx int) (float64, bool) {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return 0, false
	}
	switch n := row[idx].(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func textAt(row []any, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	switch s := row[idx].(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// periodKey coerces a temporal value to a sortable number.
func periodKey(v any) (float64, bool) {
	switch t := v.(type) {
	case time.Time:
		return float64(t.Unix()), true
	case nil:
		return 0, false
	}
	if f, ok := floatAt([]any{v}, 0); ok {
		return f, true
	}
	if s, okS := v.(string); okS {
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01"} {
			if t, err := time.Parse(layout, s); err == nil {
				return float64(t.Unix()), true
			}
		}
	}
	return 0, false
}

func lessPeriod(a, b []float64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
