// Package classify infers the semantic role of each result column from its
// declared storage type, its name, and a sample of its values. Classification is
// pure and column-local: the same result set always yields the same roles, and no
// column with parseable temporal or numeric content ever ends up without a role.
package classify

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

// Role inference is driven by these declarative tables, not per-dataset branches.
// Adding a pattern extends classification without touching the decision code.
var (
	identifierNames = regexp.MustCompile(`(?i)(^|_)(id|uuid|guid|key)($|_)`)
	temporalNames   = regexp.MustCompile(`(?i)(^|_)(year|month|date|day|week|quarter|time|timestamp|period)($|_)`)
	countNames      = regexp.MustCompile(`(?i)(count|cases|deaths|total|doses|births|admissions|visits|population|sample_size|num_)`)
	geographicNames = regexp.MustCompile(`(?i)(country|region|state|province|city|district|location|territory)`)

	temporalTypeNames = []string{"date", "time", "timestamp", "timestamptz", "interval"}

	dateLayouts = []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006/01/02",
		"01/02/2006",
		"2006-01",
		"Jan 2006",
	}
)

// Years plausibly appearing as bare integers in health data.
const (
	minYearValue = 1800
	maxYearValue = 2200
)

// Options are the policy constants for role inference. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	SampleSize          int     // Non-null values inspected per column
	CategoricalMaxRatio float64 // distinct/sample ceiling below which text is categorical
	TemporalParseRatio  float64 // Fraction of samples that must parse as dates/years

	// PlaceName reports whether a value is a known place name. Injected from the
	// data dictionary's reference set; nil disables value-based geo detection.
	PlaceName func(string) bool
}

// DefaultOptions returns the documented policy constants.
func DefaultOptions() Options {
	return Options{
		SampleSize:          100,
		CategoricalMaxRatio: 0.5,
		TemporalParseRatio:  0.9,
	}
}

// FromConfig builds Options from the application configuration.
func FromConfig(cfg model.ClassifyConfig) Options {
	opts := DefaultOptions()
	if cfg.SampleSize > 0 {
		opts.SampleSize = cfg.SampleSize
	}
	if cfg.CategoricalMaxRatio > 0 {
		opts.CategoricalMaxRatio = cfg.CategoricalMaxRatio
	}
	if cfg.TemporalParseRatio > 0 {
		opts.TemporalParseRatio = cfg.TemporalParseRatio
	}
	return opts
}

// Classify assigns a role to every column, aligned to rs.Columns. Ambiguity
// resolves toward the more specific role (temporal and geographic beat plain
// categorical); columns that cannot be classified become RoleUnknown and are
// excluded from chart binding but stay in the raw table.
func Classify(rs *model.ResultSet, opts Options) []model.ColumnRole {
	roles := make([]model.ColumnRole, len(rs.Columns))
	for i, col := range rs.Columns {
		roles[i] = classifyColumn(col, sampleColumn(rs, i, opts.SampleSize), opts)
	}
	return roles
}

// RoleMap returns the column-name → role mapping for the same classification.
func RoleMap(rs *model.ResultSet, opts Options) map[string]model.ColumnRole {
	roles := Classify(rs, opts)
	m := make(map[string]model.ColumnRole, len(roles))
	for i, col := range rs.Columns {
		m[col.Name] = roles[i]
	}
	return m
}

// sample holds the inspected non-null values of one column plus derived stats.
type sample struct {
	values   []any
	distinct int

	numeric     int // Values coercible to float64
	integers    int // Numeric values with no fractional part
	nonNegative int // Numeric values >= 0
	texts       int
	times       int // time.Time values
	bools       int
	temporal    int // Values parsing as a date or plausible year
	places      int // Values matching the place-name reference set
	uniqueAll   bool
}

func sampleColumn(rs *model.ResultSet, idx, size int) sample {
	if size <= 0 {
		size = 100
	}
	s := sample{}
	seen := make(map[string]bool)
	for _, row := range rs.Rows {
		if len(s.values) >= size {
			break
		}
		if idx >= len(row) || row[idx] == nil {
			continue
		}
		s.values = append(s.values, row[idx])
		seen[valueKey(row[idx])] = true
	}
	s.distinct = len(seen)
	s.uniqueAll = s.distinct == len(s.values)
	return s
}

func classifyColumn(col model.Column, s sample, opts Options) model.ColumnRole {
	if len(s.values) == 0 {
		return model.RoleUnknown // All-null columns are unclassifiable, never an error
	}

	for _, v := range s.values {
		switch {
		case isTime(v):
			s.times++
			s.temporal++
		case isBool(v):
			s.bools++
		default:
			if f, ok := asFloat(v); ok {
				s.numeric++
				if f == float64(int64(f)) {
					s.integers++
					if f >= minYearValue && f <= maxYearValue {
						s.temporal++
					}
				}
				if f >= 0 {
					s.nonNegative++
				}
			} else if str, ok := asText(v); ok {
				s.texts++
				if parsesAsDate(str) {
					s.temporal++
				}
				if opts.PlaceName != nil && opts.PlaceName(str) {
					s.places++
				}
			}
		}
	}

	n := len(s.values)

	// Temporal wins first: declared time type, time-typed values, a time-flavored
	// name over time-flavored values, or a dominant share of date-parseable text.
	switch {
	case temporalStorageType(col.TypeName), s.times == n:
		return model.RoleTemporal
	case temporalNames.MatchString(col.Name) && (s.numeric == n || s.texts == n):
		return model.RoleTemporal
	case s.texts == n && float64(s.temporal) >= opts.TemporalParseRatio*float64(n):
		return model.RoleTemporal
	}

	// Geographic beats generic categorical. A single distinct value degenerates to
	// categorical: there is no geography to encode when only one place appears.
	if s.texts == n && s.distinct > 1 {
		if geographicNames.MatchString(col.Name) {
			return model.RoleGeographic
		}
		if opts.PlaceName != nil && float64(s.places) >= 0.5*float64(n) {
			return model.RoleGeographic
		}
	}

	// Identifier: id-like name, or integer/text values unique across a meaningful
	// sample. Continuous (fractional) values are measures even when unique.
	if s.integers == n || s.texts == n {
		if identifierNames.MatchString(col.Name) {
			return model.RoleIdentifier
		}
		if s.uniqueAll && n > 10 && !countNames.MatchString(col.Name) {
			return model.RoleIdentifier
		}
	}

	// Numeric columns always get a numeric role; never "no role".
	if s.numeric == n {
		if s.integers == n && s.nonNegative == n && countNames.MatchString(col.Name) {
			return model.RoleNumericCount
		}
		return model.RoleNumericContinuous
	}

	// Bounded text (or boolean flags) group naturally.
	if s.bools == n {
		return model.RoleCategorical
	}
	if s.texts == n {
		ratio := float64(s.distinct) / float64(n)
		if ratio <= opts.CategoricalMaxRatio || s.distinct == 1 {
			return model.RoleCategorical
		}
	}

	return model.RoleUnknown
}

// temporalStorageType reports whether the declared engine type is a date/time type.
func temporalStorageType(typeName string) bool {
	t := strings.ToLower(typeName)
	for _, want := range temporalTypeNames {
		if t == want || strings.HasPrefix(t, want+"(") {
			return true
		}
	}
	return false
}

// parsesAsDate reports whether a string parses under any known date layout or as
// a bare plausible year.
func parsesAsDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	if y, err := strconv.Atoi(s); err == nil && y >= minYearValue && y <= maxYearValue {
		return true
	}
	return false
}

func isTime(v any) bool {
	_, ok := v.(time.Time)
	return ok
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

// asFloat coerces the numeric scalar kinds a SQL driver produces.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func asText(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}

func valueKey(v any) string {
	if s, ok := asText(v); ok {
		return "s:" + s
	}
	if f, ok := asFloat(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	if t, ok := v.(time.Time); ok {
		return "t:" + t.Format(time.RFC3339)
	}
	if b, ok := v.(bool); ok {
		return "b:" + strconv.FormatBool(b)
	}
	return "?"
}
