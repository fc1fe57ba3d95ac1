package chart

import (
	"testing"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

func cols(names ...string) []model.Column {
	out := make([]model.Column, len(names))
	for i, name := range names {
		out[i] = model.Column{Name: name}
	}
	return out
}

func kinds(specs []model.ChartSpec) []model.ChartKind {
	out := make([]model.ChartKind, len(specs))
	for i, s := range specs {
		out[i] = s.Kind
	}
	return out
}

func TestSelect_NeverEmptyAndTableLast(t *testing.T) {
	shapes := []struct {
		name  string
		roles []model.ColumnRole
	}{
		{"no roles", nil},
		{"all unknown", []model.ColumnRole{model.RoleUnknown, model.RoleUnknown}},
		{"identifier only", []model.ColumnRole{model.RoleIdentifier}},
		{"full mix", []model.ColumnRole{
			model.RoleTemporal, model.RoleGeographic,
			model.RoleCategorical, model.RoleNumericCount,
		}},
	}
	for _, tc := range shapes {
		columns := make([]model.Column, len(tc.roles))
		specs := Select(columns, tc.roles, 10, DefaultOptions())
		if len(specs) == 0 {
			t.Errorf("%s: expected at least one spec", tc.name)
			continue
		}
		last := specs[len(specs)-1]
		if last.Kind != model.ChartTable {
			t.Errorf("%s: expected table fallback last, got %s", tc.name, last.Kind)
		}
	}
}

func TestSelect_TemporalSeriesPrefersLine(t *testing.T) {
	columns := cols("year", "country", "deaths")
	roles := []model.ColumnRole{model.RoleTemporal, model.RoleCategorical, model.RoleNumericCount}

	specs := Select(columns, roles, 100, DefaultOptions())
	if specs[0].Kind != model.ChartLine {
		t.Fatalf("expected line first, got %v", kinds(specs))
	}
	if specs[0].X != "year" || specs[0].Y != "deaths" || specs[0].Series != "country" {
		t.Errorf("unexpected line bindings: x=%s y=%s series=%s", specs[0].X, specs[0].Y, specs[0].Series)
	}
}

func TestSelect_SurveillanceShape(t *testing.T) {
	// Monthly case counts for one country: two degenerate categoricals, two
	// temporal columns, one count. A line over time comes first, the raw table
	// closes the list.
	columns := cols("country", "disease", "year", "month", "confirmed_cases")
	roles := []model.ColumnRole{
		model.RoleCategorical, model.RoleCategorical,
		model.RoleTemporal, model.RoleTemporal,
		model.RoleNumericCount,
	}

	specs := Select(columns, roles, 100, DefaultOptions())
	if specs[0].Kind != model.ChartLine {
		t.Fatalf("expected line first, got %v", kinds(specs))
	}
	if specs[0].X != "year" || specs[0].Y != "confirmed_cases" {
		t.Errorf("unexpected line bindings: x=%s y=%s", specs[0].X, specs[0].Y)
	}
	if specs[len(specs)-1].Kind != model.ChartTable {
		t.Errorf("expected table fallback last, got %v", kinds(specs))
	}
}

func TestSelect_GeographicPrefersChoropleth(t *testing.T) {
	columns := cols("country", "immunization_rate")
	roles := []model.ColumnRole{model.RoleGeographic, model.RoleNumericContinuous}

	specs := Select(columns, roles, 50, DefaultOptions())
	if specs[0].Kind != model.ChartChoropleth {
		t.Fatalf("expected choropleth first, got %v", kinds(specs))
	}
	if specs[0].X != "country" || specs[0].Y != "immunization_rate" {
		t.Errorf("unexpected choropleth bindings: x=%s y=%s", specs[0].X, specs[0].Y)
	}

	// A bar rendering of the same shape should also be offered.
	found := false
	for _, s := range specs[1:] {
		if s.Kind == model.ChartBar {
			found = true
		}
	}
	if !found {
		t.Errorf("expected bar alternative for geographic shape, got %v", kinds(specs))
	}
}

func TestSelect_CategoricalComparison(t *testing.T) {
	columns := cols("disease", "deaths")
	roles := []model.ColumnRole{model.RoleCategorical, model.RoleNumericCount}

	specs := Select(columns, roles, 8, DefaultOptions())
	if specs[0].Kind != model.ChartBar {
		t.Fatalf("expected bar first, got %v", kinds(specs))
	}

	// Small aggregated results also qualify for a pie.
	if !containsKind(specs, model.ChartPie) {
		t.Errorf("expected pie for small categorical result, got %v", kinds(specs))
	}

	// Larger results do not.
	specs = Select(columns, roles, 40, DefaultOptions())
	if containsKind(specs, model.ChartPie) {
		t.Errorf("expected no pie above the category bound, got %v", kinds(specs))
	}
}

func TestSelect_TwoCategoriesGroupedBar(t *testing.T) {
	columns := cols("disease", "sex", "cases")
	roles := []model.ColumnRole{model.RoleCategorical, model.RoleCategorical, model.RoleNumericCount}

	specs := Select(columns, roles, 20, DefaultOptions())
	if !containsKind(specs, model.ChartGroupedBar) {
		t.Fatalf("expected grouped bar, got %v", kinds(specs))
	}
	for _, s := range specs {
		if s.Kind != model.ChartGroupedBar {
			continue
		}
		if s.X != "disease" || s.Y != "cases" || s.Series != "sex" {
			t.Errorf("unexpected grouped bar bindings: x=%s y=%s series=%s", s.X, s.Y, s.Series)
		}
	}
}

func TestSelect_TwoNumericsScatter(t *testing.T) {
	columns := cols("hospital_beds_per_10k", "life_expectancy")
	roles := []model.ColumnRole{model.RoleNumericContinuous, model.RoleNumericContinuous}

	specs := Select(columns, roles, 200, DefaultOptions())
	if specs[0].Kind != model.ChartScatter {
		t.Fatalf("expected scatter first, got %v", kinds(specs))
	}
	if specs[0].X != "hospital_beds_per_10k" || specs[0].Y != "life_expectancy" {
		t.Errorf("unexpected scatter bindings: x=%s y=%s", specs[0].X, specs[0].Y)
	}
}

func TestSelect_SampleFlagOnDenseResults(t *testing.T) {
	columns := cols("date", "admissions")
	roles := []model.ColumnRole{model.RoleTemporal, model.RoleNumericCount}

	specs := Select(columns, roles, 5000, DefaultOptions())
	if specs[0].Kind != model.ChartLine {
		t.Fatalf("expected line first, got %v", kinds(specs))
	}
	if !specs[0].Sample {
		t.Errorf("expected sample flag on dense line chart")
	}

	specs = Select(columns, roles, 100, DefaultOptions())
	if specs[0].Sample {
		t.Errorf("expected no sample flag on small result")
	}
}

func TestSelect_OrderedByScore(t *testing.T) {
	columns := cols("country", "disease", "deaths")
	roles := []model.ColumnRole{model.RoleGeographic, model.RoleCategorical, model.RoleNumericCount}

	specs := Select(columns, roles, 30, DefaultOptions())
	for i := 1; i < len(specs)-1; i++ { // Table fallback carries no score
		if specs[i].Score > specs[i-1].Score {
			t.Fatalf("specs not ordered by score: %v", specs)
		}
	}
}

func TestFromConfig(t *testing.T) {
	opts := FromConfig(model.ChartConfig{SampleThreshold: 500, PieMaxCategories: 6})
	if opts.SampleThreshold != 500 || opts.PieMaxCategories != 6 {
		t.Errorf("unexpected options: %+v", opts)
	}
	opts = FromConfig(model.ChartConfig{})
	def := DefaultOptions()
	if opts != def {
		t.Errorf("expected defaults for zero config, got %+v", opts)
	}
}

func containsKind(specs []model.ChartSpec, kind model.ChartKind) bool {
	for _, s := range specs {
		if s.Kind == kind {
			return true
		}
	}
	return false
}
