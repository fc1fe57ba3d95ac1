package classify

import (
	"fmt"
	"testing"
	"time"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

func resultSet(cols []model.Column, rows [][]any) *model.ResultSet {
	return &model.ResultSet{Columns: cols, Rows: rows}
}

func TestClassify_SurveillanceResult(t *testing.T) {
	// A single-country surveillance slice: the country column has one distinct
	// value, so it degenerates to categorical rather than geographic.
	cols := []model.Column{
		{Name: "country", TypeName: "text"},
		{Name: "year", TypeName: "integer"},
		{Name: "month", TypeName: "integer"},
		{Name: "confirmed_cases", TypeName: "integer"},
		{Name: "case_fatality_rate", TypeName: "double precision"},
	}
	var rows [][]any
	for year := 2020; year <= 2023; year++ {
		for month := 1; month <= 12; month++ {
			rows = append(rows, []any{
				"Kenya", int64(year), int64(month),
				int64(100 + month), 0.021 + float64(month)/1000,
			})
		}
	}

	roles := Classify(resultSet(cols, rows), DefaultOptions())

	want := []model.ColumnRole{
		model.RoleCategorical,
		model.RoleTemporal,
		model.RoleTemporal,
		model.RoleNumericCount,
		model.RoleNumericContinuous,
	}
	for i, role := range roles {
		if role != want[i] {
			t.Errorf("column %s: expected %s, got %s", cols[i].Name, want[i], role)
		}
	}
}

func TestClassify_GeographicNeedsMultipleValues(t *testing.T) {
	cols := []model.Column{{Name: "country", TypeName: "text"}}
	multi := resultSet(cols, [][]any{{"Kenya"}, {"Uganda"}, {"Tanzania"}, {"Kenya"}})
	single := resultSet(cols, [][]any{{"Kenya"}, {"Kenya"}, {"Kenya"}})

	if roles := Classify(multi, DefaultOptions()); roles[0] != model.RoleGeographic {
		t.Errorf("expected geographic for multi-country column, got %s", roles[0])
	}
	if roles := Classify(single, DefaultOptions()); roles[0] != model.RoleCategorical {
		t.Errorf("expected categorical for single-country column, got %s", roles[0])
	}
}

func TestClassify_PlaceNameLookup(t *testing.T) {
	// A column not named geographically still classifies as geographic when its
	// values match the reference place set.
	cols := []model.Column{{Name: "entity", TypeName: "text"}}
	rs := resultSet(cols, [][]any{{"Kenya"}, {"Uganda"}, {"Nigeria"}})

	opts := DefaultOptions()
	opts.PlaceName = func(s string) bool {
		return s == "Kenya" || s == "Uganda" || s == "Nigeria"
	}

	if roles := Classify(rs, opts); roles[0] != model.RoleGeographic {
		t.Errorf("expected geographic via place lookup, got %s", roles[0])
	}
}

func TestClassify_TemporalByStorageType(t *testing.T) {
	cols := []model.Column{{Name: "reported", TypeName: "date"}}
	rs := resultSet(cols, [][]any{{time.Now()}, {time.Now().AddDate(0, -1, 0)}})

	if roles := Classify(rs, DefaultOptions()); roles[0] != model.RoleTemporal {
		t.Errorf("expected temporal for date column, got %s", roles[0])
	}
}

func TestClassify_TemporalByParsing(t *testing.T) {
	cols := []model.Column{{Name: "snapshot", TypeName: "text"}}
	rs := resultSet(cols, [][]any{{"2021-01-02"}, {"2021-02-02"}, {"2021-03-02"}, {"2021-04-02"}})

	if roles := Classify(rs, DefaultOptions()); roles[0] != model.RoleTemporal {
		t.Errorf("expected temporal for parseable dates, got %s", roles[0])
	}
}

func TestClassify_IdentifierByNameAndUniqueness(t *testing.T) {
	named := resultSet(
		[]model.Column{{Name: "study_id", TypeName: "integer"}},
		[][]any{{int64(1)}, {int64(2)}, {int64(3)}},
	)
	if roles := Classify(named, DefaultOptions()); roles[0] != model.RoleIdentifier {
		t.Errorf("expected identifier for study_id, got %s", roles[0])
	}

	// Unique integers across a meaningful sample classify as identifier even
	// without an id-like name.
	var rows [][]any
	for i := 0; i < 20; i++ {
		rows = append(rows, []any{int64(1000 + i*7)})
	}
	unnamed := resultSet([]model.Column{{Name: "record", TypeName: "integer"}}, rows)
	if roles := Classify(unnamed, DefaultOptions()); roles[0] != model.RoleIdentifier {
		t.Errorf("expected identifier for unique integers, got %s", roles[0])
	}

	// Unique continuous measures stay measures.
	var frac [][]any
	for i := 0; i < 20; i++ {
		frac = append(frac, []any{float64(i) + 0.5})
	}
	measure := resultSet([]model.Column{{Name: "rate", TypeName: "double precision"}}, frac)
	if roles := Classify(measure, DefaultOptions()); roles[0] != model.RoleNumericContinuous {
		t.Errorf("expected continuous for unique fractional values, got %s", roles[0])
	}
}

func TestClassify_CountVersusContinuous(t *testing.T) {
	cases := []struct {
		name   string
		values []any
		want   model.ColumnRole
	}{
		{"deaths", []any{int64(10), int64(0), int64(25)}, model.RoleNumericCount},
		{"doses_administered", []any{int64(5), int64(9), int64(12)}, model.RoleNumericCount},
		{"expenditure", []any{10.5, 20.25, 30.0}, model.RoleNumericContinuous},
		{"deaths_change", []any{int64(-5), int64(3), int64(2)}, model.RoleNumericContinuous},
	}
	for _, tc := range cases {
		rs := resultSet([]model.Column{{Name: tc.name, TypeName: "numeric"}}, wrap(tc.values))
		if roles := Classify(rs, DefaultOptions()); roles[0] != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, roles[0])
		}
	}
}

func TestClassify_AllNullIsUnknown(t *testing.T) {
	rs := resultSet(
		[]model.Column{{Name: "notes", TypeName: "text"}},
		[][]any{{nil}, {nil}, {nil}},
	)
	if roles := Classify(rs, DefaultOptions()); roles[0] != model.RoleUnknown {
		t.Errorf("expected unknown for all-null column, got %s", roles[0])
	}
}

func TestClassify_EmptyResult(t *testing.T) {
	rs := resultSet([]model.Column{{Name: "country", TypeName: "text"}}, nil)
	roles := Classify(rs, DefaultOptions())
	if len(roles) != 1 || roles[0] != model.RoleUnknown {
		t.Errorf("expected single unknown role, got %v", roles)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	cols := []model.Column{
		{Name: "country", TypeName: "text"},
		{Name: "deaths", TypeName: "integer"},
	}
	var rows [][]any
	for i := 0; i < 50; i++ {
		rows = append(rows, []any{fmt.Sprintf("Country %d", i%7), int64(i * 3)})
	}
	rs := resultSet(cols, rows)

	first := Classify(rs, DefaultOptions())
	for run := 0; run < 5; run++ {
		again := Classify(rs, DefaultOptions())
		for i := range first {
			if first[i] != again[i] {
				t.Fatalf("classification changed between runs: %v vs %v", first, again)
			}
		}
	}
}

func TestRoleMap(t *testing.T) {
	rs := resultSet(
		[]model.Column{
			{Name: "year", TypeName: "integer"},
			{Name: "deaths", TypeName: "integer"},
		},
		[][]any{{int64(2020), int64(5)}, {int64(2021), int64(7)}},
	)
	m := RoleMap(rs, DefaultOptions())
	if m["year"] != model.RoleTemporal {
		t.Errorf("expected temporal for year, got %s", m["year"])
	}
	if m["deaths"] != model.RoleNumericCount {
		t.Errorf("expected count for deaths, got %s", m["deaths"])
	}
}

func wrap(values []any) [][]any {
	rows := make([][]any, len(values))
	for i, v := range values {
		rows[i] = []any{v}
	}
	return rows
}
