package sqlcheck

import (
	"strings"
	"testing"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

func TestValidator_Validate_RejectsWriteOperations(t *testing.T) {
	v := NewValidator(10000, 10000)

	cases := []struct {
		name string
		sql  string
	}{
		{"insert", "INSERT INTO disease_burden VALUES (1)"},
		{"update", "UPDATE disease_burden SET deaths = 0"},
		{"delete", "DELETE FROM disease_burden"},
		{"drop", "DROP TABLE disease_burden"},
		{"lowercase", "delete from disease_burden"},
		{"mixed case", "DeLeTe FROM disease_burden"},
		{"leading whitespace", "   \n\t DROP TABLE disease_burden"},
		{"leading comment", "/* harmless */ DROP TABLE disease_burden"},
		{"line comment", "-- just a select\nTRUNCATE disease_burden"},
		{"embedded in select", "SELECT 1 FROM disease_burden WHERE deaths IN (DELETE FROM x)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := v.Validate(tc.sql)
			if verdict.Accepted {
				t.Fatalf("expected rejection for %q", tc.sql)
			}
			if verdict.Reason != model.RejectWriteOperation {
				t.Errorf("expected reason %s, got %s", model.RejectWriteOperation, verdict.Reason)
			}
		})
	}
}

func TestValidator_Validate_WriteKeywordInIdentifierIsFine(t *testing.T) {
	v := NewValidator(10000, 10000)

	// Column and string contents must not trip the keyword check.
	cases := []string{
		"SELECT update_count FROM metrics LIMIT 10",
		"SELECT delete_flag, created_at FROM metrics LIMIT 10",
		"SELECT * FROM metrics WHERE note = 'please do not DELETE this' LIMIT 10",
		"SELECT \"drop\" FROM metrics LIMIT 10",
	}

	for _, sql := range cases {
		verdict := v.Validate(sql)
		if !verdict.Accepted {
			t.Errorf("expected acceptance for %q, got %s: %s", sql, verdict.Reason, verdict.Detail)
		}
	}
}

func TestValidator_Validate_MultiStatementBeforeWriteKeyword(t *testing.T) {
	v := NewValidator(10000, 10000)

	// Both checks could fire; the statement count is the reported reason.
	verdict := v.Validate("SELECT * FROM disease_burden; DROP TABLE disease_burden;")
	if verdict.Accepted {
		t.Fatal("expected rejection")
	}
	if verdict.Reason != model.RejectMultiStatement {
		t.Errorf("expected reason %s, got %s", model.RejectMultiStatement, verdict.Reason)
	}
}

func TestValidator_Validate_TrailingSemicolonAllowed(t *testing.T) {
	v := NewValidator(10000, 10000)

	verdict := v.Validate("SELECT country FROM disease_burden LIMIT 5;")
	if !verdict.Accepted {
		t.Fatalf("expected acceptance, got %s: %s", verdict.Reason, verdict.Detail)
	}
	if verdict.Clamped || verdict.Injected {
		t.Error("statement already carried an acceptable bound")
	}
}

func TestValidator_Validate_DisallowedFunctions(t *testing.T) {
	v := NewValidator(10000, 10000)

	cases := []string{
		"SELECT pg_sleep(10)",
		"SELECT load_extension('evil')",
		"SELECT pg_read_file('/etc/passwd')",
		"SELECT PG_SLEEP(1)",
	}
	for _, sql := range cases {
		verdict := v.Validate(sql)
		if verdict.Accepted {
			t.Errorf("expected rejection for %q", sql)
			continue
		}
		if verdict.Reason != model.RejectDisallowedFunction {
			t.Errorf("%q: expected reason %s, got %s", sql, model.RejectDisallowedFunction, verdict.Reason)
		}
	}

	// The bare word without a call is a column reference, not a function.
	verdict := v.Validate("SELECT sleep FROM metrics LIMIT 5")
	if !verdict.Accepted {
		t.Errorf("expected acceptance for column named sleep, got %s", verdict.Reason)
	}
}

func TestValidator_Validate_MustStartWithSelect(t *testing.T) {
	v := NewValidator(10000, 10000)

	for _, sql := range []string{"EXPLAIN SELECT 1", "SHOW TABLES", "(SELECT 1)"} {
		verdict := v.Validate(sql)
		if verdict.Accepted {
			t.Errorf("expected rejection for %q", sql)
		}
	}

	verdict := v.Validate("WITH t AS (SELECT 1 AS x) SELECT x FROM t LIMIT 5")
	if !verdict.Accepted {
		t.Errorf("expected CTE acceptance, got %s: %s", verdict.Reason, verdict.Detail)
	}
}

func TestValidator_Validate_InjectsLimit(t *testing.T) {
	v := NewValidator(500, 10000)

	verdict := v.Validate("SELECT country, deaths FROM disease_burden")
	if !verdict.Accepted {
		t.Fatalf("expected acceptance, got %s: %s", verdict.Reason, verdict.Detail)
	}
	if !verdict.Injected {
		t.Error("expected injected row bound")
	}
	if !strings.HasSuffix(verdict.Normalized, "LIMIT 500") {
		t.Errorf("expected LIMIT 500 suffix, got %q", verdict.Normalized)
	}
}

func TestValidator_Validate_ClampsOversizedLimit(t *testing.T) {
	v := NewValidator(500, 10000)

	verdict := v.Validate("SELECT country FROM disease_burden LIMIT 999999")
	if !verdict.Accepted {
		t.Fatalf("expected acceptance, got %s", verdict.Reason)
	}
	if !verdict.Clamped {
		t.Error("expected clamped row bound")
	}
	if !strings.Contains(verdict.Normalized, "LIMIT 500") {
		t.Errorf("expected LIMIT 500, got %q", verdict.Normalized)
	}
	if strings.Contains(verdict.Normalized, "999999") {
		t.Errorf("oversized bound survived: %q", verdict.Normalized)
	}
}

func TestValidator_Validate_ClampsLimitAll(t *testing.T) {
	v := NewValidator(500, 10000)

	verdict := v.Validate("SELECT country FROM disease_burden LIMIT ALL")
	if !verdict.Accepted {
		t.Fatalf("expected acceptance, got %s", verdict.Reason)
	}
	if !verdict.Clamped {
		t.Error("expected LIMIT ALL to be clamped")
	}
	if !strings.Contains(verdict.Normalized, "LIMIT 500") {
		t.Errorf("expected LIMIT 500, got %q", verdict.Normalized)
	}
}

func TestValidator_Validate_SubqueryLimitDoesNotBindOuter(t *testing.T) {
	v := NewValidator(500, 10000)

	verdict := v.Validate("SELECT * FROM (SELECT country FROM disease_burden LIMIT 5) sub")
	if !verdict.Accepted {
		t.Fatalf("expected acceptance, got %s: %s", verdict.Reason, verdict.Detail)
	}
	if !verdict.Injected {
		t.Error("outer statement has no bound; expected an injected LIMIT")
	}
}

func TestValidator_Validate_AcceptableLimitUntouched(t *testing.T) {
	v := NewValidator(500, 10000)

	sql := "SELECT country FROM disease_burden LIMIT 100"
	verdict := v.Validate(sql)
	if !verdict.Accepted || verdict.Clamped || verdict.Injected {
		t.Fatalf("expected untouched acceptance, got %+v", verdict)
	}
	if verdict.Normalized != sql {
		t.Errorf("statement modified: %q", verdict.Normalized)
	}
}

func TestValidator_Validate_FetchFirstCountsAsBound(t *testing.T) {
	v := NewValidator(500, 10000)

	verdict := v.Validate("SELECT country FROM disease_burden FETCH FIRST 10 ROWS ONLY")
	if !verdict.Accepted {
		t.Fatalf("expected acceptance, got %s", verdict.Reason)
	}
	if verdict.Injected {
		t.Error("FETCH FIRST already bounds the statement")
	}
}

func TestValidator_Validate_UnknownTable(t *testing.T) {
	v := NewValidator(10000, 10000)
	v.KnownTable = func(name string) bool {
		return name == "disease_burden" || name == "immunization_coverage"
	}

	verdict := v.Validate("SELECT * FROM patients LIMIT 5")
	if verdict.Accepted {
		t.Fatal("expected rejection for unknown table")
	}
	if verdict.Reason != model.RejectUnknownTable {
		t.Errorf("expected reason %s, got %s", model.RejectUnknownTable, verdict.Reason)
	}

	cases := []string{
		"SELECT * FROM disease_burden LIMIT 5",
		"SELECT * FROM public.disease_burden LIMIT 5",
		"SELECT * FROM disease_burden d JOIN immunization_coverage i ON d.country = i.country LIMIT 5",
		"WITH recent AS (SELECT * FROM disease_burden WHERE year > 2020) SELECT * FROM recent LIMIT 5",
	}
	for _, sql := range cases {
		if verdict := v.Validate(sql); !verdict.Accepted {
			t.Errorf("expected acceptance for %q, got %s: %s", sql, verdict.Reason, verdict.Detail)
		}
	}
}

func TestValidator_Validate_EmptyAndOversized(t *testing.T) {
	v := NewValidator(10000, 50)

	if verdict := v.Validate("   \n  "); verdict.Accepted {
		t.Error("expected rejection for empty query")
	}
	long := "SELECT " + strings.Repeat("x", 100)
	if verdict := v.Validate(long); verdict.Accepted {
		t.Error("expected rejection for oversized query")
	}
}

func TestValidator_Validate_UnterminatedComment(t *testing.T) {
	v := NewValidator(10000, 10000)

	verdict := v.Validate("SELECT 1 /* never closed")
	if verdict.Accepted {
		t.Fatal("expected rejection")
	}
	if verdict.Reason != model.RejectSyntaxAmbiguous {
		t.Errorf("expected reason %s, got %s", model.RejectSyntaxAmbiguous, verdict.Reason)
	}
}
