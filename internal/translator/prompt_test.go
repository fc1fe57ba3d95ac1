package translator

import (
	"strings"
	"testing"
)

func TestExtractSQL_FencedReply(t *testing.T) {
	reply := "I aggregated deaths by country.\n\n```sql\nSELECT country, SUM(deaths) FROM disease_burden GROUP BY country\n```\n"

	sql, explanation := extractSQL(reply)
	if sql != "SELECT country, SUM(deaths) FROM disease_burden GROUP BY country" {
		t.Errorf("unexpected sql: %q", sql)
	}
	if explanation != "I aggregated deaths by country." {
		t.Errorf("unexpected explanation: %q", explanation)
	}
}

func TestExtractSQL_ExplanationAfterFence(t *testing.T) {
	reply := "```sql\nSELECT 1\n```\nThis counts one row."

	sql, explanation := extractSQL(reply)
	if sql != "SELECT 1" {
		t.Errorf("unexpected sql: %q", sql)
	}
	if explanation != "This counts one row." {
		t.Errorf("unexpected explanation: %q", explanation)
	}
}

func TestExtractSQL_BareSelect(t *testing.T) {
	sql, explanation := extractSQL("  SELECT country FROM disease_burden  ")
	if sql != "SELECT country FROM disease_burden" {
		t.Errorf("unexpected sql: %q", sql)
	}
	if explanation != "" {
		t.Errorf("expected empty explanation, got %q", explanation)
	}

	sql, _ = extractSQL("with t as (select 1) select * from t")
	if !strings.HasPrefix(strings.ToUpper(sql), "WITH") {
		t.Errorf("expected bare CTE to be treated as SQL, got %q", sql)
	}
}

func TestExtractSQL_NoSQL(t *testing.T) {
	sql, explanation := extractSQL("I cannot answer that question with this schema.")
	if sql != "" {
		t.Errorf("expected no sql, got %q", sql)
	}
	if explanation == "" {
		t.Error("expected the reply preserved as explanation")
	}
}

func TestExtractSQL_MultilineStatement(t *testing.T) {
	reply := "```sql\nSELECT country,\n       SUM(deaths) AS total\nFROM disease_burden\nGROUP BY country\n```"

	sql, _ := extractSQL(reply)
	if !strings.Contains(sql, "GROUP BY country") {
		t.Errorf("expected multiline statement preserved, got %q", sql)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := buildSystemPrompt("## schema goes here")
	if !strings.Contains(prompt, "## schema goes here") {
		t.Error("expected schema context injected")
	}
	if !strings.Contains(prompt, "ONLY write SELECT queries") {
		t.Error("expected query rules in prompt")
	}

	prompt = buildSystemPrompt("")
	if !strings.Contains(prompt, "(schema unavailable)") {
		t.Error("expected placeholder for missing schema")
	}
}
