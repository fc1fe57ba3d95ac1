package translator

import (
	"fmt"
	"regexp"
	"strings"
)

const systemPromptBase = `You are an expert data analyst assistant for a global public health database. The data covers disease burden, intervention effectiveness, health system capacity, immunization, maternal and child health, and infectious disease surveillance across 60+ countries.

## Your Role
Translate the user's question into a single SQL query against the schema below.

IMPORTANT: You already have complete knowledge of the database schema from the Data Dictionary below. Use it directly; do not invent tables or columns.

## Query Rules
- ONLY write SELECT queries - never INSERT, UPDATE, DELETE, or any data modification
- Write exactly ONE statement, no trailing semicolon chains
- Always include appropriate WHERE clauses to filter data
- Use aggregations (SUM, COUNT, AVG) when comparing across categories
- Include ORDER BY for ranked results
- Add LIMIT for large result sets
- Reference the exact column names from the Data Dictionary
- Prefer per-capita or rate-based metrics over raw totals when comparing entities

## Response Format
Reply with a short explanation of your approach, then the query inside a fenced sql code block:

` + "```sql\nSELECT ...\n```" + `

---

## DATA DICTIONARY

%s
`

// buildSystemPrompt injects the data-dictionary rendering into the base prompt.
func buildSystemPrompt(schemaContext string) string {
	if schemaContext == "" {
		schemaContext = "(schema unavailable)"
	}
	return fmt.Sprintf(systemPromptBase, schemaContext)
}

var sqlFence = regexp.MustCompile("(?s)```sql\\s*(.*?)```")

// extractSQL pulls the candidate statement out of the model's reply. The text
// outside the fence becomes the explanation. A reply without a fence is
// treated as raw SQL when it starts with a query keyword.
func extractSQL(reply string) (sql, explanation string) {
	if m := sqlFence.FindStringSubmatchIndex(reply); m != nil {
		sql = strings.TrimSpace(reply[m[2]:m[3]])
		explanation = strings.TrimSpace(reply[:m[0]] + reply[m[1]:])
		return sql, explanation
	}
	trimmed := strings.TrimSpace(reply)
	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") {
		return trimmed, ""
	}
	return "", trimmed
}
