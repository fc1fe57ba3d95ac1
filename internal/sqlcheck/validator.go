// Package sqlcheck statically validates LLM-generated SQL before it may touch the
// store. Validation is a pure function over text: it tokenizes the statement,
// checks it against declarative deny tables, and either rejects it with a reason
// or hands back a normalized statement carrying an enforced row bound.
package sqlcheck

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manueljhc/healthcare-data-explorer/internal/model"
)

// writeKeywords are data- or schema-modifying keywords rejected as top-level
// tokens. Matching happens on word tokens only, so a column named "update_count"
// never trips the check.
var writeKeywords = map[string]bool{
	"insert": true, "update": true, "delete": true, "drop": true,
	"create": true, "alter": true, "truncate": true, "replace": true,
	"merge": true, "grant": true, "revoke": true, "exec": true,
	"execute": true, "call": true, "attach": true, "detach": true,
	"pragma": true, "vacuum": true, "copy": true, "do": true,
}

// deniedFunctions are file-, network-, or stall-capable functions that a bounded
// read-only analytics query has no business calling. Detected as a word token
// immediately followed by an opening parenthesis.
var deniedFunctions = map[string]bool{
	"load_extension": true, "readfile": true, "writefile": true,
	"pg_read_file": true, "pg_read_binary_file": true, "pg_ls_dir": true,
	"pg_sleep": true, "sleep": true, "benchmark": true,
	"dblink": true, "dblink_connect": true, "lo_import": true, "lo_export": true,
	"pg_terminate_backend": true, "pg_cancel_backend": true,
}

// Validator decides whether a candidate statement is safe and bounded to execute.
// It performs no I/O; the optional KnownTable hook is an injected lookup into the
// data dictionary.
type Validator struct {
	maxRows        int
	maxQueryLength int

	// KnownTable, when set, is consulted for every table referenced after
	// FROM/JOIN; unknown tables reject the statement before execution.
	KnownTable func(name string) bool
}

// NewValidator creates a validator enforcing the given row cap and maximum query
// length. Zero or negative arguments fall back to safe defaults.
func NewValidator(maxRows, maxQueryLength int) *Validator {
	if maxRows <= 0 {
		maxRows = 10000
	}
	if maxQueryLength <= 0 {
		maxQueryLength = 10000
	}
	return &Validator{maxRows: maxRows, maxQueryLength: maxQueryLength}
}

// Validate checks a single candidate statement and returns the verdict. Accepted
// verdicts carry the normalized statement: exactly one read-only statement with a
// LIMIT no larger than the configured maximum (appended when missing, clamped when
// oversized, the one "fix and allow" case; everything else rejects).
func (v *Validator) Validate(sql string) model.ValidationVerdict {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return reject(model.RejectSyntaxAmbiguous, "empty query")
	}
	if len(trimmed) > v.maxQueryLength {
		return reject(model.RejectSyntaxAmbiguous,
			fmt.Sprintf("query exceeds maximum length of %d characters", v.maxQueryLength))
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return reject(model.RejectSyntaxAmbiguous, err.Error())
	}
	if len(tokens) == 0 {
		return reject(model.RejectSyntaxAmbiguous, "query contains no statement")
	}

	// Statement separators: a semicolon is only allowed as the very last token.
	for i, t := range tokens {
		if t.kind == tokenSemicolon && i != len(tokens)-1 {
			return reject(model.RejectMultiStatement,
				"multiple SQL statements are not allowed; submit one statement per turn")
		}
	}

	// Write/DDL keywords anywhere as a top-level token.
	for _, t := range tokens {
		if t.kind == tokenWord && writeKeywords[t.lower()] {
			return reject(model.RejectWriteOperation,
				fmt.Sprintf("write operation detected: %s", strings.ToUpper(t.lower())))
		}
	}

	// Denied function invocations: word token directly followed by '('.
	for i, t := range tokens {
		if t.kind == tokenWord && deniedFunctions[t.lower()] &&
			i+1 < len(tokens) && tokens[i+1].kind == tokenSymbol && tokens[i+1].text == "(" {
			return reject(model.RejectDisallowedFunction,
				fmt.Sprintf("disallowed function: %s", t.lower()))
		}
	}

	// Only SELECT and WITH (CTEs) may open a statement.
	first := tokens[0]
	if first.kind != tokenWord || (first.lower() != "select" && first.lower() != "with") {
		return reject(model.RejectSyntaxAmbiguous, "query must start with SELECT or WITH")
	}

	if v.KnownTable != nil {
		if unknown := firstUnknownTable(tokens, v.KnownTable); unknown != "" {
			return reject(model.RejectUnknownTable,
				fmt.Sprintf("unknown table: %s", unknown))
		}
	}

	normalized, clamped, injected := v.enforceRowBound(trimmed, tokens)

	return model.ValidationVerdict{
		Accepted:   true,
		Normalized: normalized,
		Clamped:    clamped,
		Injected:   injected,
	}
}

// enforceRowBound guarantees the statement carries a row bound no larger than the
// configured maximum. Only a LIMIT at parenthesis depth zero counts: a limit
// inside a subquery does not bound the outer statement.
func (v *Validator) enforceRowBound(sql string, tokens []token) (normalized string, clamped, injected bool) {
	depth := 0
	limitIdx := -1
	for i, t := range tokens {
		switch {
		case t.kind == tokenSymbol && t.text == "(":
			depth++
		case t.kind == tokenSymbol && t.text == ")":
			depth--
		case t.kind == tokenWord && depth == 0 && t.lower() == "limit":
			limitIdx = i
		case t.kind == tokenWord && depth == 0 && t.lower() == "fetch":
			// FETCH FIRST n ROWS ONLY serves as a row bound too
			limitIdx = i
		}
	}

	if limitIdx == -1 {
		return appendLimit(sql, v.maxRows), false, true
	}

	// Find the bound's numeric argument within the next few tokens.
	for j := limitIdx + 1; j < len(tokens) && j <= limitIdx+3; j++ {
		t := tokens[j]
		if t.kind == tokenNumber {
			bound, err := strconv.Atoi(t.text)
			if err == nil && bound <= v.maxRows {
				return sql, false, false
			}
			// Oversized or unparseable: clamp in place rather than reject.
			return spliceAt(sql, t.pos, len(t.text), strconv.Itoa(v.maxRows)), true, false
		}
		if t.kind == tokenWord && t.lower() == "all" && tokens[limitIdx].lower() == "limit" {
			// LIMIT ALL is unbounded; clamp it.
			return spliceAt(sql, t.pos, len(t.text), strconv.Itoa(v.maxRows)), true, false
		}
	}

	// FETCH FIRST ROW ONLY and similar single-row forms are already bounded.
	return sql, false, false
}

// firstUnknownTable returns the first table referenced after FROM or JOIN that the
// dictionary does not know, skipping subqueries and names the statement itself
// defines as CTEs.
func firstUnknownTable(tokens []token, known func(string) bool) string {
	cte := cteNames(tokens)

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.kind != tokenWord {
			continue
		}
		w := t.lower()
		if w != "from" && w != "join" {
			continue
		}
		j := i + 1
		if j >= len(tokens) {
			continue
		}
		next := tokens[j]
		if next.kind == tokenSymbol && next.text == "(" {
			continue // Subquery, handled by its own FROM
		}
		if next.kind != tokenWord && next.kind != tokenQuotedID {
			continue
		}
		name := identText(next)
		// Schema-qualified: take the final component.
		if j+2 < len(tokens) && tokens[j+1].kind == tokenSymbol && tokens[j+1].text == "." {
			name = identText(tokens[j+2])
		}
		lower := strings.ToLower(name)
		if cte[lower] {
			continue
		}
		if !known(lower) {
			return name
		}
	}
	return ""
}

// cteNames collects names defined in a depth-zero WITH clause so references to
// them are not mistaken for unknown tables.
func cteNames(tokens []token) map[string]bool {
	names := make(map[string]bool)
	depth := 0
	inHeader := false
	for i, t := range tokens {
		switch {
		case t.kind == tokenSymbol && t.text == "(":
			depth++
		case t.kind == tokenSymbol && t.text == ")":
			depth--
		case t.kind == tokenWord && depth == 0 && t.lower() == "with":
			inHeader = true
		case t.kind == tokenWord && depth == 0 && t.lower() == "select":
			inHeader = false
		case inHeader && depth == 0 && (t.kind == tokenWord || t.kind == tokenQuotedID):
			if i+1 < len(tokens) && tokens[i+1].kind == tokenWord && tokens[i+1].lower() == "as" {
				names[strings.ToLower(identText(t))] = true
			}
		}
	}
	return names
}

// identText strips the quotes off a quoted identifier token.
func identText(t token) string {
	if t.kind == tokenQuotedID && len(t.text) >= 2 {
		return strings.ReplaceAll(t.text[1:len(t.text)-1], `""`, `"`)
	}
	return t.text
}

// appendLimit appends a LIMIT clause, keeping a trailing semicolon if present.
func appendLimit(sql string, maxRows int) string {
	trimmed := strings.TrimRight(sql, " \t\n\r")
	if strings.HasSuffix(trimmed, ";") {
		return strings.TrimSuffix(trimmed, ";") + fmt.Sprintf(" LIMIT %d;", maxRows)
	}
	return trimmed + fmt.Sprintf(" LIMIT %d", maxRows)
}

// spliceAt replaces length bytes at pos with repl.
func spliceAt(sql string, pos, length int, repl string) string {
	return sql[:pos] + repl + sql[pos+length:]
}

func reject(reason model.RejectReason, detail string) model.ValidationVerdict {
	return model.ValidationVerdict{Accepted: false, Reason: reason, Detail: detail}
}
