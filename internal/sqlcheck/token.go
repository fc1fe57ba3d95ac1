package sqlcheck

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenKind classifies a lexical token. Comments are discarded during scanning so
// keywords hidden in comment tricks never reach the keyword checks, and string
// literals keep their own kind so a literal containing "DROP" is never mistaken
// for the keyword.
type tokenKind int

const (
	tokenWord      tokenKind = iota // Unquoted identifier or keyword
	tokenString                     // '...' literal
	tokenQuotedID                   // "..." quoted identifier
	tokenNumber                     // Numeric literal
	tokenSymbol                     // Single punctuation rune
	tokenSemicolon                  // Statement separator
)

// token is one lexical unit with its byte offset in the original text, so the
// validator can splice rewrites (limit clamping) back into the statement.
type token struct {
	kind tokenKind
	text string
	pos  int
}

// lower returns the lower-cased token text for case-insensitive keyword checks.
func (t token) lower() string {
	return strings.ToLower(t.text)
}

// tokenize scans SQL text into tokens, dropping comments. It returns an error for
// unterminated strings, quoted identifiers, or block comments; those make the
// statement ambiguous and the validator rejects rather than guesses.
func tokenize(sql string) ([]token, error) {
	var tokens []token
	i := 0
	n := len(sql)

	for i < n {
		c := sql[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '-' && i+1 < n && sql[i+1] == '-':
			// Line comment: skip to end of line
			for i < n && sql[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && sql[i+1] == '*':
			// Block comment, may nest (PostgreSQL semantics)
			depth := 1
			j := i + 2
			for j < n && depth > 0 {
				if j+1 < n && sql[j] == '/' && sql[j+1] == '*' {
					depth++
					j += 2
				} else if j+1 < n && sql[j] == '*' && sql[j+1] == '/' {
					depth--
					j += 2
				} else {
					j++
				}
			}
			if depth > 0 {
				return nil, fmt.Errorf("unterminated block comment at offset %d", i)
			}
			i = j

		case c == '\'':
			text, next, err := scanQuoted(sql, i, '\'')
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, text: text, pos: i})
			i = next

		case c == '"':
			text, next, err := scanQuoted(sql, i, '"')
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenQuotedID, text: text, pos: i})
			i = next

		case c == ';':
			tokens = append(tokens, token{kind: tokenSemicolon, text: ";", pos: i})
			i++

		case isWordStart(rune(c)):
			j := i + 1
			for j < n && isWordPart(rune(sql[j])) {
				j++
			}
			tokens = append(tokens, token{kind: tokenWord, text: sql[i:j], pos: i})
			i = j

		case c >= '0' && c <= '9':
			j := i + 1
			for j < n && (sql[j] >= '0' && sql[j] <= '9' || sql[j] == '.') {
				j++
			}
			tokens = append(tokens, token{kind: tokenNumber, text: sql[i:j], pos: i})
			i = j

		default:
			tokens = append(tokens, token{kind: tokenSymbol, text: string(c), pos: i})
			i++
		}
	}

	return tokens, nil
}

// scanQuoted scans a quoted region starting at start (which holds the quote rune).
// Doubled quotes escape per SQL rules. Returns the full token text including
// quotes and the index just past it.
func scanQuoted(sql string, start int, quote byte) (string, int, error) {
	i := start + 1
	n := len(sql)
	for i < n {
		if sql[i] == quote {
			if i+1 < n && sql[i+1] == quote {
				i += 2 // Escaped quote
				continue
			}
			return sql[start : i+1], i + 1, nil
		}
		i++
	}
	return "", n, fmt.Errorf("unterminated quoted region at offset %d", start)
}

func isWordStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isWordPart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
