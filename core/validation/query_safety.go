// Package validation checks user supplied SQL before it reaches a database.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnsafeQuery is wrapped by every rejection of a query that could write.
var ErrUnsafeQuery = errors.New("query is not read-only")

// Allowed SQL commands for read-only operations
var allowedCommands = map[string]bool{
	"SELECT": true,
	"WITH":   true,
	"VALUES": true,
}

// Forbidden SQL commands that modify data or schema
var forbiddenCommands = map[string]bool{
	"DELETE":   true,
	"DROP":     true,
	"TRUNCATE": true,
	"INSERT":   true,
	"UPDATE":   true,
	"ALTER":    true,
	"CREATE":   true,
	"GRANT":    true,
	"REVOKE":   true,
	"EXECUTE":  true,
	"EXEC":     true,
	"CALL":     true,
	"MERGE":    true,
	"COPY":     true,
	"VACUUM":   true,
	"ATTACH":   true,
	"DETACH":   true,
	"PRAGMA":   true,
}

// ValidateQuery accepts a single read-only statement. Keywords inside
// comments, string literals and quoted identifiers are ignored; a trailing
// semicolon is allowed.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query cannot be empty")
	}

	statements, err := scanStatements(query)
	if err != nil {
		return err
	}
	switch len(statements) {
	case 0:
		return fmt.Errorf("unable to identify SQL command (query is empty once comments are removed)")
	case 1:
	default:
		return fmt.Errorf("%w: only a single SQL statement is allowed, got %d", ErrUnsafeQuery, len(statements))
	}

	words := statements[0]
	first := words[0]
	if !allowedCommands[first] {
		if forbiddenCommands[first] {
			return fmt.Errorf("%w: forbidden SQL command detected: %s", ErrUnsafeQuery, first)
		}
		return fmt.Errorf("%w: unsupported SQL command: %s (only SELECT, WITH and VALUES are allowed)", ErrUnsafeQuery, first)
	}

	// data-modifying CTEs and subqueries
	for _, w := range words[1:] {
		if forbiddenCommands[w] {
			return fmt.Errorf("%w: forbidden SQL command detected: %s", ErrUnsafeQuery, w)
		}
	}
	return nil
}

// scanStatements splits query on top-level semicolons and returns the
// upper-cased bare words of each non-empty statement.
func scanStatements(query string) ([][]string, error) {
	var (
		statements [][]string
		words      []string
		word       strings.Builder
	)

	flushWord := func() {
		if word.Len() > 0 {
			words = append(words, strings.ToUpper(word.String()))
			word.Reset()
		}
	}
	flushStatement := func() {
		flushWord()
		if len(words) > 0 {
			statements = append(statements, words)
		}
		words = nil
	}

	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case r == '-' && next == '-':
			flushWord()
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '/' && next == '*':
			flushWord()
			end, err := skipBlockComment(runes, i)
			if err != nil {
				return nil, err
			}
			i = end
		case r == '\'' || r == '"' || r == '`':
			flushWord()
			end, err := skipQuoted(runes, i, r)
			if err != nil {
				return nil, err
			}
			i = end
		case r == '$' && word.Len() == 0:
			end, ok := skipDollarQuoted(runes, i)
			if !ok {
				continue
			}
			i = end
		case r == ';':
			flushStatement()
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		default:
			flushWord()
		}
	}
	flushStatement()
	return statements, nil
}

// skipBlockComment returns the index of the closing '/' of the comment
// opened at start. Block comments nest.
func skipBlockComment(runes []rune, start int) (int, error) {
	depth := 0
	for i := start; i+1 < len(runes); i++ {
		switch {
		case runes[i] == '/' && runes[i+1] == '*':
			depth++
			i++
		case runes[i] == '*' && runes[i+1] == '/':
			depth--
			i++
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated block comment")
}

// skipQuoted returns the index of the quote closing the literal opened at
// start. A doubled quote is an escaped quote.
func skipQuoted(runes []rune, start int, quote rune) (int, error) {
	for i := start + 1; i < len(runes); i++ {
		if runes[i] != quote {
			continue
		}
		if i+1 < len(runes) && runes[i+1] == quote {
			i++
			continue
		}
		return i, nil
	}
	return 0, fmt.Errorf("unterminated quoted literal starting at offset %d", start)
}

// skipDollarQuoted handles $tag$...$tag$ strings. ok is false when the '$' at
// start does not open one (a $1 placeholder, for instance).
func skipDollarQuoted(runes []rune, start int) (int, bool) {
	j := start + 1
	for j < len(runes) && (runes[j] == '_' || unicode.IsLetter(runes[j]) || (j > start+1 && unicode.IsDigit(runes[j]))) {
		j++
	}
	if j >= len(runes) || runes[j] != '$' {
		return 0, false
	}
	tag := string(runes[start : j+1])
	body := string(runes[j+1:])
	idx := strings.Index(body, tag)
	if idx < 0 {
		return 0, false
	}
	return j + 1 + len([]rune(body[:idx])) + len([]rune(tag)) - 1, true
}
