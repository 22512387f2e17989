package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
		errMsg  string // Optional: check for specific error message content
	}{
		// ========== Valid Queries ==========
		{name: "valid SELECT", query: "SELECT * FROM users"},
		{name: "valid SELECT with WHERE", query: "SELECT id, name FROM users WHERE active = true"},
		{name: "valid SELECT with JOIN", query: "SELECT u.id, o.total FROM users u JOIN orders o ON u.id = o.user_id"},
		{name: "valid WITH (CTE)", query: "WITH active_users AS (SELECT * FROM users WHERE active = true) SELECT * FROM active_users"},
		{name: "valid multiple CTEs", query: "WITH cte1 AS (SELECT 1), cte2 AS (SELECT 2) SELECT * FROM cte1"},
		{name: "valid VALUES list", query: "VALUES (1, 'a'), (2, 'b')"},
		{name: "valid subquery", query: "SELECT * FROM (SELECT id FROM users) AS sub"},
		{name: "valid trailing semicolon", query: "SELECT * FROM users;"},
		{name: "valid trailing semicolons and comment", query: "SELECT * FROM users; ; -- DELETE FROM users;"},
		{name: "column names containing commands", query: "SELECT delete_flag, last_update, created_at FROM users"},
		{name: "lowercase select", query: "select id from users"},
		{name: "set operations", query: "SELECT 1 UNION SELECT 2 INTERSECT SELECT 3 EXCEPT SELECT 4"},
		{name: "placeholder", query: "SELECT * FROM users WHERE id = $1"},
		{name: "replace function", query: "SELECT replace(name, 'a', 'b') FROM users"},

		// ========== Forbidden Commands ==========
		{name: "forbidden DELETE", query: "DELETE FROM users", wantErr: true, errMsg: "DELETE"},
		{name: "forbidden DROP", query: "DROP TABLE users", wantErr: true, errMsg: "DROP"},
		{name: "forbidden TRUNCATE", query: "TRUNCATE users", wantErr: true, errMsg: "TRUNCATE"},
		{name: "forbidden INSERT", query: "INSERT INTO users VALUES (1)", wantErr: true, errMsg: "INSERT"},
		{name: "forbidden UPDATE", query: "UPDATE users SET a = 1", wantErr: true, errMsg: "UPDATE"},
		{name: "forbidden ALTER", query: "ALTER TABLE users ADD c int", wantErr: true, errMsg: "ALTER"},
		{name: "forbidden CREATE", query: "CREATE TABLE x (id int)", wantErr: true, errMsg: "CREATE"},
		{name: "forbidden GRANT", query: "GRANT ALL ON users TO bob", wantErr: true, errMsg: "GRANT"},
		{name: "forbidden CALL", query: "CALL do_things()", wantErr: true, errMsg: "CALL"},
		{name: "forbidden MERGE", query: "MERGE INTO t USING s ON t.id = s.id", wantErr: true, errMsg: "MERGE"},
		{name: "forbidden COPY", query: "COPY users FROM '/tmp/x'", wantErr: true, errMsg: "COPY"},
		{name: "forbidden PRAGMA", query: "PRAGMA writable_schema = 1", wantErr: true, errMsg: "PRAGMA"},
		{name: "mixed case delete", query: "DeLeTe FROM users", wantErr: true, errMsg: "DELETE"},
		{name: "unknown command", query: "UNKNOWN_COMMAND users", wantErr: true, errMsg: "unsupported"},

		// ========== Multiple Statements ==========
		{name: "chained DELETE", query: "SELECT 1; DELETE FROM users", wantErr: true, errMsg: "single SQL statement"},
		{name: "two SELECTs", query: "SELECT 1; SELECT 2", wantErr: true, errMsg: "single SQL statement"},
		{name: "DELETE after block comment", query: "SELECT 1; /* x */ DELETE FROM users", wantErr: true, errMsg: "single SQL statement"},

		// ========== Comments ==========
		{name: "DELETE in line comment", query: "SELECT * FROM users -- DELETE FROM users"},
		{name: "DELETE in block comment", query: "SELECT * FROM users /* DELETE FROM users */"},
		{name: "nested block comments", query: "SELECT * FROM users /* outer /* DROP */ still comment */"},
		{name: "DELETE before comment", query: "DELETE FROM users -- this is a comment", wantErr: true, errMsg: "DELETE"},
		{name: "comment hiding leading DELETE", query: "/* SELECT */ DELETE FROM users", wantErr: true, errMsg: "DELETE"},
		{name: "comment only", query: "-- SELECT 1", wantErr: true, errMsg: "unable to identify"},
		{name: "unterminated block comment", query: "SELECT 1 /* DELETE", wantErr: true, errMsg: "unterminated"},

		// ========== Literals ==========
		{name: "DELETE in string literal", query: "SELECT 'DELETE FROM users' AS query FROM users"},
		{name: "semicolon in string literal", query: "SELECT 'test; DELETE' AS cmd FROM users"},
		{name: "escaped quotes in string", query: "SELECT 'O''Brien; DROP TABLE x' AS name FROM users"},
		{name: "quoted identifier", query: `SELECT "DELETE" FROM users`},
		{name: "backtick identifier", query: "SELECT `update` FROM users"},
		{name: "dollar quoted string", query: "SELECT $body$ DELETE FROM users; $body$ AS s"},
		{name: "anonymous dollar quote", query: "SELECT $$ DROP TABLE x; $$"},
		{name: "unterminated string", query: "SELECT 'abc", wantErr: true, errMsg: "unterminated"},

		// ========== Nested Attacks ==========
		{name: "DELETE in CTE", query: "WITH bad AS (DELETE FROM users RETURNING *) SELECT * FROM bad", wantErr: true, errMsg: "DELETE"},
		{name: "DELETE in subquery", query: "SELECT * FROM (DELETE FROM users RETURNING *) AS sub", wantErr: true, errMsg: "DELETE"},
		{name: "UPDATE in CTE", query: "WITH u AS (UPDATE users SET a = 1 RETURNING id) SELECT * FROM u", wantErr: true, errMsg: "UPDATE"},

		// ========== Edge Cases ==========
		{name: "empty query", query: "", wantErr: true, errMsg: "empty"},
		{name: "whitespace only", query: "   \n\t  ", wantErr: true, errMsg: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateQuery(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ValidateQuery() error = %q, want it to contain %q", err, tt.errMsg)
			}
		})
	}
}

func TestValidateQueryWrapsErrUnsafeQuery(t *testing.T) {
	for _, q := range []string{"DROP TABLE users", "SELECT 1; SELECT 2", "WITH x AS (DELETE FROM t) SELECT 1"} {
		if err := ValidateQuery(q); !errors.Is(err, ErrUnsafeQuery) {
			t.Errorf("ValidateQuery(%q) = %v, want ErrUnsafeQuery", q, err)
		}
	}
	if err := ValidateQuery(""); errors.Is(err, ErrUnsafeQuery) {
		t.Error("an empty query is invalid, not unsafe")
	}
}

// TestValidateQuery_ComplexQueries tests complex real-world queries
func TestValidateQuery_ComplexQueries(t *testing.T) {
	queries := map[string]string{
		"multiple JOINs": `
			SELECT
				u.id,
				u.name,
				o.total,
				p.name AS product_name
			FROM users u
			LEFT JOIN orders o ON u.id = o.user_id
			LEFT JOIN order_items oi ON o.id = oi.order_id
			LEFT JOIN products p ON oi.product_id = p.id
			WHERE u.active = true
			ORDER BY o.total DESC
		`,
		"multi-level CTE": `
			WITH
				active_users AS (
					SELECT * FROM users WHERE active = true
				),
				user_orders AS (
					SELECT u.id, COUNT(o.id) AS order_count
					FROM active_users u
					LEFT JOIN orders o ON u.id = o.user_id
					GROUP BY u.id
				)
			SELECT * FROM user_orders WHERE order_count > 0
		`,
		"window functions": `
			SELECT id, ROW_NUMBER() OVER (PARTITION BY category ORDER BY price) AS rn
			FROM products
		`,
		"array operations": `
			SELECT id, tags, array_length(tags, 1) AS tag_count
			FROM products
			WHERE 'electronics' = ANY(tags)
		`,
		"json operators": `SELECT doc->>'name', doc #> '{a,b}' FROM docs WHERE doc ? 'key'`,
	}

	for name, q := range queries {
		t.Run(name, func(t *testing.T) {
			if err := ValidateQuery(q); err != nil {
				t.Errorf("ValidateQuery() error = %v", err)
			}
		})
	}
}
