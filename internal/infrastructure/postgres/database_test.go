package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
)

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "parameters kept",
			query: "SELECT id FROM accounts WHERE id = $1 AND connection_id = $2",
			want:  "SELECT id FROM accounts WHERE id = $1 AND connection_id = $2",
		},
		{
			name:  "string literal replaced",
			query: "SELECT id FROM identities WHERE document = '123.456.789-00'",
			want:  "SELECT id FROM identities WHERE document = '?'",
		},
		{
			name:  "escaped quote inside literal",
			query: "SELECT 'it''s' FROM t",
			want:  "SELECT '?' FROM t",
		},
		{
			name:  "numeric literal replaced",
			query: "SELECT id FROM transactions LIMIT 100",
			want:  "SELECT id FROM transactions LIMIT ?",
		},
		{
			name:  "digits inside identifiers kept",
			query: "SELECT col2 FROM t1",
			want:  "SELECT col2 FROM t1",
		},
		{
			name:  "whitespace collapsed",
			query: "\n\t\tSELECT id\n\t\tFROM loans\n",
			want:  "SELECT id FROM loans",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeQuery(tt.query); got != tt.want {
				t.Errorf("sanitizeQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeQuery_Truncates(t *testing.T) {
	got := sanitizeQuery("SELECT " + strings.Repeat("a, ", 200) + "b FROM t")
	if !strings.HasSuffix(got, "...") || len(got) != 259 {
		t.Errorf("sanitizeQuery() len = %d, want truncated to 256 + ...", len(got))
	}
}

func TestExtractSQLVerb(t *testing.T) {
	tests := map[string]string{
		"select 1":                      "SELECT",
		"\n\tINSERT INTO accounts (id)": "INSERT",
		"DELETE":                        "DELETE",
	}
	for q, want := range tests {
		if got := extractSQLVerb(q); got != want {
			t.Errorf("extractSQLVerb(%q) = %q, want %q", q, got, want)
		}
	}
}

func TestUpsertQuery(t *testing.T) {
	q := upsertQuery("loans", []string{"id", "product_name", "cet"})

	for _, want := range []string{
		"INSERT INTO loans (id, product_name, cet)",
		"VALUES ($1, $2, $3)",
		"ON CONFLICT (id) DO UPDATE SET",
		"product_name = EXCLUDED.product_name",
		"cet = EXCLUDED.cet",
		"(loans.product_name, loans.cet) IS DISTINCT FROM (EXCLUDED.product_name, EXCLUDED.cet)",
		"ELSE loans.updated_at END",
		"RETURNING id, product_name, cet, created_at, updated_at",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("upsertQuery() missing %q in:\n%s", want, q)
		}
	}

	if strings.Contains(q, "id = EXCLUDED.id") {
		t.Error("upsertQuery() must not update the conflict key")
	}
}

func TestJSONBParam(t *testing.T) {
	var nilSlice []string
	got, err := jsonbParam(nilSlice)
	if err != nil || got != nil {
		t.Errorf("jsonbParam(nil) = %v, %v; want nil, nil", got, err)
	}

	got, err = jsonbParam([]string{"a"})
	if err != nil {
		t.Fatalf("jsonbParam() error = %v", err)
	}
	if s, ok := got.(string); !ok || s != `["a"]` {
		t.Errorf("jsonbParam() = %#v, want string [\"a\"]", got)
	}
}

func TestScanJSONB(t *testing.T) {
	dst := []string{"untouched"}
	if err := scanJSONB(nil, &dst); err != nil {
		t.Fatalf("scanJSONB(nil) error = %v", err)
	}
	if len(dst) != 1 || dst[0] != "untouched" {
		t.Errorf("scanJSONB(nil) modified dst: %v", dst)
	}

	if err := scanJSONB([]byte(`{`), &dst); err == nil {
		t.Error("scanJSONB() accepted malformed json")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	fk := &pq.Error{Code: "23503"}
	if !isForeignKeyViolation(fmt.Errorf("wrapped: %w", fk)) {
		t.Error("isForeignKeyViolation() = false for wrapped 23503")
	}
	if isForeignKeyViolation(&pq.Error{Code: "23505"}) {
		t.Error("isForeignKeyViolation() = true for unique violation")
	}
	if isForeignKeyViolation(errors.New("boom")) || isForeignKeyViolation(nil) {
		t.Error("isForeignKeyViolation() = true for non-pq error")
	}
}

func TestWriteOrder(t *testing.T) {
	type row struct {
		id      string
		balance string
	}
	key := func(r row) string { return r.id }

	tests := []struct {
		name  string
		items []row
		want  []int
	}{
		{
			name:  "sorted by id",
			items: []row{{"c1", "1"}, {"a1", "2"}, {"b1", "3"}},
			want:  []int{1, 2, 0},
		},
		{
			name:  "duplicate id keeps last occurrence",
			items: []row{{"a1", "old"}, {"c1", "1"}, {"a1", "new"}},
			want:  []int{2, 1},
		},
		{
			name:  "every row the same id",
			items: []row{{"a1", "1"}, {"a1", "2"}, {"a1", "3"}},
			want:  []int{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := writeOrder(tt.items, key)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("writeOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}
