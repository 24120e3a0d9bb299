package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// upsertQuery builds an INSERT ... ON CONFLICT (id) DO UPDATE statement for table.
// cols[0] must be the id column. updated_at only moves when a column actually
// changed, so re-upserting an unchanged row leaves it untouched.
func upsertQuery(table string, cols []string) string {
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}

	sets := make([]string, 0, len(cols)-1)
	current := make([]string, 0, len(cols)-1)
	incoming := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		sets = append(sets, c+" = EXCLUDED."+c)
		current = append(current, table+"."+c)
		incoming = append(incoming, "EXCLUDED."+c)
	}

	return fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		ON CONFLICT (id) DO UPDATE SET
			%s,
			updated_at = CASE WHEN (%s) IS DISTINCT FROM (%s) THEN NOW() ELSE %s.updated_at END
		RETURNING %s`,
		table, strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(sets, ",\n\t\t\t"),
		strings.Join(current, ", "), strings.Join(incoming, ", "), table,
		selectColumns(cols),
	)
}

func selectColumns(cols []string) string {
	return strings.Join(cols, ", ") + ", created_at, updated_at"
}

// upsertAll upserts items one statement at a time inside a single transaction. When an
// id repeats in the batch only its last occurrence is written. Saved rows come back in
// the input order of the occurrences that were written. Rows are written in id order so
// that concurrent batches touching the same ids lock them in the same order.
func upsertAll[T any](ctx context.Context, db *DB, items []T, key func(T) string, upsertOne func(q querier, item T) (T, error)) ([]T, error) {
	if len(items) == 0 {
		return nil, nil
	}

	order := writeOrder(items, key)

	saved := make(map[int]T, len(order))
	err := db.InTx(ctx, func(tx *Tx) error {
		for _, i := range order {
			s, err := upsertOne(tx, items[i])
			if err != nil {
				return err
			}
			saved[i] = s
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(saved))
	for _, i := range slices.Sorted(maps.Keys(saved)) {
		out = append(out, saved[i])
	}
	return out, nil
}

// writeOrder returns the index of the last occurrence of every id, sorted by id.
func writeOrder[T any](items []T, key func(T) string) []int {
	last := make(map[string]int, len(items))
	for i, item := range items {
		last[key(item)] = i
	}

	order := make([]int, 0, len(last))
	for _, i := range last {
		order = append(order, i)
	}
	sort.Slice(order, func(a, b int) bool {
		return key(items[order[a]]) < key(items[order[b]])
	})
	return order
}

// jsonbParam encodes v for a JSONB parameter. Nil values become SQL NULL. The
// result is a string so lib/pq does not send it as bytea.
func jsonbParam(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json column: %w", err)
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}

// scanJSONB decodes a JSONB column. NULL leaves dst untouched.
func scanJSONB(b []byte, dst any) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("failed to decode json column: %w", err)
	}
	return nil
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
