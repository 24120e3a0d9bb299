package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var dbTracer = otel.Tracer("finsync.db")

//go:embed schema.sql
var schemaSQL string

type DB struct {
	*sql.DB
}

// querier is implemented by both DB and Tx so repositories can run the same
// statements inside or outside a transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *tracedRow
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// rowScanner is satisfied by *sql.Rows and *tracedRow.
type rowScanner interface {
	Scan(dest ...any) error
}

func New(connStr string) (*DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// Migrate creates the schema. Every statement is idempotent, so it is safe to run on each start.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func startSpan(ctx context.Context, name, query string) (context.Context, trace.Span) {
	return dbTracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", extractSQLVerb(query)),
		attribute.String("db.statement", sanitizeQuery(query)),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// QueryContext wraps sql.DB.QueryContext with tracing.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx, span := startSpan(ctx, "db.Query", query)
	rows, err := db.DB.QueryContext(ctx, query, args...)
	endSpan(span, err)
	return rows, err
}

// tracedRow wraps *sql.Row so the tracing span stays open until Scan() is
// called, which is where sql.Row surfaces all errors (including sql.ErrNoRows).
type tracedRow struct {
	row  *sql.Row
	span trace.Span
}

func (r *tracedRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if r.span != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// ErrNoRows is not recorded as a span error
			r.span.End()
		} else {
			endSpan(r.span, err)
		}
		r.span = nil
	}
	return err
}

// QueryRowContext wraps sql.DB.QueryRowContext with tracing.
// The returned tracedRow ends the span in Scan(), not here, because
// sql.Row defers all errors to Scan().
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *tracedRow {
	ctx, span := startSpan(ctx, "db.QueryRow", query)
	return &tracedRow{
		row:  db.DB.QueryRowContext(ctx, query, args...),
		span: span,
	}
}

// ExecContext wraps sql.DB.ExecContext with tracing.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, span := startSpan(ctx, "db.Exec", query)
	result, err := db.DB.ExecContext(ctx, query, args...)
	endSpan(span, err)
	return result, err
}

// Tx is a traced database transaction.
type Tx struct {
	*sql.Tx
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	ctx, span := startSpan(ctx, "db.Query", query)
	rows, err := tx.Tx.QueryContext(ctx, query, args...)
	endSpan(span, err)
	return rows, err
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *tracedRow {
	ctx, span := startSpan(ctx, "db.QueryRow", query)
	return &tracedRow{
		row:  tx.Tx.QueryRowContext(ctx, query, args...),
		span: span,
	}
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx, span := startSpan(ctx, "db.Exec", query)
	result, err := tx.Tx.ExecContext(ctx, query, args...)
	endSpan(span, err)
	return result, err
}

// InTx runs fn in a transaction, committing when it returns nil and rolling back otherwise.
func (db *DB) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	ctx, span := dbTracer.Start(ctx, "db.Tx", trace.WithAttributes(attribute.String("db.system", "postgresql")))
	defer span.End()

	sqlTx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&Tx{sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// isForeignKeyViolation reports whether err is a Postgres foreign_key_violation.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// sanitizeQuery replaces string literals and bare numeric literals with '?'
// so that sensitive values (PII, tokens, etc.) are never stored in traces.
// Parameterized queries using $1, $2, ... are left as-is since they carry no data.
func sanitizeQuery(q string) string {
	var b strings.Builder
	b.Grow(len(q))

	i := 0
	for i < len(q) {
		ch := q[i]

		// Replace quoted string literals: 'value' → '?'
		if ch == '\'' {
			b.WriteString("'?'")
			i++
			for i < len(q) {
				if q[i] == '\'' {
					if i+1 < len(q) && q[i+1] == '\'' {
						i += 2 // escaped quote ''
						continue
					}
					i++ // closing quote
					break
				}
				i++
			}
			continue
		}

		// Replace bare numeric literals that aren't $N parameters
		if unicode.IsDigit(rune(ch)) && (i == 0 || !isIdentChar(q[i-1])) {
			b.WriteByte('?')
			for i < len(q) && (unicode.IsDigit(rune(q[i])) || q[i] == '.') {
				i++
			}
			continue
		}

		b.WriteByte(ch)
		i++
	}

	s := strings.Join(strings.Fields(b.String()), " ")
	if len(s) > 256 {
		return s[:256] + "..."
	}
	return s
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '$'
}

func extractSQLVerb(q string) string {
	q = strings.TrimSpace(q)
	if idx := strings.IndexAny(q, " \t\n"); idx > 0 {
		return strings.ToUpper(q[:idx])
	}
	return strings.ToUpper(q)
}
