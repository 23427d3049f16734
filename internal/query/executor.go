package query

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrUnsafeQuery is reported when a statement fails IsSafeQuery.
var ErrUnsafeQuery = errors.New("Unsafe query detected")

// Row is one result record with its columns in result-set order.
type Row struct {
	Columns []string
	Values  []any
}

// MarshalJSON renders the row as an object whose keys keep column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Outcome is the transient result of Execute. Failures are reported in Err,
// never returned as a Go error.
type Outcome struct {
	OK       bool
	RowCount int
	Rows     []Row
	Err      error
}

// Runner is the statement executor consumed by the chat pipeline.
type Runner interface {
	Execute(ctx context.Context, stmt string) Outcome
}

// Executor runs guarded statements on a database handle, ideally a read-only one.
type Executor struct {
	db      *sql.DB
	timeout time.Duration
}

var _ Runner = (*Executor)(nil)

// NewExecutor creates an executor. A zero timeout means no per-query deadline.
func NewExecutor(db *sql.DB, timeout time.Duration) *Executor {
	return &Executor{db: db, timeout: timeout}
}

// Execute validates stmt with IsSafeQuery and returns every row it produces.
func (e *Executor) Execute(ctx context.Context, stmt string) Outcome {
	if !IsSafeQuery(stmt) {
		slog.Warn("Rejected unsafe statement", "sql", stmt)
		observeQuery("rejected", 0)
		return Outcome{Err: ErrUnsafeQuery}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, stmt)
	if err != nil {
		slog.Error("Query failed", "error", err)
		observeQuery("error", time.Since(start))
		return Outcome{Err: err}
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close query rows", "error", closeErr)
		}
	}()

	result, err := ScanRows(rows)
	if err != nil {
		slog.Error("Query scan failed", "error", err)
		observeQuery("error", time.Since(start))
		return Outcome{Err: err}
	}

	observeQuery("ok", time.Since(start))
	return Outcome{OK: true, RowCount: len(result), Rows: result}
}

// ScanRows drains rows into ordered records. []byte values become strings.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, Row{Columns: cols, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
