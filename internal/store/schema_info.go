package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/hrdesk/internal/domain"
	"github.com/ashureev/hrdesk/internal/query"
)

const sampleRows = 3

// internalTables are service bookkeeping tables hidden from the schema prompt.
var internalTables = map[string]bool{
	"chat_logs":             true,
	"session_contexts":      true,
	"hr_policy_searches":    true,
	"db_schema_info":        true,
	"db_relationships_info": true,
}

func isInternalTable(name string) bool {
	return internalTables[name] ||
		strings.HasPrefix(name, "sqlite_") ||
		strings.HasPrefix(name, "hr_policy_content") // FTS5 table and its shadow tables
}

// SchemaTables lists the schema metadata rows ordered by table name.
func (s *SQLiteStore) SchemaTables(ctx context.Context) ([]domain.TableInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT table_name, table_columns, sample_data FROM db_schema_info ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("query schema info: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close schema info rows", "error", closeErr)
		}
	}()

	var tables []domain.TableInfo
	for rows.Next() {
		var t domain.TableInfo
		var sample sql.NullString
		if err := rows.Scan(&t.Name, &t.Columns, &sample); err != nil {
			return nil, fmt.Errorf("scan schema info: %w", err)
		}
		t.SampleData = sample.String
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema info: %w", err)
	}
	return tables, nil
}

// Relationships lists the recorded table relationships in insertion order.
func (s *SQLiteStore) Relationships(ctx context.Context) ([]domain.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_table, from_column, to_table, to_column, relationship_type
		FROM db_relationships_info ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close relationship rows", "error", closeErr)
		}
	}()

	var rels []domain.Relationship
	for rows.Next() {
		var r domain.Relationship
		var relType sql.NullString
		if err := rows.Scan(&r.FromTable, &r.FromColumn, &r.ToTable, &r.ToColumn, &relType); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		r.Type = relType.String
		rels = append(rels, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}
	return rels, nil
}

// RefreshSchema rebuilds db_schema_info and db_relationships_info from the
// SQLite catalog: column lists, a few sample rows and declared foreign keys.
func (s *SQLiteStore) RefreshSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema refresh: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	names, err := userTables(ctx, tx)
	if err != nil {
		return err
	}

	var tables []domain.TableInfo
	var rels []domain.Relationship
	for _, name := range names {
		info, err := describeTable(ctx, tx, name)
		if err != nil {
			return err
		}
		tables = append(tables, info)

		fks, err := foreignKeys(ctx, tx, name)
		if err != nil {
			return err
		}
		rels = append(rels, fks...)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM db_schema_info`); err != nil {
		return fmt.Errorf("clear schema info: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM db_relationships_info`); err != nil {
		return fmt.Errorf("clear relationships: %w", err)
	}

	now := time.Now().Unix()
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO db_schema_info (table_name, table_columns, sample_data, updated_at) VALUES (?, ?, ?, ?)`,
			t.Name, t.Columns, nullIfEmpty(t.SampleData), now,
		); err != nil {
			return fmt.Errorf("insert schema info for %s: %w", t.Name, err)
		}
	}
	for _, r := range rels {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO db_relationships_info (from_table, from_column, to_table, to_column, relationship_type)
			VALUES (?, ?, ?, ?, ?)`,
			r.FromTable, r.FromColumn, r.ToTable, r.ToColumn, r.Type,
		); err != nil {
			return fmt.Errorf("insert relationship for %s: %w", r.FromTable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema refresh: %w", err)
	}

	slog.Info("Schema metadata refreshed", "tables", len(tables), "relationships", len(rels))
	return nil
}

func userTables(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		if !isInternalTable(name) {
			names = append(names, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return names, nil
}

func describeTable(ctx context.Context, tx *sql.Tx, name string) (domain.TableInfo, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name, type, pk FROM pragma_table_info(?) ORDER BY cid`, name)
	if err != nil {
		return domain.TableInfo{}, fmt.Errorf("describe %s: %w", name, err)
	}

	var cols []string
	for rows.Next() {
		var col, typ string
		var pk int
		if err := rows.Scan(&col, &typ, &pk); err != nil {
			_ = rows.Close()
			return domain.TableInfo{}, fmt.Errorf("scan column of %s: %w", name, err)
		}
		entry := col
		if typ != "" {
			entry += " " + typ
		}
		if pk > 0 {
			entry += " PK"
		}
		cols = append(cols, entry)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return domain.TableInfo{}, fmt.Errorf("iterate columns of %s: %w", name, err)
	}

	sample, err := sampleData(ctx, tx, name)
	if err != nil {
		return domain.TableInfo{}, err
	}

	return domain.TableInfo{
		Name:       name,
		Columns:    strings.Join(cols, ", "),
		SampleData: sample,
	}, nil
}

func sampleData(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, quoteIdent(name), sampleRows))
	if err != nil {
		return "", fmt.Errorf("sample %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	records, err := query.ScanRows(rows)
	if err != nil {
		return "", fmt.Errorf("sample %s: %w", name, err)
	}
	if len(records) == 0 {
		return "", nil
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode sample of %s: %w", name, err)
	}
	return string(raw), nil
}

func foreignKeys(ctx context.Context, tx *sql.Tx, name string) ([]domain.Relationship, error) {
	rows, err := tx.QueryContext(ctx, `SELECT "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, name)
	if err != nil {
		return nil, fmt.Errorf("foreign keys of %s: %w", name, err)
	}

	var rels []domain.Relationship
	for rows.Next() {
		var target, from string
		var to sql.NullString
		if err := rows.Scan(&target, &from, &to); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan foreign key of %s: %w", name, err)
		}
		rels = append(rels, domain.Relationship{
			FromTable:  name,
			FromColumn: from,
			ToTable:    target,
			ToColumn:   to.String,
			Type:       "many-to-one",
		})
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate foreign keys of %s: %w", name, err)
	}

	// A reference without a column list points at the parent's primary key.
	for i := range rels {
		if rels[i].ToColumn != "" {
			continue
		}
		var pk string
		err := tx.QueryRowContext(ctx, `SELECT name FROM pragma_table_info(?) WHERE pk = 1`, rels[i].ToTable).Scan(&pk)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("primary key of %s: %w", rels[i].ToTable, err)
		}
		rels[i].ToColumn = pk
	}
	return rels, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
