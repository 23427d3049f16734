package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestIsSafeQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stmt string
		want bool
	}{
		{"SELECT * FROM dice_staff", true},
		{"  select count(*) from dice_staff", true},
		{"/* lookup */ SELECT 1", true},
		{"-- comment\nSELECT 1", true},
		{"SELECT * FROM t; DROP TABLE t", false},
		{"DELETE FROM dice_staff", false},
		{"UPDATE dice_staff SET a=1", false},
		{"WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"SELECT * INTO OUTFILE '/tmp/x' FROM t", false},
		{"SELECT LOAD_FILE('/etc/passwd')", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsSafeQuery(tt.stmt))
		})
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE dice_staff (staff_id INTEGER PRIMARY KEY, staff_first_name TEXT, notes BLOB);
		INSERT INTO dice_staff (staff_first_name, notes) VALUES ('Aamir', X'6869'), ('Priya', NULL);
	`)
	require.NoError(t, err)
	return db
}

func TestExecutorReturnsRowsInColumnOrder(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(openTestDB(t), 0)
	out := exec.Execute(context.Background(), "SELECT staff_first_name, staff_id, notes FROM dice_staff ORDER BY staff_id")

	require.True(t, out.OK)
	require.NoError(t, out.Err)
	assert.Equal(t, 2, out.RowCount)
	assert.Equal(t, []string{"staff_first_name", "staff_id", "notes"}, out.Rows[0].Columns)
	assert.Equal(t, "hi", out.Rows[0].Values[2])

	raw, err := json.Marshal(out.Rows)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"staff_first_name":"Aamir","staff_id":1,"notes":"hi"},{"staff_first_name":"Priya","staff_id":2,"notes":null}]`, string(raw))
	assert.Regexp(t, `^\[\{"staff_first_name"`, string(raw))
}

func TestExecutorZeroRows(t *testing.T) {
	t.Parallel()

	out := NewExecutor(openTestDB(t), 0).Execute(context.Background(), "SELECT * FROM dice_staff WHERE staff_id = 99")
	assert.True(t, out.OK)
	assert.Equal(t, 0, out.RowCount)
	assert.Empty(t, out.Rows)
}

func TestExecutorRejectsUnsafeStatement(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	out := NewExecutor(db, 0).Execute(context.Background(), "DELETE FROM dice_staff")
	assert.False(t, out.OK)
	assert.ErrorIs(t, out.Err, ErrUnsafeQuery)
	assert.Equal(t, "Unsafe query detected", out.Err.Error())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM dice_staff").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestExecutorReportsDatabaseError(t *testing.T) {
	t.Parallel()

	out := NewExecutor(openTestDB(t), 0).Execute(context.Background(), "SELECT * FROM missing_table")
	assert.False(t, out.OK)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "missing_table")
}
