package chat

import (
	"strings"
	"testing"

	"github.com/ashureev/hrdesk/internal/query"
	"github.com/stretchr/testify/assert"
)

func TestFormatFallbackSingleRecord(t *testing.T) {
	rows := []query.Row{{
		Columns: []string{"staff_first_name", "dept_name", "staff_phone", "emp_code"},
		Values:  []any{"Priya", "Computer Science", nil, ""},
	}}

	got := FormatFallback(rows, 1, "Who is Priya?")

	want := "📊 Results for \"Who is Priya?\":\n\n" +
		"Found 1 record:\n\n" +
		"1. Staff First Name: Priya | Dept Name: Computer Science\n"
	assert.Equal(t, want, got)
}

func TestFormatFallbackTruncatesAtTen(t *testing.T) {
	rows := make([]query.Row, 25)
	for i := range rows {
		rows[i] = query.Row{Columns: []string{"total_count"}, Values: []any{int64(i)}}
	}

	got := FormatFallback(rows, 25, "counts")

	assert.Contains(t, got, "Found 25 records:")
	assert.Contains(t, got, "10. Total Count: 9\n")
	assert.NotContains(t, got, "11. ")
	assert.True(t, strings.HasSuffix(got, "(Showing first 10 of 25 total records)"))
}

func TestReadableKey(t *testing.T) {
	tests := map[string]string{
		"staff_first_name": "Staff First Name",
		"id":               "Id",
		"dept2_name":       "Dept2 Name",
		"COUNT(*)":         "COUNT(*)",
		"avg salary":       "Avg Salary",
	}
	for in, want := range tests {
		assert.Equal(t, want, readableKey(in), in)
	}
}
