package prompt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ashureev/hrdesk/internal/domain"
	"github.com/ashureev/hrdesk/internal/query"
	"github.com/ashureev/hrdesk/internal/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTables = []domain.TableInfo{
		{Name: "dice_staff", Columns: "staff_id INTEGER PK, staff_first_name TEXT", SampleData: `[{"staff_id":1,"staff_first_name":"Aamir"}]`},
		{Name: "dice_staff_department", Columns: "staff_department_id INTEGER PK"},
	}
	testRels = []domain.Relationship{
		{FromTable: "dice_staff", FromColumn: "staff_department", ToTable: "dice_staff_department", ToColumn: "staff_department_id", Type: "many-to-one"},
	}
)

func loadCatalog(t *testing.T) *role.Catalog {
	t.Helper()
	c, err := role.Load()
	require.NoError(t, err)
	return c
}

func TestEnhancedSchemaLayout(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)
	got := EnhancedSchema(testTables, testRels, c.Schema)

	assert.Contains(t, got, "=== DATABASE SCHEMA WITH CONTEXT ===\n\nTABLE: dice_staff\nCOLUMNS: staff_id INTEGER PK, staff_first_name TEXT\nSAMPLE: ")
	assert.Contains(t, got, "TABLE: dice_staff_department\nCOLUMNS: staff_department_id INTEGER PK\n\n")
	assert.Contains(t, got, "=== TABLE RELATIONSHIPS ===\ndice_staff.staff_department → dice_staff_department.staff_department_id (many-to-one)\n")
	assert.Contains(t, got, "=== COLUMN MEANINGS ===\nstaff_status:")
	assert.Contains(t, got, "=== NOTES ===\n- Use JOINs")
	assert.Less(t, strings.Index(got, "TABLE RELATIONSHIPS"), strings.Index(got, "COLUMN MEANINGS"))
	assert.Less(t, strings.Index(got, "COLUMN MEANINGS"), strings.Index(got, "NOTES"))

	assert.Equal(t, schemaMissing, EnhancedSchema(nil, nil, c.Schema))
}

func TestCompactSchema(t *testing.T) {
	t.Parallel()

	got := CompactSchema(testTables, testRels)
	assert.Contains(t, got, "=== DATABASE TABLES ===")
	assert.Contains(t, got, "dice_staff.staff_department → dice_staff_department.staff_department_id\n")
	assert.NotContains(t, got, "SAMPLE")
	assert.Equal(t, "Schema not initialized.", CompactSchema(nil, nil))
}

func TestSystemPromptPerProfile(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)

	hr, err := c.Profile(role.HR)
	require.NoError(t, err)
	got := System("SCHEMA", c, hr, "HR042")
	assert.Contains(t, got, "SCHEMA\n\n=== YOUR ROLE ===\n")
	assert.Contains(t, got, "=== ACCESS PERMISSIONS ===\n✅ HR ID: HR042")
	assert.Contains(t, got, "→ NO ACCESS RESTRICTIONS - HR can see everything")
	assert.NotContains(t, got, "GENERAL QUESTION")
	assert.Contains(t, got, `User: "All pending leave requests"`)
	assert.True(t, len(got) > len(criticalJSONReminder))
	assert.Equal(t, criticalJSONReminder, got[len(got)-len(criticalJSONReminder):])

	std, err := c.Profile(role.Standard)
	require.NoError(t, err)
	got = System("SCHEMA", c, std, "")
	assert.NotContains(t, got, "ACCESS PERMISSIONS")
	assert.Contains(t, got, "If user asks GENERAL QUESTION or FOLLOWUP:\n→ Return helpful text answer")
	assert.Contains(t, got, `User: "List them"  [referring to previous query]`)
	assert.Contains(t, got, "1. If user says \"show more\"")
}

func TestContextLinesKeepsLastThree(t *testing.T) {
	t.Parallel()

	var qs []domain.QueryRecord
	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		qs = append(qs, domain.QueryRecord{Question: q, RowCount: len(q)})
	}

	got := ContextLines(qs)
	assert.Equal(t,
		"Previous query: \"q2\" → Result: 2 rows\nPrevious query: \"q3\" → Result: 2 rows\nPrevious query: \"q4\" → Result: 2 rows",
		got)
	assert.Empty(t, ContextLines(nil))
}

func TestEnhanceMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "list them", EnhanceMessage("  list them ", ""))
	assert.Equal(t,
		"Context from conversation:\nPrevious query: \"how many staff\" → Result: 1 rows\n\nCurrent question: list them",
		EnhanceMessage("list them", "Previous query: \"how many staff\" → Result: 1 rows"))
}

func TestFormatPrompt(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)
	rows := []query.Row{{Columns: []string{"name", "id"}, Values: []any{"Aamir", int64(1)}}}

	got, err := Format("who works here", "SELECT name, id FROM dice_staff", rows, 20, "", c.Format)
	require.NoError(t, err)
	assert.Contains(t, got, `Original Question: "who works here"`)
	assert.Contains(t, got, "Results (showing 1 of 20 total):\n[\n  {\n    \"name\": \"Aamir\",\n    \"id\": 1\n  }\n]")
	assert.Contains(t, got, "Previous Context:\nNone")
	assert.Contains(t, got, "- DO NOT include the SQL query in response")
}

func TestPolicyPrompt(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)
	got := Policy("what is the leave policy", []domain.PolicySection{
		{PageNumber: 12, Content: "Annual leave is 20 days."},
		{Content: "Untagged section."},
	}, c.Handbook)

	assert.Contains(t, got, "=== ATLAS SKILLTECH UNIVERSITY HR HANDBOOK ===\n\nSection 1 (Page 12):\nAnnual leave is 20 days.\n\nSection 2:\nUntagged section.")
	assert.Contains(t, got, `Question: "what is the leave policy"`)
	assert.Contains(t, got, "- Answer based ONLY on the HR handbook content provided above")
}

type countingSource struct {
	calls  atomic.Int32
	tables []domain.TableInfo
	err    error
	gate   chan struct{}
}

func (s *countingSource) SchemaTables(context.Context) ([]domain.TableInfo, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	return s.tables, s.err
}

func (s *countingSource) Relationships(context.Context) ([]domain.Relationship, error) {
	return testRels, nil
}

func TestSchemaCacheHonoursTTL(t *testing.T) {
	t.Parallel()

	src := &countingSource{tables: testTables}
	cache := NewSchemaCache(src, role.SchemaHints{}, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	cache.now = func() time.Time { return now }

	first, err := cache.Enhanced(context.Background())
	require.NoError(t, err)
	second, err := cache.Enhanced(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, src.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = cache.Enhanced(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())

	cache.Invalidate()
	_, err = cache.Enhanced(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, src.calls.Load())
}

func TestSchemaCacheSharesConcurrentLoads(t *testing.T) {
	t.Parallel()

	src := &countingSource{tables: testTables, gate: make(chan struct{})}
	cache := NewSchemaCache(src, role.SchemaHints{}, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Enhanced(context.Background())
			assert.NoError(t, err)
		}()
	}
	// Let the first loader block long enough for the others to join it.
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.LessOrEqual(t, src.calls.Load(), int32(2))
}

func TestSchemaCachePropagatesErrors(t *testing.T) {
	t.Parallel()

	src := &countingSource{err: errors.New("no such table: db_schema_info")}
	cache := NewSchemaCache(src, role.SchemaHints{}, time.Minute)

	_, err := cache.Enhanced(context.Background())
	assert.ErrorContains(t, err, "db_schema_info")
}

func TestPromptsKeepQuestionTextRaw(t *testing.T) {
	t.Parallel()

	c := loadCatalog(t)
	question := "who said \"hi\"\nyesterday"

	lines := ContextLines([]domain.QueryRecord{{Question: question, RowCount: 1}})
	assert.Equal(t, "Previous query: \"who said \"hi\"\nyesterday\" → Result: 1 rows", lines)

	got, err := Format(question, "SELECT 1", nil, 0, "", c.Format)
	require.NoError(t, err)
	assert.Contains(t, got, "Original Question: \"who said \"hi\"\nyesterday\"")
	assert.NotContains(t, got, `\"hi\"`)

	policy := Policy(question, []domain.PolicySection{{Content: "x"}}, c.Handbook)
	assert.Contains(t, policy, "Question: \"who said \"hi\"\nyesterday\"")
	assert.NotContains(t, policy, `\"hi\"`)
}
