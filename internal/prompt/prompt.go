// Package prompt renders the text sent to the completion service.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashureev/hrdesk/internal/domain"
	"github.com/ashureev/hrdesk/internal/query"
	"github.com/ashureev/hrdesk/internal/role"
)

// ContextQueries is how many recent queries are quoted back to the model.
const ContextQueries = 3

const (
	schemaMissing        = "Schema not initialized. Run: hrctl schema refresh"
	criticalJSONReminder = "⚠️ CRITICAL: For database queries, return ONLY the JSON!"
)

// EnhancedSchema describes tables, sample rows, relationships and the
// catalog's column meanings and notes.
func EnhancedSchema(tables []domain.TableInfo, rels []domain.Relationship, hints role.SchemaHints) string {
	if len(tables) == 0 {
		return schemaMissing
	}

	var b strings.Builder
	b.WriteString("=== DATABASE SCHEMA WITH CONTEXT ===\n\n")
	for _, t := range tables {
		fmt.Fprintf(&b, "TABLE: %s\nCOLUMNS: %s\n", t.Name, t.Columns)
		if t.SampleData != "" {
			fmt.Fprintf(&b, "SAMPLE: %s\n", t.SampleData)
		}
		b.WriteString("\n")
	}

	if len(rels) > 0 {
		b.WriteString("=== TABLE RELATIONSHIPS ===\n")
		for _, r := range rels {
			fmt.Fprintf(&b, "%s.%s → %s.%s", r.FromTable, r.FromColumn, r.ToTable, r.ToColumn)
			if r.Type != "" {
				fmt.Fprintf(&b, " (%s)", r.Type)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(hints.ColumnMeanings) > 0 {
		b.WriteString("=== COLUMN MEANINGS ===\n")
		b.WriteString(strings.Join(hints.ColumnMeanings, "\n"))
		b.WriteString("\n\n")
	}

	if len(hints.Notes) > 0 {
		b.WriteString("=== NOTES ===\n")
		for _, n := range hints.Notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	return b.String()
}

// CompactSchema lists tables and relationships only. It backs the admin view.
func CompactSchema(tables []domain.TableInfo, rels []domain.Relationship) string {
	if len(tables) == 0 {
		return "Schema not initialized."
	}

	var b strings.Builder
	b.WriteString("=== DATABASE TABLES ===\n\n")
	for _, t := range tables {
		fmt.Fprintf(&b, "TABLE: %s\nCOLUMNS: %s\n\n", t.Name, t.Columns)
	}
	if len(rels) > 0 {
		b.WriteString("=== RELATIONSHIPS ===\n")
		for _, r := range rels {
			fmt.Fprintf(&b, "%s.%s → %s.%s\n", r.FromTable, r.FromColumn, r.ToTable, r.ToColumn)
		}
	}
	return b.String()
}

// System builds the system instruction for the data assistant.
func System(schema string, c *role.Catalog, p role.Profile, caller string) string {
	var b strings.Builder
	b.WriteString(schema)
	b.WriteString("\n\n=== YOUR ROLE ===\n")
	b.WriteString(p.Role)
	b.WriteString("\n\n")

	if access := p.AccessLines(caller); len(access) > 0 {
		b.WriteString("=== ACCESS PERMISSIONS ===\n")
		b.WriteString(strings.Join(access, "\n"))
		b.WriteString("\n\n")
	}

	b.WriteString("=== RESPONSE RULES ===\n\nIf user needs DATABASE DATA:\n")
	writeArrows(&b, p.DataRules)
	if len(p.GeneralRules) > 0 {
		b.WriteString("\nIf user asks GENERAL QUESTION or FOLLOWUP:\n")
		writeArrows(&b, p.GeneralRules)
	}

	b.WriteString("\n=== IMPORTANT CONTEXT HANDLING ===\n\n")
	writeNumbered(&b, c.ContextHandling)

	b.WriteString("\n=== QUERY BEST PRACTICES ===\n\n")
	writeNumbered(&b, p.BestPractices)

	if len(p.Examples) > 0 {
		b.WriteString("\n=== EXAMPLES ===\n\n")
		for _, ex := range p.Examples {
			fmt.Fprintf(&b, "User: \"%s\"", ex.User)
			if ex.Note != "" {
				fmt.Fprintf(&b, "  [%s]", ex.Note)
			}
			fmt.Fprintf(&b, "\nResponse: %s\n\n", ex.Response)
		}
	} else {
		b.WriteString("\n")
	}

	b.WriteString(criticalJSONReminder)
	return b.String()
}

func writeArrows(b *strings.Builder, lines []string) {
	for _, l := range lines {
		fmt.Fprintf(b, "→ %s\n", l)
	}
}

func writeNumbered(b *strings.Builder, lines []string) {
	for i, l := range lines {
		fmt.Fprintf(b, "%d. %s\n", i+1, l)
	}
}

// ContextLines summarises the most recent queries, oldest first.
func ContextLines(queries []domain.QueryRecord) string {
	if len(queries) > ContextQueries {
		queries = queries[len(queries)-ContextQueries:]
	}
	lines := make([]string, len(queries))
	for i, q := range queries {
		lines[i] = fmt.Sprintf("Previous query: \"%s\" → Result: %d rows", q.Question, q.RowCount)
	}
	return strings.Join(lines, "\n")
}

// EnhanceMessage prefixes the current question with recent query context.
func EnhanceMessage(message, contextLines string) string {
	message = strings.TrimSpace(message)
	if contextLines == "" {
		return message
	}
	return fmt.Sprintf("Context from conversation:\n%s\n\nCurrent question: %s", contextLines, message)
}

// Format builds the second-call prompt that turns rows into prose.
func Format(question, stmt string, rows []query.Row, total int, contextLines string, hints role.FormatHints) (string, error) {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}
	if contextLines == "" {
		contextLines = "None"
	}

	var b strings.Builder
	b.WriteString("Format these database results naturally and professionally:\n\n")
	fmt.Fprintf(&b, "Original Question: \"%s\"\n\n", question)
	fmt.Fprintf(&b, "Query Executed: %s\n\n", stmt)
	fmt.Fprintf(&b, "Results (showing %d of %d total):\n%s\n\n", len(rows), total, data)
	fmt.Fprintf(&b, "Previous Context:\n%s\n\n", contextLines)
	b.WriteString("Instructions:\n")
	writeBullets(&b, hints.Instructions)
	return strings.TrimRight(b.String(), "\n"), nil
}

// Policy builds the grounding prompt for a handbook answer.
func Policy(question string, sections []domain.PolicySection, h role.Handbook) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Answer this question based on the %s:\n\n", h.Name)
	fmt.Fprintf(&b, "Question: \"%s\"\n\n", question)
	fmt.Fprintf(&b, "=== %s ===\n\n", h.Title)
	for i, sec := range sections {
		fmt.Fprintf(&b, "Section %d", i+1)
		if sec.PageNumber > 0 {
			fmt.Fprintf(&b, " (Page %d)", sec.PageNumber)
		}
		fmt.Fprintf(&b, ":\n%s\n\n", sec.Content)
	}
	b.WriteString("\nInstructions:\n")
	writeBullets(&b, h.Instructions)
	return strings.TrimRight(b.String(), "\n")
}

func writeBullets(b *strings.Builder, lines []string) {
	for _, l := range lines {
		fmt.Fprintf(b, "- %s\n", l)
	}
}
