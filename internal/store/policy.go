package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/hrdesk/internal/domain"
)

// SearchPolicy ranks handbook sections against an FTS5 match expression.
// Relevance is the negated bm25 score so that larger is better.
func (s *SQLiteStore) SearchPolicy(ctx context.Context, match string, limit int) ([]domain.PolicySection, error) {
	query := `
		SELECT rowid, page_number, section_title, content,
		       -bm25(hr_policy_content) AS relevance
		FROM hr_policy_content
		WHERE hr_policy_content MATCH ?
		ORDER BY relevance DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, match, limit)
	if err != nil {
		return nil, fmt.Errorf("search policy: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close policy search rows", "error", closeErr)
		}
	}()

	var sections []domain.PolicySection
	for rows.Next() {
		var sec domain.PolicySection
		if err := rows.Scan(&sec.ID, &sec.PageNumber, &sec.SectionTitle, &sec.Content, &sec.Relevance); err != nil {
			return nil, fmt.Errorf("scan policy section: %w", err)
		}
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy sections: %w", err)
	}
	return sections, nil
}

// RecordPolicySearch logs a handbook search for analytics.
func (s *SQLiteStore) RecordPolicySearch(ctx context.Context, query string, matched int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO hr_policy_searches (query, matched_results, created_at) VALUES (?, ?, ?)`,
		query, matched, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record policy search: %w", err)
	}
	return nil
}

// PolicyStats returns the most frequent handbook searches.
func (s *SQLiteStore) PolicyStats(ctx context.Context, limit int) ([]domain.PolicySearchStat, error) {
	query := `
		SELECT query,
		       COUNT(*) AS search_count,
		       AVG(matched_results) AS avg_results,
		       MAX(created_at) AS last_searched
		FROM hr_policy_searches
		GROUP BY query
		ORDER BY search_count DESC, last_searched DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query policy stats: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close policy stats rows", "error", closeErr)
		}
	}()

	stats := []domain.PolicySearchStat{}
	for rows.Next() {
		var stat domain.PolicySearchStat
		var lastSearched int64
		if err := rows.Scan(&stat.Query, &stat.SearchCount, &stat.AvgResults, &lastSearched); err != nil {
			return nil, fmt.Errorf("scan policy stat: %w", err)
		}
		stat.LastSearched = time.Unix(lastSearched, 0)
		stats = append(stats, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy stats: %w", err)
	}
	return stats, nil
}

// PolicyStatus reports the size of the handbook index.
func (s *SQLiteStore) PolicyStatus(ctx context.Context) (domain.PolicyStatus, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(content_length), 0),
		       COALESCE(MAX(page_number), 0)
		FROM hr_policy_content`

	var status domain.PolicyStatus
	if err := s.db.QueryRowContext(ctx, query).Scan(&status.Chunks, &status.Characters, &status.Pages); err != nil {
		return domain.PolicyStatus{}, fmt.Errorf("query policy status: %w", err)
	}
	status.Loaded = status.Chunks > 0
	return status, nil
}

// ReplacePolicySections clears the handbook index and loads sections in one transaction.
func (s *SQLiteStore) ReplacePolicySections(ctx context.Context, sections []domain.PolicySection) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin handbook load: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM hr_policy_content`); err != nil {
		return 0, fmt.Errorf("clear handbook index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO hr_policy_content (section_title, content, page_number, content_length) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare handbook insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, sec := range sections {
		if _, err := stmt.ExecContext(ctx, sec.SectionTitle, sec.Content, sec.PageNumber, len(sec.Content)); err != nil {
			return 0, fmt.Errorf("insert handbook section: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit handbook load: %w", err)
	}
	return len(sections), nil
}
