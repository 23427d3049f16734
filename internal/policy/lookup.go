// Package policy answers handbook questions from the full-text policy index.
package policy

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/ashureev/hrdesk/internal/domain"
)

// MaxSections caps the sections returned by a single lookup.
const MaxSections = 5

const recordTimeout = 5 * time.Second

// Index is the persistence surface the lookup needs.
type Index interface {
	SearchPolicy(ctx context.Context, match string, limit int) ([]domain.PolicySection, error)
	RecordPolicySearch(ctx context.Context, query string, matched int) error
}

// Service ranks handbook sections for a natural-language question.
type Service struct {
	index  Index
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewService creates a lookup service over index.
func NewService(index Index, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{index: index, logger: logger}
}

// Lookup returns up to MaxSections handbook sections ordered by descending
// relevance. Search failures are logged and reported as no match so the
// caller falls through to the data path.
func (s *Service) Lookup(ctx context.Context, question string) []domain.PolicySection {
	match := MatchExpression(question)
	if match == "" {
		return nil
	}

	sections, err := s.index.SearchPolicy(ctx, match, MaxSections)
	if err != nil {
		s.logger.Error("HR policy search failed", "error", err)
		return nil
	}
	s.logger.Info("HR handbook searched", "matches", len(sections))

	if len(sections) > 0 {
		s.recordAsync(ctx, question, len(sections))
	}
	return sections
}

// recordAsync logs the search without holding up the request.
func (s *Service) recordAsync(ctx context.Context, question string, matched int) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		defer cancel()
		if err := s.index.RecordPolicySearch(rctx, question, matched); err != nil {
			s.logger.Warn("failed to record policy search", "error", err)
		}
	}()
}

// Wait blocks until pending search records are written.
func (s *Service) Wait() {
	s.wg.Wait()
}

var stopwords = map[string]bool{
	"a": true, "about": true, "an": true, "and": true, "any": true, "are": true,
	"as": true, "at": true, "be": true, "by": true, "can": true, "could": true,
	"do": true, "does": true, "for": true, "from": true, "get": true, "has": true,
	"have": true, "how": true, "i": true, "if": true, "in": true, "is": true,
	"it": true, "me": true, "my": true, "of": true, "on": true, "or": true,
	"our": true, "please": true, "should": true, "tell": true, "that": true,
	"the": true, "there": true, "this": true, "to": true, "was": true, "we": true,
	"what": true, "whats": true, "when": true, "where": true, "which": true,
	"who": true, "why": true, "will": true, "with": true, "would": true, "you": true,
	"your": true,
}

// MatchExpression converts a question into an FTS5 query that ORs its
// significant terms. It returns "" when nothing searchable remains.
func MatchExpression(question string) string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " OR ")
}
