// Package extract recovers an executable statement from a free-form completion reply.
//
// Replies are expected to carry {"sql":"SELECT ..."} but the completion service
// is free text, so ReplyParser tries three progressively looser strategies.
// Callers depend on Extractor only, so a provider with structured output can
// replace the heuristics without touching the pipeline.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Tier identifies which strategy produced a statement.
type Tier string

const (
	TierNone       Tier = "none"
	TierDirect     Tier = "direct"
	TierPattern    Tier = "pattern"
	TierAggressive Tier = "aggressive"
)

// Result is the transient output of an extraction.
type Result struct {
	Statement string
	Tier      Tier
}

// Found reports whether a statement was recovered.
func (r Result) Found() bool {
	return r.Statement != ""
}

// Extractor turns a raw reply into an optional statement.
type Extractor interface {
	Extract(reply string) Result
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	// {"sql": "..."} tolerating escaped quotes inside the value.
	sqlObjectPattern = regexp.MustCompile(`\{\s*"sql"\s*:\s*"([^"]*(?:\\"[^"]*)*)"\s*\}`)
	// "sql":"SELECT ... up to the next quote, JSON validity not required.
	sqlFragmentPattern = regexp.MustCompile(`(?i)(?:"sql"\s*:\s*")(SELECT[\s\S]*?)(?:")`)
)

type sqlPayload struct {
	SQL any `json:"sql"`
}

// ReplyParser is the three-tier heuristic Extractor.
type ReplyParser struct{}

var _ Extractor = ReplyParser{}

// Extract runs the direct, pattern and aggressive strategies in order.
func (ReplyParser) Extract(reply string) Result {
	reply = strings.TrimSpace(reply)

	if stmt, ok := parseDirect(reply); ok {
		return Result{Statement: stmt, Tier: TierDirect}
	}
	if stmt, ok := parsePattern(reply); ok {
		return Result{Statement: stmt, Tier: TierPattern}
	}
	if stmt, ok := parseAggressive(reply); ok {
		return Result{Statement: stmt, Tier: TierAggressive}
	}
	return Result{Tier: TierNone}
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

func parseDirect(reply string) (string, bool) {
	cleaned := collapse(reply)
	if !strings.HasPrefix(cleaned, "{") || !strings.HasSuffix(cleaned, "}") {
		return "", false
	}
	return decodeSQL(cleaned)
}

func parsePattern(reply string) (string, bool) {
	match := sqlObjectPattern.FindString(reply)
	if match == "" {
		return "", false
	}
	return decodeSQL(collapse(match))
}

func parseAggressive(reply string) (string, bool) {
	m := sqlFragmentPattern.FindStringSubmatch(reply)
	if len(m) < 2 {
		return "", false
	}
	stmt := strings.ReplaceAll(m[1], `\n`, " ")
	stmt = collapse(stmt)
	return stmt, stmt != ""
}

// decodeSQL accepts only a JSON object whose sql member is a non-empty string.
func decodeSQL(raw string) (string, bool) {
	var payload sqlPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", false
	}
	stmt, ok := payload.SQL.(string)
	if !ok {
		return "", false
	}
	stmt = collapse(stmt)
	return stmt, stmt != ""
}
