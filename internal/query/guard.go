// Package query executes generated read-only statements against the HR database.
package query

import (
	"regexp"
	"strings"
)

var (
	blockComment = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	lineComment  = regexp.MustCompile(`--.*`)
)

// blockedKeywords is a denylist, not a parser-level guarantee.
var blockedKeywords = []string{
	"DELETE ", "DROP ", "INSERT ", "UPDATE ", "ALTER ",
	"CREATE ", "TRUNCATE ", "RENAME ", "REPLACE ",
	"EXEC ", "EXECUTE ", "HANDLER ", "LOAD DATA",
	"INTO OUTFILE", "INTO DUMPFILE", "LOAD_FILE",
}

// IsSafeQuery strips comments, upper-cases the statement and requires a
// leading SELECT with none of the blocked keywords anywhere.
func IsSafeQuery(stmt string) bool {
	clean := blockComment.ReplaceAllString(stmt, "")
	clean = lineComment.ReplaceAllString(clean, "")
	clean = strings.ToUpper(strings.TrimSpace(clean))

	if !strings.HasPrefix(clean, "SELECT") {
		return false
	}
	for _, keyword := range blockedKeywords {
		if strings.Contains(clean, keyword) {
			return false
		}
	}
	return true
}
