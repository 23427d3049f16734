package chat

import (
	"fmt"
	"strings"

	"github.com/ashureev/hrdesk/internal/query"
)

const fallbackRows = 10

// FormatFallback renders rows without the completion service. At most ten
// rows are listed, keys are made readable and empty values are skipped.
func FormatFallback(rows []query.Row, total int, question string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Results for \"%s\":\n\n", question)

	noun := "records"
	if total == 1 {
		noun = "record"
	}
	fmt.Fprintf(&b, "Found %d %s:\n\n", total, noun)

	if len(rows) > fallbackRows {
		rows = rows[:fallbackRows]
	}
	for i, row := range rows {
		parts := make([]string, 0, len(row.Columns))
		for j, col := range row.Columns {
			v := row.Values[j]
			if v == nil {
				continue
			}
			text := fmt.Sprint(v)
			if text == "" {
				continue
			}
			parts = append(parts, readableKey(col)+": "+text)
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.Join(parts, " | "))
	}

	if total > fallbackRows {
		fmt.Fprintf(&b, "\n(Showing first %d of %d total records)", fallbackRows, total)
	}
	return b.String()
}

// readableKey turns staff_first_name into Staff First Name.
func readableKey(key string) string {
	out := []byte(strings.ReplaceAll(key, "_", " "))
	for i, c := range out {
		if c >= 'a' && c <= 'z' && (i == 0 || !isWordByte(out[i-1])) {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
