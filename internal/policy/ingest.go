package policy

import (
	"bufio"
	"strings"

	"github.com/ashureev/hrdesk/internal/domain"
)

// ChunkSize is the target length of one indexed handbook section.
const ChunkSize = 1500

// Chunk splits handbook text into indexable sections. Pages are separated by
// form feeds and numbered from 1. A line starting with '#' opens a new section
// titled by the heading; the title carries across page breaks. Sections longer
// than size are split at paragraph, then word, boundaries.
func Chunk(text string, size int) []domain.PolicySection {
	if size <= 0 {
		size = ChunkSize
	}

	var (
		out   []domain.PolicySection
		title string
		body  strings.Builder
	)
	flush := func(page int) {
		for _, part := range splitBody(body.String(), size) {
			out = append(out, domain.PolicySection{
				PageNumber:   page,
				SectionTitle: title,
				Content:      part,
			})
		}
		body.Reset()
	}

	for i, page := range strings.Split(text, "\f") {
		pageNo := i + 1
		sc := bufio.NewScanner(strings.NewReader(page))
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			line := strings.TrimRight(sc.Text(), " \t\r")
			if strings.HasPrefix(strings.TrimSpace(line), "#") {
				flush(pageNo)
				title = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
				continue
			}
			body.WriteString(line)
			body.WriteByte('\n')
		}
		flush(pageNo)
	}
	return out
}

// splitBody packs paragraphs into pieces of at most size bytes.
func splitBody(body string, size int) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	if len(body) <= size {
		return []string{body}
	}

	var (
		parts []string
		cur   strings.Builder
	)
	emit := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
	}
	add := func(piece, sep string) {
		if cur.Len() > 0 && cur.Len()+len(sep)+len(piece) > size {
			emit()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(piece)
	}

	for _, para := range strings.Split(body, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= size {
			add(para, "\n\n")
			continue
		}
		emit()
		for _, word := range strings.Fields(para) {
			add(word, " ")
		}
		emit()
	}
	emit()
	return parts
}
