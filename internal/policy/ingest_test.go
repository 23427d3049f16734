package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkPagesAndHeadings(t *testing.T) {
	text := "ATLAS SKILLTECH UNIVERSITY\nHR Handbook\n" +
		"\f# Leave Policy\nCasual leave: 12 days per year.\n\nSick leave: 10 days.\n" +
		"\fLeave must be applied in advance.\n## Dress Code\nFormal attire on weekdays.\n"

	sections := Chunk(text, ChunkSize)

	require.Len(t, sections, 4)
	assert.Equal(t, 1, sections[0].PageNumber)
	assert.Empty(t, sections[0].SectionTitle)
	assert.Equal(t, "ATLAS SKILLTECH UNIVERSITY\nHR Handbook", sections[0].Content)

	assert.Equal(t, 2, sections[1].PageNumber)
	assert.Equal(t, "Leave Policy", sections[1].SectionTitle)
	assert.Equal(t, "Casual leave: 12 days per year.\n\nSick leave: 10 days.", sections[1].Content)

	assert.Equal(t, 3, sections[2].PageNumber)
	assert.Equal(t, "Leave Policy", sections[2].SectionTitle, "title carries across page breaks")
	assert.Equal(t, "Leave must be applied in advance.", sections[2].Content)

	assert.Equal(t, 3, sections[3].PageNumber)
	assert.Equal(t, "Dress Code", sections[3].SectionTitle)
}

func TestChunkSplitsLongSections(t *testing.T) {
	para := strings.TrimSpace(strings.Repeat("word ", 30)) // 149 bytes
	text := "# Benefits\n" + para + "\n\n" + para + "\n\n" + para + "\n"

	sections := Chunk(text, 320)

	require.Len(t, sections, 2)
	assert.Equal(t, para+"\n\n"+para, sections[0].Content)
	assert.Equal(t, para, sections[1].Content)
	for _, s := range sections {
		assert.Equal(t, "Benefits", s.SectionTitle)
		assert.LessOrEqual(t, len(s.Content), 320)
	}
}

func TestChunkSplitsOversizedParagraphOnWords(t *testing.T) {
	text := strings.Repeat("policy ", 100)

	sections := Chunk(text, 100)

	require.Greater(t, len(sections), 1)
	var words int
	for _, s := range sections {
		assert.LessOrEqual(t, len(s.Content), 100)
		words += len(strings.Fields(s.Content))
	}
	assert.Equal(t, 100, words)
}

func TestChunkEmpty(t *testing.T) {
	assert.Empty(t, Chunk("", 0))
	assert.Empty(t, Chunk("\f\f# Only a heading\n", 0))
}
