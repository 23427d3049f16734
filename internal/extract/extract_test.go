package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyParserExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		reply    string
		wantStmt string
		wantTier Tier
	}{
		{
			name:     "exact json object",
			reply:    `{"sql":"SELECT 1"}`,
			wantStmt: "SELECT 1",
			wantTier: TierDirect,
		},
		{
			name:     "multiline json is collapsed before parsing",
			reply:    "{\n  \"sql\": \"SELECT staff_first_name\n\tFROM dice_staff\"\n}",
			wantStmt: "SELECT staff_first_name FROM dice_staff",
			wantTier: TierDirect,
		},
		{
			name:     "json embedded in prose",
			reply:    `Here you go: {"sql":"SELECT COUNT(*) FROM dice_staff"} hope that helps`,
			wantStmt: "SELECT COUNT(*) FROM dice_staff",
			wantTier: TierPattern,
		},
		{
			name:     "escaped quotes inside value",
			reply:    `Sure {"sql":"SELECT * FROM dice_staff WHERE staff_first_name=\"Aamir\""}`,
			wantStmt: `SELECT * FROM dice_staff WHERE staff_first_name="Aamir"`,
			wantTier: TierPattern,
		},
		{
			name:     "malformed quoting falls through to aggressive",
			reply:    `Sure! {"sql":"SELECT * FROM dice_staff WHERE name="O'Brien""}`,
			wantStmt: "SELECT * FROM dice_staff WHERE name=",
			wantTier: TierAggressive,
		},
		{
			name:     "aggressive handles literal backslash-n",
			reply:    `{"sql":"select name\nFROM dice_staff", "note": "x"} trailing`,
			wantStmt: "select name FROM dice_staff",
			wantTier: TierAggressive,
		},
		{
			name:     "plain prose is a direct answer",
			reply:    "The standard leave policy typically includes 20 days of annual leave.",
			wantTier: TierNone,
		},
		{
			name:     "json without sql member",
			reply:    `{"answer":"hello"}`,
			wantTier: TierNone,
		},
		{
			name:     "non string sql member",
			reply:    `{"sql": 42}`,
			wantTier: TierNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ReplyParser{}.Extract(tt.reply)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.Equal(t, tt.wantStmt, got.Statement)
			assert.Equal(t, tt.wantStmt != "", got.Found())
		})
	}
}

func TestReplyParserRecoversSelectFromProse(t *testing.T) {
	t.Parallel()

	got := ReplyParser{}.Extract(`Sure! {"sql":"SELECT * FROM dice_staff WHERE name='O'Brien'"}`)
	assert.True(t, got.Found())
	assert.Contains(t, got.Statement, "SELECT * FROM dice_staff")
}
