package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{HR, Manager, Standard}, c.Names())

	std, err := c.Profile(Standard)
	require.NoError(t, err)
	assert.Equal(t, Standard, std.Name)
	assert.False(t, std.RequireIdentity)
	assert.Empty(t, std.AccessLevel)
	assert.Len(t, std.BestPractices, 6)

	mgr, err := c.Profile(Manager)
	require.NoError(t, err)
	assert.Equal(t, std.BestPractices, mgr.BestPractices, "anchor is shared")

	hr, err := c.Profile(HR)
	require.NoError(t, err)
	assert.True(t, hr.RequireIdentity)
	assert.Equal(t, "hr", hr.AccessLevel)
	assert.Empty(t, hr.GeneralRules)

	assert.NotEmpty(t, c.Handbook.Title)
	assert.NotEmpty(t, c.Handbook.Source)
	assert.Len(t, c.Format.Instructions, 7)
	assert.Len(t, c.Schema.ColumnMeanings, 4)
}

func TestAccessLinesSubstituteCaller(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)
	hr, err := c.Profile(HR)
	require.NoError(t, err)

	lines := hr.AccessLines("HR042")
	require.NotEmpty(t, lines)
	assert.Equal(t, "✅ HR ID: HR042", lines[0])
	assert.Contains(t, hr.Access[0], callerPlaceholder, "profile text is not mutated")

	std, err := c.Profile(Standard)
	require.NoError(t, err)
	assert.Nil(t, std.AccessLines("x"))
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("profiles: {}"))
	assert.Error(t, err)

	_, err = Parse([]byte("profiles:\n  standard:\n    data_rules: [x]\n"))
	assert.ErrorContains(t, err, "role text is required")

	_, err = Parse([]byte("profiles: [oops"))
	assert.Error(t, err)

	c, err := Load()
	require.NoError(t, err)
	_, err = c.Profile("intern")
	assert.ErrorContains(t, err, "unknown profile")
}
