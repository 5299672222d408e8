package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductCopy(t *testing.T) {
	raw := "```json\n{\"description\":\"  Sturdy white folding chair. \",\"tagline\":\"Seat every guest\",\"keywords\":[\"chair\"]}\n```"
	got, err := parseProductCopy(raw)
	require.NoError(t, err)
	assert.Equal(t, "Sturdy white folding chair.", got.Description)
	assert.Equal(t, "Seat every guest", got.Tagline)
	assert.Equal(t, []string{"chair"}, got.Keywords)
}

func TestParseProductCopy_Rejects(t *testing.T) {
	_, err := parseProductCopy("not json")
	assert.Error(t, err)

	_, err = parseProductCopy(`{"description":"   ","tagline":"x"}`)
	assert.Error(t, err)
}

func TestParseProductCopy_TruncatesLongDescription(t *testing.T) {
	long := strings.Repeat("a", maxDescriptionLen+50)
	got, err := parseProductCopy(`{"description":"` + long + `"}`)
	require.NoError(t, err)
	assert.Len(t, got.Description, maxDescriptionLen)
}

func TestBuildDescribePrompt(t *testing.T) {
	p := buildDescribePrompt(ProductBrief{Name: "Table", BasePrice: 10, AddonName: "Cover"})
	assert.Contains(t, p, "Name: Table")
	assert.Contains(t, p, "Price: $10.00 per item per day")
	assert.Contains(t, p, "Optional add-on: Cover")
	assert.Contains(t, p, "Current description: NONE")
	assert.Contains(t, p, "Category: party equipment")
}

func TestParseProductCopy_TruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", maxDescriptionLen+10)
	got, err := parseProductCopy(`{"description":"` + long + `"}`)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(got.Description))
	assert.Equal(t, maxDescriptionLen, utf8.RuneCountInString(got.Description))
}
