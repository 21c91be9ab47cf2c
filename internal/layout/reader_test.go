package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeoffworks/drawingestimate/internal/models"
)

func TestBuildPageGroupsFragmentsIntoLines(t *testing.T) {
	r := NewReader()
	fragments := []models.TextFragment{
		{Text: "NOTE", X: 10, Y: 50},
		{Text: "W12X65", X: 10, Y: 100},
		{Text: "COL", X: 50, Y: 102}, // within tolerance of the line above
	}

	page := r.BuildPage(3, fragments)

	require.Len(t, page.Lines, 2)
	assert.Equal(t, 3, page.PageNumber)
	assert.Equal(t, "W12X65 COL", page.Lines[0].Text)
	assert.Equal(t, "NOTE", page.Lines[1].Text)
}

func TestBuildPageReadsTopToBottomLeftToRight(t *testing.T) {
	r := NewReader()
	fragments := []models.TextFragment{
		{Text: "RIGHT", X: 200, Y: 700},
		{Text: "LEFT", X: 10, Y: 700},
		{Text: "LOWER", X: 10, Y: 100},
	}

	lines := r.Lines(fragments)

	require.Len(t, lines, 2)
	assert.Equal(t, "LEFT RIGHT", lines[0])
	assert.Equal(t, "LOWER", lines[1])
}

func TestBuildPageToleranceBoundaryIsInclusive(t *testing.T) {
	r := NewReader()
	fragments := []models.TextFragment{
		{Text: "A", X: 0, Y: 100},
		{Text: "B", X: 10, Y: 95}, // exactly DefaultYTolerance from the anchor
		{Text: "C", X: 20, Y: 94}, // beyond the anchor's tolerance
	}

	lines := r.Lines(fragments)

	require.Len(t, lines, 2)
	assert.Equal(t, "A B", lines[0])
	assert.Equal(t, "C", lines[1])
}

func TestBuildPageDropsWhitespaceOnlyLines(t *testing.T) {
	r := NewReader()
	fragments := []models.TextFragment{
		{Text: "   ", X: 0, Y: 200},
		{Text: "\t", X: 10, Y: 201},
		{Text: "TEXT", X: 0, Y: 100},
	}

	lines := r.Lines(fragments)

	require.Len(t, lines, 1)
	assert.Equal(t, "TEXT", lines[0])
}

func TestBuildPageIsDeterministic(t *testing.T) {
	r := NewReader()
	fragments := []models.TextFragment{
		{Text: "B", X: 50, Y: 300},
		{Text: "A", X: 10, Y: 302},
		{Text: "D", X: 90, Y: 100},
		{Text: "C", X: 10, Y: 99},
	}

	first := r.BuildPage(1, fragments)
	second := r.BuildPage(1, fragments)

	assert.Equal(t, first, second)
}

func TestBuildPageEmptyInput(t *testing.T) {
	r := NewReader()
	page := r.BuildPage(1, nil)
	assert.Empty(t, page.Lines)
}

func TestNewReaderWithToleranceRejectsNonPositive(t *testing.T) {
	r := NewReaderWithTolerance(-1)
	assert.Equal(t, DefaultYTolerance, r.yTolerance)
}
