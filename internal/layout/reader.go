// Package layout assembles positioned text fragments from a decoded drawing
// page into reading-order lines: top to bottom, left to right.
package layout

import (
	"sort"
	"strings"

	"github.com/takeoffworks/drawingestimate/internal/models"
)

// DefaultYTolerance is the vertical distance (in page units) within which two
// fragments are considered part of the same line.
const DefaultYTolerance = 5.0

// Reader groups fragments into lines.
type Reader struct {
	yTolerance float64
}

// NewReader creates a Reader with the default Y tolerance.
func NewReader() *Reader {
	return &Reader{yTolerance: DefaultYTolerance}
}

// NewReaderWithTolerance creates a Reader with a custom Y tolerance.
func NewReaderWithTolerance(tolerance float64) *Reader {
	if tolerance <= 0 {
		tolerance = DefaultYTolerance
	}
	return &Reader{yTolerance: tolerance}
}

// BuildPage assembles a DrawingPage from positioned fragments. The result is
// deterministic for identical input: fragments are sorted by descending Y
// (page coordinates grow upward) and ascending X before grouping, and a new
// line starts whenever Y moves more than the tolerance from the current
// line's anchor. Whitespace-only lines are dropped.
func (r *Reader) BuildPage(pageNumber int, fragments []models.TextFragment) models.DrawingPage {
	page := models.DrawingPage{PageNumber: pageNumber}
	if len(fragments) == 0 {
		return page
	}

	sorted := make([]models.TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var (
		current []models.TextFragment
		anchorY float64
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		line := assembleLine(anchorY, current)
		if strings.TrimSpace(line.Text) != "" {
			page.Lines = append(page.Lines, line)
		}
		current = nil
	}

	for _, frag := range sorted {
		if len(current) == 0 {
			anchorY = frag.Y
			current = append(current, frag)
			continue
		}
		if abs(frag.Y-anchorY) > r.yTolerance {
			flush()
			anchorY = frag.Y
		}
		current = append(current, frag)
	}
	flush()

	return page
}

// Lines is a convenience over BuildPage returning just the assembled text.
func (r *Reader) Lines(fragments []models.TextFragment) []string {
	page := r.BuildPage(0, fragments)
	out := make([]string, 0, len(page.Lines))
	for _, line := range page.Lines {
		out = append(out, line.Text)
	}
	return out
}

func assembleLine(anchorY float64, fragments []models.TextFragment) models.Line {
	// Fragments arrive Y-major; re-sort within the line so text reads left
	// to right regardless of fragment Y jitter inside the tolerance band.
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].X < fragments[j].X
	})
	parts := make([]string, 0, len(fragments))
	kept := make([]models.TextFragment, 0, len(fragments))
	for _, f := range fragments {
		text := strings.TrimSpace(f.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		kept = append(kept, f)
	}
	return models.Line{
		YPosition:       anchorY,
		Text:            strings.Join(parts, " "),
		SourceFragments: kept,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
