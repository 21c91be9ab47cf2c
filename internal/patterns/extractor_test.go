package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeoffworks/drawingestimate/internal/models"
)

func TestNormalizeDesignation(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"w 12 x 26", "W12X26"},
		{"W12×26", "W12X26"},
		{"ISMB 300", "ISMB300"},
		{"hss 6x6x1/4", "HSS6X6X1/4"},
		{"  PL 10 MM  ", "PL10 MM"},
		{"L 4 X 4 X 1/4", "L4X4X1/4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDesignation(tt.raw), "raw=%q", tt.raw)
	}
}

func TestNormalizeDesignationIsIdempotent(t *testing.T) {
	for _, raw := range []string{"w 12 x 26", "ISMB 300", "HSS 6×6×1/4", "300 x 200 x 8 RHS"} {
		once := NormalizeDesignation(raw)
		assert.Equal(t, once, NormalizeDesignation(once), "raw=%q", raw)
	}
}

func TestExtractMembersDeduplicatesWithinRun(t *testing.T) {
	e := NewExtractor(nil)
	lines := []string{
		"W12X65 COLUMN",
		"W12X65 COLUMN",
	}

	members := e.ExtractMembers(lines, "")

	require.Len(t, members, 1)
	assert.Equal(t, "W12X65", members[0].Designation)
	assert.Equal(t, models.CategoryMainMembers, members[0].Category)
	assert.Equal(t, "General Text", members[0].Source)
	assert.Equal(t, 1, members[0].Quantity)
}

func TestExtractMembersDedupScopeIsPerInvocation(t *testing.T) {
	e := NewExtractor(nil)
	lines := []string{"W12X65 COLUMN"}

	first := e.ExtractMembers(lines, "")
	second := e.ExtractMembers(lines, "")

	require.Len(t, first, 1)
	require.Len(t, second, 1)
}

func TestExtractMembersSchedulePass(t *testing.T) {
	e := NewExtractor(nil)
	lines := []string{
		"BEAM SCHEDULE",
		"B1 W18X50 QTY: 12",
	}

	members := e.ExtractMembers(lines, "")

	require.Len(t, members, 1)
	assert.Equal(t, "W18X50", members[0].Designation)
	assert.Equal(t, "BEAM SCHEDULE", members[0].Source)
	assert.Equal(t, 12, members[0].Quantity)
}

func TestExtractMembersKeepsCrossSourceDuplicates(t *testing.T) {
	e := NewExtractor(nil)
	lines := []string{
		"W18X50 ROOF BRACE",
		"BEAM SCHEDULE",
		"W18X50",
	}

	members := e.ExtractMembers(lines, "")

	// Same designation from a schedule and from general text are distinct
	// records here; the aggregator reconciles them later.
	require.Len(t, members, 2)
	sources := []string{members[0].Source, members[1].Source}
	assert.Contains(t, sources, "BEAM SCHEDULE")
	assert.Contains(t, sources, "General Text")
}

func TestExtractMembersSkipsAnnotationNoise(t *testing.T) {
	e := NewExtractor(nil)
	lines := []string{
		"DRAWN BY: W12X65", // title block noise, not a member callout
		"REV 2 ISMB300",
	}

	members := e.ExtractMembers(lines, "")
	assert.Empty(t, members)
}

func TestExtractMembersParsesWeightAndDimensions(t *testing.T) {
	e := NewExtractor(nil)
	members := e.ExtractMembers([]string{"W12X26 RAFTER"}, "")

	require.Len(t, members, 1)
	assert.Equal(t, 26.0, members[0].Weight)
}

func TestInferQuantity(t *testing.T) {
	tests := []struct {
		line    string
		context string
		want    int
	}{
		{"8 NOS ISMB300", "", 8},
		{"W18X50 QTY: 12", "", 12},
		{"12 W12X65 COLUMNS", "", 12},
		{"ISMB300 RAFTER", "4 X RAFTER", 4},
		{"W18X50", "", 1},
		{"QTY: 25000 W18X50", "", 1}, // out of range, rejected
		{"0 NOS W18X50", "", 1},      // zero rejected
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferQuantity(tt.line, tt.context), "line=%q context=%q", tt.line, tt.context)
	}
}

func TestReclassifyMovesMembersByDesignationPrefix(t *testing.T) {
	members := []models.ExtractedMember{
		{Designation: "L4X4X1/4", Category: models.CategoryMainMembers},
		{Designation: "M20 BOLTS", Category: models.CategoryPlates},
		{Designation: "W12X26", Category: models.CategoryMainMembers},
		{Designation: "Z200X2.5", Category: models.CategoryMiscellaneous},
		{Designation: "SHS100X100X4", Category: models.CategoryMainMembers},
		{Designation: "WASHER", Category: models.CategoryConnections},
	}

	out := Reclassify(members)

	assert.Equal(t, models.CategoryAngles, out[0].Category)
	assert.Equal(t, models.CategoryConnections, out[1].Category)
	assert.Equal(t, models.CategoryMainMembers, out[2].Category)
	assert.Equal(t, models.CategoryPurlins, out[3].Category)
	assert.Equal(t, models.CategoryHollowSections, out[4].Category)
	assert.Equal(t, models.CategoryHardware, out[5].Category)
}

func TestReclassifyDoesNotMutateInput(t *testing.T) {
	members := []models.ExtractedMember{
		{Designation: "L4X4X1/4", Category: models.CategoryMainMembers},
	}
	_ = Reclassify(members)
	assert.Equal(t, models.CategoryMainMembers, members[0].Category)
}

func TestCompileSkipsMalformedPatterns(t *testing.T) {
	specs := []Spec{
		{ID: "good", Category: models.CategoryMainMembers, Expr: `\bW\d+X\d+\b`},
		{ID: "bad", Category: models.CategoryMainMembers, Expr: `(`},
	}

	entries := Compile(specs, nil)

	require.Len(t, entries, 1)
	assert.Equal(t, "good", entries[0].ID)
}

func TestDefaultCatalogCompiles(t *testing.T) {
	entries := DefaultCatalog(nil)
	assert.Equal(t, len(defaultSpecs), len(entries))
}
