// Package measure mines dimensions, spacings, grades, loads and scale
// notation from drawing text, independently of member extraction. Its output
// grounds the analysis passes and carries an advisory confidence score.
package measure

import (
	"regexp"
	"strings"
)

// ConfidenceLevel buckets the weighted extraction score.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// NamedHeight is a labelled vertical dimension, e.g. an eave height.
type NamedHeight struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ScheduleEntry is a "mark = section" style schedule row.
type ScheduleEntry struct {
	Mark    string `json:"mark"`
	Section string `json:"section"`
}

// MeasurementSet is everything the extractor recovered from one body of text.
// Every sequence is deduplicated and ordered by first appearance. The score
// is advisory metadata: it gates how much weight downstream analysis gives to
// text-derived data, never whether output is produced at all.
type MeasurementSet struct {
	ImperialDimensions []string        `json:"imperialDimensions"`
	MetricDimensions   []string        `json:"metricDimensions"`
	GridSpacings       []string        `json:"gridSpacings"`
	Areas              []string        `json:"areas"`
	Heights            []NamedHeight   `json:"heights"`
	MemberSizes        []string        `json:"memberSizes"`
	SteelGrades        []string        `json:"steelGrades"`
	ConcreteGrades     []string        `json:"concreteGrades"`
	Loads              []string        `json:"loads"`
	Scales             []string        `json:"scales"`
	ScheduleHeadings   []string        `json:"scheduleHeadings"`
	ScheduleEntries    []ScheduleEntry `json:"scheduleEntries"`
	Score              float64         `json:"score"`
	Confidence         ConfidenceLevel `json:"confidence"`
}

var (
	reImperialDim = regexp.MustCompile(`\b\d{1,3}'(?:-\d{1,2}(?: \d/\d)?")?|\b\d{1,3}'-\d{1,2}"`)
	reMetricDim   = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:MM|CM|M)\b`)
	reGridSpacing = regexp.MustCompile(`\b\d+(?:\.\d+)?\s?(?:'|M|MM)?\s?X\s?\d+(?:\.\d+)?\s?(?:'|M|MM)\b|\b\d+\s?BAYS?\s?@\s?\d+`)
	reArea        = regexp.MustCompile(`\b\d[\d,]*(?:\.\d+)?\s?(?:SQ\.?\s?FT|SF|SQ\.?\s?M|SQM|M2|FT2)\b`)
	reHeight      = regexp.MustCompile(`\b(EAVE|RIDGE|CLEAR|FLOOR[\s-]?TO[\s-]?FLOOR|PARAPET|ROOF)\s+(?:HEIGHT|HT\.?|ELEV(?:ATION)?\.?)?\s*[:=]?\s*(\d+(?:\.\d+)?\s?(?:'|M|MM|FT)(?:-\d{1,2}")?)`)
	reMemberSize  = regexp.MustCompile(`\b(?:W|HSS|ISMB|ISMC|ISA|IPE|HE[ABM]|UPN|UB|UC|PFC|SHS|RHS|CHS)\s?\d+(?:X\d+(?:\.\d+)?)*\b`)
	reSteelGrade  = regexp.MustCompile(`\b(?:ASTM\s?)?A(?:36|572|992|500|325|490)(?:\s?GR(?:ADE)?\.?\s?\w+)?\b|\bS(?:235|275|355)(?:JR|J0|J2)?\b|\bE(?:250|350|450)\b|\bGR(?:ADE)?\.?\s?50\b`)
	reConcGrade   = regexp.MustCompile(`\b[MC]\s?\d{2}(?:/\d{2})?\b|\b\d{4,5}\s?PSI\b|\bF'?C\s?=?\s?\d+(?:,\d{3})?\b`)
	reLoad        = regexp.MustCompile(`\b(?:DL|LL|WL|SL|EQ|WIND|SEISMIC|LIVE|DEAD|SNOW|COLLATERAL)\s?(?:LOAD)?\s?[:=]?\s?\d+(?:\.\d+)?\s?(?:PSF|KPA|KN/M2?|KN)\b`)
	reScale       = regexp.MustCompile(`\b1\s?[:=]\s?\d{1,4}\b|\b\d+(?:/\d+)?"\s?=\s?\d+'-?\d*"?\b`)
	reSchedule    = regexp.MustCompile(`\b[A-Z][A-Z ]{2,20}SCHEDULE\b`)
	reMarkEntry   = regexp.MustCompile(`\b([A-Z]{1,3}\d{1,3})\s?[:=]\s?([A-Z]{1,4}\s?\d+(?:X\d+(?:\.\d+)?)*)`)
)

// scoreWeights are the contribution of each category to the confidence score,
// re-normalized to 100.
var scoreWeights = []struct {
	weight float64
	count  func(*MeasurementSet) int
}{
	{20, func(m *MeasurementSet) int { return len(m.ImperialDimensions) + len(m.MetricDimensions) }},
	{15, func(m *MeasurementSet) int { return len(m.GridSpacings) }},
	{10, func(m *MeasurementSet) int { return len(m.Areas) }},
	{10, func(m *MeasurementSet) int { return len(m.Heights) }},
	{20, func(m *MeasurementSet) int { return len(m.MemberSizes) }},
	{10, func(m *MeasurementSet) int { return len(m.SteelGrades) }},
	{5, func(m *MeasurementSet) int { return len(m.ConcreteGrades) }},
	{5, func(m *MeasurementSet) int { return len(m.Loads) }},
	{5, func(m *MeasurementSet) int { return len(m.Scales) }},
	{15, func(m *MeasurementSet) int { return len(m.ScheduleHeadings) + len(m.ScheduleEntries) }},
}

// Extract mines a body of drawing text for grounding measurements. The input
// may be raw page text or assembled lines; matching is case-insensitive via
// internal uppercasing. An empty result has empty (never nil-semantics-bearing)
// slices and a Low confidence level.
func Extract(text string) *MeasurementSet {
	upper := strings.ToUpper(strings.NewReplacer("×", "X", "*", "X").Replace(text))

	set := &MeasurementSet{
		ImperialDimensions: dedup(reImperialDim.FindAllString(upper, -1)),
		MetricDimensions:   dedup(reMetricDim.FindAllString(upper, -1)),
		GridSpacings:       dedup(reGridSpacing.FindAllString(upper, -1)),
		Areas:              dedup(reArea.FindAllString(upper, -1)),
		MemberSizes:        dedup(reMemberSize.FindAllString(upper, -1)),
		SteelGrades:        dedup(reSteelGrade.FindAllString(upper, -1)),
		ConcreteGrades:     dedup(reConcGrade.FindAllString(upper, -1)),
		Loads:              dedup(reLoad.FindAllString(upper, -1)),
		Scales:             dedup(reScale.FindAllString(upper, -1)),
		ScheduleHeadings:   dedup(reSchedule.FindAllString(upper, -1)),
		Heights:            []NamedHeight{},
		ScheduleEntries:    []ScheduleEntry{},
	}

	seenHeights := make(map[string]struct{})
	for _, m := range reHeight.FindAllStringSubmatch(upper, -1) {
		key := m[1] + "|" + m[2]
		if _, dup := seenHeights[key]; dup {
			continue
		}
		seenHeights[key] = struct{}{}
		set.Heights = append(set.Heights, NamedHeight{Label: strings.TrimSpace(m[1]), Value: strings.TrimSpace(m[2])})
	}

	seenMarks := make(map[string]struct{})
	for _, m := range reMarkEntry.FindAllStringSubmatch(upper, -1) {
		if _, dup := seenMarks[m[1]]; dup {
			continue
		}
		seenMarks[m[1]] = struct{}{}
		set.ScheduleEntries = append(set.ScheduleEntries, ScheduleEntry{Mark: m[1], Section: strings.TrimSpace(m[2])})
	}

	set.Score = score(set)
	set.Confidence = level(set.Score)
	return set
}

// score computes the weighted presence/volume sum over all categories.
// Each category contributes its full weight at 3+ hits, scaled down below.
func score(set *MeasurementSet) float64 {
	var total, max float64
	for _, w := range scoreWeights {
		max += w.weight
		n := w.count(set)
		if n <= 0 {
			continue
		}
		frac := float64(n) / 3.0
		if frac > 1 {
			frac = 1
		}
		total += w.weight * frac
	}
	if max == 0 {
		return 0
	}
	return total / max * 100
}

func level(score float64) ConfidenceLevel {
	switch {
	case score >= 70:
		return ConfidenceHigh
	case score >= 35:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func dedup(values []string) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
