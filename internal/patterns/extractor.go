package patterns

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/takeoffworks/drawingestimate/internal/models"
)

// scheduleHeading recognizes schedule block titles, e.g. "BEAM SCHEDULE".
var scheduleHeading = regexp.MustCompile(
	`\b((?:BEAM|COLUMN|RAFTER|PURLIN|GIRT|BRACE|BRACING|JOIST|LINTEL|FOOTING|FOUNDATION|PIER|PLATE|CONNECTION|BOLT|ANCHOR BOLT|MEMBER|STEEL|REBAR|BAR BENDING)\s+SCHEDULE)\b`)

// scheduleWindow bounds how many lines after a heading belong to its block.
const scheduleWindow = 30

// skipLine filters title-block and annotation noise before the general pass.
var skipLine = regexp.MustCompile(
	`^(?:REV(?:ISION)?\b|DRAWN\s+BY|CHECKED\s+BY|APPROVED\s+BY|DESIGNED\s+BY|PROJECT\s+NO|DWG\.?\s*NO|SHEET\s+\d|DATE[:\s]|SCALE[:\s]|TITLE[:\s])`)

var (
	multiplyGlyphs  = strings.NewReplacer("×", "X", "*", "X", "x", "X")
	spaceAroundX    = regexp.MustCompile(`\s*X\s*`)
	multiSpace      = regexp.MustCompile(`\s{2,}`)
	prefixDigitGap  = regexp.MustCompile(`\b(W|S|HP|MC|C|L|WT|MT|ST|HSS|PL|FL|ISMB|ISLB|ISHB|ISWB|ISMC|ISA|IPE|HEA|HEB|HEM|UPN|UB|UC|PFC|SHS|RHS|CHS|Z|T|Y|M)\s+(\d)`)
	qtyExplicit     = regexp.MustCompile(`\b(\d{1,4})\s*NOS?\b`)
	qtyLabelled     = regexp.MustCompile(`\bQTY\.?\s*[:=]?\s*(\d{1,4})\b`)
	qtyTimes        = regexp.MustCompile(`\b(\d{1,4})\s*X\s+[A-Z]`)
	qtyLeading      = regexp.MustCompile(`^(\d{1,4})\s+[A-Z]`)
	trailingWeight  = regexp.MustCompile(`X(\d{1,3}(?:\.\d+)?)$`)
	dimensionTriple = regexp.MustCompile(`(\d+(?:\.\d+)?)X(\d+(?:\.\d+)?)X(\d+(?:\.\d+)?)`)
)

// NormalizeDesignation canonicalizes a raw designation: uppercase, unified
// multiplication glyph, no whitespace around X, single spaces elsewhere.
// Idempotent: normalizing an already-normalized designation is a no-op.
func NormalizeDesignation(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = multiplyGlyphs.Replace(s)
	s = spaceAroundX.ReplaceAllString(s, "X")
	s = prefixDigitGap.ReplaceAllString(s, "$1$2")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Extractor applies the pattern catalog to drawing lines. A fresh dedup scope
// is created per Extract call, never shared between invocations.
type Extractor struct {
	catalog []Entry
	logger  *slog.Logger
}

// NewExtractor builds an extractor over the default catalog.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{catalog: DefaultCatalog(logger), logger: logger}
}

// NewExtractorWithCatalog builds an extractor over a custom catalog.
func NewExtractorWithCatalog(catalog []Entry, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{catalog: catalog, logger: logger}
}

type extractRun struct {
	seen    map[string]struct{}
	members []models.ExtractedMember
}

func dedupKey(designation, category, source string) string {
	return designation + "|" + category + "|" + source
}

// ExtractMembers runs the schedule-first pass and then the general-text pass
// over the given lines. Schedule-sourced hits take precedence: a designation
// already captured from a schedule is not re-added from general text under a
// different source only when the (designation, category, source) key repeats;
// cross-source duplicates are reconciled later by the aggregator.
// preferredCategory, when non-empty, biases unmatched schedule rows.
func (e *Extractor) ExtractMembers(lines []string, preferredCategory string) []models.ExtractedMember {
	run := &extractRun{seen: make(map[string]struct{})}

	normalized := make([]string, len(lines))
	for i, line := range lines {
		normalized[i] = strings.ToUpper(multiplyGlyphs.Replace(line))
	}

	inSchedule := make([]bool, len(lines))
	e.schedulePass(normalized, lines, run, inSchedule, preferredCategory)
	e.generalPass(normalized, lines, run, inSchedule)

	return Reclassify(run.members)
}

// schedulePass locates schedule headings and scans a bounded window of
// following lines, tagging hits with the schedule title as their source.
func (e *Extractor) schedulePass(normalized, raw []string, run *extractRun, inSchedule []bool, preferredCategory string) {
	for i, line := range normalized {
		m := scheduleHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[1])
		inSchedule[i] = true
		for j := i + 1; j < len(normalized) && j <= i+scheduleWindow; j++ {
			next := scheduleHeading.FindStringSubmatch(normalized[j])
			if next != nil && strings.TrimSpace(next[1]) != title {
				break
			}
			inSchedule[j] = true
			e.matchLine(normalized[j], raw[j], title, preferredCategory, run)
		}
	}
}

// generalPass applies the catalog to every line not consumed by a schedule
// block and not filtered as annotation noise.
func (e *Extractor) generalPass(normalized, raw []string, run *extractRun, inSchedule []bool) {
	for i, line := range normalized {
		if inSchedule[i] {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < 3 || skipLine.MatchString(trimmed) {
			continue
		}
		context := ""
		if i > 0 {
			context = tail(normalized[i-1], 50)
		}
		e.matchLineWithContext(line, raw[i], "General Text", "", context, run)
	}
}

func (e *Extractor) matchLine(line, raw, source, preferredCategory string, run *extractRun) {
	e.matchLineWithContext(line, raw, source, preferredCategory, "", run)
}

func (e *Extractor) matchLineWithContext(line, raw, source, preferredCategory, context string, run *extractRun) {
	for _, entry := range e.catalog {
		match := entry.Re.FindString(line)
		if match == "" {
			continue
		}
		designation := NormalizeDesignation(match)
		category := entry.Category
		if category == "" {
			category = preferredCategory
		}
		key := dedupKey(designation, category, source)
		if _, dup := run.seen[key]; dup {
			continue
		}
		run.seen[key] = struct{}{}

		member := models.ExtractedMember{
			Type:        entry.Type,
			Designation: designation,
			Category:    category,
			SubCategory: entry.SubCategory,
			Quantity:    InferQuantity(line, context),
			Source:      source,
			RawLine:     strings.TrimSpace(raw),
		}
		member.Weight = parseTrailingWeight(designation)
		member.Dimensions = parseDimensions(designation)
		run.members = append(run.members, member)
	}
}

// InferQuantity scans a line (and up to 50 characters of preceding context)
// for an explicit count token. Defaults to 1; inferred values outside
// (0, 10000] are rejected.
func InferQuantity(line, context string) int {
	for _, text := range []string{line, context} {
		if text == "" {
			continue
		}
		for _, re := range []*regexp.Regexp{qtyExplicit, qtyLabelled, qtyTimes, qtyLeading} {
			if m := re.FindStringSubmatch(text); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil && n > 0 && n <= 10000 {
					return n
				}
			}
		}
	}
	return 1
}

// parseTrailingWeight reads the weight-per-length token that AISC and
// UB/UC style designations carry as their final segment (W12X26 → 26).
func parseTrailingWeight(designation string) float64 {
	m := trailingWeight.FindStringSubmatch(designation)
	if m == nil {
		return 0
	}
	w, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return w
}

// parseDimensions reads a WIDTHxHEIGHTxTHICKNESS triple where present.
func parseDimensions(designation string) *models.Dimensions {
	m := dimensionTriple.FindStringSubmatch(designation)
	if m == nil {
		return nil
	}
	w, _ := strconv.ParseFloat(m[1], 64)
	h, _ := strconv.ParseFloat(m[2], 64)
	t, _ := strconv.ParseFloat(m[3], 64)
	return &models.Dimensions{Width: w, Height: h, Thickness: t}
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// reclassRules re-derives the correct bucket from a designation's token
// prefix, in priority order. Members with no matching prefix stay put.
var reclassRules = []struct {
	re       *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`^(SHS|RHS|CHS|HSS|PIPE)|(SHS|RHS|CHS)$`), models.CategoryHollowSections},
	{regexp.MustCompile(`^(L\d|ISA)`), models.CategoryAngles},
	{regexp.MustCompile(`^(Z\d|GIRT)|^C[12]\d{2}X`), models.CategoryPurlins},
	{regexp.MustCompile(`^(PL\d|PLATE|BASE PL|GUSSET|STIFF)`), models.CategoryPlates},
	{regexp.MustCompile(`^(#\d|T\d{2}|Y\d{2}|FL\d|SAG ROD)|\bDIA (ROD|BAR)\b`), models.CategoryBars},
	{regexp.MustCompile(`^(M\d{2}|ANCHOR BOLT|A\.?B\.?\d)|\b(A325|A490|HSFG|WELD|E70XX)\b`), models.CategoryConnections},
	{regexp.MustCompile(`\b(WASHER|NUT)S?\b`), models.CategoryHardware},
}

// Reclassify re-derives every member's bucket purely from its designation
// prefix and moves the member when its current bucket disagrees. It runs as
// the final extraction step, before any category summary is computed.
func Reclassify(members []models.ExtractedMember) []models.ExtractedMember {
	out := make([]models.ExtractedMember, len(members))
	copy(out, members)
	for i := range out {
		for _, rule := range reclassRules {
			if rule.re.MatchString(out[i].Designation) {
				out[i].Category = rule.category
				break
			}
		}
	}
	return out
}
