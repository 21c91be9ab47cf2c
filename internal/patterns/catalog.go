// Package patterns classifies structural member designations found in
// drawing text. The catalog is a data-driven table of matcher rows; new
// design standards are supported by appending rows, never by branching code.
package patterns

import (
	"log/slog"
	"regexp"

	"github.com/takeoffworks/drawingestimate/internal/models"
)

// Spec is one uncompiled catalog row.
type Spec struct {
	ID          string
	Type        string
	Category    string
	SubCategory string
	Expr        string
}

// Entry is a compiled catalog row.
type Entry struct {
	Spec
	Re *regexp.Regexp
}

// defaultSpecs is the full matcher table, grouped by design standard.
// Expressions match against uppercased text.
var defaultSpecs = []Spec{
	// --- Imperial / AISC ---
	{ID: "aisc-wide-flange", Type: "Wide Flange Beam", Category: models.CategoryMainMembers, SubCategory: "wideFlange",
		Expr: `\bW\s?\d{1,2}\s?[X]\s?\d{1,3}(?:\.\d+)?\b`},
	{ID: "aisc-s-shape", Type: "American Standard Beam", Category: models.CategoryMainMembers, SubCategory: "sShape",
		Expr: `\bS\s?\d{1,2}\s?[X]\s?\d{1,3}(?:\.\d+)?\b`},
	{ID: "aisc-hp-shape", Type: "Bearing Pile", Category: models.CategoryMainMembers, SubCategory: "hpShape",
		Expr: `\bHP\s?\d{1,2}\s?[X]\s?\d{1,3}\b`},
	{ID: "aisc-channel", Type: "American Standard Channel", Category: models.CategoryMainMembers, SubCategory: "channel",
		Expr: `\b(?:MC|C)\s?\d{1,2}\s?[X]\s?\d{1,3}(?:\.\d+)?\b`},
	{ID: "aisc-angle", Type: "Steel Angle", Category: models.CategoryAngles, SubCategory: "equalLeg",
		Expr: `\bL\s?\d{1,2}(?:[\-\s]\d/\d)?\s?[X]\s?\d{1,2}(?:[\-\s]\d/\d)?\s?[X]\s?\d+(?:/\d+)?\b`},
	{ID: "aisc-hss-rect", Type: "Hollow Structural Section", Category: models.CategoryHollowSections, SubCategory: "hss",
		Expr: `\bHSS\s?\d{1,2}(?:[\-\s]\d/\d)?\s?[X]\s?\d{1,2}(?:[\-\s]\d/\d)?\s?[X]\s?\d+(?:/\d+)?\b`},
	{ID: "aisc-pipe", Type: "Steel Pipe", Category: models.CategoryHollowSections, SubCategory: "pipe",
		Expr: `\bPIPE\s?\d{1,2}(?:\s?(?:STD|XS|XXS))?\b`},
	{ID: "aisc-tee", Type: "Structural Tee", Category: models.CategoryMainMembers, SubCategory: "tee",
		Expr: `\b(?:WT|MT|ST)\s?\d{1,2}\s?[X]\s?\d{1,3}(?:\.\d+)?\b`},

	// --- Indian IS ---
	{ID: "is-beam", Type: "Indian Standard Medium Beam", Category: models.CategoryMainMembers, SubCategory: "ismb",
		Expr: `\bISMB\s?\d{3}\b`},
	{ID: "is-light-beam", Type: "Indian Standard Light Beam", Category: models.CategoryMainMembers, SubCategory: "islb",
		Expr: `\bISLB\s?\d{3}\b`},
	{ID: "is-heavy-beam", Type: "Indian Standard Heavy Beam", Category: models.CategoryMainMembers, SubCategory: "ishb",
		Expr: `\bISHB\s?\d{3}\b`},
	{ID: "is-wide-beam", Type: "Indian Standard Wide Flange Beam", Category: models.CategoryMainMembers, SubCategory: "iswb",
		Expr: `\bISWB\s?\d{3}\b`},
	{ID: "is-channel", Type: "Indian Standard Channel", Category: models.CategoryMainMembers, SubCategory: "ismc",
		Expr: `\bISMC\s?\d{3}\b`},
	{ID: "is-angle", Type: "Indian Standard Angle", Category: models.CategoryAngles, SubCategory: "isa",
		Expr: `\bISA\s?\d{2,3}\s?[X]\s?\d{2,3}\s?[X]\s?\d{1,2}\b`},

	// --- European EN ---
	{ID: "en-ipe", Type: "European I-Beam", Category: models.CategoryMainMembers, SubCategory: "ipe",
		Expr: `\bIPE\s?\d{2,3}\b`},
	{ID: "en-hea", Type: "European Wide Flange Beam", Category: models.CategoryMainMembers, SubCategory: "hea",
		Expr: `\bHE\s?\d{2,3}\s?[ABM]\b|\bHE[ABM]\s?\d{2,3}\b`},
	{ID: "en-upn", Type: "European Channel", Category: models.CategoryMainMembers, SubCategory: "upn",
		Expr: `\bUPN\s?\d{2,3}\b`},

	// --- British BS ---
	{ID: "bs-ub", Type: "Universal Beam", Category: models.CategoryMainMembers, SubCategory: "ub",
		Expr: `\b(?:UB\s?)?\d{3}\s?[X]\s?\d{2,3}\s?[X]\s?\d{2,3}\s?UB\b|\bUB\s?\d{3}\s?[X]\s?\d{2,3}\s?[X]\s?\d{2,3}\b`},
	{ID: "bs-uc", Type: "Universal Column", Category: models.CategoryMainMembers, SubCategory: "uc",
		Expr: `\b\d{3}\s?[X]\s?\d{2,3}\s?[X]\s?\d{2,3}\s?UC\b|\bUC\s?\d{3}\s?[X]\s?\d{2,3}\s?[X]\s?\d{2,3}\b`},
	{ID: "bs-pfc", Type: "Parallel Flange Channel", Category: models.CategoryMainMembers, SubCategory: "pfc",
		Expr: `\b\d{3}\s?[X]\s?\d{2,3}\s?[X]\s?\d{2,3}\s?PFC\b|\bPFC\s?\d{3}\b`},

	// --- Australian AS ---
	{ID: "as-ub", Type: "Universal Beam", Category: models.CategoryMainMembers, SubCategory: "ub",
		Expr: `\b\d{3}\s?UB\s?\d{1,3}(?:\.\d+)?\b`},
	{ID: "as-uc", Type: "Universal Column", Category: models.CategoryMainMembers, SubCategory: "uc",
		Expr: `\b\d{3}\s?UC\s?\d{1,3}(?:\.\d+)?\b`},

	// --- Hollow sections (metric) ---
	{ID: "shs", Type: "Square Hollow Section", Category: models.CategoryHollowSections, SubCategory: "shs",
		Expr: `\bSHS\s?\d{2,3}\s?[X]\s?\d{2,3}(?:\s?[X]\s?\d{1,2}(?:\.\d+)?)?\b|\b\d{2,3}\s?[X]\s?\d{2,3}\s?[X]\s?\d{1,2}(?:\.\d+)?\s?SHS\b`},
	{ID: "rhs", Type: "Rectangular Hollow Section", Category: models.CategoryHollowSections, SubCategory: "rhs",
		Expr: `\bRHS\s?\d{2,3}\s?[X]\s?\d{2,3}(?:\s?[X]\s?\d{1,2}(?:\.\d+)?)?\b|\b\d{2,3}\s?[X]\s?\d{2,3}\s?[X]\s?\d{1,2}(?:\.\d+)?\s?RHS\b`},
	{ID: "chs", Type: "Circular Hollow Section", Category: models.CategoryHollowSections, SubCategory: "chs",
		Expr: `\bCHS\s?\d{2,3}(?:\.\d+)?\s?[X]\s?\d{1,2}(?:\.\d+)?\b|\b\d{2,3}(?:\.\d+)?\s?[X]\s?\d{1,2}(?:\.\d+)?\s?CHS\b`},

	// --- Pre-engineered building sections ---
	{ID: "peb-frame", Type: "PEB Built-Up Frame", Category: models.CategoryMainMembers, SubCategory: "pebFrame",
		Expr: `\bPEB\b|\bBUILT[\-\s]?UP\s+SECTION\b|\bTAPERED\s+(?:COLUMN|RAFTER|FRAME)\b`},
	{ID: "peb-z-purlin", Type: "Z Purlin", Category: models.CategoryPurlins, SubCategory: "zPurlin",
		Expr: `\bZ\s?(?:1\d{2}|2\d{2}|3\d{2})(?:\s?[X]\s?\d{1,2}(?:\.\d+)?)?\b`},
	{ID: "peb-c-purlin", Type: "C Purlin", Category: models.CategoryPurlins, SubCategory: "cPurlin",
		Expr: `\bC\s?(?:1\d{2}|2\d{2}|3\d{2})\s?[X]\s?\d{1,2}(?:\.\d+)?\b`},
	{ID: "girt", Type: "Girt", Category: models.CategoryPurlins, SubCategory: "girt",
		Expr: `\bGIRT\s?[A-Z]?\d{0,3}\b`},

	// --- Plates and stiffeners ---
	{ID: "plate-imperial", Type: "Steel Plate", Category: models.CategoryPlates, SubCategory: "plate",
		Expr: `\bPL\s?\d+(?:/\d+)?(?:"|\s?IN)?\s?[X]\s?\d+(?:/\d+)?\b`},
	{ID: "plate-metric", Type: "Steel Plate", Category: models.CategoryPlates, SubCategory: "plate",
		Expr: `\bPL(?:ATE)?\s?\d{1,3}\s?(?:MM|THK?)\b`},
	{ID: "base-plate", Type: "Base Plate", Category: models.CategoryPlates, SubCategory: "basePlate",
		Expr: `\bBASE\s?PL(?:ATE)?\b`},
	{ID: "gusset-plate", Type: "Gusset Plate", Category: models.CategoryPlates, SubCategory: "gussetPlate",
		Expr: `\bGUSSET\s?(?:PL(?:ATE)?)?\b`},
	{ID: "stiffener", Type: "Stiffener Plate", Category: models.CategoryPlates, SubCategory: "stiffener",
		Expr: `\bSTIFF(?:ENER)?\s?(?:PL(?:ATE)?)?\b`},

	// --- Bars and rebar ---
	{ID: "rebar-imperial", Type: "Reinforcing Bar", Category: models.CategoryBars, SubCategory: "rebar",
		Expr: `#\d{1,2}\s?(?:BAR|REBAR|@)\b|#\d{1,2}\b`},
	{ID: "rebar-metric-t", Type: "Reinforcing Bar", Category: models.CategoryBars, SubCategory: "rebar",
		Expr: `\b[TY]\d{2}\s?(?:@|BAR|C/C)?\b`},
	{ID: "rod-dia", Type: "Round Bar", Category: models.CategoryBars, SubCategory: "roundBar",
		Expr: `\b\d{1,2}\s?(?:MM\s?)?DIA\s?(?:ROD|BAR)\b`},
	{ID: "flat-bar", Type: "Flat Bar", Category: models.CategoryBars, SubCategory: "flatBar",
		Expr: `\bFL(?:AT)?\s?\d{1,3}\s?[X]\s?\d{1,2}\b`},
	{ID: "sag-rod", Type: "Sag Rod", Category: models.CategoryBars, SubCategory: "sagRod",
		Expr: `\bSAG\s?ROD\b`},

	// --- Connections ---
	{ID: "bolt-metric", Type: "Structural Bolt", Category: models.CategoryConnections, SubCategory: "bolt",
		Expr: `\bM\d{2}\s?(?:X\s?\d{2,3})?\s?(?:BOLTS?|HSFG|GR\s?\d\.\d)\b|\bM\d{2}\b`},
	{ID: "bolt-imperial", Type: "Structural Bolt", Category: models.CategoryConnections, SubCategory: "bolt",
		Expr: `\b\d/\d"?\s?(?:DIA\.?\s?)?(?:A325|A490)\s?BOLTS?\b|\b(?:A325|A490)\b`},
	{ID: "anchor-bolt", Type: "Anchor Bolt", Category: models.CategoryConnections, SubCategory: "anchorBolt",
		Expr: `\bANCHOR\s?BOLTS?\b|\bA\.?B\.?\s?\d{2}\b`},
	{ID: "weld", Type: "Weld", Category: models.CategoryConnections, SubCategory: "weld",
		Expr: `\b\d{1,2}\s?MM\s?(?:FILLET|BUTT)\s?WELD\b|\bE70XX\b`},

	// --- Hardware ---
	{ID: "washer", Type: "Washer", Category: models.CategoryHardware, SubCategory: "washer",
		Expr: `\bWASHERS?\b`},
	{ID: "nut", Type: "Nut", Category: models.CategoryHardware, SubCategory: "nut",
		Expr: `\bHEX\s?NUTS?\b|\bNUTS?\b`},
}

// Compile turns raw specs into usable entries. A malformed expression never
// aborts compilation: the row is skipped with a warning and the rest of the
// catalog stays live.
func Compile(specs []Spec, logger *slog.Logger) []Entry {
	if logger == nil {
		logger = slog.Default()
	}
	entries := make([]Entry, 0, len(specs))
	for _, spec := range specs {
		re, err := regexp.Compile(spec.Expr)
		if err != nil {
			logger.Warn("Skipping malformed pattern.", "patternId", spec.ID, "error", err)
			continue
		}
		entries = append(entries, Entry{Spec: spec, Re: re})
	}
	return entries
}

// DefaultCatalog compiles the built-in matcher table.
func DefaultCatalog(logger *slog.Logger) []Entry {
	return Compile(defaultSpecs, logger)
}
