package rates

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultCurrency is used when nothing identifies the project market.
const DefaultCurrency = "USD"

// ProjectInfo carries the fields currency detection inspects, in priority
// order: explicit currency, then location, then free-text notes.
type ProjectInfo struct {
	Currency string
	Location string
	Notes    string
}

// LookupRate resolves (currency, category, subtype) to a rate. On a direct
// miss it attempts a substring fuzzy match between the requested subtype and
// the available subtype keys within the same category and currency. A
// non-empty location adjusts the returned BaseRate by the location factor.
// Returns nil when nothing matches.
func LookupRate(currency, category, subtype, location string) *Rate {
	byCategory, ok := rateTable[strings.ToUpper(currency)]
	if !ok {
		return nil
	}
	bySubtype, ok := byCategory[category]
	if !ok {
		return nil
	}

	key := strings.ToLower(strings.TrimSpace(subtype))
	if key == "" {
		return nil
	}
	rate, ok := bySubtype[key]
	if !ok {
		for candidate, r := range bySubtype {
			if strings.Contains(candidate, key) || strings.Contains(key, candidate) {
				rate = r
				ok = true
				break
			}
		}
	}
	if !ok {
		return nil
	}

	out := rate
	if location != "" {
		out.BaseRate = AdjustForLocation(out.BaseRate, location)
	}
	return &out
}

var hollowToken = regexp.MustCompile(`\b(HSS|SHS|RHS|CHS|PIPE)|(SHS|RHS|CHS)$`)
var pebToken = regexp.MustCompile(`\bPEB\b|BUILT[\-\s]?UP|TAPERED`)
var weightToken = regexp.MustCompile(`X(\d{1,3}(?:\.\d+)?)$`)

// ClassifySteelWeight buckets a designation into light/medium/heavy by its
// parsed weight-per-length, with dedicated hss and peb buckets taking
// precedence. Thresholds are lb/ft for USD and kg/m elsewhere.
func ClassifySteelWeight(designation, currency string) string {
	d := strings.ToUpper(designation)
	if hollowToken.MatchString(d) {
		return "hss"
	}
	if pebToken.MatchString(d) {
		return "peb"
	}

	var weight float64
	if m := weightToken.FindStringSubmatch(d); m != nil {
		weight, _ = strconv.ParseFloat(m[1], 64)
	}
	lightMax, mediumMax := 40.0, 80.0
	if strings.ToUpper(currency) == "USD" {
		lightMax, mediumMax = 30.0, 60.0
	}
	switch {
	case weight <= 0:
		return "medium"
	case weight < lightMax:
		return "light"
	case weight <= mediumMax:
		return "medium"
	default:
		return "heavy"
	}
}

// LookupSteelRate resolves a designation to its installed steel supply rate
// via weight classification.
func LookupSteelRate(designation, location, currency string) *Rate {
	if currency == "" {
		currency = DefaultCurrency
	}
	return LookupRate(currency, CategorySteel, ClassifySteelWeight(designation, currency), location)
}

var psiBand = regexp.MustCompile(`(\d{4,5})\s*PSI|FC\s*=?\s*(\d{4,5})`)
var mGrade = regexp.MustCompile(`M\s*(\d{2})`)
var cGrade = regexp.MustCompile(`C\s*(\d{2})`)

// NormalizeConcreteGrade maps a heterogeneous grade string to the canonical
// rate bucket for a currency: synonym table first, then regex-derived
// banding, then the currency default.
func NormalizeConcreteGrade(grade, currency string) string {
	currency = strings.ToUpper(currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	synonyms, ok := gradeSynonyms[currency]
	if !ok {
		synonyms = gradeSynonyms[DefaultCurrency]
		currency = DefaultCurrency
	}

	key := strings.ToLower(strings.TrimSpace(grade))
	if canonical, ok := synonyms[key]; ok {
		return canonical
	}

	upper := strings.ToUpper(grade)
	if m := psiBand.FindStringSubmatch(upper); m != nil {
		tok := m[1]
		if tok == "" {
			tok = m[2]
		}
		if psi, err := strconv.Atoi(tok); err == nil {
			band := "3000psi"
			switch {
			case psi >= 5000:
				band = "5000psi"
			case psi >= 4000:
				band = "4000psi"
			}
			if canonical, ok := synonyms[band]; ok {
				return canonical
			}
			if currency == "USD" {
				return band
			}
		}
	}
	if m := mGrade.FindStringSubmatch(upper); m != nil {
		if canonical, ok := synonyms["m"+m[1]]; ok {
			return canonical
		}
	}
	if m := cGrade.FindStringSubmatch(upper); m != nil {
		if canonical, ok := synonyms["c"+m[1]]; ok {
			return canonical
		}
	}
	return defaultGrade[currency]
}

// LookupConcreteRate resolves a grade string to an installed concrete rate.
func LookupConcreteRate(grade, location, currency string) *Rate {
	if currency == "" {
		currency = DefaultCurrency
	}
	return LookupRate(currency, CategoryConcrete, NormalizeConcreteGrade(grade, currency), location)
}

// LocationFactorFor returns the factor for a location, defaulting to
// multiplier 1.0 and USD for unknown markets.
func LocationFactorFor(location string) LocationFactor {
	if f, ok := locationFactors[strings.ToLower(strings.TrimSpace(location))]; ok {
		return f
	}
	return LocationFactor{Location: location, Multiplier: 1.0, Currency: DefaultCurrency}
}

// AdjustForLocation multiplies a base rate by the location's factor, rounded
// to cents.
func AdjustForLocation(baseRate float64, location string) float64 {
	factor := LocationFactorFor(location)
	return math.Round(baseRate*factor.Multiplier*100) / 100
}

// GetEscalationFactor returns a linear mid-point escalation factor for a
// project starting at startDate and running durationMonths:
// 1 + annualRate × (durationMonths/12) / 2, with annualRate clamped to
// [0, 0.10]. Non-positive durations return 1.0.
func GetEscalationFactor(startDate time.Time, durationMonths int, annualRate float64) float64 {
	if durationMonths <= 0 {
		return 1.0
	}
	if annualRate < 0 {
		annualRate = 0
	}
	if annualRate > 0.10 {
		annualRate = 0.10
	}
	_ = startDate // reserved for future index-based escalation curves
	return 1 + annualRate*(float64(durationMonths)/12)/2
}

// DetectCurrency resolves the project currency. An explicit currency field
// wins; then the location's market currency; then keyword scanning in the
// free-text notes; then USD.
func DetectCurrency(info ProjectInfo) string {
	if c := strings.ToUpper(strings.TrimSpace(info.Currency)); c != "" {
		if _, ok := rateTable[c]; ok {
			return c
		}
	}
	if info.Location != "" {
		if f, ok := locationFactors[strings.ToLower(strings.TrimSpace(info.Location))]; ok {
			return f.Currency
		}
	}
	notes := strings.ToLower(info.Notes)
	if notes != "" {
		for _, currency := range []string{"INR", "GBP", "EUR", "AUD", "USD"} {
			for _, keyword := range currencyKeywords[currency] {
				if strings.Contains(notes, keyword) {
					return currency
				}
			}
		}
	}
	return DefaultCurrency
}
