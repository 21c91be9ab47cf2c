package rates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupRateDirectHit(t *testing.T) {
	rate := LookupRate("USD", CategorySteel, "medium", "")

	require.NotNil(t, rate)
	assert.Equal(t, 2200.0, rate.BaseRate)
	assert.Equal(t, "ton", rate.Unit)
}

func TestLookupRateFuzzySubtypeMatch(t *testing.T) {
	rate := LookupRate("USD", CategorySteel, "hss sections", "")

	require.NotNil(t, rate)
	assert.Equal(t, "hss", rate.Subtype)
	assert.Equal(t, 2600.0, rate.BaseRate)
}

func TestLookupRateAppliesLocationFactor(t *testing.T) {
	rate := LookupRate("USD", CategorySteel, "medium", "Seattle")

	require.NotNil(t, rate)
	assert.Equal(t, 2530.0, rate.BaseRate) // 2200 × 1.15
}

func TestLookupRateDoesNotMutateTable(t *testing.T) {
	_ = LookupRate("USD", CategorySteel, "medium", "New York")
	rate := LookupRate("USD", CategorySteel, "medium", "")

	require.NotNil(t, rate)
	assert.Equal(t, 2200.0, rate.BaseRate)
}

func TestLookupRateMisses(t *testing.T) {
	assert.Nil(t, LookupRate("JPY", CategorySteel, "medium", ""))
	assert.Nil(t, LookupRate("USD", "landscaping", "medium", ""))
	assert.Nil(t, LookupRate("USD", CategorySteel, "titanium", ""))
	assert.Nil(t, LookupRate("USD", CategorySteel, "", ""))
	assert.Nil(t, LookupRate("USD", CategorySteel, "   ", ""))
}

func TestClassifySteelWeight(t *testing.T) {
	tests := []struct {
		designation string
		currency    string
		want        string
	}{
		{"W12X26", "USD", "light"},
		{"W14X68", "USD", "heavy"},
		{"W12X45", "USD", "medium"},
		{"HSS6X6X1/4", "USD", "hss"},
		{"100X100X4 SHS", "INR", "hss"},
		{"PEB FRAME", "INR", "peb"},
		{"TAPERED COLUMN", "USD", "peb"},
		{"ISMB300", "INR", "medium"}, // no parseable weight token
		{"W12X26", "INR", "light"},   // metric threshold is 40 kg/m
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifySteelWeight(tt.designation, tt.currency), "designation=%q currency=%q", tt.designation, tt.currency)
	}
}

func TestLookupSteelRate(t *testing.T) {
	rate := LookupSteelRate("W14X68", "", "USD")

	require.NotNil(t, rate)
	assert.Equal(t, "heavy", rate.Subtype)
	assert.Equal(t, 2000.0, rate.BaseRate)
}

func TestNormalizeConcreteGrade(t *testing.T) {
	tests := []struct {
		grade    string
		currency string
		want     string
	}{
		{"M25", "USD", "4000psi"},
		{"4500 PSI", "USD", "4000psi"},
		{"5000 PSI", "USD", "5000psi"},
		{"FC=3000", "USD", "3000psi"},
		{"M 25", "INR", "m25"},
		{"C30/37", "EUR", "c30"},
		{"", "AUD", "n32"},
		{"", "USD", "4000psi"},
		{"gibberish", "GBP", "c30"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeConcreteGrade(tt.grade, tt.currency), "grade=%q currency=%q", tt.grade, tt.currency)
	}
}

func TestLookupConcreteRate(t *testing.T) {
	rate := LookupConcreteRate("4000 PSI", "", "USD")

	require.NotNil(t, rate)
	assert.Equal(t, 200.0, rate.BaseRate)
	assert.Equal(t, "CY", rate.Unit)
}

func TestLocationFactorForUnknownMarket(t *testing.T) {
	f := LocationFactorFor("Nowhere")

	assert.Equal(t, 1.0, f.Multiplier)
	assert.Equal(t, "USD", f.Currency)
}

func TestAdjustForLocation(t *testing.T) {
	assert.Equal(t, 115.0, AdjustForLocation(100, "Sydney"))
	assert.Equal(t, 130.0, AdjustForLocation(100, "london"))
	assert.Equal(t, 100.0, AdjustForLocation(100, "Nowhere"))
}

func TestGetEscalationFactor(t *testing.T) {
	now := time.Now()

	assert.Equal(t, 1.02, GetEscalationFactor(now, 12, 0.04))
	assert.Equal(t, 1.0, GetEscalationFactor(now, 0, 0.04))
	assert.Equal(t, 1.0, GetEscalationFactor(now, -6, 0.04))
	// The annual rate caps at 10 percent before the duration scaling.
	assert.Equal(t, 1.05, GetEscalationFactor(now, 12, 0.20))
	assert.Equal(t, 1.10, GetEscalationFactor(now, 24, 0.20))
	// A long duration still compounds past the cap point linearly.
	assert.InDelta(t, 1.12, GetEscalationFactor(now, 36, 0.08), 1e-12)
	assert.Equal(t, 1.2, GetEscalationFactor(now, 48, 0.10))
	// A negative rate never discounts.
	assert.Equal(t, 1.0, GetEscalationFactor(now, 12, -0.05))
}

func TestDetectCurrency(t *testing.T) {
	tests := []struct {
		name string
		info ProjectInfo
		want string
	}{
		{"explicit wins", ProjectInfo{Currency: "inr", Location: "Sydney"}, "INR"},
		{"invalid explicit falls through to location", ProjectInfo{Currency: "JPY", Location: "Sydney"}, "AUD"},
		{"location", ProjectInfo{Location: "Sydney"}, "AUD"},
		{"notes keyword", ProjectInfo{Notes: "site visit scheduled in london"}, "GBP"},
		{"nothing", ProjectInfo{}, "USD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectCurrency(tt.info))
		})
	}
}
