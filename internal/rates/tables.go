// Package rates resolves members, grades and locations into installed unit
// rates. All lookups are deterministic pure functions over the static
// reference tables in this file — no network or stateful dependency.
package rates

// Rate is one installed unit rate. Read-only at run time.
type Rate struct {
	Currency   string  `json:"currency"`
	Category   string  `json:"category"`
	Subtype    string  `json:"subtype"`
	BaseRate   float64 `json:"baseRate"`
	Unit       string  `json:"unit"`
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	Descriptor string  `json:"descriptor,omitempty"`
}

// LocationFactor adjusts a base rate to a market and carries that market's
// currency. Unknown locations default to multiplier 1.0 and USD.
type LocationFactor struct {
	Location   string
	Multiplier float64
	Currency   string
}

// Rate categories.
const (
	CategorySteel    = "steel"
	CategoryConcrete = "concrete"
	CategoryRebar    = "rebar"
	CategoryFab      = "fabrication"
	CategorySurface  = "surface"
	CategoryErection = "erection"
	CategoryHardware = "hardware"
)

// rateTable is keyed currency → category → subtype. Steel, rebar, fabrication,
// surface and erection rates are per short ton (USD) or per tonne (others);
// concrete per CY or m³; hardware per piece.
var rateTable = map[string]map[string]map[string]Rate{
	"USD": {
		CategorySteel: {
			"light":  {Currency: "USD", Category: CategorySteel, Subtype: "light", BaseRate: 2400, Unit: "ton", Low: 2200, High: 2700, Descriptor: "light sections under 30 lb/ft"},
			"medium": {Currency: "USD", Category: CategorySteel, Subtype: "medium", BaseRate: 2200, Unit: "ton", Low: 2000, High: 2450, Descriptor: "medium sections 30-60 lb/ft"},
			"heavy":  {Currency: "USD", Category: CategorySteel, Subtype: "heavy", BaseRate: 2000, Unit: "ton", Low: 1850, High: 2250, Descriptor: "heavy sections over 60 lb/ft"},
			"hss":    {Currency: "USD", Category: CategorySteel, Subtype: "hss", BaseRate: 2600, Unit: "ton", Low: 2400, High: 2900, Descriptor: "hollow structural sections"},
			"peb":    {Currency: "USD", Category: CategorySteel, Subtype: "peb", BaseRate: 2100, Unit: "ton", Low: 1900, High: 2350, Descriptor: "pre-engineered building frames"},
		},
		CategoryConcrete: {
			"3000psi": {Currency: "USD", Category: CategoryConcrete, Subtype: "3000psi", BaseRate: 180, Unit: "CY", Low: 160, High: 210},
			"4000psi": {Currency: "USD", Category: CategoryConcrete, Subtype: "4000psi", BaseRate: 200, Unit: "CY", Low: 180, High: 235},
			"5000psi": {Currency: "USD", Category: CategoryConcrete, Subtype: "5000psi", BaseRate: 225, Unit: "CY", Low: 205, High: 260},
		},
		CategoryRebar: {
			"installed": {Currency: "USD", Category: CategoryRebar, Subtype: "installed", BaseRate: 1800, Unit: "ton", Low: 1600, High: 2100},
		},
		CategoryFab: {
			"standard": {Currency: "USD", Category: CategoryFab, Subtype: "standard", BaseRate: 800, Unit: "ton", Low: 700, High: 950},
			"complex":  {Currency: "USD", Category: CategoryFab, Subtype: "complex", BaseRate: 1200, Unit: "ton", Low: 1050, High: 1400},
		},
		CategorySurface: {
			"paint": {Currency: "USD", Category: CategorySurface, Subtype: "paint", BaseRate: 350, Unit: "ton", Low: 300, High: 420},
		},
		CategoryErection: {
			"standard": {Currency: "USD", Category: CategoryErection, Subtype: "standard", BaseRate: 600, Unit: "ton", Low: 520, High: 700},
			"high":     {Currency: "USD", Category: CategoryErection, Subtype: "high", BaseRate: 900, Unit: "ton", Low: 800, High: 1050},
		},
		CategoryHardware: {
			"bolt":        {Currency: "USD", Category: CategoryHardware, Subtype: "bolt", BaseRate: 15, Unit: "ea", Low: 12, High: 20},
			"anchor bolt": {Currency: "USD", Category: CategoryHardware, Subtype: "anchor bolt", BaseRate: 25, Unit: "ea", Low: 20, High: 35},
			"weld":        {Currency: "USD", Category: CategoryHardware, Subtype: "weld", BaseRate: 50, Unit: "ea", Low: 40, High: 65},
			"nut":         {Currency: "USD", Category: CategoryHardware, Subtype: "nut", BaseRate: 2, Unit: "ea", Low: 1.5, High: 3},
			"washer":      {Currency: "USD", Category: CategoryHardware, Subtype: "washer", BaseRate: 1, Unit: "ea", Low: 0.75, High: 1.5},
		},
	},
	"INR": {
		CategorySteel: {
			"light":  {Currency: "INR", Category: CategorySteel, Subtype: "light", BaseRate: 95000, Unit: "tonne", Low: 88000, High: 104000, Descriptor: "light sections under 40 kg/m"},
			"medium": {Currency: "INR", Category: CategorySteel, Subtype: "medium", BaseRate: 88000, Unit: "tonne", Low: 82000, High: 96000, Descriptor: "medium sections 40-80 kg/m"},
			"heavy":  {Currency: "INR", Category: CategorySteel, Subtype: "heavy", BaseRate: 82000, Unit: "tonne", Low: 76000, High: 90000, Descriptor: "heavy sections over 80 kg/m"},
			"hss":    {Currency: "INR", Category: CategorySteel, Subtype: "hss", BaseRate: 105000, Unit: "tonne", Low: 97000, High: 115000},
			"peb":    {Currency: "INR", Category: CategorySteel, Subtype: "peb", BaseRate: 78000, Unit: "tonne", Low: 72000, High: 86000, Descriptor: "PEB built-up frames"},
		},
		CategoryConcrete: {
			"m20": {Currency: "INR", Category: CategoryConcrete, Subtype: "m20", BaseRate: 5500, Unit: "m³", Low: 5000, High: 6200},
			"m25": {Currency: "INR", Category: CategoryConcrete, Subtype: "m25", BaseRate: 6200, Unit: "m³", Low: 5700, High: 7000},
			"m30": {Currency: "INR", Category: CategoryConcrete, Subtype: "m30", BaseRate: 7000, Unit: "m³", Low: 6400, High: 7900},
		},
		CategoryRebar: {
			"installed": {Currency: "INR", Category: CategoryRebar, Subtype: "installed", BaseRate: 72000, Unit: "tonne", Low: 66000, High: 80000},
		},
		CategoryFab: {
			"standard": {Currency: "INR", Category: CategoryFab, Subtype: "standard", BaseRate: 25000, Unit: "tonne", Low: 22000, High: 29000},
			"complex":  {Currency: "INR", Category: CategoryFab, Subtype: "complex", BaseRate: 40000, Unit: "tonne", Low: 35000, High: 46000},
		},
		CategorySurface: {
			"paint": {Currency: "INR", Category: CategorySurface, Subtype: "paint", BaseRate: 12000, Unit: "tonne", Low: 10000, High: 14500},
		},
		CategoryErection: {
			"standard": {Currency: "INR", Category: CategoryErection, Subtype: "standard", BaseRate: 18000, Unit: "tonne", Low: 16000, High: 21000},
			"high":     {Currency: "INR", Category: CategoryErection, Subtype: "high", BaseRate: 28000, Unit: "tonne", Low: 25000, High: 32500},
		},
		CategoryHardware: {
			"bolt":        {Currency: "INR", Category: CategoryHardware, Subtype: "bolt", BaseRate: 120, Unit: "ea", Low: 95, High: 150},
			"anchor bolt": {Currency: "INR", Category: CategoryHardware, Subtype: "anchor bolt", BaseRate: 350, Unit: "ea", Low: 290, High: 430},
			"weld":        {Currency: "INR", Category: CategoryHardware, Subtype: "weld", BaseRate: 450, Unit: "ea", Low: 380, High: 550},
			"nut":         {Currency: "INR", Category: CategoryHardware, Subtype: "nut", BaseRate: 15, Unit: "ea", Low: 12, High: 20},
			"washer":      {Currency: "INR", Category: CategoryHardware, Subtype: "washer", BaseRate: 8, Unit: "ea", Low: 6, High: 11},
		},
	},
	"EUR": {
		CategorySteel: {
			"light":  {Currency: "EUR", Category: CategorySteel, Subtype: "light", BaseRate: 2200, Unit: "tonne", Low: 2000, High: 2450},
			"medium": {Currency: "EUR", Category: CategorySteel, Subtype: "medium", BaseRate: 2000, Unit: "tonne", Low: 1850, High: 2250},
			"heavy":  {Currency: "EUR", Category: CategorySteel, Subtype: "heavy", BaseRate: 1850, Unit: "tonne", Low: 1700, High: 2100},
			"hss":    {Currency: "EUR", Category: CategorySteel, Subtype: "hss", BaseRate: 2450, Unit: "tonne", Low: 2250, High: 2750},
			"peb":    {Currency: "EUR", Category: CategorySteel, Subtype: "peb", BaseRate: 1950, Unit: "tonne", Low: 1800, High: 2200},
		},
		CategoryConcrete: {
			"c25": {Currency: "EUR", Category: CategoryConcrete, Subtype: "c25", BaseRate: 110, Unit: "m³", Low: 95, High: 130},
			"c30": {Currency: "EUR", Category: CategoryConcrete, Subtype: "c30", BaseRate: 125, Unit: "m³", Low: 110, High: 145},
			"c35": {Currency: "EUR", Category: CategoryConcrete, Subtype: "c35", BaseRate: 140, Unit: "m³", Low: 125, High: 165},
		},
		CategoryRebar: {
			"installed": {Currency: "EUR", Category: CategoryRebar, Subtype: "installed", BaseRate: 1500, Unit: "tonne", Low: 1350, High: 1750},
		},
		CategoryFab: {
			"standard": {Currency: "EUR", Category: CategoryFab, Subtype: "standard", BaseRate: 750, Unit: "tonne", Low: 650, High: 880},
			"complex":  {Currency: "EUR", Category: CategoryFab, Subtype: "complex", BaseRate: 1150, Unit: "tonne", Low: 1000, High: 1350},
		},
		CategorySurface: {
			"paint": {Currency: "EUR", Category: CategorySurface, Subtype: "paint", BaseRate: 320, Unit: "tonne", Low: 280, High: 380},
		},
		CategoryErection: {
			"standard": {Currency: "EUR", Category: CategoryErection, Subtype: "standard", BaseRate: 550, Unit: "tonne", Low: 480, High: 650},
			"high":     {Currency: "EUR", Category: CategoryErection, Subtype: "high", BaseRate: 850, Unit: "tonne", Low: 750, High: 1000},
		},
		CategoryHardware: {
			"bolt":        {Currency: "EUR", Category: CategoryHardware, Subtype: "bolt", BaseRate: 12, Unit: "ea", Low: 10, High: 16},
			"anchor bolt": {Currency: "EUR", Category: CategoryHardware, Subtype: "anchor bolt", BaseRate: 22, Unit: "ea", Low: 18, High: 28},
			"weld":        {Currency: "EUR", Category: CategoryHardware, Subtype: "weld", BaseRate: 45, Unit: "ea", Low: 38, High: 56},
			"nut":         {Currency: "EUR", Category: CategoryHardware, Subtype: "nut", BaseRate: 1.5, Unit: "ea", Low: 1.2, High: 2},
			"washer":      {Currency: "EUR", Category: CategoryHardware, Subtype: "washer", BaseRate: 0.8, Unit: "ea", Low: 0.6, High: 1.1},
		},
	},
	"GBP": {
		CategorySteel: {
			"light":  {Currency: "GBP", Category: CategorySteel, Subtype: "light", BaseRate: 1950, Unit: "tonne", Low: 1780, High: 2180},
			"medium": {Currency: "GBP", Category: CategorySteel, Subtype: "medium", BaseRate: 1800, Unit: "tonne", Low: 1650, High: 2000},
			"heavy":  {Currency: "GBP", Category: CategorySteel, Subtype: "heavy", BaseRate: 1650, Unit: "tonne", Low: 1520, High: 1850},
			"hss":    {Currency: "GBP", Category: CategorySteel, Subtype: "hss", BaseRate: 2200, Unit: "tonne", Low: 2000, High: 2480},
			"peb":    {Currency: "GBP", Category: CategorySteel, Subtype: "peb", BaseRate: 1750, Unit: "tonne", Low: 1600, High: 1950},
		},
		CategoryConcrete: {
			"c25": {Currency: "GBP", Category: CategoryConcrete, Subtype: "c25", BaseRate: 105, Unit: "m³", Low: 92, High: 122},
			"c30": {Currency: "GBP", Category: CategoryConcrete, Subtype: "c30", BaseRate: 118, Unit: "m³", Low: 104, High: 138},
			"c35": {Currency: "GBP", Category: CategoryConcrete, Subtype: "c35", BaseRate: 132, Unit: "m³", Low: 118, High: 155},
		},
		CategoryRebar: {
			"installed": {Currency: "GBP", Category: CategoryRebar, Subtype: "installed", BaseRate: 1350, Unit: "tonne", Low: 1200, High: 1580},
		},
		CategoryFab: {
			"standard": {Currency: "GBP", Category: CategoryFab, Subtype: "standard", BaseRate: 680, Unit: "tonne", Low: 590, High: 800},
			"complex":  {Currency: "GBP", Category: CategoryFab, Subtype: "complex", BaseRate: 1050, Unit: "tonne", Low: 920, High: 1230},
		},
		CategorySurface: {
			"paint": {Currency: "GBP", Category: CategorySurface, Subtype: "paint", BaseRate: 290, Unit: "tonne", Low: 250, High: 345},
		},
		CategoryErection: {
			"standard": {Currency: "GBP", Category: CategoryErection, Subtype: "standard", BaseRate: 500, Unit: "tonne", Low: 435, High: 590},
			"high":     {Currency: "GBP", Category: CategoryErection, Subtype: "high", BaseRate: 780, Unit: "tonne", Low: 690, High: 910},
		},
		CategoryHardware: {
			"bolt":        {Currency: "GBP", Category: CategoryHardware, Subtype: "bolt", BaseRate: 11, Unit: "ea", Low: 9, High: 14},
			"anchor bolt": {Currency: "GBP", Category: CategoryHardware, Subtype: "anchor bolt", BaseRate: 20, Unit: "ea", Low: 16, High: 26},
			"weld":        {Currency: "GBP", Category: CategoryHardware, Subtype: "weld", BaseRate: 40, Unit: "ea", Low: 34, High: 50},
			"nut":         {Currency: "GBP", Category: CategoryHardware, Subtype: "nut", BaseRate: 1.4, Unit: "ea", Low: 1.1, High: 1.9},
			"washer":      {Currency: "GBP", Category: CategoryHardware, Subtype: "washer", BaseRate: 0.7, Unit: "ea", Low: 0.5, High: 1},
		},
	},
	"AUD": {
		CategorySteel: {
			"light":  {Currency: "AUD", Category: CategorySteel, Subtype: "light", BaseRate: 3400, Unit: "tonne", Low: 3100, High: 3800},
			"medium": {Currency: "AUD", Category: CategorySteel, Subtype: "medium", BaseRate: 3150, Unit: "tonne", Low: 2900, High: 3500},
			"heavy":  {Currency: "AUD", Category: CategorySteel, Subtype: "heavy", BaseRate: 2900, Unit: "tonne", Low: 2650, High: 3250},
			"hss":    {Currency: "AUD", Category: CategorySteel, Subtype: "hss", BaseRate: 3750, Unit: "tonne", Low: 3450, High: 4200},
			"peb":    {Currency: "AUD", Category: CategorySteel, Subtype: "peb", BaseRate: 3000, Unit: "tonne", Low: 2750, High: 3350},
		},
		CategoryConcrete: {
			"n25": {Currency: "AUD", Category: CategoryConcrete, Subtype: "n25", BaseRate: 250, Unit: "m³", Low: 220, High: 290},
			"n32": {Currency: "AUD", Category: CategoryConcrete, Subtype: "n32", BaseRate: 280, Unit: "m³", Low: 250, High: 325},
			"n40": {Currency: "AUD", Category: CategoryConcrete, Subtype: "n40", BaseRate: 315, Unit: "m³", Low: 280, High: 365},
		},
		CategoryRebar: {
			"installed": {Currency: "AUD", Category: CategoryRebar, Subtype: "installed", BaseRate: 2600, Unit: "tonne", Low: 2350, High: 3000},
		},
		CategoryFab: {
			"standard": {Currency: "AUD", Category: CategoryFab, Subtype: "standard", BaseRate: 1150, Unit: "tonne", Low: 1000, High: 1350},
			"complex":  {Currency: "AUD", Category: CategoryFab, Subtype: "complex", BaseRate: 1750, Unit: "tonne", Low: 1550, High: 2050},
		},
		CategorySurface: {
			"paint": {Currency: "AUD", Category: CategorySurface, Subtype: "paint", BaseRate: 500, Unit: "tonne", Low: 440, High: 590},
		},
		CategoryErection: {
			"standard": {Currency: "AUD", Category: CategoryErection, Subtype: "standard", BaseRate: 850, Unit: "tonne", Low: 750, High: 1000},
			"high":     {Currency: "AUD", Category: CategoryErection, Subtype: "high", BaseRate: 1300, Unit: "tonne", Low: 1150, High: 1520},
		},
		CategoryHardware: {
			"bolt":        {Currency: "AUD", Category: CategoryHardware, Subtype: "bolt", BaseRate: 22, Unit: "ea", Low: 18, High: 28},
			"anchor bolt": {Currency: "AUD", Category: CategoryHardware, Subtype: "anchor bolt", BaseRate: 38, Unit: "ea", Low: 32, High: 47},
			"weld":        {Currency: "AUD", Category: CategoryHardware, Subtype: "weld", BaseRate: 70, Unit: "ea", Low: 60, High: 88},
			"nut":         {Currency: "AUD", Category: CategoryHardware, Subtype: "nut", BaseRate: 3, Unit: "ea", Low: 2.4, High: 4},
			"washer":      {Currency: "AUD", Category: CategoryHardware, Subtype: "washer", BaseRate: 1.5, Unit: "ea", Low: 1.2, High: 2},
		},
	},
}

// locationFactors maps lowercase market names to multipliers and currency.
var locationFactors = map[string]LocationFactor{
	"new york":    {Location: "New York", Multiplier: 1.25, Currency: "USD"},
	"los angeles": {Location: "Los Angeles", Multiplier: 1.18, Currency: "USD"},
	"chicago":     {Location: "Chicago", Multiplier: 1.12, Currency: "USD"},
	"houston":     {Location: "Houston", Multiplier: 0.95, Currency: "USD"},
	"dallas":      {Location: "Dallas", Multiplier: 0.97, Currency: "USD"},
	"atlanta":     {Location: "Atlanta", Multiplier: 0.98, Currency: "USD"},
	"denver":      {Location: "Denver", Multiplier: 1.05, Currency: "USD"},
	"seattle":     {Location: "Seattle", Multiplier: 1.15, Currency: "USD"},
	"mumbai":      {Location: "Mumbai", Multiplier: 1.08, Currency: "INR"},
	"delhi":       {Location: "Delhi", Multiplier: 1.0, Currency: "INR"},
	"bangalore":   {Location: "Bangalore", Multiplier: 1.05, Currency: "INR"},
	"chennai":     {Location: "Chennai", Multiplier: 0.98, Currency: "INR"},
	"hyderabad":   {Location: "Hyderabad", Multiplier: 0.96, Currency: "INR"},
	"pune":        {Location: "Pune", Multiplier: 1.02, Currency: "INR"},
	"london":      {Location: "London", Multiplier: 1.3, Currency: "GBP"},
	"manchester":  {Location: "Manchester", Multiplier: 1.05, Currency: "GBP"},
	"birmingham":  {Location: "Birmingham", Multiplier: 1.08, Currency: "GBP"},
	"frankfurt":   {Location: "Frankfurt", Multiplier: 1.12, Currency: "EUR"},
	"berlin":      {Location: "Berlin", Multiplier: 1.08, Currency: "EUR"},
	"paris":       {Location: "Paris", Multiplier: 1.18, Currency: "EUR"},
	"amsterdam":   {Location: "Amsterdam", Multiplier: 1.14, Currency: "EUR"},
	"sydney":      {Location: "Sydney", Multiplier: 1.15, Currency: "AUD"},
	"melbourne":   {Location: "Melbourne", Multiplier: 1.1, Currency: "AUD"},
	"brisbane":    {Location: "Brisbane", Multiplier: 1.05, Currency: "AUD"},
	"perth":       {Location: "Perth", Multiplier: 1.12, Currency: "AUD"},
}

// gradeSynonyms maps heterogeneous concrete grade spellings to canonical
// rate-table buckets per currency.
var gradeSynonyms = map[string]map[string]string{
	"USD": {
		"3000":     "3000psi",
		"3000 psi": "3000psi",
		"3000psi":  "3000psi",
		"fc3000":   "3000psi",
		"4000":     "4000psi",
		"4000 psi": "4000psi",
		"4000psi":  "4000psi",
		"fc4000":   "4000psi",
		"5000":     "5000psi",
		"5000 psi": "5000psi",
		"5000psi":  "5000psi",
		"m20":      "3000psi",
		"m25":      "4000psi",
		"m30":      "4000psi",
		"c25":      "4000psi",
		"c30":      "4000psi",
	},
	"INR": {
		"m20":      "m20",
		"m 20":     "m20",
		"m25":      "m25",
		"m 25":     "m25",
		"m30":      "m30",
		"m 30":     "m30",
		"m35":      "m30",
		"3000psi":  "m20",
		"4000psi":  "m25",
		"5000psi":  "m30",
		"c25":      "m25",
		"c30":      "m30",
	},
	"EUR": {
		"c20": "c25", "c25": "c25", "c25/30": "c25",
		"c30": "c30", "c30/37": "c30",
		"c35": "c35", "c35/45": "c35",
		"m25": "c25", "m30": "c30",
		"4000psi": "c30",
	},
	"GBP": {
		"c25": "c25", "c25/30": "c25",
		"c30": "c30", "c30/37": "c30",
		"c35": "c35", "c35/45": "c35",
		"m25": "c25", "m30": "c30",
		"4000psi": "c30",
	},
	"AUD": {
		"n25": "n25", "n32": "n32", "n40": "n40",
		"c25": "n25", "c30": "n32", "m25": "n25", "m30": "n32",
		"4000psi": "n32",
	},
}

// defaultGrade is the currency-appropriate grade bucket when nothing can be
// resolved from the drawings.
var defaultGrade = map[string]string{
	"USD": "4000psi",
	"INR": "m25",
	"EUR": "c30",
	"GBP": "c30",
	"AUD": "n32",
}

// currencyKeywords drive free-text currency detection from project notes.
var currencyKeywords = map[string][]string{
	"INR": {"india", "mumbai", "delhi", "bangalore", "chennai", "hyderabad", "pune", "rupee"},
	"GBP": {"united kingdom", "uk", "england", "london", "manchester", "birmingham", "pound sterling"},
	"EUR": {"germany", "france", "netherlands", "frankfurt", "berlin", "paris", "amsterdam", "euro"},
	"AUD": {"australia", "sydney", "melbourne", "brisbane", "perth"},
	"USD": {"usa", "united states", "new york", "chicago", "houston", "dollar"},
}
