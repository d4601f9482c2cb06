package model

import "regexp"

// Category classifies an indicator into one of the three ESG pillars.
type Category string

const (
	CategoryEnvironmental Category = "environmental"
	CategorySocial        Category = "social"
	CategoryGovernance    Category = "governance"
)

// Range is a closed numeric interval used for plausibility checks.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether v lies inside the closed interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// IndicatorSpec describes one target ESG metric: how to recognize it in
// report text and what a plausible value looks like. Specs are loaded once
// at startup and never mutated.
type IndicatorSpec struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	Unit          string   `yaml:"unit" json:"unit"`
	Category      Category `yaml:"category" json:"category"`
	SearchTerms   []string `yaml:"search_terms" json:"search_terms"`
	SectionHints  []string `yaml:"section_hints" json:"section_hints"`
	TablePatterns []string `yaml:"table_patterns" json:"table_patterns"`
	// KiloMarkers are substrings that, when present in a pattern match,
	// indicate the figure is expressed in thousands of the base unit
	// (e.g. "kt" for emissions reported in kilotonnes).
	KiloMarkers   []string `yaml:"kilo_markers,omitempty" json:"kilo_markers,omitempty"`
	ExpectedRange Range    `yaml:"expected_range" json:"expected_range"`

	// Patterns holds the case-insensitive compiled form of TablePatterns,
	// pre-compiled at catalog load.
	Patterns []*regexp.Regexp `yaml:"-" json:"-"`
}

// YearValued reports whether the indicator's value is itself a calendar
// year (e.g. a net-zero target year). Year-valued indicators are exempt
// from the year-like false-match filter in pattern extraction.
func (s *IndicatorSpec) YearValued() bool {
	return s.Unit == "year"
}
