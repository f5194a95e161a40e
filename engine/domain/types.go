// Package domain defines core domain types, constants, and validation for the
// sales assistant engines. It acts as the validation gate at pipeline entry points.
package domain

import (
	"math"
	"strconv"
	"strings"
)

// Vehicle is a single stock unit in the catalog. Records are created once at
// catalog load and never mutated afterwards.
type Vehicle struct {
	ID        string    `json:"id"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      int       `json:"year"`
	Version   string    `json:"version,omitempty"`
	BodyType  string    `json:"body_type,omitempty"`
	Price     float64   `json:"price"`
	Mileage   int       `json:"mileage"`
	Features  []string  `json:"features,omitempty"`
	Embedding []float32 `json:"-"`
}

// Title returns "<year> <make> <model>".
func (v Vehicle) Title() string {
	var b strings.Builder
	if v.Year > 0 {
		b.WriteString(strconv.Itoa(v.Year))
		b.WriteByte(' ')
	}
	b.WriteString(v.Make)
	if v.Model != "" {
		b.WriteByte(' ')
		b.WriteString(v.Model)
	}
	return b.String()
}

// HasFeature reports whether the vehicle carries the tag (case-insensitive).
func (v Vehicle) HasFeature(tag string) bool {
	for _, f := range v.Features {
		if strings.EqualFold(f, tag) {
			return true
		}
	}
	return false
}

// Filters narrow the candidate set of a catalog search. Zero values mean unset.
type Filters struct {
	MaxPrice   float64 `json:"max_price,omitempty"`
	MinYear    int     `json:"min_year,omitempty"`
	MaxMileage int     `json:"max_mileage,omitempty"`
	BodyType   string  `json:"body_type,omitempty"`
	Make       string  `json:"make,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// Inherit returns f with every unset field taken from prev.
func (f Filters) Inherit(prev Filters) Filters {
	if f.MaxPrice == 0 {
		f.MaxPrice = prev.MaxPrice
	}
	if f.MinYear == 0 {
		f.MinYear = prev.MinYear
	}
	if f.MaxMileage == 0 {
		f.MaxMileage = prev.MaxMileage
	}
	if f.BodyType == "" {
		f.BodyType = prev.BodyType
	}
	if f.Make == "" {
		f.Make = prev.Make
	}
	return f
}

// Match reports whether v satisfies every set filter.
func (f Filters) Match(v *Vehicle) bool {
	if f.MaxPrice > 0 && v.Price > f.MaxPrice {
		return false
	}
	if f.MinYear > 0 && v.Year < f.MinYear {
		return false
	}
	if f.MaxMileage > 0 && v.Mileage > f.MaxMileage {
		return false
	}
	if f.BodyType != "" && !strings.EqualFold(f.BodyType, v.BodyType) {
		return false
	}
	if f.Make != "" && !strings.EqualFold(f.Make, v.Make) {
		return false
	}
	return true
}

// Preferences is a single search request derived from a user message.
type Preferences struct {
	Query   string  `json:"query"`
	Filters Filters `json:"filters"`
}

// RankedResult is one scored search hit. Vehicle points into the catalog store.
type RankedResult struct {
	Vehicle *Vehicle `json:"vehicle"`
	Score   float64  `json:"score"`
}

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentGeneral       Intent = "GENERAL"
	IntentCatalogSearch Intent = "CATALOG_SEARCH"
	IntentFinance       Intent = "FINANCE_CALCULATION"
	IntentUnknown       Intent = "UNKNOWN"
)

// ClassifiableIntents are the categories a classifier may return.
var ClassifiableIntents = []Intent{IntentGeneral, IntentCatalogSearch, IntentFinance}

// ParseIntent maps an exact label to an Intent. UNKNOWN is not parseable.
func ParseIntent(s string) (Intent, bool) {
	for _, in := range ClassifiableIntents {
		if string(in) == s {
			return in, true
		}
	}
	return IntentUnknown, false
}

// FinancingInput holds the parameters of a financing request.
type FinancingInput struct {
	Price       float64 `json:"price"`
	DownPayment float64 `json:"down_payment"`
	TermYears   int     `json:"term_years"`
}

// FinancingPlan is the result of an amortization computation. Values are
// unrounded; use Rounded for presentation.
type FinancingPlan struct {
	Price          float64 `json:"price"`
	DownPayment    float64 `json:"down_payment"`
	AnnualRate     float64 `json:"annual_rate"`
	FinancedAmount float64 `json:"financed_amount"`
	MonthlyRate    float64 `json:"monthly_rate"`
	TermYears      int     `json:"term_years"`
	TermMonths     int     `json:"term_months"`
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalPaid      float64 `json:"total_paid"`
	TotalInterest  float64 `json:"total_interest"`
}

// Rounded returns a copy with currency amounts rounded to 2 decimals.
func (p FinancingPlan) Rounded() FinancingPlan {
	p.Price = Round2(p.Price)
	p.DownPayment = Round2(p.DownPayment)
	p.FinancedAmount = Round2(p.FinancedAmount)
	p.MonthlyPayment = Round2(p.MonthlyPayment)
	p.TotalPaid = Round2(p.TotalPaid)
	p.TotalInterest = Round2(p.TotalInterest)
	return p
}

// Round2 rounds half away from zero to 2 decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
