// Package finance computes fixed-rate amortization plans for vehicle purchases.
package finance

import (
	"math"
	"sort"

	"github.com/WessleyAI/wessley-sales/engine/domain"
)

// Calculator is stateless after construction and safe for concurrent use.
type Calculator struct {
	annualRate float64
	terms      []int
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithAnnualRate overrides the fixed yearly rate (default 10%).
func WithAnnualRate(r float64) Option {
	return func(c *Calculator) { c.annualRate = r }
}

// WithTerms overrides the accepted terms in years (default 3 to 6).
func WithTerms(years ...int) Option {
	return func(c *Calculator) {
		if len(years) > 0 {
			c.terms = append([]int(nil), years...)
		}
	}
}

// New creates a Calculator.
func New(opts ...Option) *Calculator {
	c := &Calculator{annualRate: domain.DefaultAnnualRate, terms: domain.SupportedTerms}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AnnualRate returns the configured yearly rate.
func (c *Calculator) AnnualRate() float64 { return c.annualRate }

// Terms returns the accepted terms in years.
func (c *Calculator) Terms() []int { return append([]int(nil), c.terms...) }

// Compute validates in and returns the unrounded amortization plan.
func (c *Calculator) Compute(in domain.FinancingInput) (domain.FinancingPlan, error) {
	if err := domain.ValidateFinancingInput(in, c.terms); err != nil {
		return domain.FinancingPlan{}, err
	}

	financed := in.Price - in.DownPayment
	r := c.annualRate / 12
	n := in.TermYears * 12

	var payment float64
	if r == 0 {
		payment = financed / float64(n)
	} else {
		f := math.Pow(1+r, float64(n))
		payment = financed * r * f / (f - 1)
	}
	total := payment * float64(n)

	return domain.FinancingPlan{
		Price:          in.Price,
		DownPayment:    in.DownPayment,
		AnnualRate:     c.annualRate,
		FinancedAmount: financed,
		MonthlyRate:    r,
		TermYears:      in.TermYears,
		TermMonths:     n,
		MonthlyPayment: payment,
		TotalPaid:      total,
		TotalInterest:  total - financed,
	}, nil
}

// DownPaymentShares are the down payment scenarios offered by Options.
var DownPaymentShares = []float64{0.10, 0.20, 0.30}

// Options returns plans for every down payment share and term, sorted by
// monthly payment ascending. A positive maxMonthly drops plans above it.
func (c *Calculator) Options(price, maxMonthly float64) ([]domain.FinancingPlan, error) {
	var out []domain.FinancingPlan
	for _, share := range DownPaymentShares {
		for _, years := range c.terms {
			p, err := c.Compute(domain.FinancingInput{Price: price, DownPayment: price * share, TermYears: years})
			if err != nil {
				return nil, err
			}
			if maxMonthly > 0 && p.MonthlyPayment > maxMonthly {
				continue
			}
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MonthlyPayment < out[j].MonthlyPayment })
	return out, nil
}
