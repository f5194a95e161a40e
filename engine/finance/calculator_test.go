package finance

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/WessleyAI/wessley-sales/engine/domain"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestCompute_ReferencePlan(t *testing.T) {
	p, err := New().Compute(domain.FinancingInput{Price: 300000, DownPayment: 60000, TermYears: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FinancedAmount != 240000 || p.TermMonths != 60 || !near(p.MonthlyRate, 0.10/12, 1e-12) {
		t.Errorf("unexpected plan: %+v", p)
	}
	r := p.Rounded()
	if r.MonthlyPayment != 5099.29 {
		t.Errorf("monthly = %v, want 5099.29", r.MonthlyPayment)
	}
	if !near(r.TotalPaid, 305957.44, 0.01) || !near(r.TotalInterest, 65957.44, 0.01) {
		t.Errorf("total = %v interest = %v", r.TotalPaid, r.TotalInterest)
	}
}

func TestCompute_InterestIdentity(t *testing.T) {
	c := New()
	for _, years := range []int{3, 4, 5, 6} {
		for _, down := range []float64{0, 12345.67, 99999} {
			p, err := c.Compute(domain.FinancingInput{Price: 415000, DownPayment: down, TermYears: years})
			if err != nil {
				t.Fatal(err)
			}
			if !near(p.FinancedAmount+p.TotalInterest, p.TotalPaid, 0.01) {
				t.Errorf("years=%d down=%v: %v + %v != %v", years, down, p.FinancedAmount, p.TotalInterest, p.TotalPaid)
			}
		}
	}
}

func TestCompute_PaymentMonotonicInDownPayment(t *testing.T) {
	c := New()
	prev := math.Inf(1)
	for down := 0.0; down < 200000; down += 10000 {
		p, err := c.Compute(domain.FinancingInput{Price: 200000, DownPayment: down, TermYears: 4})
		if err != nil {
			t.Fatal(err)
		}
		if p.MonthlyPayment > prev {
			t.Fatalf("payment rose as down payment increased: %v > %v at down=%v", p.MonthlyPayment, prev, down)
		}
		prev = p.MonthlyPayment
	}
}

func TestCompute_ZeroRate(t *testing.T) {
	p, err := New(WithAnnualRate(0)).Compute(domain.FinancingInput{Price: 120000, DownPayment: 0, TermYears: 5})
	if err != nil {
		t.Fatal(err)
	}
	if p.MonthlyPayment != 2000 || p.TotalInterest != 0 {
		t.Errorf("zero-rate plan = %+v", p)
	}
}

func TestCompute_Rejections(t *testing.T) {
	c := New()
	cases := []struct {
		in   domain.FinancingInput
		want error
	}{
		{domain.FinancingInput{Price: 100000, DownPayment: 100000, TermYears: 5}, domain.ErrInvalidDownPayment},
		{domain.FinancingInput{Price: 100000, DownPayment: 150000, TermYears: 5}, domain.ErrInvalidDownPayment},
		{domain.FinancingInput{Price: 0, DownPayment: 0, TermYears: 5}, domain.ErrInvalidPrice},
		{domain.FinancingInput{Price: 100000, DownPayment: 0, TermYears: 7}, domain.ErrUnsupportedTerm},
	}
	for _, tc := range cases {
		p, err := c.Compute(tc.in)
		if !errors.Is(err, tc.want) {
			t.Errorf("%+v: expected %v, got %v", tc.in, tc.want, err)
		}
		if p != (domain.FinancingPlan{}) {
			t.Errorf("%+v: formula must not run on invalid input, got %+v", tc.in, p)
		}
	}
}

func TestCompute_CustomTerms(t *testing.T) {
	c := New(WithTerms(1, 2))
	if _, err := c.Compute(domain.FinancingInput{Price: 1000, TermYears: 2}); err != nil {
		t.Errorf("term 2 should be accepted: %v", err)
	}
	if _, err := c.Compute(domain.FinancingInput{Price: 1000, TermYears: 5}); !errors.Is(err, domain.ErrUnsupportedTerm) {
		t.Errorf("term 5 should be rejected, got %v", err)
	}
	if got := c.Terms(); len(got) != 2 {
		t.Errorf("terms = %v", got)
	}
}

func TestOptions(t *testing.T) {
	plans, err := New().Options(300000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != len(DownPaymentShares)*len(domain.SupportedTerms) {
		t.Fatalf("got %d plans", len(plans))
	}
	for i := 1; i < len(plans); i++ {
		if plans[i].MonthlyPayment < plans[i-1].MonthlyPayment {
			t.Fatal("plans must be sorted by monthly payment")
		}
	}
	capped, _ := New().Options(300000, 6000)
	for _, p := range capped {
		if p.MonthlyPayment > 6000 {
			t.Errorf("plan above cap: %+v", p)
		}
	}
	if _, err := New().Options(0, 0); !errors.Is(err, domain.ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestMoney(t *testing.T) {
	cases := []struct {
		v    float64
		d    int
		want string
	}{
		{300000, 0, "$300,000"},
		{5099.290738, 2, "$5,099.29"},
		{305957.4443, 2, "$305,957.44"},
		{12, 2, "$12.00"},
		{-1500, 0, "-$1,500"},
		{1234567.891, 2, "$1,234,567.89"},
	}
	for _, tc := range cases {
		if got := Money(tc.v, tc.d); got != tc.want {
			t.Errorf("Money(%v, %d) = %q, want %q", tc.v, tc.d, got, tc.want)
		}
	}
}

func TestFormat(t *testing.T) {
	p, _ := New().Compute(domain.FinancingInput{Price: 300000, DownPayment: 60000, TermYears: 5})
	out := Format(p)
	for _, want := range []string{"$300,000 MXN", "$60,000 MXN", "$240,000.00", "5 años (60 meses)", "$5,099.29 MXN", "$305,957.44", "$65,957.44", "10%"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatOptions(t *testing.T) {
	if !strings.Contains(FormatOptions(nil), "No encontré") {
		t.Error("expected empty message")
	}
	plans, _ := New().Options(200000, 0)
	out := FormatOptions(plans[:2])
	if !strings.HasPrefix(out, "Opciones de financiamiento:") || !strings.Contains(out, "2. ") {
		t.Errorf("out = %s", out)
	}
}
