package domain

import "testing"

func TestParseIntent(t *testing.T) {
	for _, in := range ClassifiableIntents {
		got, ok := ParseIntent(string(in))
		if !ok || got != in {
			t.Errorf("ParseIntent(%q) = %q, %v", in, got, ok)
		}
	}
	for _, s := range []string{"UNKNOWN", "general", "", "FINANCE"} {
		got, ok := ParseIntent(s)
		if ok || got != IntentUnknown {
			t.Errorf("ParseIntent(%q) = %q, %v; want UNKNOWN,false", s, got, ok)
		}
	}
}

func TestFilters_Match(t *testing.T) {
	v := &Vehicle{ID: "a", Make: "Mazda", Model: "CX-5", Year: 2021, BodyType: "suv", Price: 400000, Mileage: 20000}
	cases := []struct {
		f    Filters
		want bool
	}{
		{Filters{}, true},
		{Filters{MaxPrice: 400000}, true},
		{Filters{MaxPrice: 399999}, false},
		{Filters{MinYear: 2021}, true},
		{Filters{MinYear: 2022}, false},
		{Filters{MaxMileage: 10000}, false},
		{Filters{BodyType: "SUV"}, true},
		{Filters{BodyType: "sedan"}, false},
		{Filters{Make: "mazda"}, true},
		{Filters{Make: "Kia"}, false},
	}
	for _, c := range cases {
		if got := c.f.Match(v); got != c.want {
			t.Errorf("%+v: got %v, want %v", c.f, got, c.want)
		}
	}
	if !(Filters{}).IsZero() || (Filters{MinYear: 1}).IsZero() {
		t.Error("IsZero mismatch")
	}
}

func TestFilters_Inherit(t *testing.T) {
	prev := Filters{MaxPrice: 400000, BodyType: "suv", Make: "Nissan", MinYear: 2019}
	got := Filters{MaxPrice: 300000, Make: "Kia"}.Inherit(prev)
	want := Filters{MaxPrice: 300000, BodyType: "suv", Make: "Kia", MinYear: 2019}
	if got != want {
		t.Errorf("Inherit = %+v, want %+v", got, want)
	}
	if (Filters{}).Inherit(Filters{}) != (Filters{}) {
		t.Error("inheriting from zero must stay zero")
	}
}

func TestVehicle_TitleAndFeatures(t *testing.T) {
	v := Vehicle{Make: "Honda", Model: "Civic", Year: 2019, Features: []string{"bluetooth", "CarPlay"}}
	if got := v.Title(); got != "2019 Honda Civic" {
		t.Errorf("Title = %q", got)
	}
	if !v.HasFeature("carplay") || v.HasFeature("sunroof") {
		t.Error("HasFeature mismatch")
	}
}

func TestFinancingPlan_Rounded(t *testing.T) {
	p := FinancingPlan{MonthlyPayment: 5099.29074, TotalPaid: 305957.4444, TotalInterest: 65957.4444}
	r := p.Rounded()
	if r.MonthlyPayment != 5099.29 || r.TotalPaid != 305957.44 || r.TotalInterest != 65957.44 {
		t.Errorf("unexpected rounding: %+v", r)
	}
	if p.MonthlyPayment != 5099.29074 {
		t.Error("Rounded must not mutate the receiver")
	}
}

func TestCanonicalBodyType(t *testing.T) {
	if CanonicalBodyType(" Camioneta ") != "suv" {
		t.Error("expected camioneta to map to suv")
	}
	if CanonicalBodyType("tractor") != "" {
		t.Error("expected unknown body type to be empty")
	}
}
