package domain

import (
	"errors"
	"testing"
)

func TestValidateFinancingInput_Valid(t *testing.T) {
	cases := []FinancingInput{
		{Price: 300000, DownPayment: 60000, TermYears: 5},
		{Price: 1, DownPayment: 0, TermYears: 3},
		{Price: 250000, DownPayment: 249999.99, TermYears: 6},
	}
	for _, in := range cases {
		if err := ValidateFinancingInput(in, nil); err != nil {
			t.Errorf("expected valid for %+v, got %v", in, err)
		}
	}
}

func TestValidateFinancingInput_Rejections(t *testing.T) {
	cases := []struct {
		in   FinancingInput
		want error
	}{
		{FinancingInput{Price: 0, DownPayment: 0, TermYears: 5}, ErrInvalidPrice},
		{FinancingInput{Price: -10, DownPayment: 0, TermYears: 5}, ErrInvalidPrice},
		{FinancingInput{Price: 100, DownPayment: -1, TermYears: 5}, ErrInvalidDownPayment},
		{FinancingInput{Price: 100, DownPayment: 100, TermYears: 5}, ErrInvalidDownPayment},
		{FinancingInput{Price: 100, DownPayment: 150, TermYears: 5}, ErrInvalidDownPayment},
		{FinancingInput{Price: 100, DownPayment: 10, TermYears: 2}, ErrUnsupportedTerm},
		{FinancingInput{Price: 100, DownPayment: 10, TermYears: 7}, ErrUnsupportedTerm},
	}
	for _, c := range cases {
		err := ValidateFinancingInput(c.in, nil)
		if !errors.Is(err, c.want) {
			t.Errorf("%+v: expected %v, got %v", c.in, c.want, err)
		}
		if !IsValidation(err) {
			t.Errorf("%+v: expected ValidationError, got %T", c.in, err)
		}
	}
}

func TestValidateFinancingInput_CustomTerms(t *testing.T) {
	in := FinancingInput{Price: 100, DownPayment: 0, TermYears: 2}
	if err := ValidateFinancingInput(in, []int{1, 2}); err != nil {
		t.Errorf("expected term 2 accepted, got %v", err)
	}
}

func TestValidateVehicle(t *testing.T) {
	ok := Vehicle{ID: "v1", Make: "Toyota", Model: "Corolla", Year: 2020, Price: 250000, Mileage: 30000}
	if err := ValidateVehicle(ok); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	bad := ok
	bad.ID = " "
	if err := ValidateVehicle(bad); !errors.Is(err, ErrInvalidVehicle) {
		t.Errorf("expected ErrInvalidVehicle for blank id, got %v", err)
	}
	bad = ok
	bad.Year = 1900
	if err := ValidateVehicle(bad); !errors.Is(err, ErrYearOutOfRange) {
		t.Errorf("expected ErrYearOutOfRange, got %v", err)
	}
	bad = ok
	bad.Price = 0
	if err := ValidateVehicle(bad); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
	bad = ok
	bad.Mileage = -5
	if err := ValidateVehicle(bad); !errors.Is(err, ErrInvalidVehicle) {
		t.Errorf("expected ErrInvalidVehicle for negative km, got %v", err)
	}
}

func TestValidateTopK(t *testing.T) {
	if err := ValidateTopK(1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, k := range []int{0, -3} {
		if err := ValidateTopK(k); !errors.Is(err, ErrInvalidTopK) {
			t.Errorf("k=%d: expected ErrInvalidTopK, got %v", k, err)
		}
	}
}

func TestValidateMessage(t *testing.T) {
	if err := ValidateMessage("u1", "hola"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateMessage("", "hola"); !errors.Is(err, ErrMissingUserID) {
		t.Errorf("expected ErrMissingUserID, got %v", err)
	}
	if err := ValidateMessage("u1", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("price", "0", ErrInvalidPrice)
	want := `validation: invalid price: price (value="0")`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestHandlerFailure_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := error(&HandlerFailure{Intent: IntentFinance, Err: inner})
	if !errors.Is(err, inner) {
		t.Error("expected HandlerFailure to unwrap to inner error")
	}
	var hf *HandlerFailure
	if !errors.As(err, &hf) || hf.Intent != IntentFinance {
		t.Errorf("unexpected failure: %+v", hf)
	}
}
