package domain

import (
	"strconv"
	"strings"
)

// SupportedTerms are the accepted financing terms in years.
var SupportedTerms = []int{3, 4, 5, 6}

// DefaultAnnualRate is the fixed yearly interest rate offered.
const DefaultAnnualRate = 0.10

// ValidateFinancingInput checks a financing request before any computation.
func ValidateFinancingInput(in FinancingInput, terms []int) error {
	if terms == nil {
		terms = SupportedTerms
	}
	if !(in.Price > 0) {
		return NewValidationError("price", fmtFloat(in.Price), ErrInvalidPrice)
	}
	if in.DownPayment < 0 || in.DownPayment >= in.Price {
		return NewValidationError("down_payment", fmtFloat(in.DownPayment), ErrInvalidDownPayment)
	}
	for _, t := range terms {
		if t == in.TermYears {
			return nil
		}
	}
	return NewValidationError("term_years", strconv.Itoa(in.TermYears), ErrUnsupportedTerm)
}

// ValidateVehicle checks a catalog record. Unknown makes are accepted; the
// catalog is the source of truth for inventory.
func ValidateVehicle(v Vehicle) error {
	if strings.TrimSpace(v.ID) == "" {
		return NewValidationError("id", v.ID, ErrInvalidVehicle)
	}
	if strings.TrimSpace(v.Make) == "" {
		return NewValidationError("make", v.Make, ErrInvalidVehicle)
	}
	if strings.TrimSpace(v.Model) == "" {
		return NewValidationError("model", v.Model, ErrInvalidVehicle)
	}
	if v.Year < MinModelYear || v.Year > MaxModelYear {
		return NewValidationError("year", strconv.Itoa(v.Year), ErrYearOutOfRange)
	}
	if !(v.Price > 0) {
		return NewValidationError("price", fmtFloat(v.Price), ErrInvalidPrice)
	}
	if v.Mileage < 0 {
		return NewValidationError("mileage", strconv.Itoa(v.Mileage), ErrInvalidVehicle)
	}
	return nil
}

// ValidateTopK rejects non-positive result counts.
func ValidateTopK(k int) error {
	if k < 1 {
		return NewValidationError("top_k", strconv.Itoa(k), ErrInvalidTopK)
	}
	return nil
}

// ValidateMessage checks an inbound chat message.
func ValidateMessage(userID, text string) error {
	if strings.TrimSpace(userID) == "" {
		return NewValidationError("user_id", userID, ErrMissingUserID)
	}
	if strings.TrimSpace(text) == "" {
		return NewValidationError("message", text, ErrEmptyMessage)
	}
	return nil
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
