package metadata

import "fmt"

// WarrantyDuration is the declared warranty length selected on registration.
type WarrantyDuration string

const (
	WarrantySixMonths  WarrantyDuration = "6_months"
	WarrantyOneYear    WarrantyDuration = "1_year"
	WarrantyTwoYears   WarrantyDuration = "2_years"
	WarrantyThreeYears WarrantyDuration = "3_years"
	WarrantyNone       WarrantyDuration = "none"
)

var warrantyMonths = map[WarrantyDuration]int{
	WarrantySixMonths:  6,
	WarrantyOneYear:    12,
	WarrantyTwoYears:   24,
	WarrantyThreeYears: 36,
}

// Months returns the month count of the duration. ok is false for "none" and
// for an unset duration.
func (w WarrantyDuration) Months() (int, bool) {
	months, ok := warrantyMonths[w]
	return months, ok
}

func (w WarrantyDuration) IsValid() bool {
	if w == WarrantyNone {
		return true
	}
	_, ok := warrantyMonths[w]
	return ok
}

// NewWarrantyDuration accepts both the stored form ("2_years") and the
// human form ("2 years", "1 Year").
func NewWarrantyDuration(value string) (WarrantyDuration, error) {
	duration := WarrantyDuration(normalize(value))
	switch duration {
	case "6_month":
		duration = WarrantySixMonths
	case "1_years":
		duration = WarrantyOneYear
	case "2_year":
		duration = WarrantyTwoYears
	case "3_year":
		duration = WarrantyThreeYears
	}
	if !duration.IsValid() {
		return "", fmt.Errorf("invalid warranty duration: %s", value)
	}
	return duration, nil
}

func (w WarrantyDuration) String() string {
	return string(w)
}
