// Package warranty derives the warranty state of an asset from its purchase
// date (or approximate purchase year) and the declared warranty duration.
package warranty

import (
	"time"

	"assettracker/pkg/metadata"
)

type Status string

const (
	StatusCurrent Status = "current"
	StatusExpired Status = "expired"
	StatusUnknown Status = "unknown"
)

type Input struct {
	// PurchaseDate is the exact purchase date. It takes precedence over
	// PurchaseYear when both are set.
	PurchaseDate *time.Time
	// PurchaseYear is the approximate purchase year, 0 when unknown.
	PurchaseYear int
	Duration     metadata.WarrantyDuration
}

type Result struct {
	Status    Status     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// EffectiveDate resolves the purchase date used for the computation. A
// year-only input resolves to January 1 of that year.
func (in Input) EffectiveDate() (time.Time, bool) {
	if in.PurchaseDate != nil && !in.PurchaseDate.IsZero() {
		return truncateDay(*in.PurchaseDate), true
	}
	if in.PurchaseYear > 0 {
		return time.Date(in.PurchaseYear, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// Compute is pure: the same input and day always produce the same result.
// The warranty is still current on its expiry day.
func Compute(in Input, now time.Time) Result {
	effective, ok := in.EffectiveDate()
	if !ok {
		return Result{Status: StatusUnknown}
	}

	months, ok := in.Duration.Months()
	if !ok {
		return Result{Status: StatusUnknown}
	}

	expiresAt := effective.AddDate(0, months, 0)
	if truncateDay(now).After(expiresAt) {
		return Result{Status: StatusExpired, ExpiresAt: &expiresAt}
	}

	return Result{Status: StatusCurrent, ExpiresAt: &expiresAt}
}

// Calculator binds Compute to a clock.
type Calculator struct {
	now func() time.Time
}

func NewCalculator(now func() time.Time) *Calculator {
	if now == nil {
		now = time.Now
	}
	return &Calculator{now: now}
}

func (c *Calculator) Compute(in Input) Result {
	return Compute(in, c.now())
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
