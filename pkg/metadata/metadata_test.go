package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDocumentType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid invoice", "invoice", false},
		{"valid uppercase RECEIPT", "RECEIPT", false},
		{"valid waybill with spaces", "  waybill ", false},
		{"valid unknown", "unknown", false},
		{"invalid contract", "contract", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDocumentType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.True(t, got.IsValid())
		})
	}

	assert.True(t, DocumentUnknown.IsYearOnly())
	assert.False(t, DocumentInvoice.IsYearOnly())
}

func TestNewWarrantyDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected WarrantyDuration
		months   int
		hasTerm  bool
	}{
		{"6 months", WarrantySixMonths, 6, true},
		{"1 year", WarrantyOneYear, 12, true},
		{"2 Years", WarrantyTwoYears, 24, true},
		{"3_years", WarrantyThreeYears, 36, true},
		{"none", WarrantyNone, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NewWarrantyDuration(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)

			months, ok := got.Months()
			assert.Equal(t, tt.hasTerm, ok)
			assert.Equal(t, tt.months, months)
		})
	}

	_, err := NewWarrantyDuration("forever")
	assert.Error(t, err)
}

func TestNewStatusAndCondition(t *testing.T) {
	status, err := NewStatus("Decommissioned")
	assert.NoError(t, err)
	assert.Equal(t, StatusDecommissioned, status)

	_, err = NewStatus("in_transit")
	assert.Error(t, err)

	condition, err := NewCondition(" good ")
	assert.NoError(t, err)
	assert.Equal(t, ConditionGood, condition)

	_, err = NewCondition("broken")
	assert.Error(t, err)
}

func TestPrefixes(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(string) string
		input    string
		expected string
	}{
		{"single word category", CategoryPrefix, "Laptop", "LAP"},
		{"multi word category", CategoryPrefix, "Tarjeta de red", "TDR"},
		{"accented category", CategoryPrefix, "Cámara", "CAM"},
		{"short category", CategoryPrefix, "PC", "PC"},
		{"company initials", CompanyPrefix, "Acme Soluciones Tecnológicas SA", "ASTS"},
		{"single word company", CompanyPrefix, "Globex", "GLOB"},
		{"empty name", CompanyPrefix, "  ", "GEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.fn(tt.input))
			assert.Equal(t, tt.fn(tt.input), tt.fn(tt.input))
		})
	}
}
