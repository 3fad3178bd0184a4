package metadata

import (
	"fmt"
	"strings"
)

// DocumentType is the kind of purchase document backing an asset.
type DocumentType string

const (
	DocumentInvoice DocumentType = "invoice"
	DocumentReceipt DocumentType = "receipt"
	DocumentWaybill DocumentType = "waybill"
	// DocumentUnknown means no document survives; only an approximate
	// purchase year is recorded.
	DocumentUnknown DocumentType = "unknown"
)

func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentInvoice, DocumentReceipt, DocumentWaybill, DocumentUnknown:
		return true
	default:
		return false
	}
}

// IsYearOnly reports whether the purchase is dated by year instead of an
// exact date.
func (d DocumentType) IsYearOnly() bool {
	return d == DocumentUnknown
}

func NewDocumentType(value string) (DocumentType, error) {
	documentType := DocumentType(normalize(value))
	if !documentType.IsValid() {
		return documentType, fmt.Errorf(
			"value not valid, only valid values are: %s, %s, %s, %s",
			DocumentInvoice, DocumentReceipt, DocumentWaybill, DocumentUnknown,
		)
	}

	return documentType, nil
}

func (d DocumentType) String() string {
	return string(d)
}

func normalize(value string) string {
	return strings.Replace(strings.ToLower(strings.TrimSpace(value)), " ", "_", -1)
}
