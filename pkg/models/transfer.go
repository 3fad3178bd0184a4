package models

import (
	"time"

	"assettracker/pkg/metadata"
)

// TransferPayload is what the store receives when a transfer commits.
type TransferPayload struct {
	// ID identifies the workflow that produced the transfer.
	ID                 string             `json:"id"`
	FromLocationID     int                `json:"from_location_id"`
	ToLocationID       int                `json:"to_location_id"`
	DestinationArea    string             `json:"destination_area"`
	PreviousCode       string             `json:"previous_code"`
	NewCode            string             `json:"new_code,omitempty"`
	DepartureCondition metadata.Condition `json:"departure_condition,omitempty"`
	SendingParty       string             `json:"sending_party"`
	ReceivingParty     string             `json:"receiving_party"`
	TransferDate       time.Time          `json:"transfer_date"`
	Justification      string             `json:"justification"`
	Photos             []Photo            `json:"photos"`
	Audit              []ChangeAuditEntry `json:"-"`
}

// CodeChanged reports whether the transfer assigns a new asset code.
func (p *TransferPayload) CodeChanged() bool {
	return p.NewCode != "" && p.NewCode != p.PreviousCode
}
