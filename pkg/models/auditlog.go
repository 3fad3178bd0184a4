package models

import (
	"time"
)

// ChangeAuditEntry is one field-level change of an asset. Entries are only
// ever appended.
type ChangeAuditEntry struct {
	ID            int       `json:"id" db:"id"`
	AssetID       int       `json:"asset_id" db:"asset_id"`
	Field         string    `json:"field" db:"field"`
	PreviousValue string    `json:"previous_value" db:"previous_value"`
	NewValue      string    `json:"new_value" db:"new_value"`
	Justification string    `json:"justification" db:"justification"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// FieldDelta is a change before it is stamped into an audit entry. Values
// are already serialized.
type FieldDelta struct {
	Field    string
	Previous string
	New      string
}

// AssetUpdate is the persistence payload of an in-place edit: the full new
// record plus the audit entries describing it.
type AssetUpdate struct {
	Record AssetRecord
	Audit  []ChangeAuditEntry
}
