package models

import (
	"time"

	"assettracker/pkg/metadata"
)

type AssignedUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Attachment is a document or photo carried either as a URL or as inline
// bytes. Bytes never appear in JSON; they travel as multipart parts.
type Attachment struct {
	FileName    string `json:"file_name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	Data        []byte `json:"-"`
}

type Photo struct {
	Attachment
	Caption string `json:"caption"`
}

type NetworkIdentity struct {
	IP           string `json:"ip"`
	MAC          string `json:"mac"`
	RemoteAccess string `json:"remote_access"`
}

type PurchaseInfo struct {
	DocumentType   metadata.DocumentType `json:"document_type"`
	Date           *Date                 `json:"date,omitempty"`
	Year           int                   `json:"year,omitempty"`
	DocumentNumber string                `json:"document_number"`
	Supplier       string                `json:"supplier"`
	Document       *Attachment           `json:"document,omitempty"`
}

type WarrantyInfo struct {
	Duration metadata.WarrantyDuration `json:"duration"`
	// ExpiresAt and Status are derived on every save and again on every read.
	ExpiresAt *Date       `json:"expires_at,omitempty"`
	Status    string      `json:"status,omitempty"`
	Document  *Attachment `json:"document,omitempty"`
}

type AssetRecord struct {
	ID           int                `json:"id"`
	Code         string             `json:"code"`
	Category     string             `json:"category"`
	Manufacturer string             `json:"manufacturer"`
	Model        string             `json:"model"`
	Serial       string             `json:"serial"`
	LocationID   int                `json:"location_id"`
	Area         string             `json:"area"`
	Status       metadata.Status    `json:"status"`
	Condition    metadata.Condition `json:"condition"`
	Network      NetworkIdentity    `json:"network"`
	Notes        string             `json:"notes"`
	Users        []AssignedUser     `json:"users"`
	Photos       []Photo            `json:"photos"`
	Purchase     PurchaseInfo       `json:"purchase"`
	Warranty     WarrantyInfo       `json:"warranty"`
	Fields       FieldSet           `json:"fields"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Clone returns a copy sharing no slices or maps with the receiver, so a
// snapshot stays intact while the original is edited.
func (a *AssetRecord) Clone() AssetRecord {
	c := *a
	c.Users = append([]AssignedUser(nil), a.Users...)
	c.Photos = append([]Photo(nil), a.Photos...)
	c.Fields = a.Fields.Clone()
	if a.Purchase.Date != nil {
		d := *a.Purchase.Date
		c.Purchase.Date = &d
	}
	if a.Warranty.ExpiresAt != nil {
		d := *a.Warranty.ExpiresAt
		c.Warranty.ExpiresAt = &d
	}
	return c
}

// AssetSummary is the row shape returned by location-scoped inventory
// listings.
type AssetSummary struct {
	ID         int    `json:"id" db:"id"`
	Code       string `json:"code" db:"code"`
	Category   string `json:"category" db:"category"`
	LocationID int    `json:"location_id" db:"location_id"`
}
