package records

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/metadata"
	"assettracker/pkg/models"
	"assettracker/pkg/schema"
)

// Wire keys of the flat asset payload. Nested values are JSON-encoded.
const (
	WireID                  = "id"
	WireCode                = "code"
	WireCategory            = "category"
	WireManufacturer        = "manufacturer"
	WireModel               = "model"
	WireSerial              = "serial"
	WireLocationID          = "location_id"
	WireArea                = "area"
	WireStatus              = "status"
	WireCondition           = "condition"
	WireIP                  = "ip"
	WireMAC                 = "mac"
	WireRemoteAccess        = "remote_access"
	WireNotes               = "notes"
	WireUsers               = "users"
	WirePhotos              = "photos"
	WireDocumentType        = "document_type"
	WirePurchaseDate        = "purchase_date"
	WirePurchaseYear        = "purchase_year"
	WireDocumentNumber      = "document_number"
	WireSupplier            = "supplier"
	WirePurchaseDocument    = "purchase_document"
	WireWarrantyDuration    = "warranty_duration"
	WireWarrantyDocument    = "warranty_document"
	WireSimpleFields        = "simple_fields"
	WireComponentGroups     = "component_groups"
	wireWarrantyExpiresAt   = "warranty_expires_at"
	wireWarrantyStatusField = "warranty_status"
)

// Accepted spellings of keys written inconsistently by older clients.
var (
	simpleFieldsKeys    = []string{WireSimpleFields, "simpleFields", "campos_personalizados", "camposPersonalizados"}
	componentGroupsKeys = []string{WireComponentGroups, "componentGroups", "componentes"}
	locationIDKeys      = []string{WireLocationID, "locationId", "ubicacion_id"}
	documentTypeKeys    = []string{WireDocumentType, "documentType", "tipo_documento"}
	purchaseDateKeys    = []string{WirePurchaseDate, "purchaseDate", "fecha_compra"}
	purchaseYearKeys    = []string{WirePurchaseYear, "purchaseYear", "anio_compra"}
	warrantyKeys        = []string{WireWarrantyDuration, "warrantyDuration", "garantia"}
	remoteAccessKeys    = []string{WireRemoteAccess, "remoteAccess"}
	documentNumberKeys  = []string{WireDocumentNumber, "documentNumber", "numero_documento"}
)

// ToWire flattens a record into the key/value payload sent to the store.
// Scalars are stored under simple_fields and component groups under
// component_groups, both keyed by field key.
func ToWire(record *models.AssetRecord) (map[string]string, error) {
	values := map[string]string{
		WireCode:             record.Code,
		WireCategory:         record.Category,
		WireManufacturer:     record.Manufacturer,
		WireModel:            record.Model,
		WireSerial:           record.Serial,
		WireArea:             record.Area,
		WireStatus:           string(record.Status),
		WireCondition:        string(record.Condition),
		WireIP:               record.Network.IP,
		WireMAC:              record.Network.MAC,
		WireRemoteAccess:     record.Network.RemoteAccess,
		WireNotes:            record.Notes,
		WireDocumentType:     string(record.Purchase.DocumentType),
		WireDocumentNumber:   record.Purchase.DocumentNumber,
		WireSupplier:         record.Purchase.Supplier,
		WireWarrantyDuration: string(record.Warranty.Duration),
	}
	if record.ID != 0 {
		values[WireID] = strconv.Itoa(record.ID)
	}
	if record.LocationID != 0 {
		values[WireLocationID] = strconv.Itoa(record.LocationID)
	}
	if record.Purchase.Date != nil {
		values[WirePurchaseDate] = record.Purchase.Date.String()
	}
	if record.Purchase.Year != 0 {
		values[WirePurchaseYear] = strconv.Itoa(record.Purchase.Year)
	}
	if record.Warranty.ExpiresAt != nil {
		values[wireWarrantyExpiresAt] = record.Warranty.ExpiresAt.String()
	}
	if record.Warranty.Status != "" {
		values[wireWarrantyStatusField] = record.Warranty.Status
	}

	simple := map[string]models.Scalar{}
	groups := map[string][]models.ComponentEntry{}
	for _, key := range record.Fields.Keys() {
		value := record.Fields[key]
		if entries, ok := value.Entries(); ok {
			groups[key] = entries
			continue
		}
		scalar, _ := value.Scalar()
		simple[key] = scalar
	}

	nested := map[string]interface{}{
		WireUsers:           nonNil(record.Users),
		WirePhotos:          nonNilPhotos(record.Photos),
		WireSimpleFields:    simple,
		WireComponentGroups: groups,
	}
	if record.Purchase.Document != nil {
		nested[WirePurchaseDocument] = record.Purchase.Document
	}
	if record.Warranty.Document != nil {
		nested[WireWarrantyDocument] = record.Warranty.Document
	}

	for key, value := range nested {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		values[key] = string(encoded)
	}

	return values, nil
}

// FromWire rebuilds a record from a flat payload. Dynamic values may be keyed
// by field key or by label; both are resolved against the category so the
// result is keyed by field key and carries authoritative labels.
func FromWire(values map[string]string, def *schema.CategoryDefinition) (models.AssetRecord, error) {
	verr := custom_error.NewValidationError()
	record := models.AssetRecord{
		Code:         values[WireCode],
		Category:     values[WireCategory],
		Manufacturer: values[WireManufacturer],
		Model:        values[WireModel],
		Serial:       values[WireSerial],
		Area:         values[WireArea],
		Status:       metadata.Status(values[WireStatus]),
		Condition:    metadata.Condition(values[WireCondition]),
		Notes:        values[WireNotes],
		Network: models.NetworkIdentity{
			IP:           values[WireIP],
			MAC:          values[WireMAC],
			RemoteAccess: first(values, remoteAccessKeys),
		},
		Purchase: models.PurchaseInfo{
			DocumentType:   metadata.DocumentType(first(values, documentTypeKeys)),
			DocumentNumber: first(values, documentNumberKeys),
			Supplier:       values[WireSupplier],
		},
		Warranty: models.WarrantyInfo{
			Duration: metadata.WarrantyDuration(first(values, warrantyKeys)),
			Status:   values[wireWarrantyStatusField],
		},
	}
	if record.Category == "" && def != nil {
		record.Category = def.Name
	}

	parseInt(verr, values[WireID], WireID, &record.ID)
	parseInt(verr, first(values, locationIDKeys), WireLocationID, &record.LocationID)
	parseInt(verr, first(values, purchaseYearKeys), WirePurchaseYear, &record.Purchase.Year)
	record.Purchase.Date = parseDate(verr, first(values, purchaseDateKeys), WirePurchaseDate)
	record.Warranty.ExpiresAt = parseDate(verr, values[wireWarrantyExpiresAt], wireWarrantyExpiresAt)

	decode(verr, values[WireUsers], WireUsers, &record.Users)
	decode(verr, values[WirePhotos], WirePhotos, &record.Photos)
	if raw := values[WirePurchaseDocument]; raw != "" {
		record.Purchase.Document = &models.Attachment{}
		decode(verr, raw, WirePurchaseDocument, record.Purchase.Document)
	}
	if raw := values[WireWarrantyDocument]; raw != "" {
		record.Warranty.Document = &models.Attachment{}
		decode(verr, raw, WireWarrantyDocument, record.Warranty.Document)
	}

	var simple map[string]models.Scalar
	decode(verr, first(values, simpleFieldsKeys), WireSimpleFields, &simple)
	var groups map[string][]map[string]models.Scalar
	decode(verr, first(values, componentGroupsKeys), WireComponentGroups, &groups)

	record.Fields = make(models.FieldSet, len(simple)+len(groups))
	for name, scalar := range simple {
		key, label := resolveField(def, name)
		record.Fields[key] = models.ScalarValue(label, scalar)
	}
	for name, raw := range groups {
		key, label := resolveField(def, name)
		var group *schema.FieldDefinition
		if def != nil {
			group, _ = def.Field(name)
		}
		entries := make([]models.ComponentEntry, len(raw))
		for i, entry := range raw {
			entries[i] = resolveEntry(group, entry)
		}
		record.Fields[key] = models.GroupValue(label, entries)
	}

	return record, verr.OrNil()
}

func resolveField(def *schema.CategoryDefinition, name string) (string, string) {
	if def != nil {
		if field, ok := def.Field(name); ok {
			return field.Key, field.Name
		}
	}
	key := schema.DeriveKey(name)
	if key == name {
		return key, schema.LabelFromKey(key)
	}
	return key, name
}

func resolveEntry(group *schema.FieldDefinition, entry map[string]models.Scalar) models.ComponentEntry {
	out := make(models.ComponentEntry, len(entry))
	for name, value := range entry {
		key := schema.DeriveKey(name)
		if group != nil {
			if sub, ok := group.Subfield(name); ok {
				key = sub.Key
			}
		}
		out[key] = value
	}
	return out
}

func first(values map[string]string, keys []string) string {
	for _, key := range keys {
		if value, ok := values[key]; ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseInt(verr *custom_error.ValidationError, raw, field string, target *int) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(field, "must be an integer")
		return
	}
	*target = n
}

func parseDate(verr *custom_error.ValidationError, raw, field string) *models.Date {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		verr.Add(field, err.Error())
		return nil
	}
	return &date
}

func decode(verr *custom_error.ValidationError, raw, field string, target interface{}) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		verr.Add(field, fmt.Sprintf("malformed JSON: %v", err))
	}
}

func nonNil(users []models.AssignedUser) []models.AssignedUser {
	if users == nil {
		return []models.AssignedUser{}
	}
	return users
}

func nonNilPhotos(photos []models.Photo) []models.Photo {
	if photos == nil {
		return []models.Photo{}
	}
	return photos
}
