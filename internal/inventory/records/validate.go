package records

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/models"
	"assettracker/pkg/schema"
)

// Warning is a reconciliation notice that does not block a save.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Result struct {
	Errors   []custom_error.FieldError `json:"errors,omitempty"`
	Warnings []Warning                 `json:"warnings,omitempty"`
}

func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns the collected errors as a *custom_error.ValidationError, or
// nil when the record is valid.
func (r *Result) Err() error {
	if r.Valid() {
		return nil
	}
	return custom_error.NewValidationError(r.Errors...)
}

func (r *Result) fail(field, format string, args ...interface{}) {
	r.Errors = append(r.Errors, custom_error.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) warn(field, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, Warning{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks an asset against its category definition without
// modifying it.
func Validate(record *models.AssetRecord, def *schema.CategoryDefinition, now time.Time) Result {
	var result Result

	validateFixed(&result, record, def)
	validatePurchase(&result, record, now)
	validateDynamic(&result, record.Fields, def)

	return result
}

// CheckCategoryUnchanged rejects updates that try to move an asset to a
// different category.
func CheckCategoryUnchanged(stored, incoming *models.AssetRecord) error {
	if incoming.Category != "" && incoming.Category != stored.Category {
		return fmt.Errorf("%w: %q -> %q", custom_error.ErrCategoryImmutable, stored.Category, incoming.Category)
	}
	return nil
}

func validateFixed(result *Result, record *models.AssetRecord, def *schema.CategoryDefinition) {
	if record.Category == "" {
		result.fail("category", "is required")
	} else if record.Category != def.Name {
		result.fail("category", "does not match category definition %q", def.Name)
	}

	if record.LocationID <= 0 {
		result.fail("location_id", "is required")
	}
	if record.Status != "" && !record.Status.IsValid() {
		result.fail("status", "invalid value %q", record.Status)
	}
	if record.Condition != "" && !record.Condition.IsValid() {
		result.fail("condition", "invalid value %q", record.Condition)
	}
	if record.Warranty.Duration != "" && !record.Warranty.Duration.IsValid() {
		result.fail("warranty.duration", "invalid value %q", record.Warranty.Duration)
	}

	if record.Manufacturer != "" && len(def.SubcategoryOptions) > 0 && !def.HasSubcategory(record.Manufacturer) {
		result.warn("manufacturer", "%q is not in the picklist of %s", record.Manufacturer, def.Name)
	}

	for i, user := range record.Users {
		if strings.TrimSpace(user.Name) == "" {
			result.fail(fmt.Sprintf("users[%d].name", i), "is required")
		}
		if user.Email != "" {
			if _, err := mail.ParseAddress(user.Email); err != nil {
				result.fail(fmt.Sprintf("users[%d].email", i), "is not a valid e-mail address")
			}
		}
	}
}

func validatePurchase(result *Result, record *models.AssetRecord, now time.Time) {
	purchase := record.Purchase
	if purchase.DocumentType == "" {
		if purchase.Date != nil || purchase.Year != 0 {
			result.fail("purchase.document_type", "is required when a purchase date or year is given")
		}
		return
	}
	if !purchase.DocumentType.IsValid() {
		result.fail("purchase.document_type", "invalid value %q", purchase.DocumentType)
		return
	}

	if purchase.DocumentType.IsYearOnly() {
		switch {
		case purchase.Year == 0:
			result.fail("purchase.year", "is required when the document type is unknown")
		case purchase.Year < 1000 || purchase.Year > 9999:
			result.fail("purchase.year", "must have four digits")
		case purchase.Year > now.Year():
			result.fail("purchase.year", "cannot be in the future")
		}
	} else if purchase.Date == nil {
		result.fail("purchase.date", "is required for document type %s", purchase.DocumentType)
	}

	if purchase.Date != nil && purchase.Year != 0 {
		result.warn("purchase", "both a purchase date and a purchase year are set, the exact date is used")
	}
}

func validateDynamic(result *Result, fields models.FieldSet, def *schema.CategoryDefinition) {
	for _, field := range def.Fields {
		if field.IsGroup() || !field.Required {
			continue
		}
		value, ok := lookupValue(fields, &field)
		scalar, isScalar := value.Scalar()
		if !ok || !isScalar || scalar.IsEmpty() {
			result.fail("fields."+field.Key, "%s is required", field.Name)
		}
	}

	for _, key := range fields.Keys() {
		value := fields[key]
		path := "fields." + key

		field, ok := def.Field(key)
		if !ok {
			result.fail(path, "is not defined by category %s", def.Name)
			continue
		}

		if field.IsGroup() {
			entries, ok := value.Entries()
			if !ok {
				result.fail(path, "%s is a component group, got a single value", field.Name)
				continue
			}
			validateEntries(result, path, entries, field)
			continue
		}

		scalar, ok := value.Scalar()
		if !ok {
			result.fail(path, "%s is a single value, got a component group", field.Name)
			continue
		}
		validateScalar(result, path, scalar, field)
	}
}

func validateEntries(result *Result, path string, entries []models.ComponentEntry, group *schema.FieldDefinition) {
	for i, entry := range entries {
		entryPath := fmt.Sprintf("%s[%d]", path, i)

		for _, sub := range group.Subfields {
			if !sub.Required {
				continue
			}
			value, ok := entryValue(entry, &sub)
			if !ok || value.IsEmpty() {
				result.fail(entryPath+"."+sub.Key, "%s is required", sub.Name)
			}
		}

		for _, subKey := range sortedEntryKeys(entry) {
			sub, ok := group.Subfield(subKey)
			if !ok {
				result.fail(entryPath+"."+subKey, "is not a subfield of %s", group.Name)
				continue
			}
			validateScalar(result, entryPath+"."+subKey, entry[subKey], sub)
		}
	}
}

func validateScalar(result *Result, path string, value models.Scalar, field *schema.FieldDefinition) {
	if value.IsEmpty() {
		return
	}

	switch field.Type {
	case schema.FieldNumber:
		if _, ok := value.AsNumber(); !ok {
			result.fail(path, "%s must be a number", field.Name)
		}
	case schema.FieldSelect:
		if !field.HasOption(value.String()) {
			result.fail(path, "%q is not an option of %s", value.String(), field.Name)
		}
	case schema.FieldText, schema.FieldTextarea:
		if value.Kind() != models.ScalarText {
			result.warn(path, "%s expects text, value will be stored as %q", field.Name, value.String())
		}
	}
}

func lookupValue(fields models.FieldSet, field *schema.FieldDefinition) (models.FieldValue, bool) {
	if value, ok := fields[field.Key]; ok {
		return value, true
	}
	value, ok := fields[field.Name]
	return value, ok
}

func entryValue(entry models.ComponentEntry, sub *schema.FieldDefinition) (models.Scalar, bool) {
	if value, ok := entry[sub.Key]; ok {
		return value, true
	}
	value, ok := entry[sub.Name]
	return value, ok
}
