package records

import (
	"sort"
	"strings"
	"time"

	"assettracker/pkg/metadata"
	"assettracker/pkg/models"
	"assettracker/pkg/schema"
	"assettracker/pkg/warranty"
)

// Reconcile returns a normalized copy of the record and the result of
// validating that copy. Dynamic keys are canonicalized from labels, labels
// come from the category, missing optional subfields default to an empty
// string, numeric text is stored as a number and the warranty block is
// derived from the purchase data.
func Reconcile(record *models.AssetRecord, def *schema.CategoryDefinition, now time.Time) (models.AssetRecord, Result) {
	out := record.Clone()
	var result Result

	normalizeFixed(&out)
	out.Fields = reconcileFields(&result, out.Fields, def)
	deriveWarranty(&out, now)

	validation := Validate(&out, def, now)
	result.Errors = append(result.Errors, validation.Errors...)
	result.Warnings = append(result.Warnings, validation.Warnings...)

	return out, result
}

func normalizeFixed(record *models.AssetRecord) {
	record.Code = strings.TrimSpace(record.Code)
	record.Manufacturer = strings.TrimSpace(record.Manufacturer)
	record.Model = strings.TrimSpace(record.Model)
	record.Serial = strings.TrimSpace(record.Serial)

	if record.Status != "" {
		if status, err := metadata.NewStatus(string(record.Status)); err == nil {
			record.Status = status
		}
	}
	if record.Condition != "" {
		if condition, err := metadata.NewCondition(string(record.Condition)); err == nil {
			record.Condition = condition
		}
	}
	if record.Purchase.DocumentType != "" {
		if documentType, err := metadata.NewDocumentType(string(record.Purchase.DocumentType)); err == nil {
			record.Purchase.DocumentType = documentType
		}
	}
	if record.Warranty.Duration != "" {
		if duration, err := metadata.NewWarrantyDuration(string(record.Warranty.Duration)); err == nil {
			record.Warranty.Duration = duration
		}
	}
	if record.Users == nil {
		record.Users = []models.AssignedUser{}
	}
	if record.Photos == nil {
		record.Photos = []models.Photo{}
	}
}

func reconcileFields(result *Result, fields models.FieldSet, def *schema.CategoryDefinition) models.FieldSet {
	out := make(models.FieldSet, len(fields))

	// Exact key matches are placed first so a value keyed by label never
	// shadows one keyed by its canonical key.
	names := fields.Keys()
	sort.SliceStable(names, func(i, j int) bool {
		return isCanonicalKey(def, names[i]) && !isCanonicalKey(def, names[j])
	})

	for _, name := range names {
		value := fields[name]

		field, ok := def.Field(name)
		if !ok {
			if value.Label == "" {
				value.Label = schema.LabelFromKey(name)
			}
			out[name] = value
			continue
		}

		if _, dup := out[field.Key]; dup {
			result.warn("fields."+field.Key, "value given under %q ignored, %s is already set", name, field.Name)
			continue
		}

		out[field.Key] = reconcileValue(value, field)
	}

	return out
}

func isCanonicalKey(def *schema.CategoryDefinition, name string) bool {
	field, ok := def.Field(name)
	return ok && field.Key == name
}

func reconcileValue(value models.FieldValue, field *schema.FieldDefinition) models.FieldValue {
	if entries, ok := value.Entries(); ok {
		if !field.IsGroup() {
			return models.GroupValue(field.Name, entries)
		}
		reconciled := make([]models.ComponentEntry, len(entries))
		for i, entry := range entries {
			reconciled[i] = reconcileEntry(entry, field)
		}
		return models.GroupValue(field.Name, reconciled)
	}

	scalar, _ := value.Scalar()
	return models.ScalarValue(field.Name, coerce(scalar, field))
}

func reconcileEntry(entry models.ComponentEntry, group *schema.FieldDefinition) models.ComponentEntry {
	out := make(models.ComponentEntry, len(group.Subfields))
	for _, name := range sortedEntryKeys(entry) {
		sub, ok := group.Subfield(name)
		if !ok {
			out[name] = entry[name]
			continue
		}
		if _, dup := out[sub.Key]; dup && sub.Key != name {
			continue
		}
		out[sub.Key] = coerce(entry[name], sub)
	}

	for _, sub := range group.Subfields {
		if _, ok := out[sub.Key]; !ok && !sub.Required {
			out[sub.Key] = models.Text("")
		}
	}
	return out
}

func coerce(value models.Scalar, field *schema.FieldDefinition) models.Scalar {
	if field.Type != schema.FieldNumber || value.Kind() != models.ScalarText || value.IsEmpty() {
		return value
	}
	if n, ok := value.AsNumber(); ok {
		return models.Number(n)
	}
	return value
}

// RefreshWarranty recomputes the derived warranty block for now. Stored
// records carry the state of the day they were saved.
func RefreshWarranty(record *models.AssetRecord, now time.Time) {
	deriveWarranty(record, now)
}

func deriveWarranty(record *models.AssetRecord, now time.Time) {
	input := warranty.Input{
		PurchaseDate: record.Purchase.Date.TimePtr(),
		PurchaseYear: record.Purchase.Year,
		Duration:     record.Warranty.Duration,
	}

	computed := warranty.Compute(input, now)
	record.Warranty.Status = string(computed.Status)
	record.Warranty.ExpiresAt = nil
	if computed.ExpiresAt != nil {
		record.Warranty.ExpiresAt = &models.Date{Time: *computed.ExpiresAt}
	}
}

func sortedEntryKeys(entry models.ComponentEntry) []string {
	keys := make([]string, 0, len(entry))
	for key := range entry {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
