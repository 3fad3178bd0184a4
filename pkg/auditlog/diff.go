package auditlog

import (
	"reflect"

	"assettracker/pkg/models"
)

type fieldAccessor struct {
	name  string
	value func(*models.AssetRecord) interface{}
}

// Derived warranty data and timestamps are left out: they follow from the
// audited inputs.
var assetFields = []fieldAccessor{
	{FieldCode, func(a *models.AssetRecord) interface{} { return a.Code }},
	{"category", func(a *models.AssetRecord) interface{} { return a.Category }},
	{"manufacturer", func(a *models.AssetRecord) interface{} { return a.Manufacturer }},
	{"model", func(a *models.AssetRecord) interface{} { return a.Model }},
	{"serial", func(a *models.AssetRecord) interface{} { return a.Serial }},
	{"location_id", func(a *models.AssetRecord) interface{} { return a.LocationID }},
	{"area", func(a *models.AssetRecord) interface{} { return a.Area }},
	{"status", func(a *models.AssetRecord) interface{} { return string(a.Status) }},
	{"condition", func(a *models.AssetRecord) interface{} { return string(a.Condition) }},
	{"network.ip", func(a *models.AssetRecord) interface{} { return a.Network.IP }},
	{"network.mac", func(a *models.AssetRecord) interface{} { return a.Network.MAC }},
	{"network.remote_access", func(a *models.AssetRecord) interface{} { return a.Network.RemoteAccess }},
	{"notes", func(a *models.AssetRecord) interface{} { return a.Notes }},
	{"users", func(a *models.AssetRecord) interface{} { return nonNilUsers(a.Users) }},
	{"photos", func(a *models.AssetRecord) interface{} { return photoCaptions(a.Photos) }},
	{"purchase.document_type", func(a *models.AssetRecord) interface{} { return string(a.Purchase.DocumentType) }},
	{"purchase.date", func(a *models.AssetRecord) interface{} { return optionalDate(a.Purchase.Date) }},
	{"purchase.year", func(a *models.AssetRecord) interface{} { return a.Purchase.Year }},
	{"purchase.document_number", func(a *models.AssetRecord) interface{} { return a.Purchase.DocumentNumber }},
	{"purchase.supplier", func(a *models.AssetRecord) interface{} { return a.Purchase.Supplier }},
	{"purchase.document", func(a *models.AssetRecord) interface{} { return attachmentRef(a.Purchase.Document) }},
	{"warranty.duration", func(a *models.AssetRecord) interface{} { return string(a.Warranty.Duration) }},
	{"warranty.document", func(a *models.AssetRecord) interface{} { return attachmentRef(a.Warranty.Document) }},
}

// Diff lists every field that differs between two versions of an asset.
// Category-defined fields are reported as "fields.<key>".
func Diff(before, after *models.AssetRecord) []models.FieldDelta {
	var deltas []models.FieldDelta

	for _, field := range assetFields {
		prev, next := field.value(before), field.value(after)
		if reflect.DeepEqual(prev, next) {
			continue
		}
		deltas = append(deltas, models.FieldDelta{
			Field:    field.name,
			Previous: Serialize(prev),
			New:      Serialize(next),
		})
	}

	for _, key := range fieldKeys(before.Fields, after.Fields) {
		prev, hadPrev := before.Fields[key]
		next, hasNext := after.Fields[key]
		if hadPrev && hasNext && reflect.DeepEqual(fieldPayload(prev), fieldPayload(next)) {
			continue
		}

		delta := models.FieldDelta{Field: "fields." + key}
		if hadPrev {
			delta.Previous = Serialize(fieldPayload(prev))
		}
		if hasNext {
			delta.New = Serialize(fieldPayload(next))
		}
		if delta.Previous == delta.New {
			continue
		}
		deltas = append(deltas, delta)
	}

	return deltas
}

func fieldKeys(a, b models.FieldSet) []string {
	union := make(models.FieldSet, len(a)+len(b))
	for key, value := range a {
		union[key] = value
	}
	for key, value := range b {
		union[key] = value
	}
	return union.Keys()
}

func fieldPayload(v models.FieldValue) interface{} {
	if entries, ok := v.Entries(); ok {
		return entries
	}
	scalar, _ := v.Scalar()
	return scalar.String()
}

func nonNilUsers(users []models.AssignedUser) []models.AssignedUser {
	if users == nil {
		return []models.AssignedUser{}
	}
	return users
}

type attachmentView struct {
	Ref  string `json:"ref"`
	Text string `json:"text,omitempty"`
}

func photoCaptions(photos []models.Photo) []attachmentView {
	views := make([]attachmentView, 0, len(photos))
	for _, p := range photos {
		views = append(views, attachmentView{Ref: reference(&p.Attachment), Text: p.Caption})
	}
	return views
}

func attachmentRef(a *models.Attachment) interface{} {
	if a == nil {
		return nil
	}
	return attachmentView{Ref: reference(a), Text: a.Description}
}

func reference(a *models.Attachment) string {
	if a.URL != "" {
		return a.URL
	}
	return a.FileName
}

func optionalDate(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
