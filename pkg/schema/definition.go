package schema

import "assettracker/pkg/metadata"

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
)

func (t FieldType) IsValid() bool {
	switch t {
	case FieldText, FieldNumber, FieldTextarea, FieldSelect:
		return true
	default:
		return false
	}
}

// allowedInGroup reports whether the type may be used by a component
// subfield.
func (t FieldType) allowedInGroup() bool {
	return t == FieldText || t == FieldNumber || t == FieldSelect
}

// FieldDefinition describes one administrator-defined field. A nil Subfields
// slice makes it a scalar field; a non-nil one (even empty) makes it a
// repeatable component group whose entries map subfield keys to values.
type FieldDefinition struct {
	Name      string            `json:"name"`
	Key       string            `json:"key,omitempty"`
	Type      FieldType         `json:"type,omitempty"`
	Required  bool              `json:"required"`
	Options   []string          `json:"options,omitempty"`
	Subfields []FieldDefinition `json:"subfields"`
}

func (f *FieldDefinition) IsGroup() bool {
	return f.Subfields != nil
}

func (f *FieldDefinition) HasOption(value string) bool {
	for _, option := range f.Options {
		if option == value {
			return true
		}
	}
	return false
}

// Subfield looks a component subfield up by key, falling back to its label.
func (f *FieldDefinition) Subfield(keyOrLabel string) (*FieldDefinition, bool) {
	return lookup(f.Subfields, keyOrLabel)
}

type CategoryDefinition struct {
	ID                 int               `json:"id,omitempty"`
	Name               string            `json:"name" validate:"required"`
	Key                string            `json:"key,omitempty"`
	Prefix             string            `json:"prefix,omitempty" validate:"omitempty,alphanum,max=6"`
	SubcategoryOptions []string          `json:"subcategory_options"`
	Fields             []FieldDefinition `json:"fields"`
}

// Field looks a field up by key, falling back to its label.
func (c *CategoryDefinition) Field(keyOrLabel string) (*FieldDefinition, bool) {
	return lookup(c.Fields, keyOrLabel)
}

// Label returns the authoritative label stored for a key, or the best-effort
// reconstruction when the key is not part of the schema.
func (c *CategoryDefinition) Label(key string) string {
	if field, ok := c.Field(key); ok {
		return field.Name
	}
	return LabelFromKey(key)
}

func (c *CategoryDefinition) HasSubcategory(value string) bool {
	for _, option := range c.SubcategoryOptions {
		if option == value {
			return true
		}
	}
	return false
}

// Normalize fills derived keys and the code prefix.
func Normalize(def CategoryDefinition) CategoryDefinition {
	def.Key = DeriveKey(def.Name)
	if def.Prefix == "" {
		def.Prefix = metadata.CategoryPrefix(def.Name)
	}

	fields := make([]FieldDefinition, len(def.Fields))
	for i, field := range def.Fields {
		fields[i] = normalizeField(field)
	}
	def.Fields = fields

	return def
}

func normalizeField(field FieldDefinition) FieldDefinition {
	field.Key = DeriveKey(field.Name)
	if field.Subfields != nil {
		subfields := make([]FieldDefinition, len(field.Subfields))
		for i, sub := range field.Subfields {
			subfields[i] = normalizeField(sub)
		}
		field.Subfields = subfields
	}
	return field
}

func lookup(fields []FieldDefinition, keyOrLabel string) (*FieldDefinition, bool) {
	for i := range fields {
		if fields[i].Key != "" && fields[i].Key == keyOrLabel {
			return &fields[i], true
		}
	}
	key := DeriveKey(keyOrLabel)
	for i := range fields {
		if DeriveKey(fields[i].Name) == key {
			return &fields[i], true
		}
	}
	return nil, false
}
