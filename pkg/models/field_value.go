package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type ScalarKind uint8

const (
	ScalarText ScalarKind = iota
	ScalarNumber
	ScalarBool
)

// Scalar is a single category-defined value: text, number or bool.
type Scalar struct {
	kind    ScalarKind
	text    string
	number  float64
	boolean bool
}

func Text(s string) Scalar {
	return Scalar{kind: ScalarText, text: s}
}

func Number(n float64) Scalar {
	return Scalar{kind: ScalarNumber, number: n}
}

func Bool(b bool) Scalar {
	return Scalar{kind: ScalarBool, boolean: b}
}

func (s Scalar) Kind() ScalarKind {
	return s.kind
}

// AsNumber returns the numeric value, parsing text when needed.
func (s Scalar) AsNumber() (float64, bool) {
	switch s.kind {
	case ScalarNumber:
		return s.number, true
	case ScalarText:
		n, err := strconv.ParseFloat(strings.TrimSpace(s.text), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func (s Scalar) IsEmpty() bool {
	return s.kind == ScalarText && strings.TrimSpace(s.text) == ""
}

func (s Scalar) String() string {
	switch s.kind {
	case ScalarNumber:
		return strconv.FormatFloat(s.number, 'f', -1, 64)
	case ScalarBool:
		return strconv.FormatBool(s.boolean)
	default:
		return s.text
	}
}

func (s Scalar) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case ScalarNumber:
		return json.Marshal(s.number)
	case ScalarBool:
		return json.Marshal(s.boolean)
	default:
		return json.Marshal(s.text)
	}
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*s = Text("")
	case string:
		*s = Text(v)
	case float64:
		*s = Number(v)
	case bool:
		*s = Bool(v)
	default:
		return fmt.Errorf("unsupported scalar value: %s", bytes.TrimSpace(data))
	}
	return nil
}

// ComponentEntry is one repeated sub-record, keyed by subfield key.
type ComponentEntry map[string]Scalar

// FieldValue is either a Scalar or an ordered component group. It always
// carries the authoritative label of the field it belongs to.
type FieldValue struct {
	Label   string
	scalar  Scalar
	entries []ComponentEntry
	group   bool
}

func ScalarValue(label string, value Scalar) FieldValue {
	return FieldValue{Label: label, scalar: value}
}

func GroupValue(label string, entries []ComponentEntry) FieldValue {
	if entries == nil {
		entries = []ComponentEntry{}
	}
	return FieldValue{Label: label, entries: entries, group: true}
}

func (v FieldValue) IsGroup() bool {
	return v.group
}

func (v FieldValue) Scalar() (Scalar, bool) {
	return v.scalar, !v.group
}

func (v FieldValue) Entries() ([]ComponentEntry, bool) {
	return v.entries, v.group
}

type fieldValueJSON struct {
	Label   string            `json:"label"`
	Value   *Scalar           `json:"value,omitempty"`
	Entries *[]ComponentEntry `json:"entries,omitempty"`
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	out := fieldValueJSON{Label: v.Label}
	if v.group {
		entries := v.entries
		out.Entries = &entries
	} else {
		scalar := v.scalar
		out.Value = &scalar
	}
	return json.Marshal(out)
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var in fieldValueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	if in.Entries != nil {
		*v = GroupValue(in.Label, *in.Entries)
		return nil
	}
	if in.Value == nil {
		*v = ScalarValue(in.Label, Text(""))
		return nil
	}
	*v = ScalarValue(in.Label, *in.Value)
	return nil
}

// FieldSet holds the category-defined data of an asset keyed by field key.
type FieldSet map[string]FieldValue

func (fs FieldSet) Keys() []string {
	keys := make([]string, 0, len(fs))
	for key := range fs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (fs FieldSet) Clone() FieldSet {
	if fs == nil {
		return nil
	}
	out := make(FieldSet, len(fs))
	for key, value := range fs {
		if entries, ok := value.Entries(); ok {
			copied := make([]ComponentEntry, len(entries))
			for i, entry := range entries {
				copied[i] = make(ComponentEntry, len(entry))
				for sub, scalar := range entry {
					copied[i][sub] = scalar
				}
			}
			out[key] = GroupValue(value.Label, copied)
			continue
		}
		out[key] = value
	}
	return out
}
