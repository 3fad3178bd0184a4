package schema

import (
	"strings"
	"unicode"
)

// DeriveKey maps a human field label to the internal lookup key by
// replacing every whitespace run with an underscore: "Tarjeta de video"
// becomes "Tarjeta_de_video". Applying it to its own output is a no-op.
func DeriveKey(label string) string {
	return strings.Join(strings.FieldsFunc(label, unicode.IsSpace), "_")
}

// LabelFromKey is the best-effort inverse of DeriveKey. It cannot recover
// labels whose spacing was irregular or that already contained underscores,
// so it is only used when no authoritative label is stored.
func LabelFromKey(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
