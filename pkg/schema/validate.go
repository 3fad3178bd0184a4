package schema

import (
	"fmt"
	"reflect"
	"strings"

	custom_error "assettracker/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks a category definition. All problems are reported at once
// in a *custom_error.ValidationError.
func Validate(def CategoryDefinition) error {
	verr := custom_error.NewValidationError()

	if err := validate.Struct(def); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				verr.Add(trimNamespace(fe.Namespace()), "failed on "+fe.Tag())
			}
		} else {
			return err
		}
	}

	if def.Name != "" && strings.TrimSpace(def.Name) == "" {
		verr.Add("name", "failed on required")
	}

	validateFields(verr, "fields", def.Fields, false)

	return verr.OrNil()
}

func validateFields(verr *custom_error.ValidationError, path string, fields []FieldDefinition, inGroup bool) {
	seen := make(map[string]int, len(fields))

	for i, field := range fields {
		fieldPath := fmt.Sprintf("%s[%d]", path, i)
		key := DeriveKey(field.Name)

		if key == "" {
			verr.Add(fieldPath+".name", "failed on required")
			continue
		}
		if first, ok := seen[key]; ok {
			verr.Add(fieldPath+".name", fmt.Sprintf("key %q collides with %s[%d]", key, path, first))
			continue
		}
		seen[key] = i

		if field.IsGroup() {
			if inGroup {
				verr.Add(fieldPath+".subfields", "component subfields cannot be nested")
				continue
			}
			validateFields(verr, fieldPath+".subfields", field.Subfields, true)
			continue
		}

		switch {
		case !field.Type.IsValid():
			verr.Add(fieldPath+".type", fmt.Sprintf("unsupported field type %q", field.Type))
		case inGroup && !field.Type.allowedInGroup():
			verr.Add(fieldPath+".type", fmt.Sprintf("field type %q is not allowed in a component group", field.Type))
		case field.Type == FieldSelect && len(field.Options) == 0:
			verr.Add(fieldPath+".options", "select field needs at least one option")
		}
	}
}

func trimNamespace(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
