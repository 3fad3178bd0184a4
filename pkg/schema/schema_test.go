package schema

import (
	"errors"
	"testing"

	custom_error "assettracker/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func laptopCategory() CategoryDefinition {
	return CategoryDefinition{
		Name:               "Laptop",
		SubcategoryOptions: []string{"Dell", "Lenovo", "HP"},
		Fields: []FieldDefinition{
			{Name: "Procesador", Type: FieldText, Required: true},
			{Name: "Tarjeta de video", Type: FieldSelect, Options: []string{"Integrada", "Dedicada"}},
			{Name: "Pulgadas", Type: FieldNumber},
			{
				Name: "Memoria RAM",
				Subfields: []FieldDefinition{
					{Name: "Capacidad", Type: FieldNumber, Required: true},
					{Name: "Tipo", Type: FieldSelect, Options: []string{"DDR4", "DDR5"}},
				},
			},
		},
	}
}

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		label    string
		expected string
	}{
		{"Tarjeta de video", "Tarjeta_de_video"},
		{"  Memoria   RAM ", "Memoria_RAM"},
		{"Procesador", "Procesador"},
		{"Tab\tseparated", "Tab_separated"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			key := DeriveKey(tt.label)
			assert.Equal(t, tt.expected, key)
			assert.Equal(t, key, DeriveKey(tt.label))
			assert.Equal(t, key, DeriveKey(key))
		})
	}
}

func TestLabelFromKey(t *testing.T) {
	assert.Equal(t, "Tarjeta de video", LabelFromKey("Tarjeta_de_video"))
}

func TestCategoryLabelPrefersAuthoritativeLabel(t *testing.T) {
	def := Normalize(CategoryDefinition{
		Name:   "Switch",
		Fields: []FieldDefinition{{Name: "Puertos_PoE", Type: FieldNumber}},
	})

	assert.Equal(t, "Puertos_PoE", def.Label("Puertos_PoE"))
	assert.Equal(t, "Not in schema", def.Label("Not_in_schema"))
}

func TestNormalize(t *testing.T) {
	def := Normalize(laptopCategory())

	assert.Equal(t, "Laptop", def.Key)
	assert.Equal(t, "LAP", def.Prefix)
	assert.Equal(t, "Tarjeta_de_video", def.Fields[1].Key)
	assert.Equal(t, "Memoria_RAM", def.Fields[3].Key)
	assert.Equal(t, "Capacidad", def.Fields[3].Subfields[0].Key)
	assert.False(t, def.Fields[0].IsGroup())
	assert.True(t, def.Fields[3].IsGroup())

	field, ok := def.Field("Tarjeta de video")
	require.True(t, ok)
	assert.Equal(t, FieldSelect, field.Type)

	sub, ok := def.Fields[3].Subfield("Tipo")
	require.True(t, ok)
	assert.True(t, sub.HasOption("DDR5"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CategoryDefinition)
		wantField string
	}{
		{"valid", func(*CategoryDefinition) {}, ""},
		{"missing name", func(c *CategoryDefinition) { c.Name = "" }, "name"},
		{"blank name", func(c *CategoryDefinition) { c.Name = "   " }, "name"},
		{"key collision", func(c *CategoryDefinition) {
			c.Fields = append(c.Fields, FieldDefinition{Name: "Tarjeta  de video", Type: FieldText})
		}, "fields[4].name"},
		{"unknown type", func(c *CategoryDefinition) { c.Fields[0].Type = "date" }, "fields[0].type"},
		{"select without options", func(c *CategoryDefinition) { c.Fields[1].Options = nil }, "fields[1].options"},
		{"textarea in group", func(c *CategoryDefinition) {
			c.Fields[3].Subfields[0].Type = FieldTextarea
		}, "fields[3].subfields[0].type"},
		{"nested group", func(c *CategoryDefinition) {
			c.Fields[3].Subfields[1].Subfields = []FieldDefinition{}
		}, "fields[3].subfields[1].subfields"},
		{"bad prefix", func(c *CategoryDefinition) { c.Prefix = "LA-P" }, "prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := laptopCategory()
			tt.mutate(&def)

			err := Validate(def)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var verr *custom_error.ValidationError
			require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
			var fields []string
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(laptopCategory()))
	require.NoError(t, registry.Register(CategoryDefinition{Name: "Servidor de red"}))

	def, err := registry.Resolve("Laptop")
	require.NoError(t, err)
	assert.Equal(t, "LAP", def.Prefix)

	def, err = registry.Resolve("servidor_de_red")
	require.NoError(t, err)
	assert.Equal(t, "Servidor de red", def.Name)

	_, err = registry.Resolve("Printer")
	assert.ErrorIs(t, err, custom_error.ErrCategoryNotFound)
}

func TestRegistryRejectsKeyClash(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(CategoryDefinition{Name: "Access Point"}))

	err := registry.Register(CategoryDefinition{Name: "access  point"})
	assert.Equal(t, custom_error.KindValidation, custom_error.KindOf(err))
}

func TestRegistryReplaceSkipsInvalid(t *testing.T) {
	registry := NewRegistry()
	err := registry.Replace([]CategoryDefinition{
		laptopCategory(),
		{Name: "Broken", Fields: []FieldDefinition{{Name: "x", Type: "blob"}}},
	})

	assert.Error(t, err)
	assert.Len(t, registry.List(), 1)

	_, err = registry.Resolve("Broken")
	assert.ErrorIs(t, err, custom_error.ErrCategoryNotFound)
}

func TestRegistryReplaceSkipsKeyClash(t *testing.T) {
	registry := NewRegistry()
	err := registry.Replace([]CategoryDefinition{
		{Name: "Access Point"},
		{Name: "access  point"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access  point")
	assert.Len(t, registry.List(), 1)

	for i := 0; i < 5; i++ {
		def, err := registry.Resolve("access_point")
		require.NoError(t, err)
		assert.Equal(t, "Access Point", def.Name)
	}
}
