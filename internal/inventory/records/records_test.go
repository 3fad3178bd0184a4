package records

import (
	"bytes"
	"errors"
	"mime"
	"testing"
	"time"

	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/metadata"
	"assettracker/pkg/models"
	"assettracker/pkg/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func laptopCategory() *schema.CategoryDefinition {
	def := schema.Normalize(schema.CategoryDefinition{
		Name:               "Laptop",
		SubcategoryOptions: []string{"Dell", "Lenovo"},
		Fields: []schema.FieldDefinition{
			{Name: "Procesador", Type: schema.FieldText, Required: true},
			{Name: "Tarjeta de video", Type: schema.FieldSelect, Options: []string{"Integrada", "Dedicada"}},
			{Name: "Pulgadas", Type: schema.FieldNumber},
			{
				Name: "Memoria RAM",
				Subfields: []schema.FieldDefinition{
					{Name: "Capacidad", Type: schema.FieldNumber, Required: true},
					{Name: "Tipo", Type: schema.FieldSelect, Options: []string{"DDR4", "DDR5"}},
				},
			},
		},
	})
	return &def
}

func validLaptop() *models.AssetRecord {
	purchased := models.NewDate(2023, time.January, 15)
	return &models.AssetRecord{
		Category:     "Laptop",
		Manufacturer: "Dell",
		Model:        "Latitude 5440",
		LocationID:   1,
		Status:       metadata.StatusActive,
		Condition:    metadata.ConditionGood,
		Purchase: models.PurchaseInfo{
			DocumentType: metadata.DocumentInvoice,
			Date:         &purchased,
		},
		Warranty: models.WarrantyInfo{Duration: metadata.WarrantyOneYear},
		Fields: models.FieldSet{
			"Procesador": models.ScalarValue("Procesador", models.Text("i7")),
			"Memoria_RAM": models.GroupValue("Memoria RAM", []models.ComponentEntry{
				{"Capacidad": models.Number(16), "Tipo": models.Text("DDR5")},
			}),
		},
	}
}

func fieldNames(errs []custom_error.FieldError) []string {
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		names = append(names, e.Field)
	}
	return names
}

func TestValidateAcceptsValidRecord(t *testing.T) {
	result := Validate(validLaptop(), laptopCategory(), fixedNow)

	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)
	assert.NoError(t, result.Err())
}

func TestValidateRejectsUnknownSimpleField(t *testing.T) {
	record := validLaptop()
	record.Fields["Bateria"] = models.ScalarValue("Bateria", models.Text("4 celdas"))

	result := Validate(record, laptopCategory(), fixedNow)

	require.False(t, result.Valid())
	assert.Equal(t, []string{"fields.Bateria"}, fieldNames(result.Errors))

	var verr *custom_error.ValidationError
	assert.True(t, errors.As(result.Err(), &verr))
}

func TestValidateDynamicFields(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(models.FieldSet)
		expected []string
	}{
		{
			name:     "missing required scalar",
			mutate:   func(fs models.FieldSet) { delete(fs, "Procesador") },
			expected: []string{"fields.Procesador"},
		},
		{
			name:     "empty required scalar",
			mutate:   func(fs models.FieldSet) { fs["Procesador"] = models.ScalarValue("Procesador", models.Text("  ")) },
			expected: []string{"fields.Procesador"},
		},
		{
			name:     "number field with text",
			mutate:   func(fs models.FieldSet) { fs["Pulgadas"] = models.ScalarValue("Pulgadas", models.Text("catorce")) },
			expected: []string{"fields.Pulgadas"},
		},
		{
			name: "select outside options",
			mutate: func(fs models.FieldSet) {
				fs["Tarjeta_de_video"] = models.ScalarValue("Tarjeta de video", models.Text("Externa"))
			},
			expected: []string{"fields.Tarjeta_de_video"},
		},
		{
			name:     "group value for scalar field",
			mutate:   func(fs models.FieldSet) { fs["Pulgadas"] = models.GroupValue("Pulgadas", nil) },
			expected: []string{"fields.Pulgadas"},
		},
		{
			name:     "scalar value for group field",
			mutate:   func(fs models.FieldSet) { fs["Memoria_RAM"] = models.ScalarValue("Memoria RAM", models.Text("16")) },
			expected: []string{"fields.Memoria_RAM"},
		},
		{
			name: "unknown subfield",
			mutate: func(fs models.FieldSet) {
				fs["Memoria_RAM"] = models.GroupValue("Memoria RAM", []models.ComponentEntry{
					{"Capacidad": models.Number(8), "Velocidad": models.Text("3200")},
				})
			},
			expected: []string{"fields.Memoria_RAM[0].Velocidad"},
		},
		{
			name: "missing required subfield and bad select",
			mutate: func(fs models.FieldSet) {
				fs["Memoria_RAM"] = models.GroupValue("Memoria RAM", []models.ComponentEntry{
					{"Capacidad": models.Number(8)},
					{"Tipo": models.Text("DDR3")},
				})
			},
			expected: []string{"fields.Memoria_RAM[1].Capacidad", "fields.Memoria_RAM[1].Tipo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validLaptop()
			tt.mutate(record.Fields)

			result := Validate(record, laptopCategory(), fixedNow)

			assert.Equal(t, tt.expected, fieldNames(result.Errors))
		})
	}
}

func TestValidatePurchase(t *testing.T) {
	date := models.NewDate(2023, time.March, 3)

	tests := []struct {
		name     string
		purchase models.PurchaseInfo
		errors   []string
		warnings int
	}{
		{
			name:     "unknown document needs a year",
			purchase: models.PurchaseInfo{DocumentType: metadata.DocumentUnknown},
			errors:   []string{"purchase.year"},
		},
		{
			name:     "future year",
			purchase: models.PurchaseInfo{DocumentType: metadata.DocumentUnknown, Year: 2030},
			errors:   []string{"purchase.year"},
		},
		{
			name:     "year with three digits",
			purchase: models.PurchaseInfo{DocumentType: metadata.DocumentUnknown, Year: 999},
			errors:   []string{"purchase.year"},
		},
		{
			name:     "invoice needs a date",
			purchase: models.PurchaseInfo{DocumentType: metadata.DocumentInvoice, Year: 2022},
			errors:   []string{"purchase.date"},
		},
		{
			name:     "date and year present",
			purchase: models.PurchaseInfo{DocumentType: metadata.DocumentReceipt, Date: &date, Year: 2022},
			warnings: 1,
		},
		{
			name:     "date without document type",
			purchase: models.PurchaseInfo{Date: &date},
			errors:   []string{"purchase.document_type"},
		},
		{
			name:     "no purchase data",
			purchase: models.PurchaseInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validLaptop()
			record.Purchase = tt.purchase

			result := Validate(record, laptopCategory(), fixedNow)

			if tt.errors == nil {
				assert.Empty(t, result.Errors)
			} else {
				assert.Equal(t, tt.errors, fieldNames(result.Errors))
			}
			assert.Len(t, result.Warnings, tt.warnings)
		})
	}
}

func TestValidateFixedAttributes(t *testing.T) {
	record := validLaptop()
	record.Category = "Servidor"
	record.Status = "broken"
	record.Manufacturer = "Acer"
	record.Users = []models.AssignedUser{{Name: "Ana", Email: "not-an-email"}}

	result := Validate(record, laptopCategory(), fixedNow)

	assert.Equal(t, []string{"category", "status", "users[0].email"}, fieldNames(result.Errors))
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "manufacturer", result.Warnings[0].Field)
}

func TestCheckCategoryUnchanged(t *testing.T) {
	stored := validLaptop()

	same := validLaptop()
	assert.NoError(t, CheckCategoryUnchanged(stored, same))

	omitted := validLaptop()
	omitted.Category = ""
	assert.NoError(t, CheckCategoryUnchanged(stored, omitted))

	changed := validLaptop()
	changed.Category = "Servidor"
	err := CheckCategoryUnchanged(stored, changed)
	assert.ErrorIs(t, err, custom_error.ErrCategoryImmutable)
	assert.Equal(t, custom_error.KindCategoryImmutable, custom_error.KindOf(err))
}

func TestReconcileCanonicalizesLabelsAndDefaults(t *testing.T) {
	record := validLaptop()
	record.Fields = models.FieldSet{
		"Procesador":       models.ScalarValue("", models.Text("Ryzen 7")),
		"Tarjeta de video": models.ScalarValue("", models.Text("Dedicada")),
		"Pulgadas":         models.ScalarValue("", models.Text("14")),
		"Memoria RAM": models.GroupValue("", []models.ComponentEntry{
			{"Capacidad": models.Text("8")},
			{"Capacidad": models.Number(16), "Tipo": models.Text("DDR5")},
		}),
	}

	out, result := Reconcile(record, laptopCategory(), fixedNow)

	require.True(t, result.Valid(), "%v", result.Errors)
	assert.Equal(t, []string{"Memoria_RAM", "Procesador", "Pulgadas", "Tarjeta_de_video"}, out.Fields.Keys())
	assert.Equal(t, "Tarjeta de video", out.Fields["Tarjeta_de_video"].Label)

	inches, ok := out.Fields["Pulgadas"].Scalar()
	require.True(t, ok)
	assert.Equal(t, models.Number(14), inches)

	entries, ok := out.Fields["Memoria_RAM"].Entries()
	require.True(t, ok)
	assert.Equal(t, []models.ComponentEntry{
		{"Capacidad": models.Number(8), "Tipo": models.Text("")},
		{"Capacidad": models.Number(16), "Tipo": models.Text("DDR5")},
	}, entries)

	// the input record is left untouched
	_, stillLabelled := record.Fields["Memoria RAM"]
	assert.True(t, stillLabelled)
}

func TestReconcilePrefersCanonicalKey(t *testing.T) {
	record := validLaptop()
	record.Fields["Tarjeta_de_video"] = models.ScalarValue("Tarjeta de video", models.Text("Integrada"))
	record.Fields["Tarjeta de video"] = models.ScalarValue("Tarjeta de video", models.Text("Dedicada"))

	out, result := Reconcile(record, laptopCategory(), fixedNow)

	value, _ := out.Fields["Tarjeta_de_video"].Scalar()
	assert.Equal(t, "Integrada", value.String())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "fields.Tarjeta_de_video", result.Warnings[0].Field)
}

func TestReconcileDerivesWarranty(t *testing.T) {
	tests := []struct {
		name      string
		purchase  models.PurchaseInfo
		duration  metadata.WarrantyDuration
		status    string
		expiresAt string
	}{
		{
			name:      "exact date expired",
			purchase:  validLaptop().Purchase,
			duration:  metadata.WarrantyOneYear,
			status:    "expired",
			expiresAt: "2024-01-15",
		},
		{
			name:      "year only",
			purchase:  models.PurchaseInfo{DocumentType: metadata.DocumentUnknown, Year: 2022},
			duration:  metadata.WarrantyTwoYears,
			status:    "expired",
			expiresAt: "2024-01-01",
		},
		{
			name:      "human duration form is normalized",
			purchase:  validLaptop().Purchase,
			duration:  "3 Years",
			status:    "current",
			expiresAt: "2026-01-15",
		},
		{
			name:     "no warranty",
			purchase: validLaptop().Purchase,
			duration: metadata.WarrantyNone,
			status:   "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validLaptop()
			record.Purchase = tt.purchase
			record.Warranty = models.WarrantyInfo{Duration: tt.duration, Status: "stale"}

			out, result := Reconcile(record, laptopCategory(), fixedNow)

			assert.True(t, result.Valid(), "%v", result.Errors)
			assert.Equal(t, tt.status, out.Warranty.Status)
			if tt.expiresAt == "" {
				assert.Nil(t, out.Warranty.ExpiresAt)
			} else {
				require.NotNil(t, out.Warranty.ExpiresAt)
				assert.Equal(t, tt.expiresAt, out.Warranty.ExpiresAt.String())
			}
		})
	}
}

func TestWireRoundTripPreservesComponentOrder(t *testing.T) {
	record := validLaptop()
	record.ID = 42
	record.Code = "ACME-LAP0007"
	record.Fields["Memoria_RAM"] = models.GroupValue("Memoria RAM", []models.ComponentEntry{
		{"Capacidad": models.Number(32), "Tipo": models.Text("DDR5")},
		{"Capacidad": models.Number(8), "Tipo": models.Text("DDR4")},
		{"Capacidad": models.Number(16), "Tipo": models.Text("")},
	})
	record.Users = []models.AssignedUser{{Name: "Ana", Email: "ana@example.com", Role: "owner"}}

	values, err := ToWire(record)
	require.NoError(t, err)
	assert.Equal(t, "42", values[WireID])
	assert.Equal(t, "2023-01-15", values[WirePurchaseDate])

	decoded, err := FromWire(values, laptopCategory())
	require.NoError(t, err)

	assert.Equal(t, record.Fields, decoded.Fields)
	assert.Equal(t, record.Users, decoded.Users)
	assert.Equal(t, record.Code, decoded.Code)
	assert.Equal(t, record.Purchase.Date.String(), decoded.Purchase.Date.String())
}

func TestFromWireToleratesKeySpellingsAndLabels(t *testing.T) {
	values := map[string]string{
		"category":             "Laptop",
		"locationId":           "3",
		"camposPersonalizados": `{"Procesador":"i5","Tarjeta de video":"Integrada"}`,
		"componentes":          `{"Memoria RAM":[{"Capacidad":8},{"Capacidad":4,"Tipo":"DDR4"}]}`,
	}

	record, err := FromWire(values, laptopCategory())
	require.NoError(t, err)

	assert.Equal(t, 3, record.LocationID)
	assert.Equal(t, []string{"Memoria_RAM", "Procesador", "Tarjeta_de_video"}, record.Fields.Keys())
	assert.Equal(t, "Tarjeta de video", record.Fields["Tarjeta_de_video"].Label)

	entries, _ := record.Fields["Memoria_RAM"].Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, models.Number(8), entries[0]["Capacidad"])
	assert.Equal(t, models.Text("DDR4"), entries[1]["Tipo"])
}

func TestFromWireReportsMalformedValues(t *testing.T) {
	_, err := FromWire(map[string]string{
		"location_id":   "abc",
		"simple_fields": "{not json",
	}, laptopCategory())

	var verr *custom_error.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"location_id", "simple_fields"}, fieldNames(verr.Fields))
}

func TestMultipartRoundTrip(t *testing.T) {
	record := validLaptop()
	record.Photos = []models.Photo{
		{Attachment: models.Attachment{FileName: "front.jpg", ContentType: "image/jpeg", Data: []byte("front")}, Caption: "front"},
		{Attachment: models.Attachment{URL: "https://cdn.example.com/back.jpg"}, Caption: "back"},
	}
	record.Purchase.Document = &models.Attachment{
		FileName:    "invoice.pdf",
		ContentType: "application/pdf",
		Description: "Factura 001",
		Data:        []byte("%PDF-1.4"),
	}

	var body bytes.Buffer
	contentType, err := WriteMultipart(&body, record)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	decoded, err := ReadMultipart(&body, params["boundary"], laptopCategory())
	require.NoError(t, err)

	require.Len(t, decoded.Photos, 2)
	assert.Equal(t, []byte("front"), decoded.Photos[0].Data)
	assert.Equal(t, "front", decoded.Photos[0].Caption)
	assert.Equal(t, "https://cdn.example.com/back.jpg", decoded.Photos[1].URL)
	assert.Empty(t, decoded.Photos[1].Data)

	require.NotNil(t, decoded.Purchase.Document)
	assert.Equal(t, "Factura 001", decoded.Purchase.Document.Description)
	assert.Equal(t, []byte("%PDF-1.4"), decoded.Purchase.Document.Data)
	assert.Equal(t, record.Fields, decoded.Fields)
}

func TestReadMultipartRequiresDataPart(t *testing.T) {
	_, err := ReadMultipart(bytes.NewReader(nil), "missing", laptopCategory())
	assert.Error(t, err)
}

func TestReadMultipartRejectsOversizedPart(t *testing.T) {
	record := validLaptop()
	record.Purchase.Document = &models.Attachment{FileName: "scan.pdf", Data: make([]byte, MaxPartSize+1)}

	var body bytes.Buffer
	contentType, err := WriteMultipart(&body, record)
	require.NoError(t, err)
	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)

	_, err = ReadMultipart(&body, params["boundary"], laptopCategory())
	assert.ErrorIs(t, err, ErrPartTooLarge)
}
