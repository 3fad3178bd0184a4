package category

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"assettracker/internal/repository"
	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/schema"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

// FlatCategoryRecord is the row shape of the categories table.
type FlatCategoryRecord struct {
	ID                 int    `db:"id"`
	Name               string `db:"name"`
	Key                string `db:"key"`
	Prefix             string `db:"prefix"`
	SubcategoryOptions []byte `db:"subcategory_options"`
	Fields             []byte `db:"fields"`
}

func (r *FlatCategoryRecord) TransformToDefinition() (schema.CategoryDefinition, error) {
	def := schema.CategoryDefinition{
		ID:     r.ID,
		Name:   r.Name,
		Key:    r.Key,
		Prefix: r.Prefix,
	}
	if len(r.SubcategoryOptions) > 0 {
		if err := json.Unmarshal(r.SubcategoryOptions, &def.SubcategoryOptions); err != nil {
			return def, fmt.Errorf("failed to decode subcategory options of %s: %w", r.Name, err)
		}
	}
	if len(r.Fields) > 0 {
		if err := json.Unmarshal(r.Fields, &def.Fields); err != nil {
			return def, fmt.Errorf("failed to decode fields of %s: %w", r.Name, err)
		}
	}
	return def, nil
}

type CategoryRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *CategoryRepository {
	return &CategoryRepository{repository: r}
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]schema.CategoryDefinition, error) {
	query := r.repository.GoquDBWrapper.
		Select("id", "name", "key", "prefix", "subcategory_options", "fields").
		From("categories").
		Order(goqu.I("name").Asc())

	var rows []FlatCategoryRecord
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	defs := make([]schema.CategoryDefinition, 0, len(rows))
	for _, row := range rows {
		def, err := row.TransformToDefinition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, def schema.CategoryDefinition) (*schema.CategoryDefinition, error) {
	record, err := categoryRecord(def)
	if err != nil {
		return nil, err
	}

	query := r.repository.GoquDBWrapper.Insert("categories").
		Rows(record).
		Returning("id")

	if _, err := query.Executor().ScanValContext(ctx, &def.ID); err != nil {
		return nil, wrapCategoryError("failed to insert category", err)
	}

	return &def, nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, id int, def schema.CategoryDefinition) (*schema.CategoryDefinition, error) {
	record, err := categoryRecord(def)
	if err != nil {
		return nil, err
	}
	record["updated_at"] = goqu.L("NOW()")

	result, err := r.repository.GoquDBWrapper.Update("categories").
		Set(record).
		Where(goqu.Ex{"id": id}).
		Executor().ExecContext(ctx)
	if err != nil {
		return nil, wrapCategoryError("failed to update category", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("could not retrieve rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: id %d", custom_error.ErrCategoryNotFound, id)
	}

	def.ID = id
	return &def, nil
}

func categoryRecord(def schema.CategoryDefinition) (goqu.Record, error) {
	options := def.SubcategoryOptions
	if options == nil {
		options = []string{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode subcategory options: %w", err)
	}

	fields := def.Fields
	if fields == nil {
		fields = []schema.FieldDefinition{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}

	return goqu.Record{
		"name":                def.Name,
		"key":                 def.Key,
		"prefix":              def.Prefix,
		"subcategory_options": string(optionsJSON),
		"fields":              string(fieldsJSON),
	}, nil
}

func wrapCategoryError(message string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return custom_error.NewValidationError(custom_error.FieldError{
			Field:   "name",
			Message: "category name or key already exists",
		})
	}
	return fmt.Errorf("%s: %w", message, err)
}
