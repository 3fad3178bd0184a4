package locations

import (
	"context"
	"errors"
	"fmt"

	"assettracker/internal/repository"
	custom_error "assettracker/pkg/errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

const locationsTable = "locations"

// Location is a physical site with its own asset numbering space.
type Location struct {
	ID      int    `json:"id" db:"id"`
	Name    string `json:"name" db:"name" binding:"required"`
	Details string `json:"details" db:"details"`
}

type UpdateLocationRequest struct {
	Name    *string `json:"name"`
	Details *string `json:"details"`
}

type LocationRepository struct {
	Repository *repository.Repository
}

func NewLocationRepository(r *repository.Repository) *LocationRepository {
	return &LocationRepository{Repository: r}
}

func (r *LocationRepository) GetLocations(ctx context.Context) ([]Location, error) {
	locations := []Location{}
	query := r.Repository.GoquDBWrapper.
		Select("id", "name", "details").
		From(locationsTable).
		Order(goqu.I("name").Asc())
	if err := query.Executor().ScanStructsContext(ctx, &locations); err != nil {
		return nil, fmt.Errorf("unable to list locations: %w", err)
	}

	return locations, nil
}

func (r *LocationRepository) PersistLocation(ctx context.Context, location *Location) error {
	query := r.Repository.GoquDBWrapper.Insert(locationsTable).
		Rows(goqu.Record{
			"name":    location.Name,
			"details": location.Details,
		}).
		Returning("id")

	if _, err := query.Executor().ScanValContext(ctx, &location.ID); err != nil {
		return wrapLocationError("failed to insert location record", err)
	}

	return nil
}

func (r *LocationRepository) UpdateLocation(ctx context.Context, id int, req UpdateLocationRequest) (*Location, error) {
	updates := goqu.Record{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Details != nil {
		updates["details"] = *req.Details
	}
	if len(updates) == 0 {
		return nil, custom_error.NewValidationError(custom_error.FieldError{Field: "name", Message: "no fields to update"})
	}

	query := r.Repository.GoquDBWrapper.
		Update(locationsTable).
		Set(updates).
		Where(goqu.Ex{"id": id}).
		Returning("id", "name", "details")

	var location Location
	found, err := query.Executor().ScanStructContext(ctx, &location)
	if err != nil {
		return nil, wrapLocationError("failed to update location", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: no location with id %d", ErrLocationNotFound, id)
	}

	return &location, nil
}

// RemoveLocation fails with a ForeignKeyViolationError while assets still
// reference the location.
func (r *LocationRepository) RemoveLocation(ctx context.Context, id int) error {
	result, err := r.Repository.GoquDBWrapper.
		Delete(locationsTable).
		Where(goqu.Ex{"id": id}).
		Executor().ExecContext(ctx)
	if err != nil {
		return wrapLocationError("failed to delete location", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not retrieve rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: no location with id %d", ErrLocationNotFound, id)
	}

	return nil
}

var ErrLocationNotFound = errors.New("location not found")

func wrapLocationError(message string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && (pqErr.Code == "23505" || pqErr.Code == "23503") {
		return custom_error.WrapConstraintError(message, string(pqErr.Code), pqErr.Constraint)
	}
	return fmt.Errorf("%s: %w", message, err)
}
