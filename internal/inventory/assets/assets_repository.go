package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	auditLogRepo "assettracker/internal/auditlog"
	"assettracker/internal/repository"
	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/metadata"
	"assettracker/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
)

const (
	assetsTable    = "assets"
	transfersTable = "asset_transfers"

	// codeConstraint is the unique constraint on (location_id, code).
	codeConstraint = "assets_location_code_key"
)

// FlatAssetRecord is the row shape of the assets table. Nested blocks are
// stored as JSONB.
type FlatAssetRecord struct {
	ID           int       `db:"id"`
	Code         string    `db:"code"`
	Category     string    `db:"category"`
	Manufacturer string    `db:"manufacturer"`
	Model        string    `db:"model"`
	Serial       string    `db:"serial"`
	LocationID   int       `db:"location_id"`
	Area         string    `db:"area"`
	Status       string    `db:"status"`
	Condition    string    `db:"condition"`
	IP           string    `db:"ip"`
	MAC          string    `db:"mac"`
	RemoteAccess string    `db:"remote_access"`
	Notes        string    `db:"notes"`
	Users        []byte    `db:"users"`
	Photos       []byte    `db:"photos"`
	Purchase     []byte    `db:"purchase"`
	Warranty     []byte    `db:"warranty"`
	Fields       []byte    `db:"fields"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *FlatAssetRecord) TransformToAssetRecord() (*models.AssetRecord, error) {
	asset := &models.AssetRecord{
		ID:           r.ID,
		Code:         r.Code,
		Category:     r.Category,
		Manufacturer: r.Manufacturer,
		Model:        r.Model,
		Serial:       r.Serial,
		LocationID:   r.LocationID,
		Area:         r.Area,
		Status:       metadata.Status(r.Status),
		Condition:    metadata.Condition(r.Condition),
		Network: models.NetworkIdentity{
			IP:           r.IP,
			MAC:          r.MAC,
			RemoteAccess: r.RemoteAccess,
		},
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	columns := []struct {
		name   string
		raw    []byte
		target interface{}
	}{
		{"users", r.Users, &asset.Users},
		{"photos", r.Photos, &asset.Photos},
		{"purchase", r.Purchase, &asset.Purchase},
		{"warranty", r.Warranty, &asset.Warranty},
		{"fields", r.Fields, &asset.Fields},
	}
	for _, column := range columns {
		if len(column.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(column.raw, column.target); err != nil {
			return nil, fmt.Errorf("failed to decode %s of asset %d: %w", column.name, r.ID, err)
		}
	}

	return asset, nil
}

type AssetsRepository struct {
	repository *repository.Repository
	auditLog   *auditLogRepo.AuditLogRepository
}

func NewRepository(r *repository.Repository, auditLog *auditLogRepo.AuditLogRepository) *AssetsRepository {
	return &AssetsRepository{repository: r, auditLog: auditLog}
}

func (r *AssetsRepository) GetAsset(ctx context.Context, id int) (*models.AssetRecord, error) {
	return r.getAsset(ctx, r.repository.GoquDBWrapper.From(assetsTable), id)
}

// ListAssets returns the codes held by a location.
func (r *AssetsRepository) ListAssets(ctx context.Context, locationID int) ([]models.AssetSummary, error) {
	query := r.repository.GoquDBWrapper.
		Select("id", "code", "category", "location_id").
		From(assetsTable).
		Where(goqu.Ex{"location_id": locationID}).
		Order(goqu.I("code").Asc())

	summaries := []models.AssetSummary{}
	if err := query.Executor().ScanStructsContext(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("failed to list assets of location %d: %w", locationID, err)
	}

	return summaries, nil
}

// FindAssets lists assets matching the filters collected in conditions.
func (r *AssetsRepository) FindAssets(ctx context.Context, conditions repository.QueryBuilder) ([]models.AssetRecord, error) {
	query := r.repository.GoquDBWrapper.
		From(assetsTable).
		Where(conditions.BuildConditions(map[string]string{})).
		Order(goqu.I("id").Asc())

	var rows []FlatAssetRecord
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	assets := make([]models.AssetRecord, 0, len(rows))
	for _, row := range rows {
		asset, err := row.TransformToAssetRecord()
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	return assets, nil
}

func (r *AssetsRepository) CreateAsset(ctx context.Context, record models.AssetRecord) (*models.AssetRecord, error) {
	row, err := assetRow(&record)
	if err != nil {
		return nil, err
	}

	query := r.repository.GoquDBWrapper.Insert(assetsTable).
		Rows(row).
		Returning("id", "created_at", "updated_at")

	var inserted struct {
		ID        int       `db:"id"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	if _, err := query.Executor().ScanStructContext(ctx, &inserted); err != nil {
		return nil, wrapAssetError("failed to insert asset", err, &record)
	}

	record.ID = inserted.ID
	record.CreatedAt = inserted.CreatedAt
	record.UpdatedAt = inserted.UpdatedAt
	return &record, nil
}

// UpdateAsset writes the new record and its audit entries in one
// transaction.
func (r *AssetsRepository) UpdateAsset(ctx context.Context, id int, update models.AssetUpdate) (*models.AssetRecord, error) {
	row, err := assetRow(&update.Record)
	if err != nil {
		return nil, err
	}
	row["updated_at"] = goqu.L("NOW()")

	var updated *models.AssetRecord
	err = repository.WithTransaction(ctx, r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		result, err := tx.Update(assetsTable).
			Set(row).
			Where(goqu.Ex{"id": id}).
			Executor().ExecContext(ctx)
		if err != nil {
			return wrapAssetError("failed to update asset", err, &update.Record)
		}
		if rowsAffected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("could not retrieve rows affected: %w", err)
		} else if rowsAffected == 0 {
			return fmt.Errorf("%w: id %d", custom_error.ErrAssetNotFound, id)
		}

		if err := r.auditLog.PersistEntries(ctx, tx, update.Audit); err != nil {
			return err
		}

		updated, err = r.getAsset(ctx, tx.From(assetsTable), id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// TransferAsset moves an asset to another location. The location, area,
// optional new code and departure condition are written together with the
// transfer row and the audit entries.
func (r *AssetsRepository) TransferAsset(ctx context.Context, id int, payload models.TransferPayload) (*models.AssetRecord, error) {
	photos := payload.Photos
	if photos == nil {
		photos = []models.Photo{}
	}
	photosJSON, err := json.Marshal(photos)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer photos: %w", err)
	}

	changes := goqu.Record{
		"location_id": payload.ToLocationID,
		"area":        payload.DestinationArea,
		"photos":      goqu.L("photos || ?::jsonb", string(photosJSON)),
		"updated_at":  goqu.L("NOW()"),
	}
	newCode := payload.PreviousCode
	if payload.CodeChanged() {
		newCode = payload.NewCode
		changes["code"] = payload.NewCode
	}
	if payload.DepartureCondition != "" {
		changes["condition"] = string(payload.DepartureCondition)
	}

	var transferred *models.AssetRecord
	err = repository.WithTransaction(ctx, r.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		result, err := tx.Update(assetsTable).
			Set(changes).
			Where(goqu.Ex{"id": id, "location_id": payload.FromLocationID}).
			Executor().ExecContext(ctx)
		if err != nil {
			return wrapAssetError("failed to move asset", err, &models.AssetRecord{Code: newCode, LocationID: payload.ToLocationID})
		}
		if rowsAffected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("could not retrieve rows affected: %w", err)
		} else if rowsAffected == 0 {
			return fmt.Errorf("%w: id %d in location %d", custom_error.ErrAssetNotFound, id, payload.FromLocationID)
		}

		_, err = tx.Insert(transfersTable).
			Rows(goqu.Record{
				"id":                  payload.ID,
				"asset_id":            id,
				"from_location_id":    payload.FromLocationID,
				"to_location_id":      payload.ToLocationID,
				"destination_area":    payload.DestinationArea,
				"previous_code":       payload.PreviousCode,
				"new_code":            newCode,
				"departure_condition": string(payload.DepartureCondition),
				"sending_party":       payload.SendingParty,
				"receiving_party":     payload.ReceivingParty,
				"transfer_date":       payload.TransferDate,
				"justification":       payload.Justification,
				"photos":              string(photosJSON),
			}).
			Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert transfer record: %w", err)
		}

		if err := r.auditLog.PersistEntries(ctx, tx, payload.Audit); err != nil {
			return err
		}

		transferred, err = r.getAsset(ctx, tx.From(assetsTable), id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return transferred, nil
}

func (r *AssetsRepository) getAsset(ctx context.Context, ds *goqu.SelectDataset, id int) (*models.AssetRecord, error) {
	var row FlatAssetRecord
	found, err := ds.Where(goqu.Ex{"id": id}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %d: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: id %d", custom_error.ErrAssetNotFound, id)
	}

	return row.TransformToAssetRecord()
}

func assetRow(record *models.AssetRecord) (goqu.Record, error) {
	users := record.Users
	if users == nil {
		users = []models.AssignedUser{}
	}
	photos := record.Photos
	if photos == nil {
		photos = []models.Photo{}
	}
	fields := record.Fields
	if fields == nil {
		fields = models.FieldSet{}
	}

	row := goqu.Record{
		"code":          record.Code,
		"category":      record.Category,
		"manufacturer":  record.Manufacturer,
		"model":         record.Model,
		"serial":        record.Serial,
		"location_id":   record.LocationID,
		"area":          record.Area,
		"status":        string(record.Status),
		"condition":     string(record.Condition),
		"ip":            record.Network.IP,
		"mac":           record.Network.MAC,
		"remote_access": record.Network.RemoteAccess,
		"notes":         record.Notes,
	}

	for column, value := range map[string]interface{}{
		"users":    users,
		"photos":   photos,
		"purchase": record.Purchase,
		"warranty": record.Warranty,
		"fields":   fields,
	} {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", column, err)
		}
		row[column] = string(encoded)
	}

	return row, nil
}

// wrapAssetError turns a violation of the per-location code constraint into
// a CollisionError and other constraint violations into their typed errors.
func wrapAssetError(message string, err error, record *models.AssetRecord) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %w", message, err)
	}

	switch {
	case pqErr.Code == "23505" && pqErr.Constraint == codeConstraint:
		return &custom_error.CollisionError{Code: record.Code, LocationID: record.LocationID}
	case pqErr.Code == "23505", pqErr.Code == "23503":
		return custom_error.WrapConstraintError(message, string(pqErr.Code), pqErr.Constraint)
	default:
		return fmt.Errorf("%s: %w", message, err)
	}
}
