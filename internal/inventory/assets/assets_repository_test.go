package assets

import (
	"context"
	"testing"
	"time"

	auditLogRepo "assettracker/internal/auditlog"
	"assettracker/internal/repository"
	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/metadata"
	"assettracker/pkg/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assetColumns = []string{
	"id", "code", "category", "manufacturer", "model", "serial", "location_id", "area", "status", "condition",
	"ip", "mac", "remote_access", "notes", "users", "photos", "purchase", "warranty", "fields", "created_at", "updated_at",
}

func assetRows(id int, code string, locationID int) *sqlmock.Rows {
	createdAt := time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(assetColumns).AddRow(
		id, code, "Laptop", "Lenovo", "ThinkPad T14", "PF3X9", locationID, "Soporte", "active", "good",
		"10.0.0.12", "", "", "",
		[]byte(`[]`), []byte(`[]`),
		[]byte(`{"document_type":"invoice","date":"2024-01-10","document_number":"F-100","supplier":"Compumundo"}`),
		[]byte(`{"duration":"1_year","expires_at":"2025-01-10","status":"current"}`),
		[]byte(`{"Procesador":{"label":"Procesador","value":"i7"}}`),
		createdAt, createdAt,
	)
}

func newTestRepository(t *testing.T) (*AssetsRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewRepository(db)
	return NewRepository(repo, auditLogRepo.NewRepository(repo)), mock
}

func TestGetAssetDecodesJSONColumns(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectQuery(`SELECT .* FROM "assets" WHERE \("id" = 11\)`).WillReturnRows(assetRows(11, "ACME-LAP0005", 2))

	asset, err := repo.GetAsset(context.Background(), 11)

	require.NoError(t, err)
	assert.Equal(t, "ACME-LAP0005", asset.Code)
	assert.Equal(t, metadata.DocumentInvoice, asset.Purchase.DocumentType)
	assert.Equal(t, "2024-01-10", asset.Purchase.Date.String())
	assert.Equal(t, metadata.WarrantyOneYear, asset.Warranty.Duration)
	processor, ok := asset.Fields["Procesador"].Scalar()
	require.True(t, ok)
	assert.Equal(t, "i7", processor.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAssetNotFoundRow(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectQuery(`SELECT .* FROM "assets"`).WillReturnRows(sqlmock.NewRows(assetColumns))

	_, err := repo.GetAsset(context.Background(), 99)

	assert.ErrorIs(t, err, custom_error.ErrAssetNotFound)
}

func TestCreateAssetMapsCodeConstraintToCollision(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectQuery(`INSERT INTO "assets"`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: codeConstraint})

	_, err := repo.CreateAsset(context.Background(), models.AssetRecord{Code: "ACME-LAP0005", LocationID: 2, Category: "Laptop"})

	var collision *custom_error.CollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "ACME-LAP0005", collision.Code)
	assert.Equal(t, 2, collision.LocationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssetReturnsGeneratedColumns(t *testing.T) {
	repo, mock := newTestRepository(t)
	createdAt := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO "assets" .* RETURNING "id", "created_at", "updated_at"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(11, createdAt, createdAt))

	created, err := repo.CreateAsset(context.Background(), models.AssetRecord{Code: "ACME-LAP0005", LocationID: 2, Category: "Laptop"})

	require.NoError(t, err)
	assert.Equal(t, 11, created.ID)
	assert.Equal(t, createdAt, created.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAssetWritesAuditInSameTransaction(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "assets" SET .* WHERE \("id" = 11\)`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "asset_audit_log"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM "assets"`).WillReturnRows(assetRows(11, "ACME-LAP0005", 2))
	mock.ExpectCommit()

	update := models.AssetUpdate{
		Record: models.AssetRecord{Code: "ACME-LAP0005", LocationID: 2, Category: "Laptop", Area: "Soporte"},
		Audit: []models.ChangeAuditEntry{
			{AssetID: 11, Field: "area", PreviousValue: "Bodega", NewValue: "Soporte", Justification: "Reubicación interna"},
		},
	}
	updated, err := repo.UpdateAsset(context.Background(), 11, update)

	require.NoError(t, err)
	assert.Equal(t, 11, updated.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAssetRollsBackWhenAuditFails(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "assets"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "asset_audit_log"`).WillReturnError(&pq.Error{Code: "23514", Constraint: "asset_audit_log_justification_check"})
	mock.ExpectRollback()

	update := models.AssetUpdate{
		Record: models.AssetRecord{Code: "ACME-LAP0005", LocationID: 2},
		Audit:  []models.ChangeAuditEntry{{AssetID: 11, Field: "area", Justification: "corto"}},
	}
	_, err := repo.UpdateAsset(context.Background(), 11, update)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferAssetCommitsMoveTransferRowAndAudit(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "assets" SET .*"code"='LPT-0004'.* WHERE \(\("id" = 11\) AND \("location_id" = 1\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "asset_transfers"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "asset_audit_log"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(`SELECT .* FROM "assets"`).WillReturnRows(assetRows(11, "LPT-0004", 2))
	mock.ExpectCommit()

	payload := models.TransferPayload{
		ID:             "0b5f1c7e-3c55-4f4e-9f67-1f0d2b0c8a11",
		FromLocationID: 1,
		ToLocationID:   2,
		PreviousCode:   "LPT-0001",
		NewCode:        "LPT-0004",
		TransferDate:   time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		Justification:  "Traslado a sede norte",
		Audit: []models.ChangeAuditEntry{
			{AssetID: 11, Field: "transfer", NewValue: `{"destinationArea":"","destinationLocation":2}`},
			{AssetID: 11, Field: "code", PreviousValue: "LPT-0001", NewValue: "LPT-0004"},
		},
	}
	moved, err := repo.TransferAsset(context.Background(), 11, payload)

	require.NoError(t, err)
	assert.Equal(t, "LPT-0004", moved.Code)
	assert.Equal(t, 2, moved.LocationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferAssetFromWrongLocation(t *testing.T) {
	repo, mock := newTestRepository(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "assets"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.TransferAsset(context.Background(), 11, models.TransferPayload{FromLocationID: 3, ToLocationID: 2, PreviousCode: "LPT-0001"})

	assert.ErrorIs(t, err, custom_error.ErrAssetNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
