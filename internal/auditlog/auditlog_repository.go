package auditlog

import (
	"context"
	"fmt"

	"assettracker/internal/repository"
	"assettracker/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

const auditTable = "asset_audit_log"

type AuditLogRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AuditLogRepository {
	return &AuditLogRepository{repository: r}
}

// PersistEntries appends audit entries inside the caller's transaction so
// they commit or roll back together with the change they describe.
func (r *AuditLogRepository) PersistEntries(ctx context.Context, tx *goqu.TxDatabase, entries []models.ChangeAuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, goqu.Record{
			"asset_id":       entry.AssetID,
			"field":          entry.Field,
			"previous_value": entry.PreviousValue,
			"new_value":      entry.NewValue,
			"justification":  entry.Justification,
			"created_at":     entry.CreatedAt,
		})
	}

	if _, err := tx.Insert(auditTable).Rows(rows...).Executor().ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetHistory returns the entries of an asset, oldest first.
func (r *AuditLogRepository) GetHistory(ctx context.Context, assetID int) ([]models.ChangeAuditEntry, error) {
	query := r.repository.GoquDBWrapper.
		From(goqu.T(auditTable).As("a")).
		Select(
			goqu.I("a.id").As("id"),
			goqu.I("a.asset_id").As("asset_id"),
			goqu.I("a.field").As("field"),
			goqu.I("a.previous_value").As("previous_value"),
			goqu.I("a.new_value").As("new_value"),
			goqu.I("a.justification").As("justification"),
			goqu.I("a.created_at").As("created_at"),
		).
		Where(goqu.Ex{"a.asset_id": assetID}).
		Order(goqu.I("a.created_at").Asc(), goqu.I("a.id").Asc())

	entries := []models.ChangeAuditEntry{}
	if err := query.Executor().ScanStructsContext(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return entries, nil
}
