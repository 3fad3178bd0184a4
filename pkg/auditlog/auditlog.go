package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/models"

	"go.uber.org/zap"
)

// MinJustificationLength is counted in runes after trimming.
const MinJustificationLength = 10

const (
	FieldTransfer = "transfer"
	FieldCode     = "code"
)

type HistoryReader interface {
	GetHistory(ctx context.Context, assetID int) ([]models.ChangeAuditEntry, error)
}

type Auditlog struct {
	store  HistoryReader
	logger *zap.Logger
	now    func() time.Time
}

func NewAuditLog(store HistoryReader, logger *zap.Logger, now func() time.Time) *Auditlog {
	if now == nil {
		now = time.Now
	}
	return &Auditlog{store: store, logger: logger, now: now}
}

func ValidateJustification(justification string) error {
	if utf8.RuneCountInString(strings.TrimSpace(justification)) < MinJustificationLength {
		return custom_error.ErrJustificationTooShort
	}
	return nil
}

// Entries stamps deltas into audit entries. It refuses to produce entries
// without a valid justification.
func (a *Auditlog) Entries(assetID int, deltas []models.FieldDelta, justification string) ([]models.ChangeAuditEntry, error) {
	if err := ValidateJustification(justification); err != nil {
		return nil, err
	}

	now := a.now().UTC()
	justification = strings.TrimSpace(justification)
	entries := make([]models.ChangeAuditEntry, 0, len(deltas))
	for _, delta := range deltas {
		entries = append(entries, models.ChangeAuditEntry{
			AssetID:       assetID,
			Field:         delta.Field,
			PreviousValue: delta.Previous,
			NewValue:      delta.New,
			Justification: justification,
			CreatedAt:     now,
		})
	}

	return entries, nil
}

func (a *Auditlog) History(ctx context.Context, assetID int) ([]models.ChangeAuditEntry, error) {
	entries, err := a.store.GetHistory(ctx, assetID)
	if err != nil {
		a.logger.Error("Unable to load audit history", zap.Int("asset_id", assetID), zap.Error(err))
		return nil, custom_error.WrapCollaboratorError("get audit history", err)
	}
	return entries, nil
}

// Serialize renders a value for an audit column: strings verbatim,
// everything else as JSON.
func Serialize(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}
