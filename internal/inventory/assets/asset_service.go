package assets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assettracker/internal/inventory/records"
	"assettracker/internal/metrics"
	"assettracker/internal/repository"
	"assettracker/pkg/auditlog"
	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/metadata"
	"assettracker/pkg/models"
	"assettracker/pkg/schema"
	"assettracker/pkg/warranty"

	"go.uber.org/zap"
)

// Store is the persistence collaborator of the asset service.
type Store interface {
	GetAsset(ctx context.Context, id int) (*models.AssetRecord, error)
	FindAssets(ctx context.Context, conditions repository.QueryBuilder) ([]models.AssetRecord, error)
	CreateAsset(ctx context.Context, record models.AssetRecord) (*models.AssetRecord, error)
	UpdateAsset(ctx context.Context, id int, update models.AssetUpdate) (*models.AssetRecord, error)
}

type CategoryResolver interface {
	Resolve(ctx context.Context, name string) (*schema.CategoryDefinition, error)
}

type CodeAllocator interface {
	NextCode(ctx context.Context, locationID int, companyPrefix, categoryPrefix string) (string, error)
}

// SaveResult is a persisted asset with the non-blocking warnings raised while
// reconciling it.
type SaveResult struct {
	Asset    *models.AssetRecord `json:"asset"`
	Warnings []records.Warning   `json:"warnings,omitempty"`
}

type Filter struct {
	LocationID int    `form:"location_id"`
	Category   string `form:"category"`
	Status     string `form:"status"`
}

type AssetService struct {
	store         Store
	categories    CategoryResolver
	codes         CodeAllocator
	auditLog      *auditlog.Auditlog
	warranty      *warranty.Calculator
	companyPrefix string
	now           func() time.Time
	logger        *zap.Logger
}

func NewAssetService(
	store Store,
	categories CategoryResolver,
	codes CodeAllocator,
	auditLog *auditlog.Auditlog,
	companyPrefix string,
	now func() time.Time,
	logger *zap.Logger,
) *AssetService {
	if now == nil {
		now = time.Now
	}
	return &AssetService{
		store:         store,
		categories:    categories,
		codes:         codes,
		auditLog:      auditLog,
		warranty:      warranty.NewCalculator(now),
		companyPrefix: companyPrefix,
		now:           now,
		logger:        logger,
	}
}

// Register validates a new asset against its category, allocates its code in
// the target location and stores it. A code taken between allocation and
// insert is re-allocated once.
func (s *AssetService) Register(ctx context.Context, record models.AssetRecord) (*SaveResult, error) {
	def, err := s.resolveCategory(ctx, record.Category)
	if err != nil {
		return nil, err
	}

	record.ID = 0
	record.Category = def.Name
	if record.Status == "" {
		record.Status = metadata.StatusActive
	}

	reconciled, result := records.Reconcile(&record, def, s.now())
	if !result.Valid() {
		metrics.IncValidationFailures("register")
		return nil, result.Err()
	}

	var created *models.AssetRecord
	for attempt := 0; attempt < 2; attempt++ {
		code, err := s.codes.NextCode(ctx, reconciled.LocationID, s.companyPrefix, def.Prefix)
		if err != nil {
			return nil, err
		}
		reconciled.Code = code

		created, err = s.store.CreateAsset(ctx, reconciled)
		if err == nil {
			break
		}

		var collision *custom_error.CollisionError
		if errors.As(err, &collision) && attempt == 0 {
			s.logger.Warn("Allocated code taken before insert, allocating again",
				zap.String("code", code), zap.Int("location_id", reconciled.LocationID))
			continue
		}

		s.logger.Error("Failed to create asset", zap.String("code", code), zap.Error(err))
		return nil, custom_error.WrapCollaboratorError("create asset", err)
	}

	s.logger.Info("Asset registered",
		zap.Int("id", created.ID), zap.String("code", created.Code), zap.String("category", created.Category))

	return &SaveResult{Asset: created, Warnings: result.Warnings}, nil
}

// Update edits an asset in place. Category, code and location cannot change
// here; every other change is audited with the given justification.
func (s *AssetService) Update(ctx context.Context, id int, incoming models.AssetRecord, justification string) (*SaveResult, error) {
	stored, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := records.CheckCategoryUnchanged(stored, &incoming); err != nil {
		return nil, err
	}

	verr := custom_error.NewValidationError()
	if incoming.Code != "" && metadata.NormalizeCode(incoming.Code) != metadata.NormalizeCode(stored.Code) {
		verr.Add("code", "can only change through a transfer")
	}
	if incoming.LocationID != 0 && incoming.LocationID != stored.LocationID {
		verr.Add("location_id", "can only change through a transfer")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	incoming.ID = stored.ID
	incoming.Category = stored.Category
	incoming.Code = stored.Code
	incoming.LocationID = stored.LocationID
	incoming.CreatedAt = stored.CreatedAt
	if incoming.Status == "" {
		incoming.Status = stored.Status
	}

	def, err := s.resolveCategory(ctx, stored.Category)
	if err != nil {
		return nil, err
	}

	reconciled, result := records.Reconcile(&incoming, def, s.now())
	if !result.Valid() {
		metrics.IncValidationFailures("update")
		return nil, result.Err()
	}

	deltas := auditlog.Diff(stored, &reconciled)
	if len(deltas) == 0 {
		return &SaveResult{Asset: stored, Warnings: result.Warnings}, nil
	}

	entries, err := s.auditLog.Entries(id, deltas, justification)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateAsset(ctx, id, models.AssetUpdate{Record: reconciled, Audit: entries})
	if err != nil {
		s.logger.Error("Failed to update asset", zap.Int("id", id), zap.Error(err))
		return nil, custom_error.WrapCollaboratorError("update asset", err)
	}

	fields := make([]string, 0, len(entries))
	for _, entry := range entries {
		fields = append(fields, entry.Field)
	}
	metrics.AddAuditEntries(fields...)
	s.logger.Info("Asset updated", zap.Int("id", id), zap.Strings("fields", fields))

	return &SaveResult{Asset: updated, Warnings: result.Warnings}, nil
}

// Decommission retires an asset. Assets are never deleted.
func (s *AssetService) Decommission(ctx context.Context, id int, justification string) (*SaveResult, error) {
	stored, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	retired := stored.Clone()
	retired.Status = metadata.StatusDecommissioned

	return s.Update(ctx, id, retired, justification)
}

func (s *AssetService) Get(ctx context.Context, id int) (*models.AssetRecord, error) {
	asset, err := s.store.GetAsset(ctx, id)
	if err != nil {
		if !errors.Is(err, custom_error.ErrAssetNotFound) {
			s.logger.Error("Failed to get asset", zap.Int("id", id), zap.Error(err))
		}
		return nil, custom_error.WrapCollaboratorError("get asset", err)
	}
	records.RefreshWarranty(asset, s.now())
	return asset, nil
}

func (s *AssetService) List(ctx context.Context, filter Filter) ([]models.AssetRecord, error) {
	conditions := repository.NewQueryBuilder()
	conditions.AddCondition("location_id", filter.LocationID)
	conditions.AddCondition("category", filter.Category)
	conditions.AddCondition("status", filter.Status)

	assets, err := s.store.FindAssets(ctx, conditions)
	if err != nil {
		s.logger.Error("Failed to list assets", zap.Error(err))
		return nil, custom_error.WrapCollaboratorError("list assets", err)
	}
	now := s.now()
	for i := range assets {
		records.RefreshWarranty(&assets[i], now)
	}
	return assets, nil
}

func (s *AssetService) History(ctx context.Context, id int) ([]models.ChangeAuditEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.auditLog.History(ctx, id)
}

// Warranty recomputes the warranty state of a stored asset for today.
func (s *AssetService) Warranty(ctx context.Context, id int) (warranty.Result, error) {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return warranty.Result{}, err
	}

	return s.warranty.Compute(warranty.Input{
		PurchaseDate: asset.Purchase.Date.TimePtr(),
		PurchaseYear: asset.Purchase.Year,
		Duration:     asset.Warranty.Duration,
	}), nil
}

func (s *AssetService) resolveCategory(ctx context.Context, name string) (*schema.CategoryDefinition, error) {
	if name == "" {
		return nil, custom_error.NewValidationError(custom_error.FieldError{Field: "category", Message: "is required"})
	}

	def, err := s.categories.Resolve(ctx, name)
	if err != nil {
		if errors.Is(err, custom_error.ErrCategoryNotFound) {
			return nil, custom_error.NewValidationError(custom_error.FieldError{
				Field:   "category",
				Message: fmt.Sprintf("unknown category %q", name),
			})
		}
		return nil, custom_error.WrapCollaboratorError("resolve category", err)
	}
	return def, nil
}
