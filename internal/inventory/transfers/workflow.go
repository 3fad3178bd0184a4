// Package transfers moves an asset between locations. Each transfer is a
// short-lived workflow that validates the request, resolves code collisions
// in the destination and commits the move together with its audit trail.
package transfers

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"assettracker/internal/inventory/codes"
	"assettracker/internal/inventory/records"
	"assettracker/internal/metrics"
	"assettracker/pkg/auditlog"
	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/metadata"
	"assettracker/pkg/models"
	"assettracker/pkg/schema"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type State string

const (
	StateDraft          State = "draft"
	StateValidating     State = "validating"
	StateCollisionCheck State = "collision_check"
	StateCommitted      State = "committed"
	StateRejected       State = "rejected"
)

func (s State) Terminal() bool {
	return s == StateCommitted || s == StateRejected
}

const (
	outcomeCommitted = "committed"
	outcomeRejected  = "rejected"
	outcomeCancelled = "cancelled"
	outcomeCollision = "collision"
)

// Request carries what the operator enters when moving an asset.
type Request struct {
	ToLocationID       int            `json:"to_location_id" validate:"required,gt=0"`
	DestinationArea    string         `json:"destination_area"`
	SendingParty       string         `json:"sending_party" validate:"required"`
	ReceivingParty     string         `json:"receiving_party" validate:"required"`
	TransferDate       *models.Date   `json:"transfer_date" validate:"required"`
	Justification      string         `json:"justification"`
	DepartureCondition string         `json:"departure_condition"`
	Photos             []models.Photo `json:"photos"`
	Confirmed          bool           `json:"confirmed"`
}

func (r *Request) normalize() {
	r.DestinationArea = strings.TrimSpace(r.DestinationArea)
	r.SendingParty = strings.TrimSpace(r.SendingParty)
	r.ReceivingParty = strings.TrimSpace(r.ReceivingParty)
	r.Justification = strings.TrimSpace(r.Justification)
	r.DepartureCondition = strings.TrimSpace(r.DepartureCondition)
}

type Store interface {
	GetAsset(ctx context.Context, id int) (*models.AssetRecord, error)
	TransferAsset(ctx context.Context, id int, payload models.TransferPayload) (*models.AssetRecord, error)
}

type CategoryResolver interface {
	Resolve(ctx context.Context, name string) (*schema.CategoryDefinition, error)
}

type CollisionChecker interface {
	CheckCollision(ctx context.Context, candidate string, locationID int) (codes.CollisionResult, error)
}

type TransferService struct {
	store      Store
	categories CategoryResolver
	collisions CollisionChecker
	auditLog   *auditlog.Auditlog
	validate   *validator.Validate
	now        func() time.Time
	logger     *zap.Logger
}

func NewTransferService(
	store Store,
	categories CategoryResolver,
	collisions CollisionChecker,
	auditLog *auditlog.Auditlog,
	now func() time.Time,
	logger *zap.Logger,
) *TransferService {
	if now == nil {
		now = time.Now
	}
	return &TransferService{
		store:      store,
		categories: categories,
		collisions: collisions,
		auditLog:   auditLog,
		validate:   newValidator(),
		now:        now,
		logger:     logger,
	}
}

// Begin opens a draft transfer for an asset. The asset is read once; the
// workflow works on that snapshot until it commits.
func (s *TransferService) Begin(ctx context.Context, assetID int) (*Workflow, error) {
	asset, err := s.store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, custom_error.WrapCollaboratorError("get asset", err)
	}

	return &Workflow{
		ID:      uuid.NewString(),
		State:   StateDraft,
		Asset:   *asset,
		service: s,
	}, nil
}

// Workflow is driven by a single caller. Once rejected or committed it
// accepts no further operations.
type Workflow struct {
	ID           string             `json:"id"`
	State        State              `json:"state"`
	Asset        models.AssetRecord `json:"asset"`
	Request      *Request           `json:"request,omitempty"`
	Suggestion   string             `json:"suggestion,omitempty"`
	AcceptedCode string             `json:"accepted_code,omitempty"`
	Err          error              `json:"-"`

	condition metadata.Condition
	service   *TransferService
}

// Ready reports whether Commit can proceed without operator input.
func (w *Workflow) Ready() bool {
	return w.State == StateCollisionCheck && (w.Suggestion == "" || w.AcceptedCode != "")
}

// Submit validates the request and the asset, then checks the asset code
// against the destination. A collision leaves the workflow in
// collision_check and returns a CollisionError with a suggested code.
func (w *Workflow) Submit(ctx context.Context, req Request) error {
	if w.State != StateDraft {
		return w.invalidTransition("submit")
	}
	w.State = StateValidating

	req.normalize()
	condition, err := w.service.validateRequest(&w.Asset, &req)
	if err != nil {
		metrics.IncValidationFailures("transfer")
		return w.reject(err)
	}
	w.Request = &req
	w.condition = condition

	def, err := w.service.categories.Resolve(ctx, w.Asset.Category)
	if err != nil {
		if errors.Is(err, custom_error.ErrCategoryNotFound) {
			return w.reject(custom_error.NewValidationError(custom_error.FieldError{
				Field:   "category",
				Message: fmt.Sprintf("unknown category %q", w.Asset.Category),
			}))
		}
		return w.reject(custom_error.WrapCollaboratorError("resolve category", err))
	}

	if _, result := records.Reconcile(&w.Asset, def, w.service.now()); !result.Valid() {
		metrics.IncValidationFailures("transfer")
		return w.reject(result.Err())
	}

	w.State = StateCollisionCheck
	return w.checkCollision(ctx, w.Asset.Code)
}

// AcceptCode records the operator's acceptance of the current suggestion.
func (w *Workflow) AcceptCode(code string) error {
	if w.State != StateCollisionCheck || w.Suggestion == "" {
		return w.invalidTransition("accept a code")
	}
	if metadata.NormalizeCode(code) != metadata.NormalizeCode(w.Suggestion) {
		return custom_error.NewValidationError(custom_error.FieldError{
			Field:   "accepted_code",
			Message: fmt.Sprintf("does not match the suggested code %q", w.Suggestion),
		})
	}

	w.AcceptedCode = w.Suggestion
	return nil
}

// Commit re-checks the code about to be used and persists the transfer.
// A collision found by the re-check or by the store puts the workflow back
// in collision_check with a fresh suggestion.
func (w *Workflow) Commit(ctx context.Context) (*models.AssetRecord, error) {
	if w.State != StateCollisionCheck {
		return nil, w.invalidTransition("commit")
	}
	if !w.Ready() {
		return nil, w.reject(custom_error.NewValidationError(custom_error.FieldError{
			Field:   "accepted_code",
			Message: fmt.Sprintf("suggested code %q was not accepted", w.Suggestion),
		}))
	}

	code := w.Asset.Code
	if w.AcceptedCode != "" {
		code = w.AcceptedCode
	}
	if err := w.checkCollision(ctx, code); err != nil {
		return nil, err
	}

	payload, err := w.payload(code)
	if err != nil {
		return nil, w.reject(err)
	}

	moved, err := w.service.store.TransferAsset(ctx, w.Asset.ID, payload)
	if err != nil {
		var collision *custom_error.CollisionError
		if errors.As(err, &collision) {
			w.service.logger.Warn("Code taken in destination during commit",
				zap.String("transfer_id", w.ID), zap.String("code", code), zap.Int("location_id", payload.ToLocationID))
			if cerr := w.checkCollision(ctx, code); cerr != nil {
				return nil, cerr
			}
			return nil, collision
		}
		w.service.logger.Error("Failed to commit transfer", zap.String("transfer_id", w.ID), zap.Error(err))
		return nil, w.reject(custom_error.WrapCollaboratorError("transfer asset", err))
	}

	records.RefreshWarranty(moved, w.service.now())
	w.State = StateCommitted
	w.Asset = *moved
	metrics.IncTransfers(outcomeCommitted)
	metrics.AddAuditEntries(auditFields(payload.Audit)...)
	w.service.logger.Info("Transfer committed",
		zap.String("transfer_id", w.ID),
		zap.Int("asset_id", moved.ID),
		zap.Int("from_location_id", payload.FromLocationID),
		zap.Int("to_location_id", payload.ToLocationID),
		zap.String("code", moved.Code),
	)

	return moved, nil
}

// Cancel abandons the workflow. Nothing has been written before commit, so
// there is nothing to undo.
func (w *Workflow) Cancel() error {
	if w.State.Terminal() {
		return w.invalidTransition("cancel")
	}

	w.State = StateRejected
	w.Err = custom_error.ErrCancelled
	metrics.IncTransfers(outcomeCancelled)
	return nil
}

func (w *Workflow) checkCollision(ctx context.Context, code string) error {
	result, err := w.service.collisions.CheckCollision(ctx, code, w.Request.ToLocationID)
	if err != nil {
		return w.reject(custom_error.WrapCollaboratorError("check code collision", err))
	}

	if !result.Collision {
		w.Suggestion = ""
		return nil
	}

	w.State = StateCollisionCheck
	w.Suggestion = result.Suggestion
	w.AcceptedCode = ""
	metrics.IncTransfers(outcomeCollision)

	return &custom_error.CollisionError{Code: code, Suggestion: result.Suggestion, LocationID: w.Request.ToLocationID}
}

func (w *Workflow) reject(err error) error {
	w.State = StateRejected
	w.Err = err
	metrics.IncTransfers(outcomeRejected)
	w.service.logger.Info("Transfer rejected", zap.String("transfer_id", w.ID), zap.Int("asset_id", w.Asset.ID), zap.Error(err))
	return err
}

func (w *Workflow) invalidTransition(op string) error {
	return fmt.Errorf("%w: cannot %s a transfer in state %s", custom_error.ErrInvalidTransition, op, w.State)
}

// placement is the value recorded by the "transfer" audit entry.
type placement struct {
	DestinationArea     string `json:"destinationArea"`
	DestinationLocation int    `json:"destinationLocation"`
}

func (w *Workflow) payload(code string) (models.TransferPayload, error) {
	req := w.Request
	payload := models.TransferPayload{
		ID:                 w.ID,
		FromLocationID:     w.Asset.LocationID,
		ToLocationID:       req.ToLocationID,
		DestinationArea:    req.DestinationArea,
		PreviousCode:       w.Asset.Code,
		DepartureCondition: w.condition,
		SendingParty:       req.SendingParty,
		ReceivingParty:     req.ReceivingParty,
		TransferDate:       req.TransferDate.Time,
		Justification:      req.Justification,
		Photos:             req.Photos,
	}
	if code != w.Asset.Code {
		payload.NewCode = code
	}

	deltas := []models.FieldDelta{{
		Field:    auditlog.FieldTransfer,
		Previous: auditlog.Serialize(placement{DestinationArea: w.Asset.Area, DestinationLocation: w.Asset.LocationID}),
		New:      auditlog.Serialize(placement{DestinationArea: req.DestinationArea, DestinationLocation: req.ToLocationID}),
	}}
	if payload.CodeChanged() {
		deltas = append(deltas, models.FieldDelta{Field: auditlog.FieldCode, Previous: w.Asset.Code, New: code})
	}
	if w.condition != "" && w.condition != w.Asset.Condition {
		deltas = append(deltas, models.FieldDelta{Field: "condition", Previous: string(w.Asset.Condition), New: string(w.condition)})
	}

	entries, err := w.service.auditLog.Entries(w.Asset.ID, deltas, req.Justification)
	if err != nil {
		return models.TransferPayload{}, err
	}
	payload.Audit = entries

	return payload, nil
}

// validateRequest reports every missing or invalid field at once. A short
// justification on an otherwise complete request yields
// ErrJustificationTooShort.
func (s *TransferService) validateRequest(asset *models.AssetRecord, req *Request) (metadata.Condition, error) {
	verr := custom_error.NewValidationError()

	if err := s.validate.Struct(req); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return "", err
		}
		for _, fe := range fieldErrors {
			verr.Add(fe.Field(), "failed on "+fe.Tag())
		}
	}

	if !req.Confirmed {
		verr.Add("confirmed", "the transfer must be explicitly confirmed")
	}
	if req.ToLocationID != 0 && req.ToLocationID == asset.LocationID {
		verr.Add("to_location_id", "must differ from the current location")
	}

	var condition metadata.Condition
	if req.DepartureCondition != "" {
		parsed, err := metadata.NewCondition(req.DepartureCondition)
		if err != nil {
			verr.Add("departure_condition", err.Error())
		}
		condition = parsed
	}

	justificationErr := auditlog.ValidateJustification(req.Justification)
	if len(verr.Fields) == 0 {
		return condition, justificationErr
	}
	if justificationErr != nil {
		verr.Add("justification", justificationErr.Error())
	}
	return "", verr
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func auditFields(entries []models.ChangeAuditEntry) []string {
	fields := make([]string, 0, len(entries))
	for _, entry := range entries {
		fields = append(fields, entry.Field)
	}
	return fields
}
