// Package codes allocates asset codes inside a location's numbering space
// and resolves collisions when an asset enters a new location.
package codes

import (
	"context"
	"strings"

	"assettracker/internal/metrics"
	custom_error "assettracker/pkg/errors"
	"assettracker/pkg/metadata"
	"assettracker/pkg/models"

	"go.uber.org/zap"
)

// InventoryQuery lists the assets currently held by a location.
type InventoryQuery interface {
	ListAssets(ctx context.Context, locationID int) ([]models.AssetSummary, error)
}

type CollisionResult struct {
	Collision  bool   `json:"collision"`
	Suggestion string `json:"suggestion,omitempty"`
}

type Allocator struct {
	inventory InventoryQuery
	logger    *zap.Logger
}

func NewAllocator(inventory InventoryQuery, logger *zap.Logger) *Allocator {
	return &Allocator{inventory: inventory, logger: logger}
}

// CheckCollision reports whether candidate is already used in the location
// and, if so, suggests a replacement. The suggestion is free only at the
// time of the check; nothing is reserved.
func (a *Allocator) CheckCollision(ctx context.Context, candidate string, locationID int) (CollisionResult, error) {
	codes, err := a.locationCodes(ctx, locationID)
	if err != nil {
		return CollisionResult{}, err
	}

	normalized := metadata.NormalizeCode(candidate)
	taken := false
	for _, code := range codes {
		if metadata.NormalizeCode(code) == normalized {
			taken = true
			break
		}
	}
	if !taken {
		return CollisionResult{}, nil
	}

	parsed, ok := metadata.ParseCode(candidate)
	if !ok {
		metrics.IncCodeCollisions("marker")
		suggestion := strings.TrimSpace(candidate) + metadata.ConflictMarker
		a.logger.Info("Asset code collision on non-standard code",
			zap.String("code", candidate), zap.Int("location_id", locationID), zap.String("suggestion", suggestion))
		return CollisionResult{Collision: true, Suggestion: suggestion}, nil
	}

	suggestion := parsed.WithSequence(maxSequence(codes, parsed) + 1)
	metrics.IncCodeCollisions("sequence")
	a.logger.Info("Asset code collision",
		zap.String("code", candidate), zap.Int("location_id", locationID), zap.String("suggestion", suggestion))

	return CollisionResult{Collision: true, Suggestion: suggestion}, nil
}

// NextCode allocates the canonical code {company}-{category}{sequence} for a
// new asset, one past the highest sequence of that series in the location.
// Category prefixes ending in a digit get a "-" before the sequence.
func (a *Allocator) NextCode(ctx context.Context, locationID int, companyPrefix, categoryPrefix string) (string, error) {
	codes, err := a.locationCodes(ctx, locationID)
	if err != nil {
		return "", err
	}

	series := metadata.NewAssetCode(companyPrefix, categoryPrefix, 0).Series()

	return series.WithSequence(maxSequence(codes, series) + 1), nil
}

func (a *Allocator) locationCodes(ctx context.Context, locationID int) ([]string, error) {
	assets, err := a.inventory.ListAssets(ctx, locationID)
	if err != nil {
		a.logger.Error("Failed to list location inventory", zap.Int("location_id", locationID), zap.Error(err))
		return nil, &custom_error.NetworkError{Op: "list location inventory", Err: err}
	}

	codes := make([]string, 0, len(assets))
	for _, asset := range assets {
		if asset.Code != "" {
			codes = append(codes, asset.Code)
		}
	}
	return codes, nil
}

func maxSequence(codes []string, series metadata.ParsedCode) int {
	highest := 0
	for _, code := range codes {
		parsed, ok := metadata.ParseCode(code)
		if !ok || !parsed.SamePrefix(series) {
			continue
		}
		if parsed.Sequence > highest {
			highest = parsed.Sequence
		}
	}
	return highest
}
