package container

import (
	"database/sql"
	"time"

	auditLogRepo "assettracker/internal/auditlog"
	"assettracker/internal/config"
	"assettracker/internal/inventory/assets"
	"assettracker/internal/inventory/category"
	"assettracker/internal/inventory/codes"
	"assettracker/internal/inventory/transfers"
	"assettracker/internal/locations"
	"assettracker/internal/rate_limiter"
	"assettracker/internal/repository"
	"assettracker/pkg/auditlog"
	"assettracker/pkg/metadata"
	"assettracker/pkg/schema"

	"go.uber.org/zap"
)

type Container struct {
	Repository      *repository.Repository
	AuditLog        *auditlog.Auditlog
	CategoryHandler *category.CategoryHandler
	AssetHandler    *assets.AssetHandler
	TransferHandler *transfers.TransferHandler
	LocationHandler *locations.LocationHandler
	RateLimiter     *rate_limiter.RateLimiter
}

func NewAppContainer(db *sql.DB, cfg config.Config, logger *zap.Logger) *Container {
	repo := repository.NewRepository(db)
	auditRepo := auditLogRepo.NewRepository(repo)
	auditLog := auditlog.NewAuditLog(auditRepo, logger, time.Now)

	categoryService := category.NewCategoryService(category.NewRepository(repo), schema.NewRegistry(), logger)
	categoryHandler := category.NewCategoryHandler(categoryService)

	assetRepo := assets.NewRepository(repo, auditRepo)
	allocator := codes.NewAllocator(assetRepo, logger)
	companyPrefix := metadata.CompanyPrefix(cfg.CompanyName)

	assetService := assets.NewAssetService(assetRepo, categoryService, allocator, auditLog, companyPrefix, time.Now, logger)
	assetHandler := assets.NewAssetHandler(assetService)

	transferService := transfers.NewTransferService(assetRepo, categoryService, allocator, auditLog, time.Now, logger)
	transferHandler := transfers.NewTransferHandler(transferService)

	locationHandler := locations.NewLocationHandler(locations.NewLocationRepository(repo), assetRepo)

	return &Container{
		Repository:      repo,
		AuditLog:        auditLog,
		CategoryHandler: categoryHandler,
		AssetHandler:    assetHandler,
		TransferHandler: transferHandler,
		LocationHandler: locationHandler,
		RateLimiter:     rate_limiter.NewRateLimiter(cfg.WriteRateLimit, time.Minute),
	}
}
