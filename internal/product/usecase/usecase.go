package usecase

import (
	"context"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-checkout-service/internal/product"
)

type productUseCase struct {
	repo   product.Repository
	logger logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *productUseCase) ListProducts(ctx context.Context, tenantID string) ([]model.Product, error) {
	if tenantID == "" {
		return nil, apperror.Validation("tenantId is required")
	}
	return uc.repo.FindByTenant(ctx, tenantID)
}
