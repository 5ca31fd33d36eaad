package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-checkout-service/internal/auth"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-checkout-service/internal/product"
	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

// ListProducts serves the tenant's catalogue; terminals use it to rebuild
// their cached stock view after an offline replay.
func (h *ProductHandler) ListProducts(c echo.Context) error {
	products, err := h.uc.ListProducts(c.Request().Context(), auth.GetTenantID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}
