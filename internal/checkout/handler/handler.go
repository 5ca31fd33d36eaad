package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/auth"
	"github.com/fekuna/omnipos-checkout-service/internal/checkout"
	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	uc     checkout.UseCase
	logger logger.ZapLogger
}

func NewCheckoutHandler(uc checkout.UseCase, log logger.ZapLogger) *CheckoutHandler {
	return &CheckoutHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CheckoutHandler) CreateTransaction(c echo.Context) error {
	var req dto.CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	req.TenantID = auth.GetTenantID(c, req.TenantID)

	txn, err := h.uc.Checkout(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, txn)
}

func (h *CheckoutHandler) ListTransactions(c echo.Context) error {
	txns, err := h.uc.ListTransactions(c.Request().Context(), auth.GetTenantID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, txns)
}

func (h *CheckoutHandler) GetStats(c echo.Context) error {
	stats, err := h.uc.TodayStats(c.Request().Context(), auth.GetTenantID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
