package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/auth"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-checkout-service/internal/subscription"
	"github.com/fekuna/omnipos-checkout-service/internal/subscription/dto"
	"github.com/labstack/echo/v4"
)

type SubscriptionHandler struct {
	uc     subscription.UseCase
	logger logger.ZapLogger
}

func NewSubscriptionHandler(uc subscription.UseCase, log logger.ZapLogger) *SubscriptionHandler {
	return &SubscriptionHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *SubscriptionHandler) GetStatus(c echo.Context) error {
	status, err := h.uc.Status(c.Request().Context(), auth.GetTenantID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

func (h *SubscriptionHandler) Renew(c echo.Context) error {
	var req dto.RenewRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	req.TenantID = auth.GetTenantID(c, req.TenantID)

	t, err := h.uc.Renew(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *SubscriptionHandler) RequestPayment(c echo.Context) error {
	var req dto.PayRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	req.TenantID = auth.GetTenantID(c, req.TenantID)

	p, err := h.uc.RequestPayment(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *SubscriptionHandler) ApprovePayment(c echo.Context) error {
	id, err := paymentID(c)
	if err != nil {
		return err
	}
	p, err := h.uc.ApprovePayment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *SubscriptionHandler) RejectPayment(c echo.Context) error {
	id, err := paymentID(c)
	if err != nil {
		return err
	}
	p, err := h.uc.RejectPayment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *SubscriptionHandler) ApprovePendingPayment(c echo.Context) error {
	id, err := paymentID(c)
	if err != nil {
		return err
	}
	p, err := h.uc.ApprovePendingPayment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *SubscriptionHandler) RejectPendingPayment(c echo.Context) error {
	id, err := paymentID(c)
	if err != nil {
		return err
	}
	p, err := h.uc.RejectPendingPayment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func paymentID(c echo.Context) (string, error) {
	var req dto.PaymentDecisionRequest
	if err := c.Bind(&req); err != nil {
		return "", apperror.Validation("invalid request body")
	}
	return req.PaymentID, nil
}
