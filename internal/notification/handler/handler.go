package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/auth"
	"github.com/fekuna/omnipos-checkout-service/internal/notification"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	uc     notification.UseCase
	logger logger.ZapLogger
}

func NewNotificationHandler(uc notification.UseCase, log logger.ZapLogger) *NotificationHandler {
	return &NotificationHandler{
		uc:     uc,
		logger: log,
	}
}

type markReadRequest struct {
	TenantID string `json:"tenantId"`
}

func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	items, err := h.uc.ListLatest(c.Request().Context(), auth.GetTenantID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return apperror.Validation("invalid request body")
	}

	updated, err := h.uc.MarkAllRead(c.Request().Context(), auth.GetTenantID(c, req.TenantID))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"updated": updated})
}
