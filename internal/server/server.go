package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	checkoutH "github.com/fekuna/omnipos-checkout-service/internal/checkout/handler"
	notificationH "github.com/fekuna/omnipos-checkout-service/internal/notification/handler"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/metrics"
	productH "github.com/fekuna/omnipos-checkout-service/internal/product/handler"
	subscriptionH "github.com/fekuna/omnipos-checkout-service/internal/subscription/handler"
)

type Handlers struct {
	Checkout     *checkoutH.CheckoutHandler
	Product      *productH.ProductHandler
	Notification *notificationH.NotificationHandler
	Subscription *subscriptionH.SubscriptionHandler
}

type Server struct {
	echo     *echo.Echo
	handlers Handlers
	logger   logger.ZapLogger
}

func NewServer(h Handlers, log logger.ZapLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		handlers: h,
		logger:   log,
	}
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Debug("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(metrics.EchoMiddleware())

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.POST("/transactions", s.handlers.Checkout.CreateTransaction)
	api.GET("/transactions", s.handlers.Checkout.ListTransactions)
	api.GET("/stats", s.handlers.Checkout.GetStats)

	api.GET("/products", s.handlers.Product.ListProducts)

	api.GET("/notifications", s.handlers.Notification.ListNotifications)
	api.POST("/notifications/read", s.handlers.Notification.MarkAllRead)

	// -------- subscription --------
	api.GET("/subscription/status", s.handlers.Subscription.GetStatus)
	api.POST("/renew", s.handlers.Subscription.Renew)
	api.POST("/subscription/pay", s.handlers.Subscription.RequestPayment)

	// -------- admin --------
	admin := api.Group("/admin")
	admin.POST("/subscriptions/approve", s.handlers.Subscription.ApprovePayment)
	admin.POST("/subscriptions/reject", s.handlers.Subscription.RejectPayment)
	admin.POST("/payments/approve", s.handlers.Subscription.ApprovePendingPayment)
	admin.POST("/payments/reject", s.handlers.Subscription.RejectPendingPayment)
}

// handleError writes every error as {"error": "..."}. Unclassified errors
// are logged and their detail hidden.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := apperror.HTTPStatus(err)
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = http.StatusText(code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	} else if code == http.StatusInternalServerError {
		s.logger.Error("unhandled request error",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		msg = http.StatusText(code)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, apperror.Response{Error: msg})
	}
	if err != nil {
		s.logger.Error("failed to write error response", zap.Error(err))
	}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", address))
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
