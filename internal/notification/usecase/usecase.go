package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/notification"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
)

type notificationUseCase struct {
	repo   notification.Repository
	logger logger.ZapLogger
	now    func() time.Time
	loc    *time.Location
}

type Option func(*notificationUseCase)

func WithClock(now func() time.Time) Option {
	return func(uc *notificationUseCase) { uc.now = now }
}

// WithLocation sets the timezone that defines a calendar day for
// de-duplication. Defaults to the server's local zone.
func WithLocation(loc *time.Location) Option {
	return func(uc *notificationUseCase) { uc.loc = loc }
}

func NewNotificationUseCase(repo notification.Repository, log logger.ZapLogger, opts ...Option) notification.UseCase {
	uc := &notificationUseCase{
		repo:   repo,
		logger: log,
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *notificationUseCase) Notify(ctx context.Context, tenantID *string, message string, typ model.NotificationType) (bool, error) {
	now := uc.now()
	day := now.In(uc.loc).Format(time.DateOnly)

	n := &model.Notification{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Message:   message,
		Type:      typ,
		Day:       day,
		DedupKey:  model.DedupKey(tenantID, message, day),
		CreatedAt: now.UTC(),
	}
	inserted, err := uc.repo.Insert(ctx, n)
	if err != nil {
		return false, err
	}
	if inserted {
		uc.logger.Debug("notification inserted",
			zap.Stringp("tenant_id", tenantID),
			zap.String("type", string(typ)),
			zap.String("day", day),
		)
	}
	return inserted, nil
}

func (uc *notificationUseCase) ListLatest(ctx context.Context, tenantID string) ([]model.Notification, error) {
	if tenantID == "" {
		return nil, apperror.Validation("tenantId is required")
	}
	return uc.repo.ListLatest(ctx, tenantID, notification.LatestLimit)
}

func (uc *notificationUseCase) MarkAllRead(ctx context.Context, tenantID string) (int64, error) {
	if tenantID == "" {
		return 0, apperror.Validation("tenantId is required")
	}
	return uc.repo.MarkAllRead(ctx, tenantID)
}
