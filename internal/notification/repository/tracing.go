package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/medtrack/pharmacy-portal/internal/notification/domain"
)

var tracer = otel.Tracer("notification-repository")

// GormNotificationRepositoryWithTracing wraps GormNotificationRepository with tracing
type GormNotificationRepositoryWithTracing struct {
	*GormNotificationRepository
}

// NewGormNotificationRepositoryWithTracing creates a new repository with tracing
func NewGormNotificationRepositoryWithTracing(db *gorm.DB) *GormNotificationRepositoryWithTracing {
	return &GormNotificationRepositoryWithTracing{
		GormNotificationRepository: NewGormNotificationRepository(db),
	}
}

// FindPageWithContext reads one feed page under a span.
func (r *GormNotificationRepositoryWithTracing) FindPageWithContext(ctx context.Context, filter domain.ListFilter) ([]domain.Notification, error) {
	_, span := tracer.Start(ctx, "repository.FindPage",
		trace.WithAttributes(
			attribute.Int("feed.recipient_id", int(filter.RecipientID)),
			attribute.String("feed.category", filter.Category),
			attribute.Int("query.limit", filter.Limit),
			attribute.Int("query.offset", filter.Offset),
		),
	)
	defer span.End()

	notifications, err := r.GormNotificationRepository.FindPage(filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(notifications)))
	return notifications, nil
}

// MarkAllReadWithContext performs the bulk read transition under a span.
func (r *GormNotificationRepositoryWithTracing) MarkAllReadWithContext(ctx context.Context, recipientID uint, category string) error {
	_, span := tracer.Start(ctx, "repository.MarkAllRead",
		trace.WithAttributes(
			attribute.Int("feed.recipient_id", int(recipientID)),
			attribute.String("feed.category", category),
		),
	)
	defer span.End()

	if err := r.GormNotificationRepository.MarkAllRead(recipientID, category); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// CountUnreadWithContext counts unread records under a span.
func (r *GormNotificationRepositoryWithTracing) CountUnreadWithContext(ctx context.Context, recipientID uint) (int64, error) {
	_, span := tracer.Start(ctx, "repository.CountUnread",
		trace.WithAttributes(
			attribute.Int("feed.recipient_id", int(recipientID)),
		),
	)
	defer span.End()

	count, err := r.GormNotificationRepository.CountUnread(recipientID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Int64("result.unread", count))
	return count, nil
}
