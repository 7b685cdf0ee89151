//go:build wireinject
// +build wireinject

package notification

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/medtrack/pharmacy-portal/internal/notification/domain"
	"github.com/medtrack/pharmacy-portal/internal/notification/repository"
)

// ProvideNotificationRepository provides the notification repository
func ProvideNotificationRepository(db *gorm.DB) domain.NotificationRepository {
	return repository.NewGormNotificationRepository(db)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideNotificationRepository,
)

// InitializeAggregator initializes the aggregator with all dependencies
func InitializeAggregator(db *gorm.DB, publisher EventPublisher) (*Aggregator, error) {
	wire.Build(
		RepositorySet,
		NewAggregator,
	)
	return nil, nil
}
