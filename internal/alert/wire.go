//go:build wireinject
// +build wireinject

package alert

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/medtrack/pharmacy-portal/internal/alert/delivery/http"
	inventory "github.com/medtrack/pharmacy-portal/internal/inventory/domain"
	"github.com/medtrack/pharmacy-portal/internal/inventory/repository"
)

// ProvideSnapshotRepository provides the inventory snapshot repository
func ProvideSnapshotRepository(db *gorm.DB) inventory.SnapshotRepository {
	return repository.NewGormSnapshotRepository(db)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideSnapshotRepository,
)

// InitializeHTTPHandler initializes the alert HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB) (*http.AlertHandler, error) {
	wire.Build(
		RepositorySet,
		http.NewAlertHandler,
	)
	return nil, nil
}
