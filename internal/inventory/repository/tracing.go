package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/medtrack/pharmacy-portal/internal/inventory/domain"
)

var tracer = otel.Tracer("inventory-repository")

// GormSnapshotRepositoryWithTracing wraps GormSnapshotRepository with tracing
type GormSnapshotRepositoryWithTracing struct {
	*GormSnapshotRepository
}

// NewGormSnapshotRepositoryWithTracing creates a new repository with tracing
func NewGormSnapshotRepositoryWithTracing(db *gorm.DB) *GormSnapshotRepositoryWithTracing {
	return &GormSnapshotRepositoryWithTracing{
		GormSnapshotRepository: NewGormSnapshotRepository(db),
	}
}

// SnapshotWithContext reads the branch snapshot under a span.
func (r *GormSnapshotRepositoryWithTracing) SnapshotWithContext(ctx context.Context, branchID uint) ([]domain.Medicine, error) {
	_, span := tracer.Start(ctx, "repository.Snapshot",
		trace.WithAttributes(
			attribute.Int("inventory.branch_id", int(branchID)),
		),
	)
	defer span.End()

	medicines, err := r.GormSnapshotRepository.Snapshot(branchID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(medicines)))
	return medicines, nil
}

// FindByIDWithContext reads one medicine under a span.
func (r *GormSnapshotRepositoryWithTracing) FindByIDWithContext(ctx context.Context, id uint) (*domain.Medicine, error) {
	_, span := tracer.Start(ctx, "repository.FindByID",
		trace.WithAttributes(
			attribute.Int("medicine.id", int(id)),
		),
	)
	defer span.End()

	medicine, err := r.GormSnapshotRepository.FindByID(id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("medicine.name", medicine.Name),
		attribute.Int("medicine.quantity", medicine.Quantity),
	)
	return medicine, nil
}
