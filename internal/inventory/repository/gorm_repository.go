package repository

import (
	"github.com/medtrack/pharmacy-portal/internal/inventory/domain"
	"gorm.io/gorm"
)

type GormSnapshotRepository struct {
	db *gorm.DB
}

func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

func (r *GormSnapshotRepository) Snapshot(branchID uint) ([]domain.Medicine, error) {
	var medicines []domain.Medicine
	q := r.db.Order("id")
	if branchID != 0 {
		q = q.Where("branch_id = ?", branchID)
	}
	err := q.Find(&medicines).Error
	return medicines, err
}

func (r *GormSnapshotRepository) FindByID(id uint) (*domain.Medicine, error) {
	var medicine domain.Medicine
	err := r.db.First(&medicine, id).Error
	if err != nil {
		return nil, err
	}
	return &medicine, nil
}
