package domain

import (
	"time"

	"gorm.io/gorm"
)

// Medicine is a read-only snapshot row from the inventory store. This
// subsystem never writes it; CRUD belongs to the inventory service.
//
// ExpiryDate is kept as the raw date text the store holds ("2006-01-02").
// The alert evaluator parses it and tolerates malformed values, so parsing
// is deliberately not done at the persistence boundary.
type Medicine struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	BranchID     uint           `json:"branch_id" gorm:"not null;index"`
	Name         string         `json:"name" gorm:"not null"`
	Category     string         `json:"category"`
	Quantity     int            `json:"quantity" gorm:"not null;default:0"`
	MinThreshold *int           `json:"min_threshold"`
	ExpiryDate   string         `json:"expiry_date"`
	Price        float64        `json:"price"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Medicine) TableName() string {
	return "medicines"
}

// SnapshotRepository defines read-only access to the inventory store.
type SnapshotRepository interface {
	Snapshot(branchID uint) ([]Medicine, error)
	FindByID(id uint) (*Medicine, error)
}
