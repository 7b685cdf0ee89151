package domain

import (
	"errors"
	"time"
)

// Notification categories
const (
	CategoryAlert = "alert"
	CategoryChat  = "chat"
)

// Feed tabs. Tabs map onto categories except TabAll, which matches both.
const (
	TabAll    = "all"
	TabAlerts = "alerts"
	TabChat   = "chat"
)

// DefaultPageSize is the fixed batch size for "load more" pagination.
// Consumers depend on it staying stable.
const DefaultPageSize = 10

var ErrNotificationNotFound = errors.New("notification not found")

// Notification represents one feed entry for one recipient. Records are
// created on ingest, mutated only by read-state transitions, and never
// hard-deleted by this subsystem.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"not null;index:idx_recipient_source"`
	BranchID    uint      `json:"branch_id" gorm:"index"`
	Category    string    `json:"category" gorm:"not null;index"`
	Kind        string    `json:"kind" gorm:"not null"`
	Title       string    `json:"title" gorm:"not null"`
	Message     string    `json:"message"`
	SourceRef   string    `json:"source_ref" gorm:"index:idx_recipient_source"`
	Timestamp   time.Time `json:"timestamp" gorm:"not null;index"`
	Read        bool      `json:"read" gorm:"not null;default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Notification) TableName() string {
	return "notifications"
}

// ListFilter narrows a feed page query. Category empty means both.
type ListFilter struct {
	RecipientID uint
	Category    string
	Search      string
	Limit       int
	Offset      int
}

// NotificationRepository defines the contract for notification data access.
// Pages are ordered by timestamp descending with id ascending as the
// tie-break, so ordering is stable across refreshes.
type NotificationRepository interface {
	Create(n *Notification) error
	Save(n *Notification) error
	FindByID(id uint) (*Notification, error)
	FindBySource(recipientID uint, sourceRef, kind string) (*Notification, error)
	FindPage(filter ListFilter) ([]Notification, error)
	MarkRead(recipientID, id uint) error
	MarkAllRead(recipientID uint, category string) error
	CountUnread(recipientID uint) (int64, error)
}
