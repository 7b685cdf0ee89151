package repository

import (
	"errors"

	"github.com/medtrack/pharmacy-portal/internal/notification/domain"
	"gorm.io/gorm"
)

type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Notification{})
}

func (r *GormNotificationRepository) Create(n *domain.Notification) error {
	return r.db.Create(n).Error
}

func (r *GormNotificationRepository) Save(n *domain.Notification) error {
	return r.db.Save(n).Error
}

func (r *GormNotificationRepository) FindByID(id uint) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.First(&n, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *GormNotificationRepository) FindBySource(recipientID uint, sourceRef, kind string) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.
		Where("recipient_id = ? AND source_ref = ? AND kind = ?", recipientID, sourceRef, kind).
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *GormNotificationRepository) FindPage(filter domain.ListFilter) ([]domain.Notification, error) {
	q := r.db.Where("recipient_id = ?", filter.RecipientID)

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("title ILIKE ? OR message ILIKE ?", pattern, pattern)
	}

	var notifications []domain.Notification
	err := q.
		Order("timestamp DESC, id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&notifications).Error
	return notifications, err
}

func (r *GormNotificationRepository) MarkRead(recipientID, id uint) error {
	res := r.db.Model(&domain.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *GormNotificationRepository) MarkAllRead(recipientID uint, category string) error {
	q := r.db.Model(&domain.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	return q.Update("read", true).Error
}

func (r *GormNotificationRepository) CountUnread(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&domain.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}
