package query

import (
	"fmt"

	"github.com/medtrack/pharmacy-portal/internal/notification/domain"
)

// UnreadCountQuery represents the query for a user's unread count
type UnreadCountQuery struct {
	RecipientID uint
}

// UnreadCountHandler handles the unread count query
type UnreadCountHandler struct {
	repo domain.NotificationRepository
}

// NewUnreadCountHandler creates a new unread count handler
func NewUnreadCountHandler(repo domain.NotificationRepository) *UnreadCountHandler {
	return &UnreadCountHandler{repo: repo}
}

// Handle returns the exact unread count. There is no cap; the badge
// displays it literally.
func (h *UnreadCountHandler) Handle(q UnreadCountQuery) (int64, error) {
	if q.RecipientID == 0 {
		return 0, fmt.Errorf("recipient_id is required")
	}

	count, err := h.repo.CountUnread(q.RecipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
