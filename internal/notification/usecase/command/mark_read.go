package command

import (
	"fmt"

	"github.com/medtrack/pharmacy-portal/internal/notification/domain"
)

// MarkReadCommand represents the command to mark one notification read
type MarkReadCommand struct {
	RecipientID    uint
	NotificationID uint
}

// MarkReadHandler handles the mark read command
type MarkReadHandler struct {
	repo domain.NotificationRepository
}

// NewMarkReadHandler creates a new mark read handler
func NewMarkReadHandler(repo domain.NotificationRepository) *MarkReadHandler {
	return &MarkReadHandler{repo: repo}
}

// Handle marks the notification read. The transition is monotonic and
// idempotent; an unknown id is a no-op rather than an error.
func (h *MarkReadHandler) Handle(cmd MarkReadCommand) error {
	if cmd.RecipientID == 0 {
		return fmt.Errorf("recipient_id is required")
	}

	err := h.repo.MarkRead(cmd.RecipientID, cmd.NotificationID)
	if err == domain.ErrNotificationNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
