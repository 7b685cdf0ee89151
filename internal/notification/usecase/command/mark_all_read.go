package command

import (
	"fmt"

	"github.com/medtrack/pharmacy-portal/internal/notification/domain"
)

// MarkAllReadCommand represents the command to mark a whole scope read.
// Tab selects the scope: the active tab, or all.
type MarkAllReadCommand struct {
	RecipientID uint
	Tab         string
}

// MarkAllReadHandler handles the mark all read command
type MarkAllReadHandler struct {
	repo domain.NotificationRepository
}

// NewMarkAllReadHandler creates a new mark all read handler
func NewMarkAllReadHandler(repo domain.NotificationRepository) *MarkAllReadHandler {
	return &MarkAllReadHandler{repo: repo}
}

// Handle performs the bulk monotonic false-to-true transition over the
// scope. Calling it twice changes nothing the second time.
func (h *MarkAllReadHandler) Handle(cmd MarkAllReadCommand) error {
	if cmd.RecipientID == 0 {
		return fmt.Errorf("recipient_id is required")
	}

	if err := h.repo.MarkAllRead(cmd.RecipientID, CategoryForTab(cmd.Tab)); err != nil {
		return fmt.Errorf("failed to mark all read: %w", err)
	}
	return nil
}

// CategoryForTab maps a feed tab onto a storage category filter.
// The all tab (and anything unrecognized) means no category filter.
func CategoryForTab(tab string) string {
	switch tab {
	case domain.TabAlerts:
		return domain.CategoryAlert
	case domain.TabChat:
		return domain.CategoryChat
	default:
		return ""
	}
}
