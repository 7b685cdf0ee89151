package command

import (
	"fmt"

	alertdomain "github.com/medtrack/pharmacy-portal/internal/alert/domain"
	chatdomain "github.com/medtrack/pharmacy-portal/internal/chat/domain"
	"github.com/medtrack/pharmacy-portal/internal/notification/domain"
)

// IngestEventsCommand represents the command to fold raw alert and chat
// events into a user's notification feed.
type IngestEventsCommand struct {
	RecipientID uint
	BranchID    uint
	AlertEvents []alertdomain.Event
	ChatEvents  []chatdomain.Event
}

// IngestEventsHandler handles the ingest events command
type IngestEventsHandler struct {
	repo domain.NotificationRepository
}

// NewIngestEventsHandler creates a new ingest events handler
func NewIngestEventsHandler(repo domain.NotificationRepository) *IngestEventsHandler {
	return &IngestEventsHandler{repo: repo}
}

// Handle converts events into notification records. Records are deduplicated
// by (recipient, sourceRef, kind): re-ingesting a still-true alert refreshes
// the existing record's timestamp when newer and touches nothing else, so no
// duplicate unread entries appear. Returns the records created this run.
func (h *IngestEventsHandler) Handle(cmd IngestEventsCommand) ([]domain.Notification, error) {
	if cmd.RecipientID == 0 {
		return nil, fmt.Errorf("recipient_id is required")
	}

	var created []domain.Notification

	for _, ev := range cmd.AlertEvents {
		record := domain.Notification{
			RecipientID: cmd.RecipientID,
			BranchID:    cmd.BranchID,
			Category:    domain.CategoryAlert,
			Kind:        ev.Kind,
			Title:       alertTitle(ev),
			Message:     alertMessage(ev),
			SourceRef:   fmt.Sprintf("medicine:%d", ev.MedicineID),
			Timestamp:   ev.ComputedAt,
		}
		isNew, err := h.upsert(&record)
		if err != nil {
			return created, err
		}
		if isNew {
			created = append(created, record)
		}
	}

	for _, ev := range cmd.ChatEvents {
		record := domain.Notification{
			RecipientID: cmd.RecipientID,
			BranchID:    cmd.BranchID,
			Category:    domain.CategoryChat,
			Kind:        "message",
			Title:       fmt.Sprintf("New message from %s", ev.SenderName),
			Message:     ev.Preview,
			SourceRef:   fmt.Sprintf("conversation:%d:message:%d", ev.ConversationID, ev.MessageID),
			Timestamp:   ev.Timestamp,
		}
		isNew, err := h.upsert(&record)
		if err != nil {
			return created, err
		}
		if isNew {
			created = append(created, record)
		}
	}

	return created, nil
}

func (h *IngestEventsHandler) upsert(record *domain.Notification) (bool, error) {
	existing, err := h.repo.FindBySource(record.RecipientID, record.SourceRef, record.Kind)
	if err == domain.ErrNotificationNotFound {
		if err := h.repo.Create(record); err != nil {
			return false, fmt.Errorf("failed to create notification: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up notification: %w", err)
	}

	// Refresh the timestamp only when the event is newer. Read state and
	// identity stay untouched.
	if record.Timestamp.After(existing.Timestamp) {
		existing.Timestamp = record.Timestamp
		if err := h.repo.Save(existing); err != nil {
			return false, fmt.Errorf("failed to refresh notification: %w", err)
		}
	}
	*record = *existing
	return false, nil
}

func alertTitle(ev alertdomain.Event) string {
	switch ev.Kind {
	case alertdomain.KindOutOfStock:
		return fmt.Sprintf("Out of stock: %s", ev.MedicineName)
	case alertdomain.KindLowStock:
		return fmt.Sprintf("Low stock: %s", ev.MedicineName)
	case alertdomain.KindExpired:
		return fmt.Sprintf("Expired: %s", ev.MedicineName)
	case alertdomain.KindExpiringSoon:
		return fmt.Sprintf("Expiring soon: %s", ev.MedicineName)
	default:
		return ev.MedicineName
	}
}

func alertMessage(ev alertdomain.Event) string {
	switch ev.Kind {
	case alertdomain.KindOutOfStock:
		return fmt.Sprintf("%s has no stock remaining", ev.MedicineName)
	case alertdomain.KindLowStock:
		return fmt.Sprintf("%s is down to %d units", ev.MedicineName, ev.Quantity)
	case alertdomain.KindExpired:
		return fmt.Sprintf("%s expired %d days ago", ev.MedicineName, -ev.DaysRemaining)
	case alertdomain.KindExpiringSoon:
		return fmt.Sprintf("%s expires in %d days", ev.MedicineName, ev.DaysRemaining)
	default:
		return ""
	}
}
