package kafka

import "time"

// ChatMessageEvent is emitted by the messaging service for every delivered
// message. The portal consumes it to feed the recipient's notifications.
type ChatMessageEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	ConversationID uint      `json:"conversation_id"`
	MessageID      uint      `json:"message_id"`
	SenderID       uint      `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	RecipientID    uint      `json:"recipient_id"`
	BranchID       uint      `json:"branch_id"`
	Preview        string    `json:"preview"`
	Timestamp      time.Time `json:"timestamp"`
}

// NotificationCreatedEvent is published whenever the aggregator creates a
// new feed record, for downstream consumers (audit, digests).
type NotificationCreatedEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	NotificationID uint      `json:"notification_id"`
	RecipientID    uint      `json:"recipient_id"`
	BranchID       uint      `json:"branch_id"`
	Category       string    `json:"category"`
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	SourceRef      string    `json:"source_ref"`
	Timestamp      time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeChatMessageSent     = "chat.message.sent"
	EventTypeNotificationCreated = "notification.created"
)

// Kafka topics
const (
	TopicChatMessages  = "chat-messages"
	TopicNotifications = "portal-notifications"
)
