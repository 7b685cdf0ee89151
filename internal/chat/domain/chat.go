package domain

import "time"

// Event is chat metadata as consumed by the notification feed: who wrote,
// where, and a short preview. Message bodies stay in the messaging service.
type Event struct {
	ConversationID uint      `json:"conversation_id"`
	MessageID      uint      `json:"message_id"`
	SenderID       uint      `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	RecipientID    uint      `json:"recipient_id"`
	Preview        string    `json:"preview"`
	Timestamp      time.Time `json:"timestamp"`
}

// User is a directory entry from the messaging service.
type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// Conversation is one chat thread as listed for a user.
type Conversation struct {
	ID              uint      `json:"id"`
	CounterpartID   uint      `json:"counterpart_id"`
	CounterpartName string    `json:"counterpart_name"`
	LastMessage     string    `json:"last_message"`
	UpdatedAt       time.Time `json:"updated_at"`
}
