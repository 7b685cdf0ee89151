package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/medtrack/pharmacy-portal/internal/chat/domain"
	"github.com/medtrack/pharmacy-portal/pkg/logger"
)

// Client is the one shared client for the external messaging service. Both
// the portal feed and detached relay contexts construct their own instance
// and call it identically, so there is no request logic to drift between
// the two surfaces.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a messaging service client with a bounded timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// ListUsers returns the user directory for starting conversations.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "/api/chat/users", &users); err != nil {
		return nil, fmt.Errorf("failed to list chat users: %w", err)
	}
	return users, nil
}

// UnreadEvents returns new chat events addressed to the user.
func (c *Client) UnreadEvents(ctx context.Context, userID uint) ([]domain.Event, error) {
	var events []domain.Event
	path := fmt.Sprintf("/api/chat/events?recipient_id=%d", userID)
	if err := c.get(ctx, path, &events); err != nil {
		return nil, fmt.Errorf("failed to fetch chat events: %w", err)
	}
	return events, nil
}

// CreateConversation opens (or returns the existing) conversation between
// two users.
func (c *Client) CreateConversation(ctx context.Context, userID, counterpartID uint) (*domain.Conversation, error) {
	body, err := json.Marshal(map[string]uint{
		"user_id":        userID,
		"counterpart_id": counterpartID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/conversations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach messaging service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("messaging service returned status %d", resp.StatusCode)
	}

	var conversation domain.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conversation); err != nil {
		return nil, fmt.Errorf("failed to decode conversation: %w", err)
	}

	logger.Debug(ctx).
		Uint("conversation_id", conversation.ID).
		Uint("counterpart_id", counterpartID).
		Msg("Conversation created")

	return &conversation, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach messaging service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("messaging service returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
