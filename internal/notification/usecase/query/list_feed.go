package query

import (
	"fmt"
	"strconv"

	"github.com/medtrack/pharmacy-portal/internal/notification/domain"
	"github.com/medtrack/pharmacy-portal/internal/notification/usecase/command"
)

// ListFeedQuery represents the query for one page of a user's feed
type ListFeedQuery struct {
	RecipientID uint
	Tab         string
	Search      string
	Cursor      string
}

// FeedPage is one page of the feed plus the cursor for "load more".
// NextCursor is empty on the last page.
type FeedPage struct {
	Records    []domain.Notification `json:"records"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

// ListFeedHandler handles the list feed query
type ListFeedHandler struct {
	repo domain.NotificationRepository
}

// NewListFeedHandler creates a new list feed handler
func NewListFeedHandler(repo domain.NotificationRepository) *ListFeedHandler {
	return &ListFeedHandler{repo: repo}
}

// Handle returns one fixed-size page. Tab and search compose with AND
// semantics. An invalid cursor yields an empty page, not an error.
func (h *ListFeedHandler) Handle(q ListFeedQuery) (*FeedPage, error) {
	if q.RecipientID == 0 {
		return nil, fmt.Errorf("recipient_id is required")
	}

	offset, ok := parseCursor(q.Cursor)
	if !ok {
		return &FeedPage{Records: []domain.Notification{}}, nil
	}

	// Fetch one extra row to learn whether another page exists.
	records, err := h.repo.FindPage(domain.ListFilter{
		RecipientID: q.RecipientID,
		Category:    command.CategoryForTab(q.Tab),
		Search:      q.Search,
		Limit:       domain.DefaultPageSize + 1,
		Offset:      offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	page := &FeedPage{Records: records}
	if len(records) > domain.DefaultPageSize {
		page.Records = records[:domain.DefaultPageSize]
		page.NextCursor = strconv.Itoa(offset + domain.DefaultPageSize)
	}
	if page.Records == nil {
		page.Records = []domain.Notification{}
	}
	return page, nil
}

func parseCursor(cursor string) (int, bool) {
	if cursor == "" {
		return 0, true
	}
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0, false
	}
	return offset, true
}
