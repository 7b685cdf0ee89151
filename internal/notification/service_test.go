package notification

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	alertdomain "github.com/medtrack/pharmacy-portal/internal/alert/domain"
	chatdomain "github.com/medtrack/pharmacy-portal/internal/chat/domain"
	"github.com/medtrack/pharmacy-portal/internal/notification/domain"
	"github.com/medtrack/pharmacy-portal/internal/notification/usecase/command"
	"github.com/medtrack/pharmacy-portal/internal/notification/usecase/query"
)

// Mock NotificationRepository
type mockNotificationRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*domain.Notification
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{nextID: 1, records: make(map[uint]*domain.Notification)}
}

func (m *mockNotificationRepo) Create(n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.nextID
	m.nextID++
	cp := *n
	m.records[n.ID] = &cp
	return nil
}

func (m *mockNotificationRepo) Save(n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.records[n.ID] = &cp
	return nil
}

func (m *mockNotificationRepo) FindByID(id uint) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotificationNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *mockNotificationRepo) FindBySource(recipientID uint, sourceRef, kind string) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.records {
		if n.RecipientID == recipientID && n.SourceRef == sourceRef && n.Kind == kind {
			cp := *n
			return &cp, nil
		}
	}
	return nil, domain.ErrNotificationNotFound
}

func (m *mockNotificationRepo) FindPage(filter domain.ListFilter) ([]domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.Notification
	for _, n := range m.records {
		if n.RecipientID != filter.RecipientID {
			continue
		}
		if filter.Category != "" && n.Category != filter.Category {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(n.Title), needle) &&
				!strings.Contains(strings.ToLower(n.Message), needle) {
				continue
			}
		}
		matched = append(matched, *n)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID < matched[j].ID
	})

	if filter.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (m *mockNotificationRepo) MarkRead(recipientID, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.records[id]
	if !ok || n.RecipientID != recipientID {
		return domain.ErrNotificationNotFound
	}
	n.Read = true
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(recipientID uint, category string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.records {
		if n.RecipientID != recipientID {
			continue
		}
		if category != "" && n.Category != category {
			continue
		}
		n.Read = true
	}
	return nil
}

func (m *mockNotificationRepo) CountUnread(recipientID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.records {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

// Mock EventPublisher
type mockPublisher struct {
	mu        sync.Mutex
	published []domain.Notification
}

func (m *mockPublisher) PublishNotificationCreated(_ context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, n)
	return nil
}

var baseTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func alertEvent(kind string, medicineID uint, at time.Time) alertdomain.Event {
	return alertdomain.Event{
		Kind:         kind,
		MedicineID:   medicineID,
		MedicineName: "Paracetamol",
		Quantity:     2,
		ComputedAt:   at,
	}
}

func TestIngest_DeduplicatesBySourceAndKind(t *testing.T) {
	repo := newMockNotificationRepo()
	pub := &mockPublisher{}
	agg := NewAggregator(repo, pub)
	ctx := context.Background()

	first := command.IngestEventsCommand{
		RecipientID: 7,
		AlertEvents: []alertdomain.Event{alertEvent(alertdomain.KindLowStock, 1, baseTime)},
	}
	if err := agg.Ingest(ctx, first); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	// Re-ingest the same still-true alert with a newer evaluation time.
	second := command.IngestEventsCommand{
		RecipientID: 7,
		AlertEvents: []alertdomain.Event{alertEvent(alertdomain.KindLowStock, 1, baseTime.Add(45*time.Second))},
	}
	if err := agg.Ingest(ctx, second); err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	count, _ := agg.UnreadCount(query.UnreadCountQuery{RecipientID: 7})
	if count != 1 {
		t.Fatalf("expected one unread record after re-ingest, got %d", count)
	}

	n, err := repo.FindBySource(7, "medicine:1", alertdomain.KindLowStock)
	if err != nil {
		t.Fatalf("record disappeared: %v", err)
	}
	if !n.Timestamp.Equal(baseTime.Add(45 * time.Second)) {
		t.Errorf("timestamp not refreshed: %v", n.Timestamp)
	}

	if len(pub.published) != 1 {
		t.Errorf("expected one published event, got %d", len(pub.published))
	}
}

func TestIngest_RefreshKeepsReadState(t *testing.T) {
	repo := newMockNotificationRepo()
	agg := NewAggregator(repo, nil)
	ctx := context.Background()

	agg.Ingest(ctx, command.IngestEventsCommand{
		RecipientID: 7,
		AlertEvents: []alertdomain.Event{alertEvent(alertdomain.KindOutOfStock, 2, baseTime)},
	})

	n, _ := repo.FindBySource(7, "medicine:2", alertdomain.KindOutOfStock)
	if err := agg.MarkRead(command.MarkReadCommand{RecipientID: 7, NotificationID: n.ID}); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	agg.Ingest(ctx, command.IngestEventsCommand{
		RecipientID: 7,
		AlertEvents: []alertdomain.Event{alertEvent(alertdomain.KindOutOfStock, 2, baseTime.Add(time.Minute))},
	})

	count, _ := agg.UnreadCount(query.UnreadCountQuery{RecipientID: 7})
	if count != 0 {
		t.Fatalf("refresh must not resurrect unread state, got %d unread", count)
	}
}

func TestIngest_OlderEventDoesNotRewindTimestamp(t *testing.T) {
	repo := newMockNotificationRepo()
	agg := NewAggregator(repo, nil)
	ctx := context.Background()

	agg.Ingest(ctx, command.IngestEventsCommand{
		RecipientID: 7,
		AlertEvents: []alertdomain.Event{alertEvent(alertdomain.KindExpired, 3, baseTime)},
	})
	agg.Ingest(ctx, command.IngestEventsCommand{
		RecipientID: 7,
		AlertEvents: []alertdomain.Event{alertEvent(alertdomain.KindExpired, 3, baseTime.Add(-time.Hour))},
	})

	n, _ := repo.FindBySource(7, "medicine:3", alertdomain.KindExpired)
	if !n.Timestamp.Equal(baseTime) {
		t.Errorf("timestamp rewound to %v", n.Timestamp)
	}
}

func TestMarkAllRead_Idempotent(t *testing.T) {
	repo := newMockNotificationRepo()
	agg := NewAggregator(repo, nil)
	ctx := context.Background()

	// Five unread spread across both tabs.
	agg.Ingest(ctx, command.IngestEventsCommand{
		RecipientID: 9,
		AlertEvents: []alertdomain.Event{
			alertEvent(alertdomain.KindLowStock, 1, baseTime),
			alertEvent(alertdomain.KindExpired, 2, baseTime),
			alertEvent(alertdomain.KindOutOfStock, 3, baseTime),
		},
		ChatEvents: []chatdomain.Event{
			{ConversationID: 1, MessageID: 10, SenderName: "amira", Preview: "hello", Timestamp: baseTime},
			{ConversationID: 2, MessageID: 11, SenderName: "joel", Preview: "order ready", Timestamp: baseTime},
		},
	})

	count, _ := agg.UnreadCount(query.UnreadCountQuery{RecipientID: 9})
	if count != 5 {
		t.Fatalf("expected 5 unread, got %d", count)
	}

	if err := agg.MarkAllRead(command.MarkAllReadCommand{RecipientID: 9, Tab: domain.TabAll}); err != nil {
		t.Fatalf("mark all read failed: %v", err)
	}
	count, _ = agg.UnreadCount(query.UnreadCountQuery{RecipientID: 9})
	if count != 0 {
		t.Fatalf("expected 0 unread after mark all read, got %d", count)
	}

	// Second application changes nothing.
	if err := agg.MarkAllRead(command.MarkAllReadCommand{RecipientID: 9, Tab: domain.TabAll}); err != nil {
		t.Fatalf("repeated mark all read failed: %v", err)
	}
	count, _ = agg.UnreadCount(query.UnreadCountQuery{RecipientID: 9})
	if count != 0 {
		t.Fatalf("expected 0 unread after repeat, got %d", count)
	}
}

func TestMarkAllRead_ScopedToTab(t *testing.T) {
	repo := newMockNotificationRepo()
	agg := NewAggregator(repo, nil)
	ctx := context.Background()

	agg.Ingest(ctx, command.IngestEventsCommand{
		RecipientID: 9,
		AlertEvents: []alertdomain.Event{alertEvent(alertdomain.KindLowStock, 1, baseTime)},
		ChatEvents: []chatdomain.Event{
			{ConversationID: 1, MessageID: 10, SenderName: "amira", Preview: "hello", Timestamp: baseTime},
		},
	})

	agg.MarkAllRead(command.MarkAllReadCommand{RecipientID: 9, Tab: domain.TabChat})

	count, _ := agg.UnreadCount(query.UnreadCountQuery{RecipientID: 9})
	if count != 1 {
		t.Fatalf("chat-scoped mark all read must leave the alert unread, got %d unread", count)
	}
}

func TestMarkRead_UnknownIDIsNoOp(t *testing.T) {
	repo := newMockNotificationRepo()
	agg := NewAggregator(repo, nil)

	if err := agg.MarkRead(command.MarkReadCommand{RecipientID: 9, NotificationID: 12345}); err != nil {
		t.Fatalf("unknown id must be a no-op, got error: %v", err)
	}
}

func TestList_TabAndSearchComposeWithAnd(t *testing.T) {
	repo := newMockNotificationRepo()
	agg := NewAggregator(repo, nil)
	ctx := context.Background()

	agg.Ingest(ctx, command.IngestEventsCommand{
		RecipientID: 4,
		AlertEvents: []alertdomain.Event{
			{Kind: alertdomain.KindLowStock, MedicineID: 1, MedicineName: "Aspirin", Quantity: 2, ComputedAt: baseTime},
		},
		ChatEvents: []chatdomain.Event{
			{ConversationID: 3, MessageID: 30, SenderName: "rita", Preview: "aspirin restock?", Timestamp: baseTime},
		},
	})

	// Both records match the search text, but the chat tab excludes the alert.
	page, err := agg.List(query.ListFeedQuery{RecipientID: 4, Tab: domain.TabChat, Search: "aspirin"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Records) != 1 || page.Records[0].Category != domain.CategoryChat {
		t.Fatalf("expected only the chat record, got %+v", page.Records)
	}

	// Case-insensitive substring match.
	page, _ = agg.List(query.ListFeedQuery{RecipientID: 4, Tab: domain.TabAlerts, Search: "ASPIR"})
	if len(page.Records) != 1 || page.Records[0].Category != domain.CategoryAlert {
		t.Fatalf("expected only the alert record, got %+v", page.Records)
	}

	// Search matching nothing in the tab returns an empty page.
	page, _ = agg.List(query.ListFeedQuery{RecipientID: 4, Tab: domain.TabAlerts, Search: "zzz"})
	if len(page.Records) != 0 {
		t.Fatalf("expected empty page, got %+v", page.Records)
	}
}

func TestList_PaginationAndOrdering(t *testing.T) {
	repo := newMockNotificationRepo()
	agg := NewAggregator(repo, nil)
	ctx := context.Background()

	// 12 alerts with distinct timestamps, plus two sharing one timestamp to
	// exercise the id tie-break.
	var events []alertdomain.Event
	for i := 0; i < 12; i++ {
		events = append(events, alertEvent(alertdomain.KindLowStock, uint(i+1), baseTime.Add(time.Duration(i)*time.Minute)))
	}
	events = append(events,
		alertEvent(alertdomain.KindExpired, 100, baseTime.Add(20*time.Minute)),
		alertEvent(alertdomain.KindExpired, 101, baseTime.Add(20*time.Minute)),
	)
	agg.Ingest(ctx, command.IngestEventsCommand{RecipientID: 5, AlertEvents: events})

	page, err := agg.List(query.ListFeedQuery{RecipientID: 5, Tab: domain.TabAll})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Records) != domain.DefaultPageSize {
		t.Fatalf("expected a page of %d, got %d", domain.DefaultPageSize, len(page.Records))
	}
	if page.NextCursor == "" {
		t.Fatal("expected a next cursor on the first page")
	}

	// Tie-broken pair comes first (newest timestamp), ordered by id asc.
	if page.Records[0].SourceRef != "medicine:100" || page.Records[1].SourceRef != "medicine:101" {
		t.Errorf("tie-break ordering wrong: %s then %s", page.Records[0].SourceRef, page.Records[1].SourceRef)
	}

	// Newest-first overall.
	for i := 1; i < len(page.Records); i++ {
		if page.Records[i].Timestamp.After(page.Records[i-1].Timestamp) {
			t.Errorf("records not in descending timestamp order at %d", i)
		}
	}

	second, err := agg.List(query.ListFeedQuery{RecipientID: 5, Tab: domain.TabAll, Cursor: page.NextCursor})
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(second.Records) != 4 {
		t.Fatalf("expected 4 records on the last page, got %d", len(second.Records))
	}
	if second.NextCursor != "" {
		t.Errorf("last page must not carry a cursor, got %q", second.NextCursor)
	}
}

func TestList_InvalidCursorReturnsEmptyPage(t *testing.T) {
	repo := newMockNotificationRepo()
	agg := NewAggregator(repo, nil)
	ctx := context.Background()

	agg.Ingest(ctx, command.IngestEventsCommand{
		RecipientID: 5,
		AlertEvents: []alertdomain.Event{alertEvent(alertdomain.KindLowStock, 1, baseTime)},
	})

	for _, cursor := range []string{"garbage", "-3", "1.5"} {
		page, err := agg.List(query.ListFeedQuery{RecipientID: 5, Tab: domain.TabAll, Cursor: cursor})
		if err != nil {
			t.Fatalf("cursor %q: expected empty page, got error %v", cursor, err)
		}
		if len(page.Records) != 0 {
			t.Errorf("cursor %q: expected empty page, got %d records", cursor, len(page.Records))
		}
	}
}

func TestIngest_IsolatedPerRecipient(t *testing.T) {
	repo := newMockNotificationRepo()
	agg := NewAggregator(repo, nil)
	ctx := context.Background()

	agg.Ingest(ctx, command.IngestEventsCommand{
		RecipientID: 1,
		AlertEvents: []alertdomain.Event{alertEvent(alertdomain.KindLowStock, 1, baseTime)},
	})
	agg.Ingest(ctx, command.IngestEventsCommand{
		RecipientID: 2,
		AlertEvents: []alertdomain.Event{alertEvent(alertdomain.KindLowStock, 1, baseTime)},
	})

	agg.MarkAllRead(command.MarkAllReadCommand{RecipientID: 1, Tab: domain.TabAll})

	c1, _ := agg.UnreadCount(query.UnreadCountQuery{RecipientID: 1})
	c2, _ := agg.UnreadCount(query.UnreadCountQuery{RecipientID: 2})
	if c1 != 0 || c2 != 1 {
		t.Fatalf("per-user isolation broken: user1=%d user2=%d", c1, c2)
	}
}
