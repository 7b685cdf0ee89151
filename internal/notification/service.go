package notification

import (
	"context"
	"sync"

	"github.com/medtrack/pharmacy-portal/internal/notification/domain"
	"github.com/medtrack/pharmacy-portal/internal/notification/usecase/command"
	"github.com/medtrack/pharmacy-portal/internal/notification/usecase/query"
	"github.com/medtrack/pharmacy-portal/pkg/logger"
)

// lockStripes bounds the per-user mutex table. Same-user mutations hash to
// the same stripe; cross-user operations almost always run unserialized.
const lockStripes = 64

// EventPublisher publishes notification lifecycle events downstream.
// Implemented by the kafka publisher; nil disables publishing.
type EventPublisher interface {
	PublishNotificationCreated(ctx context.Context, n domain.Notification) error
}

// Aggregator merges alert and chat events into per-user notification feeds
// and owns read/unread state. Mutations for the same user are serialized so
// the monotonic read invariant holds under concurrent calls.
type Aggregator struct {
	ingestHandler      *command.IngestEventsHandler
	markReadHandler    *command.MarkReadHandler
	markAllReadHandler *command.MarkAllReadHandler
	listHandler        *query.ListFeedHandler
	unreadHandler      *query.UnreadCountHandler

	publisher EventPublisher
	locks     [lockStripes]sync.Mutex
}

// NewAggregator creates a new notification aggregator
func NewAggregator(repo domain.NotificationRepository, publisher EventPublisher) *Aggregator {
	return &Aggregator{
		ingestHandler:      command.NewIngestEventsHandler(repo),
		markReadHandler:    command.NewMarkReadHandler(repo),
		markAllReadHandler: command.NewMarkAllReadHandler(repo),
		listHandler:        query.NewListFeedHandler(repo),
		unreadHandler:      query.NewUnreadCountHandler(repo),
		publisher:          publisher,
	}
}

func (a *Aggregator) userLock(userID uint) *sync.Mutex {
	return &a.locks[userID%lockStripes]
}

// Ingest folds raw events into the recipient's feed and publishes a
// notification.created event for every record created this run. Publish
// failures are logged, never propagated: the feed write already happened.
func (a *Aggregator) Ingest(ctx context.Context, cmd command.IngestEventsCommand) error {
	lock := a.userLock(cmd.RecipientID)
	lock.Lock()
	created, err := a.ingestHandler.Handle(cmd)
	lock.Unlock()
	if err != nil {
		return err
	}

	if a.publisher != nil {
		for _, n := range created {
			if pubErr := a.publisher.PublishNotificationCreated(ctx, n); pubErr != nil {
				logger.Error(ctx).
					Err(pubErr).
					Uint("notification_id", n.ID).
					Msg("Failed to publish notification event")
			}
		}
	}

	return nil
}

// MarkRead marks one notification read for the user.
func (a *Aggregator) MarkRead(cmd command.MarkReadCommand) error {
	lock := a.userLock(cmd.RecipientID)
	lock.Lock()
	defer lock.Unlock()
	return a.markReadHandler.Handle(cmd)
}

// MarkAllRead marks the user's current scope read.
func (a *Aggregator) MarkAllRead(cmd command.MarkAllReadCommand) error {
	lock := a.userLock(cmd.RecipientID)
	lock.Lock()
	defer lock.Unlock()
	return a.markAllReadHandler.Handle(cmd)
}

// List returns one feed page.
func (a *Aggregator) List(q query.ListFeedQuery) (*query.FeedPage, error) {
	return a.listHandler.Handle(q)
}

// UnreadCount returns the user's exact unread count.
func (a *Aggregator) UnreadCount(q query.UnreadCountQuery) (int64, error) {
	return a.unreadHandler.Handle(q)
}
