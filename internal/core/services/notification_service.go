package services

import (
	"context"
	"sync"

	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/logger"
)

// NotificationService is the notification sink: it persists every delivered
// notification and fans it out to live websocket subscribers. Fan-out is
// non-blocking; a slow subscriber just misses the push and reads the inbox.
type NotificationService struct {
	repo   ports.NotificationRepository
	logger *logger.Logger

	mu          sync.Mutex
	subscribers map[uint]map[chan domain.Notification]struct{}
}

func NewNotificationService(repo ports.NotificationRepository, log *logger.Logger) *NotificationService {
	return &NotificationService{
		repo:        repo,
		logger:      log,
		subscribers: make(map[uint]map[chan domain.Notification]struct{}),
	}
}

func (n *NotificationService) Deliver(ctx context.Context, userID uint, title, body string, typ domain.NotificationType, actionData domain.JSONB) error {
	notification := &domain.Notification{
		UserID:     userID,
		Title:      title,
		Message:    body,
		Type:       typ,
		ActionData: actionData,
	}
	if err := n.repo.Create(ctx, notification); err != nil {
		n.logger.Errorw("notification_deliver_failed", "user_id", userID, "type", typ, "error", err)
		return err
	}

	n.mu.Lock()
	for ch := range n.subscribers[userID] {
		select {
		case ch <- *notification:
		default:
		}
	}
	n.mu.Unlock()

	n.logger.Infow("notification_delivered", "user_id", userID, "type", typ)
	return nil
}

// Subscribe registers a live feed for the user. The returned function must be
// called to detach the channel.
func (n *NotificationService) Subscribe(userID uint) (<-chan domain.Notification, func()) {
	ch := make(chan domain.Notification, 16)
	n.mu.Lock()
	if n.subscribers[userID] == nil {
		n.subscribers[userID] = make(map[chan domain.Notification]struct{})
	}
	n.subscribers[userID][ch] = struct{}{}
	n.mu.Unlock()

	return ch, func() {
		n.mu.Lock()
		delete(n.subscribers[userID], ch)
		if len(n.subscribers[userID]) == 0 {
			delete(n.subscribers, userID)
		}
		n.mu.Unlock()
	}
}

func (n *NotificationService) ListByUser(ctx context.Context, userID uint, unreadOnly bool) ([]domain.Notification, error) {
	return n.repo.GetByUser(ctx, userID, unreadOnly)
}

func (n *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	ok, err := n.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (n *NotificationService) MarkAllRead(ctx context.Context, userID uint) error {
	return n.repo.MarkAllRead(ctx, userID)
}

func (n *NotificationService) Delete(ctx context.Context, userID, notificationID uint) error {
	ok, err := n.repo.Delete(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (n *NotificationService) Stats(ctx context.Context, userID uint) (map[domain.NotificationType]int64, error) {
	return n.repo.CountByType(ctx, userID)
}
