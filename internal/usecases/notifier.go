package usecases

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"nft-marketplace.backend/internal/domain/entities"
	"nft-marketplace.backend/pkg/logger"
)

// DefaultNotificationCapacity bounds the notifications kept for a client between polls
const DefaultNotificationCapacity = 20

// Notifier delivers passive notifications
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// NotificationQueue logs notifications and keeps the latest ones until the client drains them
type NotificationQueue struct {
	mu       sync.Mutex
	items    []entities.Notification
	capacity int
	now      func() time.Time
}

// NewNotificationQueue creates a queue holding at most capacity notifications
func NewNotificationQueue(capacity int) *NotificationQueue {
	if capacity <= 0 {
		capacity = DefaultNotificationCapacity
	}
	return &NotificationQueue{capacity: capacity, now: time.Now}
}

func (q *NotificationQueue) Success(ctx context.Context, message string) {
	logger.Info(ctx, "Notify", zap.String("level", string(entities.NotificationSuccess)), zap.String("message", message))
	q.push(entities.NotificationSuccess, message)
}

func (q *NotificationQueue) Error(ctx context.Context, message string) {
	logger.Warn(ctx, "Notify", zap.String("level", string(entities.NotificationError)), zap.String("message", message))
	q.push(entities.NotificationError, message)
}

func (q *NotificationQueue) push(level entities.NotificationLevel, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, entities.Notification{Level: level, Message: message, At: q.now()})
	if over := len(q.items) - q.capacity; over > 0 {
		q.items = append([]entities.Notification(nil), q.items[over:]...)
	}
}

// Drain returns the queued notifications oldest first and empties the queue
func (q *NotificationQueue) Drain() []entities.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	if out == nil {
		out = []entities.Notification{}
	}
	return out
}

// Len returns the number of queued notifications
func (q *NotificationQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
