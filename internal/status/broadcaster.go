// Package status publishes the derived sync status to any number of
// subscribers.
package status

import (
	"sync"
	"time"

	"github.com/clicknote/clicknote-core/internal/logging"
	"github.com/clicknote/clicknote-core/internal/models"
	"github.com/clicknote/clicknote-core/internal/netstatus"
)

// QueueLengther supplies the live pending-operation count.
type QueueLengther interface {
	SyncQueueLength() (int, error)
}

// Broadcaster recomputes {online, pendingCount, lastSyncedAt} after every
// mutation and sync cycle and pushes it to subscribers. State is
// process-lifetime only: every UI mount resubscribes.
type Broadcaster struct {
	oracle netstatus.Oracle
	queue  QueueLengther

	mu           sync.Mutex
	subscribers  []*subscription
	lastSyncedAt *time.Time
	nextID       int
}

type subscription struct {
	id int
	fn func(models.SyncStatus)
}

// NewBroadcaster creates a Broadcaster over the oracle and queue.
func NewBroadcaster(oracle netstatus.Oracle, queue QueueLengther) *Broadcaster {
	return &Broadcaster{oracle: oracle, queue: queue}
}

// Subscribe registers a callback and immediately invokes it once with the
// current status. The returned function unsubscribes.
func (b *Broadcaster) Subscribe(fn func(models.SyncStatus)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	sub := &subscription{id: b.nextID, fn: fn}
	b.subscribers = append(b.subscribers, sub)
	current := b.currentLocked()
	b.mu.Unlock()

	fn(current)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subscribers {
			if s.id == sub.id {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				return
			}
		}
	}
}

// NotifyChange recomputes the status, stamps lastSyncedAt, and invokes every
// subscriber synchronously in registration order.
func (b *Broadcaster) NotifyChange() {
	b.mu.Lock()
	now := time.Now()
	b.lastSyncedAt = &now
	current := b.currentLocked()
	subs := make([]*subscription, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(current)
	}
}

// Current returns the status without notifying anyone.
func (b *Broadcaster) Current() models.SyncStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentLocked()
}

func (b *Broadcaster) currentLocked() models.SyncStatus {
	pending, err := b.queue.SyncQueueLength()
	if err != nil {
		logging.Warn("failed to read pending queue length", map[string]interface{}{"error": err.Error()})
	}
	return models.SyncStatus{
		Online:       b.oracle.IsOnline(),
		PendingCount: pending,
		LastSyncedAt: b.lastSyncedAt,
	}
}
