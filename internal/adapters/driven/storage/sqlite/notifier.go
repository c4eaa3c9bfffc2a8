package sqlite

import (
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
	"github.com/custodia-labs/catalog-sync/internal/metrics"
)

// notifier fans committed table changes out to live query subscribers.
// Each subscriber holds at most one pending notification; further changes
// before it is drained coalesce into it.
type notifier struct {
	mu   sync.Mutex
	subs map[string]*subscriber
}

type subscriber struct {
	tables map[string]struct{}
	ch     chan struct{}
}

var _ driven.Notifier = (*notifier)(nil)

func newNotifier() *notifier {
	return &notifier{subs: make(map[string]*subscriber)}
}

// Subscribe registers interest in tables. No tables means every table.
func (n *notifier) Subscribe(tables ...string) driven.Subscription {
	sub := &subscriber{
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan struct{}, 1),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}
	id := uuid.New().String()

	n.mu.Lock()
	n.subs[id] = sub
	n.mu.Unlock()
	metrics.LiveSubscriptionsActive.Inc()

	var once sync.Once
	return driven.Subscription{
		ID: id,
		C:  sub.ch,
		Cancel: func() {
			once.Do(func() {
				n.mu.Lock()
				delete(n.subs, id)
				n.mu.Unlock()
				metrics.LiveSubscriptionsActive.Dec()
			})
		},
	}
}

// Publish notifies every subscriber watching one of tables. It never blocks.
func (n *notifier) Publish(tables ...string) {
	if len(tables) == 0 {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, sub := range n.subs {
		if !sub.watches(tables) {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

func (s *subscriber) watches(tables []string) bool {
	if len(s.tables) == 0 {
		return true
	}
	for _, t := range tables {
		if _, ok := s.tables[t]; ok {
			return true
		}
	}
	return false
}
