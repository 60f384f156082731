package service

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tuitionpay/escrowhub/db/models"
)

// Pubsub signals committed ledger events to in-process subscribers.
// Publishing never blocks: a subscriber whose buffer is full misses the signal.
// Event relays only use it as a wake-up and read the events from the store.
type Pubsub struct {
	mu      sync.RWMutex
	subs    map[string]map[string]chan models.LedgerEvent
	dropped atomic.Int64
}

func NewPubsub() *Pubsub {
	ps := &Pubsub{}
	ps.subs = make(map[string]map[string]chan models.LedgerEvent)
	return ps
}

func (ps *Pubsub) Subscribe(topic string, ch chan models.LedgerEvent) (subId string, err error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		ps.subs[topic] = make(map[string]chan models.LedgerEvent)
	}
	subId = uuid.NewString()
	ps.subs[topic][subId] = ch
	return subId, nil
}

func (ps *Pubsub) Unsubscribe(id string, topic string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if ps.subs[topic] == nil {
		return
	}
	if ps.subs[topic][id] == nil {
		return
	}
	close(ps.subs[topic][id])
	delete(ps.subs[topic], id)
}

func (ps *Pubsub) Publish(topic string, msg models.LedgerEvent) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.subs[topic] == nil {
		return
	}

	for _, ch := range ps.subs[topic] {
		select {
		case ch <- msg:
		default:
			ps.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (ps *Pubsub) Dropped() int64 {
	return ps.dropped.Load()
}
