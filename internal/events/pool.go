package events

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PoolEvent is a domain event emitted after a pool operation commits.
// Amount fields are uint64 like the core; the spot price is a decimal
// string so UI layers avoid float precision issues.
type PoolEvent struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Pair      string    `json:"pair"`
	Direction string    `json:"direction,omitempty"`
	AmountIn  uint64    `json:"amount_in,omitempty"`
	AmountOut uint64    `json:"amount_out,omitempty"`
	ReserveA  uint64    `json:"reserve_a"`
	ReserveB  uint64    `json:"reserve_b"`
	Price     string    `json:"price,omitempty"`
}

// Event kinds.
const (
	KindPoolCreated = "pool_created"
	KindSwap        = "swap"
	KindDeposit     = "deposit"
)

// SpotPrice renders reserveB/reserveA as a decimal string, empty when the
// pool has no A-side reserve yet.
func SpotPrice(reserveA, reserveB uint64) string {
	if reserveA == 0 {
		return ""
	}
	a := decimal.NewFromUint64(reserveA)
	b := decimal.NewFromUint64(reserveB)
	return b.Div(a).String()
}

// PoolBroadcaster fans out pool events to all subscribers via buffered
// channels.
type PoolBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan PoolEvent]struct{}
	buffer int
}

// NewPoolBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewPoolBroadcaster(buffer int) *PoolBroadcaster {
	if buffer < 1 {
		buffer = 64
	}
	return &PoolBroadcaster{
		subs:   make(map[chan PoolEvent]struct{}),
		buffer: buffer,
	}
}

// Publish sends the event to all subscribers, dropping if a reader is slow.
func (b *PoolBroadcaster) Publish(e PoolEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a channel that receives events until Unsubscribe is called.
func (b *PoolBroadcaster) Subscribe() chan PoolEvent {
	ch := make(chan PoolEvent, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *PoolBroadcaster) Unsubscribe(ch chan PoolEvent) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
