package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// ChangeEvent signals that the snapshot stored under Key changed. It carries
// no delta: subscribers re-read the whole value. External is set when the
// change was observed on the backing store rather than made by this process.
type ChangeEvent struct {
	Key      string
	External bool
	At       time.Time
}

const defaultSubscriberBuffer = 16

// ChangeFeed fans change events out to subscribers. Publishing never blocks.
// Events a subscriber has not received yet are merged per key and origin, so
// the latest change to every key is always delivered.
type ChangeFeed struct {
	mu        sync.RWMutex
	subs      map[uint64]*subscriber
	next      uint64
	closed    bool
	coalesced atomic.Uint64
}

type pendingKey struct {
	key      string
	external bool
}

type subscriber struct {
	out  chan ChangeEvent
	wake chan struct{}
	done chan struct{}
	stop sync.Once

	mu      sync.Mutex
	pending map[pendingKey]ChangeEvent
	order   []pendingKey
}

// NewChangeFeed returns an empty feed.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{subs: make(map[uint64]*subscriber)}
}

// Subscribe registers a listener with the given buffer (16 when <= 0). The
// returned cancel func unsubscribes; the channel is closed once the delivery
// goroutine exits. Cancel is safe to call more than once.
func (f *ChangeFeed) Subscribe(buffer int) (<-chan ChangeEvent, func()) {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	sub := &subscriber{
		out:     make(chan ChangeEvent, buffer),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		pending: make(map[pendingKey]ChangeEvent),
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(sub.out)
		return sub.out, func() {}
	}
	id := f.next
	f.next++
	f.subs[id] = sub
	f.mu.Unlock()

	go sub.deliver()

	return sub.out, func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
		sub.cancel()
	}
}

// Publish queues ev for every subscriber without blocking. An undelivered
// event with the same key and origin is replaced by ev.
func (f *ChangeFeed) Publish(ev ChangeEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, sub := range f.subs {
		if sub.enqueue(ev) {
			f.coalesced.Add(1)
		}
	}
}

// Coalesced returns how many events were merged into an undelivered event for
// the same key.
func (f *ChangeFeed) Coalesced() uint64 { return f.coalesced.Load() }

// Close unsubscribes everyone. Later subscriptions receive a closed channel.
func (f *ChangeFeed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, sub := range f.subs {
		delete(f.subs, id)
		sub.cancel()
	}
}

func (s *subscriber) enqueue(ev ChangeEvent) bool {
	k := pendingKey{key: ev.Key, external: ev.External}
	s.mu.Lock()
	_, merged := s.pending[k]
	if !merged {
		s.order = append(s.order, k)
	}
	s.pending[k] = ev
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return merged
}

func (s *subscriber) take() []ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]ChangeEvent, 0, len(s.order))
	for _, k := range s.order {
		batch = append(batch, s.pending[k])
		delete(s.pending, k)
	}
	s.order = s.order[:0]
	return batch
}

func (s *subscriber) deliver() {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for _, ev := range s.take() {
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
	}
}

func (s *subscriber) cancel() {
	s.stop.Do(func() { close(s.done) })
}
