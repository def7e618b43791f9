// Package expiry implements the time-ordered expiration service: a
// min-heap of (expire-at, order id) that fires synthetic cancellations
// into the matching engine's input queue as entries come due.
//
// Removal is lazy: RemoveExpiration only marks an id cancelled, it never
// searches the heap. Tick discards cancelled entries as it pops them.
// This keeps Remove O(1) at the cost of bounded heap bloat from entries
// that fire or get cancelled before their natural pop — acceptable
// because entries are only created at order-submission time, bounding
// heap size by outstanding order count.
package expiry

import (
	"time"

	"github.com/emirpasic/gods/v2/trees/binaryheap"
	"github.com/rs/zerolog/log"

	"github.com/rishav/order-matching-engine/internal/queue"
)

// entry is one heap element: the order id expires at ExpireAt (unix seconds).
type entry struct {
	ExpireAt int64
	OrderID  uint64
}

func byExpireAt(a, b entry) int {
	switch {
	case a.ExpireAt < b.ExpireAt:
		return -1
	case a.ExpireAt > b.ExpireAt:
		return 1
	default:
		return 0
	}
}

// InsertExpiration schedules order id to expire at ExpireAt.
type InsertExpiration struct {
	OrderID  uint64
	ExpireAt int64
}

// RemoveExpiration cancels a previously scheduled expiration.
type RemoveExpiration struct {
	OrderID uint64
}

// Request is the tagged union accepted on the expiration queue.
type Request struct {
	Insert *InsertExpiration
	Remove *RemoveExpiration
}

// Service owns the expiration heap and the membership index used for
// lazy deletion. It is single-threaded: Run must only ever execute on
// one goroutine, consistent with every other executor's discipline here.
type Service struct {
	heap      *binaryheap.Heap[entry]
	cancelled map[uint64]bool

	in    *queue.Unbounded[Request]
	nowFn func() int64
	poll  time.Duration
}

// New constructs a service reading from in; the callback that receives
// fired order ids is passed to Run. poll bounds how long Run sleeps between heap-head checks when idle.
func New(in *queue.Unbounded[Request], poll time.Duration) *Service {
	return &Service{
		heap:      binaryheap.NewWith[entry](byExpireAt),
		cancelled: make(map[uint64]bool),
		in:        in,
		poll:      poll,
		nowFn:     func() int64 { return time.Now().Unix() },
	}
}

// Insert schedules orderID to expire at expireAt (unix seconds). Rejects
// an expiration already in the past. If orderID is marked cancelled, the
// mark is cleared and any heap entries it left behind for orderID are
// dropped first (an O(n log n) rebuild of the heap), so only the new
// entry fires.
func (s *Service) Insert(orderID uint64, expireAt int64) {
	if expireAt < s.nowFn() {
		log.Warn().Uint64("order_id", orderID).Int64("expire_at", expireAt).Msg("expiration rejected: already past")
		return
	}
	if s.cancelled[orderID] {
		delete(s.cancelled, orderID)
		kept := make([]entry, 0, s.heap.Size())
		for {
			e, ok := s.heap.Pop()
			if !ok {
				break
			}
			if e.OrderID != orderID {
				kept = append(kept, e)
			}
		}
		for _, e := range kept {
			s.heap.Push(e)
		}
	}
	s.heap.Push(entry{ExpireAt: expireAt, OrderID: orderID})
}

// Remove marks orderID cancelled. The heap entry, if any, is discarded
// lazily at pop time rather than searched for now.
func (s *Service) Remove(orderID uint64) {
	s.cancelled[orderID] = true
}

// Tick pops every heap entry whose ExpireAt has come due. For each, it
// discards cancelled entries and otherwise invokes emit with the order
// id so the caller can enqueue Cancel(Internal, id) onto the engine's
// input queue. Entries earlier in expire-at order are always emitted
// before later ones, in heap-pop order.
func (s *Service) Tick(emit func(orderID uint64)) {
	now := s.nowFn()
	for {
		head, ok := s.heap.Peek()
		if !ok || head.ExpireAt > now {
			return
		}
		popped, _ := s.heap.Pop()
		if s.cancelled[popped.OrderID] {
			delete(s.cancelled, popped.OrderID)
			continue
		}
		emit(popped.OrderID)
	}
}

// Run drains expiration-queue requests and ticks the heap until in is
// closed. emit is called with each order id whose expiration has fired.
func (s *Service) Run(emit func(orderID uint64)) {
	for {
		req, ok := s.in.TryPop()
		if ok {
			switch {
			case req.Insert != nil:
				s.Insert(req.Insert.OrderID, req.Insert.ExpireAt)
			case req.Remove != nil:
				s.Remove(req.Remove.OrderID)
			}
			continue
		}
		s.Tick(emit)
		if s.in.Closed() {
			return
		}
		time.Sleep(s.pollInterval())
	}
}

// pollInterval caps the idle sleep at s.poll, or a short default if unset.
func (s *Service) pollInterval() time.Duration {
	if s.poll > 0 {
		return s.poll
	}
	return 5 * time.Millisecond
}

// Len reports the number of entries still resident in the heap,
// including any already-cancelled ones awaiting lazy removal.
func (s *Service) Len() int {
	return s.heap.Size()
}
