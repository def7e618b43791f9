// Package book implements the per-side Price-Level Index: an ordered
// mapping from price to the FIFO queue of resting order identifiers at
// that price.
//
// Design Rationale:
// - Orders at the same price are stored in arrival order (FIFO) so that
//   price-time priority falls out of "iterate the level head-first".
// - A doubly-linked list gives O(1) append at the tail; removal from the
//   middle is an O(n) scan to find the node (see Remove), since there is
//   no id→node index here — the registry is the O(1) lookup for "does
//   this id exist", not this structure.
package book

// idNode is a node in the doubly-linked FIFO of a single price level.
type idNode struct {
	id   uint64
	prev *idNode
	next *idNode
}

// PriceLevel holds every resting order id at a single price, oldest first.
type PriceLevel struct {
	Price int64
	head  *idNode
	tail  *idNode
	count int
}

// NewPriceLevel creates an empty level at the given price.
func NewPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{Price: price}
}

// Count returns how many orders rest at this level.
func (pl *PriceLevel) Count() int { return pl.count }

// IsEmpty reports whether the level has no resting orders.
func (pl *PriceLevel) IsEmpty() bool { return pl.count == 0 }

// Append adds an id to the tail of the FIFO (lowest priority at this price).
func (pl *PriceLevel) Append(id uint64) {
	node := &idNode{id: id}
	if pl.tail == nil {
		pl.head = node
		pl.tail = node
	} else {
		node.prev = pl.tail
		pl.tail.next = node
		pl.tail = node
	}
	pl.count++
}

// Remove deletes the given id from the level, wherever it sits in the
// FIFO. Time complexity: O(n) in the level's depth — levels are expected
// to stay shallow in practice, and the registry (not this structure) is
// the O(1) lookup path for "does this id exist at all".
func (pl *PriceLevel) Remove(id uint64) bool {
	for n := pl.head; n != nil; n = n.next {
		if n.id != id {
			continue
		}
		if n.prev != nil {
			n.prev.next = n.next
		} else {
			pl.head = n.next
		}
		if n.next != nil {
			n.next.prev = n.prev
		} else {
			pl.tail = n.prev
		}
		pl.count--
		return true
	}
	return false
}

// Front returns the oldest resting id at this level, or 0 with false if
// the level is empty.
func (pl *PriceLevel) Front() (uint64, bool) {
	if pl.head == nil {
		return 0, false
	}
	return pl.head.id, true
}

// Each walks the FIFO oldest-first, stopping early if fn returns false.
func (pl *PriceLevel) Each(fn func(id uint64) bool) {
	for n := pl.head; n != nil; n = n.next {
		if !fn(n.id) {
			return
		}
	}
}

// IDs returns the resting ids at this level in FIFO order. Allocates —
// intended for depth snapshots and tests, not the matching hot path.
func (pl *PriceLevel) IDs() []uint64 {
	out := make([]uint64, 0, pl.count)
	pl.Each(func(id uint64) bool {
		out = append(out, id)
		return true
	})
	return out
}
