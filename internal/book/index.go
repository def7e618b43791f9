package book

import (
	"github.com/emirpasic/gods/v2/trees/redblacktree"

	"github.com/rishav/order-matching-engine/internal/order"
)

// ascending orders prices low-to-high; used on the ask side, where the
// best price is the lowest.
func ascending(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// descending orders prices high-to-low; used on the bid side, where the
// best price is the highest. A single ordered-map type serves both sides
// — only the comparator flips.
func descending(a, b int64) int {
	return ascending(b, a)
}

// Index is the ordered, per-side price level map: price -> FIFO of
// resting order ids at that price. Bids and asks are both an Index, just
// built with a different comparator, so the matching engine never has
// to special-case "which side am I on" beyond choosing which Index to use.
type Index struct {
	side   order.Side
	levels *redblacktree.Tree[int64, *PriceLevel]
	size   int
}

// NewIndex builds an empty index for the given side.
func NewIndex(side order.Side) *Index {
	cmp := ascending
	if side == order.Buy {
		cmp = descending
	}
	return &Index{
		side:   side,
		levels: redblacktree.NewWith[int64, *PriceLevel](cmp),
	}
}

// Side reports which book side this index serves.
func (ix *Index) Side() order.Side { return ix.side }

// Len returns the total number of resting order ids across all levels.
func (ix *Index) Len() int { return ix.size }

// Insert adds id to the FIFO at price, creating the level if needed.
func (ix *Index) Insert(id uint64, price int64) {
	level, ok := ix.levels.Get(price)
	if !ok {
		level = NewPriceLevel(price)
		ix.levels.Put(price, level)
	}
	level.Append(id)
	ix.size++
}

// Remove deletes id from the level at price. Removes the level entirely
// once it empties out, so Best and iteration never see a dangling level.
func (ix *Index) Remove(id uint64, price int64) bool {
	level, ok := ix.levels.Get(price)
	if !ok {
		return false
	}
	if !level.Remove(id) {
		return false
	}
	ix.size--
	if level.IsEmpty() {
		ix.levels.Remove(price)
	}
	return true
}

// Best returns the price level with the highest priority for this side
// (highest price on the bid side, lowest price on the ask side), or nil
// if the index is empty.
func (ix *Index) Best() *PriceLevel {
	node := ix.levels.Left()
	if node == nil {
		return nil
	}
	return node.Value
}

// Level returns the level resting at price, if any.
func (ix *Index) Level(price int64) (*PriceLevel, bool) {
	return ix.levels.Get(price)
}

// Crosses reports whether an incoming order at price would be eligible
// to trade against this side's best level: price <= best bid for a buy
// side index queried by a sell, or price >= best ask for the symmetric
// case. An empty index never crosses.
func (ix *Index) Crosses(incomingPrice int64) bool {
	best := ix.Best()
	if best == nil {
		return false
	}
	if ix.side == order.Buy {
		// Resting bids: an incoming sell crosses if its price <= best bid.
		return incomingPrice <= best.Price
	}
	// Resting asks: an incoming buy crosses if its price >= best ask.
	return incomingPrice >= best.Price
}

// EachLevel walks levels in priority order (best first), stopping early
// if fn returns false. Used both for depth snapshots and by
// tentativeMatch to walk candidate levels in priority order. Priority
// order falls directly out of the comparator the tree was built with, so
// iteration from the left is correct for both sides.
func (ix *Index) EachLevel(fn func(level *PriceLevel) bool) {
	it := ix.levels.Iterator()
	for it.Next() {
		if !fn(it.Value()) {
			return
		}
	}
}
