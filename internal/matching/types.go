// Package matching owns the two price-level indices and the order
// registry, and implements the trade/cancel/modify protocol against them.
package matching

import (
	"fmt"

	"github.com/rishav/order-matching-engine/internal/order"
)

// TradeInfo is one party's side of a Trade: the order that participated,
// the price it traded at (its own resting or incoming price, never a
// single synthesized clearing price — see the price-divergence note in
// SPEC_FULL.md §4.3), and the quantity exchanged.
type TradeInfo struct {
	OrderID  uint64
	Price    int64
	Quantity uint64
}

// Trade is a single match: one bid-side fill and one ask-side fill of
// equal quantity, possibly at different recorded prices.
type Trade struct {
	Bid TradeInfo
	Ask TradeInfo
}

func (t Trade) String() string {
	return fmt.Sprintf("Trade{bid:(%d,%d,%d), ask:(%d,%d,%d)}",
		t.Bid.OrderID, t.Bid.Price, t.Bid.Quantity,
		t.Ask.OrderID, t.Ask.Price, t.Ask.Quantity)
}

// CancelledOrder reports an order leaving the book, tagged with why.
type CancelledOrder struct {
	Kind  order.CancelKind
	Order order.Order
}

// UpdateKind discriminates a MarketDataUpdate's payload.
type UpdateKind int

const (
	UpdateTrade UpdateKind = iota
	UpdateCancel
)

// MarketDataUpdate is the tagged union the engine emits: exactly one of
// Trade or Cancel is meaningful, selected by Kind.
type MarketDataUpdate struct {
	Kind   UpdateKind
	Trade  Trade
	Cancel CancelledOrder
}

func tradeUpdate(t Trade) MarketDataUpdate {
	return MarketDataUpdate{Kind: UpdateTrade, Trade: t}
}

func cancelUpdate(c CancelledOrder) MarketDataUpdate {
	return MarketDataUpdate{Kind: UpdateCancel, Cancel: c}
}

// RequestKind discriminates a Request's payload.
type RequestKind int

const (
	RequestTrade RequestKind = iota
	RequestCancel
	RequestModify
	RequestSnapshot
)

// Snapshot is a point-in-time read of the book, built by the engine
// goroutine and handed back over a reply channel so no other goroutine
// ever touches the registry or price-level indices directly.
type Snapshot struct {
	BestBid *int64
	BestAsk *int64
	Bids    []DepthLevel
	Asks    []DepthLevel
}

// Request is the single tagged-union type accepted by Engine.Handle.
// Exactly one of Order / CancelID / (SnapshotMaxLevels, SnapshotReply) is
// meaningful, selected by Kind.
type Request struct {
	Kind       RequestKind
	Order      *order.Order
	CancelKind order.CancelKind
	CancelID   uint64

	SnapshotMaxLevels int
	SnapshotReply     chan Snapshot
}

// NewTradeRequest wraps o as a Trade request.
func NewTradeRequest(o *order.Order) Request {
	return Request{Kind: RequestTrade, Order: o}
}

// NewCancelRequest asks the engine to remove id, tagged with kind.
func NewCancelRequest(kind order.CancelKind, id uint64) Request {
	return Request{Kind: RequestCancel, CancelKind: kind, CancelID: id}
}

// NewModifyRequest wraps the replacement order description as a Modify
// request; o.ID identifies the existing order being replaced.
func NewModifyRequest(o *order.Order) Request {
	return Request{Kind: RequestModify, Order: o}
}

// NewSnapshotRequest asks the engine for a Snapshot of up to maxLevels
// per side. The returned channel receives exactly one value, sent by the
// engine goroutine that processes this request.
func NewSnapshotRequest(maxLevels int) (Request, chan Snapshot) {
	reply := make(chan Snapshot, 1)
	return Request{Kind: RequestSnapshot, SnapshotMaxLevels: maxLevels, SnapshotReply: reply}, reply
}
