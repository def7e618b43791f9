package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishav/order-matching-engine/internal/order"
)

func newOrder(id uint64, typ order.Type, side order.Side, price int64, qty, min uint64) *order.Order {
	return order.New(id, typ, side, price, qty, min)
}

func TestSymmetricCross(t *testing.T) {
	e := NewEngine(nil)

	b1 := newOrder(1, order.Normal, order.Buy, 10, 1, 0)
	out1 := e.Handle(NewTradeRequest(b1))
	assert.Empty(t, out1)

	s1 := newOrder(2, order.Normal, order.Sell, 10, 1, 0)
	out2 := e.Handle(NewTradeRequest(s1))
	require.Len(t, out2, 1)
	require.Equal(t, UpdateTrade, out2[0].Kind)
	trade := out2[0].Trade
	assert.Equal(t, TradeInfo{OrderID: 1, Price: 10, Quantity: 1}, trade.Bid)
	assert.Equal(t, TradeInfo{OrderID: 2, Price: 10, Quantity: 1}, trade.Ask)

	_, bidOK := e.BestBid()
	_, askOK := e.BestAsk()
	assert.False(t, bidOK)
	assert.False(t, askOK)
}

func TestPartialFillRestingRemainder(t *testing.T) {
	e := NewEngine(nil)

	e.Handle(NewTradeRequest(newOrder(1, order.Normal, order.Buy, 10, 1, 0)))
	out := e.Handle(NewTradeRequest(newOrder(2, order.Normal, order.Sell, 10, 2, 0)))

	require.Len(t, out, 1)
	assert.Equal(t, TradeInfo{OrderID: 1, Price: 10, Quantity: 1}, out[0].Trade.Bid)
	assert.Equal(t, TradeInfo{OrderID: 2, Price: 10, Quantity: 1}, out[0].Trade.Ask)

	ask, ok := e.asks.Level(10)
	require.True(t, ok)
	ids := ask.IDs()
	require.Len(t, ids, 1)
	assert.Equal(t, uint64(2), ids[0])

	resting, ok := e.reg.Get(2)
	require.True(t, ok)
	assert.Equal(t, uint64(1), resting.Remaining)
}

func TestAggressiveCrossAtDifferentPrices(t *testing.T) {
	e := NewEngine(nil)

	e.Handle(NewTradeRequest(newOrder(1, order.Normal, order.Buy, 2, 1, 0)))
	out := e.Handle(NewTradeRequest(newOrder(2, order.Normal, order.Sell, 1, 1, 0)))

	require.Len(t, out, 1)
	assert.Equal(t, TradeInfo{OrderID: 1, Price: 2, Quantity: 1}, out[0].Trade.Bid)
	assert.Equal(t, TradeInfo{OrderID: 2, Price: 1, Quantity: 1}, out[0].Trade.Ask)
}

func TestMultiCounterpartyFIFO(t *testing.T) {
	e := NewEngine(nil)

	e.Handle(NewTradeRequest(newOrder(1, order.Normal, order.Buy, 1, 1, 0)))
	e.Handle(NewTradeRequest(newOrder(2, order.Normal, order.Buy, 1, 2, 0)))
	out := e.Handle(NewTradeRequest(newOrder(3, order.Normal, order.Sell, 1, 3, 0)))

	require.Len(t, out, 2)
	assert.Equal(t, uint64(1), out[0].Trade.Bid.OrderID)
	assert.Equal(t, uint64(2), out[1].Trade.Bid.OrderID)

	_, ok := e.BestBid()
	assert.False(t, ok)
}

func TestMinimumBlocksAggressor(t *testing.T) {
	e := NewEngine(nil)

	e.Handle(NewTradeRequest(newOrder(1, order.Normal, order.Buy, 1, 1, 0)))
	out := e.Handle(NewTradeRequest(newOrder(2, order.Normal, order.Sell, 1, 2, 2)))

	assert.Empty(t, out)

	bestBid, ok := e.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(1), bestBid)

	bestAsk, ok := e.BestAsk()
	require.True(t, ok)
	assert.Equal(t, int64(1), bestAsk)

	b1, ok := e.reg.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), b1.Remaining)
}

func TestMinimumPreservesFIFOWhenSkipped(t *testing.T) {
	e := NewEngine(nil)

	e.Handle(NewTradeRequest(newOrder(1, order.Normal, order.Buy, 1, 1, 5)))
	e.Handle(NewTradeRequest(newOrder(2, order.Normal, order.Buy, 1, 1, 0)))
	out := e.Handle(NewTradeRequest(newOrder(3, order.Normal, order.Sell, 1, 1, 0)))

	require.Len(t, out, 1)
	assert.Equal(t, uint64(2), out[0].Trade.Bid.OrderID)

	b1, ok := e.reg.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), b1.Remaining)

	_, ok = e.BestAsk()
	assert.False(t, ok)
}

func TestKillWithNoMatch(t *testing.T) {
	e := NewEngine(nil)

	out := e.Handle(NewTradeRequest(newOrder(1, order.Kill, order.Buy, 1, 1, 0)))
	assert.Empty(t, out)

	_, ok := e.reg.Get(1)
	assert.False(t, ok)
	_, ok = e.BestBid()
	assert.False(t, ok)
}

func TestModifyToFill(t *testing.T) {
	e := NewEngine(nil)

	out1 := e.Handle(NewTradeRequest(newOrder(1, order.Normal, order.Buy, 1, 1, 0)))
	assert.Empty(t, out1)

	out2 := e.Handle(NewTradeRequest(newOrder(2, order.Normal, order.Sell, 2, 1, 0)))
	assert.Empty(t, out2)

	out3 := e.Handle(NewModifyRequest(newOrder(2, order.Normal, order.Sell, 1, 1, 0)))
	require.Len(t, out3, 2)

	assert.Equal(t, UpdateCancel, out3[0].Kind)
	assert.Equal(t, order.Internal, out3[0].Cancel.Kind)
	assert.Equal(t, uint64(2), out3[0].Cancel.Order.ID)

	assert.Equal(t, UpdateTrade, out3[1].Kind)
	assert.Equal(t, uint64(1), out3[1].Trade.Bid.OrderID)
	assert.Equal(t, uint64(2), out3[1].Trade.Ask.OrderID)
}

func TestDuplicateIDRejected(t *testing.T) {
	e := NewEngine(nil)
	e.Handle(NewTradeRequest(newOrder(1, order.Normal, order.Buy, 1, 1, 0)))
	out := e.Handle(NewTradeRequest(newOrder(1, order.Normal, order.Buy, 1, 1, 0)))
	assert.Empty(t, out)
}

func TestCancelUnknownIDIsNoop(t *testing.T) {
	e := NewEngine(nil)
	out := e.Handle(NewCancelRequest(order.External, 999))
	assert.Empty(t, out)
}

func TestModifyUnknownIDRejected(t *testing.T) {
	e := NewEngine(nil)
	out := e.Handle(NewModifyRequest(newOrder(1, order.Normal, order.Buy, 1, 1, 0)))
	assert.Empty(t, out)
}

func TestModifyCannotChangeSide(t *testing.T) {
	e := NewEngine(nil)
	e.Handle(NewTradeRequest(newOrder(1, order.Normal, order.Buy, 1, 1, 0)))
	out := e.Handle(NewModifyRequest(newOrder(1, order.Normal, order.Sell, 1, 1, 0)))
	assert.Empty(t, out)

	existing, ok := e.reg.Get(1)
	require.True(t, ok)
	assert.Equal(t, order.Buy, existing.Side)
}

func TestModifyCannotShrinkBelowFilled(t *testing.T) {
	e := NewEngine(nil)
	e.Handle(NewTradeRequest(newOrder(1, order.Normal, order.Buy, 1, 2, 0)))
	e.Handle(NewTradeRequest(newOrder(2, order.Normal, order.Sell, 1, 1, 0)))

	existing, ok := e.reg.Get(1)
	require.True(t, ok)
	require.Equal(t, uint64(1), existing.Remaining)

	out := e.Handle(NewModifyRequest(newOrder(1, order.Normal, order.Buy, 1, 0, 0)))
	assert.Empty(t, out)

	unchanged, ok := e.reg.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint64(2), unchanged.Initial)
}

func TestTwoPhaseRollbackTouchesNoRestingState(t *testing.T) {
	e := NewEngine(nil)

	e.Handle(NewTradeRequest(newOrder(1, order.Normal, order.Buy, 1, 1, 0)))
	e.Handle(NewTradeRequest(newOrder(2, order.Normal, order.Buy, 1, 1, 0)))

	out := e.Handle(NewTradeRequest(newOrder(3, order.Normal, order.Sell, 1, 2, 3)))
	assert.Empty(t, out)

	b1, _ := e.reg.Get(1)
	b2, _ := e.reg.Get(2)
	assert.Equal(t, uint64(1), b1.Remaining)
	assert.Equal(t, uint64(1), b2.Remaining)
	assert.Equal(t, b1.Remaining, b1.VirtualRemaining)
	assert.Equal(t, b2.Remaining, b2.VirtualRemaining)
}
