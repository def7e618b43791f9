package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishav/order-matching-engine/internal/order"
)

func TestIndexBestBidHighestPriceFirst(t *testing.T) {
	ix := NewIndex(order.Buy)
	ix.Insert(1, 100)
	ix.Insert(2, 105)
	ix.Insert(3, 102)

	best := ix.Best()
	require.NotNil(t, best)
	assert.Equal(t, int64(105), best.Price)
}

func TestIndexBestAskLowestPriceFirst(t *testing.T) {
	ix := NewIndex(order.Sell)
	ix.Insert(1, 100)
	ix.Insert(2, 95)
	ix.Insert(3, 98)

	best := ix.Best()
	require.NotNil(t, best)
	assert.Equal(t, int64(95), best.Price)
}

func TestIndexFIFOWithinLevel(t *testing.T) {
	ix := NewIndex(order.Buy)
	ix.Insert(1, 100)
	ix.Insert(2, 100)
	ix.Insert(3, 100)

	level, ok := ix.Level(100)
	require.True(t, ok)
	assert.Equal(t, []uint64{1, 2, 3}, level.IDs())
}

func TestIndexRemovePrunesEmptyLevel(t *testing.T) {
	ix := NewIndex(order.Buy)
	ix.Insert(1, 100)

	removed := ix.Remove(1, 100)
	assert.True(t, removed)
	assert.Equal(t, 0, ix.Len())

	_, ok := ix.Level(100)
	assert.False(t, ok)
	assert.Nil(t, ix.Best())
}

func TestIndexCrosses(t *testing.T) {
	bids := NewIndex(order.Buy)
	bids.Insert(1, 100)
	assert.True(t, bids.Crosses(99))  // incoming sell at 99 crosses a 100 bid
	assert.True(t, bids.Crosses(100)) // equal price crosses
	assert.False(t, bids.Crosses(101))

	asks := NewIndex(order.Sell)
	asks.Insert(1, 100)
	assert.True(t, asks.Crosses(101)) // incoming buy at 101 crosses a 100 ask
	assert.True(t, asks.Crosses(100))
	assert.False(t, asks.Crosses(99))
}

func TestIndexEachLevelOrder(t *testing.T) {
	ix := NewIndex(order.Buy)
	ix.Insert(1, 100)
	ix.Insert(2, 105)
	ix.Insert(3, 102)

	var prices []int64
	ix.EachLevel(func(level *PriceLevel) bool {
		prices = append(prices, level.Price)
		return true
	})
	assert.Equal(t, []int64{105, 102, 100}, prices)
}
