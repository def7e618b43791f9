package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/order"
)

func TestEncodeDecodeTradeRoundTrip(t *testing.T) {
	u := matching.MarketDataUpdate{
		Kind: matching.UpdateTrade,
		Trade: matching.Trade{
			Bid: matching.TradeInfo{OrderID: 1, Price: 100, Quantity: 5},
			Ask: matching.TradeInfo{OrderID: 2, Price: 100, Quantity: 5},
		},
	}

	data, err := Encode(u)
	require.NoError(t, err)
	assert.Equal(t, byte(TagTrade), data[0])

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, u, decoded)
}

func TestEncodeDecodeCancelRoundTrip(t *testing.T) {
	u := matching.MarketDataUpdate{
		Kind: matching.UpdateCancel,
		Cancel: matching.CancelledOrder{
			Kind: order.Internal,
			Order: order.Order{
				ID:               7,
				Type:             order.Normal,
				Side:             order.Sell,
				Price:            42,
				Initial:          10,
				Remaining:        3,
				VirtualRemaining: 3,
				Minimum:          1,
			},
		},
	}

	data, err := Encode(u)
	require.NoError(t, err)
	assert.Equal(t, byte(TagCancel), data[0])

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, u, decoded)
}

func TestDecodeRejectsEmptyEnvelope(t *testing.T) {
	_, err := Decode(nil)
	assert.Error(t, err)
}

func TestDecodeRejectsUnknownTag(t *testing.T) {
	_, err := Decode([]byte{99})
	assert.Error(t, err)
}
