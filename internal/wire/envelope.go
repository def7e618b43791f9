// Package wire defines the stable binary envelope the market-data outbox
// broadcasts: a single discriminant byte followed by a fixed-layout
// payload, so Trade and CancelledOrder round-trip byte-for-byte through
// Encode/Decode with no ambiguity about which one a datagram carries.
//
// Encoding uses encoding/binary directly rather than a general-purpose
// codec: the payload shapes are small, fixed, and never evolve
// independently of this package, so a hand-rolled fixed-width layout is
// both simpler and cheaper than pulling in a schema-driven serializer for
// two struct shapes (see DESIGN.md for why no third-party binary codec
// from the retrieved examples fit this better).
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/order"
)

// Tag discriminates which payload an envelope carries.
type Tag byte

const (
	TagTrade  Tag = 1
	TagCancel Tag = 2
)

var byteOrder = binary.BigEndian

// Encode serializes u into its stable binary envelope.
func Encode(u matching.MarketDataUpdate) ([]byte, error) {
	buf := new(bytes.Buffer)
	switch u.Kind {
	case matching.UpdateTrade:
		buf.WriteByte(byte(TagTrade))
		writeTradeInfo(buf, u.Trade.Bid)
		writeTradeInfo(buf, u.Trade.Ask)
	case matching.UpdateCancel:
		buf.WriteByte(byte(TagCancel))
		binary.Write(buf, byteOrder, byte(u.Cancel.Kind))
		writeOrder(buf, u.Cancel.Order)
	default:
		return nil, fmt.Errorf("wire: unknown update kind %d", u.Kind)
	}
	return buf.Bytes(), nil
}

// Decode parses a buffer previously produced by Encode.
func Decode(data []byte) (matching.MarketDataUpdate, error) {
	if len(data) < 1 {
		return matching.MarketDataUpdate{}, fmt.Errorf("wire: empty envelope")
	}
	r := bytes.NewReader(data[1:])
	switch Tag(data[0]) {
	case TagTrade:
		bid, err := readTradeInfo(r)
		if err != nil {
			return matching.MarketDataUpdate{}, err
		}
		ask, err := readTradeInfo(r)
		if err != nil {
			return matching.MarketDataUpdate{}, err
		}
		return matching.MarketDataUpdate{
			Kind:  matching.UpdateTrade,
			Trade: matching.Trade{Bid: bid, Ask: ask},
		}, nil
	case TagCancel:
		var kindByte byte
		if err := binary.Read(r, byteOrder, &kindByte); err != nil {
			return matching.MarketDataUpdate{}, err
		}
		o, err := readOrder(r)
		if err != nil {
			return matching.MarketDataUpdate{}, err
		}
		return matching.MarketDataUpdate{
			Kind: matching.UpdateCancel,
			Cancel: matching.CancelledOrder{
				Kind:  order.CancelKind(kindByte),
				Order: o,
			},
		}, nil
	default:
		return matching.MarketDataUpdate{}, fmt.Errorf("wire: unknown tag %d", data[0])
	}
}

func writeTradeInfo(buf *bytes.Buffer, ti matching.TradeInfo) {
	binary.Write(buf, byteOrder, ti.OrderID)
	binary.Write(buf, byteOrder, ti.Price)
	binary.Write(buf, byteOrder, ti.Quantity)
}

func readTradeInfo(r *bytes.Reader) (matching.TradeInfo, error) {
	var ti matching.TradeInfo
	if err := binary.Read(r, byteOrder, &ti.OrderID); err != nil {
		return ti, err
	}
	if err := binary.Read(r, byteOrder, &ti.Price); err != nil {
		return ti, err
	}
	if err := binary.Read(r, byteOrder, &ti.Quantity); err != nil {
		return ti, err
	}
	return ti, nil
}

func writeOrder(buf *bytes.Buffer, o order.Order) {
	binary.Write(buf, byteOrder, o.ID)
	binary.Write(buf, byteOrder, byte(o.Type))
	binary.Write(buf, byteOrder, byte(o.Side))
	binary.Write(buf, byteOrder, o.Price)
	binary.Write(buf, byteOrder, o.Initial)
	binary.Write(buf, byteOrder, o.Remaining)
	binary.Write(buf, byteOrder, o.Minimum)
}

func readOrder(r *bytes.Reader) (order.Order, error) {
	var o order.Order
	var typ, side byte
	if err := binary.Read(r, byteOrder, &o.ID); err != nil {
		return o, err
	}
	if err := binary.Read(r, byteOrder, &typ); err != nil {
		return o, err
	}
	if err := binary.Read(r, byteOrder, &side); err != nil {
		return o, err
	}
	o.Type = order.Type(typ)
	o.Side = order.Side(side)
	if err := binary.Read(r, byteOrder, &o.Price); err != nil {
		return o, err
	}
	if err := binary.Read(r, byteOrder, &o.Initial); err != nil {
		return o, err
	}
	if err := binary.Read(r, byteOrder, &o.Remaining); err != nil {
		return o, err
	}
	o.VirtualRemaining = o.Remaining
	if err := binary.Read(r, byteOrder, &o.Minimum); err != nil {
		return o, err
	}
	return o, nil
}
