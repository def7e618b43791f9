// Package outbox implements the Market-Data Outbox: the single consumer
// of the engine's output queue and single producer onto the unreliable
// broadcast transport. Loss is tolerated by the transport; the outbox
// itself never introduces duplication.
//
// Distribution pattern: UDP multicast, the same choice the teacher
// lineage's marketdata publisher names in its doc comments as the fit
// for "many subscribers" — except here the subscriber is off-repo, so
// the outbox only ever sends, never fans out in-process channels.
package outbox

import (
	"net"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/ipv4"

	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/queue"
	"github.com/rishav/order-matching-engine/internal/wire"
)

// Config describes the fixed multicast broadcast endpoint.
type Config struct {
	Group string // multicast group address, e.g. "239.255.10.10"
	Port  int    // e.g. 8888
	TTL   int    // e.g. 5
	Iface string // network interface name; empty uses the default
}

// DefaultConfig matches the broadcast transport described for this system.
func DefaultConfig() Config {
	return Config{Group: "239.255.10.10", Port: 8888, TTL: 5}
}

// Outbox drains a queue of MarketDataUpdate and sends each, once, as a
// stable binary envelope to the configured multicast endpoint.
type Outbox struct {
	in   *queue.Unbounded[matching.MarketDataUpdate]
	conn *ipv4.PacketConn
	dst  *net.UDPAddr
}

// New dials the multicast group described by cfg and returns an Outbox
// that will drain in once Run is called.
func New(cfg Config, in *queue.Unbounded[matching.MarketDataUpdate]) (*Outbox, error) {
	dst := &net.UDPAddr{IP: net.ParseIP(cfg.Group), Port: cfg.Port}

	udpConn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return nil, err
	}
	pconn := ipv4.NewPacketConn(udpConn)

	if cfg.Iface != "" {
		ifi, err := net.InterfaceByName(cfg.Iface)
		if err != nil {
			udpConn.Close()
			return nil, err
		}
		if err := pconn.SetMulticastInterface(ifi); err != nil {
			udpConn.Close()
			return nil, err
		}
	}
	if err := pconn.SetMulticastTTL(cfg.TTL); err != nil {
		udpConn.Close()
		return nil, err
	}

	return &Outbox{in: in, conn: pconn, dst: dst}, nil
}

// Run blocks, draining in and sending each update until the queue closes.
// A send failure is logged at warn and the next update proceeds; the
// outbox never retries a dropped datagram.
func (o *Outbox) Run() {
	for {
		update, ok := o.in.Pop()
		if !ok {
			log.Info().Msg("outbox: input queue closed, shutting down")
			return
		}
		o.send(update)
	}
}

func (o *Outbox) send(update matching.MarketDataUpdate) {
	payload, err := wire.Encode(update)
	if err != nil {
		log.Warn().Err(err).Msg("outbox: failed to encode market data update")
		return
	}
	if _, err := o.conn.WriteTo(payload, nil, o.dst); err != nil {
		log.Warn().Err(err).Msg("outbox: failed to send market data update")
	}
}

// Close releases the underlying socket.
func (o *Outbox) Close() error {
	return o.conn.Close()
}
