// Package httpapi implements the HTTP submission surface: translation of
// the REST endpoints into engine-input / expiration-input queue sends.
// Routing uses gorilla/mux in place of the teacher lineage's bare
// net/http, since the cancel endpoints carry a path variable ({id})
// that mux extracts cleanly.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/rishav/order-matching-engine/internal/expiry"
	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/order"
	"github.com/rishav/order-matching-engine/internal/queue"
	"github.com/rishav/order-matching-engine/internal/validate"
)

// bookRequestTimeout bounds how long /book waits for the engine goroutine
// to answer a snapshot request before giving up.
const bookRequestTimeout = 2 * time.Second

// requestIDHeader carries the correlation id assigned to each inbound
// request, echoed back so a caller can tie a response to its log lines.
const requestIDHeader = "X-Request-Id"

// withRequestID assigns every inbound request a UUID, logs it alongside
// method and path, and echoes it back on the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set(requestIDHeader, id)
		log.Debug().Str("request_id", id).Str("method", r.Method).Str("path", r.URL.Path).Msg("httpapi: request received")
		next.ServeHTTP(w, r)
	})
}

// RequestMetrics is the narrow surface the HTTP layer needs from the
// metrics sink, kept separate from matching.MetricsSink so this package
// doesn't need to know about order-level observations.
type RequestMetrics interface {
	RecordRequestReceived()
}

// Server wires the REST endpoints to the engine and expiration input
// queues, plus the read-only book snapshot and Prometheus exposition.
type Server struct {
	router       *mux.Router
	engineIn     *queue.Unbounded[matching.Request]
	expirationIn *queue.Unbounded[expiry.Request]
	metrics      RequestMetrics
}

// NewServer builds the router. metrics may be nil, in which case request
// counting is skipped. reg is the registry the matching engine's metrics
// were registered against; /metrics serves exactly that registry so the
// exposition and the observations agree on one Gatherer.
func NewServer(engineIn *queue.Unbounded[matching.Request], expirationIn *queue.Unbounded[expiry.Request], reg prometheus.Gatherer, metrics RequestMetrics) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		engineIn:     engineIn,
		expirationIn: expirationIn,
		metrics:      metrics,
	}
	s.router.HandleFunc("/create_order", s.handleCreateOrder).Methods(http.MethodPost)
	s.router.HandleFunc("/modify_order", s.handleModifyOrder).Methods(http.MethodPost)
	s.router.HandleFunc("/cancel_order/{id}", s.handleCancelOrder).Methods(http.MethodPost)
	s.router.HandleFunc("/cancel_order_expiration/{id}", s.handleCancelExpiration).Methods(http.MethodPost)
	s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/book", s.handleBook).Methods(http.MethodGet)
	s.router.Use(withRequestID)
	return s
}

// ServeHTTP implements http.Handler by delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// orderPayload is the JSON shape shared by create_order and modify_order.
type orderPayload struct {
	ID              uint64 `json:"id"`
	OrderType       string `json:"order_type"`
	OrderSide       string `json:"order_side"`
	Price           int64  `json:"price"`
	Quantity        uint64 `json:"quantity"`
	MinimumQuantity uint64 `json:"minimum_quantity"`
	ExpirationDate  *int64 `json:"expiration_date,omitempty"`
}

func (p orderPayload) toOrder() (*order.Order, error) {
	typ, err := parseType(p.OrderType)
	if err != nil {
		return nil, err
	}
	side, err := parseSide(p.OrderSide)
	if err != nil {
		return nil, err
	}
	return order.New(p.ID, typ, side, p.Price, p.Quantity, p.MinimumQuantity), nil
}

func parseType(s string) (order.Type, error) {
	switch s {
	case "NORMAL":
		return order.Normal, nil
	case "KILL":
		return order.Kill, nil
	default:
		return 0, fmt.Errorf("unknown order_type %q", s)
	}
}

func parseSide(s string) (order.Side, error) {
	switch s {
	case "BUY":
		return order.Buy, nil
	case "SELL":
		return order.Sell, nil
	default:
		return 0, fmt.Errorf("unknown order_side %q", s)
	}
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var expireAt int64
	if payload.ExpirationDate != nil {
		expireAt = *payload.ExpirationDate
	}
	result := validate.Check(validate.Request{
		Quantity:        payload.Quantity,
		MinimumQuantity: payload.MinimumQuantity,
		ExpirationUnix:  expireAt,
		NowUnix:         time.Now().Unix(),
	})
	if !result.Passed {
		http.Error(w, result.Reason, http.StatusBadRequest)
		return
	}

	o, err := payload.toOrder()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.engineIn.Push(matching.NewTradeRequest(o))
	if payload.ExpirationDate != nil {
		s.expirationIn.Push(expiry.Request{Insert: &expiry.InsertExpiration{
			OrderID:  o.ID,
			ExpireAt: *payload.ExpirationDate,
		}})
	}
	s.countRequest()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleModifyOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result := validate.Check(validate.Request{
		Quantity:        payload.Quantity,
		MinimumQuantity: payload.MinimumQuantity,
		NowUnix:         time.Now().Unix(),
	})
	if !result.Passed {
		http.Error(w, result.Reason, http.StatusBadRequest)
		return
	}

	o, err := payload.toOrder()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.engineIn.Push(matching.NewModifyRequest(o))
	s.countRequest()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.engineIn.Push(matching.NewCancelRequest(order.External, id))
	s.countRequest()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleCancelExpiration(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.expirationIn.Push(expiry.Request{Remove: &expiry.RemoveExpiration{OrderID: id}})
	s.countRequest()
	w.WriteHeader(http.StatusOK)
}

// bookSnapshot is the read-only JSON shape returned by /book.
type bookSnapshot struct {
	BestBid *int64                `json:"best_bid,omitempty"`
	BestAsk *int64                `json:"best_ask,omitempty"`
	Bids    []matching.DepthLevel `json:"bids"`
	Asks    []matching.DepthLevel `json:"asks"`
}

// handleBook reads the book by enqueuing a snapshot request onto
// engine_in and waiting for the engine goroutine to answer on the reply
// channel. The registry and price-level indices are the engine's alone
// to touch; this handler never reaches into them directly.
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	maxLevels := 10
	if q := r.URL.Query().Get("depth"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			maxLevels = n
		}
	}

	req, reply := matching.NewSnapshotRequest(maxLevels)
	s.engineIn.Push(req)

	var snap matching.Snapshot
	select {
	case snap = <-reply:
	case <-time.After(bookRequestTimeout):
		http.Error(w, "timed out waiting for book snapshot", http.StatusGatewayTimeout)
		return
	}

	snapshot := bookSnapshot{
		BestBid: snap.BestBid,
		BestAsk: snap.BestAsk,
		Bids:    snap.Bids,
		Asks:    snap.Asks,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		log.Warn().Err(err).Msg("httpapi: failed to encode book snapshot")
	}
}

func (s *Server) countRequest() {
	if s.metrics != nil {
		s.metrics.RecordRequestReceived()
	}
}

func parseID(r *http.Request) (uint64, error) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid order id %q", idStr)
	}
	return id, nil
}
