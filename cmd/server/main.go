// Command server runs the order matching engine.
//
// Architecture Overview:
//
//	┌─────────────┐     ┌──────────────┐     ┌──────────────┐
//	│   Client    │────▶│   HTTP API   │────▶│  engine_in   │
//	│   (HTTP)    │     │ (gorilla/mux)│     │   (queue)    │
//	└─────────────┘     └──────┬───────┘     └──────┬───────┘
//	                           │                     ▼
//	                           ▼              ┌──────────────┐
//	                    ┌──────────────┐      │   Matching   │
//	                    │ expiration_in│      │    Engine    │
//	                    │   (queue)    │      └──────┬───────┘
//	                    └──────┬───────┘             ▼
//	                           ▼              ┌──────────────┐
//	                    ┌──────────────┐      │  market_out  │
//	                    │  Expiration  │      │   (queue)    │
//	                    │   Service    │      └──────┬───────┘
//	                    └──────────────┘             ▼
//	                                          ┌──────────────┐
//	                                          │    Outbox    │
//	                                          │ (UDP mcast)  │
//	                                          └──────────────┘
//
// The expiration service pushes its Cancel(Internal) requests back onto
// engine_in. The engine runs on its own goroutine and is the single writer to its
// indices; every other executor communicates with it only by queue send.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rishav/order-matching-engine/internal/config"
	"github.com/rishav/order-matching-engine/internal/expiry"
	"github.com/rishav/order-matching-engine/internal/httpapi"
	"github.com/rishav/order-matching-engine/internal/matching"
	"github.com/rishav/order-matching-engine/internal/metrics"
	"github.com/rishav/order-matching-engine/internal/order"
	"github.com/rishav/order-matching-engine/internal/outbox"
	"github.com/rishav/order-matching-engine/internal/queue"
)

// Server wires every long-lived executor together: the matching engine,
// the expiration service, the market-data outbox, and the HTTP surface
// that feeds the first two.
type Server struct {
	cfg config.Config

	engine       *matching.Engine
	expirySvc    *expiry.Service
	outboxWorker *outbox.Outbox

	engineIn     *queue.Unbounded[matching.Request]
	expirationIn *queue.Unbounded[expiry.Request]
	marketOut    *queue.Unbounded[matching.MarketDataUpdate]

	httpServer *http.Server
}

// NewServer constructs every component and wires the queues between them,
// but starts none of the executor goroutines yet.
func NewServer(cfg config.Config) (*Server, error) {
	reg := prometheus.NewRegistry()
	sink := metrics.NewSink(reg)

	engineIn := queue.New[matching.Request]()
	expirationIn := queue.New[expiry.Request]()
	marketOut := queue.New[matching.MarketDataUpdate]()

	engine := matching.NewEngine(sink)
	expirySvc := expiry.New(expirationIn, cfg.ExpirationPollInterval)

	ob, err := outbox.New(outbox.Config{
		Group: cfg.MulticastGroup,
		Port:  cfg.MulticastPort,
		TTL:   cfg.MulticastTTL,
	}, marketOut)
	if err != nil {
		return nil, err
	}

	httpSrv := httpapi.NewServer(engineIn, expirationIn, reg, sink)

	s := &Server{
		cfg:          cfg,
		engine:       engine,
		expirySvc:    expirySvc,
		outboxWorker: ob,
		engineIn:     engineIn,
		expirationIn: expirationIn,
		marketOut:    marketOut,
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      httpSrv,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
	return s, nil
}

// Start runs the engine, expiration service, and outbox each on their own
// goroutine, then blocks serving HTTP until the process is told to stop.
func (s *Server) Start() error {
	log.Info().Str("addr", s.cfg.HTTPAddr).Msg("starting order matching engine")

	go s.runEngine()
	go s.expirySvc.Run(func(orderID uint64) {
		s.engineIn.Push(matching.NewCancelRequest(order.Internal, orderID))
	})
	go s.outboxWorker.Run()

	return s.httpServer.ListenAndServe()
}

// runEngine is the engine's dedicated goroutine: pop a request, handle
// it, push every resulting update to market_out, in that order, before
// picking up the next request.
func (s *Server) runEngine() {
	for {
		req, ok := s.engineIn.Pop()
		if !ok {
			log.Info().Msg("engine: input queue closed, shutting down")
			s.marketOut.Close()
			return
		}
		updates := s.engine.Handle(req)
		for _, u := range updates {
			s.marketOut.Push(u)
		}
	}
}

// Shutdown drains every executor in dependency order: stop accepting
// HTTP requests, close engine_in (which drains the engine and in turn
// closes market_out), then close the outbox's socket.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.engineIn.Close()
	s.expirationIn.Close()
	return s.outboxWorker.Close()
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	matching.WithLogger(log.Logger)

	configPath := flag.String("config", "", "path to an optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	server, err := NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("received shutdown signal")
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error during shutdown")
		}
	}()

	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}
