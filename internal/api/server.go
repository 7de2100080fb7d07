// Package api provides the status server for a running engine: HTTP JSON
// endpoints for account state and run metrics, plus a gRPC health service
// for infrastructure probes.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"quantra/internal/config"
	"quantra/internal/engine"
	"quantra/internal/journal"
)

// Server hosts the HTTP status endpoints and the gRPC health service.
type Server struct {
	engine  *engine.Engine
	basic   *journal.BasicJournal
	prices  *journal.PriceItemJournal
	httpSrv *http.Server
	grpcSrv *grpc.Server
	health  *health.Server

	httpAddr string
	grpcAddr string
	log      *slog.Logger
}

// NewServer creates a status server for the given engine. The journals may be
// nil; their endpoints then report empty data.
func NewServer(cfg *config.Config, e *engine.Engine, basic *journal.BasicJournal, prices *journal.PriceItemJournal) *Server {
	s := &Server{
		engine:   e,
		basic:    basic,
		prices:   prices,
		httpAddr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		grpcAddr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort),
		log:      slog.Default().With("component", "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /account", s.handleAccount)
	mux.HandleFunc("GET /orders", s.handleOrders)
	mux.HandleFunc("GET /positions", s.handlePositions)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	s.httpSrv = &http.Server{
		Addr:         s.httpAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.grpcSrv = grpc.NewServer()
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpcSrv, s.health)

	return s
}

// ListenAndServe starts the HTTP and gRPC listeners and blocks until the
// context is cancelled or a listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	grpcLis, err := net.Listen("tcp", s.grpcAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	errc := make(chan error, 2)
	go func() {
		s.log.Info("http server listening", "addr", s.httpAddr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()
	go func() {
		s.log.Info("grpc server listening", "addr", s.grpcAddr)
		if err := s.grpcSrv.Serve(grpcLis); err != nil {
			errc <- err
		}
	}()
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errc:
		s.Shutdown()
		return err
	}
}

// Shutdown stops both servers, waiting briefly for in-flight requests.
func (s *Server) Shutdown() error {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpSrv.Shutdown(ctx)
	s.grpcSrv.GracefulStop()
	s.log.Info("servers stopped")
	return err
}
