// Package main implements the sales assistant API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WessleyAI/wessley-sales/engine/assistant"
	"github.com/WessleyAI/wessley-sales/internal/app"
	"github.com/WessleyAI/wessley-sales/pkg/config"
	"github.com/WessleyAI/wessley-sales/pkg/natsutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// InboundSubject receives chat requests over NATS request/reply.
const InboundSubject = "sales.inbound"

const healthService = "wessley-sales"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	// --- NATS request/reply ---
	if a.NATS != nil {
		sub, err := natsutil.Respond(a.NATS, InboundSubject, "sales-api", logger, inboundHandler(a.Orchestrator, logger))
		if err != nil {
			return fmt.Errorf("nats respond %s: %w", InboundSubject, err)
		}
		defer sub.Unsubscribe()
		logger.Info("nats responder listening", "subject", InboundSubject)
	}

	// --- gRPC health ---
	hs := health.NewServer()
	var gs *grpc.Server
	errCh := make(chan error, 2)
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		gs = grpc.NewServer()
		healthpb.RegisterHealthServer(gs, hs)
		hs.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)
		go func() {
			logger.Info("grpc health server starting", "port", cfg.GRPCPort)
			errCh <- gs.Serve(lis)
		}()
	}

	// --- HTTP ---
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(a, cfg.CORSOrigin, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	// --- Graceful shutdown ---
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	hs.Shutdown()
	if gs != nil {
		gs.GracefulStop()
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// InboundReply is the NATS reply to a chat request.
type InboundReply struct {
	assistant.Response
	Error string `json:"error,omitempty"`
}

func inboundHandler(turns TurnHandler, logger *slog.Logger) func(context.Context, assistant.Request) InboundReply {
	return func(ctx context.Context, req assistant.Request) InboundReply {
		resp, err := turns.HandleTurn(ctx, req)
		if err != nil {
			logger.Warn("inbound turn rejected", "user_id", req.UserID, "err", err)
			return InboundReply{Response: assistant.Response{Success: false}, Error: publicError(err)}
		}
		return InboundReply{Response: resp}
	}
}
