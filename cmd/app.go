package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/voxroom/voxroom/internal/application/config"
	"github.com/voxroom/voxroom/internal/application/constant"
	"github.com/voxroom/voxroom/internal/application/metric"
	"github.com/voxroom/voxroom/internal/guard"
	"github.com/voxroom/voxroom/internal/infra/adapters/memory"
	"github.com/voxroom/voxroom/internal/infra/ports/http/handlers"
	"github.com/voxroom/voxroom/internal/infra/ports/http/server"
	"github.com/voxroom/voxroom/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: slog.LevelInfo},
			),
		),
	)

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	slog.Info("Running app", slog.Bool("debug", cfg.Debug))

	abuseGuard := guard.New(cfg.Guard, cfg.AllowedOrigins, nil)
	roomRepo := memory.NewRoomRepository(cfg.Rooms, nil)
	connRepo := memory.NewConnectionRepository()

	signalingUsecase := usecase.NewSignalingUsecase(cfg.Rooms, roomRepo, connRepo, nil)
	roomUsecase := usecase.NewRoomUsecase(abuseGuard, roomRepo, signalingUsecase)

	roomHandler := handlers.NewRoomHandler(roomUsecase)
	iceHandler := handlers.NewIceHandler(cfg)
	wsHandler := handlers.NewWebSocketHandler(cfg, signalingUsecase)

	echoSrv := server.New(cfg, roomHandler, iceHandler, wsHandler)

	metricsSrv := metric.NewServer()

	go runSweeps(ctx, cfg, abuseGuard, signalingUsecase)

	echoSrvCh := make(chan error, 1)
	metricsSrvCh := make(chan error, 1)

	go func() {
		echoSrvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	go func() {
		metricsSrvCh <- metricsSrv.Start(":" + cfg.MetricPort)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down servers due to context cancel")
	case err := <-echoSrvCh:
		slog.Error(
			"HTTP server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	case err := <-metricsSrvCh:
		slog.Error(
			"Metrics server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown HTTP server", slog.Any(constant.Error, err))
	}

	if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metric server", slog.Any(constant.Error, err))
	}
}

// runSweeps ages out idle guard records and empty rooms on independent
// timers until the context is cancelled.
func runSweeps(ctx context.Context, cfg *config.Config, abuseGuard *guard.Guard, signalingUsecase usecase.SignalingUsecase) {
	guardTicker := time.NewTicker(time.Minute)
	roomTicker := time.NewTicker(cfg.Rooms.SweepInterval)

	defer guardTicker.Stop()
	defer roomTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-guardTicker.C:
			abuseGuard.SweepExpired(now)
		case now := <-roomTicker.C:
			signalingUsecase.SweepRooms(now)
		}
	}
}
