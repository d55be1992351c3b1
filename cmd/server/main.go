package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/chatflow/internal/chat"
	"github.com/Tyrowin/chatflow/internal/server"
	"github.com/Tyrowin/chatflow/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := server.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	room := chat.NewRoom(chat.HistoryPolicy{
		ShowToNewUsers: cfg.History.ShowToNewUsers,
		MaxForNewUsers: cfg.History.MaxForNewUsers,
	})

	hub := server.NewHub(room, cfg, log)
	go hub.Run()

	mux := server.SetupRoutes(hub)
	httpServer := server.CreateServer(cfg.Port, mux)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer, log)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, log); err != nil {
		log.Warn().Err(err).Msg("HTTP shutdown did not complete cleanly")
	}
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Warn().Err(err).Msg("hub shutdown did not complete cleanly")
	}

	log.Info().Msg("server stopped")
}
