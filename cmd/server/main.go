package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/classmeet/signaling/internal/adapter/driven/gateway/ws"
	"github.com/classmeet/signaling/internal/adapter/driven/persistence/memory"
	handler "github.com/classmeet/signaling/internal/adapter/driving/http"
	"github.com/classmeet/signaling/internal/core/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	w := zerolog.ConsoleWriter{Out: os.Stdout}
	l := zerolog.New(w).With().Timestamp().Caller().Logger()
	zlog.Logger = l

	if err := godotenv.Load(); err != nil {
		l.Warn().Msg("No .env file found, using environment variables")
	}
	zerolog.SetGlobalLevel(logLevel())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	rooms := memory.NewRoomStore()
	hub := ws.NewHub()
	meeting := service.NewMeetingService(rooms, hub)
	h := handler.NewHandler(meeting, hub)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().Str("port", port).Msg("Starting signaling server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	hub.Stop()
	l.Info().Msg("Server exited")
}

func logLevel() zerolog.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
