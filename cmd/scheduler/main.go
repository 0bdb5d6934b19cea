package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"wallet/internal/apperr"
	"wallet/internal/config"
	"wallet/internal/db"
	"wallet/internal/migrations"
	"wallet/internal/sched"
	schedmigrations "wallet/internal/sched/migrations"
	"wallet/internal/telegram"
)

func main() {
	config.LoadEnv()

	dbURL := config.DatabaseURL("scheduler")
	if err := migrations.Up(schedmigrations.Files, dbURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	conn, err := db.Connect(dbURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer conn.Close()

	token := config.TelegramBotToken()
	if token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is required")
	}
	sink, err := telegram.NewSink(token)
	if err != nil {
		log.Fatalf("Failed to create telegram sink: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := sched.NewPGStore(conn)
	queue := sched.NewQueue(config.RedisAddr())
	defer queue.Close()

	service := sched.NewService(store, queue)

	dispatcher := sched.NewDispatcher(store, sink)
	worker := sched.NewWorker(config.RedisAddr(), dispatcher)
	go func() {
		if err := worker.Start(ctx); err != nil {
			log.Fatalf("Failed to start worker: %v", err)
		}
	}()

	reconciler := sched.NewReconciler(store, queue, queue)
	if err := reconciler.Start(ctx); err != nil {
		log.Fatalf("Failed to start reconciler: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.HTTPErrorHandler = apperr.HTTPErrorHandler

	handler := sched.NewHandler(service)
	sched.SetupRoutes(e.Group("/api/v1"), handler)

	go func() {
		addr := config.HTTPAddr(":8081")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exiting")
}
