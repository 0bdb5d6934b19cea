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
	"wallet/internal/bridge"
	"wallet/internal/config"
	"wallet/internal/db"
	"wallet/internal/migrations"
	"wallet/internal/telegram"
	"wallet/internal/userdir"
	"wallet/internal/wallet"
	walletmigrations "wallet/internal/wallet/migrations"
)

func main() {
	config.LoadEnv()

	dbURL := config.DatabaseURL("wallet")
	if err := migrations.Up(walletmigrations.Files, dbURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	conn, err := db.Connect(dbURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	directory := userdir.NewDirectory(conn)
	repo := wallet.NewPGRepo(conn)
	schedulerClient := bridge.NewClient(config.SchedulerBaseURL())
	service := wallet.NewService(repo, directory, schedulerClient)

	sweeper := wallet.NewSweeper(service)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatalf("Failed to start pending sweep: %v", err)
	}

	if token := config.TelegramBotToken(); token != "" {
		bot, err := telegram.NewBot(token, directory)
		if err != nil {
			log.Fatalf("Failed to create telegram bot: %v", err)
		}
		go bot.Run(ctx)
	} else {
		slog.Warn("TELEGRAM_BOT_TOKEN not set, bind flow disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.HTTPErrorHandler = apperr.HTTPErrorHandler

	handler := wallet.NewHandler(service, directory)
	wallet.SetupRoutes(e.Group("/api/v1"), handler)

	go func() {
		addr := config.HTTPAddr(":8080")
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
