package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"godea/internal/config"
	"godea/internal/container"
	"godea/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded (%v); using process environment", err)
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	server := ui.NewServer(c.Analysis, ui.ServerConfig{
		GinMode:        appConfig.Server.GinMode,
		MaxUploadBytes: appConfig.MaxUploadBytes(),
		Logger:         c.Logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c.Logger.Info("DEA server starting on port %s (%d workers, threshold %g)",
		appConfig.Server.Port, appConfig.Solver.Workers, appConfig.Solver.EfficiencyThreshold)
	if err := server.Start(ctx, ":"+appConfig.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
