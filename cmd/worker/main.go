package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"clinic-assistant-be/internal/bootstrap"
	"clinic-assistant-be/internal/config"
	"clinic-assistant-be/pkg/database"
)

// Standalone generation worker. Only useful with a shared NATS queue and a
// shared Redis result store; with the in-memory queue it would never see jobs.
func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Pool.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("✅ Generation worker is running")
	if err := container.WorkerService.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Worker stopped with error: %v", err)
	}
	log.Println("Generation worker shut down")
}
