package main

import (
	"context"
	"log"

	"clinic-assistant-be/internal/bootstrap"
	"clinic-assistant-be/internal/config"
	"clinic-assistant-be/internal/server"
	"clinic-assistant-be/internal/tracer"
	"clinic-assistant-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Pool.Shutdown()

	// 4. Start Background Services
	// The generation worker runs in-process when the queue is in-memory;
	// with NATS it can also be deployed separately via cmd/worker.
	go func() {
		log.Println("Background: Starting Generation Worker...")
		if err := container.WorkerService.Run(context.Background()); err != nil {
			log.Printf("Background Worker Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
