package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintech_index/internal/api"
	"fintech_index/internal/app/service"
	"fintech_index/internal/app/worker"
	"fintech_index/internal/common/security"
	"fintech_index/internal/domain/repository"
	"fintech_index/internal/platform/config"
	"fintech_index/internal/platform/database"
	"fintech_index/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	database.EnsureSchema()
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	dataRepo := repository.NewPgCountryDataRepository(database.DB)
	startupRepo := repository.NewPgStartupRepository(database.DB)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo)
	mailService := service.NewMailService(queue.RDB)
	userService := service.NewUserService(userRepo, mailService)
	snapshotStore := service.NewRedisSnapshotStore(queue.RDB)
	snapshotService := service.NewSnapshotService(snapshotStore, config.AppConfig.SnapshotTTLDays)
	dataService := service.NewCountryDataService(dataRepo, queue.RDB, snapshotService)
	startupService := service.NewStartupService(startupRepo)
	geoService := service.NewGeoService(dataRepo, config.AppConfig.GeoJSONPath)

	// 7. Initialize Mail Worker (as a goroutine)
	mailWorker := worker.NewMailWorker(queue.RDB)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go mailWorker.Start(workerCtx)
	fmt.Println("Mail worker started.")

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, userService, dataService, startupService, geoService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
