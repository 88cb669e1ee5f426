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

	"prodstat/api"
	"prodstat/config"
	"prodstat/database"
	"prodstat/etl"
	"prodstat/jobs"
	"prodstat/mart"
	"prodstat/reports"
)

func main() {
	fmt.Println("=== prodstat - Production Capacity & OEE Analytics ===")

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Configuration loaded")

	db, err := database.Initialize(cfg.LakePath, cfg.AppDBPath)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	log.Println("✓ Database schema created")

	workerPool := jobs.NewWorkerPool(cfg.WorkerPoolSize)
	defer workerPool.Stop()

	capacityService := reports.NewCapacityService(repo, repo)
	recomputeService := reports.NewRecomputeService(repo, repo, repo, repo, workerPool)
	paretoService := reports.NewParetoService(repo, repo)
	chartService := reports.NewChartService(repo, repo, repo)
	martBuilder := mart.NewBuilder(db)

	ingestor := etl.NewIngestor(cfg, repo)
	scheduler := etl.NewScheduler(cfg, ingestor, recomputeService, martBuilder, repo)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(db, repo, cfg, capacityService, recomputeService,
		paretoService, chartService, martBuilder)

	router := api.SetupRouter(handler)
	router.Use(api.CORSMiddleware())
	router.Use(api.LoggingMiddleware())

	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		fmt.Printf("✓ API server listening on %s\n", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		fmt.Printf("Server forced to shutdown: %v\n", err)
	}
	fmt.Println("Server exited")
}
