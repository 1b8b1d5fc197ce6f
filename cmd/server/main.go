package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/rpattn/finclose/internal/config"
	"github.com/rpattn/finclose/internal/db"
	"github.com/rpattn/finclose/internal/ingestion"
	"github.com/rpattn/finclose/internal/middleware"
	"github.com/rpattn/finclose/internal/pipeline"
	"github.com/rpattn/finclose/internal/repository"
	"github.com/rpattn/finclose/internal/schema"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The audit database is optional; without it runs only persist to files.
	var repo repository.CloseRunRepository
	if cfg.Database.Enabled {
		conn, connErr := db.NewConnection(ctx, cfg.Database)
		if connErr != nil {
			log.Fatalf("Failed to connect to database: %v", connErr)
		}
		defer conn.Close()

		if migErr := db.RunMigrations(cfg.Data.MigrationsDir, cfg.Database); migErr != nil {
			log.Fatalf("Failed to run migrations: %v", migErr)
		}
		repo = repository.NewCloseRunRepository(conn.Pool)
	}

	loader := ingestion.NewLoader(cfg.Data.RawDir, cfg.Data.ReferenceDir)
	schemas := schema.ForKinds(cfg.Close.AllowedCurrencies, cfg.Close.BaseCurrency)

	opts := []pipeline.Option{}
	if repo != nil {
		opts = append(opts, pipeline.WithRepository(repo))
	}
	orchestrator := pipeline.NewOrchestrator(loader, schemas, cfg.Data.CuratedDir, cfg.Close.BaseCurrency, opts...)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	closeHandler := middleware.LoggingMiddleware(pipeline.NewHTTPHandler(orchestrator, repo))

	mux := http.NewServeMux()
	mux.Handle("/close/run", corsHandler.Handler(closeHandler))
	mux.Handle("/close/runs", corsHandler.Handler(closeHandler))
	mux.Handle("/close/runs/", corsHandler.Handler(closeHandler))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting close server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
