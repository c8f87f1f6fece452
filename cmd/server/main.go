package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatherhub/gatherly/internal/config"
	"github.com/gatherhub/gatherly/internal/server"
	"github.com/gatherhub/gatherly/internal/storage"
	"github.com/gatherhub/gatherly/internal/storage/memory"
	"github.com/gatherhub/gatherly/internal/storage/postgres"
	"github.com/joho/godotenv"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	var store storage.Store
	if cfg.DatabaseURL != "" {
		store, err = postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("init database: %v", err)
		}
	} else {
		log.Println("DATABASE_URL not set; using in-memory store (data is lost on exit)")
		store = memory.New()
	}
	defer store.Close()

	srv := server.New(cfg, store)

	go func() {
		log.Printf("gatherly API listening on %s", cfg.HTTPAddress())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
