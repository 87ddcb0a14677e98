package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/logging"
	"github.com/dukerupert/hearth/internal/transport"
)

func main() {
	logger := logging.Setup(os.Getenv("HEARTH_LOG_LEVEL"), os.Getenv("HEARTH_LOG_FORMAT"))

	port := os.Getenv("HEARTH_RELAY_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("HEARTH_RELAY_DB_PATH")
	if dbPath == "" {
		dbPath = "hearth-relay.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// HEARTH_ROOM_SECRET seals room traffic; without it the relay serves
	// plaintext rooms and can read the frames it forwards.
	hub := transport.NewHub(db, os.Getenv("HEARTH_ROOM_SECRET"), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/sync", transport.HandleSync(hub))

	httpServer := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		fmt.Printf("Hearth relay listening on :%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	hub.Close()
}
