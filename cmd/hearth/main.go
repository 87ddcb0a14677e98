package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukerupert/hearth/internal/logging"
	"github.com/dukerupert/hearth/internal/session"
)

func main() {
	logger := logging.Setup(os.Getenv("HEARTH_LOG_LEVEL"), os.Getenv("HEARTH_LOG_FORMAT"))

	dbPath := os.Getenv("HEARTH_DB_PATH")
	if dbPath == "" {
		dbPath = "hearth.db"
	}

	cfg := session.Config{
		Room:        os.Getenv("HEARTH_ROOM"),
		CurrentUser: os.Getenv("HEARTH_USER"),
		UserName:    os.Getenv("HEARTH_USER_NAME"),
		UserRole:    os.Getenv("HEARTH_USER_ROLE"),
		DeviceID:    os.Getenv("HEARTH_DEVICE_ID"),
		DBPath:      dbPath,
		RelayURL:    os.Getenv("HEARTH_RELAY_URL"),
		Secret:      os.Getenv("HEARTH_ROOM_SECRET"),
		Logger:      logger,
	}

	sess, err := session.Open(cfg)
	if err != nil {
		logger.Error("failed to open session", "room", cfg.Room, "error", err)
		os.Exit(1)
	}

	<-sess.Synced()
	if cfg.RelayURL == "" {
		fmt.Printf("Hearth running offline in room %q\n", cfg.Room)
	} else {
		fmt.Printf("Hearth running in room %q, syncing via %s\n", cfg.Room, cfg.RelayURL)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	sess.Close()
}
