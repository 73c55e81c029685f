// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/watch4deal/admin-backend/internal/config"
	"github.com/watch4deal/admin-backend/internal/database"
	"github.com/watch4deal/admin-backend/internal/panel"
	"github.com/watch4deal/admin-backend/internal/router"
	"github.com/watch4deal/admin-backend/internal/storage"
	"github.com/watch4deal/admin-backend/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize the record store
	remoteStore, cleanup, err := buildStore(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize store: ", err)
	}
	defer cleanup()

	// Initialize the blob store
	blobs, err := storage.NewBlobStore(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize blob storage: ", err)
	}

	panels := panel.NewManager(remoteStore, blobs, logrus.WithField("component", "panel"))

	// Initialize router
	r, catalog := router.Initialize(remoteStore, panels, cfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	panels.CloseAll()
	catalog.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatal("Server forced to shutdown: ", err)
	}

	logrus.Info("Server exited")
}

func buildStore(cfg *config.Config) (store.RemoteStore, func(), error) {
	if cfg.Store.Backend == "postgres" {
		db, err := database.Initialize(cfg.Database)
		if err != nil {
			return nil, nil, err
		}

		st, err := store.NewPostgresStore(db)
		if err != nil {
			database.Close(db)
			return nil, nil, err
		}
		return st, func() { database.Close(db) }, nil
	}

	logrus.Warn("Using in-memory store; records will not survive a restart")
	return store.NewMemoryStore(), func() {}, nil
}
