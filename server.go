package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mmdatafocus/books_offline/api"
	"github.com/mmdatafocus/books_offline/config"
	"github.com/mmdatafocus/books_offline/models"
	"github.com/mmdatafocus/books_offline/remote"
	"github.com/mmdatafocus/books_offline/sync"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func main() {
	_ = godotenv.Load()
	logger := config.GetLogger()

	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	dbPath := os.Getenv("LOCAL_DB_PATH")
	if dbPath == "" {
		dbPath = "books_offline.db"
	}
	if err := config.OpenDatabase(dbPath); err != nil {
		logger.WithFields(logrus.Fields{"field": "database"}).Panic(err.Error())
	}
	if err := models.AutoMigrate(); err != nil {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Panic(err.Error())
	}

	client, err := remote.NewClient("")
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "remote"}).Panic(err.Error())
	}
	probe := config.NewConnectivityProbe(client.HealthURL())

	orch := sync.NewOrchestrator(client, probe)
	orch.Start()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := api.NewRouter(orch)
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	logger.WithFields(logrus.Fields{
		"port": port,
		"db":   dbPath,
	}).Info("offline core started")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// stop the sync loop before draining so no cycle starts mid-shutdown
	orch.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
