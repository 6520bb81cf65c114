// Package main runs the ClickNote companion server: the offline-first sync
// core exposed to the local UI over REST and WebSocket on localhost.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clicknote/clicknote-core/cmd/clicknote/handlers"
	"github.com/clicknote/clicknote-core/internal/config"
	"github.com/clicknote/clicknote-core/internal/lifecycle"
	"github.com/clicknote/clicknote-core/internal/logging"
	"github.com/clicknote/clicknote-core/internal/netstatus"
	"github.com/clicknote/clicknote-core/internal/remote"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error("failed to load configuration", err)
		os.Exit(1)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logging.Init(os.Stdout, level)

	var oracle netstatus.Oracle = netstatus.InterfaceOracle{}
	if cfg.ForceOffline {
		logging.Info("forced offline mode enabled", nil)
		oracle = &netstatus.StaticOracle{Online: false}
	}

	client := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteAPIKey)

	manager := lifecycle.NewManager(lifecycle.Options{
		DataDir:      cfg.DataDir,
		Remote:       client,
		Session:      &remote.StaticSession{ActorID: cfg.ActorID},
		Oracle:       oracle,
		Beacon:       client,
		SyncInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})

	if err := manager.Initialize(); err != nil {
		logging.Error("failed to initialize sync core", err)
		os.Exit(1)
	}

	hub := NewWSHub()
	unsubscribe := manager.Broadcaster().Subscribe(hub.BroadcastStatus)
	defer unsubscribe()

	recordsHandler := handlers.NewRecordsHandler(manager.Records())
	syncHandler := handlers.NewSyncHandler(manager, manager.Broadcaster(), hub)
	rosterHandler := handlers.NewRosterHandler(manager.Roster())

	mux := http.NewServeMux()
	mux.HandleFunc("/api/records", recordsHandler.Collection)
	mux.HandleFunc("/api/records/", recordsHandler.Item)
	mux.HandleFunc("/api/sync", syncHandler.TriggerSync)
	mux.HandleFunc("/api/status", syncHandler.Status)
	mux.HandleFunc("/api/students", rosterHandler.Students)
	mux.HandleFunc("/api/cards", rosterHandler.Cards)
	mux.HandleFunc("/api/notes", rosterHandler.Notes)
	mux.HandleFunc("/ws", HandleWebSocket(hub))
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"clicknote-core"}`))
	})

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Info("companion server listening", map[string]interface{}{"addr": cfg.ListenAddr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info("shutting down", nil)

	// Best-effort push of whatever is still queued; the persisted queue is
	// the durability guarantee, not this flush.
	manager.FlushOnShutdown(context.Background())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Warn("server shutdown incomplete", map[string]interface{}{"error": err.Error()})
	}

	manager.Cleanup()
}
