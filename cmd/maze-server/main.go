// Package main is the entry point for the temporal maze game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmaslov/temporal-maze/internal/config"
	"github.com/dmaslov/temporal-maze/internal/events"
	"github.com/dmaslov/temporal-maze/internal/infra/levels"
	"github.com/dmaslov/temporal-maze/internal/infra/storage"
	"github.com/dmaslov/temporal-maze/internal/network"
	"github.com/dmaslov/temporal-maze/internal/platform/logger"
	"github.com/dmaslov/temporal-maze/internal/platform/metrics"
	"github.com/dmaslov/temporal-maze/internal/sim"
	"github.com/dmaslov/temporal-maze/internal/world"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the server config file")
	flag.Parse()

	log.Println("[MAZE-SERVER] Initializing temporal maze authoritative server...")

	appLogger := logger.NewLogger()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		appLogger.Error("Failed to load config: " + err.Error())
		os.Exit(1)
	}

	appLogger.Info("Initializing SQLite database '" + cfg.Database.Path + "'...")
	db, err := storage.InitSQLite(cfg.Database.Path)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	defer db.Close()

	eventRepo := storage.NewSQLiteEventRepository(db)
	sessionRepo := storage.NewSQLiteSessionRepository(db)

	sessionID := fmt.Sprintf("SESSION_%s", time.Now().Format("20060102150405"))
	persister := storage.NewSessionPersister(eventRepo, sessionID)

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(persister)

	appLogger.Info("Loading level '" + cfg.Level + "' from " + cfg.LevelsDir + "...")
	desc, err := levels.LoadOrFallback(cfg.LevelsDir, cfg.Level)
	if err != nil {
		appLogger.Warn("Level load failed, using fallback room: " + err.Error())
	}

	simCfg := sim.Config{
		CloneEffects:  world.EffectsSwitchesOnly,
		GuardRadius:   cfg.GuardRadius,
		GuardCooldown: cfg.GuardCooldown,
	}
	if cfg.CloneEffects == config.CloneEffectsFull {
		simCfg.CloneEffects = world.EffectsFull
	}

	appLogger.Info("Bootstrapping simulation session...")
	session := sim.NewSession(desc, simCfg, eventLog, appLogger)
	runner := sim.NewRunner(session, cfg.TickInterval(), appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runner.Start(ctx)

	// Periodic session record refresh so the sessions table survives a crash.
	go func() {
		backupTicker := time.NewTicker(5 * time.Second)
		defer backupTicker.Stop()
		startedAt := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case <-backupTicker.C:
				snap := runner.Snapshot()
				rec := storage.SessionRecord{
					SessionID:     sessionID,
					LevelName:     desc.Name,
					Outcome:       string(snap.Outcome),
					Ticks:         snap.Tick,
					ClonesUsed:    snap.ClonesSpawned,
					KeysCollected: snap.KeysCollected,
					StartedAt:     startedAt,
					LastUpdated:   time.Now(),
				}
				if err := sessionRepo.Upsert(ctx, rec); err != nil {
					appLogger.Warn("Failed to persist session record: " + err.Error())
				}
			}
		}
	}()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(runner, appLogger)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)

	// Setup API routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})

	replayHandler := network.NewReplayHandler(eventLog, runner, appLogger)
	replayHandler.RegisterRoutes(mux)

	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: mux,
	}

	go func() {
		log.Printf("[MAZE-SERVER] HTTP API & WS server listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[MAZE-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[MAZE-SERVER] Shutting down...")
	runner.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed: " + err.Error())
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests for the dev frontend
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection")
		return
	}

	client := network.NewClient(hub, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
