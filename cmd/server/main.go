package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sanguosha-online/sgs-server-go/internal/catalog"
	"github.com/sanguosha-online/sgs-server-go/internal/config"
	"github.com/sanguosha-online/sgs-server-go/internal/game"
	"github.com/sanguosha-online/sgs-server-go/internal/game/skill"
	"github.com/sanguosha-online/sgs-server-go/internal/repository"
	"github.com/sanguosha-online/sgs-server-go/internal/server"
	"github.com/sanguosha-online/sgs-server-go/internal/session"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting sgs server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Journal database is optional: without it rooms run on in-memory
	// journals only.
	var journals *repository.JournalRepository
	if cfg.Database.URL != "" {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		stats := db.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)

		journals, err = repository.NewJournalRepository(ctx, db, logger)
		if err != nil {
			logger.Fatal("failed to initialize journal repository", zap.Error(err))
		}
		logger.Info("journal repository initialized")
	} else {
		logger.Warn("no database configured; journals are in-memory only")
	}

	sessionMgr := session.NewManager(cfg.Server.LeasePeriod, logger)
	sessionMgr.SetMaxSessions(cfg.Server.MaxSessions)
	logger.Info("session manager initialized",
		zap.Duration("lease_period", cfg.Server.LeasePeriod),
	)
	go sessionMgr.CleanupExpiredSessions(ctx)

	gameMgr := game.NewManager(logger)
	logger.Info("game manager initialized",
		zap.Duration("ask_timeout", cfg.Game.AskTimeout),
	)

	gateway := server.NewGateway(gameMgr, sessionMgr, cfg.Server.WebSocket, logger)
	gateway.SetMaxTurns(cfg.Game.MaxTurns)

	// Shared read-only content for every room.
	cards := catalog.NewStandard()
	skills := skill.NewStandardRegistry()

	gateway.OnCreateRoom(func(roomID string) error {
		var journal game.Journal = game.NewMemoryJournal()
		if journals != nil {
			j, err := journals.ForRoom(ctx, roomID)
			if err != nil {
				return err
			}
			journal = j
		}
		gameMgr.CreateRoom(game.Options{
			ID:         roomID,
			Catalog:    cards,
			Skills:     skills,
			Notifier:   gateway.NotifierFor(roomID),
			Journal:    journal,
			Logger:     logger,
			AskTimeout: cfg.Game.AskTimeout,
		})
		return nil
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- gateway.Serve(ctx)
	}()

	logger.Info("sgs server initialized",
		zap.String("version", version),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.Int("max_sessions", cfg.Server.MaxSessions),
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serveErr:
		logger.Error("websocket server error", zap.Error(err))
	}

	logger.Info("shutting down gracefully...")
	cancel()

	sessionMgr.CloseAll()
	gameMgr.Shutdown()

	logger.Info("sgs server stopped")
}

// initLogger builds the zap logger from configuration.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
