package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/worldbreakers/worldbreakers-server-go/internal/config"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/server"
	"github.com/worldbreakers/worldbreakers-server-go/internal/session"
	"github.com/worldbreakers/worldbreakers-server-go/internal/store"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting worldbreakers server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Card catalogue
	registry := cards.NewRegistry()
	n, err := registry.LoadYAMLFile(cfg.Cards.CataloguePath)
	if err != nil {
		logger.Fatal("failed to load card catalogue",
			zap.String("path", cfg.Cards.CataloguePath),
			zap.Error(err),
		)
	}
	logger.Info("card catalogue loaded", zap.Int("cards", n))

	engine := game.NewEngine(logger.Named("engine"), registry, game.NewResolverRegistry(), cfg.Rules)

	// Persistence
	gameStore, err := store.Open(ctx, cfg.Database, logger.Named("store"))
	if err != nil {
		logger.Fatal("failed to open game store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer gameStore.Close()

	var recorder *game.ReplayRecorder
	if cfg.Replay.Enabled {
		recorder = game.NewReplayRecorder(logger.Named("replay"), cfg.Replay.Dir)
		logger.Info("replay recording enabled", zap.String("directory", cfg.Replay.Dir))
	}

	sessionMgr := session.NewManager(engine, session.Options{
		Store:    gameStore,
		Recorder: recorder,
		MaxGames: cfg.Server.MaxGames,
		Logger:   logger.Named("session"),
	})
	resumeGames(ctx, gameStore, sessionMgr, logger)

	grpcServer := server.NewGRPCServer(sessionMgr, logger.Named("grpc"),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
		grpc.MaxConcurrentStreams(uint32(cfg.Server.GRPC.MaxConcurrentStreams)),
	)

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	// Start gRPC server
	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	// Start WebSocket server
	go func() {
		if wsErr := server.StartWebSocketServer(ctx, cfg.Server.WebSocket, sessionMgr, logger.Named("websocket")); wsErr != nil {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	logger.Info("worldbreakers server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.Int("max_games", cfg.Server.MaxGames),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	cancel()

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(cfg.Server.ShutdownTimeout):
		logger.Warn("graceful stop timed out", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
		grpcServer.Stop()
	}

	logger.Info("worldbreakers server stopped")
}

// resumeGames makes every stored game live again.
func resumeGames(ctx context.Context, gameStore store.Store, sessionMgr *session.Manager, logger *zap.Logger) {
	ids, err := gameStore.ListGames(ctx)
	if err != nil {
		logger.Warn("failed to list stored games", zap.Error(err))
		return
	}
	for _, id := range ids {
		if err := sessionMgr.Load(ctx, id); err != nil {
			logger.Warn("failed to resume game", zap.String("game_id", id), zap.Error(err))
		}
	}
	if len(ids) > 0 {
		logger.Info("resumed stored games", zap.Int("games", len(sessionMgr.Games())))
	}
}

// initLogger initializes the zap logger based on configuration
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
