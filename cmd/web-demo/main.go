// Command web-demo serves a single pre-created game over the websocket
// protocol with an in-memory store, for trying out clients locally.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/server"
	"github.com/worldbreakers/worldbreakers-server-go/internal/session"
)

var errNoWorldbreaker = errors.New("catalogue has no worldbreaker")

var (
	addr      = flag.String("addr", ":8080", "listen address")
	catalogue = flag.String("cards", "data/cards.yaml", "card catalogue")
	seed      = flag.Int64("seed", time.Now().UnixNano(), "shuffle seed of the demo game")
)

func main() {
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	registry := cards.NewRegistry()
	if _, err := registry.LoadYAMLFile(*catalogue); err != nil {
		logger.Fatal("failed to load card catalogue", zap.String("path", *catalogue), zap.Error(err))
	}

	engine := game.NewEngine(logger.Named("engine"), registry, game.NewResolverRegistry(), game.DefaultRules())
	sessions := session.NewManager(engine, session.Options{Logger: logger.Named("session")})

	cfg, err := demoConfig(registry, *seed)
	if err != nil {
		logger.Fatal("failed to build demo decks", zap.Error(err))
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gameID, err := sessions.Create(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create demo game", zap.Error(err))
	}

	hub := server.NewHub(sessions, logger.Named("websocket"))
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		cancel()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("web demo ready",
		zap.String("endpoint", "ws://localhost"+*addr+"/ws"),
		zap.String("game_id", gameID),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("ListenAndServe", zap.Error(err))
	}
}

// demoConfig gives each player one of the catalogue's worldbreakers and two
// copies of every other non-worldbreaker card.
func demoConfig(registry *cards.Registry, seed int64) (game.GameConfig, error) {
	var breakers, pool []string
	for _, def := range registry.All() {
		if def.Type == cards.TypeWorldbreaker {
			breakers = append(breakers, def.ID)
			continue
		}
		pool = append(pool, def.ID, def.ID)
	}
	if len(breakers) == 0 {
		return game.GameConfig{}, errNoWorldbreaker
	}
	second := breakers[0]
	if len(breakers) > 1 {
		second = breakers[1]
	}
	return game.GameConfig{
		Seed: seed,
		Decks: map[rules.PlayerID]game.DeckConfig{
			rules.Player1: {Worldbreaker: breakers[0], Cards: pool},
			rules.Player2: {Worldbreaker: second, Cards: append([]string(nil), pool...)},
		},
	}, nil
}
