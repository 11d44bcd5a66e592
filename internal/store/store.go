// Package store persists games outside the engine: the config a game was
// created from, its latest state snapshot and the ordered action log.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/worldbreakers/worldbreakers-server-go/internal/config"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
)

// ErrNotFound is returned when a game does not exist in the store.
var ErrNotFound = errors.New("game not found")

// ErrOutOfSequence is returned by CommitAction when rec.Seq does not directly
// follow the last stored action.
var ErrOutOfSequence = errors.New("action out of sequence")

// GameRecord is a stored game with its latest snapshot.
type GameRecord struct {
	ID        string
	Config    game.GameConfig
	State     *game.GameState
	Checksum  string
	UpdatedAt time.Time
}

// ActionRecord is one accepted action. Seq starts at 1 and has no gaps.
type ActionRecord struct {
	Seq       int
	Action    game.PlayerAction
	Checksum  string
	CreatedAt time.Time
}

// Store is implemented by every backend. Writes for one game are expected to
// come from a single goroutine; backends only guarantee that each call is
// atomic.
type Store interface {
	// CreateGame stores a new game and its initial snapshot.
	CreateGame(ctx context.Context, id string, cfg game.GameConfig, state *game.GameState) error
	// CommitAction appends an action and replaces the snapshot in one
	// transaction.
	CommitAction(ctx context.Context, id string, rec ActionRecord, state *game.GameState) error
	LoadGame(ctx context.Context, id string) (*GameRecord, error)
	LoadActions(ctx context.Context, id string) ([]ActionRecord, error)
	ListGames(ctx context.Context) ([]string, error)
	DeleteGame(ctx context.Context, id string) error
	Close() error
}

// Open creates the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		return NewPostgresStore(ctx, cfg, logger)
	case "sqlite":
		return OpenSQLite(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

type encodedSnapshot struct {
	state    []byte
	checksum string
	version  uint64
}

func encodeSnapshot(state *game.GameState) (encodedSnapshot, error) {
	data, err := game.MarshalState(state)
	if err != nil {
		return encodedSnapshot{}, err
	}
	sum, err := game.ComputeChecksum(state)
	if err != nil {
		return encodedSnapshot{}, err
	}
	return encodedSnapshot{state: data, checksum: sum.Hash, version: state.Version}, nil
}

func decodeGame(id string, cfgData, stateData []byte, checksum string, updated time.Time) (*GameRecord, error) {
	var cfg game.GameConfig
	if err := json.Unmarshal(cfgData, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config of game %s: %w", id, err)
	}
	state, err := game.UnmarshalState(stateData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot of game %s: %w", id, err)
	}
	return &GameRecord{ID: id, Config: cfg, State: state, Checksum: checksum, UpdatedAt: updated}, nil
}

func decodeAction(id string, seq int, data []byte, checksum string, created time.Time) (ActionRecord, error) {
	var pa game.PlayerAction
	if err := json.Unmarshal(data, &pa); err != nil {
		return ActionRecord{}, fmt.Errorf("failed to decode action %d of game %s: %w", seq, id, err)
	}
	return ActionRecord{Seq: seq, Action: pa, Checksum: checksum, CreatedAt: created}, nil
}
