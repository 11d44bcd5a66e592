// Package session runs live games on top of the engine. Each game has a
// single writer: submissions to one game are serialized, while different
// games proceed in parallel.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/watchers"
	"github.com/worldbreakers/worldbreakers-server-go/internal/store"
)

var (
	// ErrGameNotFound is returned for unknown game ids.
	ErrGameNotFound = errors.New("game not found")
	// ErrTooManyGames is returned by Create when the game limit is reached.
	ErrTooManyGames = errors.New("too many active games")
	// ErrInvalidPlayer is returned for player ids other than player1/player2.
	ErrInvalidPlayer = errors.New("invalid player")
	// ErrInvalidConfig wraps the engine's reason for refusing a game config.
	ErrInvalidConfig = errors.New("invalid game config")
)

// Options configures a Manager. Every field is optional.
type Options struct {
	Store    store.Store
	Recorder *game.ReplayRecorder
	Bus      *rules.EventBus
	MaxGames int
	Logger   *zap.Logger
}

// Manager owns the live games.
type Manager struct {
	engine   *game.Engine
	store    store.Store
	recorder *game.ReplayRecorder
	bus      *rules.EventBus
	maxGames int
	logger   *zap.Logger

	mu    sync.RWMutex
	games map[string]*liveGame
	// creating counts Create calls holding a reserved slot.
	creating int
}

type liveGame struct {
	mu     sync.Mutex
	id     string
	config game.GameConfig
	state  *game.GameState
	seq    int
	// stats covers the events seen since the game went live in this process
	stats *watchers.Set
}

// SubmitResult is what a player learns from an accepted action.
type SubmitResult struct {
	Version    uint64           `json:"version"`
	Events     []rules.Event    `json:"events"`
	WaitingFor *game.WaitingFor `json:"waitingFor,omitempty"`
	GameOver   bool             `json:"gameOver,omitempty"`
}

// NewManager creates a manager over engine.
func NewManager(engine *game.Engine, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	st := opts.Store
	if st == nil {
		st = store.NewMemoryStore()
	}
	bus := opts.Bus
	if bus == nil {
		bus = rules.NewEventBus()
	}
	return &Manager{
		engine:   engine,
		store:    st,
		recorder: opts.Recorder,
		bus:      bus,
		maxGames: opts.MaxGames,
		logger:   logger,
		games:    make(map[string]*liveGame),
	}
}

// Bus returns the bus accepted events are published on.
func (m *Manager) Bus() *rules.EventBus {
	return m.bus
}

// reserveSlot claims room for one more game under the write lock, counting
// creates still in flight.
func (m *Manager) reserveSlot() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxGames > 0 && len(m.games)+m.creating >= m.maxGames {
		return false
	}
	m.creating++
	return true
}

func (m *Manager) releaseSlot() {
	m.mu.Lock()
	m.creating--
	m.mu.Unlock()
}

// Create starts a new game and returns its id.
func (m *Manager) Create(ctx context.Context, cfg game.GameConfig) (string, error) {
	if !m.reserveSlot() {
		return "", ErrTooManyGames
	}
	defer m.releaseSlot()

	state, err := m.engine.CreateGameState(cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	id := uuid.NewString()
	if err := m.store.CreateGame(ctx, id, cfg, state); err != nil {
		return "", fmt.Errorf("failed to persist game: %w", err)
	}

	started := []rules.Event{{Type: rules.EventGameStarted, Player: state.FirstPlayer}}
	stats := watchers.DefaultSet()
	stats.Watch(started)

	m.mu.Lock()
	m.games[id] = &liveGame{id: id, config: cfg, state: state, stats: stats}
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.StartRecording(id, cfg)
	}
	m.bus.Publish(id, started)

	m.logger.Info("game created",
		zap.String("game_id", id),
		zap.Int64("seed", cfg.Seed),
		zap.String("first_player", string(state.FirstPlayer)),
	)
	return id, nil
}

// Submit applies an action to a game. Invalid actions return the engine's
// *game.InvalidActionError and leave the game untouched. The action is
// persisted before the new state becomes visible.
func (m *Manager) Submit(ctx context.Context, gameID string, pa game.PlayerAction) (*SubmitResult, error) {
	g, err := m.get(gameID)
	if err != nil {
		return nil, err
	}

	res, err := m.apply(ctx, g, pa)
	if err != nil {
		return nil, err
	}

	// Listeners may read the game back, so publish outside its lock.
	m.bus.Publish(gameID, res.Events)

	over := res.State.IsOver()
	if over {
		m.finish(gameID, res.State)
	}

	return &SubmitResult{
		Version:    res.State.Version,
		Events:     res.Events,
		WaitingFor: res.WaitingFor,
		GameOver:   over,
	}, nil
}

func (m *Manager) apply(ctx context.Context, g *liveGame, pa game.PlayerAction) (*game.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	res, err := m.engine.ProcessAction(g.state, pa)
	if err != nil {
		return nil, err
	}

	sum, err := game.ComputeChecksum(res.State)
	if err != nil {
		return nil, err
	}
	rec := store.ActionRecord{Seq: g.seq + 1, Action: pa, Checksum: sum.Hash}
	if err := m.store.CommitAction(ctx, g.id, rec, res.State); err != nil {
		return nil, fmt.Errorf("failed to persist action: %w", err)
	}
	g.seq++
	g.state = res.State
	g.stats.Watch(res.Events)

	if m.recorder != nil {
		m.recorder.RecordAction(g.id, pa, res.State)
	}
	return res, nil
}

func (m *Manager) finish(gameID string, state *game.GameState) {
	fields := []zap.Field{zap.String("game_id", gameID), zap.Bool("draw", state.Draw)}
	if state.Winner != nil {
		fields = append(fields, zap.String("winner", string(*state.Winner)))
	}
	m.logger.Info("game over", fields...)

	if m.recorder == nil || !m.recorder.IsRecording(gameID) {
		return
	}
	m.recorder.StopRecording(gameID)
	if err := m.recorder.SaveReplay(gameID); err != nil {
		m.logger.Warn("failed to save replay", zap.String("game_id", gameID), zap.Error(err))
	}
}

// View returns what player may see of a game.
func (m *Manager) View(gameID string, player rules.PlayerID) (*PlayerView, error) {
	if !player.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlayer, player)
	}
	state, err := m.State(gameID)
	if err != nil {
		return nil, err
	}
	return Project(gameID, state, player), nil
}

// LegalActions lists the actions player may submit next.
func (m *Manager) LegalActions(gameID string, player rules.PlayerID) ([]game.PlayerAction, error) {
	if !player.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlayer, player)
	}
	state, err := m.State(gameID)
	if err != nil {
		return nil, err
	}
	var out []game.PlayerAction
	for _, pa := range m.engine.LegalActions(state) {
		if pa.Player == player {
			out = append(out, pa)
		}
	}
	return out, nil
}

// State returns the full current state of a game. It is not filtered for
// either player.
func (m *Manager) State(gameID string) (*game.GameState, error) {
	g, err := m.get(gameID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, nil
}

// Stats returns the per-player statistics of a live game.
func (m *Manager) Stats(gameID string) (watchers.Stats, error) {
	g, err := m.get(gameID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats.Stats(), nil
}

// Load makes a stored game live again. The stored action log is replayed
// from the game's config and must reproduce the stored snapshot.
func (m *Manager) Load(ctx context.Context, gameID string) error {
	m.mu.RLock()
	_, live := m.games[gameID]
	m.mu.RUnlock()
	if live {
		return nil
	}

	rec, err := m.store.LoadGame(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrGameNotFound
	}
	if err != nil {
		return err
	}
	actions, err := m.store.LoadActions(ctx, gameID)
	if err != nil {
		return err
	}

	replay := game.NewReplay(gameID, rec.Config)
	for _, a := range actions {
		replay.RecordAction(a.Action, a.Checksum)
	}
	state, err := m.engine.Replay(replay)
	if err != nil {
		return fmt.Errorf("failed to rebuild game %s: %w", gameID, err)
	}
	sum, err := game.ComputeChecksum(state)
	if err != nil {
		return err
	}
	if sum.Hash != rec.Checksum {
		return fmt.Errorf("game %s: rebuilt state does not match stored snapshot", gameID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, live := m.games[gameID]; live {
		return nil
	}
	m.games[gameID] = &liveGame{
		id:     gameID,
		config: rec.Config,
		state:  state,
		seq:    len(actions),
		stats:  watchers.DefaultSet(),
	}

	m.logger.Info("game loaded",
		zap.String("game_id", gameID),
		zap.Int("actions", len(actions)),
		zap.Uint64("version", state.Version),
	)
	return nil
}

// Remove drops a game from memory. It stays in the store.
func (m *Manager) Remove(gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[gameID]; !ok {
		return ErrGameNotFound
	}
	delete(m.games, gameID)
	if m.recorder != nil {
		m.recorder.ClearReplay(gameID)
	}
	m.logger.Debug("game removed", zap.String("game_id", gameID))
	return nil
}

// Games lists the live game ids in sorted order.
func (m *Manager) Games() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) get(gameID string) (*liveGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}
