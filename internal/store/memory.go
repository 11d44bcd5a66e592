package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
)

type memoryGame struct {
	config   []byte
	snapshot encodedSnapshot
	updated  time.Time
	actions  []memoryAction
}

type memoryAction struct {
	action   []byte
	checksum string
	created  time.Time
}

// MemoryStore keeps games in process memory. Values are stored encoded, so
// callers never share state with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]*memoryGame
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]*memoryGame)}
}

func (m *MemoryStore) CreateGame(ctx context.Context, id string, cfg game.GameConfig, state *game.GameState) error {
	cfgData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	snap, err := encodeSnapshot(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[id]; exists {
		return fmt.Errorf("game %s already exists", id)
	}
	m.games[id] = &memoryGame{config: cfgData, snapshot: snap, updated: time.Now()}
	return nil
}

func (m *MemoryStore) CommitAction(ctx context.Context, id string, rec ActionRecord, state *game.GameState) error {
	data, err := json.Marshal(rec.Action)
	if err != nil {
		return fmt.Errorf("failed to encode action: %w", err)
	}
	snap, err := encodeSnapshot(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return ErrNotFound
	}
	if rec.Seq != len(g.actions)+1 {
		return fmt.Errorf("game %s: got seq %d after %d: %w", id, rec.Seq, len(g.actions), ErrOutOfSequence)
	}
	now := time.Now()
	g.actions = append(g.actions, memoryAction{action: data, checksum: rec.Checksum, created: now})
	g.snapshot = snap
	g.updated = now
	return nil
}

func (m *MemoryStore) LoadGame(ctx context.Context, id string) (*GameRecord, error) {
	m.mu.RLock()
	g, ok := m.games[id]
	if !ok {
		m.mu.RUnlock()
		return nil, ErrNotFound
	}
	cfgData, snap, updated := g.config, g.snapshot, g.updated
	m.mu.RUnlock()

	return decodeGame(id, cfgData, snap.state, snap.checksum, updated)
}

func (m *MemoryStore) LoadActions(ctx context.Context, id string) ([]ActionRecord, error) {
	m.mu.RLock()
	g, ok := m.games[id]
	if !ok {
		m.mu.RUnlock()
		return nil, ErrNotFound
	}
	actions := append([]memoryAction(nil), g.actions...)
	m.mu.RUnlock()

	out := make([]ActionRecord, 0, len(actions))
	for i, a := range actions {
		rec, err := decodeAction(id, i+1, a.action, a.checksum, a.created)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (m *MemoryStore) ListGames(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) DeleteGame(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return ErrNotFound
	}
	delete(m.games, id)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
