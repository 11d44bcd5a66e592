package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Replay is the config and ordered action log of a game. Replaying it
// through an engine with the same card definitions rebuilds the game.
type Replay struct {
	GameID    string
	Config    GameConfig
	Actions   []PlayerAction
	Checksums []string
	mu        sync.RWMutex
}

// NewReplay creates an empty replay for a game.
func NewReplay(gameID string, cfg GameConfig) *Replay {
	return &Replay{GameID: gameID, Config: cfg}
}

// RecordAction appends an accepted action and the checksum of the state it
// produced. An empty checksum is not verified on playback.
func (r *Replay) RecordAction(pa PlayerAction, checksum string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Actions = append(r.Actions, pa)
	r.Checksums = append(r.Checksums, checksum)
}

// Size returns the number of recorded actions.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.Actions)
}

// ActionAt returns the action at index.
func (r *Replay) ActionAt(index int) (PlayerAction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.Actions) {
		return PlayerAction{}, false
	}
	return r.Actions[index], true
}

func (r *Replay) snapshot() ([]PlayerAction, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]PlayerAction(nil), r.Actions...), append([]string(nil), r.Checksums...)
}

// Replay rebuilds a game from its config and action log, stopping at the
// first action that is rejected or whose resulting state does not match the
// recorded checksum.
func (e *Engine) Replay(r *Replay) (*GameState, error) {
	state, err := e.CreateGameState(r.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create game %s: %w", r.GameID, err)
	}
	actions, checksums := r.snapshot()
	for i, pa := range actions {
		res, err := e.ProcessAction(state, pa)
		if err != nil {
			return nil, fmt.Errorf("action %d of game %s: %w", i, r.GameID, err)
		}
		state = res.State
		if i < len(checksums) && checksums[i] != "" {
			sum, err := ComputeChecksum(state)
			if err != nil {
				return nil, err
			}
			if sum.Hash != checksums[i] {
				return nil, fmt.Errorf("action %d of game %s: state diverged from recording", i, r.GameID)
			}
		}
	}
	return state, nil
}

// SaveToFile writes the replay to <directory>/<gameID>.replay as gzipped gob.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	encoder := gob.NewEncoder(gzipWriter)
	metadata := replayMetadata{
		GameID:      r.GameID,
		Timestamp:   time.Now(),
		Version:     1,
		Config:      r.Config,
		ActionCount: len(r.Actions),
	}
	if err := encoder.Encode(&metadata); err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i := range r.Actions {
		rec := replayRecord{Action: r.Actions[i], Checksum: r.Checksums[i]}
		if err := encoder.Encode(&rec); err != nil {
			return fmt.Errorf("failed to encode action %d: %w", i, err)
		}
	}
	return nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)

	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != 1 {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}

	replay := NewReplay(metadata.GameID, metadata.Config)
	for i := 0; i < metadata.ActionCount; i++ {
		var rec replayRecord
		if err := decoder.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode action %d: %w", i, err)
		}
		replay.Actions = append(replay.Actions, rec.Action)
		replay.Checksums = append(replay.Checksums, rec.Checksum)
	}
	return replay, nil
}

type replayMetadata struct {
	GameID      string
	Timestamp   time.Time
	Version     int
	Config      GameConfig
	ActionCount int
}

type replayRecord struct {
	Action   PlayerAction
	Checksum string
}

// ReplayRecorder keeps in-memory replays for running games.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	enabled map[string]bool
	saveDir string
}

// NewReplayRecorder creates a recorder that saves into saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		enabled: make(map[string]bool),
		saveDir: saveDir,
	}
}

// StartRecording begins recording a game created from cfg.
func (rr *ReplayRecorder) StartRecording(gameID string, cfg GameConfig) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.replays[gameID] = NewReplay(gameID, cfg)
	rr.enabled[gameID] = true

	rr.logger.Info("started replay recording", zap.String("game_id", gameID))
}

// StopRecording stops recording a game and keeps what was recorded.
func (rr *ReplayRecorder) StopRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[gameID] = false

	rr.logger.Info("stopped replay recording", zap.String("game_id", gameID))
}

// RecordAction records an accepted action and its resulting state.
func (rr *ReplayRecorder) RecordAction(gameID string, pa PlayerAction, state *GameState) {
	rr.mu.RLock()
	enabled := rr.enabled[gameID]
	replay := rr.replays[gameID]
	rr.mu.RUnlock()

	if !enabled || replay == nil {
		return
	}

	checksum := ""
	if sum, err := ComputeChecksum(state); err == nil {
		checksum = sum.Hash
	} else {
		rr.logger.Warn("failed to checksum replay state", zap.String("game_id", gameID), zap.Error(err))
	}
	replay.RecordAction(pa, checksum)

	rr.logger.Debug("recorded replay action",
		zap.String("game_id", gameID),
		zap.Int("action_count", replay.Size()),
	)
}

// GetReplay returns the replay for a game.
func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, exists := rr.replays[gameID]
	return replay, exists
}

// SaveReplay writes a replay to disk and removes it from memory.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, exists := rr.replays[gameID]
	if !exists {
		rr.mu.Unlock()
		return fmt.Errorf("no replay found for game %s", gameID)
	}
	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}

	rr.logger.Info("saved replay to disk",
		zap.String("game_id", gameID),
		zap.Int("action_count", replay.Size()),
		zap.String("directory", rr.saveDir),
	)
	return nil
}

// LoadReplay reads a saved replay from disk.
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, gameID)
	if err != nil {
		return nil, err
	}

	rr.logger.Info("loaded replay from disk",
		zap.String("game_id", gameID),
		zap.Int("action_count", replay.Size()),
	)
	return replay, nil
}

// ClearReplay drops a replay from memory without saving.
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.replays, gameID)
	delete(rr.enabled, gameID)

	rr.logger.Debug("cleared replay from memory", zap.String("game_id", gameID))
}

// IsRecording reports whether recording is enabled for a game.
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[gameID]
}
