package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id         TEXT PRIMARY KEY,
		config     TEXT NOT NULL,
		state      TEXT NOT NULL,
		version    INTEGER NOT NULL,
		checksum   TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS game_actions (
		game_id    TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		action     TEXT NOT NULL,
		checksum   TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (game_id, seq)
	)`,
}

// SQLiteStore persists games in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens the database at dsn (a path, "file:" URI or ":memory:")
// and creates the schema. A single connection is used so an in-memory
// database is shared by every call.
func OpenSQLite(ctx context.Context, dsn string, logger *zap.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	stmts := append([]string{`PRAGMA foreign_keys = ON`}, sqliteSchema...)
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
	}

	logger.Info("opened sqlite store", zap.String("dsn", dsn))
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) CreateGame(ctx context.Context, id string, cfg game.GameConfig, state *game.GameState) error {
	cfgData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	snap, err := encodeSnapshot(state)
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (id, config, state, version, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, string(cfgData), string(snap.state), int64(snap.version), snap.checksum, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) CommitAction(ctx context.Context, id string, rec ActionRecord, state *game.GameState) error {
	data, err := json.Marshal(rec.Action)
	if err != nil {
		return fmt.Errorf("failed to encode action: %w", err)
	}
	snap, err := encodeSnapshot(state)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var last int
	err = tx.QueryRowContext(ctx, `
		SELECT (SELECT COALESCE(MAX(seq), 0) FROM game_actions WHERE game_id = ?)
		FROM games WHERE id = ?`, id, id,
	).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read last action of game %s: %w", id, err)
	}
	if rec.Seq != last+1 {
		return fmt.Errorf("game %s: got seq %d after %d: %w", id, rec.Seq, last, ErrOutOfSequence)
	}

	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO game_actions (game_id, seq, action, checksum, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, rec.Seq, string(data), rec.Checksum, now,
	); err != nil {
		return fmt.Errorf("failed to insert action %d of game %s: %w", rec.Seq, id, err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE games SET state = ?, version = ?, checksum = ?, updated_at = ?
		WHERE id = ?`,
		string(snap.state), int64(snap.version), snap.checksum, now, id,
	); err != nil {
		return fmt.Errorf("failed to update snapshot of game %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit action %d of game %s: %w", rec.Seq, id, err)
	}
	return nil
}

func (s *SQLiteStore) LoadGame(ctx context.Context, id string) (*GameRecord, error) {
	var (
		cfgData, stateData, checksum string
		updated                      int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT config, state, checksum, updated_at FROM games WHERE id = ?`, id,
	).Scan(&cfgData, &stateData, &checksum, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", id, err)
	}
	return decodeGame(id, []byte(cfgData), []byte(stateData), checksum, time.UnixMilli(updated))
}

func (s *SQLiteStore) LoadActions(ctx context.Context, id string) ([]ActionRecord, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM games WHERE id = ?`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up game %s: %w", id, err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, action, checksum, created_at FROM game_actions
		WHERE game_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions of game %s: %w", id, err)
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var (
			seq            int
			data, checksum string
			created        int64
		)
		if err := rows.Scan(&seq, &data, &checksum, &created); err != nil {
			return nil, fmt.Errorf("failed to scan action of game %s: %w", id, err)
		}
		rec, err := decodeAction(id, seq, []byte(data), checksum, time.UnixMilli(created))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListGames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) DeleteGame(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
