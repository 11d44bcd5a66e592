package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/worldbreakers/worldbreakers-server-go/internal/config"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS games (
	id         TEXT PRIMARY KEY,
	config     JSONB NOT NULL,
	state      JSONB NOT NULL,
	version    BIGINT NOT NULL,
	checksum   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id    TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	action     JSONB NOT NULL,
	checksum   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (game_id, seq)
);
`

// PostgresStore persists games in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to cfg.DSN and creates the schema if needed.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Info("connected to postgres", zap.Int32("max_conns", poolCfg.MaxConns))
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (p *PostgresStore) CreateGame(ctx context.Context, id string, cfg game.GameConfig, state *game.GameState) error {
	cfgData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	snap, err := encodeSnapshot(state)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO games (id, config, state, version, checksum)
		VALUES ($1, $2, $3, $4, $5)`,
		id, cfgData, snap.state, int64(snap.version), snap.checksum,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game %s: %w", id, err)
	}
	return nil
}

func (p *PostgresStore) CommitAction(ctx context.Context, id string, rec ActionRecord, state *game.GameState) error {
	data, err := json.Marshal(rec.Action)
	if err != nil {
		return fmt.Errorf("failed to encode action: %w", err)
	}
	snap, err := encodeSnapshot(state)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM games WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock game %s: %w", id, err)
	}
	var last int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM game_actions WHERE game_id = $1`, id,
	).Scan(&last); err != nil {
		return fmt.Errorf("failed to read last action of game %s: %w", id, err)
	}
	if rec.Seq != last+1 {
		return fmt.Errorf("game %s: got seq %d after %d: %w", id, rec.Seq, last, ErrOutOfSequence)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO game_actions (game_id, seq, action, checksum)
		VALUES ($1, $2, $3, $4)`,
		id, rec.Seq, data, rec.Checksum,
	); err != nil {
		return fmt.Errorf("failed to insert action %d of game %s: %w", rec.Seq, id, err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE games SET state = $2, version = $3, checksum = $4, updated_at = now()
		WHERE id = $1`,
		id, snap.state, int64(snap.version), snap.checksum,
	); err != nil {
		return fmt.Errorf("failed to update snapshot of game %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit action %d of game %s: %w", rec.Seq, id, err)
	}
	return nil
}

func (p *PostgresStore) LoadGame(ctx context.Context, id string) (*GameRecord, error) {
	var (
		cfgData, stateData []byte
		checksum           string
		updated            time.Time
	)
	err := p.pool.QueryRow(ctx, `
		SELECT config, state, checksum, updated_at FROM games WHERE id = $1`, id,
	).Scan(&cfgData, &stateData, &checksum, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", id, err)
	}
	return decodeGame(id, cfgData, stateData, checksum, updated)
}

func (p *PostgresStore) LoadActions(ctx context.Context, id string) ([]ActionRecord, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM games WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up game %s: %w", id, err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := p.pool.Query(ctx, `
		SELECT seq, action, checksum, created_at FROM game_actions
		WHERE game_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions of game %s: %w", id, err)
	}
	defer rows.Close()

	var out []ActionRecord
	for rows.Next() {
		var (
			seq      int
			data     []byte
			checksum string
			created  time.Time
		)
		if err := rows.Scan(&seq, &data, &checksum, &created); err != nil {
			return nil, fmt.Errorf("failed to scan action of game %s: %w", id, err)
		}
		rec, err := decodeAction(id, seq, data, checksum, created)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (p *PostgresStore) ListGames(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT id FROM games ORDER BY id`)
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

func (p *PostgresStore) DeleteGame(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
