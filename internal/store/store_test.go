package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/worldbreakers/worldbreakers-server-go/internal/config"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

func testGame(t *testing.T) (*game.Engine, game.GameConfig, *game.GameState) {
	t.Helper()
	reg := cards.NewRegistry()
	reg.MustRegister(
		cards.CardDefinition{ID: "wb", Name: "Worldbreaker", Type: cards.TypeWorldbreaker},
		cards.CardDefinition{ID: "scout", Name: "Scout", Type: cards.TypeFollower, Cost: 1, Strength: 1, Health: 1},
	)
	e := game.NewEngine(zaptest.NewLogger(t), reg, nil, game.DefaultRules())

	deck := game.DeckConfig{Worldbreaker: "wb"}
	for i := 0; i < 8; i++ {
		deck.Cards = append(deck.Cards, "scout")
	}
	cfg := game.GameConfig{
		Seed:  7,
		Decks: map[rules.PlayerID]game.DeckConfig{rules.Player1: deck, rules.Player2: deck},
	}
	state, err := e.CreateGameState(cfg)
	require.NoError(t, err)
	return e, cfg, state
}

func gainMythium(player rules.PlayerID) game.PlayerAction {
	return game.PlayerAction{Player: player, Action: game.Action{Type: game.ActionGainMythium}}
}

// runStoreSuite checks the behavior every backend must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create and load", func(t *testing.T) {
		s := newStore(t)
		_, cfg, state := testGame(t)

		require.NoError(t, s.CreateGame(ctx, "g1", cfg, state))
		rec, err := s.LoadGame(ctx, "g1")
		require.NoError(t, err)

		assert.Equal(t, "g1", rec.ID)
		assert.Equal(t, cfg, rec.Config)
		assert.Equal(t, state.Version, rec.State.Version)

		want, err := game.ComputeChecksum(state)
		require.NoError(t, err)
		got, err := game.ComputeChecksum(rec.State)
		require.NoError(t, err)
		assert.Equal(t, want.Hash, got.Hash)
		assert.Equal(t, want.Hash, rec.Checksum)
	})

	t.Run("duplicate game", func(t *testing.T) {
		s := newStore(t)
		_, cfg, state := testGame(t)
		require.NoError(t, s.CreateGame(ctx, "g1", cfg, state))
		assert.Error(t, s.CreateGame(ctx, "g1", cfg, state))
	})

	t.Run("commit actions", func(t *testing.T) {
		s := newStore(t)
		e, cfg, state := testGame(t)
		require.NoError(t, s.CreateGame(ctx, "g1", cfg, state))

		for seq, player := range []rules.PlayerID{rules.Player1, rules.Player2} {
			pa := gainMythium(player)
			res, err := e.ProcessAction(state, pa)
			require.NoError(t, err)
			state = res.State
			sum, err := game.ComputeChecksum(state)
			require.NoError(t, err)
			require.NoError(t, s.CommitAction(ctx, "g1", ActionRecord{Seq: seq + 1, Action: pa, Checksum: sum.Hash}, state))
		}

		actions, err := s.LoadActions(ctx, "g1")
		require.NoError(t, err)
		require.Len(t, actions, 2)
		assert.Equal(t, 1, actions[0].Seq)
		assert.Equal(t, rules.Player2, actions[1].Action.Player)
		assert.Equal(t, game.ActionGainMythium, actions[1].Action.Action.Type)

		rec, err := s.LoadGame(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, state.Version, rec.State.Version)
		assert.Equal(t, 2, rec.State.ActionsTaken)
		assert.Equal(t, actions[1].Checksum, rec.Checksum)
	})

	t.Run("out of sequence", func(t *testing.T) {
		s := newStore(t)
		_, cfg, state := testGame(t)
		require.NoError(t, s.CreateGame(ctx, "g1", cfg, state))

		err := s.CommitAction(ctx, "g1", ActionRecord{Seq: 2, Action: gainMythium(rules.Player1)}, state)
		assert.True(t, errors.Is(err, ErrOutOfSequence), "got %v", err)

		actions, err := s.LoadActions(ctx, "g1")
		require.NoError(t, err)
		assert.Empty(t, actions)
	})

	t.Run("missing game", func(t *testing.T) {
		s := newStore(t)
		_, _, state := testGame(t)

		_, err := s.LoadGame(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.LoadActions(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		err = s.CommitAction(ctx, "nope", ActionRecord{Seq: 1, Action: gainMythium(rules.Player1)}, state)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteGame(ctx, "nope"), ErrNotFound)
	})

	t.Run("list and delete", func(t *testing.T) {
		s := newStore(t)
		e, cfg, state := testGame(t)
		require.NoError(t, s.CreateGame(ctx, "b", cfg, state))
		require.NoError(t, s.CreateGame(ctx, "a", cfg, state))

		pa := gainMythium(rules.Player1)
		res, err := e.ProcessAction(state, pa)
		require.NoError(t, err)
		require.NoError(t, s.CommitAction(ctx, "b", ActionRecord{Seq: 1, Action: pa}, res.State))

		ids, err := s.ListGames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids)

		require.NoError(t, s.DeleteGame(ctx, "b"))
		ids, err = s.ListGames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, ids)
		_, err = s.LoadActions(ctx, "b")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		s, err := OpenSQLite(context.Background(), ":memory:", zaptest.NewLogger(t))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStorePersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "games.db")
	_, cfg, state := testGame(t)

	s, err := OpenSQLite(ctx, path, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, s.CreateGame(ctx, "g1", cfg, state))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Close()
	rec, err := s.LoadGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, state.Version, rec.State.Version)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	runStoreSuite(t, func(t *testing.T) Store {
		ctx := context.Background()
		s, err := NewPostgresStore(ctx, config.DatabaseConfig{Driver: "postgres", DSN: dsn, MaxConns: 2}, zaptest.NewLogger(t))
		require.NoError(t, err)
		_, err = s.pool.Exec(ctx, `TRUNCATE games CASCADE`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.DatabaseConfig{Driver: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.DatabaseConfig{Driver: "mysql"}, nil)
	assert.Error(t, err)
}
