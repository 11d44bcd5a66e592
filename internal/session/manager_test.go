package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/store"
)

func testEngine(t *testing.T, gameRules game.Rules) *game.Engine {
	t.Helper()
	reg := cards.NewRegistry()
	reg.MustRegister(
		cards.CardDefinition{ID: "wb", Name: "Worldbreaker", Type: cards.TypeWorldbreaker},
		cards.CardDefinition{ID: "scout", Name: "Scout", Type: cards.TypeFollower, Cost: 1, Strength: 1, Health: 1},
	)
	return game.NewEngine(zaptest.NewLogger(t), reg, nil, gameRules)
}

func testConfig(seed int64) game.GameConfig {
	deck := game.DeckConfig{Worldbreaker: "wb"}
	for i := 0; i < 8; i++ {
		deck.Cards = append(deck.Cards, "scout")
	}
	return game.GameConfig{
		Seed:  seed,
		Decks: map[rules.PlayerID]game.DeckConfig{rules.Player1: deck, rules.Player2: deck},
	}
}

func gain(player rules.PlayerID) game.PlayerAction {
	return game.PlayerAction{Player: player, Action: game.Action{Type: game.ActionGainMythium}}
}

func TestCreateAndView(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testEngine(t, game.DefaultRules()), Options{Logger: zaptest.NewLogger(t)})

	id, err := m.Create(ctx, testConfig(1))
	require.NoError(t, err)
	assert.Equal(t, []string{id}, m.Games())

	v, err := m.View(id, rules.Player1)
	require.NoError(t, err)
	assert.Equal(t, rules.Player1, v.Viewer)
	assert.Equal(t, 5, v.Players[rules.Player1].HandSize)
	assert.Equal(t, 5, v.Players[rules.Player2].HandSize)
	assert.Equal(t, 3, v.Players[rules.Player2].DeckSize)

	for _, c := range v.Cards {
		assert.NotEqual(t, rules.ZoneDeck, c.Zone, "deck card %s visible", c.InstanceID)
		if c.Zone == rules.ZoneHand {
			assert.Equal(t, rules.Player1, c.Owner, "opponent hand card %s visible", c.InstanceID)
		}
	}
	// own hand of five plus both worldbreakers
	assert.Len(t, v.Cards, 7)

	_, err = m.View(id, "player3")
	assert.ErrorIs(t, err, ErrInvalidPlayer)
	_, err = m.View("missing", rules.Player1)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	m := NewManager(testEngine(t, game.DefaultRules()), Options{Store: st, Logger: zaptest.NewLogger(t)})

	var (
		mu        sync.Mutex
		published []rules.Event
	)
	m.Bus().Subscribe(func(gameID string, events []rules.Event) {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, events...)
	})

	id, err := m.Create(ctx, testConfig(1))
	require.NoError(t, err)
	before, err := m.State(id)
	require.NoError(t, err)

	res, err := m.Submit(ctx, id, gain(rules.Player1))
	require.NoError(t, err)
	assert.Greater(t, res.Version, before.Version)
	assert.False(t, res.GameOver)
	assert.NotEmpty(t, res.Events)

	mu.Lock()
	assert.Equal(t, rules.EventGameStarted, published[0].Type)
	assert.Len(t, published, 1+len(res.Events))
	mu.Unlock()

	actions, err := st.LoadActions(ctx, id)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, gain(rules.Player1), actions[0].Action)

	v, err := m.View(id, rules.Player2)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Players[rules.Player1].Mythium)
	assert.Equal(t, rules.Player2, v.ActivePlayer)
}

func TestSubmitInvalid(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	m := NewManager(testEngine(t, game.DefaultRules()), Options{Store: st})

	id, err := m.Create(ctx, testConfig(1))
	require.NoError(t, err)
	before, err := m.State(id)
	require.NoError(t, err)

	_, err = m.Submit(ctx, id, gain(rules.Player2))
	var invalid *game.InvalidActionError
	require.True(t, errors.As(err, &invalid), "got %v", err)

	after, err := m.State(id)
	require.NoError(t, err)
	assert.Same(t, before, after)

	actions, err := st.LoadActions(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, actions)

	_, err = m.Submit(ctx, "missing", gain(rules.Player1))
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestLegalActionsPerPlayer(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testEngine(t, game.DefaultRules()), Options{})

	id, err := m.Create(ctx, testConfig(1))
	require.NoError(t, err)

	mine, err := m.LegalActions(id, rules.Player1)
	require.NoError(t, err)
	require.NotEmpty(t, mine)
	for _, pa := range mine {
		assert.Equal(t, rules.Player1, pa.Player)
	}

	theirs, err := m.LegalActions(id, rules.Player2)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestMaxGames(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testEngine(t, game.DefaultRules()), Options{MaxGames: 1})

	id, err := m.Create(ctx, testConfig(1))
	require.NoError(t, err)
	_, err = m.Create(ctx, testConfig(2))
	assert.ErrorIs(t, err, ErrTooManyGames)

	require.NoError(t, m.Remove(id))
	assert.ErrorIs(t, m.Remove(id), ErrGameNotFound)
	_, err = m.Create(ctx, testConfig(2))
	assert.NoError(t, err)
}

func TestMaxGamesUnderConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	m := NewManager(testEngine(t, game.DefaultRules()), Options{MaxGames: 3})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		refused int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			_, err := m.Create(ctx, testConfig(seed))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrTooManyGames):
				refused++
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 3, created)
	assert.Equal(t, 17, refused)
	assert.Len(t, m.Games(), 3)
}

func TestLoadRebuildsGame(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	engine := testEngine(t, game.DefaultRules())

	m := NewManager(engine, Options{Store: st})
	id, err := m.Create(ctx, testConfig(9))
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		player := rules.Player1
		if i%2 == 1 {
			player = rules.Player2
		}
		_, err := m.Submit(ctx, id, gain(player))
		require.NoError(t, err)
	}
	want, err := m.State(id)
	require.NoError(t, err)

	restarted := NewManager(engine, Options{Store: st, Logger: zaptest.NewLogger(t)})
	require.NoError(t, restarted.Load(ctx, id))
	got, err := restarted.State(id)
	require.NoError(t, err)

	wantSum, err := game.ComputeChecksum(want)
	require.NoError(t, err)
	gotSum, err := game.ComputeChecksum(got)
	require.NoError(t, err)
	assert.Equal(t, wantSum.Hash, gotSum.Hash)

	_, err = restarted.Submit(ctx, id, gain(rules.Player1))
	assert.NoError(t, err, "loaded game accepts the next action in sequence")

	assert.ErrorIs(t, restarted.Load(ctx, "missing"), ErrGameNotFound)
}

func TestLoadRejectsMismatchedSnapshot(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	engine := testEngine(t, game.DefaultRules())

	other, err := engine.CreateGameState(testConfig(2))
	require.NoError(t, err)
	require.NoError(t, st.CreateGame(ctx, "g1", testConfig(1), other))

	m := NewManager(engine, Options{Store: st})
	err = m.Load(ctx, "g1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestFinishedGameSavesReplay(t *testing.T) {
	ctx := context.Background()
	gameRules := game.DefaultRules()
	gameRules.PowerToWin = 1

	dir := t.TempDir()
	recorder := game.NewReplayRecorder(zaptest.NewLogger(t), dir)
	m := NewManager(testEngine(t, gameRules), Options{Recorder: recorder, Logger: zaptest.NewLogger(t)})

	id, err := m.Create(ctx, testConfig(3))
	require.NoError(t, err)
	require.True(t, recorder.IsRecording(id))

	over := false
	for step := 0; step < 500 && !over; step++ {
		state, err := m.State(id)
		require.NoError(t, err)
		legal := testEngine(t, gameRules).LegalActions(state)
		require.NotEmpty(t, legal, "no legal action at step %d", step)

		// Prefer anything over gaining mythium so the game moves along.
		pick := legal[0]
		for _, pa := range legal {
			if pa.Action.Type != game.ActionGainMythium {
				pick = pa
				break
			}
		}
		res, err := m.Submit(ctx, id, pick)
		require.NoError(t, err)
		over = res.GameOver
	}
	require.True(t, over, "game did not finish")

	assert.False(t, recorder.IsRecording(id))
	_, err = os.Stat(filepath.Join(dir, id+".replay"))
	require.NoError(t, err)

	replay, err := recorder.LoadReplay(id)
	require.NoError(t, err)
	state, err := testEngine(t, gameRules).Replay(replay)
	require.NoError(t, err)
	assert.True(t, state.IsOver())

	stats, err := m.Stats(id)
	require.NoError(t, err)
	var gained int
	for _, n := range stats["power_gained"] {
		gained += n
	}
	assert.GreaterOrEqual(t, gained, 1, "the game ended on power")
	assert.NotEmpty(t, stats["cards_played"], "scouts were played along the way")

	_, err = m.Stats("missing")
	assert.ErrorIs(t, err, ErrGameNotFound)
}
