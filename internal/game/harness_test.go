package game

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/targeting"
)

const (
	p1 = rules.Player1
	p2 = rules.Player2
)

// gameHarness drives one game through the public engine API and lets tests
// place cards directly.
type gameHarness struct {
	t         *testing.T
	engine    *Engine
	resolvers *ResolverRegistry
	state     *GameState
	events    []rules.Event
	next      int
}

func basicWorldbreaker(id string, abilities ...cards.AbilityDefinition) cards.CardDefinition {
	return cards.CardDefinition{ID: id, Name: id, Type: cards.TypeWorldbreaker, Abilities: abilities}
}

func follower(id string, cost, strength, health int, keywords ...cards.KeywordGrant) cards.CardDefinition {
	return cards.CardDefinition{
		ID:       id,
		Name:     id,
		Type:     cards.TypeFollower,
		Cost:     cost,
		Strength: strength,
		Health:   health,
		Keywords: keywords,
	}
}

func location(id string, cost int, stages ...cards.AbilityDefinition) cards.CardDefinition {
	return cards.CardDefinition{ID: id, Name: id, Type: cards.TypeLocation, Cost: cost, Stages: stages}
}

func event(id string, cost int, effects ...cards.Effect) cards.CardDefinition {
	return cards.CardDefinition{
		ID:        id,
		Name:      id,
		Type:      cards.TypeEvent,
		Cost:      cost,
		Abilities: []cards.AbilityDefinition{{Timing: cards.TimingPlayed, Effects: effects}},
	}
}

func kw(name string) cards.KeywordGrant {
	return cards.KeywordGrant{Name: name}
}

func ability(timing cards.Timing, effects ...cards.Effect) cards.AbilityDefinition {
	return cards.AbilityDefinition{Timing: timing, Effects: effects}
}

func chooseOne(filter targeting.Filter) *targeting.Selector {
	return &targeting.Selector{Kind: targeting.SelectChoose, Filter: &filter, Count: 1}
}

func harnessRules() Rules {
	r := DefaultRules()
	r.OpeningHandSize = 0
	return r
}

// newHarness registers the given definitions next to a plain worldbreaker
// and a filler follower, and starts a game with empty hands and six-card
// decks of fillers.
func newHarness(t *testing.T, defs ...cards.CardDefinition) *gameHarness {
	return newHarnessWithRules(t, harnessRules(), defs...)
}

func newHarnessWithRules(t *testing.T, gameRules Rules, defs ...cards.CardDefinition) *gameHarness {
	t.Helper()
	registry := cards.NewRegistry()
	base := []cards.CardDefinition{
		basicWorldbreaker("wb-basic"),
		follower("filler", 1, 1, 1),
	}
	for _, def := range append(base, defs...) {
		if _, err := registry.Get(def.ID); err == nil {
			continue
		}
		require.NoError(t, registry.Register(def))
	}

	resolvers := NewResolverRegistry()
	engine := NewEngine(zaptest.NewLogger(t), registry, resolvers, gameRules)

	wb := map[rules.PlayerID]string{p1: "wb-basic", p2: "wb-basic"}
	for _, def := range defs {
		if def.Type == cards.TypeWorldbreaker {
			wb[p1] = def.ID
		}
	}
	deck := []string{"filler", "filler", "filler", "filler", "filler", "filler"}
	state, err := engine.CreateGameState(GameConfig{
		Seed: 42,
		Decks: map[rules.PlayerID]DeckConfig{
			p1: {Worldbreaker: wb[p1], Cards: deck},
			p2: {Worldbreaker: wb[p2], Cards: deck},
		},
	})
	require.NoError(t, err)

	return &gameHarness{t: t, engine: engine, resolvers: resolvers, state: state}
}

// add places a new card instance directly into a zone. Locations entering
// the board get their stage counters.
func (h *gameHarness) add(player rules.PlayerID, defID string, zone rules.Zone) string {
	h.t.Helper()
	def, err := h.engine.Cards().Get(defID)
	require.NoError(h.t, err)

	h.next++
	id := fmt.Sprintf("%s-t%02d", player, h.next)
	c := &CardInstance{
		InstanceID:   id,
		DefinitionID: defID,
		Owner:        player,
		Zone:         zone,
		Counters:     counters.New(),
	}
	if zone == rules.ZoneBoard && def.Type == cards.TypeLocation {
		c.Counters.Set(counters.Stage, len(def.Stages))
	}
	h.state.Cards = append(h.state.Cards, c)
	h.recount()
	return id
}

func (h *gameHarness) recount() {
	for _, p := range rules.Players {
		h.state.Player(p).HandSize = len(h.state.CardsIn(p, rules.ZoneHand))
	}
}

func (h *gameHarness) setMythium(player rules.PlayerID, amount int) {
	h.state.Player(player).Mythium = amount
}

func (h *gameHarness) player(player rules.PlayerID) *PlayerState {
	return h.state.Player(player)
}

func (h *gameHarness) card(id string) *CardInstance {
	h.t.Helper()
	c, ok := h.state.Card(id)
	require.True(h.t, ok, "card %s not found", id)
	return c
}

func (h *gameHarness) zone(id string) rules.Zone {
	return h.card(id).Zone
}

func (h *gameHarness) wounds(id string) int {
	return h.card(id).Counters.Get(counters.Wound)
}

func (h *gameHarness) view() view {
	return view{s: h.state, cards: h.engine.Cards()}
}

// act submits an action that must be accepted, and checks that the input
// state was left untouched and the version moved forward.
func (h *gameHarness) act(player rules.PlayerID, a Action) *Result {
	h.t.Helper()
	before, err := ComputeChecksum(h.state)
	require.NoError(h.t, err)

	res, err := h.engine.ProcessAction(h.state, PlayerAction{Player: player, Action: a})
	require.NoError(h.t, err)

	after, err := ComputeChecksum(h.state)
	require.NoError(h.t, err)
	require.Equal(h.t, before.Hash, after.Hash, "input state was modified")
	require.Greater(h.t, res.State.Version, h.state.Version)

	h.state = res.State
	h.events = res.Events
	return res
}

// reject submits an action that must fail validation without side effects.
func (h *gameHarness) reject(player rules.PlayerID, a Action) *InvalidActionError {
	h.t.Helper()
	before, err := ComputeChecksum(h.state)
	require.NoError(h.t, err)

	res, err := h.engine.ProcessAction(h.state, PlayerAction{Player: player, Action: a})
	require.Error(h.t, err)
	require.Nil(h.t, res)

	var invalidErr *InvalidActionError
	require.True(h.t, errors.As(err, &invalidErr), "expected InvalidActionError, got %v", err)

	after, err := ComputeChecksum(h.state)
	require.NoError(h.t, err)
	require.Equal(h.t, before.Hash, after.Hash)
	return invalidErr
}

// pass spends an action with gain_mythium.
func (h *gameHarness) pass(player rules.PlayerID) {
	h.t.Helper()
	h.act(player, Action{Type: ActionGainMythium})
}

func (h *gameHarness) waitingFor() *PendingChoice {
	return h.state.PendingChoice
}

func (h *gameHarness) hasEvent(eventType rules.EventType) bool {
	for _, evt := range h.events {
		if evt.Type == eventType {
			return true
		}
	}
	return false
}
