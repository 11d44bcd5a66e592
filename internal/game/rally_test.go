package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

func TestRallyCadence(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, 1, h.state.Round)
	require.Equal(t, p1, h.state.FirstPlayer)

	for i := 0; i < 8; i++ {
		expected := p1
		if i%2 == 1 {
			expected = p2
		}
		require.Equal(t, expected, h.state.ActivePlayer, "action %d", i)
		h.pass(expected)
	}

	assert.Equal(t, 2, h.state.Round)
	assert.Equal(t, 0, h.state.ActionsTaken)
	assert.Equal(t, p2, h.state.FirstPlayer)
	assert.Equal(t, p2, h.state.ActivePlayer)
	assert.Equal(t, rules.PhaseAction, h.state.Phase)
	assert.Equal(t, 6, h.player(p1).Mythium)
	assert.Equal(t, 6, h.player(p2).Mythium)
	assert.Equal(t, 1, h.player(p1).HandSize)
	assert.Equal(t, 1, h.player(p2).HandSize)
	assert.True(t, h.hasEvent(rules.EventRallyStarted))
	assert.True(t, h.hasEvent(rules.EventRoundStarted))
}

// passRound spends the remaining actions of the round.
func passRound(h *gameHarness) {
	for h.state.ActionsTaken < h.state.Rules.ActionsPerRound && !h.state.IsOver() {
		round := h.state.Round
		h.pass(h.state.ActivePlayer)
		if h.state.Round != round {
			return
		}
	}
}

func TestRallyReadiesAndConsumesStun(t *testing.T) {
	h := newHarness(t)
	tired := h.add(p1, "filler", rules.ZoneBoard)
	stunned := h.add(p2, "filler", rules.ZoneBoard)
	h.card(tired).Exhausted = true
	h.card(stunned).Exhausted = true
	h.card(stunned).Counters.Add(counters.Stun, 1)

	passRound(h)

	assert.False(t, h.card(tired).Exhausted)
	assert.True(t, h.card(stunned).Exhausted)
	assert.Equal(t, 0, h.card(stunned).Counters.Get(counters.Stun))
	assert.True(t, h.hasEvent(rules.EventStunConsumed))

	passRound(h)
	assert.False(t, h.card(stunned).Exhausted)
}

func TestRallyResetsUsedAbilities(t *testing.T) {
	well := follower("well", 0, 0, 1)
	well.Abilities = []cards.AbilityDefinition{
		ability(cards.TimingAction, cards.Effect{Type: cards.EffectGainMythium, Amount: 1}),
	}
	h := newHarness(t, well)
	id := h.add(p1, "well", rules.ZoneBoard)

	h.act(p1, Action{Type: ActionUseAbility, CardID: id})
	require.True(t, h.card(id).HasUsedAbility(0))

	passRound(h)
	assert.False(t, h.card(id).HasUsedAbility(0))
}

func TestReturnedFollowerCanUseAbilityAgain(t *testing.T) {
	well := follower("well", 0, 0, 1)
	well.Abilities = []cards.AbilityDefinition{
		ability(cards.TimingAction, cards.Effect{Type: cards.EffectGainMythium, Amount: 1}),
	}
	recall := event("recall", 0, cards.Effect{Type: cards.EffectReturnToHand, Target: chooseOne(opponentFollowers())})
	h := newHarness(t, well, recall)
	id := h.add(p1, "well", rules.ZoneBoard)
	bounce := h.add(p2, "recall", rules.ZoneHand)

	h.act(p1, Action{Type: ActionUseAbility, CardID: id})
	require.True(t, h.card(id).HasUsedAbility(0))

	if res := h.act(p2, Action{Type: ActionPlayCard, CardID: bounce}); res.WaitingFor != nil {
		h.act(p2, Action{Type: ActionChooseTarget, TargetIDs: []string{id}})
	}
	require.Equal(t, rules.ZoneHand, h.zone(id))
	assert.False(t, h.card(id).HasUsedAbility(0), "leaving the board clears used abilities")

	passRound(h)
	require.Equal(t, 2, h.state.Round)
	require.Equal(t, p2, h.state.ActivePlayer)

	h.pass(p2)
	h.act(p1, Action{Type: ActionPlayCard, CardID: id})
	h.pass(p2)
	assert.Contains(t, h.engine.LegalActions(h.state),
		PlayerAction{Player: p1, Action: Action{Type: ActionUseAbility, CardID: id}})
	h.act(p1, Action{Type: ActionUseAbility, CardID: id})
	assert.True(t, h.card(id).HasUsedAbility(0))
}

func TestRallyResetsUsedAbilitiesOffTheBoard(t *testing.T) {
	h := newHarness(t)
	held := h.add(p1, "filler", rules.ZoneHand)
	h.card(held).UsedAbilities = []int{0}

	passRound(h)
	assert.False(t, h.card(held).HasUsedAbility(0))
}

func TestRallyTriggersRunForBothPlayers(t *testing.T) {
	wb := basicWorldbreaker("steward", ability(cards.TimingRally, cards.Effect{Type: cards.EffectGainPower, Amount: 1}))
	h := newHarness(t, wb)

	passRound(h)

	assert.Equal(t, 1, h.player(p1).Power)
	assert.Equal(t, 0, h.player(p2).Power)
}

func TestEmptyDeckAtRallyFeedsOpponent(t *testing.T) {
	h := newHarness(t)
	for _, c := range h.state.CardsIn(p1, rules.ZoneDeck) {
		c.Zone = rules.ZoneRemoved
	}

	passRound(h)

	assert.Equal(t, 1, h.player(p2).Power)
	assert.Equal(t, 0, h.player(p1).HandSize)
	assert.True(t, h.hasEvent(rules.EventDeckEmpty))
}

func TestVictoryAtRally(t *testing.T) {
	tests := []struct {
		name   string
		power1 int
		power2 int
		winner rules.PlayerID
		draw   bool
	}{
		{"player one reaches threshold", 10, 3, p1, false},
		{"player two reaches threshold", 2, 11, p2, false},
		{"higher power wins when both reach it", 12, 10, p1, false},
		{"equal power is a draw", 10, 10, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.player(p1).Power = tt.power1
			h.player(p2).Power = tt.power2

			passRound(h)

			assert.True(t, h.state.IsOver())
			assert.Equal(t, tt.draw, h.state.Draw)
			if tt.winner == "" {
				assert.Nil(t, h.state.Winner)
			} else {
				require.NotNil(t, h.state.Winner)
				assert.Equal(t, tt.winner, *h.state.Winner)
			}
			assert.Equal(t, 1, h.state.Round, "round does not advance after the game ends")
			assert.Empty(t, h.engine.LegalActions(h.state))
			assert.True(t, h.hasEvent(rules.EventGameOver))
		})
	}
}

func TestNoVictoryBelowThreshold(t *testing.T) {
	h := newHarness(t)
	h.player(p1).Power = 9

	passRound(h)

	assert.False(t, h.state.IsOver())
	assert.Equal(t, 2, h.state.Round)
}
