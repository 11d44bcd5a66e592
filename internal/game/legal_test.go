package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

func TestLegalActionsAllValidate(t *testing.T) {
	e := replayEngine(t)
	state, err := e.CreateGameState(replayConfig(11))
	require.NoError(t, err)

	for i := 0; i < 50 && !state.IsOver(); i++ {
		legal := e.LegalActions(state)
		require.NotEmpty(t, legal)
		for _, pa := range legal {
			require.NoError(t, e.Validate(state, pa), "legal action %+v failed validation", pa)
		}
		res, err := e.ProcessAction(state, legal[i%len(legal)])
		require.NoError(t, err)
		state = res.State
	}
}

func TestLegalActionsDuringBlocks(t *testing.T) {
	h := newHarness(t, follower("scout", 1, 1, 1), follower("militia", 1, 1, 1))
	attacker := h.add(p1, "scout", rules.ZoneBoard)
	blocker := h.add(p2, "militia", rules.ZoneBoard)
	tired := h.add(p2, "militia", rules.ZoneBoard)
	h.card(tired).Exhausted = true

	h.act(p1, Action{Type: ActionAttack, AttackerIDs: []string{attacker}})

	legal := h.engine.LegalActions(h.state)
	assert.ElementsMatch(t, []PlayerAction{
		{Player: p2, Action: Action{Type: ActionDeclareBlocker, BlockerID: blocker, AttackerID: attacker}},
		{Player: p2, Action: Action{Type: ActionPassBlock}},
	}, legal)
}

func TestLegalActionsInActionPhase(t *testing.T) {
	h := newHarness(t, follower("scout", 1, 1, 1), follower("knight", 3, 2, 2))
	h.add(p1, "scout", rules.ZoneHand)
	h.add(p1, "knight", rules.ZoneHand)
	h.add(p1, "scout", rules.ZoneBoard)
	h.setMythium(p1, 1)

	counts := map[ActionType]int{}
	for _, pa := range h.engine.LegalActions(h.state) {
		assert.Equal(t, p1, pa.Player)
		counts[pa.Action.Type]++
	}
	assert.Equal(t, 1, counts[ActionGainMythium])
	assert.Equal(t, 1, counts[ActionDrawCard])
	assert.Equal(t, 1, counts[ActionPlayCard], "only the affordable card")
	assert.Equal(t, 1, counts[ActionAttack])
	assert.Zero(t, counts[ActionDevelop])
}

func TestCombinationsAndSubsets(t *testing.T) {
	assert.Equal(t, [][]string{{"a", "b"}, {"a", "c"}, {"b", "c"}}, combinations([]string{"a", "b", "c"}, 2))
	assert.Len(t, combinations([]string{"a"}, 0), 1)
	assert.Nil(t, combinations([]string{"a"}, 2))
	assert.Len(t, subsets([]string{"a", "b", "c"}), 8)
	assert.Len(t, attackSets([]string{"a", "b", "c"}), 8)
}

func TestLargeBoardListsBoundedAttackGroups(t *testing.T) {
	h := newHarness(t)
	var ids []string
	for i := 0; i < maxListedAttackers+5; i++ {
		ids = append(ids, h.add(p1, "filler", rules.ZoneBoard))
	}

	var attacks []PlayerAction
	for _, pa := range h.engine.LegalActions(h.state) {
		if pa.Action.Type == ActionAttack {
			attacks = append(attacks, pa)
		}
	}
	require.Len(t, attacks, len(ids)+1)
	assert.Equal(t, ids, attacks[len(attacks)-1].Action.AttackerIDs)

	// Groups that are not listed are still accepted.
	h.act(p1, Action{Type: ActionAttack, AttackerIDs: ids[:3]})
	for i, id := range ids {
		assert.Equal(t, i < 3, h.card(id).Exhausted, "attacker %d", i)
	}
}
