package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/effects"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/targeting"
)

func opponentFollowers() targeting.Filter {
	return targeting.Filter{Type: string(cards.TypeFollower), Owner: targeting.OwnerOpponent}
}

func TestChooseTargetPausesAndResumes(t *testing.T) {
	h := newHarness(t,
		event("bolt", 0,
			cards.Effect{Type: cards.EffectWound, Amount: 1, Target: chooseOne(opponentFollowers())},
			cards.Effect{Type: cards.EffectGainMythium, Amount: 2},
		),
		follower("ogre", 2, 2, 2),
	)
	bolt := h.add(p1, "bolt", rules.ZoneHand)
	ogre := h.add(p2, "ogre", rules.ZoneBoard)

	res := h.act(p1, Action{Type: ActionPlayCard, CardID: bolt})
	require.NotNil(t, res.WaitingFor)
	assert.Equal(t, WaitingFor{Player: p1, Choice: ChoiceTarget}, *res.WaitingFor)
	assert.Equal(t, []string{ogre}, h.waitingFor().ValidIDs)
	assert.Equal(t, rules.ZoneDiscard, h.zone(bolt))
	assert.Equal(t, 0, h.player(p1).Mythium, "remaining effects wait for the choice")
	assert.NotEmpty(t, h.state.StepQueue)

	h.reject(p1, Action{Type: ActionChooseTarget, TargetIDs: []string{bolt}})
	h.reject(p1, Action{Type: ActionChooseTarget})
	h.reject(p2, Action{Type: ActionChooseTarget, TargetIDs: []string{ogre}})

	h.act(p1, Action{Type: ActionChooseTarget, TargetIDs: []string{ogre}})
	assert.Equal(t, 1, h.wounds(ogre))
	assert.Equal(t, 2, h.player(p1).Mythium)
	assert.Empty(t, h.state.StepQueue)
	assert.Equal(t, p2, h.state.ActivePlayer)
}

func TestTargetedEffectFizzlesWithoutTargets(t *testing.T) {
	h := newHarness(t, event("bolt", 0,
		cards.Effect{Type: cards.EffectWound, Amount: 1, Target: chooseOne(opponentFollowers())},
		cards.Effect{Type: cards.EffectGainMythium, Amount: 2},
	))
	bolt := h.add(p1, "bolt", rules.ZoneHand)

	res := h.act(p1, Action{Type: ActionPlayCard, CardID: bolt})

	assert.Nil(t, res.WaitingFor)
	assert.True(t, h.hasEvent(rules.EventEffectFizzled))
	assert.Equal(t, 2, h.player(p1).Mythium)
	assert.Equal(t, p2, h.state.ActivePlayer)
}

func TestWoundDefeatsThroughCleanup(t *testing.T) {
	h := newHarness(t,
		event("smite", 0, cards.Effect{Type: cards.EffectWound, Amount: 2, Target: chooseOne(opponentFollowers())}),
		follower("ogre", 2, 2, 2),
	)
	smite := h.add(p1, "smite", rules.ZoneHand)
	ogre := h.add(p2, "ogre", rules.ZoneBoard)

	h.act(p1, Action{Type: ActionPlayCard, CardID: smite})
	h.act(p1, Action{Type: ActionChooseTarget, TargetIDs: []string{ogre}})

	assert.Equal(t, rules.ZoneDiscard, h.zone(ogre))
	assert.Equal(t, 0, h.wounds(ogre), "counters reset off the board")
	assert.True(t, h.hasEvent(rules.EventCardDefeated))
}

func TestDiscardIsClampedToHandSize(t *testing.T) {
	h := newHarness(t, event("purge", 0, cards.Effect{Type: cards.EffectDiscard, Amount: 3, Player: cards.PlayerOpponent}))
	purge := h.add(p1, "purge", rules.ZoneHand)
	only := h.add(p2, "filler", rules.ZoneHand)

	res := h.act(p1, Action{Type: ActionPlayCard, CardID: purge})
	require.NotNil(t, res.WaitingFor)
	assert.Equal(t, WaitingFor{Player: p2, Choice: ChoiceDiscard}, *res.WaitingFor)
	assert.Equal(t, 1, h.waitingFor().Count)

	h.reject(p2, Action{Type: ActionChooseDiscard, TargetIDs: []string{only, only}})
	h.reject(p2, Action{Type: ActionChooseDiscard, TargetIDs: []string{purge}})
	h.act(p2, Action{Type: ActionChooseDiscard, TargetIDs: []string{only}})

	assert.Equal(t, rules.ZoneDiscard, h.zone(only))
	assert.Equal(t, 0, h.player(p2).HandSize)
	assert.Equal(t, p2, h.state.ActivePlayer)
}

func TestDiscardFromEmptyHandFizzles(t *testing.T) {
	h := newHarness(t, event("purge", 0, cards.Effect{Type: cards.EffectDiscard, Amount: 2, Player: cards.PlayerOpponent}))
	purge := h.add(p1, "purge", rules.ZoneHand)

	res := h.act(p1, Action{Type: ActionPlayCard, CardID: purge})

	assert.Nil(t, res.WaitingFor)
	assert.True(t, h.hasEvent(rules.EventEffectFizzled))
}

func TestChooseOneMode(t *testing.T) {
	h := newHarness(t, event("insight", 0, cards.Effect{
		Type: cards.EffectChooseOne,
		Modes: []cards.Mode{
			{Label: "wealth", Effects: []cards.Effect{{Type: cards.EffectGainMythium, Amount: 2}}},
			{Label: "glory", Effects: []cards.Effect{{Type: cards.EffectGainPower, Amount: 1}}},
		},
	}))
	id := h.add(p1, "insight", rules.ZoneHand)

	res := h.act(p1, Action{Type: ActionPlayCard, CardID: id})
	require.NotNil(t, res.WaitingFor)
	assert.Equal(t, ChoiceMode, res.WaitingFor.Choice)
	assert.Len(t, h.waitingFor().Modes, 2)

	h.reject(p1, Action{Type: ActionChooseMode, ModeIndex: 2})
	h.act(p1, Action{Type: ActionChooseMode, ModeIndex: 1})

	assert.Equal(t, 1, h.player(p1).Power)
	assert.Equal(t, 0, h.player(p1).Mythium)
}

func TestMigrateOffersEveryGuild(t *testing.T) {
	h := newHarness(t, event("pilgrimage", 0, cards.Effect{Type: cards.EffectMigrate}))
	id := h.add(p1, "pilgrimage", rules.ZoneHand)

	h.act(p1, Action{Type: ActionPlayCard, CardID: id})
	require.NotNil(t, h.waitingFor())
	require.Len(t, h.waitingFor().Modes, len(cards.Guilds))

	h.act(p1, Action{Type: ActionChooseMode, ModeIndex: 2})
	assert.Equal(t, 1, h.player(p1).Standing[cards.GuildVoid])
	assert.Equal(t, 0, h.player(p1).Standing[cards.GuildEarth])
}

func TestConditionalEffectBranches(t *testing.T) {
	rally := event("muster", 0, cards.Effect{
		Type: cards.EffectConditional,
		Condition: &cards.Condition{
			MinCount: 2,
			Filter:   &targeting.Filter{Type: string(cards.TypeFollower), Owner: targeting.OwnerController},
		},
		Then: []cards.Effect{{Type: cards.EffectGainPower, Amount: 1}},
		Else: []cards.Effect{{Type: cards.EffectGainMythium, Amount: 1}},
	})

	t.Run("condition fails", func(t *testing.T) {
		h := newHarness(t, rally)
		h.add(p1, "filler", rules.ZoneBoard)
		id := h.add(p1, "muster", rules.ZoneHand)
		h.act(p1, Action{Type: ActionPlayCard, CardID: id})
		assert.Equal(t, 0, h.player(p1).Power)
		assert.Equal(t, 1, h.player(p1).Mythium)
	})

	t.Run("condition holds", func(t *testing.T) {
		h := newHarness(t, rally)
		h.add(p1, "filler", rules.ZoneBoard)
		h.add(p1, "filler", rules.ZoneBoard)
		id := h.add(p1, "muster", rules.ZoneHand)
		h.act(p1, Action{Type: ActionPlayCard, CardID: id})
		assert.Equal(t, 1, h.player(p1).Power)
		assert.Equal(t, 0, h.player(p1).Mythium)
	})
}

func TestInitiateAttackFromEffect(t *testing.T) {
	h := newHarness(t, event("warcry", 0, cards.Effect{Type: cards.EffectInitiateAttack}), follower("scout", 1, 1, 1))
	cry := h.add(p1, "warcry", rules.ZoneHand)
	scout := h.add(p1, "scout", rules.ZoneBoard)

	res := h.act(p1, Action{Type: ActionPlayCard, CardID: cry})
	require.NotNil(t, res.WaitingFor)
	assert.Equal(t, ChoiceAttackers, res.WaitingFor.Choice)
	assert.Equal(t, []string{scout}, h.waitingFor().ValidIDs)

	res = h.act(p1, Action{Type: ActionChooseAttackers, AttackerIDs: []string{scout}})
	require.NotNil(t, res.WaitingFor)
	assert.Equal(t, WaitingFor{Player: p2, Choice: ChoiceBlockers}, *res.WaitingFor)

	h.act(p2, Action{Type: ActionPassBlock})
	assert.Equal(t, 1, h.player(p1).Power)
	assert.Equal(t, p2, h.state.ActivePlayer)
}

func TestInitiateAttackMayBeDeclined(t *testing.T) {
	h := newHarness(t, event("warcry", 0, cards.Effect{Type: cards.EffectInitiateAttack}), follower("scout", 1, 1, 1))
	cry := h.add(p1, "warcry", rules.ZoneHand)
	h.add(p1, "scout", rules.ZoneBoard)

	h.act(p1, Action{Type: ActionPlayCard, CardID: cry})
	res := h.act(p1, Action{Type: ActionChooseAttackers})

	assert.Nil(t, res.WaitingFor)
	assert.Nil(t, h.state.Combat)
	assert.Equal(t, p2, h.state.ActivePlayer)
}

func TestChooseCardOutsideBoard(t *testing.T) {
	recall := event("recall", 0, cards.Effect{
		Type:   cards.EffectReturnToHand,
		Target: chooseOne(targeting.Filter{Zone: rules.ZoneDiscard, Owner: targeting.OwnerController}),
	})
	h := newHarness(t, recall)
	id := h.add(p1, "recall", rules.ZoneHand)
	fallen := h.add(p1, "filler", rules.ZoneDiscard)

	res := h.act(p1, Action{Type: ActionPlayCard, CardID: id})
	require.NotNil(t, res.WaitingFor)
	assert.Equal(t, ChoiceCard, res.WaitingFor.Choice)
	assert.ElementsMatch(t, []string{fallen, id}, h.waitingFor().ValidIDs)

	h.act(p1, Action{Type: ActionChooseCard, TargetIDs: []string{fallen}})
	assert.Equal(t, rules.ZoneHand, h.zone(fallen))
	assert.Equal(t, 1, h.player(p1).HandSize)
}

func TestBuffExpiresAtEndOfTurn(t *testing.T) {
	squire := follower("squire", 1, 1, 1)
	squire.Abilities = []cards.AbilityDefinition{{
		Timing: cards.TimingAction,
		Effects: []cards.Effect{{
			Type:     cards.EffectBuff,
			Kind:     effects.KindStrengthBuff,
			Amount:   2,
			Duration: effects.ExpiresEndOfTurn,
			Target:   &targeting.Selector{Kind: targeting.SelectSelf},
		}},
	}}
	h := newHarness(t, squire)
	id := h.add(p1, "squire", rules.ZoneBoard)

	h.act(p1, Action{Type: ActionUseAbility, CardID: id})

	assert.Empty(t, h.state.LastingEffects)
	assert.True(t, h.hasEvent(rules.EventLastingEffect))
	assert.True(t, h.hasEvent(rules.EventEffectExpired))
	assert.True(t, h.card(id).HasUsedAbility(0))
}

func TestBuffLastsUntilEndOfRound(t *testing.T) {
	squire := follower("squire", 1, 1, 1)
	squire.Abilities = []cards.AbilityDefinition{{
		Timing: cards.TimingAction,
		Cost:   1,
		Effects: []cards.Effect{{
			Type:     cards.EffectBuff,
			Kind:     effects.KindHealthBuff,
			Amount:   3,
			Duration: effects.ExpiresEndOfRound,
			Target:   &targeting.Selector{Kind: targeting.SelectSelf},
		}},
	}}
	h := newHarness(t, squire)
	id := h.add(p1, "squire", rules.ZoneBoard)
	h.setMythium(p1, 1)

	h.act(p1, Action{Type: ActionUseAbility, CardID: id})
	require.Len(t, h.state.LastingEffects, 1)
	assert.Equal(t, 4, h.view().effectiveHealth(h.card(id)))
	assert.Equal(t, 0, h.player(p1).Mythium)
	assert.NotEmpty(t, h.state.LastingEffects[0].ID)

	h.pass(p2)
	h.setMythium(p1, 1)
	h.reject(p1, Action{Type: ActionUseAbility, CardID: id})
}

func TestExhaustAbilityRequiresReadyCard(t *testing.T) {
	mine := location("mine", 0, ability(cards.TimingAction, cards.Effect{Type: cards.EffectGainMythium}))
	mine.Abilities = []cards.AbilityDefinition{{
		Timing:  cards.TimingAction,
		Exhaust: true,
		Effects: []cards.Effect{{Type: cards.EffectGainMythium, Amount: 2}},
	}}
	h := newHarness(t, mine)
	id := h.add(p1, "mine", rules.ZoneBoard)

	h.act(p1, Action{Type: ActionUseAbility, CardID: id})
	assert.True(t, h.card(id).Exhausted)
	assert.Equal(t, 2, h.player(p1).Mythium)

	h.reject(p2, Action{Type: ActionUseAbility, CardID: id})
}

func TestDevelopLocationStages(t *testing.T) {
	h := newHarness(t, location("quarry", 0,
		ability(cards.TimingAction, cards.Effect{Type: cards.EffectGainMythium, Amount: 3}),
		ability(cards.TimingAction, cards.Effect{Type: cards.EffectGainPower, Amount: 2}),
	))
	id := h.add(p1, "quarry", rules.ZoneHand)

	h.act(p1, Action{Type: ActionPlayCard, CardID: id})
	assert.Equal(t, 2, h.card(id).Counters.Get(counters.Stage))
	h.pass(p2)

	h.act(p1, Action{Type: ActionDevelop, CardID: id})
	assert.Equal(t, 3, h.player(p1).Mythium)
	assert.Equal(t, 1, h.card(id).Counters.Get(counters.Stage))
	h.pass(p2)

	h.act(p1, Action{Type: ActionDevelop, CardID: id})
	assert.Equal(t, 2, h.player(p1).Power)
	assert.Equal(t, rules.ZoneDiscard, h.zone(id))
	assert.True(t, h.hasEvent(rules.EventLocationDepleted))
}

func TestFriendlyPlayedSkipsThePlayedCard(t *testing.T) {
	herald := follower("herald", 0, 1, 1)
	herald.Abilities = []cards.AbilityDefinition{
		ability(cards.TimingFriendlyPlayed, cards.Effect{Type: cards.EffectGainMythium, Amount: 1}),
	}
	h := newHarness(t, herald)
	first := h.add(p1, "herald", rules.ZoneHand)
	second := h.add(p1, "herald", rules.ZoneHand)

	h.act(p1, Action{Type: ActionPlayCard, CardID: first})
	assert.Equal(t, 0, h.player(p1).Mythium)
	h.pass(p2)

	h.act(p1, Action{Type: ActionPlayCard, CardID: second})
	assert.Equal(t, 1, h.player(p1).Mythium)
}

func TestFollowerDefeatedTriggersBothSides(t *testing.T) {
	mourner := follower("mourner", 0, 0, 3)
	mourner.Abilities = []cards.AbilityDefinition{
		ability(cards.TimingFollowerDefeated, cards.Effect{Type: cards.EffectGainMythium, Amount: 1}),
	}
	avenger := follower("avenger", 0, 0, 3)
	avenger.Abilities = []cards.AbilityDefinition{{
		Timing:        cards.TimingFollowerDefeated,
		TriggerFilter: &targeting.Filter{Owner: targeting.OwnerController},
		Effects:       []cards.Effect{{Type: cards.EffectGainPower, Amount: 1}},
	}}
	h := newHarness(t, mourner, avenger,
		event("smite", 0, cards.Effect{Type: cards.EffectDefeat, Target: chooseOne(opponentFollowers())}),
		follower("ogre", 2, 2, 2),
	)
	h.add(p1, "mourner", rules.ZoneBoard)
	h.add(p1, "avenger", rules.ZoneBoard)
	h.add(p2, "avenger", rules.ZoneBoard)
	smite := h.add(p1, "smite", rules.ZoneHand)
	ogre := h.add(p2, "ogre", rules.ZoneBoard)

	h.act(p1, Action{Type: ActionPlayCard, CardID: smite})
	h.act(p1, Action{Type: ActionChooseTarget, TargetIDs: []string{ogre}})

	assert.Equal(t, rules.ZoneDiscard, h.zone(ogre))
	assert.Equal(t, 1, h.player(p1).Mythium)
	assert.Equal(t, 0, h.player(p1).Power, "filter only matches the controller's own followers")
	assert.Equal(t, 1, h.player(p2).Power)
}

func TestCustomResolver(t *testing.T) {
	h := newHarness(t, event("tithe", 0, cards.Effect{Type: cards.EffectCustom, Custom: "tithe"}))
	require.NoError(t, h.resolvers.Register("tithe", func(state *GameState, ctx EffectContext) []rules.Event {
		opp := state.Player(ctx.Controller.Opponent())
		me := state.Player(ctx.Controller)
		me.Mythium += opp.Mythium
		opp.Mythium = 0
		return []rules.Event{rules.NewEvent(rules.EventMythiumGained, ctx.Controller, ctx.SourceID)}
	}))
	id := h.add(p1, "tithe", rules.ZoneHand)
	h.setMythium(p2, 3)

	h.act(p1, Action{Type: ActionPlayCard, CardID: id})

	assert.Equal(t, 3, h.player(p1).Mythium)
	assert.Equal(t, 0, h.player(p2).Mythium)
}

func TestSourceCardSelectorReachesDiscard(t *testing.T) {
	h := newHarness(t, event("echo", 0, cards.Effect{
		Type:   cards.EffectReturnToHand,
		Target: &targeting.Selector{Kind: targeting.SelectSourceCard},
	}))
	id := h.add(p1, "echo", rules.ZoneHand)

	h.act(p1, Action{Type: ActionPlayCard, CardID: id})

	assert.Equal(t, rules.ZoneHand, h.zone(id))
	assert.Equal(t, 1, h.player(p1).HandSize)
}
