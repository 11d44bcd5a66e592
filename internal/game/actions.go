package game

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// ActionType discriminates Action.
type ActionType string

const (
	// Action phase
	ActionGainMythium ActionType = "gain_mythium"
	ActionDrawCard    ActionType = "draw_card"
	ActionPlayCard    ActionType = "play_card"
	ActionDevelop     ActionType = "develop"
	ActionUseAbility  ActionType = "use_ability"
	ActionAttack      ActionType = "attack"

	// Responses to a pending choice
	ActionDeclareBlocker     ActionType = "declare_blocker"
	ActionPassBlock          ActionType = "pass_block"
	ActionChooseTarget       ActionType = "choose_target"
	ActionChooseDiscard      ActionType = "choose_discard"
	ActionChooseBreachTarget ActionType = "choose_breach_target"
	ActionPass               ActionType = "pass"
	ActionChooseMode         ActionType = "choose_mode"
	ActionChooseAttackers    ActionType = "choose_attackers"
	ActionChooseCard         ActionType = "choose_card"
)

// Action is a player decision. Which fields apply depends on Type.
type Action struct {
	Type         ActionType `json:"type"`
	CardID       string     `json:"cardId,omitempty"`
	AbilityIndex int        `json:"abilityIndex,omitempty"`
	AttackerIDs  []string   `json:"attackerIds,omitempty"`
	BlockerID    string     `json:"blockerId,omitempty"`
	AttackerID   string     `json:"attackerId,omitempty"`
	TargetIDs    []string   `json:"targetIds,omitempty"`
	TargetID     string     `json:"targetId,omitempty"`
	ModeIndex    int        `json:"modeIndex,omitempty"`
}

// PlayerAction is an action submitted by a player.
type PlayerAction struct {
	Player rules.PlayerID `json:"player"`
	Action Action         `json:"action"`
}

// actionSteps turns a validated action-phase action into queued work.
func (x *execution) actionSteps(pa PlayerAction) []Step {
	a := pa.Action
	switch a.Type {
	case ActionGainMythium:
		return []Step{{Kind: StepGainMythium, Player: pa.Player}}
	case ActionDrawCard:
		return []Step{{Kind: StepDrawCard, Player: pa.Player}}
	case ActionPlayCard:
		return []Step{{Kind: StepPlayCard, Player: pa.Player, CardID: a.CardID}}
	case ActionDevelop:
		return []Step{{Kind: StepDevelop, Player: pa.Player, CardID: a.CardID}}
	case ActionUseAbility:
		return x.useAbility(pa.Player, a.CardID, a.AbilityIndex)
	case ActionAttack:
		ctx := EffectContext{Controller: pa.Player}
		return []Step{{Kind: StepInitiateAttack, Player: pa.Player, AttackerIDs: append([]string(nil), a.AttackerIDs...), Context: &ctx}}
	default:
		engineBug("action %q is not an action-phase action", a.Type)
		return nil
	}
}

func (x *execution) playCard(player rules.PlayerID, id string) []Step {
	c := x.card(id)
	def := x.def(c)
	x.spendMythium(player, x.playCost(player, c, 0))
	x.emit(rules.NewEvent(rules.EventCardPlayed, player, id))

	ctx := EffectContext{Controller: player, SourceID: id, TriggeringID: id}
	var steps []Step
	switch def.Type {
	case cards.TypeFollower, cards.TypeLocation:
		x.moveCard(c, rules.ZoneBoard)
		if def.Type == cards.TypeLocation {
			x.addCounter(c, counters.Stage, len(def.Stages))
		}
		for _, guild := range cards.Guilds {
			x.gainStanding(player, guild, def.StandingGain[guild])
		}
		steps = append(steps, checkTriggersStep(cards.TimingPlayed, player, ctx, []string{id}))
	case cards.TypeEvent:
		x.moveCard(c, rules.ZoneDiscard)
		for i, ability := range def.Abilities {
			if ability.Timing == cards.TimingPlayed {
				abilityCtx := ctx
				steps = append(steps, Step{Kind: StepResolveAbility, Player: player, CardID: id, AbilityIndex: i, Context: &abilityCtx})
			}
		}
	default:
		engineBug("card %s of type %s cannot be played", id, def.Type)
	}
	steps = append(steps, checkTriggersStep(cards.TimingFriendlyPlayed, player, ctx, nil))
	return append(steps, cleanupStep())
}

// develop spends a stage counter and resolves that stage's ability.
func (x *execution) develop(player rules.PlayerID, id string) []Step {
	c := x.card(id)
	def := x.def(c)
	x.spendMythium(player, def.DevelopCost)

	remaining := c.Counters.Get(counters.Stage)
	stage := len(def.Stages) - remaining
	if stage < 0 {
		stage = 0
	}
	if stage >= len(def.Stages) {
		engineBug("location %s has no stage left to develop", id)
	}
	x.removeCounter(c, counters.Stage, 1)
	x.emit(rules.NewEventWithAmount(rules.EventLocationDevelop, player, id, stage+1))

	ctx := EffectContext{Controller: player, SourceID: id}
	return []Step{{Kind: StepResolveAbility, Player: player, CardID: id, AbilityIndex: stage, Stage: true, Context: &ctx}}
}

func (x *execution) useAbility(player rules.PlayerID, id string, index int) []Step {
	c := x.card(id)
	ability := x.ability(c, index, false)
	x.spendMythium(player, ability.Cost)
	if ability.Exhaust {
		x.exhaust(c)
	}
	c.markAbilityUsed(index)
	x.touch()
	x.emit(rules.NewEventWithAmount(rules.EventAbilityUsed, player, id, index))

	ctx := EffectContext{Controller: player, SourceID: id}
	return []Step{{Kind: StepResolveAbility, Player: player, CardID: id, AbilityIndex: index, Context: &ctx}}
}

// respond resolves the pending choice with a validated response and returns
// the steps that run ahead of the stored queue.
func (x *execution) respond(pa PlayerAction) []Step {
	a := pa.Action
	pc := x.clearPendingChoice()

	switch a.Type {
	case ActionDeclareBlocker:
		return []Step{{Kind: StepCombatBlock, Player: pa.Player, BlockerID: a.BlockerID, AttackerID: a.AttackerID}}
	case ActionPassBlock:
		x.emit(rules.NewEvent(rules.EventBlockPassed, pa.Player, ""))
		return []Step{{Kind: StepCombatBreach}}
	case ActionChooseTarget, ActionChooseCard:
		ctx := pc.Context.clone()
		ctx.ChosenTargets = append([]string{}, a.TargetIDs...)
		list := concatEffects([]cards.Effect{*pc.Effect}, pc.Remaining)
		return []Step{resolveEffectsStep(list, ctx)}
	case ActionChooseDiscard:
		for _, id := range a.TargetIDs {
			x.moveCard(x.card(id), rules.ZoneDiscard)
			x.emit(rules.NewEvent(rules.EventCardDiscarded, pc.Player, id))
		}
		if len(pc.Remaining) == 0 {
			return nil
		}
		return []Step{resolveEffectsStep(pc.Remaining, pc.Context)}
	case ActionChooseBreachTarget:
		return []Step{{Kind: StepCombatBreachDamage, Player: pa.Player, TargetID: a.TargetID}}
	case ActionPass:
		return nil
	case ActionChooseMode:
		list := concatEffects(pc.Modes[a.ModeIndex].Effects, pc.Remaining)
		return []Step{resolveEffectsStep(list, pc.Context)}
	case ActionChooseAttackers:
		var steps []Step
		if len(a.AttackerIDs) > 0 {
			ctx := pc.Context
			steps = append(steps, Step{Kind: StepInitiateAttack, Player: pc.Player, AttackerIDs: append([]string(nil), a.AttackerIDs...), Context: &ctx})
		}
		if len(pc.Remaining) > 0 {
			steps = append(steps, resolveEffectsStep(pc.Remaining, pc.Context))
		}
		return steps
	default:
		engineBug("action %q cannot answer %s", a.Type, pc.Type)
		return nil
	}
}
