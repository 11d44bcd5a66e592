package game

import (
	"go.uber.org/zap"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// StepKind discriminates Step.
type StepKind string

const (
	StepResolveAbility        StepKind = "resolve_ability"
	StepResolveEffects        StepKind = "resolve_effects"
	StepCleanup               StepKind = "cleanup"
	StepCheckTriggers         StepKind = "check_triggers"
	StepFireTrigger           StepKind = "fire_trigger"
	StepInitiateAttack        StepKind = "initiate_attack"
	StepCombatDeclareBlockers StepKind = "combat_declare_blockers"
	StepCombatBlock           StepKind = "combat_block"
	StepCombatAfterBlock      StepKind = "combat_after_block"
	StepCombatResume          StepKind = "combat_resume"
	StepCombatBreach          StepKind = "combat_breach"
	StepCombatBreachPower     StepKind = "combat_breach_power"
	StepCombatPowerResponses  StepKind = "combat_power_responses"
	StepCombatBreachTarget    StepKind = "combat_breach_target"
	StepCombatBreachDamage    StepKind = "combat_breach_damage"
	StepCombatEnd             StepKind = "combat_end"
	StepGainMythium           StepKind = "gain_mythium"
	StepDrawCard              StepKind = "draw_card"
	StepPlayCard              StepKind = "play_card"
	StepDevelop               StepKind = "develop"
	StepAdvanceTurn           StepKind = "advance_turn"
	StepRallyTriggers         StepKind = "rally_triggers"
	StepRallyReady            StepKind = "rally_ready"
	StepRallyIncome           StepKind = "rally_income"
	StepRallyDraw             StepKind = "rally_draw"
	StepRallyVictory          StepKind = "rally_victory"
	StepRallyEnd              StepKind = "rally_end"
)

// Step is one unit of queued work. The queue of pending steps is stored on
// the state, so resolution can stop at a player decision and pick up again
// on a later call.
type Step struct {
	Kind         StepKind       `json:"kind"`
	Player       rules.PlayerID `json:"player,omitempty"`
	CardID       string         `json:"cardId,omitempty"`
	AbilityIndex int            `json:"abilityIndex,omitempty"`
	Stage        bool           `json:"stage,omitempty"`
	Timing       cards.Timing   `json:"timing,omitempty"`
	RestrictTo   []string       `json:"restrictTo,omitempty"`
	AttackerIDs  []string       `json:"attackerIds,omitempty"`
	AttackerID   string         `json:"attackerId,omitempty"`
	BlockerID    string         `json:"blockerId,omitempty"`
	TargetID     string         `json:"targetId,omitempty"`
	Effects      []cards.Effect `json:"effects,omitempty"`
	Context      *EffectContext `json:"context,omitempty"`
}

func (st Step) clone() Step {
	st.RestrictTo = append([]string(nil), st.RestrictTo...)
	st.AttackerIDs = append([]string(nil), st.AttackerIDs...)
	if st.Context != nil {
		ctx := st.Context.clone()
		st.Context = &ctx
	}
	return st
}

func (st Step) ctx() EffectContext {
	if st.Context == nil {
		return EffectContext{Controller: st.Player}
	}
	return *st.Context
}

func checkTriggersStep(timing cards.Timing, player rules.PlayerID, ctx EffectContext, restrictTo []string) Step {
	return Step{Kind: StepCheckTriggers, Timing: timing, Player: player, Context: &ctx, RestrictTo: restrictTo}
}

func resolveEffectsStep(list []cards.Effect, ctx EffectContext) Step {
	return Step{Kind: StepResolveEffects, Player: ctx.Controller, Effects: list, Context: &ctx}
}

func cleanupStep() Step {
	return Step{Kind: StepCleanup}
}

// drain runs queued steps until the queue is empty, a pending choice
// appears, or the game ends. A paused queue is stored on the state.
func (x *execution) drain(queue []Step) {
	for len(queue) > 0 {
		if x.s.IsOver() {
			queue = nil
			break
		}
		step := queue[0]
		queue = queue[1:]

		prepend := x.execute(step)
		if len(prepend) > 0 {
			queue = append(prepend, queue...)
		}

		if x.s.PendingChoice != nil {
			x.s.StepQueue = queue
			return
		}
	}
	x.s.StepQueue = nil
}

// execute runs one step and returns the steps to run before the rest of the
// queue.
func (x *execution) execute(step Step) []Step {
	x.engine.logger.Debug("executing step",
		zap.String("kind", string(step.Kind)),
		zap.String("player", string(step.Player)),
		zap.String("card_id", step.CardID),
	)

	switch step.Kind {
	case StepResolveAbility:
		return x.resolveAbility(step)
	case StepResolveEffects:
		return x.resolveEffects(step.Effects, step.ctx())
	case StepCleanup:
		return x.cleanup()
	case StepCheckTriggers:
		return x.checkTriggers(step)
	case StepFireTrigger:
		return x.fireTrigger(step)
	case StepInitiateAttack:
		return x.initiateAttack(step.Player, step.AttackerIDs, step.ctx())
	case StepCombatDeclareBlockers:
		return x.combatDeclareBlockers()
	case StepCombatBlock:
		return x.combatBlock(step.BlockerID, step.AttackerID)
	case StepCombatAfterBlock:
		return x.combatAfterBlock(step.BlockerID, step.AttackerID)
	case StepCombatResume:
		return x.combatResume()
	case StepCombatBreach:
		return x.combatBreach()
	case StepCombatBreachPower:
		return x.combatBreachPower()
	case StepCombatPowerResponses:
		return x.combatPowerResponses()
	case StepCombatBreachTarget:
		return x.combatBreachTarget()
	case StepCombatBreachDamage:
		return x.combatBreachDamage(step.TargetID)
	case StepCombatEnd:
		return x.combatEnd()
	case StepGainMythium:
		x.gainMythium(step.Player, 1)
		return nil
	case StepDrawCard:
		x.spendMythium(step.Player, x.s.Rules.DrawCardCost)
		x.drawCards(step.Player, 1)
		return nil
	case StepPlayCard:
		return x.playCard(step.Player, step.CardID)
	case StepDevelop:
		return x.develop(step.Player, step.CardID)
	case StepAdvanceTurn:
		return x.advanceTurn()
	case StepRallyTriggers:
		return []Step{checkTriggersStep(cards.TimingRally, step.Player, EffectContext{Controller: step.Player}, nil)}
	case StepRallyReady:
		x.rallyReady(step.Player)
		return nil
	case StepRallyIncome:
		x.gainMythium(step.Player, x.s.Rules.RallyIncome)
		return nil
	case StepRallyDraw:
		x.rallyDraw(step.Player)
		return nil
	case StepRallyVictory:
		x.rallyVictory()
		return nil
	case StepRallyEnd:
		x.rallyEnd()
		return nil
	default:
		engineBug("unknown step kind %q", step.Kind)
		return nil
	}
}
