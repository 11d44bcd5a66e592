package game

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/effects"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// Combat runs resolve_attack_abilities, then declare_blockers one pair at a
// time, then breach, then ends.

func (x *execution) initiateAttack(player rules.PlayerID, ids []string, ctx EffectContext) []Step {
	if x.s.Combat != nil {
		engineBug("attack initiated while combat is active")
	}
	var attackers []string
	for _, id := range ids {
		if c, ok := x.s.Card(id); ok && x.canAttack(player, c) {
			attackers = append(attackers, id)
		}
	}
	if len(attackers) == 0 {
		evt := rules.NewEvent(rules.EventEffectFizzled, player, ctx.SourceID)
		evt.Detail = string(StepInitiateAttack)
		x.emit(evt)
		return nil
	}

	x.s.Combat = &CombatState{
		Step:            rules.CombatResolveAttackAbilities,
		AttackingPlayer: player,
		AttackerIDs:     attackers,
	}
	x.touch()
	for _, id := range attackers {
		c := x.card(id)
		x.exhaust(c)
		x.emit(rules.NewEvent(rules.EventAttackDeclared, player, id))
	}

	steps := []Step{checkTriggersStep(cards.TimingYourAttack, player, EffectContext{Controller: player}, nil)}
	for _, id := range attackers {
		steps = append(steps, checkTriggersStep(cards.TimingAttacks, player,
			EffectContext{Controller: player, TriggeringID: id}, []string{id}))
	}
	return append(steps, Step{Kind: StepCombatDeclareBlockers})
}

func (x *execution) offerBlocks() {
	combat := x.s.Combat
	combat.Step = rules.CombatDeclareBlockers
	x.setPendingChoice(&PendingChoice{
		Type:        ChoiceBlockers,
		Player:      combat.Defender(),
		AttackerIDs: append([]string(nil), combat.AttackerIDs...),
		Context:     EffectContext{Controller: combat.Defender()},
	})
}

func (x *execution) combatDeclareBlockers() []Step {
	if x.s.Combat == nil {
		return nil
	}
	x.s.Combat.AttackerIDs = x.livingAttackers()
	if len(x.s.Combat.AttackerIDs) == 0 {
		return []Step{{Kind: StepCombatBreach}}
	}
	x.offerBlocks()
	return nil
}

// combatBlock resolves one blocker/attacker pair. The attacker leaves the
// attacker list whether or not either card survives.
func (x *execution) combatBlock(blockerID, attackerID string) []Step {
	combat := x.s.Combat
	if combat == nil {
		engineBug("block declared outside combat")
	}
	blocker := x.card(blockerID)
	attacker := x.card(attackerID)

	x.exhaust(blocker)
	declared := rules.NewEvent(rules.EventBlockerDeclared, blocker.Owner, blockerID)
	declared.TargetID = attackerID
	x.emit(declared)

	attackerStrength := x.effectiveStrength(attacker)
	blockerStrength := x.effectiveStrength(blocker)
	toBlocker := attackerStrength + x.keywordAmount(attacker, cards.KeywordBloodshed)
	toAttacker := blockerStrength

	x.addCounter(blocker, counters.Wound, toBlocker)
	x.addCounter(attacker, counters.Wound, toAttacker)
	x.applyLethal(attacker, blocker, toBlocker)
	x.applyLethal(blocker, attacker, toAttacker)

	fight := rules.NewEventWithAmount(rules.EventFight, attacker.Owner, attackerID, toBlocker)
	fight.TargetID = blockerID
	x.emit(fight)

	combat.DamageDealt += toBlocker + toAttacker
	combat.AttackerIDs = without(combat.AttackerIDs, attackerID)
	x.touch()

	return []Step{
		cleanupStep(),
		{Kind: StepCombatAfterBlock, BlockerID: blockerID, AttackerID: attackerID},
	}
}

// applyLethal tops up wounds so any damage from a lethal source defeats.
func (x *execution) applyLethal(source, target *CardInstance, dealt int) {
	if dealt <= 0 || !x.hasKeyword(source, cards.KeywordLethal) {
		return
	}
	missing := x.effectiveHealth(target) - target.Counters.Get(counters.Wound)
	x.addCounter(target, counters.Wound, missing)
}

// combatAfterBlock fires the overwhelm ability of exactly this attacker when
// it defeated its blocker and survived.
func (x *execution) combatAfterBlock(blockerID, attackerID string) []Step {
	combat := x.s.Combat
	if combat == nil {
		return nil
	}
	blocker := x.card(blockerID)
	attacker := x.card(attackerID)

	var steps []Step
	if blocker.Zone != rules.ZoneBoard && attacker.Zone == rules.ZoneBoard && x.hasKeyword(attacker, cards.KeywordOverwhelm) {
		ctx := EffectContext{Controller: combat.AttackingPlayer, TriggeringID: blockerID}
		steps = append(steps, checkTriggersStep(cards.TimingOverwhelms, combat.AttackingPlayer, ctx, []string{attackerID}))
	}
	return append(steps, Step{Kind: StepCombatResume})
}

func (x *execution) combatResume() []Step {
	if x.s.Combat == nil {
		return nil
	}
	x.s.Combat.AttackerIDs = x.livingAttackers()
	if len(x.s.Combat.AttackerIDs) > 0 && x.anyLegalBlock() {
		x.offerBlocks()
		return nil
	}
	return []Step{{Kind: StepCombatBreach}}
}

func (x *execution) combatBreach() []Step {
	combat := x.s.Combat
	if combat == nil {
		return nil
	}
	combat.AttackerIDs = x.livingAttackers()
	combat.Step = rules.CombatBreach
	x.touch()
	if len(combat.AttackerIDs) == 0 {
		return []Step{{Kind: StepCombatEnd}}
	}

	x.emit(rules.NewEventWithAmount(rules.EventBreach, combat.AttackingPlayer, "", len(combat.AttackerIDs)))

	restrict := append(x.worldbreakerIDs(combat.AttackingPlayer), combat.AttackerIDs...)
	ctx := EffectContext{Controller: combat.AttackingPlayer}
	return []Step{
		checkTriggersStep(cards.TimingBreach, combat.AttackingPlayer, ctx, restrict),
		{Kind: StepCombatBreachPower},
		{Kind: StepCombatPowerResponses},
		{Kind: StepCombatBreachTarget},
		{Kind: StepCombatEnd},
	}
}

// combatBreachPower grants one power per breaching attacker still alive.
func (x *execution) combatBreachPower() []Step {
	combat := x.s.Combat
	if combat == nil {
		return nil
	}
	combat.AttackerIDs = x.livingAttackers()
	gained := len(combat.AttackerIDs)
	if gained == 0 {
		return nil
	}
	x.gainPower(combat.AttackingPlayer, gained)
	combat.PowerGained += gained
	return nil
}

// combatPowerResponses fires and consumes on_power_gain hooks.
func (x *execution) combatPowerResponses() []Step {
	combat := x.s.Combat
	if combat == nil || combat.PowerGained == 0 {
		return nil
	}
	var fired, kept []CombatResponse
	for _, resp := range x.s.CombatResponses {
		if resp.Timing == cards.TimingOnPowerGain {
			fired = append(fired, resp)
			continue
		}
		kept = append(kept, resp)
	}
	if len(fired) == 0 {
		return nil
	}
	x.s.CombatResponses = kept
	x.touch()

	var steps []Step
	for _, resp := range fired {
		evt := rules.NewEvent(rules.EventAbilityTriggered, resp.Controller, resp.SourceID)
		evt.Detail = string(cards.TimingOnPowerGain)
		x.emit(evt)
		steps = append(steps, resolveEffectsStep(resp.Effects, EffectContext{Controller: resp.Controller, SourceID: resp.SourceID}))
	}
	return append(steps, cleanupStep())
}

func (x *execution) combatBreachTarget() []Step {
	combat := x.s.Combat
	if combat == nil {
		return nil
	}
	targets := x.breachTargets(combat.Defender())
	if len(targets) == 0 {
		return nil
	}
	x.setPendingChoice(&PendingChoice{
		Type:     ChoiceBreachTarget,
		Player:   combat.AttackingPlayer,
		ValidIDs: targets,
		Context:  EffectContext{Controller: combat.AttackingPlayer},
	})
	return nil
}

// combatBreachDamage removes one stage from the chosen location.
func (x *execution) combatBreachDamage(targetID string) []Step {
	c := x.card(targetID)
	if c.Zone != rules.ZoneBoard {
		return nil
	}
	x.removeCounter(c, counters.Stage, 1)
	evt := rules.NewEventWithAmount(rules.EventLocationDamaged, c.Owner, c.InstanceID, 1)
	if x.s.Combat != nil {
		evt.Player = x.s.Combat.AttackingPlayer
		evt.TargetID = c.InstanceID
	}
	x.emit(evt)
	return []Step{cleanupStep()}
}

func (x *execution) combatEnd() []Step {
	combat := x.s.Combat
	if combat == nil {
		return nil
	}
	x.s.Combat = nil
	x.s.PendingChoice = nil
	x.s.CombatResponses = nil
	x.touch()
	x.expire(effects.ExpiresEndOfCombat)
	x.emit(rules.NewEventWithAmount(rules.EventCombatEnded, combat.AttackingPlayer, "", combat.PowerGained))
	return nil
}
