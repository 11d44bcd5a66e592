package game

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// ability looks up a printed ability or location stage.
func (v view) ability(c *CardInstance, index int, stage bool) *cards.AbilityDefinition {
	def := v.def(c)
	list := def.Abilities
	if stage {
		list = def.Stages
	}
	if index < 0 || index >= len(list) {
		engineBug("card %s has no ability %d (stage=%t)", c.InstanceID, index, stage)
	}
	return &list[index]
}

// resolveAbility resolves an ability without any zone check; it is used for
// activated abilities, location stages and events being played.
func (x *execution) resolveAbility(step Step) []Step {
	c := x.card(step.CardID)
	ability := x.ability(c, step.AbilityIndex, step.Stage)
	ctx := step.ctx()
	if ctx.SourceID == "" {
		ctx.SourceID = c.InstanceID
	}
	return x.abilitySteps(ability, ctx)
}

func (x *execution) abilitySteps(ability *cards.AbilityDefinition, ctx EffectContext) []Step {
	if ability.Custom != "" {
		x.runCustom(ability.Custom, ctx)
		return []Step{cleanupStep()}
	}
	return []Step{resolveEffectsStep(ability.Effects, ctx), cleanupStep()}
}

// checkTriggers snapshots every matching ability of the player into
// fire_trigger steps: the worldbreaker first, then board cards in storage
// order. Matches resolve one at a time, each fully before the next.
func (x *execution) checkTriggers(step Step) []Step {
	ctx := step.ctx()
	var restrict map[string]bool
	if step.RestrictTo != nil {
		restrict = make(map[string]bool, len(step.RestrictTo))
		for _, id := range step.RestrictTo {
			restrict[id] = true
		}
	}

	scan := append(x.s.CardsIn(step.Player, rules.ZoneWorldbreaker), x.s.CardsIn(step.Player, rules.ZoneBoard)...)
	var fires []Step
	for _, c := range scan {
		if restrict != nil && !restrict[c.InstanceID] {
			continue
		}
		if step.Timing == cards.TimingFriendlyPlayed && c.InstanceID == ctx.TriggeringID {
			continue
		}
		for i, ability := range x.def(c).Abilities {
			if ability.Timing != step.Timing {
				continue
			}
			fireCtx := EffectContext{Controller: step.Player, SourceID: c.InstanceID, TriggeringID: ctx.TriggeringID}
			if !x.triggerMatches(&ability, fireCtx) {
				continue
			}
			fires = append(fires, Step{
				Kind:         StepFireTrigger,
				Player:       step.Player,
				CardID:       c.InstanceID,
				AbilityIndex: i,
				Timing:       step.Timing,
				Context:      &fireCtx,
			})
		}
	}
	return fires
}

// triggerMatches applies an ability's trigger filter to the triggering card.
// A filter without a zone matches the card wherever it currently is.
func (x *execution) triggerMatches(ability *cards.AbilityDefinition, ctx EffectContext) bool {
	if ability.TriggerFilter == nil {
		return true
	}
	trig, ok := x.s.Card(ctx.TriggeringID)
	if !ok {
		return false
	}
	f := ability.TriggerFilter.Clone()
	if f.Zone == "" {
		f.Zone = trig.Zone
	}
	return x.matcher().Matches(f, trig.InstanceID, ctx.match())
}

// fireTrigger resolves one snapshotted match if its card is still in play.
func (x *execution) fireTrigger(step Step) []Step {
	c, ok := x.s.Card(step.CardID)
	if !ok || !c.Zone.InPlay() || c.Owner != step.Player {
		return nil
	}
	evt := rules.NewEvent(rules.EventAbilityTriggered, step.Player, c.InstanceID)
	evt.TargetID = step.ctx().TriggeringID
	evt.Detail = string(step.Timing)
	x.emit(evt)
	return x.abilitySteps(x.ability(c, step.AbilityIndex, false), step.ctx())
}
