package game

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/effects"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/targeting"
)

// resolveEffects walks an effect list. It returns early when an effect
// creates a pending choice (the rest of the list travels with the choice) or
// when an effect needs follow-up steps (the rest is queued behind them).
func (x *execution) resolveEffects(list []cards.Effect, ctx EffectContext) []Step {
	for i := 0; i < len(list); i++ {
		eff := list[i]
		rest := list[i+1:]

		switch eff.Type {
		case cards.EffectChooseOne:
			x.setPendingChoice(&PendingChoice{
				Type:      ChoiceMode,
				Player:    ctx.Controller,
				Modes:     eff.Modes,
				Remaining: rest,
				Context:   ctx,
			})
			return nil
		case cards.EffectConditional:
			branch := eff.Else
			if x.conditionHolds(eff.Condition, ctx) {
				branch = eff.Then
			}
			list = concatEffects(branch, rest)
			i = -1
			continue
		}

		var targets []string
		if eff.Target != nil && eff.Target.Kind == targeting.SelectChoose {
			if ctx.ChosenTargets != nil {
				targets = ctx.ChosenTargets
				ctx.ChosenTargets = nil
			} else {
				valid := x.matcher().Filter(eff.Target.Filter, x.allCardIDs(), ctx.match())
				if len(valid) == 0 {
					x.fizzle(eff, ctx)
					continue
				}
				choice := ChoiceTarget
				if eff.Target.Filter != nil && eff.Target.Filter.EffectiveZone() != rules.ZoneBoard {
					choice = ChoiceCard
				}
				pending := eff
				x.setPendingChoice(&PendingChoice{
					Type:      choice,
					Player:    ctx.Controller,
					ValidIDs:  valid,
					Count:     eff.Target.EffectiveCount(),
					Filter:    eff.Target.Filter.Clone(),
					Effect:    &pending,
					Remaining: rest,
					Context:   ctx,
				})
				return nil
			}
		} else {
			targets = x.selectTargets(eff.Target, ctx)
		}

		if eff.Targeted() && len(targets) == 0 {
			x.fizzle(eff, ctx)
			continue
		}

		follow, paused := x.applyEffect(eff, targets, ctx, rest)
		if paused {
			return nil
		}
		if len(follow) > 0 {
			if len(rest) > 0 {
				follow = append(follow, resolveEffectsStep(rest, ctx))
			}
			return follow
		}
	}
	return nil
}

func concatEffects(a, b []cards.Effect) []cards.Effect {
	out := make([]cards.Effect, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func (x *execution) allCardIDs() []string {
	ids := make([]string, len(x.s.Cards))
	for i, c := range x.s.Cards {
		ids[i] = c.InstanceID
	}
	return ids
}

func (x *execution) fizzle(eff cards.Effect, ctx EffectContext) {
	evt := rules.NewEvent(rules.EventEffectFizzled, ctx.Controller, ctx.SourceID)
	evt.Detail = string(eff.Type)
	x.emit(evt)
}

// selectTargets resolves every selector kind except choose.
func (x *execution) selectTargets(sel *targeting.Selector, ctx EffectContext) []string {
	if sel == nil {
		return nil
	}
	switch sel.Kind {
	case targeting.SelectSelf:
		if c, ok := x.s.Card(ctx.SourceID); ok && c.Zone.InPlay() {
			return []string{c.InstanceID}
		}
		return nil
	case targeting.SelectSourceCard:
		if _, ok := x.s.Card(ctx.SourceID); ok {
			return []string{ctx.SourceID}
		}
		return nil
	case targeting.SelectTriggeringCard:
		if _, ok := x.s.Card(ctx.TriggeringID); ok {
			return []string{ctx.TriggeringID}
		}
		return nil
	case targeting.SelectAll:
		return x.matcher().Filter(sel.Filter, x.allCardIDs(), ctx.match())
	default:
		engineBug("unknown selector kind %q", sel.Kind)
		return nil
	}
}

func (x *execution) scopedPlayer(scope cards.PlayerScope, ctx EffectContext) rules.PlayerID {
	switch scope {
	case "", cards.PlayerSelf:
		return ctx.Controller
	case cards.PlayerOpponent:
		return ctx.Controller.Opponent()
	default:
		engineBug("unknown player scope %q", scope)
		return ""
	}
}

func amountOrOne(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

// applyEffect executes one primitive. It reports follow-up steps, or paused
// when the primitive created a pending choice that carries rest.
func (x *execution) applyEffect(eff cards.Effect, targets []string, ctx EffectContext, rest []cards.Effect) ([]Step, bool) {
	player := x.scopedPlayer(eff.Player, ctx)

	switch eff.Type {
	case cards.EffectGainMythium:
		x.gainMythium(player, amountOrOne(eff.Amount))
	case cards.EffectGainPower:
		x.gainPower(player, amountOrOne(eff.Amount))
	case cards.EffectGainStanding:
		x.gainStanding(player, eff.Guild, amountOrOne(eff.Amount))
	case cards.EffectDraw:
		x.drawCards(player, amountOrOne(eff.Amount))
	case cards.EffectShuffleDeck:
		x.shuffleDeck(player)

	case cards.EffectAddCounter:
		for _, id := range targets {
			x.addCounter(x.card(id), eff.Counter, amountOrOne(eff.Amount))
		}
	case cards.EffectRemoveCounter:
		for _, id := range targets {
			x.removeCounter(x.card(id), eff.Counter, amountOrOne(eff.Amount))
		}
	case cards.EffectWound:
		for _, id := range targets {
			c := x.card(id)
			if x.isFollowerOnBoard(c) {
				x.addCounter(c, counters.Wound, amountOrOne(eff.Amount))
			}
		}
		return []Step{cleanupStep()}, false
	case cards.EffectDefeat:
		var follow []Step
		for _, id := range targets {
			c := x.card(id)
			if c.Zone != rules.ZoneBoard {
				continue
			}
			if x.def(c).Type == cards.TypeLocation {
				follow = append(follow, x.deplete(c)...)
			} else {
				follow = append(follow, x.defeat(c)...)
			}
		}
		return follow, false
	case cards.EffectExhaust:
		for _, id := range targets {
			x.exhaust(x.card(id))
		}
	case cards.EffectReady:
		for _, id := range targets {
			x.ready(x.card(id))
		}
	case cards.EffectBuff:
		x.addLastingEffect(effects.LastingEffect{
			Kind:              eff.Kind,
			Amount:            eff.Amount,
			TargetInstanceIDs: append([]string(nil), targets...),
			ExpiresAt:         eff.Duration,
			SourceID:          ctx.SourceID,
			Controller:        ctx.Controller,
		})
	case cards.EffectReturnToHand:
		for _, id := range targets {
			c := x.card(id)
			if c.Zone != rules.ZoneHand {
				x.moveCard(c, rules.ZoneHand)
			}
		}
	case cards.EffectRemove:
		for _, id := range targets {
			c := x.card(id)
			if c.Zone != rules.ZoneRemoved {
				x.moveCard(c, rules.ZoneRemoved)
			}
		}

	case cards.EffectDiscard:
		count := amountOrOne(eff.Amount)
		if hand := x.s.Player(player).HandSize; count > hand {
			count = hand
		}
		if count == 0 {
			x.fizzle(eff, ctx)
			return nil, false
		}
		x.setPendingChoice(&PendingChoice{
			Type:      ChoiceDiscard,
			Player:    player,
			Count:     count,
			Remaining: rest,
			Context:   ctx,
		})
		return nil, true
	case cards.EffectInitiateAttack:
		valid := x.attackCandidates(ctx.Controller)
		if x.s.Combat != nil || len(valid) == 0 {
			x.fizzle(eff, ctx)
			return nil, false
		}
		x.setPendingChoice(&PendingChoice{
			Type:      ChoiceAttackers,
			Player:    ctx.Controller,
			ValidIDs:  valid,
			Remaining: rest,
			Context:   ctx,
		})
		return nil, true
	case cards.EffectMigrate:
		modes := make([]cards.Mode, 0, len(cards.Guilds))
		for _, guild := range cards.Guilds {
			modes = append(modes, cards.Mode{
				Label:   string(guild),
				Effects: []cards.Effect{{Type: cards.EffectGainStanding, Guild: guild, Amount: amountOrOne(eff.Amount)}},
			})
		}
		x.setPendingChoice(&PendingChoice{
			Type:      ChoiceMode,
			Player:    ctx.Controller,
			Modes:     modes,
			Remaining: rest,
			Context:   ctx,
		})
		return nil, true

	case cards.EffectAddCombatResponse:
		if x.s.Combat == nil {
			x.fizzle(eff, ctx)
			return nil, false
		}
		x.addCombatResponse(ctx, eff.Timing, eff.Response)
	case cards.EffectCustom:
		x.runCustom(eff.Custom, ctx)
		return []Step{cleanupStep()}, false

	default:
		engineBug("unhandled effect type %q", eff.Type)
	}
	return nil, false
}

// runCustom invokes a registered resolver. The resolver works on the state
// directly, so hand sizes are recounted afterwards.
func (x *execution) runCustom(key string, ctx EffectContext) {
	resolver, ok := x.engine.resolvers.Get(key)
	if !ok {
		engineBug("unknown custom resolver %q", key)
	}
	x.events = append(x.events, resolver(x.s, ctx)...)
	for _, p := range rules.Players {
		x.recountHand(p)
	}
	x.touch()
}
