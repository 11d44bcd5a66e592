package game

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/effects"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// execution carries one ProcessAction call: the cloned state being mutated
// and the events emitted so far. Every mutation bumps the state version.
type execution struct {
	view
	engine *Engine
	events []rules.Event
}

func (x *execution) emit(evt rules.Event) {
	x.events = append(x.events, evt)
}

func (x *execution) touch() {
	x.s.Version++
}

// moveCard relocates a card. Exhaustion, counters and used abilities
// survive only a move onto the board; any other destination resets them.
func (x *execution) moveCard(c *CardInstance, to rules.Zone) {
	from := c.Zone
	c.Zone = to
	if to != rules.ZoneBoard {
		c.Exhausted = false
		c.Counters = counters.New()
		c.UsedAbilities = nil
	}
	if from == rules.ZoneHand || to == rules.ZoneHand {
		x.recountHand(c.Owner)
	}
	x.touch()
	evt := rules.NewEvent(rules.EventCardMoved, c.Owner, c.InstanceID)
	evt.From = from
	evt.To = to
	x.emit(evt)
}

func (x *execution) recountHand(player rules.PlayerID) {
	x.s.Player(player).HandSize = len(x.s.CardsIn(player, rules.ZoneHand))
}

func (x *execution) addCounter(c *CardInstance, name counters.CounterType, amount int) {
	if amount <= 0 {
		return
	}
	if c.Counters == nil {
		c.Counters = counters.New()
	}
	c.Counters.Add(name, amount)
	x.touch()
	evt := rules.NewEventWithAmount(rules.EventCounterAdded, c.Owner, c.InstanceID, amount)
	evt.Detail = name.String()
	x.emit(evt)
}

func (x *execution) removeCounter(c *CardInstance, name counters.CounterType, amount int) int {
	removed := c.Counters.Remove(name, amount)
	if removed == 0 {
		return 0
	}
	x.touch()
	evt := rules.NewEventWithAmount(rules.EventCounterRemoved, c.Owner, c.InstanceID, removed)
	evt.Detail = name.String()
	x.emit(evt)
	return removed
}

func (x *execution) exhaust(c *CardInstance) {
	if c.Exhausted {
		return
	}
	c.Exhausted = true
	x.touch()
	x.emit(rules.NewEvent(rules.EventCardExhausted, c.Owner, c.InstanceID))
}

func (x *execution) ready(c *CardInstance) {
	if !c.Exhausted {
		return
	}
	c.Exhausted = false
	x.touch()
	x.emit(rules.NewEvent(rules.EventCardReadied, c.Owner, c.InstanceID))
}

func (x *execution) gainMythium(player rules.PlayerID, amount int) {
	if amount <= 0 {
		return
	}
	x.s.Player(player).Mythium += amount
	x.touch()
	x.emit(rules.NewEventWithAmount(rules.EventMythiumGained, player, "", amount))
}

func (x *execution) spendMythium(player rules.PlayerID, amount int) {
	if amount <= 0 {
		return
	}
	p := x.s.Player(player)
	if p.Mythium < amount {
		engineBug("player %s cannot spend %d mythium (has %d)", player, amount, p.Mythium)
	}
	p.Mythium -= amount
	x.touch()
	x.emit(rules.NewEventWithAmount(rules.EventMythiumSpent, player, "", amount))
}

func (x *execution) gainPower(player rules.PlayerID, amount int) {
	if amount <= 0 {
		return
	}
	x.s.Player(player).Power += amount
	x.touch()
	x.emit(rules.NewEventWithAmount(rules.EventPowerGained, player, "", amount))
}

func (x *execution) gainStanding(player rules.PlayerID, guild cards.Guild, amount int) {
	if amount <= 0 || guild == "" {
		return
	}
	p := x.s.Player(player)
	if p.Standing == nil {
		p.Standing = make(map[cards.Guild]int)
	}
	p.Standing[guild] += amount
	x.touch()
	evt := rules.NewEventWithAmount(rules.EventStandingGained, player, "", amount)
	evt.Detail = string(guild)
	x.emit(evt)
}

// drawCards moves up to n cards from the top of the deck to hand and
// returns how many were drawn.
func (x *execution) drawCards(player rules.PlayerID, n int) int {
	drawn := 0
	for drawn < n {
		deck := x.s.CardsIn(player, rules.ZoneDeck)
		if len(deck) == 0 {
			x.touch()
			x.emit(rules.NewEvent(rules.EventDeckEmpty, player, ""))
			break
		}
		top := deck[0]
		x.moveCard(top, rules.ZoneHand)
		x.emit(rules.NewEvent(rules.EventCardDrawn, player, top.InstanceID))
		drawn++
	}
	return drawn
}

// shuffleDeck permutes the player's deck cards within their storage slots
// and advances the seed.
func (x *execution) shuffleDeck(player rules.PlayerID) {
	var slots []int
	for i, c := range x.s.Cards {
		if c.Owner == player && c.Zone == rules.ZoneDeck {
			slots = append(slots, i)
		}
	}
	deck := make([]*CardInstance, len(slots))
	for i, slot := range slots {
		deck[i] = x.s.Cards[slot]
	}

	rng := rand.New(rand.NewSource(x.s.RNG))
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	x.s.RNG = rng.Int63()

	for i, slot := range slots {
		x.s.Cards[slot] = deck[i]
	}
	x.touch()
	x.emit(rules.NewEventWithAmount(rules.EventDeckShuffled, player, "", len(deck)))
}

// setPendingChoice blocks the game on a decision. Only one may exist.
func (x *execution) setPendingChoice(pc *PendingChoice) {
	if x.s.PendingChoice != nil {
		engineBug("pending choice %s already set while creating %s", x.s.PendingChoice.Type, pc.Type)
	}
	x.s.PendingChoice = pc
	x.touch()
	evt := rules.NewEvent(rules.EventChoiceCreated, pc.Player, pc.Context.SourceID)
	evt.Detail = string(pc.Type)
	x.emit(evt)
	x.engine.logger.Debug("waiting for player choice",
		zap.String("player", string(pc.Player)),
		zap.String("choice", string(pc.Type)),
	)
}

func (x *execution) clearPendingChoice() *PendingChoice {
	pc := x.s.PendingChoice
	if pc == nil {
		engineBug("no pending choice to resolve")
	}
	x.s.PendingChoice = nil
	x.touch()
	evt := rules.NewEvent(rules.EventChoiceResolved, pc.Player, pc.Context.SourceID)
	evt.Detail = string(pc.Type)
	x.emit(evt)
	return pc
}

func (x *execution) addLastingEffect(le effects.LastingEffect) {
	x.s.NextEffectSeq++
	le.ID = effects.NewID("lasting", le.SourceID, x.s.NextEffectSeq)
	x.s.LastingEffects = append(x.s.LastingEffects, le)
	x.touch()
	evt := rules.NewEventWithAmount(rules.EventLastingEffect, le.Controller, le.SourceID, le.Amount)
	evt.Detail = string(le.Kind)
	x.emit(evt)
}

func (x *execution) expire(expiry effects.Expiry) {
	kept, expired := effects.Expire(x.s.LastingEffects, expiry)
	if len(expired) == 0 {
		return
	}
	x.s.LastingEffects = kept
	x.touch()
	for _, le := range expired {
		evt := rules.NewEvent(rules.EventEffectExpired, le.Controller, le.SourceID)
		evt.Detail = le.ID
		x.emit(evt)
	}
}

func (x *execution) addCombatResponse(ctx EffectContext, timing cards.Timing, list []cards.Effect) {
	x.s.NextEffectSeq++
	x.s.CombatResponses = append(x.s.CombatResponses, CombatResponse{
		ID:         effects.NewID("response", ctx.SourceID, x.s.NextEffectSeq),
		Timing:     timing,
		Controller: ctx.Controller,
		SourceID:   ctx.SourceID,
		Effects:    list,
	})
	x.touch()
}

// defeat sends a follower to its owner's discard pile and returns the
// reactive scans it causes.
func (x *execution) defeat(c *CardInstance) []Step {
	x.moveCard(c, rules.ZoneDiscard)
	x.emit(rules.NewEvent(rules.EventCardDefeated, c.Owner, c.InstanceID))
	return x.reactiveScans(cards.TimingFollowerDefeated, c.InstanceID)
}

func (x *execution) deplete(c *CardInstance) []Step {
	x.moveCard(c, rules.ZoneDiscard)
	x.emit(rules.NewEvent(rules.EventLocationDepleted, c.Owner, c.InstanceID))
	return x.reactiveScans(cards.TimingLocationDepleted, c.InstanceID)
}

// reactiveScans queues a trigger scan for both players, active player first.
func (x *execution) reactiveScans(timing cards.Timing, triggeringID string) []Step {
	active := x.s.ActivePlayer
	return []Step{
		checkTriggersStep(timing, active, EffectContext{Controller: active, TriggeringID: triggeringID}, nil),
		checkTriggersStep(timing, active.Opponent(), EffectContext{Controller: active.Opponent(), TriggeringID: triggeringID}, nil),
	}
}
