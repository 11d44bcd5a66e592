package game

import (
	"go.uber.org/zap"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/effects"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// advanceTurn counts the finished action. Below the per-round threshold the
// turn passes; at the threshold the rally phase runs.
func (x *execution) advanceTurn() []Step {
	if x.s.IsOver() {
		return nil
	}
	x.s.ActionsTaken++
	x.touch()
	x.emit(rules.NewEventWithAmount(rules.EventTurnAdvanced, x.s.ActivePlayer, "", x.s.ActionsTaken))

	if x.s.ActionsTaken < x.s.Rules.ActionsPerRound {
		x.s.ActivePlayer = x.s.ActivePlayer.Opponent()
		x.expire(effects.ExpiresEndOfTurn)
		return nil
	}

	x.s.Phase = rules.PhaseRally
	x.emit(rules.NewEventWithAmount(rules.EventRallyStarted, x.s.FirstPlayer, "", x.s.Round))

	order := []rules.PlayerID{x.s.FirstPlayer, x.s.FirstPlayer.Opponent()}
	var steps []Step
	for _, kind := range []StepKind{StepRallyTriggers, StepRallyReady, StepRallyIncome, StepRallyDraw} {
		for _, p := range order {
			steps = append(steps, Step{Kind: kind, Player: p})
		}
	}
	return append(steps, Step{Kind: StepRallyVictory}, Step{Kind: StepRallyEnd})
}

// rallyReady readies the player's cards in play. A stun counter is consumed
// instead of readying that card once. Used abilities reset in every zone.
func (x *execution) rallyReady(player rules.PlayerID) {
	for _, c := range x.s.Cards {
		if c.Owner != player {
			continue
		}
		if len(c.UsedAbilities) > 0 {
			c.UsedAbilities = nil
			x.touch()
		}
		if !c.Zone.InPlay() {
			continue
		}
		if c.Counters.Get(counters.Stun) > 0 {
			x.removeCounter(c, counters.Stun, 1)
			x.emit(rules.NewEvent(rules.EventStunConsumed, player, c.InstanceID))
		} else {
			x.ready(c)
		}
	}
}

// rallyDraw draws the rally card. With an empty deck the opponent gains one
// power instead.
func (x *execution) rallyDraw(player rules.PlayerID) {
	if len(x.s.CardsIn(player, rules.ZoneDeck)) == 0 {
		x.emit(rules.NewEvent(rules.EventDeckEmpty, player, ""))
		x.gainPower(player.Opponent(), 1)
		return
	}
	x.drawCards(player, x.s.Rules.RallyDraw)
}

// rallyVictory ends the game once a player reaches the power threshold. With
// both over it, strictly higher power wins and equal power is a draw.
func (x *execution) rallyVictory() {
	p1 := x.s.Player(rules.Player1).Power
	p2 := x.s.Player(rules.Player2).Power
	threshold := x.s.Rules.PowerToWin
	over1, over2 := p1 >= threshold, p2 >= threshold
	if !over1 && !over2 {
		return
	}

	x.s.Phase = rules.PhaseGameOver
	x.s.PendingChoice = nil
	var winner rules.PlayerID
	switch {
	case over1 && over2 && p1 == p2:
		x.s.Draw = true
	case over1 && (!over2 || p1 > p2):
		winner = rules.Player1
	default:
		winner = rules.Player2
	}
	if winner != "" {
		x.s.Winner = &winner
	}
	x.touch()

	evt := rules.NewEvent(rules.EventGameOver, winner, "")
	if x.s.Draw {
		evt.Detail = "draw"
	}
	x.emit(evt)
	x.engine.logger.Info("game over",
		zap.String("winner", string(winner)),
		zap.Bool("draw", x.s.Draw),
		zap.Int("round", x.s.Round),
	)
}

func (x *execution) rallyEnd() {
	if x.s.IsOver() {
		return
	}
	x.s.FirstPlayer = x.s.FirstPlayer.Opponent()
	x.s.ActivePlayer = x.s.FirstPlayer
	x.s.ActionsTaken = 0
	x.s.Round++
	x.s.Phase = rules.PhaseAction
	x.touch()
	x.expire(effects.ExpiresEndOfTurn)
	x.expire(effects.ExpiresEndOfRound)
	x.emit(rules.NewEvent(rules.EventRallyEnded, x.s.FirstPlayer, ""))
	x.emit(rules.NewEventWithAmount(rules.EventRoundStarted, x.s.FirstPlayer, "", x.s.Round))
}
