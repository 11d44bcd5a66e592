package game

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/targeting"
)

// validate checks an action against the state without touching it.
func (v view) validate(pa PlayerAction) error {
	if !pa.Player.Valid() {
		return invalid("unknown player %q", pa.Player)
	}
	if v.s.IsOver() {
		return invalid("game is over")
	}
	if pc := v.s.PendingChoice; pc != nil {
		if pa.Player != pc.Player {
			return invalid("waiting for %s to %s", pc.Player, pc.Type)
		}
		accepted := false
		for _, t := range pc.acceptedActions() {
			if t == pa.Action.Type {
				accepted = true
				break
			}
		}
		if !accepted {
			return invalid("%s does not answer %s", pa.Action.Type, pc.Type)
		}
		return v.validateResponse(pc, pa)
	}
	if v.s.Combat != nil {
		return invalid("combat in progress")
	}
	if v.s.Phase != rules.PhaseAction {
		return invalid("not in the action phase")
	}
	if pa.Player != v.s.ActivePlayer {
		return invalid("it is %s's turn", v.s.ActivePlayer)
	}
	return v.validateActionPhase(pa)
}

func (v view) validateActionPhase(pa PlayerAction) error {
	a := pa.Action
	player := v.s.Player(pa.Player)

	switch a.Type {
	case ActionGainMythium:
		return nil
	case ActionDrawCard:
		if player.Mythium < v.s.Rules.DrawCardCost {
			return invalid("drawing costs %d mythium", v.s.Rules.DrawCardCost)
		}
		if len(v.s.CardsIn(pa.Player, rules.ZoneDeck)) == 0 {
			return invalid("deck is empty")
		}
		return nil
	case ActionPlayCard:
		c, ok := v.s.Card(a.CardID)
		if !ok || c.Owner != pa.Player || c.Zone != rules.ZoneHand {
			return invalid("card %s is not in your hand", a.CardID)
		}
		if !v.meetsStanding(pa.Player, v.def(c)) {
			return invalid("standing requirement of %s not met", a.CardID)
		}
		if !v.canPay(pa.Player, c, 0) {
			return invalid("cannot afford %s", a.CardID)
		}
		return nil
	case ActionDevelop:
		c, ok := v.s.Card(a.CardID)
		if !ok || !v.canDevelop(pa.Player, c) {
			return invalid("cannot develop %s", a.CardID)
		}
		return nil
	case ActionUseAbility:
		c, ok := v.s.Card(a.CardID)
		if !ok || !v.canUseAbility(pa.Player, c, a.AbilityIndex) {
			return invalid("cannot use ability %d of %s", a.AbilityIndex, a.CardID)
		}
		return nil
	case ActionAttack:
		return v.validateAttackers(pa.Player, a.AttackerIDs, nil, false)
	case ActionDeclareBlocker, ActionPassBlock, ActionChooseTarget, ActionChooseDiscard,
		ActionChooseBreachTarget, ActionPass, ActionChooseMode, ActionChooseAttackers, ActionChooseCard:
		return invalid("no pending choice to answer")
	default:
		return invalid("unknown action type %q", a.Type)
	}
}

// validateAttackers checks a distinct set of ready, non-stationary followers.
// When offered is non-nil the set must also come from it.
func (v view) validateAttackers(player rules.PlayerID, ids, offered []string, allowEmpty bool) error {
	if len(ids) == 0 && !allowEmpty {
		return invalid("attack needs at least one follower")
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return invalid("duplicate attacker %s", id)
		}
		seen[id] = true
		if offered != nil && indexOf(offered, id) < 0 {
			return invalid("%s was not offered as an attacker", id)
		}
		c, ok := v.s.Card(id)
		if !ok || !v.canAttack(player, c) {
			return invalid("%s cannot attack", id)
		}
	}
	return nil
}

func (v view) validateResponse(pc *PendingChoice, pa PlayerAction) error {
	a := pa.Action
	switch a.Type {
	case ActionDeclareBlocker:
		if indexOf(pc.AttackerIDs, a.AttackerID) < 0 {
			return invalid("%s is not an attacker awaiting blocks", a.AttackerID)
		}
		blocker, ok := v.s.Card(a.BlockerID)
		if !ok {
			return invalid("unknown blocker %s", a.BlockerID)
		}
		attacker, ok := v.s.Card(a.AttackerID)
		if !ok || !v.canBlock(blocker, attacker) {
			return invalid("%s cannot block %s", a.BlockerID, a.AttackerID)
		}
		return nil
	case ActionPassBlock, ActionPass:
		return nil
	case ActionChooseTarget, ActionChooseCard:
		if err := targeting.ValidateSelection(pc.ValidIDs, a.TargetIDs, pc.Count); err != nil {
			return invalid("%v", err)
		}
		return nil
	case ActionChooseDiscard:
		if len(a.TargetIDs) != pc.Count {
			return invalid("discard exactly %d card(s)", pc.Count)
		}
		seen := make(map[string]bool, len(a.TargetIDs))
		for _, id := range a.TargetIDs {
			c, ok := v.s.Card(id)
			if !ok || c.Owner != pc.Player || c.Zone != rules.ZoneHand || seen[id] {
				return invalid("cannot discard %s", id)
			}
			seen[id] = true
		}
		return nil
	case ActionChooseBreachTarget:
		if indexOf(pc.ValidIDs, a.TargetID) < 0 {
			return invalid("%s is not a valid breach target", a.TargetID)
		}
		return nil
	case ActionChooseMode:
		if a.ModeIndex < 0 || a.ModeIndex >= len(pc.Modes) {
			return invalid("mode %d out of range", a.ModeIndex)
		}
		return nil
	case ActionChooseAttackers:
		return v.validateAttackers(pc.Player, a.AttackerIDs, pc.ValidIDs, true)
	default:
		return invalid("unknown action type %q", a.Type)
	}
}
