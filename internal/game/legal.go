package game

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// maxListedAttackers bounds full subset enumeration of attacker groups.
// Past it the listing grows as 2^n and every entry is validated.
const maxListedAttackers = 10

// legalActions enumerates candidate actions in a fixed order and keeps the
// ones validate accepts, so the two never disagree.
func (v view) legalActions() []PlayerAction {
	if v.s.IsOver() {
		return nil
	}
	var out []PlayerAction
	for _, pa := range v.candidates() {
		if v.validate(pa) == nil {
			out = append(out, pa)
		}
	}
	return out
}

func (v view) candidates() []PlayerAction {
	if pc := v.s.PendingChoice; pc != nil {
		return v.responseCandidates(pc)
	}
	if v.s.Combat != nil || v.s.Phase != rules.PhaseAction {
		return nil
	}

	p := v.s.ActivePlayer
	act := func(a Action) PlayerAction { return PlayerAction{Player: p, Action: a} }
	out := []PlayerAction{
		act(Action{Type: ActionGainMythium}),
		act(Action{Type: ActionDrawCard}),
	}
	for _, c := range v.s.CardsIn(p, rules.ZoneHand) {
		out = append(out, act(Action{Type: ActionPlayCard, CardID: c.InstanceID}))
	}
	for _, c := range v.s.CardsIn(p, rules.ZoneBoard) {
		out = append(out, act(Action{Type: ActionDevelop, CardID: c.InstanceID}))
	}
	for _, c := range v.s.Cards {
		if c.Owner != p || !c.Zone.InPlay() {
			continue
		}
		for i := range v.def(c).Abilities {
			out = append(out, act(Action{Type: ActionUseAbility, CardID: c.InstanceID, AbilityIndex: i}))
		}
	}
	for _, set := range attackSets(v.attackCandidates(p)) {
		if len(set) > 0 {
			out = append(out, act(Action{Type: ActionAttack, AttackerIDs: set}))
		}
	}
	return out
}

func (v view) responseCandidates(pc *PendingChoice) []PlayerAction {
	act := func(a Action) PlayerAction { return PlayerAction{Player: pc.Player, Action: a} }
	var out []PlayerAction

	switch pc.Type {
	case ChoiceBlockers:
		for _, aid := range pc.AttackerIDs {
			for _, b := range v.s.CardsIn(pc.Player, rules.ZoneBoard) {
				out = append(out, act(Action{Type: ActionDeclareBlocker, BlockerID: b.InstanceID, AttackerID: aid}))
			}
		}
		out = append(out, act(Action{Type: ActionPassBlock}))
	case ChoiceTarget, ChoiceCard:
		actionType := ActionChooseTarget
		if pc.Type == ChoiceCard {
			actionType = ActionChooseCard
		}
		n := pc.Count
		if n <= 0 {
			n = 1
		}
		if n > len(pc.ValidIDs) {
			n = len(pc.ValidIDs)
		}
		for _, set := range combinations(pc.ValidIDs, n) {
			out = append(out, act(Action{Type: actionType, TargetIDs: set}))
		}
	case ChoiceDiscard:
		var hand []string
		for _, c := range v.s.CardsIn(pc.Player, rules.ZoneHand) {
			hand = append(hand, c.InstanceID)
		}
		for _, set := range combinations(hand, pc.Count) {
			out = append(out, act(Action{Type: ActionChooseDiscard, TargetIDs: set}))
		}
	case ChoiceBreachTarget:
		for _, id := range pc.ValidIDs {
			out = append(out, act(Action{Type: ActionChooseBreachTarget, TargetID: id}))
		}
		out = append(out, act(Action{Type: ActionPass}))
	case ChoiceMode:
		for i := range pc.Modes {
			out = append(out, act(Action{Type: ActionChooseMode, ModeIndex: i}))
		}
	case ChoiceAttackers:
		for _, set := range attackSets(pc.ValidIDs) {
			out = append(out, act(Action{Type: ActionChooseAttackers, AttackerIDs: set}))
		}
	default:
		engineBug("unknown pending choice type %q", pc.Type)
	}
	return out
}

// combinations returns every k-element subset of ids, keeping ids order.
func combinations(ids []string, k int) [][]string {
	if k < 0 || k > len(ids) {
		return nil
	}
	var out [][]string
	var walk func(start int, acc []string)
	walk = func(start int, acc []string) {
		if len(acc) == k {
			out = append(out, append([]string(nil), acc...))
			return
		}
		for i := start; i < len(ids); i++ {
			walk(i+1, append(acc, ids[i]))
		}
	}
	walk(0, make([]string, 0, k))
	return out
}

// subsets returns every subset of ids by increasing size, empty set first.
func subsets(ids []string) [][]string {
	var out [][]string
	for k := 0; k <= len(ids); k++ {
		out = append(out, combinations(ids, k)...)
	}
	return out
}

// attackSets lists the attacker groups offered as legal actions, empty group
// first. Up to maxListedAttackers candidates that is every subset; beyond it
// only single attackers and the whole group are listed. Validation still
// accepts any other subset.
func attackSets(ids []string) [][]string {
	if len(ids) <= maxListedAttackers {
		return subsets(ids)
	}
	out := make([][]string, 0, len(ids)+2)
	out = append(out, []string{})
	for _, id := range ids {
		out = append(out, []string{id})
	}
	return append(out, append([]string(nil), ids...))
}
