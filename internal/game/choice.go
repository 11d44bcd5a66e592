package game

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/targeting"
)

// ChoiceType discriminates PendingChoice.
type ChoiceType string

const (
	ChoiceBlockers     ChoiceType = "choose_blockers"
	ChoiceTarget       ChoiceType = "choose_target"
	ChoiceDiscard      ChoiceType = "choose_discard"
	ChoiceBreachTarget ChoiceType = "choose_breach_target"
	ChoiceMode         ChoiceType = "choose_mode"
	ChoiceAttackers    ChoiceType = "choose_attackers"
	ChoiceCard         ChoiceType = "choose_card"
)

// EffectContext is the resolution context of an effect list.
type EffectContext struct {
	Controller    rules.PlayerID `json:"controller"`
	SourceID      string         `json:"sourceId,omitempty"`
	TriggeringID  string         `json:"triggeringId,omitempty"`
	ChosenTargets []string       `json:"chosenTargets,omitempty"`
}

func (ctx EffectContext) clone() EffectContext {
	ctx.ChosenTargets = append([]string(nil), ctx.ChosenTargets...)
	return ctx
}

func (ctx EffectContext) match() targeting.MatchContext {
	return targeting.MatchContext{Controller: ctx.Controller, SourceID: ctx.SourceID}
}

// PendingChoice marks that the game is blocked on one player's decision.
// Fields beyond Type and Player depend on Type.
type PendingChoice struct {
	Type   ChoiceType     `json:"type"`
	Player rules.PlayerID `json:"player"`

	// choose_blockers
	AttackerIDs []string `json:"attackerIds,omitempty"`
	// choose_target, choose_breach_target, choose_attackers, choose_card
	ValidIDs []string `json:"validIds,omitempty"`
	// choose_target, choose_discard, choose_card
	Count  int               `json:"count,omitempty"`
	Filter *targeting.Filter `json:"filter,omitempty"`
	// choose_mode
	Modes []cards.Mode `json:"modes,omitempty"`
	// Effect is the primitive waiting for its targets.
	Effect *cards.Effect `json:"effect,omitempty"`
	// Remaining effects resume after the choice resolves.
	Remaining []cards.Effect `json:"remaining,omitempty"`
	Context   EffectContext  `json:"context"`
}

func (pc *PendingChoice) clone() *PendingChoice {
	out := *pc
	out.AttackerIDs = append([]string(nil), pc.AttackerIDs...)
	out.ValidIDs = append([]string(nil), pc.ValidIDs...)
	out.Filter = pc.Filter.Clone()
	out.Context = pc.Context.clone()
	return &out
}

// acceptedActions lists the action types each choice accepts.
func (pc *PendingChoice) acceptedActions() []ActionType {
	switch pc.Type {
	case ChoiceBlockers:
		return []ActionType{ActionDeclareBlocker, ActionPassBlock}
	case ChoiceTarget:
		return []ActionType{ActionChooseTarget}
	case ChoiceDiscard:
		return []ActionType{ActionChooseDiscard}
	case ChoiceBreachTarget:
		return []ActionType{ActionChooseBreachTarget, ActionPass}
	case ChoiceMode:
		return []ActionType{ActionChooseMode}
	case ChoiceAttackers:
		return []ActionType{ActionChooseAttackers}
	case ChoiceCard:
		return []ActionType{ActionChooseCard}
	default:
		engineBug("unknown pending choice type %q", pc.Type)
		return nil
	}
}

// WaitingFor names the player and decision the game is blocked on.
type WaitingFor struct {
	Player rules.PlayerID `json:"player"`
	Choice ChoiceType     `json:"choice"`
}
