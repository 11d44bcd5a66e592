package cards

import (
	"fmt"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/effects"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/targeting"
)

// EffectType is the primitive an Effect performs.
type EffectType string

const (
	EffectGainMythium       EffectType = "gain_mythium"
	EffectGainPower         EffectType = "gain_power"
	EffectGainStanding      EffectType = "gain_standing"
	EffectDraw              EffectType = "draw"
	EffectAddCounter        EffectType = "add_counter"
	EffectRemoveCounter     EffectType = "remove_counter"
	EffectWound             EffectType = "wound"
	EffectDefeat            EffectType = "defeat"
	EffectExhaust           EffectType = "exhaust"
	EffectReady             EffectType = "ready"
	EffectBuff              EffectType = "buff"
	EffectDiscard           EffectType = "discard"
	EffectInitiateAttack    EffectType = "initiate_attack"
	EffectMigrate           EffectType = "migrate"
	EffectReturnToHand      EffectType = "return_to_hand"
	EffectRemove            EffectType = "remove"
	EffectChooseOne         EffectType = "choose_one"
	EffectConditional       EffectType = "conditional"
	EffectAddCombatResponse EffectType = "add_combat_response"
	EffectShuffleDeck       EffectType = "shuffle_deck"
	EffectCustom            EffectType = "custom"
)

// PlayerScope picks which player a player-level effect applies to.
type PlayerScope string

const (
	// PlayerSelf is the controller of the effect (default)
	PlayerSelf PlayerScope = "self"
	// PlayerOpponent is the controller's opponent
	PlayerOpponent PlayerScope = "opponent"
)

// Mode is one option of a choose_one effect.
type Mode struct {
	Label   string   `json:"label,omitempty" yaml:"label,omitempty"`
	Effects []Effect `json:"effects" yaml:"effects"`
}

// Effect is a single data-driven effect primitive. Which fields apply
// depends on Type. Effect lists are shared between states and must never be
// modified in place.
type Effect struct {
	Type   EffectType          `json:"type" yaml:"type"`
	Amount int                 `json:"amount,omitempty" yaml:"amount,omitempty"`
	Target *targeting.Selector `json:"target,omitempty" yaml:"target,omitempty"`
	Player PlayerScope         `json:"player,omitempty" yaml:"player,omitempty"`

	// add_counter / remove_counter
	Counter counters.CounterType `json:"counter,omitempty" yaml:"counter,omitempty"`
	// buff
	Kind     effects.Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	Duration effects.Expiry `json:"duration,omitempty" yaml:"duration,omitempty"`
	// gain_standing
	Guild Guild `json:"guild,omitempty" yaml:"guild,omitempty"`
	// choose_one
	Modes []Mode `json:"modes,omitempty" yaml:"modes,omitempty"`
	// conditional
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Then      []Effect   `json:"then,omitempty" yaml:"then,omitempty"`
	Else      []Effect   `json:"else,omitempty" yaml:"else,omitempty"`
	// add_combat_response
	Timing   Timing   `json:"timing,omitempty" yaml:"timing,omitempty"`
	Response []Effect `json:"response,omitempty" yaml:"response,omitempty"`
	// custom
	Custom string `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// targeted lists the primitives that act on cards chosen by Target.
var targeted = map[EffectType]bool{
	EffectAddCounter:    true,
	EffectRemoveCounter: true,
	EffectWound:         true,
	EffectDefeat:        true,
	EffectExhaust:       true,
	EffectReady:         true,
	EffectBuff:          true,
	EffectReturnToHand:  true,
	EffectRemove:        true,
}

// Targeted reports whether the primitive acts on target cards.
func (e Effect) Targeted() bool {
	return targeted[e.Type]
}

// Validate checks that the fields the primitive needs are populated.
func (e *Effect) Validate() error {
	switch e.Type {
	case EffectGainMythium, EffectGainPower, EffectDraw, EffectDiscard, EffectShuffleDeck, EffectInitiateAttack, EffectMigrate:
	case EffectGainStanding:
		if e.Guild == "" || !e.Guild.Valid() {
			return fmt.Errorf("gain_standing needs a guild")
		}
	case EffectAddCounter, EffectRemoveCounter:
		if e.Counter == "" {
			return fmt.Errorf("%s needs a counter", e.Type)
		}
	case EffectWound, EffectDefeat, EffectExhaust, EffectReady, EffectReturnToHand, EffectRemove:
	case EffectBuff:
		if !e.Kind.Valid() {
			return fmt.Errorf("buff has unknown kind %q", e.Kind)
		}
		if !e.Duration.Valid() {
			return fmt.Errorf("buff has unknown duration %q", e.Duration)
		}
	case EffectChooseOne:
		if len(e.Modes) < 2 {
			return fmt.Errorf("choose_one needs at least two modes")
		}
		for i := range e.Modes {
			for j := range e.Modes[i].Effects {
				if err := e.Modes[i].Effects[j].Validate(); err != nil {
					return fmt.Errorf("mode %d effect %d: %w", i, j, err)
				}
			}
		}
	case EffectConditional:
		if e.Condition == nil {
			return fmt.Errorf("conditional needs a condition")
		}
		for _, branch := range [][]Effect{e.Then, e.Else} {
			for i := range branch {
				if err := branch[i].Validate(); err != nil {
					return err
				}
			}
		}
	case EffectAddCombatResponse:
		if e.Timing != TimingOnPowerGain {
			return fmt.Errorf("combat response has unsupported timing %q", e.Timing)
		}
		if len(e.Response) == 0 {
			return fmt.Errorf("combat response has no effects")
		}
	case EffectCustom:
		if e.Custom == "" {
			return fmt.Errorf("custom effect needs a resolver key")
		}
	default:
		return fmt.Errorf("unknown effect type %q", e.Type)
	}
	if e.Targeted() && e.Target == nil {
		return fmt.Errorf("%s needs a target selector", e.Type)
	}
	return nil
}
