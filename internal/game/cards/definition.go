package cards

import (
	"fmt"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/targeting"
)

// CardType is the printed type of a card.
type CardType string

const (
	TypeWorldbreaker CardType = "worldbreaker"
	TypeFollower     CardType = "follower"
	TypeEvent        CardType = "event"
	TypeLocation     CardType = "location"
)

// Valid reports whether t is a known card type.
func (t CardType) Valid() bool {
	switch t {
	case TypeWorldbreaker, TypeFollower, TypeEvent, TypeLocation:
		return true
	}
	return false
}

// Guild is one of the four factions a player gains standing with.
type Guild string

const (
	GuildEarth Guild = "earth"
	GuildMoon  Guild = "moon"
	GuildVoid  Guild = "void"
	GuildStars Guild = "stars"
)

// Guilds lists every guild in display order.
var Guilds = []Guild{GuildEarth, GuildMoon, GuildVoid, GuildStars}

// Valid reports whether g names a guild. The empty guild is neutral.
func (g Guild) Valid() bool {
	switch g {
	case "", GuildEarth, GuildMoon, GuildVoid, GuildStars:
		return true
	}
	return false
}

// Keyword names.
const (
	KeywordBloodshed   = "bloodshed"
	KeywordOverwhelm   = "overwhelm"
	KeywordLethal      = "lethal"
	KeywordUnblockable = "unblockable"
	KeywordHidden      = "hidden"
	KeywordStationary  = "stationary"
	KeywordDrawsAggro  = "draws_aggro"
)

// Timing is the moment an ability fires.
type Timing string

const (
	TimingPlayed           Timing = "played"
	TimingFriendlyPlayed   Timing = "friendly_played"
	TimingYourAttack       Timing = "your_attack"
	TimingAttacks          Timing = "attacks"
	TimingOverwhelms       Timing = "overwhelms"
	TimingBreach           Timing = "breach"
	TimingFollowerDefeated Timing = "follower_defeated"
	TimingLocationDepleted Timing = "location_depleted"
	TimingRally            Timing = "rally"
	TimingAction           Timing = "action"
	TimingOnPowerGain      Timing = "on_power_gain"
)

// KeywordGrant is a printed keyword, with a magnitude for keywords such as
// bloodshed.
type KeywordGrant struct {
	Name   string `json:"name" yaml:"name"`
	Amount int    `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// ConditionalKeyword is a keyword the card has only while Condition holds.
type ConditionalKeyword struct {
	Keyword   KeywordGrant `json:"keyword" yaml:"keyword"`
	Condition Condition    `json:"condition" yaml:"condition"`
}

// StandingThreshold compares a guild standing against a number.
type StandingThreshold struct {
	Guild     Guild `json:"guild" yaml:"guild"`
	Threshold int   `json:"threshold" yaml:"threshold"`
}

// Condition gates a conditional effect or keyword. Every populated clause
// must hold.
type Condition struct {
	// MinCount requires at least this many cards matching Filter
	MinCount int               `json:"minCount,omitempty" yaml:"minCount,omitempty"`
	Filter   *targeting.Filter `json:"filter,omitempty" yaml:"filter,omitempty"`
	// AttackingAlone requires exactly one current attacker
	AttackingAlone bool `json:"attackingAlone,omitempty" yaml:"attackingAlone,omitempty"`
	// StandingBelow requires the controller's standing to be under a threshold
	StandingBelow *StandingThreshold `json:"standingBelow,omitempty" yaml:"standingBelow,omitempty"`
}

// AbilityDefinition is one printed ability.
type AbilityDefinition struct {
	Timing  Timing   `json:"timing" yaml:"timing"`
	Text    string   `json:"text,omitempty" yaml:"text,omitempty"`
	Effects []Effect `json:"effects,omitempty" yaml:"effects,omitempty"`
	// Custom names a registered resolver used instead of Effects
	Custom string `json:"custom,omitempty" yaml:"custom,omitempty"`
	// TriggerFilter restricts reactive timings to matching triggering cards
	TriggerFilter *targeting.Filter `json:"triggerFilter,omitempty" yaml:"triggerFilter,omitempty"`
	// Cost is the mythium paid to use an action ability
	Cost int `json:"cost,omitempty" yaml:"cost,omitempty"`
	// Exhaust requires exhausting the card to use an action ability
	Exhaust bool `json:"exhaust,omitempty" yaml:"exhaust,omitempty"`
}

// BlockRestrictions limit which followers may block this card.
type BlockRestrictions struct {
	WoundedCannotBlock bool `json:"woundedCannotBlock,omitempty" yaml:"woundedCannotBlock,omitempty"`
	MinBlockerStrength int  `json:"minBlockerStrength,omitempty" yaml:"minBlockerStrength,omitempty"`
}

// CostReduction is an aura that discounts cards its controller plays.
type CostReduction struct {
	Amount int `json:"amount" yaml:"amount"`
	// CardType limits the discount; empty discounts every type
	CardType CardType `json:"cardType,omitempty" yaml:"cardType,omitempty"`
}

// CardDefinition is the static, read-only description of a card.
type CardDefinition struct {
	ID                  string               `json:"id" yaml:"id"`
	Name                string               `json:"name" yaml:"name"`
	Type                CardType             `json:"type" yaml:"type"`
	Guild               Guild                `json:"guild,omitempty" yaml:"guild,omitempty"`
	Cost                int                  `json:"cost,omitempty" yaml:"cost,omitempty"`
	Strength            int                  `json:"strength,omitempty" yaml:"strength,omitempty"`
	Health              int                  `json:"health,omitempty" yaml:"health,omitempty"`
	Stages              []AbilityDefinition  `json:"stages,omitempty" yaml:"stages,omitempty"`
	Keywords            []KeywordGrant       `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	ConditionalKeywords []ConditionalKeyword `json:"conditionalKeywords,omitempty" yaml:"conditionalKeywords,omitempty"`
	StandingRequirement map[Guild]int        `json:"standingRequirement,omitempty" yaml:"standingRequirement,omitempty"`
	Abilities           []AbilityDefinition  `json:"abilities,omitempty" yaml:"abilities,omitempty"`
	BlockRestrictions   *BlockRestrictions   `json:"blockRestrictions,omitempty" yaml:"blockRestrictions,omitempty"`
	CostReduction       *CostReduction       `json:"costReduction,omitempty" yaml:"costReduction,omitempty"`
	DevelopCost         int                  `json:"developCost,omitempty" yaml:"developCost,omitempty"`
	StandingGain        map[Guild]int        `json:"standingGain,omitempty" yaml:"standingGain,omitempty"`
}

// PrintedKeyword returns the printed keyword grant with the given name.
func (d *CardDefinition) PrintedKeyword(name string) (KeywordGrant, bool) {
	for _, kw := range d.Keywords {
		if kw.Name == name {
			return kw, true
		}
	}
	return KeywordGrant{}, false
}

// Validate checks the definition for structural mistakes.
func (d *CardDefinition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("card definition has no id")
	}
	if !d.Type.Valid() {
		return fmt.Errorf("card %s: unknown type %q", d.ID, d.Type)
	}
	if !d.Guild.Valid() {
		return fmt.Errorf("card %s: unknown guild %q", d.ID, d.Guild)
	}
	if d.Cost < 0 || d.DevelopCost < 0 {
		return fmt.Errorf("card %s: negative cost", d.ID)
	}
	switch d.Type {
	case TypeFollower:
		if d.Health <= 0 {
			return fmt.Errorf("card %s: follower needs positive health", d.ID)
		}
	case TypeLocation:
		if len(d.Stages) == 0 {
			return fmt.Errorf("card %s: location needs at least one stage", d.ID)
		}
	}
	for guild := range d.StandingRequirement {
		if guild == "" || !guild.Valid() {
			return fmt.Errorf("card %s: standing requirement on unknown guild %q", d.ID, guild)
		}
	}
	for guild := range d.StandingGain {
		if guild == "" || !guild.Valid() {
			return fmt.Errorf("card %s: standing gain on unknown guild %q", d.ID, guild)
		}
	}
	for i := range d.Abilities {
		if err := d.Abilities[i].validate(); err != nil {
			return fmt.Errorf("card %s ability %d: %w", d.ID, i, err)
		}
	}
	for i := range d.Stages {
		if err := d.Stages[i].validate(); err != nil {
			return fmt.Errorf("card %s stage %d: %w", d.ID, i, err)
		}
	}
	return nil
}

func (a *AbilityDefinition) validate() error {
	if a.Custom == "" && len(a.Effects) == 0 {
		return fmt.Errorf("ability has neither effects nor custom resolver")
	}
	for i := range a.Effects {
		if err := a.Effects[i].Validate(); err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
	}
	return nil
}
