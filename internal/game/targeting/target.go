package targeting

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// OwnerScope restricts a filter to cards of a particular side, relative to
// the player resolving the effect.
type OwnerScope string

const (
	// OwnerSelf targets cards of the resolving player
	OwnerSelf OwnerScope = "self"
	// OwnerController is an alias of OwnerSelf used by reactive abilities
	OwnerController OwnerScope = "controller"
	// OwnerOpponent targets cards of the other player
	OwnerOpponent OwnerScope = "opponent"
	// OwnerBoth targets cards of either player
	OwnerBoth OwnerScope = "both"
	// OwnerActive targets cards of whoever holds the turn
	OwnerActive OwnerScope = "active"
)

// Filter is a conjunction of predicates over card instances. Zero-valued
// fields do not restrict the match.
type Filter struct {
	// Type restricts to a card type (follower, location, event, worldbreaker)
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	// Guild restricts to one guild
	Guild string `json:"guild,omitempty" yaml:"guild,omitempty"`
	// Zone restricts to a zone; empty means the board
	Zone rules.Zone `json:"zone,omitempty" yaml:"zone,omitempty"`
	// Owner restricts the owning side; empty means both
	Owner OwnerScope `json:"owner,omitempty" yaml:"owner,omitempty"`
	// Keyword requires a live keyword, conditional grants included
	Keyword string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	// NotKeyword excludes cards carrying a live keyword
	NotKeyword string `json:"notKeyword,omitempty" yaml:"notKeyword,omitempty"`
	// ExcludeSelf drops the card whose ability is resolving
	ExcludeSelf bool `json:"excludeSelf,omitempty" yaml:"excludeSelf,omitempty"`
	// CanPay keeps only cards the resolving player could afford to play
	CanPay bool `json:"canPay,omitempty" yaml:"canPay,omitempty"`
	// CostReduction discounts the CanPay check
	CostReduction int `json:"costReduction,omitempty" yaml:"costReduction,omitempty"`
	// InstanceIDs is an explicit allowlist
	InstanceIDs []string `json:"instanceIds,omitempty" yaml:"instanceIds,omitempty"`
	// MaxCost compares against the printed cost
	MaxCost *int `json:"maxCost,omitempty" yaml:"maxCost,omitempty"`
	// Wounded requires (true) or forbids (false) wound counters
	Wounded *bool `json:"wounded,omitempty" yaml:"wounded,omitempty"`
}

// EffectiveZone returns the zone the filter searches.
func (f Filter) EffectiveZone() rules.Zone {
	if f.Zone == "" {
		return rules.ZoneBoard
	}
	return f.Zone
}

// Clone returns a deep copy of the filter.
func (f *Filter) Clone() *Filter {
	if f == nil {
		return nil
	}
	out := *f
	out.InstanceIDs = append([]string(nil), f.InstanceIDs...)
	if f.MaxCost != nil {
		v := *f.MaxCost
		out.MaxCost = &v
	}
	if f.Wounded != nil {
		v := *f.Wounded
		out.Wounded = &v
	}
	return &out
}

// SelectorKind identifies how an effect picks the cards it applies to.
type SelectorKind string

const (
	// SelectSelf is the card hosting the ability
	SelectSelf SelectorKind = "self"
	// SelectTriggeringCard is the card that caused a reactive trigger
	SelectTriggeringCard SelectorKind = "triggering_card"
	// SelectSourceCard is the card recorded as the effect source
	SelectSourceCard SelectorKind = "source_card"
	// SelectAll is every card matching the filter
	SelectAll SelectorKind = "all"
	// SelectChoose asks the controller to pick Count matching cards
	SelectChoose SelectorKind = "choose"
)

// Selector describes the cards an effect applies to.
type Selector struct {
	Kind   SelectorKind `json:"kind" yaml:"kind"`
	Filter *Filter      `json:"filter,omitempty" yaml:"filter,omitempty"`
	Count  int          `json:"count,omitempty" yaml:"count,omitempty"`
}

// EffectiveCount returns the number of cards a choose selector asks for.
func (s Selector) EffectiveCount() int {
	if s.Count <= 0 {
		return 1
	}
	return s.Count
}

// Clone returns a deep copy of the selector.
func (s *Selector) Clone() *Selector {
	if s == nil {
		return nil
	}
	out := *s
	out.Filter = s.Filter.Clone()
	return &out
}
