package targeting

import (
	"fmt"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// CardInfo provides the facts about a card instance that filters inspect.
type CardInfo struct {
	InstanceID   string
	DefinitionID string
	Owner        rules.PlayerID
	Zone         rules.Zone
	Type         string
	Guild        string
	Cost         int
	Wounds       int
	Exhausted    bool
}

// GameStateAccessor provides access to game state needed for filter matching.
type GameStateAccessor interface {
	// FindCard looks up a card instance by id in any zone
	FindCard(instanceID string) (CardInfo, bool)
	// HasKeyword evaluates printed, conditional and lasting keyword grants
	HasKeyword(instanceID, keyword string) bool
	// CanPay reports whether player could afford to play the card
	CanPay(player rules.PlayerID, instanceID string, reduction int) bool
	// ActivePlayer returns the player holding the turn
	ActivePlayer() rules.PlayerID
}

// MatchContext carries the resolving side of a filter evaluation.
type MatchContext struct {
	Controller rules.PlayerID
	SourceID   string
}

// Matcher evaluates filters against a game state.
type Matcher struct {
	gameState GameStateAccessor
}

// NewMatcher creates a new matcher.
func NewMatcher(gameState GameStateAccessor) *Matcher {
	return &Matcher{gameState: gameState}
}

// Matches reports whether the instance satisfies every predicate of f.
func (m *Matcher) Matches(f *Filter, instanceID string, ctx MatchContext) bool {
	card, ok := m.gameState.FindCard(instanceID)
	if !ok {
		return false
	}
	if f == nil {
		return card.Zone == rules.ZoneBoard
	}
	if card.Zone != f.EffectiveZone() {
		return false
	}
	if f.Type != "" && card.Type != f.Type {
		return false
	}
	if f.Guild != "" && card.Guild != f.Guild {
		return false
	}
	if !m.ownerMatches(f.Owner, card.Owner, ctx) {
		return false
	}
	if f.ExcludeSelf && instanceID == ctx.SourceID {
		return false
	}
	if len(f.InstanceIDs) > 0 && !contains(f.InstanceIDs, instanceID) {
		return false
	}
	if f.MaxCost != nil && card.Cost > *f.MaxCost {
		return false
	}
	if f.Wounded != nil && (card.Wounds > 0) != *f.Wounded {
		return false
	}
	if f.Keyword != "" && !m.gameState.HasKeyword(instanceID, f.Keyword) {
		return false
	}
	if f.NotKeyword != "" && m.gameState.HasKeyword(instanceID, f.NotKeyword) {
		return false
	}
	if f.CanPay && !m.gameState.CanPay(ctx.Controller, instanceID, f.CostReduction) {
		return false
	}
	return true
}

func (m *Matcher) ownerMatches(scope OwnerScope, owner rules.PlayerID, ctx MatchContext) bool {
	switch scope {
	case "", OwnerBoth:
		return true
	case OwnerSelf, OwnerController:
		return owner == ctx.Controller
	case OwnerOpponent:
		return owner == ctx.Controller.Opponent()
	case OwnerActive:
		return owner == m.gameState.ActivePlayer()
	default:
		return false
	}
}

// Filter returns the ids from candidates that match f, preserving order.
func (m *Matcher) Filter(f *Filter, candidates []string, ctx MatchContext) []string {
	var out []string
	for _, id := range candidates {
		if m.Matches(f, id, ctx) {
			out = append(out, id)
		}
	}
	return out
}

// ValidateSelection checks a player's picks against the offered ids. The
// player must pick exactly min(count, len(valid)) distinct offered ids.
func ValidateSelection(valid []string, chosen []string, count int) error {
	if count <= 0 {
		count = 1
	}
	want := count
	if len(valid) < want {
		want = len(valid)
	}
	if len(chosen) != want {
		return fmt.Errorf("expected %d target(s), got %d", want, len(chosen))
	}
	seen := make(map[string]bool, len(chosen))
	for _, id := range chosen {
		if seen[id] {
			return fmt.Errorf("duplicate target: %s", id)
		}
		seen[id] = true
		if !contains(valid, id) {
			return fmt.Errorf("target %s is not a valid choice", id)
		}
	}
	return nil
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
