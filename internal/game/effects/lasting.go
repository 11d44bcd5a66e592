package effects

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// Kind is the modification a lasting effect applies to its targets.
type Kind string

const (
	KindStrengthBuff Kind = "strength_buff"
	KindHealthBuff   Kind = "health_buff"
	KindLethal       Kind = "lethal"
	KindOverwhelm    Kind = "overwhelm"
	KindUnblockable  Kind = "unblockable"
	KindHidden       Kind = "hidden"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindStrengthBuff, KindHealthBuff, KindLethal, KindOverwhelm, KindUnblockable, KindHidden:
		return true
	}
	return false
}

// Keyword returns the keyword a grant-style kind confers, or "" for buffs.
func (k Kind) Keyword() string {
	switch k {
	case KindLethal, KindOverwhelm, KindUnblockable, KindHidden:
		return string(k)
	}
	return ""
}

// Expiry is the boundary at which a lasting effect is removed.
type Expiry string

const (
	// ExpiresEndOfCombat - removed when combat ends
	ExpiresEndOfCombat Expiry = "end_of_combat"

	// ExpiresEndOfTurn - removed when the active player changes and at rally
	ExpiresEndOfTurn Expiry = "end_of_turn"

	// ExpiresEndOfRound - removed when the round advances
	ExpiresEndOfRound Expiry = "end_of_round"
)

// Valid reports whether e is a known expiry scope.
func (e Expiry) Valid() bool {
	return e == ExpiresEndOfCombat || e == ExpiresEndOfTurn || e == ExpiresEndOfRound
}

// LastingEffect is a temporary buff or keyword grant with an explicit expiry.
type LastingEffect struct {
	ID                string         `json:"id"`
	Kind              Kind           `json:"kind"`
	Amount            int            `json:"amount,omitempty"`
	TargetInstanceIDs []string       `json:"targetInstanceIds"`
	ExpiresAt         Expiry         `json:"expiresAt"`
	SourceID          string         `json:"sourceId,omitempty"`
	Controller        rules.PlayerID `json:"controller,omitempty"`
}

// Targets reports whether the effect applies to the given instance.
func (le LastingEffect) Targets(instanceID string) bool {
	for _, id := range le.TargetInstanceIDs {
		if id == instanceID {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with le.
func (le LastingEffect) Clone() LastingEffect {
	out := le
	out.TargetInstanceIDs = append([]string(nil), le.TargetInstanceIDs...)
	return out
}

// Expire splits list into the effects that survive the given boundary and
// the ones removed by it. Order is preserved in both results.
func Expire(list []LastingEffect, expiry Expiry) (kept, expired []LastingEffect) {
	for _, le := range list {
		if le.ExpiresAt == expiry {
			expired = append(expired, le)
			continue
		}
		kept = append(kept, le)
	}
	return kept, expired
}

// AmountFor sums the amounts of every effect of kind that targets instanceID.
func AmountFor(list []LastingEffect, kind Kind, instanceID string) int {
	total := 0
	for _, le := range list {
		if le.Kind == kind && le.Targets(instanceID) {
			total += le.Amount
		}
	}
	return total
}

// Grants reports whether any effect of kind targets instanceID.
func Grants(list []LastingEffect, kind Kind, instanceID string) bool {
	for _, le := range list {
		if le.Kind == kind && le.Targets(instanceID) {
			return true
		}
	}
	return false
}

// idNamespace scopes the name-based ids handed out to lasting effects and
// combat responses.
var idNamespace = uuid.MustParse("6f1c2a7e-4b0d-5e8a-9c3f-2d7b1e0a9f44")

// NewID derives a deterministic identifier from the source card and a
// per-game sequence number, so replays reproduce identical ids.
func NewID(prefix, sourceID string, seq int) string {
	name := fmt.Sprintf("%s:%s:%d", prefix, sourceID, seq)
	return uuid.NewSHA1(idNamespace, []byte(name)).String()
}
