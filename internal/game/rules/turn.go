package rules

import "fmt"

// PlayerID identifies one of the two seats.
type PlayerID string

const (
	Player1 PlayerID = "player1"
	Player2 PlayerID = "player2"
)

// Opponent returns the other seat.
func (p PlayerID) Opponent() PlayerID {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// Valid reports whether p names one of the two seats.
func (p PlayerID) Valid() bool {
	return p == Player1 || p == Player2
}

// Players lists both seats in fixed order.
var Players = []PlayerID{Player1, Player2}

// Phase represents the broad phases of a round.
type Phase string

const (
	PhaseAction   Phase = "action"
	PhaseRally    Phase = "rally"
	PhaseGameOver Phase = "gameOver"
)

// CombatStep represents the steps of the combat state machine.
type CombatStep string

const (
	CombatResolveAttackAbilities CombatStep = "resolve_attack_abilities"
	CombatDeclareBlockers        CombatStep = "declare_blockers"
	CombatBreach                 CombatStep = "breach"
)

// Zone is where a card instance currently lives.
type Zone string

const (
	ZoneDeck         Zone = "deck"
	ZoneHand         Zone = "hand"
	ZoneBoard        Zone = "board"
	ZoneDiscard      Zone = "discard"
	ZoneRemoved      Zone = "removed"
	ZoneWorldbreaker Zone = "worldbreaker"
)

var zoneNames = map[Zone]bool{
	ZoneDeck:         true,
	ZoneHand:         true,
	ZoneBoard:        true,
	ZoneDiscard:      true,
	ZoneRemoved:      true,
	ZoneWorldbreaker: true,
}

// ParseZone validates a zone name.
func ParseZone(name string) (Zone, error) {
	z := Zone(name)
	if !zoneNames[z] {
		return "", fmt.Errorf("unknown zone %q", name)
	}
	return z, nil
}

// InPlay reports whether cards in this zone can have their abilities scanned.
func (z Zone) InPlay() bool {
	return z == ZoneBoard || z == ZoneWorldbreaker
}
