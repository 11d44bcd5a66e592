package game

import (
	"sort"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/effects"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// GameState is the complete, serializable state of one game. The engine
// never modifies a state it was handed; every call works on a clone.
type GameState struct {
	Version         uint64                          `json:"version"`
	Rules           Rules                           `json:"rules"`
	Phase           rules.Phase                     `json:"phase"`
	Round           int                             `json:"round"`
	ActionsTaken    int                             `json:"actionsTaken"`
	FirstPlayer     rules.PlayerID                  `json:"firstPlayer"`
	ActivePlayer    rules.PlayerID                  `json:"activePlayer"`
	Players         map[rules.PlayerID]*PlayerState `json:"players"`
	Cards           []*CardInstance                 `json:"cards"`
	Combat          *CombatState                    `json:"combat,omitempty"`
	PendingChoice   *PendingChoice                  `json:"pendingChoice,omitempty"`
	LastingEffects  []effects.LastingEffect         `json:"lastingEffects,omitempty"`
	CombatResponses []CombatResponse                `json:"combatResponses,omitempty"`
	RNG             int64                           `json:"rng"`
	Winner          *rules.PlayerID                 `json:"winner,omitempty"`
	Draw            bool                            `json:"draw,omitempty"`
	StepQueue       []Step                          `json:"stepQueue,omitempty"`
	NextEffectSeq   int                             `json:"nextEffectSeq"`
}

// PlayerState holds one player's resources.
type PlayerState struct {
	Mythium  int                 `json:"mythium"`
	Power    int                 `json:"power"`
	Standing map[cards.Guild]int `json:"standing"`
	HandSize int                 `json:"handSize"`
}

// CardInstance is one physical card in a game.
type CardInstance struct {
	InstanceID    string            `json:"instanceId"`
	DefinitionID  string            `json:"definitionId"`
	Owner         rules.PlayerID    `json:"owner"`
	Zone          rules.Zone        `json:"zone"`
	Exhausted     bool              `json:"exhausted,omitempty"`
	Counters      counters.Counters `json:"counters,omitempty"`
	UsedAbilities []int             `json:"usedAbilities,omitempty"`
}

// HasUsedAbility reports whether the ability index was used this round.
func (c *CardInstance) HasUsedAbility(index int) bool {
	for _, i := range c.UsedAbilities {
		if i == index {
			return true
		}
	}
	return false
}

func (c *CardInstance) markAbilityUsed(index int) {
	if c.HasUsedAbility(index) {
		return
	}
	c.UsedAbilities = append(c.UsedAbilities, index)
	sort.Ints(c.UsedAbilities)
}

// CombatState exists only while an attack is in progress.
type CombatState struct {
	Step            rules.CombatStep `json:"step"`
	AttackingPlayer rules.PlayerID   `json:"attackingPlayer"`
	AttackerIDs     []string         `json:"attackerIds"`
	DamageDealt     int              `json:"damageDealt"`
	PowerGained     int              `json:"powerGained"`
}

// Defender returns the player being attacked.
func (c *CombatState) Defender() rules.PlayerID {
	return c.AttackingPlayer.Opponent()
}

// IsAttacking reports whether id is still a current attacker.
func (c *CombatState) IsAttacking(id string) bool {
	return indexOf(c.AttackerIDs, id) >= 0
}

// CombatResponse is a one-shot hook scoped to the current combat.
type CombatResponse struct {
	ID         string         `json:"id"`
	Timing     cards.Timing   `json:"timing"`
	Controller rules.PlayerID `json:"controller"`
	SourceID   string         `json:"sourceId"`
	Effects    []cards.Effect `json:"effects"`
}

// Card returns the instance with the given id.
func (s *GameState) Card(id string) (*CardInstance, bool) {
	for _, c := range s.Cards {
		if c.InstanceID == id {
			return c, true
		}
	}
	return nil, false
}

// CardsIn returns the player's cards in a zone, in storage order.
func (s *GameState) CardsIn(player rules.PlayerID, zone rules.Zone) []*CardInstance {
	var out []*CardInstance
	for _, c := range s.Cards {
		if c.Owner == player && c.Zone == zone {
			out = append(out, c)
		}
	}
	return out
}

// Player returns the state of the given player.
func (s *GameState) Player(id rules.PlayerID) *PlayerState {
	p, ok := s.Players[id]
	if !ok {
		engineBug("unknown player %q", id)
	}
	return p
}

// IsOver reports whether the game has finished.
func (s *GameState) IsOver() bool {
	return s.Phase == rules.PhaseGameOver
}

// Clone returns a deep copy of the state. Effect lists inside steps, choices
// and combat responses are shared because they are never modified in place.
func (s *GameState) Clone() *GameState {
	out := *s
	out.Players = make(map[rules.PlayerID]*PlayerState, len(s.Players))
	for id, p := range s.Players {
		cp := *p
		cp.Standing = make(map[cards.Guild]int, len(p.Standing))
		for g, v := range p.Standing {
			cp.Standing[g] = v
		}
		out.Players[id] = &cp
	}
	out.Cards = make([]*CardInstance, len(s.Cards))
	for i, c := range s.Cards {
		cp := *c
		cp.Counters = c.Counters.Copy()
		cp.UsedAbilities = append([]int(nil), c.UsedAbilities...)
		out.Cards[i] = &cp
	}
	if s.Combat != nil {
		cp := *s.Combat
		cp.AttackerIDs = append([]string(nil), s.Combat.AttackerIDs...)
		out.Combat = &cp
	}
	if s.PendingChoice != nil {
		out.PendingChoice = s.PendingChoice.clone()
	}
	if s.LastingEffects != nil {
		out.LastingEffects = make([]effects.LastingEffect, len(s.LastingEffects))
		for i, le := range s.LastingEffects {
			out.LastingEffects[i] = le.Clone()
		}
	}
	out.CombatResponses = append([]CombatResponse(nil), s.CombatResponses...)
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	if s.StepQueue != nil {
		out.StepQueue = make([]Step, len(s.StepQueue))
		for i, st := range s.StepQueue {
			out.StepQueue[i] = st.clone()
		}
	}
	return &out
}

func indexOf(list []string, id string) int {
	for i, v := range list {
		if v == id {
			return i
		}
	}
	return -1
}

func without(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
