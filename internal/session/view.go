package session

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/effects"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// PlayerView is the part of a game one player may see. Cards in either
// deck and in the opponent's hand are left out; only their counts remain.
type PlayerView struct {
	GameID         string                          `json:"gameId"`
	Viewer         rules.PlayerID                  `json:"viewer"`
	Version        uint64                          `json:"version"`
	Phase          rules.Phase                     `json:"phase"`
	Round          int                             `json:"round"`
	ActionsTaken   int                             `json:"actionsTaken"`
	FirstPlayer    rules.PlayerID                  `json:"firstPlayer"`
	ActivePlayer   rules.PlayerID                  `json:"activePlayer"`
	Players        map[rules.PlayerID]PlayerStatus `json:"players"`
	Cards          []CardView                      `json:"cards"`
	Combat         *game.CombatState               `json:"combat,omitempty"`
	Choice         *ChoiceView                     `json:"choice,omitempty"`
	WaitingFor     *game.WaitingFor                `json:"waitingFor,omitempty"`
	LastingEffects []effects.LastingEffect         `json:"lastingEffects,omitempty"`
	Winner         *rules.PlayerID                 `json:"winner,omitempty"`
	Draw           bool                            `json:"draw,omitempty"`
}

// PlayerStatus holds a player's public resources and zone sizes.
type PlayerStatus struct {
	Mythium     int                 `json:"mythium"`
	Power       int                 `json:"power"`
	Standing    map[cards.Guild]int `json:"standing"`
	HandSize    int                 `json:"handSize"`
	DeckSize    int                 `json:"deckSize"`
	DiscardSize int                 `json:"discardSize"`
}

// CardView is a visible card.
type CardView struct {
	InstanceID    string            `json:"instanceId"`
	DefinitionID  string            `json:"definitionId"`
	Owner         rules.PlayerID    `json:"owner"`
	Zone          rules.Zone        `json:"zone"`
	Exhausted     bool              `json:"exhausted,omitempty"`
	Counters      counters.Counters `json:"counters,omitempty"`
	UsedAbilities []int             `json:"usedAbilities,omitempty"`
}

// ChoiceView describes the pending decision to the player who must make it.
type ChoiceView struct {
	Type        game.ChoiceType `json:"type"`
	Player      rules.PlayerID  `json:"player"`
	AttackerIDs []string        `json:"attackerIds,omitempty"`
	ValidIDs    []string        `json:"validIds,omitempty"`
	Count       int             `json:"count,omitempty"`
	Modes       []string        `json:"modes,omitempty"`
}

// Project builds the view of state for viewer. The view shares data with
// state, which the engine never modifies once returned.
func Project(gameID string, state *game.GameState, viewer rules.PlayerID) *PlayerView {
	v := &PlayerView{
		GameID:         gameID,
		Viewer:         viewer,
		Version:        state.Version,
		Phase:          state.Phase,
		Round:          state.Round,
		ActionsTaken:   state.ActionsTaken,
		FirstPlayer:    state.FirstPlayer,
		ActivePlayer:   state.ActivePlayer,
		Players:        make(map[rules.PlayerID]PlayerStatus, len(state.Players)),
		Combat:         state.Combat,
		LastingEffects: state.LastingEffects,
		Winner:         state.Winner,
		Draw:           state.Draw,
	}

	for id, p := range state.Players {
		standing := make(map[cards.Guild]int, len(p.Standing))
		for g, n := range p.Standing {
			standing[g] = n
		}
		v.Players[id] = PlayerStatus{
			Mythium:     p.Mythium,
			Power:       p.Power,
			Standing:    standing,
			HandSize:    p.HandSize,
			DeckSize:    len(state.CardsIn(id, rules.ZoneDeck)),
			DiscardSize: len(state.CardsIn(id, rules.ZoneDiscard)),
		}
	}

	for _, c := range state.Cards {
		if !visible(c, viewer) {
			continue
		}
		v.Cards = append(v.Cards, CardView{
			InstanceID:    c.InstanceID,
			DefinitionID:  c.DefinitionID,
			Owner:         c.Owner,
			Zone:          c.Zone,
			Exhausted:     c.Exhausted,
			Counters:      c.Counters,
			UsedAbilities: c.UsedAbilities,
		})
	}

	if pc := state.PendingChoice; pc != nil {
		v.WaitingFor = &game.WaitingFor{Player: pc.Player, Choice: pc.Type}
		if pc.Player == viewer {
			cv := &ChoiceView{
				Type:        pc.Type,
				Player:      pc.Player,
				AttackerIDs: pc.AttackerIDs,
				ValidIDs:    pc.ValidIDs,
				Count:       pc.Count,
			}
			for _, m := range pc.Modes {
				cv.Modes = append(cv.Modes, m.Label)
			}
			v.Choice = cv
		}
	}
	return v
}

func visible(c *game.CardInstance, viewer rules.PlayerID) bool {
	switch c.Zone {
	case rules.ZoneDeck:
		return false
	case rules.ZoneHand:
		return c.Owner == viewer
	default:
		return true
	}
}
