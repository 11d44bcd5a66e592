package game

import "github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"

// Rules are the numeric constants of a game. They are copied into every
// GameState so a state is interpreted the same way wherever it is loaded.
type Rules struct {
	ActionsPerRound int `json:"actionsPerRound" mapstructure:"actions_per_round"`
	RallyIncome     int `json:"rallyIncome" mapstructure:"rally_income"`
	RallyDraw       int `json:"rallyDraw" mapstructure:"rally_draw"`
	PowerToWin      int `json:"powerToWin" mapstructure:"power_to_win"`
	OpeningHandSize int `json:"openingHandSize" mapstructure:"opening_hand_size"`
	StartingMythium int `json:"startingMythium" mapstructure:"starting_mythium"`
	DrawCardCost    int `json:"drawCardCost" mapstructure:"draw_card_cost"`
}

// DefaultRules returns the standard game constants.
func DefaultRules() Rules {
	return Rules{
		ActionsPerRound: 8,
		RallyIncome:     2,
		RallyDraw:       1,
		PowerToWin:      10,
		OpeningHandSize: 5,
		StartingMythium: 0,
		DrawCardCost:    1,
	}
}

// withDefaults fills unset constants. StartingMythium may legitimately be 0.
func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.ActionsPerRound <= 0 {
		r.ActionsPerRound = d.ActionsPerRound
	}
	if r.RallyIncome <= 0 {
		r.RallyIncome = d.RallyIncome
	}
	if r.RallyDraw <= 0 {
		r.RallyDraw = d.RallyDraw
	}
	if r.PowerToWin <= 0 {
		r.PowerToWin = d.PowerToWin
	}
	if r.OpeningHandSize < 0 {
		r.OpeningHandSize = d.OpeningHandSize
	}
	if r.DrawCardCost < 0 {
		r.DrawCardCost = d.DrawCardCost
	}
	return r
}

// DeckConfig lists a player's worldbreaker and deck by definition id.
type DeckConfig struct {
	Worldbreaker string   `json:"worldbreaker" yaml:"worldbreaker"`
	Cards        []string `json:"cards" yaml:"cards"`
}

// GameConfig describes a new game.
type GameConfig struct {
	Seed        int64                         `json:"seed"`
	FirstPlayer rules.PlayerID                `json:"firstPlayer,omitempty"`
	Decks       map[rules.PlayerID]DeckConfig `json:"decks"`
}
