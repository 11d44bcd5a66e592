package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// CreateGameState deals both worldbreakers and decks, shuffles each deck
// from the seed and draws opening hands. The result is fully determined by
// the config and the registered card definitions.
func (e *Engine) CreateGameState(cfg GameConfig) (*GameState, error) {
	first := cfg.FirstPlayer
	if first == "" {
		first = rules.Player1
	}
	if !first.Valid() {
		return nil, fmt.Errorf("invalid first player %q", first)
	}

	s := &GameState{
		Rules:        e.rules,
		Phase:        rules.PhaseAction,
		Round:        1,
		FirstPlayer:  first,
		ActivePlayer: first,
		Players:      make(map[rules.PlayerID]*PlayerState, len(rules.Players)),
		RNG:          cfg.Seed,
	}

	for _, p := range rules.Players {
		deck, ok := cfg.Decks[p]
		if !ok {
			return nil, fmt.Errorf("no deck configured for %s", p)
		}
		standing := make(map[cards.Guild]int, len(cards.Guilds))
		for _, g := range cards.Guilds {
			standing[g] = 0
		}
		s.Players[p] = &PlayerState{Mythium: e.rules.StartingMythium, Standing: standing}

		wb, err := e.cards.Get(deck.Worldbreaker)
		if err != nil {
			return nil, fmt.Errorf("worldbreaker for %s: %w", p, err)
		}
		if wb.Type != cards.TypeWorldbreaker {
			return nil, fmt.Errorf("%s is a %s, not a worldbreaker", wb.ID, wb.Type)
		}
		s.Cards = append(s.Cards, &CardInstance{
			InstanceID:   fmt.Sprintf("%s-wb", p),
			DefinitionID: wb.ID,
			Owner:        p,
			Zone:         rules.ZoneWorldbreaker,
			Counters:     counters.New(),
		})

		for i, id := range deck.Cards {
			def, err := e.cards.Get(id)
			if err != nil {
				return nil, fmt.Errorf("deck of %s: %w", p, err)
			}
			if def.Type == cards.TypeWorldbreaker {
				return nil, fmt.Errorf("deck of %s contains worldbreaker %s", p, id)
			}
			s.Cards = append(s.Cards, &CardInstance{
				InstanceID:   fmt.Sprintf("%s-%02d", p, i+1),
				DefinitionID: id,
				Owner:        p,
				Zone:         rules.ZoneDeck,
				Counters:     counters.New(),
			})
		}
	}

	x := e.newExecution(s)
	for _, p := range rules.Players {
		x.shuffleDeck(p)
	}
	for _, p := range rules.Players {
		x.drawCards(p, e.rules.OpeningHandSize)
	}
	s.Version = 1

	e.logger.Info("game state created",
		zap.Int64("seed", cfg.Seed),
		zap.String("first_player", string(first)),
		zap.Int("cards", len(s.Cards)),
	)
	return s, nil
}
