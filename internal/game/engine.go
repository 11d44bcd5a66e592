package game

import (
	"go.uber.org/zap"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// Engine is the rules engine. It holds no game state: every call takes a
// state and returns a new one, so one Engine serves any number of games.
type Engine struct {
	logger    *zap.Logger
	cards     *cards.Registry
	resolvers *ResolverRegistry
	rules     Rules
}

// Result is the outcome of ProcessAction.
type Result struct {
	State      *GameState    `json:"state"`
	Events     []rules.Event `json:"events"`
	WaitingFor *WaitingFor   `json:"waitingFor,omitempty"`
}

// NewEngine creates an engine over the given registries. A nil logger is
// replaced by a no-op logger, a nil resolver registry by an empty one, and
// unset rule constants by the defaults.
func NewEngine(logger *zap.Logger, registry *cards.Registry, resolvers *ResolverRegistry, gameRules Rules) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = cards.NewRegistry()
	}
	if resolvers == nil {
		resolvers = NewResolverRegistry()
	}
	if gameRules == (Rules{}) {
		gameRules = DefaultRules()
	}
	return &Engine{
		logger:    logger,
		cards:     registry,
		resolvers: resolvers,
		rules:     gameRules.withDefaults(),
	}
}

// Cards returns the card registry the engine reads from.
func (e *Engine) Cards() *cards.Registry {
	return e.cards
}

// Resolvers returns the custom resolver registry.
func (e *Engine) Resolvers() *ResolverRegistry {
	return e.resolvers
}

// Rules returns the constants new games are created with.
func (e *Engine) Rules() Rules {
	return e.rules
}

func (e *Engine) newExecution(state *GameState) *execution {
	return &execution{view: view{s: state, cards: e.cards}, engine: e}
}

// Validate reports whether the action is legal in state. It returns nil or
// an *InvalidActionError and never modifies state.
func (e *Engine) Validate(state *GameState, pa PlayerAction) error {
	return view{s: state, cards: e.cards}.validate(pa)
}

// LegalActions lists every action Validate would accept, in a fixed order.
func (e *Engine) LegalActions(state *GameState) []PlayerAction {
	return view{s: state, cards: e.cards}.legalActions()
}

// ProcessAction validates and applies an action. The input state is left
// untouched; the returned state is a new value.
func (e *Engine) ProcessAction(state *GameState, pa PlayerAction) (*Result, error) {
	if err := e.Validate(state, pa); err != nil {
		e.logger.Debug("rejected action",
			zap.String("player", string(pa.Player)),
			zap.String("action", string(pa.Action.Type)),
			zap.Error(err),
		)
		return nil, err
	}

	s := state.Clone()
	x := e.newExecution(s)

	var queue []Step
	if s.PendingChoice != nil {
		queue = append(x.respond(pa), s.StepQueue...)
		s.StepQueue = nil
	} else {
		queue = append(x.actionSteps(pa), Step{Kind: StepAdvanceTurn})
	}
	x.drain(queue)

	result := &Result{State: s, Events: x.events}
	if pc := s.PendingChoice; pc != nil {
		result.WaitingFor = &WaitingFor{Player: pc.Player, Choice: pc.Type}
	}

	e.logger.Debug("processed action",
		zap.String("player", string(pa.Player)),
		zap.String("action", string(pa.Action.Type)),
		zap.Uint64("version", s.Version),
		zap.Int("events", len(x.events)),
		zap.Int("queued_steps", len(s.StepQueue)),
	)
	return result, nil
}
