package rules

import (
	"sync"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Game/turn events
	EventGameStarted   EventType = "game_started"
	EventTurnAdvanced  EventType = "turn_advanced"
	EventRallyStarted  EventType = "rally_started"
	EventRallyEnded    EventType = "rally_ended"
	EventRoundStarted  EventType = "round_started"
	EventGameOver      EventType = "game_over"
	EventEffectExpired EventType = "lasting_effect_expired"

	// Resource events
	EventMythiumGained  EventType = "mythium_gained"
	EventMythiumSpent   EventType = "mythium_spent"
	EventPowerGained    EventType = "power_gained"
	EventStandingGained EventType = "standing_gained"

	// Card/zone events
	EventCardMoved       EventType = "card_moved"
	EventCardDrawn       EventType = "card_drawn"
	EventCardPlayed      EventType = "card_played"
	EventCardDiscarded   EventType = "card_discarded"
	EventDeckShuffled    EventType = "deck_shuffled"
	EventDeckEmpty       EventType = "deck_empty"
	EventCardExhausted   EventType = "card_exhausted"
	EventCardReadied     EventType = "card_readied"
	EventStunConsumed    EventType = "stun_consumed"
	EventCounterAdded    EventType = "counter_added"
	EventCounterRemoved  EventType = "counter_removed"
	EventLocationDevelop EventType = "location_developed"

	// Ability events
	EventAbilityTriggered EventType = "ability_triggered"
	EventAbilityUsed      EventType = "ability_used"
	EventEffectFizzled    EventType = "effect_fizzled"
	EventLastingEffect    EventType = "lasting_effect_created"
	EventChoiceCreated    EventType = "choice_created"
	EventChoiceResolved   EventType = "choice_resolved"

	// Combat events
	EventAttackDeclared  EventType = "attack_declared"
	EventBlockerDeclared EventType = "blocker_declared"
	EventBlockPassed     EventType = "block_passed"
	EventFight           EventType = "fight"
	EventBreach          EventType = "breach"
	EventLocationDamaged EventType = "location_damaged"
	EventCombatEnded     EventType = "combat_ended"

	// Cleanup events
	EventCardDefeated     EventType = "card_defeated"
	EventLocationDepleted EventType = "location_depleted"
)

// Event is a single entry of the per-call event log. Events are purely
// additive: nothing in the engine re-derives state from them.
type Event struct {
	Type     EventType `json:"type"`
	Player   PlayerID  `json:"player,omitempty"`
	CardID   string    `json:"cardId,omitempty"`
	TargetID string    `json:"targetId,omitempty"`
	Amount   int       `json:"amount,omitempty"`
	From     Zone      `json:"from,omitempty"`
	To       Zone      `json:"to,omitempty"`
	Detail   string    `json:"detail,omitempty"`
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, player PlayerID, cardID string) Event {
	return Event{
		Type:   eventType,
		Player: player,
		CardID: cardID,
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, player PlayerID, cardID string, amount int) Event {
	evt := NewEvent(eventType, player, cardID)
	evt.Amount = amount
	return evt
}

// Listener receives published events.
type Listener func(gameID string, events []Event)

// EventBus fans out per-call event logs to subscribers (websocket pushes,
// session observers). It carries no game state of its own.
type EventBus struct {
	mu         sync.RWMutex
	nextHandle int
	listeners  map[int]Listener
}

// NewEventBus creates an empty event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
}

// Publish delivers the events to all registered listeners synchronously.
func (bus *EventBus) Publish(gameID string, events []Event) {
	if len(events) == 0 {
		return
	}
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, listener := range bus.listeners {
		listener(gameID, events)
	}
}

// Len returns the number of registered listeners.
func (bus *EventBus) Len() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.listeners)
}
