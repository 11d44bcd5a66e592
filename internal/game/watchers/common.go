// Package watchers accumulates per-game statistics from the rules event
// stream. Watchers only observe events; the engine never reads them back.
package watchers

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// Scope is how long a watcher keeps what it has seen.
type Scope int

const (
	// ScopeGame watchers keep counting for the whole game.
	ScopeGame Scope = iota
	// ScopeRound watchers are reset when a new round starts.
	ScopeRound
)

// Watcher observes events and keeps a running tally per player.
type Watcher interface {
	Key() string
	Scope() Scope
	Watch(event rules.Event)
	Reset()
	// Counts returns the tally per player. The map is a copy.
	Counts() map[rules.PlayerID]int
	Copy() Watcher
}

// counter is the shared tally behind every concrete watcher.
type counter struct {
	key    string
	scope  Scope
	counts map[rules.PlayerID]int
}

func newCounter(key string, scope Scope) counter {
	return counter{key: key, scope: scope, counts: make(map[rules.PlayerID]int)}
}

func (c *counter) Key() string  { return c.key }
func (c *counter) Scope() Scope { return c.scope }

func (c *counter) Reset() {
	c.counts = make(map[rules.PlayerID]int)
}

func (c *counter) add(player rules.PlayerID, n int) {
	if player == "" || n == 0 {
		return
	}
	c.counts[player] += n
}

func (c *counter) Counts() map[rules.PlayerID]int {
	out := make(map[rules.PlayerID]int, len(c.counts))
	for p, n := range c.counts {
		out[p] = n
	}
	return out
}

func (c counter) clone() counter {
	out := newCounter(c.key, c.scope)
	for p, n := range c.counts {
		out.counts[p] = n
	}
	return out
}

// CardsPlayedWatcher counts cards played from hand.
type CardsPlayedWatcher struct {
	counter
	played map[rules.PlayerID][]string
}

// NewCardsPlayedWatcher creates a game-scoped cards played watcher.
func NewCardsPlayedWatcher() *CardsPlayedWatcher {
	return &CardsPlayedWatcher{
		counter: newCounter("cards_played", ScopeGame),
		played:  make(map[rules.PlayerID][]string),
	}
}

// Watch implements Watcher.
func (w *CardsPlayedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardPlayed {
		return
	}
	w.add(event.Player, 1)
	if event.CardID != "" {
		w.played[event.Player] = append(w.played[event.Player], event.CardID)
	}
}

// Reset implements Watcher.
func (w *CardsPlayedWatcher) Reset() {
	w.counter.Reset()
	w.played = make(map[rules.PlayerID][]string)
}

// Played returns the instance ids a player has played, in order.
func (w *CardsPlayedWatcher) Played(player rules.PlayerID) []string {
	return append([]string(nil), w.played[player]...)
}

// Copy implements Watcher.
func (w *CardsPlayedWatcher) Copy() Watcher {
	out := &CardsPlayedWatcher{counter: w.clone(), played: make(map[rules.PlayerID][]string)}
	for p, ids := range w.played {
		out.played[p] = append([]string(nil), ids...)
	}
	return out
}

// FollowersDefeatedWatcher counts defeated cards by owner.
type FollowersDefeatedWatcher struct {
	counter
}

// NewFollowersDefeatedWatcher creates a game-scoped defeat watcher.
func NewFollowersDefeatedWatcher() *FollowersDefeatedWatcher {
	return &FollowersDefeatedWatcher{counter: newCounter("followers_defeated", ScopeGame)}
}

// Watch implements Watcher.
func (w *FollowersDefeatedWatcher) Watch(event rules.Event) {
	if event.Type == rules.EventCardDefeated {
		w.add(event.Player, 1)
	}
}

// Copy implements Watcher.
func (w *FollowersDefeatedWatcher) Copy() Watcher {
	return &FollowersDefeatedWatcher{counter: w.clone()}
}

// PowerGainedWatcher sums the power each player gained.
type PowerGainedWatcher struct {
	counter
}

// NewPowerGainedWatcher creates a watcher with the given scope, so the same
// type serves both the game total and the current round.
func NewPowerGainedWatcher(scope Scope) *PowerGainedWatcher {
	key := "power_gained"
	if scope == ScopeRound {
		key = "power_gained_this_round"
	}
	return &PowerGainedWatcher{counter: newCounter(key, scope)}
}

// Watch implements Watcher.
func (w *PowerGainedWatcher) Watch(event rules.Event) {
	if event.Type == rules.EventPowerGained {
		w.add(event.Player, event.Amount)
	}
}

// Copy implements Watcher.
func (w *PowerGainedWatcher) Copy() Watcher {
	return &PowerGainedWatcher{counter: w.clone()}
}

// AttacksWatcher counts declared attacks. Each attack_declared event is one
// attacking follower.
type AttacksWatcher struct {
	counter
}

// NewAttacksWatcher creates a game-scoped attack watcher.
func NewAttacksWatcher() *AttacksWatcher {
	return &AttacksWatcher{counter: newCounter("attackers_declared", ScopeGame)}
}

// Watch implements Watcher.
func (w *AttacksWatcher) Watch(event rules.Event) {
	if event.Type == rules.EventAttackDeclared {
		w.add(event.Player, 1)
	}
}

// Copy implements Watcher.
func (w *AttacksWatcher) Copy() Watcher {
	return &AttacksWatcher{counter: w.clone()}
}

// LocationsDepletedWatcher counts depleted locations by owner.
type LocationsDepletedWatcher struct {
	counter
}

// NewLocationsDepletedWatcher creates a game-scoped depletion watcher.
func NewLocationsDepletedWatcher() *LocationsDepletedWatcher {
	return &LocationsDepletedWatcher{counter: newCounter("locations_depleted", ScopeGame)}
}

// Watch implements Watcher.
func (w *LocationsDepletedWatcher) Watch(event rules.Event) {
	if event.Type == rules.EventLocationDepleted {
		w.add(event.Player, 1)
	}
}

// Copy implements Watcher.
func (w *LocationsDepletedWatcher) Copy() Watcher {
	return &LocationsDepletedWatcher{counter: w.clone()}
}

// Stats is a snapshot of every watcher in a Set, keyed by watcher key.
type Stats map[string]map[rules.PlayerID]int

// Set is the collection of watchers attached to one game. It is not safe
// for concurrent use; callers hold the game's lock.
type Set struct {
	watchers []Watcher
}

// NewSet creates a set holding the given watchers.
func NewSet(ws ...Watcher) *Set {
	return &Set{watchers: ws}
}

// DefaultSet returns the watchers every live game carries.
func DefaultSet() *Set {
	return NewSet(
		NewCardsPlayedWatcher(),
		NewFollowersDefeatedWatcher(),
		NewLocationsDepletedWatcher(),
		NewPowerGainedWatcher(ScopeGame),
		NewPowerGainedWatcher(ScopeRound),
		NewAttacksWatcher(),
	)
}

// Watch feeds events to every watcher in order. A round_started event
// resets round-scoped watchers before anything after it is counted.
func (s *Set) Watch(events []rules.Event) {
	for _, ev := range events {
		if ev.Type == rules.EventRoundStarted {
			for _, w := range s.watchers {
				if w.Scope() == ScopeRound {
					w.Reset()
				}
			}
		}
		for _, w := range s.watchers {
			w.Watch(ev)
		}
	}
}

// Get returns the watcher with the given key.
func (s *Set) Get(key string) (Watcher, bool) {
	for _, w := range s.watchers {
		if w.Key() == key {
			return w, true
		}
	}
	return nil, false
}

// Stats snapshots every watcher.
func (s *Set) Stats() Stats {
	out := make(Stats, len(s.watchers))
	for _, w := range s.watchers {
		out[w.Key()] = w.Counts()
	}
	return out
}

// Copy returns an independent copy of the set.
func (s *Set) Copy() *Set {
	out := &Set{watchers: make([]Watcher, len(s.watchers))}
	for i, w := range s.watchers {
		out.watchers[i] = w.Copy()
	}
	return out
}
