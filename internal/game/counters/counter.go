package counters

import "sort"

// CounterType names a per-card counter.
type CounterType string

const (
	// Wound marks damage on a follower; defeated at wounds >= effective health.
	Wound CounterType = "wound"
	// Stun makes a card skip one readying at rally; consumed instead.
	Stun CounterType = "stun"
	// Stage counts undeveloped stages left on a location.
	Stage CounterType = "stage"
	// Strength is a permanent +1 strength per counter.
	Strength CounterType = "strength"
	// Health is a permanent +1 health per counter.
	Health CounterType = "health"
)

// String returns the string representation of the counter type.
func (ct CounterType) String() string {
	return string(ct)
}

// Counters is a sparse collection of counters on a card instance. Entries
// with a value of zero or less are deleted, never stored.
type Counters map[CounterType]int

// New creates an empty Counters collection.
func New() Counters {
	return make(Counters)
}

// Get returns the count of counters with the given name.
func (cs Counters) Get(name CounterType) int {
	if cs == nil {
		return 0
	}
	return cs[name]
}

// Has returns true if there are any counters with the given name.
func (cs Counters) Has(name CounterType) bool {
	return cs.Get(name) > 0
}

// Add adds amount counters of the given name. Non-positive amounts are
// ignored. The receiver must be non-nil.
func (cs Counters) Add(name CounterType, amount int) {
	if amount <= 0 {
		return
	}
	cs[name] += amount
}

// Remove removes up to amount counters of the given name and returns how
// many were actually removed. The entry is deleted once it reaches zero.
func (cs Counters) Remove(name CounterType, amount int) int {
	if amount <= 0 || cs == nil {
		return 0
	}
	current, ok := cs[name]
	if !ok {
		return 0
	}
	if amount >= current {
		delete(cs, name)
		return current
	}
	cs[name] = current - amount
	return amount
}

// Set stores an exact value, deleting the entry when value <= 0.
func (cs Counters) Set(name CounterType, value int) {
	if value <= 0 {
		delete(cs, name)
		return
	}
	cs[name] = value
}

// Total returns the total number of all counters.
func (cs Counters) Total() int {
	total := 0
	for _, count := range cs {
		total += count
	}
	return total
}

// Copy creates a deep copy of the collection, dropping any non-positive
// entries that were decoded from external data.
func (cs Counters) Copy() Counters {
	out := make(Counters, len(cs))
	for name, count := range cs {
		if count > 0 {
			out[name] = count
		}
	}
	return out
}

// Names returns counter names in sorted order.
func (cs Counters) Names() []CounterType {
	names := make([]CounterType, 0, len(cs))
	for name := range cs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
