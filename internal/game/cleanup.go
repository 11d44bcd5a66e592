package game

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
)

// cleanup discards defeated followers and depleted locations. Each removal
// queues reactive scans for both players, then another pass runs, so the
// loop reaches a fixed point.
func (x *execution) cleanup() []Step {
	var defeated, depleted []*CardInstance
	for _, c := range x.s.Cards {
		if c.Zone != rules.ZoneBoard {
			continue
		}
		switch x.def(c).Type {
		case cards.TypeFollower:
			if c.Counters.Get(counters.Wound) >= x.effectiveHealth(c) {
				defeated = append(defeated, c)
			}
		case cards.TypeLocation:
			if c.Counters.Get(counters.Stage) <= 0 {
				depleted = append(depleted, c)
			}
		}
	}
	if len(defeated) == 0 && len(depleted) == 0 {
		return nil
	}

	var follow []Step
	for _, c := range defeated {
		follow = append(follow, x.defeat(c)...)
	}
	for _, c := range depleted {
		follow = append(follow, x.deplete(c)...)
	}
	return append(follow, cleanupStep())
}
