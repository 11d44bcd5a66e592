package game

import (
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/cards"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/counters"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/effects"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/rules"
	"github.com/worldbreakers/worldbreakers-server-go/internal/game/targeting"
)

// view answers derived questions about a state. It never mutates.
type view struct {
	s     *GameState
	cards *cards.Registry
}

var _ targeting.GameStateAccessor = view{}

func (v view) def(c *CardInstance) *cards.CardDefinition {
	def, err := v.cards.Get(c.DefinitionID)
	if err != nil {
		engineBug("card %s: %v", c.InstanceID, err)
	}
	return def
}

func (v view) card(id string) *CardInstance {
	c, ok := v.s.Card(id)
	if !ok {
		engineBug("unknown card instance %q", id)
	}
	return c
}

// FindCard implements targeting.GameStateAccessor.
func (v view) FindCard(id string) (targeting.CardInfo, bool) {
	c, ok := v.s.Card(id)
	if !ok {
		return targeting.CardInfo{}, false
	}
	def := v.def(c)
	return targeting.CardInfo{
		InstanceID:   c.InstanceID,
		DefinitionID: c.DefinitionID,
		Owner:        c.Owner,
		Zone:         c.Zone,
		Type:         string(def.Type),
		Guild:        string(def.Guild),
		Cost:         def.Cost,
		Wounds:       c.Counters.Get(counters.Wound),
		Exhausted:    c.Exhausted,
	}, true
}

// HasKeyword implements targeting.GameStateAccessor.
func (v view) HasKeyword(id, keyword string) bool {
	c, ok := v.s.Card(id)
	if !ok {
		return false
	}
	return v.hasKeyword(c, keyword)
}

// CanPay implements targeting.GameStateAccessor.
func (v view) CanPay(player rules.PlayerID, id string, reduction int) bool {
	c, ok := v.s.Card(id)
	if !ok {
		return false
	}
	return v.canPay(player, c, reduction)
}

// ActivePlayer implements targeting.GameStateAccessor.
func (v view) ActivePlayer() rules.PlayerID {
	return v.s.ActivePlayer
}

func (v view) matcher() *targeting.Matcher {
	return targeting.NewMatcher(v)
}

func (v view) effectiveStrength(c *CardInstance) int {
	total := v.def(c).Strength +
		c.Counters.Get(counters.Strength) +
		effects.AmountFor(v.s.LastingEffects, effects.KindStrengthBuff, c.InstanceID)
	if total < 0 {
		return 0
	}
	return total
}

func (v view) effectiveHealth(c *CardInstance) int {
	return v.def(c).Health +
		c.Counters.Get(counters.Health) +
		effects.AmountFor(v.s.LastingEffects, effects.KindHealthBuff, c.InstanceID)
}

// keywordAmount sums printed and currently active conditional grants of a
// keyword. Lasting grants count as amount 1 when nothing else grants it.
func (v view) keywordAmount(c *CardInstance, keyword string) int {
	def := v.def(c)
	total := 0
	found := false
	for _, kw := range def.Keywords {
		if kw.Name == keyword {
			total += kw.Amount
			found = true
		}
	}
	for _, ck := range def.ConditionalKeywords {
		if ck.Keyword.Name != keyword {
			continue
		}
		// Attacking alone only switches on the lone attacker's own keyword.
		if ck.Condition.AttackingAlone && (v.s.Combat == nil || !v.s.Combat.IsAttacking(c.InstanceID)) {
			continue
		}
		ctx := EffectContext{Controller: c.Owner, SourceID: c.InstanceID}
		if v.conditionHolds(&ck.Condition, ctx) {
			total += ck.Keyword.Amount
			found = true
		}
	}
	if !found && v.lastingGrant(c, keyword) {
		found = true
	}
	if found && total == 0 {
		return 1
	}
	return total
}

func (v view) lastingGrant(c *CardInstance, keyword string) bool {
	kind := effects.Kind(keyword)
	if kind.Keyword() == "" {
		return false
	}
	return effects.Grants(v.s.LastingEffects, kind, c.InstanceID)
}

// hasKeyword is the state-aware keyword check: printed keywords, conditional
// keywords evaluated against the live state, and lasting grants.
func (v view) hasKeyword(c *CardInstance, keyword string) bool {
	return v.keywordAmount(c, keyword) > 0
}

func (v view) isHidden(c *CardInstance) bool {
	return v.hasKeyword(c, cards.KeywordHidden)
}

func (v view) conditionHolds(cond *cards.Condition, ctx EffectContext) bool {
	if cond == nil {
		return true
	}
	if cond.MinCount > 0 {
		m := v.matcher()
		count := 0
		for _, c := range v.s.Cards {
			if m.Matches(cond.Filter, c.InstanceID, ctx.match()) {
				count++
			}
		}
		if count < cond.MinCount {
			return false
		}
	}
	if cond.AttackingAlone {
		if v.s.Combat == nil || len(v.s.Combat.AttackerIDs) != 1 {
			return false
		}
	}
	if cond.StandingBelow != nil {
		standing := v.s.Player(ctx.Controller).Standing[cond.StandingBelow.Guild]
		if standing >= cond.StandingBelow.Threshold {
			return false
		}
	}
	return true
}

// costReduction sums the player's in-play auras that apply to a card type.
func (v view) costReduction(player rules.PlayerID, cardType cards.CardType) int {
	total := 0
	for _, c := range v.s.Cards {
		if c.Owner != player || !c.Zone.InPlay() {
			continue
		}
		cr := v.def(c).CostReduction
		if cr == nil {
			continue
		}
		if cr.CardType == "" || cr.CardType == cardType {
			total += cr.Amount
		}
	}
	return total
}

func (v view) playCost(player rules.PlayerID, c *CardInstance, extraReduction int) int {
	def := v.def(c)
	cost := def.Cost - v.costReduction(player, def.Type) - extraReduction
	if cost < 0 {
		return 0
	}
	return cost
}

func (v view) meetsStanding(player rules.PlayerID, def *cards.CardDefinition) bool {
	standing := v.s.Player(player).Standing
	for guild, need := range def.StandingRequirement {
		if standing[guild] < need {
			return false
		}
	}
	return true
}

func (v view) canPay(player rules.PlayerID, c *CardInstance, extraReduction int) bool {
	def := v.def(c)
	if def.Type == cards.TypeWorldbreaker {
		return false
	}
	if !v.meetsStanding(player, def) {
		return false
	}
	return v.s.Player(player).Mythium >= v.playCost(player, c, extraReduction)
}

func (v view) isFollowerOnBoard(c *CardInstance) bool {
	return c.Zone == rules.ZoneBoard && v.def(c).Type == cards.TypeFollower
}

func (v view) canAttack(player rules.PlayerID, c *CardInstance) bool {
	return c.Owner == player &&
		v.isFollowerOnBoard(c) &&
		!c.Exhausted &&
		!v.hasKeyword(c, cards.KeywordStationary)
}

func (v view) attackCandidates(player rules.PlayerID) []string {
	var out []string
	for _, c := range v.s.Cards {
		if v.canAttack(player, c) {
			out = append(out, c.InstanceID)
		}
	}
	return out
}

// blockAllowed applies the per-pair restrictions, ignoring draws_aggro.
func (v view) blockAllowed(blocker, attacker *CardInstance) bool {
	if v.s.Combat == nil || !v.s.Combat.IsAttacking(attacker.InstanceID) {
		return false
	}
	if attacker.Zone != rules.ZoneBoard {
		return false
	}
	if blocker.Owner != v.s.Combat.Defender() || !v.isFollowerOnBoard(blocker) || blocker.Exhausted {
		return false
	}
	if v.hasKeyword(attacker, cards.KeywordUnblockable) {
		return false
	}
	if br := v.def(attacker).BlockRestrictions; br != nil {
		if br.WoundedCannotBlock && blocker.Counters.Get(counters.Wound) > 0 {
			return false
		}
		if br.MinBlockerStrength > 0 && v.effectiveStrength(blocker) < br.MinBlockerStrength {
			return false
		}
	}
	return true
}

// canBlock is the full block legality predicate. While any ready defender
// with draws_aggro could block the attacker, only such followers may.
func (v view) canBlock(blocker, attacker *CardInstance) bool {
	if !v.blockAllowed(blocker, attacker) {
		return false
	}
	if v.hasKeyword(blocker, cards.KeywordDrawsAggro) {
		return true
	}
	for _, other := range v.s.Cards {
		if other.InstanceID == blocker.InstanceID {
			continue
		}
		if v.hasKeyword(other, cards.KeywordDrawsAggro) && v.blockAllowed(other, attacker) {
			return false
		}
	}
	return true
}

func (v view) anyLegalBlock() bool {
	if v.s.Combat == nil {
		return false
	}
	for _, aid := range v.s.Combat.AttackerIDs {
		attacker, ok := v.s.Card(aid)
		if !ok {
			continue
		}
		for _, b := range v.s.CardsIn(v.s.Combat.Defender(), rules.ZoneBoard) {
			if v.canBlock(b, attacker) {
				return true
			}
		}
	}
	return false
}

// livingAttackers filters the current attackers to those still on the board.
func (v view) livingAttackers() []string {
	if v.s.Combat == nil {
		return nil
	}
	var out []string
	for _, id := range v.s.Combat.AttackerIDs {
		if c, ok := v.s.Card(id); ok && c.Zone == rules.ZoneBoard {
			out = append(out, id)
		}
	}
	return out
}

// breachTargets lists the defender's non-hidden locations.
func (v view) breachTargets(defender rules.PlayerID) []string {
	var out []string
	for _, c := range v.s.CardsIn(defender, rules.ZoneBoard) {
		if v.def(c).Type == cards.TypeLocation && !v.isHidden(c) {
			out = append(out, c.InstanceID)
		}
	}
	return out
}

func (v view) worldbreakerIDs(player rules.PlayerID) []string {
	var out []string
	for _, c := range v.s.CardsIn(player, rules.ZoneWorldbreaker) {
		out = append(out, c.InstanceID)
	}
	return out
}

func (v view) canDevelop(player rules.PlayerID, c *CardInstance) bool {
	if c.Owner != player || c.Zone != rules.ZoneBoard {
		return false
	}
	def := v.def(c)
	if def.Type != cards.TypeLocation || c.Counters.Get(counters.Stage) <= 0 {
		return false
	}
	return v.s.Player(player).Mythium >= def.DevelopCost
}

func (v view) canUseAbility(player rules.PlayerID, c *CardInstance, index int) bool {
	if c.Owner != player || !c.Zone.InPlay() {
		return false
	}
	def := v.def(c)
	if index < 0 || index >= len(def.Abilities) {
		return false
	}
	ability := def.Abilities[index]
	if ability.Timing != cards.TimingAction || c.HasUsedAbility(index) {
		return false
	}
	if ability.Exhaust && c.Exhausted {
		return false
	}
	return v.s.Player(player).Mythium >= ability.Cost
}
