package effects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpireSplitsByScope(t *testing.T) {
	list := []LastingEffect{
		{ID: "a", Kind: KindStrengthBuff, Amount: 1, ExpiresAt: ExpiresEndOfCombat},
		{ID: "b", Kind: KindLethal, ExpiresAt: ExpiresEndOfTurn},
		{ID: "c", Kind: KindHealthBuff, Amount: 2, ExpiresAt: ExpiresEndOfCombat},
		{ID: "d", Kind: KindHidden, ExpiresAt: ExpiresEndOfRound},
	}

	kept, expired := Expire(list, ExpiresEndOfCombat)
	require.Len(t, expired, 2)
	assert.Equal(t, "a", expired[0].ID)
	assert.Equal(t, "c", expired[1].ID)
	require.Len(t, kept, 2)
	assert.Equal(t, "b", kept[0].ID)
	assert.Equal(t, "d", kept[1].ID)

	kept, expired = Expire(nil, ExpiresEndOfTurn)
	assert.Empty(t, kept)
	assert.Empty(t, expired)
}

func TestAmountForAndGrants(t *testing.T) {
	list := []LastingEffect{
		{Kind: KindStrengthBuff, Amount: 2, TargetInstanceIDs: []string{"x", "y"}},
		{Kind: KindStrengthBuff, Amount: 1, TargetInstanceIDs: []string{"x"}},
		{Kind: KindOverwhelm, TargetInstanceIDs: []string{"y"}},
	}

	assert.Equal(t, 3, AmountFor(list, KindStrengthBuff, "x"))
	assert.Equal(t, 2, AmountFor(list, KindStrengthBuff, "y"))
	assert.Equal(t, 0, AmountFor(list, KindHealthBuff, "x"))
	assert.True(t, Grants(list, KindOverwhelm, "y"))
	assert.False(t, Grants(list, KindOverwhelm, "x"))
}

func TestKindKeyword(t *testing.T) {
	assert.Equal(t, "hidden", KindHidden.Keyword())
	assert.Equal(t, "", KindStrengthBuff.Keyword())
	assert.True(t, KindUnblockable.Valid())
	assert.False(t, Kind("flying").Valid())
	assert.False(t, Expiry("forever").Valid())
}

func TestNewIDIsDeterministic(t *testing.T) {
	a := NewID("effect", "player1-03", 4)
	b := NewID("effect", "player1-03", 4)
	c := NewID("effect", "player1-03", 5)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36)
}

func TestCloneDoesNotShareTargets(t *testing.T) {
	le := LastingEffect{TargetInstanceIDs: []string{"x"}}
	cp := le.Clone()
	cp.TargetInstanceIDs[0] = "z"
	assert.Equal(t, "x", le.TargetInstanceIDs[0])
}
