package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

func noCoin(t *testing.T) func() bool {
	return func() bool {
		t.Fatal("coin consulted without a tie")
		return false
	}
}

func TestActionKind_String(t *testing.T) {
	assert.Equal(t, "move", combat.ActionMove.String())
	assert.Equal(t, "switch", combat.ActionSwitch.String())
	assert.Equal(t, "run", combat.ActionRun.String())
	assert.Equal(t, "unknown", combat.ActionUnknown.String())
}

func TestOrderActions_FasterMovesFirst(t *testing.T) {
	got := combat.OrderActions([]combat.Intent{
		{Actor: 0, Kind: combat.ActionMove, Speed: 50},
		{Actor: 1, Kind: combat.ActionMove, Speed: 90},
	}, noCoin(t))
	assert.Equal(t, 1, got[0].Actor)
	assert.Equal(t, 0, got[1].Actor)
}

func TestOrderActions_SwitchBeatsFasterMove(t *testing.T) {
	got := combat.OrderActions([]combat.Intent{
		{Actor: 0, Kind: combat.ActionMove, Speed: 500},
		{Actor: 1, Kind: combat.ActionSwitch, Speed: 1},
	}, noCoin(t))
	assert.Equal(t, 1, got[0].Actor)
}

func TestOrderActions_RunBeatsFasterMove(t *testing.T) {
	got := combat.OrderActions([]combat.Intent{
		{Actor: 0, Kind: combat.ActionMove, Speed: 500},
		{Actor: 1, Kind: combat.ActionRun, Speed: 1},
	}, noCoin(t))
	assert.Equal(t, 1, got[0].Actor)
}

func TestOrderActions_TieUsesCoin(t *testing.T) {
	in := []combat.Intent{
		{Actor: 0, Kind: combat.ActionMove, Speed: 60},
		{Actor: 1, Kind: combat.ActionMove, Speed: 60},
	}
	heads := combat.OrderActions(in, func() bool { return true })
	tails := combat.OrderActions(in, func() bool { return false })
	assert.Equal(t, 1, heads[0].Actor)
	assert.Equal(t, 0, tails[0].Actor)
	assert.Equal(t, 0, in[0].Actor, "input must not be modified")
}

func TestPropertyOrderActions_PriorityTierFirst(t *testing.T) {
	kinds := []combat.ActionKind{combat.ActionMove, combat.ActionSwitch, combat.ActionRun}
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(rt, "n")
		in := make([]combat.Intent, n)
		for i := range in {
			in[i] = combat.Intent{
				Actor: i,
				Kind:  rapid.SampledFrom(kinds).Draw(rt, "kind"),
				Speed: rapid.IntRange(1, 200).Draw(rt, "speed"),
			}
		}
		coin := rapid.Bool()
		out := combat.OrderActions(in, func() bool { return coin.Draw(rt, "coin") })

		assert.Len(rt, out, n)
		seen := make(map[int]bool)
		for i, it := range out {
			seen[it.Actor] = true
			if i == 0 {
				continue
			}
			prev := out[i-1]
			assert.GreaterOrEqual(rt, prev.Kind.Tier(), it.Kind.Tier())
			if prev.Kind.Tier() == it.Kind.Tier() {
				assert.GreaterOrEqual(rt, prev.Speed, it.Speed)
			}
		}
		assert.Len(rt, seen, n)
	})
}
