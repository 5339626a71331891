package battle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

func TestBuildCombatant(t *testing.T) {
	cat, conds := testCatalog(t)
	e := entry(t, 2, "charizard", 50, 100, "scratch", "ember")
	e.Nickname = "Blaze"
	e.Condition = "burn"
	e.Moves[1].PP = 3

	c, err := battle.BuildCombatant(cat, conds, e)
	require.NoError(t, err)
	assert.Equal(t, "Blaze", c.Name)
	assert.Equal(t, "Charizard", c.SpeciesName)
	assert.Equal(t, 148, c.MaxHP())
	assert.Equal(t, 100, c.CurrentHP)
	assert.True(t, c.Conditions.Has("burn"))

	back := battle.SnapshotEntry(2, c)
	assert.Equal(t, e, back)
}

func TestBuildCombatant_ClampsHP(t *testing.T) {
	cat, conds := testCatalog(t)
	c, err := battle.BuildCombatant(cat, conds, entry(t, 0, "charizard", 50, 5000, "scratch"))
	require.NoError(t, err)
	assert.Equal(t, c.MaxHP(), c.CurrentHP)

	c, err = battle.BuildCombatant(cat, conds, entry(t, 0, "charizard", 50, -4, "scratch"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.CurrentHP)
	assert.True(t, c.Fainted())
}

func TestBuildCombatant_Rejects(t *testing.T) {
	cat, conds := testCatalog(t)
	base := func() battle.RosterEntry { return entry(t, 0, "pikachu", 10, full, "growl") }

	unknownSpecies := base()
	unknownSpecies.Species = "missingno"
	unknownMove := base()
	unknownMove.Moves = append(unknownMove.Moves, combat.MoveSlot{MoveID: "splash", PP: 1, MaxPP: 1})
	badPP := base()
	badPP.Moves[0].PP = badPP.Moves[0].MaxPP + 1
	unknownCondition := base()
	unknownCondition.Condition = "frozen"
	badLevel := base()
	badLevel.Level = 0

	for name, e := range map[string]battle.RosterEntry{
		"unknown species":   unknownSpecies,
		"unknown move":      unknownMove,
		"pp above max":      badPP,
		"unknown condition": unknownCondition,
		"level zero":        badLevel,
	} {
		_, err := battle.BuildCombatant(cat, conds, e)
		assert.Error(t, err, name)
	}
}
