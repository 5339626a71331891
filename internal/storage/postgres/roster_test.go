package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/gameserver"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
	"github.com/cory-johannsen/skirmish/internal/testutil"
)

var (
	_ gameserver.RosterStore = (*postgres.RosterRepository)(nil)
	_ gameserver.RecordStore = (*postgres.BattleRecordRepository)(nil)
)

func uniqueID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func testParty() []battle.RosterEntry {
	return []battle.RosterEntry{
		{
			Slot:      1,
			Species:   "pidgey",
			Level:     8,
			IVs:       combat.Stats{HP: 10, Attack: 11, Defense: 12, SpecialAttack: 13, SpecialDefense: 14, Speed: 15},
			CurrentHP: 20,
			Moves:     []combat.MoveSlot{{MoveID: "gust", PP: 35, MaxPP: 35}},
		},
		{
			Slot:      0,
			Species:   "pikachu",
			Nickname:  "Sparky",
			Level:     12,
			IVs:       combat.Stats{HP: 31, Attack: 31, Defense: 31, SpecialAttack: 31, SpecialDefense: 31, Speed: 31},
			EVs:       combat.Stats{Speed: 252, SpecialAttack: 252},
			CurrentHP: 33,
			Moves: []combat.MoveSlot{
				{MoveID: "thunder-shock", PP: 30, MaxPP: 30},
				{MoveID: "growl", PP: 40, MaxPP: 40},
			},
			Condition: "paralysis",
		},
	}
}

func TestRosterRepository(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := postgres.NewRosterRepository(pool)
	ctx := context.Background()

	t.Run("missing trainer", func(t *testing.T) {
		_, err := repo.LoadActiveRoster(ctx, uniqueID("nobody"))
		assert.ErrorIs(t, err, postgres.ErrRosterNotFound)
	})

	t.Run("replace then load orders by slot", func(t *testing.T) {
		trainer := uniqueID("trainer")
		require.NoError(t, repo.ReplaceRoster(ctx, trainer, testParty()))

		got, err := repo.LoadActiveRoster(ctx, trainer)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 0, got[0].Slot)
		assert.Equal(t, "pikachu", got[0].Species)
		assert.Equal(t, "Sparky", got[0].Nickname)
		assert.Equal(t, 252, got[0].EVs.Speed)
		assert.Equal(t, "paralysis", got[0].Condition)
		assert.Equal(t, testParty()[1].Moves, got[0].Moves)
		assert.Equal(t, "pidgey", got[1].Species)
		assert.Equal(t, 15, got[1].IVs.Speed)
	})

	t.Run("replace discards the old party", func(t *testing.T) {
		trainer := uniqueID("trainer")
		require.NoError(t, repo.ReplaceRoster(ctx, trainer, testParty()))
		require.NoError(t, repo.ReplaceRoster(ctx, trainer, testParty()[:1]))

		got, err := repo.LoadActiveRoster(ctx, trainer)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "pidgey", got[0].Species)
	})

	t.Run("duplicate slots leave the party untouched", func(t *testing.T) {
		trainer := uniqueID("trainer")
		require.NoError(t, repo.ReplaceRoster(ctx, trainer, testParty()))
		party := testParty()
		party[1].Slot = party[0].Slot
		assert.ErrorIs(t, repo.ReplaceRoster(ctx, trainer, party), postgres.ErrDuplicateSlot)

		got, err := repo.LoadActiveRoster(ctx, trainer)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("save state writes hp pp and condition only", func(t *testing.T) {
		trainer := uniqueID("trainer")
		require.NoError(t, repo.ReplaceRoster(ctx, trainer, testParty()))

		after := battle.RosterEntry{
			Slot:      0,
			Species:   "raichu",
			Level:     99,
			CurrentHP: 0,
			Moves: []combat.MoveSlot{
				{MoveID: "thunder-shock", PP: 27, MaxPP: 30},
				{MoveID: "growl", PP: 40, MaxPP: 40},
			},
		}
		require.NoError(t, repo.SaveRosterState(ctx, trainer, []battle.RosterEntry{after}))

		got, err := repo.LoadActiveRoster(ctx, trainer)
		require.NoError(t, err)
		assert.Equal(t, 0, got[0].CurrentHP)
		assert.Equal(t, 27, got[0].Moves[0].PP)
		assert.Empty(t, got[0].Condition, "cured condition is cleared")
		assert.Equal(t, "pikachu", got[0].Species)
		assert.Equal(t, 12, got[0].Level)
		assert.Equal(t, 20, got[1].CurrentHP, "slots not in the save are untouched")
	})

	t.Run("save state for a missing slot rolls back", func(t *testing.T) {
		trainer := uniqueID("trainer")
		require.NoError(t, repo.ReplaceRoster(ctx, trainer, testParty()))

		err := repo.SaveRosterState(ctx, trainer, []battle.RosterEntry{
			{Slot: 0, CurrentHP: 1, Moves: testParty()[1].Moves},
			{Slot: 5, CurrentHP: 1},
		})
		assert.ErrorIs(t, err, postgres.ErrRosterSlotNotFound)

		got, err := repo.LoadActiveRoster(ctx, trainer)
		require.NoError(t, err)
		assert.Equal(t, 33, got[0].CurrentHP)
	})
}
