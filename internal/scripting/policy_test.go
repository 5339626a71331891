package scripting_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/scripting"
)

func situation() scripting.SituationInfo {
	return scripting.SituationInfo{
		SessionID: "sess-1",
		Turn:      3,
		Self: scripting.CombatantInfo{
			Species: "pikachu", Name: "Pikachu", Level: 20, Types: []string{"electric"},
			HP: 20, MaxHP: 48, Speed: 45,
			Moves: []scripting.MoveInfo{
				{ID: "growl", Type: "normal", Category: "status", PP: 40, MaxPP: 40},
				{ID: "thunder-shock", Type: "electric", Category: "special", Power: 40, Accuracy: 100, PP: 0, MaxPP: 30},
			},
		},
		Opponent: scripting.CombatantInfo{
			Species: "pidgey", Name: "Pidgey", Level: 20, Types: []string{"normal", "flying"},
			HP: 50, MaxHP: 50, Conditions: []string{"poison"},
		},
	}
}

func loadPolicy(t *testing.T, mgr *scripting.Manager, src string) {
	t.Helper()
	dir := writeTempLua(t, "policy.lua", src)
	require.NoError(t, mgr.LoadFile("policy", filepath.Join(dir, "policy.lua"), 0))
}

func TestChoose_StringIsMove(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadPolicy(t, mgr, `
		function choose_action(s)
			for _, m in ipairs(s.self.moves) do
				if m.pp > 0 then return m.id end
			end
			return "struggle"
		end
	`)
	d, ok, err := mgr.Choose("policy", situation())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, scripting.Decision{Kind: "move", MoveID: "growl"}, d)
}

func TestChoose_SituationFields(t *testing.T) {
	mgr, _ := newTestManager(t)
	loadPolicy(t, mgr, `
		function choose_action(s)
			assert(s.session_id == "sess-1")
			assert(s.turn == 3)
			assert(s.self.hp == 20 and s.self.max_hp == 48 and s.self.speed == 45)
			assert(s.opponent.types[2] == "flying")
			assert(s.opponent.conditions[1] == "poison")
			assert(s.self.moves[2].power == 40)
			return {action = "switch", index = 2}
		end
	`)
	d, ok, err := mgr.Choose("policy", situation())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, scripting.Decision{Kind: "switch", SwitchIndex: 2}, d)
}

func TestChoose_TableForms(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want scripting.Decision
	}{
		{"move", `return {action = "move", move = "tackle"}`, scripting.Decision{Kind: "move", MoveID: "tackle"}},
		{"implicit move", `return {move = "tackle"}`, scripting.Decision{Kind: "move", MoveID: "tackle"}},
		{"run", `return {action = "run"}`, scripting.Decision{Kind: "run"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mgr, _ := newTestManager(t)
			loadPolicy(t, mgr, "function choose_action(s) "+tc.src+" end")
			d, ok, err := mgr.Choose("policy", situation())
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tc.want, d)
		})
	}
}

func TestChoose_Malformed(t *testing.T) {
	cases := map[string]string{
		"number":          `return 7`,
		"unknown action":  `return {action = "dance"}`,
		"move without id": `return {action = "move"}`,
		"switch no index": `return {action = "switch"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			mgr, _ := newTestManager(t)
			loadPolicy(t, mgr, "function choose_action(s) "+body+" end")
			_, ok, err := mgr.Choose("policy", situation())
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}

func TestChoose_NoDecision(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, ok, err := mgr.Choose("policy", situation())
	require.NoError(t, err)
	assert.False(t, ok, "no VM loaded")

	loadPolicy(t, mgr, `function choose_action(s) error("boom") end`)
	_, ok, err = mgr.Choose("policy", situation())
	require.NoError(t, err)
	assert.False(t, ok, "runtime errors yield no decision")

	loadPolicy(t, mgr, `function choose_action(s) return nil end`)
	_, ok, err = mgr.Choose("policy", situation())
	require.NoError(t, err)
	assert.False(t, ok)
}
