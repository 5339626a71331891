package gameserver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/catalog"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/gameserver"
	"github.com/cory-johannsen/skirmish/internal/scripting"
)

func newScripts(t *testing.T, src string) *scripting.Manager {
	t.Helper()
	mgr := scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(3), zap.NewNop()), zap.NewNop())
	t.Cleanup(mgr.Close)
	if src != "" {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "policy.lua"), []byte(src), 0644))
		require.NoError(t, mgr.LoadDir(gameserver.PolicyScope, dir, 0))
	}
	return mgr
}

func testSituation(t *testing.T) battle.Situation {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	build := func(species string, moves ...string) *combat.Combatant {
		sp, ok := cat.Species(species)
		require.True(t, ok)
		var slots []combat.MoveSlot
		for _, id := range moves {
			m, ok := cat.Move(id)
			require.True(t, ok)
			slots = append(slots, combat.MoveSlot{MoveID: id, PP: m.PP, MaxPP: m.PP})
		}
		c, err := combat.NewCombatant(sp, 20, combat.Stats{}, combat.Stats{}, slots)
		require.NoError(t, err)
		return c
	}
	return battle.Situation{
		SessionID: "sess-1",
		Turn:      2,
		Self:      build("pikachu", "growl", "thunder-shock"),
		Opponent:  build("pidgey", "gust"),
		Catalog:   cat,
	}
}

func TestScriptedPolicy_PicksSuperEffectiveMove(t *testing.T) {
	mgr := newScripts(t, `
		function choose_action(s)
			local best, best_score = nil, -1
			for _, m in ipairs(s.self.moves) do
				local score = m.power * engine.catalog.effectiveness(m.type, s.opponent.types)
				if m.pp > 0 and score > best_score then
					best, best_score = m.id, score
				end
			end
			return best
		end
	`)
	cat, err := catalog.Default()
	require.NoError(t, err)
	gameserver.BindCatalog(mgr, cat)

	p := &gameserver.ScriptedPolicy{Scripts: mgr, Logger: zap.NewNop()}
	assert.Equal(t, battle.MoveAction("thunder-shock"), p.Choose(testSituation(t)))
}

func TestScriptedPolicy_ActionKinds(t *testing.T) {
	cases := []struct {
		name string
		body string
		want battle.Action
	}{
		{"switch", `return {action = "switch", index = 1}`, battle.SwitchAction(1)},
		{"run", `return {action = "run"}`, battle.RunAction()},
		{"move table", `return {action = "move", move = "growl"}`, battle.MoveAction("growl")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mgr := newScripts(t, "function choose_action(s) "+tc.body+" end")
			p := &gameserver.ScriptedPolicy{Scripts: mgr}
			assert.Equal(t, tc.want, p.Choose(testSituation(t)))
		})
	}
}

func TestScriptedPolicy_FallsBack(t *testing.T) {
	fallback := battle.PolicyFunc(func(battle.Situation) battle.Action { return battle.MoveAction("growl") })
	cases := map[string]string{
		"no script":     "",
		"runtime error": `function choose_action(s) error("boom") end`,
		"malformed":     `function choose_action(s) return 12 end`,
		"nil":           `function choose_action(s) return nil end`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			mgr := newScripts(t, src)
			p := &gameserver.ScriptedPolicy{Scripts: mgr, Fallback: fallback, Logger: zap.NewNop()}
			assert.Equal(t, battle.MoveAction("growl"), p.Choose(testSituation(t)))

			bare := &gameserver.ScriptedPolicy{Scripts: mgr}
			assert.Equal(t, battle.StruggleAction(), bare.Choose(testSituation(t)))
		})
	}
}

// faceSrc always rolls the same face, clamped to the die.
type faceSrc int

func (f faceSrc) Intn(n int) int { return min(int(f), n-1) }

const coinScript = `
function choose_action(s)
  if engine.dice.pick(2) == 1 then return "growl" end
  return "thunder-shock"
end`

func TestScriptedPolicy_DiceComeFromSessionRoller(t *testing.T) {
	mgr := newScripts(t, coinScript)
	low := &gameserver.ScriptedPolicy{Scripts: mgr, Roller: dice.NewLoggedRoller(faceSrc(0), zap.NewNop())}
	high := &gameserver.ScriptedPolicy{Scripts: mgr, Roller: dice.NewLoggedRoller(faceSrc(99), zap.NewNop())}

	for i := 0; i < 5; i++ {
		assert.Equal(t, battle.MoveAction("growl"), low.Choose(testSituation(t)))
		assert.Equal(t, battle.MoveAction("thunder-shock"), high.Choose(testSituation(t)))
	}
}

func TestScriptedPolicy_SameSeedSameChoices(t *testing.T) {
	mgr := newScripts(t, coinScript)
	run := func(seed uint64) []battle.Action {
		p := &gameserver.ScriptedPolicy{Scripts: mgr, Roller: dice.NewLoggedRoller(dice.NewSeededSource(seed), zap.NewNop())}
		var out []battle.Action
		for i := 0; i < 20; i++ {
			out = append(out, p.Choose(testSituation(t)))
		}
		return out
	}
	first := run(42)
	// Another session's calls in between must not shift the sequence.
	_ = run(7)
	assert.Equal(t, first, run(42))
}

func TestBindCatalog_LookupMove(t *testing.T) {
	mgr := newScripts(t, `
		function sample()
			local m = engine.catalog.move("thunder-shock")
			return m.type .. ":" .. m.category .. ":" .. m.power .. ":" .. tostring(engine.catalog.move("nope") == nil)
		end
	`)
	cat, err := catalog.Default()
	require.NoError(t, err)
	gameserver.BindCatalog(mgr, cat)

	ret, err := mgr.CallHook(gameserver.PolicyScope, "sample")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("electric:special:40:true"), ret)
}

func TestShippedPolicyScript(t *testing.T) {
	mgr := newScripts(t, "")
	require.NoError(t, mgr.LoadDir(gameserver.PolicyScope, filepath.Join("..", "..", "content", "scripts", "policy"), 0))
	cat, err := catalog.Default()
	require.NoError(t, err)
	gameserver.BindCatalog(mgr, cat)

	p := &gameserver.ScriptedPolicy{Scripts: mgr, Logger: zap.NewNop()}
	sit := testSituation(t)
	assert.Equal(t, battle.MoveAction("thunder-shock"), p.Choose(sit))

	for i := range sit.Self.Moves {
		sit.Self.Moves[i].PP = 0
	}
	assert.Equal(t, battle.StruggleAction(), p.Choose(sit), "no usable moves returns nil and falls back")
}
