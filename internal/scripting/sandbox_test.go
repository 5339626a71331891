package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/scripting"
)

func TestNewSandboxedState_Globals(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	require.NotNil(t, L)
	defer L.Close()

	removed := []string{"os", "io", "debug", "package", "dofile", "loadfile", "load", "collectgarbage", "require"}
	for _, name := range removed {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "%s should not be reachable", name)
	}
	for _, name := range []string{"math", "string", "table", "ipairs", "pairs", "tostring", "error", "pcall"} {
		assert.NotEqual(t, lua.LNil, L.GetGlobal(name), "%s should be available", name)
	}
}

func TestNewSandboxedState_PolicyIdioms(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	require.NotNil(t, L)
	defer L.Close()
	// The operations a choose_action script typically leans on.
	err := L.DoString(`
		local moves = { {id = "tackle", power = 40}, {id = "ember", power = 40}, {id = "growl", power = 0} }
		table.sort(moves, function(a, b) return a.power > b.power end)
		assert(moves[3].id == "growl")
		assert(math.floor(40 * 1.5 * 0.85) == 51)
		assert(string.format("%s:%d", "ember", 40) == "ember:40")
		local ok = pcall(function() error("boom") end)
		assert(not ok)
	`)
	assert.NoError(t, err)
}

func TestNewSandboxedState_InstructionLimitExceeded(t *testing.T) {
	L := scripting.NewSandboxedState(10)
	require.NotNil(t, L)
	defer L.Close()
	assert.Error(t, L.DoString(`while true do end`))
}

func TestSetBudget_RestoresAllowance(t *testing.T) {
	L := scripting.NewSandboxedState(10)
	require.NotNil(t, L)
	defer L.Close()
	require.Error(t, L.DoString(`while true do end`))

	cancel := scripting.SetBudget(L, 0)
	defer cancel()
	assert.NoError(t, L.DoString(`local x = 1 + 1`))
}

func TestSetBudget_CancelStopsExecution(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	require.NotNil(t, L)
	defer L.Close()

	cancel := scripting.SetBudget(L, 1_000_000)
	cancel()
	assert.Error(t, L.DoString(`local x = 0 for i = 1, 10 do x = x + i end`))
}

// Property: a runaway loop always stops with an error, whatever the budget.
func TestPropertyRunawayLoopAlwaysStops(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 5000).Draw(t, "limit")
		L := scripting.NewSandboxedState(limit)
		defer L.Close()
		if err := L.DoString(`while true do end`); err == nil {
			t.Fatalf("expected error with limit=%d but got nil", limit)
		}
	})
}
