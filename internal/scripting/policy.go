package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// ChooseHook is the global function a policy script defines.
//
//	function choose_action(situation) ... end
//
// It returns a move id string, or a table {action = "move"|"switch"|"run",
// move = <id>, index = <roster index>}.
const ChooseHook = "choose_action"

// MoveInfo is a snapshot of a move passed to Lua.
type MoveInfo struct {
	ID       string
	Name     string
	Type     string
	Category string
	Power    int
	Accuracy int
	PP       int
	MaxPP    int
}

// CombatantInfo is a snapshot of a combatant passed to Lua.
type CombatantInfo struct {
	Species    string
	Name       string
	Level      int
	Types      []string
	HP         int
	MaxHP      int
	Speed      int
	Conditions []string
	Moves      []MoveInfo
}

// SituationInfo is what choose_action receives.
type SituationInfo struct {
	SessionID string
	Turn      int
	Self      CombatantInfo
	Opponent  CombatantInfo
}

// Decision is the action a script chose. Kind is "move", "switch" or "run".
type Decision struct {
	Kind        string
	MoveID      string
	SwitchIndex int
}

// Choose runs ChooseHook in scope with sit and decodes its result.
//
// Precondition: scope should have a VM loaded with LoadFile or LoadDir.
// Postcondition: Returns (decision, true, nil) when the script produced a
// recognizable action; (zero, false, nil) when no script or hook exists or the
// script failed at runtime; a non-nil error when the result is malformed.
func (m *Manager) Choose(scope string, sit SituationInfo) (Decision, bool, error) {
	return m.ChooseWith(scope, sit, nil)
}

// ChooseWith is Choose with engine.dice backed by roller for this call, so a
// seeded battle stays reproducible. A nil roller uses the manager's own.
func (m *Manager) ChooseWith(scope string, sit SituationInfo, roller *dice.Roller) (Decision, bool, error) {
	ret, err := m.call(scope, ChooseHook, roller, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{situationTable(L, sit)}
	})
	if err != nil {
		return Decision{}, false, err
	}
	switch v := ret.(type) {
	case *lua.LNilType:
		return Decision{}, false, nil
	case lua.LString:
		return Decision{Kind: "move", MoveID: string(v)}, true, nil
	case *lua.LTable:
		return decodeDecision(v)
	default:
		return Decision{}, false, fmt.Errorf("scripting: %s returned %s", ChooseHook, ret.Type())
	}
}

func decodeDecision(t *lua.LTable) (Decision, bool, error) {
	kind, _ := t.RawGetString("action").(lua.LString)
	switch string(kind) {
	case "", "move":
		move, ok := t.RawGetString("move").(lua.LString)
		if !ok || move == "" {
			return Decision{}, false, fmt.Errorf("scripting: %s: move action without a move id", ChooseHook)
		}
		return Decision{Kind: "move", MoveID: string(move)}, true, nil
	case "switch":
		idx, ok := t.RawGetString("index").(lua.LNumber)
		if !ok {
			return Decision{}, false, fmt.Errorf("scripting: %s: switch action without an index", ChooseHook)
		}
		return Decision{Kind: "switch", SwitchIndex: int(idx)}, true, nil
	case "run":
		return Decision{Kind: "run"}, true, nil
	default:
		return Decision{}, false, fmt.Errorf("scripting: %s: unknown action %q", ChooseHook, string(kind))
	}
}

func situationTable(L *lua.LState, sit SituationInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("session_id", lua.LString(sit.SessionID))
	t.RawSetString("turn", lua.LNumber(sit.Turn))
	t.RawSetString("self", combatantTable(L, sit.Self))
	t.RawSetString("opponent", combatantTable(L, sit.Opponent))
	return t
}

func combatantTable(L *lua.LState, c CombatantInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("species", lua.LString(c.Species))
	t.RawSetString("name", lua.LString(c.Name))
	t.RawSetString("level", lua.LNumber(c.Level))
	t.RawSetString("hp", lua.LNumber(c.HP))
	t.RawSetString("max_hp", lua.LNumber(c.MaxHP))
	t.RawSetString("speed", lua.LNumber(c.Speed))
	t.RawSetString("types", stringList(L, c.Types))
	t.RawSetString("conditions", stringList(L, c.Conditions))
	moves := L.NewTable()
	for _, mv := range c.Moves {
		moves.Append(moveTable(L, mv))
	}
	t.RawSetString("moves", moves)
	return t
}

func moveTable(L *lua.LState, mv MoveInfo) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(mv.ID))
	t.RawSetString("name", lua.LString(mv.Name))
	t.RawSetString("type", lua.LString(mv.Type))
	t.RawSetString("category", lua.LString(mv.Category))
	t.RawSetString("power", lua.LNumber(mv.Power))
	t.RawSetString("accuracy", lua.LNumber(mv.Accuracy))
	t.RawSetString("pp", lua.LNumber(mv.PP))
	t.RawSetString("max_pp", lua.LNumber(mv.MaxPP))
	return t
}

func stringList(L *lua.LState, items []string) *lua.LTable {
	t := L.NewTable()
	for _, s := range items {
		t.Append(lua.LString(s))
	}
	return t
}
