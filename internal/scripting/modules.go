package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug/info/warn/error(msg)
//	engine.dice.roll(expr)      → {total, dice, modifier, rolls}
//	engine.dice.pick(n)         → uniform integer in [1, n]
//	engine.catalog.move(id)     → move table or nil
//	engine.catalog.effectiveness(move_type, {defender_types}) → multiplier
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	m.registerModules(L, func() *dice.Roller { return m.roller })
}

func (m *Manager) registerModules(L *lua.LState, roller func() *dice.Roller) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L, roller))
	L.SetField(engine, "catalog", m.catalogModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	mod := L.NewTable()
	for name, emit := range levels {
		emit := emit
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			emit(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func (m *Manager) diceModule(L *lua.LState, roller func() *dice.Roller) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := roller().RollExpr(L.CheckString(1))
		if err != nil {
			L.RaiseError("engine.dice.roll: %s", err.Error())
			return 0
		}
		rolls := L.NewTable()
		sum := 0
		for _, r := range res.Dice {
			rolls.Append(lua.LNumber(r))
			sum += r
		}
		t := L.NewTable()
		t.RawSetString("total", lua.LNumber(res.Total()))
		t.RawSetString("dice", lua.LNumber(sum))
		t.RawSetString("modifier", lua.LNumber(res.Modifier))
		t.RawSetString("rolls", rolls)
		L.Push(t)
		return 1
	}))
	L.SetField(mod, "pick", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n <= 0 {
			L.ArgError(1, "must be positive")
			return 0
		}
		L.Push(lua.LNumber(roller().Intn(n) + 1))
		return 1
	}))
	return mod
}

func (m *Manager) catalogModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "move", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.LookupMove == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.LookupMove(id)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(moveTable(L, *info))
		return 1
	}))
	L.SetField(mod, "effectiveness", L.NewFunction(func(L *lua.LState) int {
		moveType := L.CheckString(1)
		defTable := L.CheckTable(2)
		if m.Effectiveness == nil {
			L.Push(lua.LNumber(1))
			return 1
		}
		var defender []string
		defTable.ForEach(func(_, v lua.LValue) {
			if s, ok := v.(lua.LString); ok {
				defender = append(defender, string(s))
			}
		})
		L.Push(lua.LNumber(m.Effectiveness(moveType, defender)))
		return 1
	}))
	return mod
}
