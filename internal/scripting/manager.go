package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// globalScope is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no scoped VM is found.
const globalScope = "__global__"

// vm is one loaded LState. An LState is single-threaded, so every execution
// holds mu.
type vm struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int

	roller  *dice.Roller // manager default
	callDie *dice.Roller // set for the duration of one call, guarded by mu
}

// dice returns the roller engine.dice uses for the running call.
func (v *vm) dice() *dice.Roller {
	if v.callDie != nil {
		return v.callDie
	}
	return v.roller
}

// Manager owns one sandboxed LState per scope and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same scope are serialized;
// different scopes run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	LookupMove    func(id string) *MoveInfo
	Effectiveness func(moveType string, defenderTypes []string) float64
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no loaded scopes.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadDir creates a sandboxed VM for scope, registers all engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: The scope's VM is replaced; returns error on Lua load failure.
func (m *Manager) LoadDir(scope, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, scope, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(files)
	return m.loadInto(scope, files, instLimit)
}

// LoadFile creates a sandboxed VM for scope from a single script file.
//
// Precondition: scope must be non-empty; path must name a readable .lua file.
// Postcondition: The scope's VM is replaced; returns error on Lua load failure.
func (m *Manager) LoadFile(scope, path string, instLimit int) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("scripting: script %q for %q: %w", path, scope, err)
	}
	return m.loadInto(scope, []string{path}, instLimit)
}

// LoadGlobal creates the "__global__" VM holding shared scripts that serve as
// the CallHook fallback for any scope.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.LoadDir(globalScope, scriptDir, instLimit)
}

func (m *Manager) loadInto(scope string, files []string, instLimit int) error {
	if scope == "" {
		return errors.New("scripting: scope must not be empty")
	}
	L := NewSandboxedState(instLimit)
	v := &vm{L: L, instLimit: instLimit, roller: m.roller}
	m.registerModules(L, v.dice)

	for _, path := range files {
		SetBudget(L, instLimit)
		if err := L.DoFile(path); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, scope, err)
		}
	}

	m.mu.Lock()
	old := m.vms[scope]
	m.vms[scope] = v
	m.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	return nil
}

// lookup returns the VM for scope, falling back to the global VM.
func (m *Manager) lookup(scope string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vms[scope]; ok {
		return v
	}
	return m.vms[globalScope]
}

// HasHook reports whether hook is a function defined in scope's VM or the global VM.
func (m *Manager) HasHook(scope, hook string) bool {
	v := m.lookup(scope)
	if v == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.L.GetGlobal(hook).Type() == lua.LTFunction
}

// CallHook calls the named Lua global function in scope's VM. If the scope has
// no VM, the __global__ VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors are logged at Warn
// level and never propagated.
//
// Precondition: args must be valid lua.LValue instances not bound to another VM.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.call(scope, hook, nil, func(*lua.LState) []lua.LValue { return args })
}

// call runs hook with arguments built by build under the VM's lock, so tables
// are created in the VM that consumes them. A non-nil roller backs engine.dice
// for this call only.
func (m *Manager) call(scope, hook string, roller *dice.Roller, build func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	v := m.lookup(scope)
	if v == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.L.IsClosed() {
		return lua.LNil, nil
	}
	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	cancel := SetBudget(v.L, v.instLimit)
	defer cancel()
	v.callDie = roller
	defer func() { v.callDie = nil }()

	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, build(v.L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close releases every loaded VM.
//
// Postcondition: No scopes remain; later CallHook calls return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()

	for _, v := range vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
	}
}
