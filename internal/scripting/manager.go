package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// Manager owns one sandboxed LState per stage and exposes hook dispatch.
//
// Each LState is single-threaded; the mutex serializes every call. Battles in
// a batch run each own their Manager.
type Manager struct {
	mu     sync.Mutex
	states map[string]*lua.LState
	limits map[string]int
	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	Log      func(msg string)
	Spawn    func(templateID string) error
	HealSide func(side string, amount int) int
	Turn     func() int
	Living   func(side string) int
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no stages loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*lua.LState),
		limits: make(map[string]int),
		roller: roller,
		logger: logger,
	}
}

// LoadFile creates a sandboxed VM for stageID and executes the script at path.
//
// Precondition: stageID must be non-empty.
// Postcondition: the stage VM is registered, replacing any earlier one; returns
// an error on read or Lua load failure.
func (m *Manager) LoadFile(stageID, path string, instLimit int) error {
	return m.load(stageID, []string{path}, instLimit)
}

// LoadDir creates a sandboxed VM for stageID and executes every *.lua file in
// dir in lexicographic order.
//
// Precondition: dir must be a readable directory.
func (m *Manager) LoadDir(stageID, dir string, instLimit int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", dir, stageID, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return m.load(stageID, files, instLimit)
}

func (m *Manager) load(stageID string, files []string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)
	for _, path := range files {
		cancel := arm(L, instLimit)
		err := L.DoFile(path)
		cancel()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, stageID, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[stageID]; ok {
		old.Close()
	}
	m.states[stageID] = L
	m.limits[stageID] = instLimit
	m.mu.Unlock()
	return nil
}

// Has reports whether a VM is loaded for stageID.
func (m *Manager) Has(stageID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[stageID]
	return ok
}

// CallHook calls the named Lua global function in stageID's VM with a fresh
// instruction budget. Returns (LNil, nil) if the hook is not defined or no VM
// exists. Lua runtime errors are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(stageID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	L, ok := m.states[stageID]
	if !ok {
		m.logger.Debug("scripting: no VM for stage",
			zap.String("stage", stageID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	cancel := arm(L, m.limits[stageID])
	defer cancel()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("stage", stageID),
			zap.String("hook", hook),
			zap.Bool("budget_exhausted", exhausted(L)),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every VM.
//
// Postcondition: Has reports false for every stage.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, L := range m.states {
		L.Close()
		delete(m.states, id)
		delete(m.limits, id)
	}
}
