package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua table into L:
//
//	engine.log(msg)               battle log line
//	engine.debug(msg)             operational log at debug level
//	engine.roll(expr)             dice expression total, 0 on a bad expression
//	engine.spawn(template_id)     true if an adversary was spawned
//	engine.heal_side(side, n)     total HP restored on "player" or "adversary"
//	engine.turn()                 completed round count
//	engine.living(side)           living members on side
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", L.NewFunction(m.luaLog))
	L.SetField(engine, "debug", L.NewFunction(m.luaDebug))
	L.SetField(engine, "roll", L.NewFunction(m.luaRoll))
	L.SetField(engine, "spawn", L.NewFunction(m.luaSpawn))
	L.SetField(engine, "heal_side", L.NewFunction(m.luaHealSide))
	L.SetField(engine, "turn", L.NewFunction(m.luaTurn))
	L.SetField(engine, "living", L.NewFunction(m.luaLiving))
	L.SetGlobal("engine", engine)
}

func (m *Manager) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	if m.Log != nil {
		m.Log(msg)
	}
	return 0
}

func (m *Manager) luaDebug(L *lua.LState) int {
	m.logger.Debug("lua", zap.String("msg", L.CheckString(1)))
	return 0
}

func (m *Manager) luaRoll(L *lua.LState) int {
	res, err := m.roller.RollExpr(L.CheckString(1))
	if err != nil {
		m.logger.Warn("scripting: bad dice expression", zap.Error(err))
		L.Push(lua.LNumber(0))
		return 1
	}
	L.Push(lua.LNumber(res.Total()))
	return 1
}

func (m *Manager) luaSpawn(L *lua.LState) int {
	id := L.CheckString(1)
	if m.Spawn == nil {
		L.Push(lua.LFalse)
		return 1
	}
	if err := m.Spawn(id); err != nil {
		m.logger.Warn("scripting: spawn failed", zap.String("template", id), zap.Error(err))
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LTrue)
	return 1
}

func (m *Manager) luaHealSide(L *lua.LState) int {
	side := L.CheckString(1)
	amount := L.CheckInt(2)
	healed := 0
	if m.HealSide != nil {
		healed = m.HealSide(side, amount)
	}
	L.Push(lua.LNumber(healed))
	return 1
}

func (m *Manager) luaTurn(L *lua.LState) int {
	turn := 0
	if m.Turn != nil {
		turn = m.Turn()
	}
	L.Push(lua.LNumber(turn))
	return 1
}

func (m *Manager) luaLiving(L *lua.LState) int {
	side := L.CheckString(1)
	n := 0
	if m.Living != nil {
		n = m.Living(side)
	}
	L.Push(lua.LNumber(n))
	return 1
}
