// Package scripting provides a sandboxed GopherLua execution environment for
// stage scripts. It has no dependency on game domain packages; all battle
// interactions are injected via Manager callback fields.
package scripting

import (
	"context"
	"errors"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode allowance of one script execution
// when a stage configures none.
const DefaultInstructionLimit = 100_000

// ErrBudgetExhausted is the cancellation cause of a VM whose execution ran
// out of opcodes.
var ErrBudgetExhausted = errors.New("scripting: instruction budget exhausted")

// stage scripts get the pure libraries only; os, io, package and debug stay closed.
var openLibs = []struct {
	name string
	fn   lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// base library entries that reach the filesystem, compile code, or tune the
// collector.
var blockedGlobals = []string{"dofile", "loadfile", "load", "collectgarbage", "require"}

// opBudget is the context installed on a VM for one execution. The VM polls
// Done before every opcode, so counting polls counts instructions.
// Not safe for concurrent use; an LState runs on one goroutine at a time.
type opBudget struct {
	context.Context
	stop context.CancelCauseFunc
	left int
}

func (b *opBudget) Done() <-chan struct{} {
	b.left--
	if b.left == 0 {
		b.stop(ErrBudgetExhausted)
	}
	return b.Context.Done()
}

// arm gives L a fresh allowance of instLimit opcodes (DefaultInstructionLimit
// when instLimit <= 0) and returns the func that releases it.
//
// Postcondition: the caller must invoke the returned func when the execution ends.
func arm(L *lua.LState, instLimit int) func() {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	ctx, stop := context.WithCancelCause(context.Background())
	L.SetContext(&opBudget{Context: ctx, stop: stop, left: instLimit})
	return func() { stop(nil) }
}

// exhausted reports whether L's last execution was stopped by its budget.
func exhausted(L *lua.LState) bool {
	ctx := L.Context()
	return ctx != nil && errors.Is(context.Cause(ctx), ErrBudgetExhausted)
}

// NewSandboxedState creates a VM holding only the base, table, string and math
// libraries, with blockedGlobals removed and a first budget of instLimit
// opcodes armed.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the caller owns the LState and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range openLibs {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	arm(L, instLimit)
	return L
}
