package script

import (
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts what a script can reach and counts the canvas
// operations of the current call.
type Sandbox struct {
	L *lua.LState

	operationLimit int64
	operations     int64

	modules map[string]bool
}

// NewSandbox creates a sandbox for L.
func NewSandbox(L *lua.LState, operationLimit int64) *Sandbox {
	return &Sandbox{
		L:              L,
		operationLimit: operationLimit,
		modules: map[string]bool{
			"string": true,
			"table":  true,
			"math":   true,
		},
	}
}

// Install removes loaders that reach the filesystem or compile arbitrary
// chunks and replaces require with a whitelist.
func (s *Sandbox) Install() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	if pkg, ok := s.L.GetGlobal("package").(*lua.LTable); ok {
		s.L.SetField(pkg, "path", lua.LString(""))
		s.L.SetField(pkg, "cpath", lua.LString(""))
	}

	originalRequire := s.L.GetGlobal("require")
	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !s.modules[name] {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(originalRequire)
		L.Push(lua.LString(name))
		L.Call(1, 1)
		return 1
	}))
}

// Allow adds a module name to the require whitelist.
func (s *Sandbox) Allow(name string) {
	s.modules[name] = true
}

// ResetOperations resets the operation counter.
func (s *Sandbox) ResetOperations() {
	atomic.StoreInt64(&s.operations, 0)
}

// Operations returns the operations counted in the current call.
func (s *Sandbox) Operations() int64 {
	return atomic.LoadInt64(&s.operations)
}

// Exceeded reports whether the current call went over its budget.
func (s *Sandbox) Exceeded() bool {
	return s.operationLimit > 0 && atomic.LoadInt64(&s.operations) > s.operationLimit
}

// CountOperation records n operations and raises a Lua error once the budget
// is exhausted.
func (s *Sandbox) CountOperation(L *lua.LState, n int64) {
	if s.operationLimit <= 0 {
		return
	}
	if atomic.AddInt64(&s.operations, n) > s.operationLimit {
		L.RaiseError("%s (%d)", ErrOperationLimit.Error(), s.operationLimit)
	}
}
