// Package script runs control programs written in Lua against the scheduler.
//
// The program sees the ports P1..P7, the blink channels B1..B3 and the edge
// states as globals and calls read, blink and wait like the C programs of the
// training rig. wait is the only function that lets simulated time pass.
package script

import (
	"context"

	"mesa/pkg/blink"
	"mesa/pkg/edge"
	"mesa/pkg/port"

	"github.com/pkg/errors"
	"github.com/womat/debug"
	lua "github.com/yuin/gopher-lua"
)

const (
	// DefaultReadPort is read by read(mask) without a port argument.
	DefaultReadPort = port.P3
	// DefaultBlinkPort is driven by blink(mask, channel) without a port argument.
	DefaultBlinkPort = port.P2
)

// Scheduler is the part of the cycle scheduler a script needs.
type Scheduler interface {
	WaitCycles(n int) error
	Read(id port.ID, mask byte) edge.State
	Blink(id port.ID, mask byte, c blink.Channel) error
	Get(id port.ID) byte
	Set(id port.ID, v byte)
	SetBits(id port.ID, mask byte)
	ClearBits(id port.ID, mask byte)
	Elapsed() float64
}

// Runtime is a Lua state bound to a scheduler. It is not safe for concurrent use.
type Runtime struct {
	L *lua.LState
	s Scheduler
	// err is the scheduler error that aborted the script, e.g. a teardown
	err error
}

// New returns a runtime with the control API installed.
func New(s Scheduler) *Runtime {
	r := &Runtime{L: lua.NewState(), s: s}
	r.install()
	return r
}

// Close releases the Lua state.
func (r *Runtime) Close() {
	r.L.Close()
}

// DoFile runs the script in file path until it returns.
func (r *Runtime) DoFile(ctx context.Context, path string) error {
	return r.run(ctx, path, func() error { return r.L.DoFile(path) })
}

// DoString runs src until it returns; name is used in error messages.
func (r *Runtime) DoString(ctx context.Context, name, src string) error {
	return r.run(ctx, name, func() error { return r.L.DoString(src) })
}

// run returns scheduler errors unchanged and wraps Lua errors with the script name.
func (r *Runtime) run(ctx context.Context, name string, do func() error) error {
	r.err = nil
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	debug.InfoLog.Printf("running script %s", name)
	err := do()
	if r.err != nil {
		return r.err
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrapf(err, "script %s", name)
	}
	debug.InfoLog.Printf("script %s finished", name)
	return nil
}

func (r *Runtime) install() {
	for _, id := range port.All() {
		r.L.SetGlobal(id.String(), lua.LNumber(id))
	}
	for _, c := range []blink.Channel{blink.B1, blink.B2, blink.B3} {
		r.L.SetGlobal(c.String(), lua.LNumber(c))
	}

	states := map[string]edge.State{
		"ON": edge.On, "OFF": edge.Off, "RISING": edge.Rising, "FALLING": edge.Falling, "ERROR": edge.Invalid,
		"AN": edge.On, "AUS": edge.Off, "POS_FLANKE": edge.Rising, "NEG_FLANKE": edge.Falling,
	}
	for name, st := range states {
		r.L.SetGlobal(name, lua.LNumber(st))
	}

	for name, fn := range map[string]lua.LGFunction{
		"read":            r.read,
		"blink":           r.blink,
		"wait":            r.wait,
		"get":             r.get,
		"set":             r.set,
		"set_bits":        r.setBits,
		"clear_bits":      r.clearBits,
		"gray_to_decimal": grayToDecimal,
		"decimal_to_gray": decimalToGray,
		"elapsed":         r.elapsed,
	} {
		r.L.SetGlobal(name, r.L.NewFunction(fn))
	}
}

func checkByte(L *lua.LState, n int) byte {
	v := L.CheckInt(n)
	if v < 0 || v > 0xff {
		L.ArgError(n, "byte expected")
	}
	return byte(v)
}

func checkPort(L *lua.LState, n int, def port.ID) port.ID {
	if L.Get(n) == lua.LNil {
		return def
	}
	id := port.ID(L.CheckInt(n))
	if !id.Valid() {
		L.ArgError(n, "port expected")
	}
	return id
}

// read(mask [, port]) returns the edge state of the bit.
func (r *Runtime) read(L *lua.LState) int {
	mask := checkByte(L, 1)
	id := checkPort(L, 2, DefaultReadPort)
	L.Push(lua.LNumber(r.s.Read(id, mask)))
	return 1
}

// blink(mask, channel [, port]) returns true or nil and an error message.
func (r *Runtime) blink(L *lua.LState) int {
	mask := checkByte(L, 1)
	c := blink.Channel(L.CheckInt(2))
	id := checkPort(L, 3, DefaultBlinkPort)

	if err := r.s.Blink(id, mask, c); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// wait(n) ends the cycle and waits n ticks.
func (r *Runtime) wait(L *lua.LState) int {
	n := L.OptInt(1, 1)
	if err := r.s.WaitCycles(n); err != nil {
		r.err = err
		L.RaiseError("%v", err)
	}
	return 0
}

func (r *Runtime) get(L *lua.LState) int {
	id := checkPort(L, 1, DefaultReadPort)
	L.Push(lua.LNumber(r.s.Get(id)))
	return 1
}

func (r *Runtime) set(L *lua.LState) int {
	r.s.Set(checkPort(L, 1, DefaultBlinkPort), checkByte(L, 2))
	return 0
}

func (r *Runtime) setBits(L *lua.LState) int {
	r.s.SetBits(checkPort(L, 1, DefaultBlinkPort), checkByte(L, 2))
	return 0
}

func (r *Runtime) clearBits(L *lua.LState) int {
	r.s.ClearBits(checkPort(L, 1, DefaultBlinkPort), checkByte(L, 2))
	return 0
}

func (r *Runtime) elapsed(L *lua.LState) int {
	L.Push(lua.LNumber(r.s.Elapsed()))
	return 1
}

func grayToDecimal(L *lua.LState) int {
	L.Push(lua.LNumber(port.GrayToDecimal(uint(L.CheckInt(1)))))
	return 1
}

func decimalToGray(L *lua.LState) int {
	L.Push(lua.LNumber(port.DecimalToGray(uint(L.CheckInt(1)))))
	return 1
}
