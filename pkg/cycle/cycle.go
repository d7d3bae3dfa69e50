// Package cycle runs the control loop of the simulated backplane.
//
// The Scheduler owns the simulation state (port register, edge detector and
// blink driver). Control logic runs on the same goroutine as the scheduler and
// calls WaitCycles between its reads and writes. WaitCycles latches the edge
// samples once and then runs the requested number of paced iterations, each
// of which hands a snapshot to the renderer and applies the toggle it reports.
package cycle

import (
	"errors"
	"time"

	"mesa/pkg/blink"
	"mesa/pkg/edge"
	"mesa/pkg/port"

	"github.com/womat/debug"
)

// DefaultTick is the nominal duration of one logical cycle.
const DefaultTick = time.Millisecond

// ErrTeardown is returned by a renderer if the host asked the simulator to quit.
var ErrTeardown = errors.New("host teardown")

// Renderer is the boundary to the virtual panels.
// Update is called once per iteration with the current port values and returns
// at most one toggle collected since the previous call.
type Renderer interface {
	Update(s port.Snapshot) (t port.Toggle, ok bool, err error)
}

// Observer is called with the port values at the end of every iteration.
type Observer func(s port.Snapshot)

// Clock abstracts the wall clock for pacing.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type wallClock struct{}

func (wallClock) Now() time.Time        { return time.Now() }
func (wallClock) Sleep(d time.Duration) { time.Sleep(d) }

// State is the simulation state owned by a Scheduler.
type State struct {
	Register *port.Register
	Edges    *edge.Detector
	Blink    *blink.Driver
}

// Scheduler paces the control loop at a fixed logical tick.
type Scheduler struct {
	state     State
	renderer  Renderer
	clock     Clock
	observers []Observer

	// tick is the duration of one logical cycle
	tick time.Duration
	// last is the end of the previous iteration
	last time.Time
	// elapsed is the duration in ms of the last iteration
	elapsed float64

	boundaries uint64
	iterations uint64
}

// New returns a scheduler with a fresh register and edge detector.
func New(tick time.Duration, r Renderer, d *blink.Driver) *Scheduler {
	if tick <= 0 {
		tick = DefaultTick
	}

	s := &Scheduler{
		state: State{
			Register: port.NewRegister(),
			Edges:    edge.New(),
			Blink:    d,
		},
		renderer: r,
		clock:    wallClock{},
		tick:     tick,
	}
	s.last = s.clock.Now()
	return s
}

// SetClock replaces the wall clock, e.g. by a simulated clock in tests.
func (s *Scheduler) SetClock(c Clock) {
	s.clock = c
	s.last = c.Now()
}

// Observe adds an observer called after every iteration.
func (s *Scheduler) Observe(o Observer) {
	s.observers = append(s.observers, o)
}

// State returns the simulation state.
func (s *Scheduler) State() State {
	return s.state
}

// Tick returns the duration of one logical cycle.
func (s *Scheduler) Tick() time.Duration {
	return s.tick
}

// WaitCycles starts a new cycle and waits n ticks.
// The previous edge samples are latched exactly once, then n iterations run.
// If the renderer reports an error the wait ends and the error is returned.
func (s *Scheduler) WaitCycles(n int) error {
	s.boundary()

	for ; n > 0; n-- {
		if err := s.iterate(); err != nil {
			return err
		}
	}
	return nil
}

// boundary latches the current edge samples as previous samples.
func (s *Scheduler) boundary() {
	s.state.Edges.Latch()
	s.boundaries++
}

// iterate runs one wait-phase iteration.
// An iteration that took longer than a tick is not made up for.
func (s *Scheduler) iterate() error {
	t, ok, err := s.renderer.Update(s.state.Register.Snapshot())
	if err != nil {
		return err
	}
	if ok {
		debug.DebugLog.Printf("toggle %v", t)
		s.state.Register.Toggle(t)
	}

	if remaining := s.tick - s.clock.Now().Sub(s.last); remaining > 0 {
		s.clock.Sleep(remaining)
	} else {
		debug.TraceLog.Printf("cycle overrun by %v", -remaining)
	}

	end := s.clock.Now()
	s.elapsed = float64(end.Sub(s.last)) / float64(time.Millisecond)
	s.last = end
	s.iterations++

	if len(s.observers) > 0 {
		snap := s.state.Register.Snapshot()
		for _, o := range s.observers {
			o(snap)
		}
	}
	return nil
}

// Elapsed returns the measured duration in ms of the last iteration.
func (s *Scheduler) Elapsed() float64 {
	return s.elapsed
}

// Boundaries returns the number of cycle boundaries so far.
func (s *Scheduler) Boundaries() uint64 {
	return s.boundaries
}

// Iterations returns the number of wait-phase iterations so far.
func (s *Scheduler) Iterations() uint64 {
	return s.iterations
}

// Read classifies the bit selected by mask in port id.
func (s *Scheduler) Read(id port.ID, mask byte) edge.State {
	return s.state.Edges.Classify(s.state.Register, id, mask)
}

// Blink drives the LED bit selected by mask in port id with channel c,
// using the elapsed time of the last iteration.
func (s *Scheduler) Blink(id port.ID, mask byte, c blink.Channel) error {
	return s.state.Blink.Drive(s.state.Register, id, mask, c, s.elapsed)
}

// Get returns the value of port id.
func (s *Scheduler) Get(id port.ID) byte {
	return s.state.Register.Get(id)
}

// Set writes the value of port id.
func (s *Scheduler) Set(id port.ID, v byte) {
	s.state.Register.Set(id, v)
}

// SetBits sets the bits of mask in port id.
func (s *Scheduler) SetBits(id port.ID, mask byte) {
	s.state.Register.SetBits(id, mask)
}

// ClearBits clears the bits of mask in port id.
func (s *Scheduler) ClearBits(id port.ID, mask byte) {
	s.state.Register.ClearBits(id, mask)
}
