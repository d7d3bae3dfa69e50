// Package port holds the byte-wide ports of the simulated backplane.
package port

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ID identifies one of the six backplane ports.
type ID int

const (
	// P1 is the LED byte of slot 1.
	P1 ID = iota
	// P2 is the LED byte of slot 0.
	P2
	// P3 is the switch byte of slot 0.
	P3
	// P5 is the switch byte of slot 1.
	P5
	// P6 is the LED/command byte of slot 2.
	P6
	// P7 is the switch/data byte of slot 2.
	P7

	// Count is the number of ports on the backplane.
	Count = 6
	// Slots is the number of module slots on the backplane.
	Slots = 3
	// Idle is the power-on value of every port (inactive-high).
	Idle = 0xff
)

// ErrInvalidPort is returned for port names or ids outside P1..P7.
var ErrInvalidPort = errors.New("invalid port")

var names = [Count]string{"P1", "P2", "P3", "P5", "P6", "P7"}

// slots maps a module slot to its (LED, switch) port pair.
var slots = [Slots][2]ID{{P2, P3}, {P1, P5}, {P6, P7}}

// String returns the port name, e.g. "P3".
func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("P?(%d)", int(id))
	}
	return names[id]
}

// Valid reports whether id names an existing port.
func (id ID) Valid() bool {
	return id >= 0 && id < Count
}

// ParseID converts a port name like "P3" (case insensitive) into its ID.
func ParseID(s string) (ID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return ID(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidPort, "%q", s)
}

// All returns every port id in register order.
func All() []ID {
	return []ID{P1, P2, P3, P5, P6, P7}
}

// Slot returns the LED and switch port of module slot n.
func Slot(n int) (led, sw ID, err error) {
	if n < 0 || n >= Slots {
		return 0, 0, errors.Wrapf(ErrInvalidPort, "slot %d", n)
	}
	return slots[n][0], slots[n][1], nil
}

// Register holds the current value of every port.
// It is owned by the control loop and must not be shared between goroutines.
type Register struct {
	v [Count]byte
}

// NewRegister returns a register with every port set to Idle.
func NewRegister() *Register {
	r := &Register{}
	r.Reset()
	return r
}

// Reset restores the power-on state.
func (r *Register) Reset() {
	for i := range r.v {
		r.v[i] = Idle
	}
}

// Get returns the value of port id. Invalid ids read as 0.
func (r *Register) Get(id ID) byte {
	if !id.Valid() {
		return 0
	}
	return r.v[id]
}

// Set writes the value of port id. Writes to invalid ids are ignored.
func (r *Register) Set(id ID, v byte) {
	if !id.Valid() {
		return
	}
	r.v[id] = v
}

// SetBits sets every bit of mask in port id.
func (r *Register) SetBits(id ID, mask byte) {
	r.Set(id, r.Get(id)|mask)
}

// ClearBits clears every bit of mask in port id.
func (r *Register) ClearBits(id ID, mask byte) {
	r.Set(id, r.Get(id)&^mask)
}

// Toggle flips the bits of t.Mask in port t.Port.
func (r *Register) Toggle(t Toggle) {
	r.Set(t.Port, r.Get(t.Port)^t.Mask)
}

// Snapshot returns a copy of the register.
func (r *Register) Snapshot() Snapshot {
	return Snapshot(r.v)
}

// Snapshot is an immutable copy of the register handed to renderers and observers.
type Snapshot [Count]byte

// Get returns the value of port id in the snapshot.
func (s Snapshot) Get(id ID) byte {
	if !id.Valid() {
		return 0
	}
	return s[id]
}

// Map returns the snapshot keyed by port name, used for json output.
func (s Snapshot) Map() map[string]byte {
	m := make(map[string]byte, Count)
	for i, n := range names {
		m[n] = s[i]
	}
	return m
}

// Toggle is a request to flip bits of a port, e.g. after a click on a switch.
type Toggle struct {
	Port ID
	Mask byte
}

func (t Toggle) String() string {
	return fmt.Sprintf("%v^%#02x", t.Port, t.Mask)
}
