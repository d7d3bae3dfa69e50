// Package edge classifies single port bits into steady levels and edges.
//
// A Detector keeps two sample frames per port. Classify writes the current
// frame, Latch copies the current frame into the previous frame. Latch is
// called exactly once per logical cycle, at the cycle boundary, so every
// Classify within a cycle compares against the same previous frame.
package edge

import (
	"mesa/pkg/port"
)

// State is the classification of a bit.
type State int

const (
	// Invalid is returned for masks that do not select exactly one bit.
	Invalid State = iota
	// Off indicates a steady low bit.
	Off
	// On indicates a steady high bit.
	On
	// Rising indicates a low to high transition since the last cycle.
	Rising
	// Falling indicates a high to low transition since the last cycle.
	Falling
)

var stateNames = map[State]string{
	Invalid: "ERROR",
	Off:     "OFF",
	On:      "ON",
	Rising:  "RISING",
	Falling: "FALLING",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "ERROR"
}

// Active reports whether the bit is currently high.
func (s State) Active() bool {
	return s == On || s == Rising
}

type frame [port.Count][8]bool

// Detector holds the previous and current sample frames of every port.
// The zero value is ready to use; all samples start inactive.
type Detector struct {
	previous frame
	current  frame
}

// New returns a new Detector.
func New() *Detector {
	return &Detector{}
}

// Classify samples the bit selected by mask in port id and compares it with the
// sample of the previous cycle. Invalid masks or ports return Invalid and leave
// the detector untouched.
func (d *Detector) Classify(r *port.Register, id port.ID, mask byte) State {
	i, err := port.Index(mask)
	if err != nil || !id.Valid() {
		return Invalid
	}

	current := r.Get(id)&mask == mask
	d.current[id][i] = current

	switch prev := d.previous[id][i]; {
	case !prev && current:
		return Rising
	case prev && !current:
		return Falling
	case current:
		return On
	default:
		return Off
	}
}

// Latch copies the current samples of every port into the previous frame.
func (d *Detector) Latch() {
	d.previous = d.current
}

// Reset clears both frames.
func (d *Detector) Reset() {
	d.previous = frame{}
	d.current = frame{}
}
