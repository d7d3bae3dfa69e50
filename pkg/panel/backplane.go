package panel

import (
	"mesa/pkg/port"

	"github.com/pkg/errors"
)

// Module is one rendered slot of the backplane.
type Module struct {
	Slot   int
	Name   string
	Led    port.ID
	Switch port.ID
	// Top is the y offset of the module in backplane coordinates.
	Top    float64
	Lamps  []Lamp
	Labels []Label
}

// Backplane stacks the panels of all slots vertically.
type Backplane struct {
	g      Geometry
	panels [port.Slots]Panel
}

// NewBackplane creates the panels for the given specs, one per slot.
// Missing slots get an MM20.
func NewBackplane(specs []Spec, g Geometry) (*Backplane, error) {
	if len(specs) > port.Slots {
		return nil, errors.Errorf("%d modules configured, the backplane has %d slots", len(specs), port.Slots)
	}

	b := &Backplane{g: g}
	for n := range b.panels {
		var spec Spec
		if n < len(specs) {
			spec = specs[n]
		}
		p, err := New(spec, g)
		if err != nil {
			return nil, errors.Wrapf(err, "slot %d", n)
		}
		b.panels[n] = p
	}
	return b, nil
}

// Size returns the size of the whole backplane.
func (b *Backplane) Size() (w, h float64) {
	return b.g.W, b.g.H * port.Slots
}

// Geometry returns the size of one module.
func (b *Backplane) Geometry() Geometry {
	return b.g
}

// Panel returns the panel of slot n.
func (b *Backplane) Panel(n int) Panel {
	if n < 0 || n >= port.Slots {
		return nil
	}
	return b.panels[n]
}

// Latch hands the bytes of every slot to the panels with memory.
// It must be called once per cycle from the scheduler goroutine.
func (b *Backplane) Latch(s port.Snapshot) {
	for n, p := range b.panels {
		if l, ok := p.(Latcher); ok {
			led, sw, _ := port.Slot(n)
			l.Latch(s.Get(led), s.Get(sw))
		}
	}
}

// Frame returns the modules to draw for the snapshot s.
// It only reads the panels and may be called from any goroutine.
func (b *Backplane) Frame(s port.Snapshot) []Module {
	modules := make([]Module, 0, port.Slots)
	for n, p := range b.panels {
		led, sw, _ := port.Slot(n)
		modules = append(modules, Module{
			Slot:   n,
			Name:   p.Name(),
			Led:    led,
			Switch: sw,
			Top:    float64(n) * b.g.H,
			Lamps:  p.Lamps(s.Get(led), s.Get(sw)),
			Labels: []Label{
				{X: 5, Y: 5, Text: p.Name()},
				{X: 5, Y: b.g.H - 40, Text: led.String()},
				{X: 5, Y: b.g.H - 20, Text: sw.String()},
			},
		})
	}
	return modules
}

// Click hit-tests a click at (x, y) in backplane coordinates.
func (b *Backplane) Click(x, y float64) (port.Toggle, bool) {
	if x < 0 || y < 0 || x >= b.g.W || y >= b.g.H*port.Slots {
		return port.Toggle{}, false
	}

	n := int(y / b.g.H)
	mask, ok := b.panels[n].Click(x, y-float64(n)*b.g.H)
	if !ok {
		return port.Toggle{}, false
	}
	_, sw, _ := port.Slot(n)
	return port.Toggle{Port: sw, Mask: mask}, true
}
