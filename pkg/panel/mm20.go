package panel

// MM20 is a digital I/O module: a row of 8 LEDs driven by the LED byte and a
// row of 8 switches that toggle bits of the switch byte when clicked.
type MM20 struct {
	g Geometry
}

// NewMM20 returns an MM20 panel.
func NewMM20(g Geometry) *MM20 {
	return &MM20{g: g}
}

// Name implements the Panel interface.
func (m *MM20) Name() string {
	return "MM20"
}

func (m *MM20) spacing() float64 { return m.g.W / 8 }
func (m *MM20) offset() float64  { return m.g.W / 16 }
func (m *MM20) radius() float64  { return m.g.W/16 - 10 }
func (m *MM20) ledRow() float64  { return m.g.H / 3 }
func (m *MM20) swRow() float64   { return m.g.H / 3 * 2 }

// Lamps implements the Panel interface.
func (m *MM20) Lamps(led, sw byte) []Lamp {
	lamps := make([]Lamp, 0, 16)
	r := m.radius()

	for i := 0; i < 8; i++ {
		c := ledOff
		lit := led&bit(i) != 0
		if lit {
			c = ledOn
		}
		lamps = append(lamps, Lamp{
			Kind: LED, Col: i,
			X: m.offset() + float64(i)*m.spacing(), Y: m.ledRow(), R: r,
			Lit: lit, Color: c,
		})
	}

	for i := 0; i < 8; i++ {
		c := switchOff
		lit := sw&bit(i) != 0
		if lit {
			c = switchOn
		}
		lamps = append(lamps, Lamp{
			Kind: Switch, Col: i,
			X: m.offset() + float64(i)*m.spacing(), Y: m.swRow(), R: r,
			Lit: lit, Color: c,
		})
	}

	return lamps
}

// Click implements the Panel interface. Only the first switch hit counts.
func (m *MM20) Click(x, y float64) (byte, bool) {
	r := m.radius()
	cy := m.swRow()
	if y < cy-r || y >= cy+r {
		return 0, false
	}

	for i := 0; i < 8; i++ {
		cx := m.offset() + float64(i)*m.spacing()
		if x >= cx-r && x < cx+r {
			return bit(i), true
		}
	}
	return 0, false
}
