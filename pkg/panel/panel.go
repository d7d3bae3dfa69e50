// Package panel models the virtual I/O modules plugged into the backplane.
//
// A panel turns the two port bytes of its slot into lamps (LEDs, switches,
// matrix pixels) and hit-tests clicks into bit toggles of its switch byte.
// Panels know nothing about how lamps are drawn; renderers do.
package panel

import (
	"image/color"

	"github.com/pkg/errors"
)

// ErrUnknownType is returned for unsupported module types.
var ErrUnknownType = errors.New("unknown module type")

// Kind classifies a lamp.
type Kind int

const (
	// LED is a round output lamp.
	LED Kind = iota
	// Switch is a click-to-toggle switch with a lamp ring.
	Switch
	// Pixel is a square lamp of the LED matrix.
	Pixel
)

// Lamp is a drawable element of a panel in module coordinates.
type Lamp struct {
	Kind Kind
	// Row and Col locate the lamp in its grid; Row is 0 for single-row panels.
	Row, Col int
	// X and Y are the centre of the lamp, R its radius or half edge length.
	X, Y, R float64
	Lit     bool
	Color   color.RGBA
}

// Label is a text element of a panel in module coordinates.
type Label struct {
	X, Y float64
	Text string
}

// Geometry is the size of one module in logical pixels.
type Geometry struct {
	W, H float64
}

// DefaultGeometry is the module size used by the renderers.
var DefaultGeometry = Geometry{W: 480, H: 320}

// Panel is implemented by each module type.
type Panel interface {
	// Name returns the module type name shown on the panel.
	Name() string
	// Lamps returns the lamps for the given LED and switch byte.
	// It must not change the panel, renderers call it at their own frame rate.
	Lamps(led, sw byte) []Lamp
	// Click returns the switch-byte mask hit at (x, y), if any.
	Click(x, y float64) (mask byte, ok bool)
}

// Latcher is implemented by panels with memory. Latch is called with the
// bytes of the slot once per cycle on the scheduler goroutine.
type Latcher interface {
	Latch(led, sw byte)
}

// Spec describes a module in the configuration.
type Spec struct {
	Type  string  `yaml:"type"`
	Color []uint8 `yaml:"color"`
}

// SwitchBackground is the colour of the square behind a switch lamp.
var SwitchBackground = color.RGBA{50, 50, 50, 255}

// DefaultMatrixColor is the pixel colour of a matrix without a configured color.
var DefaultMatrixColor = color.RGBA{255, 84, 84, 255}

var (
	ledOn     = color.RGBA{255, 84, 84, 255}
	ledOff    = color.RGBA{122, 40, 40, 255}
	switchOn  = color.RGBA{59, 217, 90, 255}
	switchOff = color.RGBA{29, 107, 44, 255}
)

// New creates the panel described by spec.
func New(spec Spec, g Geometry) (Panel, error) {
	switch spec.Type {
	case "", "mm20":
		return NewMM20(g), nil
	case "matrix":
		c := DefaultMatrixColor
		if len(spec.Color) == 3 {
			c = color.RGBA{spec.Color[0], spec.Color[1], spec.Color[2], 255}
		} else if len(spec.Color) != 0 {
			return nil, errors.Errorf("matrix color needs 3 components, got %d", len(spec.Color))
		}
		return NewMatrix(g, c), nil
	default:
		return nil, errors.Wrapf(ErrUnknownType, "module %q", spec.Type)
	}
}

// bit returns the mask of column col, the leftmost column is the MSB.
func bit(col int) byte {
	return 1 << uint(7-col)
}

func dim(c color.RGBA) color.RGBA {
	return color.RGBA{c.R / 3, c.G / 3, c.B / 3, 255}
}
