// Package raspberry mirrors one backplane slot to LEDs and push buttons wired
// to the GPIO header of a Raspberry Pi.
package raspberry

import (
	"sync"
	"time"

	"mesa/pkg/port"
	"mesa/pkg/render"

	"github.com/pkg/errors"
	"github.com/womat/debug"
)

// Width is the number of LED and switch lines of a slot.
const Width = 8

var (
	ErrInvalidParam = errors.New("invalid parameters")
	ErrNotSupported = errors.New("gpio not supported on this platform")
)

// Config describes the wiring of the GPIO panel.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"`
	Chip    string `yaml:"chip"`
	Slot    int    `yaml:"slot"`

	// LEDs and Switches are the line offsets (BCM numbers), the first one is the MSB.
	LEDs     []int `yaml:"leds"`
	Switches []int `yaml:"switches"`

	// BounceTime is the key bounce time in ms, 0 disables debouncing.
	BounceTime int `yaml:"bouncetime"`
}

// Validate checks the wiring.
func (c Config) Validate() error {
	if len(c.LEDs) != Width || len(c.Switches) != Width {
		return errors.Wrapf(ErrInvalidParam, "gpio needs %d leds and %d switches", Width, Width)
	}
	if _, _, err := port.Slot(c.Slot); err != nil {
		return errors.Wrapf(err, "gpio slot %d", c.Slot)
	}
	if c.BounceTime < 0 {
		return errors.Wrapf(ErrInvalidParam, "gpio bouncetime %d", c.BounceTime)
	}
	return nil
}

// Driver gives access to the lines of one GPIO backend.
type Driver interface {
	// SetOutputs sets the LED lines, values[i] belongs to LEDs[i].
	SetOutputs(values []int) error
	// Level returns the level of switch line i.
	Level(i int) (int, error)
	Close() error
}

// Panel is a renderer driving real LEDs from the LED byte of its slot.
// Pressing a button (falling edge, the lines are pulled up) toggles the
// matching bit of the switch byte.
type Panel struct {
	*render.Queue
	drv        Driver
	led, sw    port.ID
	bounceTime time.Duration

	// shown is the LED byte currently on the lines
	shown   byte
	written bool

	mu         sync.Mutex
	debouncing [Width]bool
	lastValue  [Width]int
}

// Open requests the lines of the configured backend.
func Open(cfg Config) (*Panel, error) {
	p, err := newPanel(cfg)
	if err != nil {
		return nil, err
	}

	drv, err := openDriver(cfg, p.Edge)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open gpio driver %q", cfg.Driver)
	}
	if err := p.attach(drv); err != nil {
		drv.Close()
		return nil, err
	}
	return p, nil
}

// NewPanel returns a panel on an already opened driver.
// The driver must call Edge for every edge on a switch line.
func NewPanel(cfg Config, drv Driver) (*Panel, error) {
	p, err := newPanel(cfg)
	if err != nil {
		return nil, err
	}
	if err := p.attach(drv); err != nil {
		return nil, err
	}
	return p, nil
}

func newPanel(cfg Config) (*Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	led, sw, _ := port.Slot(cfg.Slot)
	return &Panel{
		Queue:      render.NewQueue(),
		led:        led,
		sw:         sw,
		bounceTime: time.Duration(cfg.BounceTime) * time.Millisecond,
	}, nil
}

func (p *Panel) attach(drv Driver) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.drv = drv
	for i := range p.lastValue {
		v, err := drv.Level(i)
		if err != nil {
			return errors.Wrapf(err, "reading switch %d", i)
		}
		p.lastValue[i] = v
	}
	return nil
}

// Close releases the lines. The next Update returns the teardown error.
func (p *Panel) Close() error {
	p.Queue.Close()
	return p.drv.Close()
}

// Update implements the renderer boundary. The LED lines are written only
// when the LED byte changed.
func (p *Panel) Update(s port.Snapshot) (port.Toggle, bool, error) {
	t, ok, err := p.Queue.Update(s)
	if err != nil {
		return t, ok, err
	}

	if v := s.Get(p.led); !p.written || v != p.shown {
		if err := p.drv.SetOutputs(levels(v)); err != nil {
			debug.ErrorLog.Printf("setting gpio leds: %v", err)
		} else {
			p.shown, p.written = v, true
		}
	}
	return t, ok, nil
}

// levels returns the line levels for the byte v, the MSB first.
func levels(v byte) []int {
	l := make([]int, Width)
	for i := range l {
		if v&(0x80>>uint(i)) != 0 {
			l[i] = 1
		}
	}
	return l
}

// Edge handles an edge on switch line i.
// After the bounce time the level is read again; a press is accepted only if
// the level changed to low. Edges during the bounce time are ignored, so are
// edges the backend reports before the panel is attached to it.
func (p *Panel) Edge(i int) {
	if i < 0 || i >= Width {
		return
	}

	p.mu.Lock()
	if p.drv == nil {
		p.mu.Unlock()
		debug.TraceLog.Printf("edge on switch %d before the driver is attached", i)
		return
	}
	if p.debouncing[i] {
		p.mu.Unlock()
		debug.TraceLog.Printf("bounce signal detected on switch %d", i)
		return
	}
	p.debouncing[i] = true
	p.mu.Unlock()

	if p.bounceTime == 0 {
		p.settle(i)
		return
	}
	go func() {
		time.Sleep(p.bounceTime)
		p.settle(i)
	}()
}

func (p *Panel) settle(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { p.debouncing[i] = false }()

	v, err := p.drv.Level(i)
	if err != nil {
		debug.ErrorLog.Printf("reading switch %d: %v", i, err)
		return
	}
	if v == p.lastValue[i] {
		debug.TraceLog.Printf("no changed value on switch %d after bounce delay", i)
		return
	}
	p.lastValue[i] = v

	if v == 0 {
		t := port.Toggle{Port: p.sw, Mask: 0x80 >> uint(i)}
		debug.DebugLog.Printf("gpio switch %d pressed: %v", i, t)
		p.Push(t)
	}
}
