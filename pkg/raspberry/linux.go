//go:build linux

package raspberry

import (
	"github.com/pkg/errors"
	"github.com/warthog618/gpio"
	"github.com/warthog618/gpiod"
	"github.com/womat/debug"
)

func openDriver(cfg Config, edge func(int)) (Driver, error) {
	switch cfg.Driver {
	case "", "gpiod":
		return openChardev(cfg, edge)
	case "gpiomem":
		return openMem(cfg, edge)
	default:
		return nil, errors.Wrapf(ErrInvalidParam, "gpio driver %q", cfg.Driver)
	}
}

// chardev uses the GPIO character device.
type chardev struct {
	chip     *gpiod.Chip
	leds     *gpiod.Lines
	switches []*gpiod.Line
}

func openChardev(cfg Config, edge func(int)) (Driver, error) {
	name := cfg.Chip
	if name == "" {
		name = "gpiochip0"
	}

	c, err := gpiod.NewChip(name)
	if err != nil {
		return nil, err
	}
	d := &chardev{chip: c}

	if d.leds, err = c.RequestLines(cfg.LEDs, gpiod.AsOutput(make([]int, Width)...)); err != nil {
		d.Close()
		return nil, errors.Wrap(err, "requesting led lines")
	}

	for i, offset := range cfg.Switches {
		handler := func(gpiod.LineEvent) { edge(i) }
		l, err := c.RequestLine(offset, gpiod.WithEventHandler(handler),
			gpiod.WithBothEdges, gpiod.AsInput, gpiod.WithPullUp)
		if err != nil {
			d.Close()
			return nil, errors.Wrapf(err, "requesting switch line %d", offset)
		}
		d.switches = append(d.switches, l)
	}
	return d, nil
}

func (d *chardev) SetOutputs(values []int) error {
	return d.leds.SetValues(values)
}

func (d *chardev) Level(i int) (int, error) {
	if i < 0 || i >= len(d.switches) {
		return 0, ErrInvalidParam
	}
	return d.switches[i].Value()
}

// Close releases the lines first; Close of a line waits for running handlers.
func (d *chardev) Close() error {
	for _, l := range d.switches {
		if err := l.Close(); err != nil {
			debug.ErrorLog.Printf("closing switch line: %v", err)
		}
	}
	if d.leds != nil {
		d.leds.SetValues(make([]int, Width))
		if err := d.leds.Close(); err != nil {
			debug.ErrorLog.Printf("closing led lines: %v", err)
		}
	}
	return d.chip.Close()
}

// mem uses the /dev/gpiomem register window.
type mem struct {
	leds     []*gpio.Pin
	switches []*gpio.Pin
}

func openMem(cfg Config, edge func(int)) (Driver, error) {
	if err := gpio.Open(); err != nil {
		return nil, err
	}
	d := &mem{}

	for _, n := range cfg.LEDs {
		p := gpio.NewPin(n)
		p.Output()
		p.Low()
		d.leds = append(d.leds, p)
	}

	for i, n := range cfg.Switches {
		p := gpio.NewPin(n)
		p.Input()
		p.PullUp()
		if err := p.Watch(gpio.EdgeBoth, func(*gpio.Pin) { edge(i) }); err != nil {
			d.Close()
			return nil, errors.Wrapf(err, "watching switch pin %d", n)
		}
		d.switches = append(d.switches, p)
	}
	return d, nil
}

func (d *mem) SetOutputs(values []int) error {
	if len(values) != len(d.leds) {
		return ErrInvalidParam
	}
	for i, v := range values {
		if v != 0 {
			d.leds[i].High()
		} else {
			d.leds[i].Low()
		}
	}
	return nil
}

func (d *mem) Level(i int) (int, error) {
	if i < 0 || i >= len(d.switches) {
		return 0, ErrInvalidParam
	}
	if d.switches[i].Read() {
		return 1, nil
	}
	return 0, nil
}

func (d *mem) Close() error {
	for _, p := range d.switches {
		p.Unwatch()
	}
	for _, p := range d.leds {
		p.Low()
	}
	return gpio.Close()
}
