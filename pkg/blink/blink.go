// Package blink drives LED bits through timed on/off cycles.
package blink

import (
	"fmt"
	"math"

	"mesa/pkg/port"

	"github.com/pkg/errors"
)

// ErrUnknownChannel is returned if a channel has no configuration.
var ErrUnknownChannel = errors.New("unknown blink channel")

// ErrInvalidConfig is returned by New for channels that can't be driven.
var ErrInvalidConfig = errors.New("invalid blink configuration")

// Channel selects one of the preconfigured blink patterns.
type Channel int

const (
	// none is the channel of a bit that was never driven.
	none Channel = iota
	// B1 is the first blink channel.
	B1
	// B2 is the second blink channel.
	B2
	// B3 is the third blink channel.
	B3
)

func (c Channel) String() string {
	if c < B1 {
		return "none"
	}
	return fmt.Sprintf("B%d", int(c))
}

// ParseChannel converts "B1".."B3" into a Channel.
func ParseChannel(s string) (Channel, error) {
	for _, c := range []Channel{B1, B2, B3} {
		if c.String() == s {
			return c, nil
		}
	}
	return none, errors.Wrapf(ErrUnknownChannel, "%q", s)
}

// Config defines the frequency and the duty ratio of a channel.
// On and Off are relative weights of one period, not durations.
type Config struct {
	Frequency float64 `yaml:"frequency" json:"frequency"`
	On        uint    `yaml:"on" json:"on"`
	Off       uint    `yaml:"off" json:"off"`
}

// MaxUnits bounds On and Off so their sum can't overflow.
const MaxUnits = 1 << 16

// Validate checks that the channel can be driven: the frequency must be
// positive and finite, On and Off at most MaxUnits.
func (c Config) Validate() error {
	if !(c.Frequency > 0) || math.IsInf(c.Frequency, 1) {
		return errors.Wrapf(ErrInvalidConfig, "frequency %v", c.Frequency)
	}
	if c.On > MaxUnits || c.Off > MaxUnits {
		return errors.Wrapf(ErrInvalidConfig, "on/off %d/%d exceed %d", c.On, c.Off, MaxUnits)
	}
	return nil
}

// Period returns the period in milliseconds.
func (c Config) Period() float64 {
	return 1000.0 / c.Frequency
}

// DefaultChannels returns the default channel set.
func DefaultChannels() map[Channel]Config {
	return map[Channel]Config{
		B1: {Frequency: 1, On: 1, Off: 1},
		B2: {Frequency: 1, On: 1, Off: 1},
		B3: {Frequency: 3, On: 1, Off: 1},
	}
}

type bitState struct {
	// countdown is the remaining time of the current phase in ms.
	countdown float64
	// channel is the channel that drove the bit last.
	channel Channel
}

// Driver holds the countdown of every LED bit.
type Driver struct {
	channels map[Channel]Config
	bits     [port.Count][8]bitState
}

// New returns a driver for the given channel set.
// Every channel must pass Validate.
func New(channels map[Channel]Config) (*Driver, error) {
	d := &Driver{channels: make(map[Channel]Config, len(channels))}
	for c, cfg := range channels {
		if err := cfg.Validate(); err != nil {
			return nil, errors.Wrapf(err, "channel %v", c)
		}
		d.channels[c] = cfg
	}
	return d, nil
}

// Channel returns the configuration of channel c.
func (d *Driver) Channel(c Channel) (Config, bool) {
	cfg, ok := d.channels[c]
	return cfg, ok
}

// Drive advances the blink cycle of the LED bit selected by mask in port id.
// elapsed is the time in ms since the driver last ran.
//
// If the bit was last driven by another channel its countdown restarts, so
// the next phase begins immediately. A channel with On == 0 keeps the bit low,
// Off == 0 keeps it high.
func (d *Driver) Drive(r *port.Register, id port.ID, mask byte, c Channel, elapsed float64) error {
	i, err := port.Index(mask)
	if err != nil {
		return err
	}
	if !id.Valid() {
		return port.ErrInvalidPort
	}
	cfg, ok := d.channels[c]
	if !ok {
		return errors.Wrapf(ErrUnknownChannel, "%v", c)
	}

	b := &d.bits[id][i]
	if b.channel != c {
		b.countdown = 0
		b.channel = c
	}

	switch {
	case cfg.On == 0:
		r.ClearBits(id, mask)
		return nil
	case cfg.Off == 0:
		r.SetBits(id, mask)
		return nil
	}

	total := float64(cfg.On) + float64(cfg.Off)
	lit := r.Get(id)&mask == mask

	if b.countdown <= 0 {
		if lit {
			b.countdown = cfg.Period() * float64(cfg.Off) / total
			r.ClearBits(id, mask)
		} else {
			b.countdown = cfg.Period() * float64(cfg.On) / total
			r.SetBits(id, mask)
		}
	}

	b.countdown -= elapsed
	return nil
}

// Countdown returns the remaining phase time in ms of the bit selected by mask.
func (d *Driver) Countdown(id port.ID, mask byte) (float64, error) {
	i, err := port.Index(mask)
	if err != nil {
		return 0, err
	}
	if !id.Valid() {
		return 0, port.ErrInvalidPort
	}
	return d.bits[id][i].countdown, nil
}
