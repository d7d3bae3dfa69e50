package blink_test

import (
	"errors"
	"math"
	"testing"

	"mesa/pkg/blink"
	"mesa/pkg/port"
)

func newDriver(t *testing.T, channels map[blink.Channel]blink.Config) *blink.Driver {
	t.Helper()
	d, err := blink.New(channels)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func lit(r *port.Register, id port.ID, mask byte) bool {
	return r.Get(id)&mask == mask
}

func TestSquareWave(t *testing.T) {
	const mask = 0x10

	d := newDriver(t, map[blink.Channel]blink.Config{blink.B1: {Frequency: 1, On: 1, Off: 1}})
	r := port.NewRegister()
	r.ClearBits(port.P2, mask)

	// record the length of every phase driven with a 1ms step
	var phases []int
	state, run := false, 0
	for ms := 0; ms < 3000; ms++ {
		if err := d.Drive(r, port.P2, mask, blink.B1, 1); err != nil {
			t.Fatal(err)
		}
		if v := lit(r, port.P2, mask); v != state {
			if run > 0 {
				phases = append(phases, run)
			}
			state, run = v, 0
		}
		run++
	}

	// 3000ms: on, off, on, off, on, off (the last one still running)
	if len(phases) != 5 {
		t.Fatalf("expected 5 complete phases, got %v", phases)
	}
	for n, p := range phases {
		if p != 500 {
			t.Errorf("phase %d: expected 500ms, got %dms", n, p)
		}
	}

	// other bits of the port are untouched
	if r.Get(port.P2)|mask != 0xff {
		t.Errorf("other bits changed: %#02x", r.Get(port.P2))
	}
}

func TestFirstDriveStartsOnPhase(t *testing.T) {
	d := newDriver(t, blink.DefaultChannels())
	r := port.NewRegister()
	r.Set(port.P2, 0x00)

	if err := d.Drive(r, port.P2, 0x01, blink.B1, 1); err != nil {
		t.Fatal(err)
	}
	if !lit(r, port.P2, 0x01) {
		t.Errorf("expected bit on after first drive")
	}
	cd, _ := d.Countdown(port.P2, 0x01)
	if cd != 499 {
		t.Errorf("expected countdown 499, got %v", cd)
	}
}

func TestDutyRatio(t *testing.T) {
	const mask = 0x01

	// 2Hz: 500ms period split 1:4
	d := newDriver(t, map[blink.Channel]blink.Config{blink.B2: {Frequency: 2, On: 1, Off: 4}})
	r := port.NewRegister()
	r.ClearBits(port.P1, mask)

	on, off := 0, 0
	for ms := 0; ms < 5000; ms++ {
		if err := d.Drive(r, port.P1, mask, blink.B2, 1); err != nil {
			t.Fatal(err)
		}
		if lit(r, port.P1, mask) {
			on++
		} else {
			off++
		}
	}
	if on != 1000 || off != 4000 {
		t.Errorf("expected 1000ms on / 4000ms off, got %d / %d", on, off)
	}
}

func TestDegenerate(t *testing.T) {
	d := newDriver(t, map[blink.Channel]blink.Config{
		blink.B1: {Frequency: 1, On: 0, Off: 1},
		blink.B2: {Frequency: 1, On: 1, Off: 0},
		blink.B3: {Frequency: 1, On: 0, Off: 0},
	})
	r := port.NewRegister()

	for _, elapsed := range []float64{0, 1, 250, 10000} {
		if err := d.Drive(r, port.P2, 0x02, blink.B1, elapsed); err != nil {
			t.Fatal(err)
		}
		if lit(r, port.P2, 0x02) {
			t.Errorf("on=0: bit must stay off (elapsed %v)", elapsed)
		}

		if err := d.Drive(r, port.P2, 0x04, blink.B2, elapsed); err != nil {
			t.Fatal(err)
		}
		if !lit(r, port.P2, 0x04) {
			t.Errorf("off=0: bit must stay on (elapsed %v)", elapsed)
		}

		if err := d.Drive(r, port.P2, 0x08, blink.B3, elapsed); err != nil {
			t.Fatal(err)
		}
		if lit(r, port.P2, 0x08) {
			t.Errorf("on=0, off=0: bit must stay off (elapsed %v)", elapsed)
		}
	}

	// the countdown is never touched
	for _, m := range []byte{0x02, 0x04, 0x08} {
		if cd, _ := d.Countdown(port.P2, m); cd != 0 {
			t.Errorf("mask %#02x: expected countdown 0, got %v", m, cd)
		}
	}
}

func TestChannelSwitchResetsCountdown(t *testing.T) {
	const mask = 0x80

	d := newDriver(t, blink.DefaultChannels())
	r := port.NewRegister()
	r.ClearBits(port.P6, mask)

	for ms := 0; ms < 100; ms++ {
		if err := d.Drive(r, port.P6, mask, blink.B1, 1); err != nil {
			t.Fatal(err)
		}
	}
	if !lit(r, port.P6, mask) {
		t.Fatalf("expected B1 on phase")
	}
	if cd, _ := d.Countdown(port.P6, mask); cd != 400 {
		t.Fatalf("expected countdown 400, got %v", cd)
	}

	// switching to B3 (3Hz) ends the on phase right away
	if err := d.Drive(r, port.P6, mask, blink.B3, 1); err != nil {
		t.Fatal(err)
	}
	if lit(r, port.P6, mask) {
		t.Errorf("expected immediate phase change after channel switch")
	}
	cd, _ := d.Countdown(port.P6, mask)
	if want := 1000.0/3/2 - 1; math.Abs(cd-want) > 1e-9 {
		t.Errorf("expected countdown %v, got %v", want, cd)
	}
}

func TestInvalidMask(t *testing.T) {
	d := newDriver(t, blink.DefaultChannels())
	r := port.NewRegister()
	before := r.Snapshot()

	for _, m := range []byte{0x00, 0x03, 0xff} {
		if err := d.Drive(r, port.P2, m, blink.B1, 1); !errors.Is(err, port.ErrInvalidMask) {
			t.Errorf("mask %#02x: expected ErrInvalidMask, got %v", m, err)
		}
	}
	if r.Snapshot() != before {
		t.Errorf("register mutated by invalid mask")
	}
	for i := 0; i < 8; i++ {
		if cd, _ := d.Countdown(port.P2, byte(1)<<uint(i)); cd != 0 {
			t.Errorf("bit %d: countdown mutated: %v", i, cd)
		}
	}
}

func TestUnknownChannel(t *testing.T) {
	d := newDriver(t, map[blink.Channel]blink.Config{blink.B1: {Frequency: 1, On: 1, Off: 1}})
	r := port.NewRegister()
	before := r.Snapshot()

	if err := d.Drive(r, port.P2, 0x01, blink.B2, 1); !errors.Is(err, blink.ErrUnknownChannel) {
		t.Errorf("expected ErrUnknownChannel, got %v", err)
	}
	if r.Snapshot() != before {
		t.Errorf("register mutated by unknown channel")
	}
}

func TestIrregularElapsed(t *testing.T) {
	d := newDriver(t, blink.DefaultChannels())
	r := port.NewRegister()
	r.ClearBits(port.P2, 0x01)

	// a late call simply overshoots the phase, there is no catch-up
	_ = d.Drive(r, port.P2, 0x01, blink.B1, 1)
	_ = d.Drive(r, port.P2, 0x01, blink.B1, 1200)
	if !lit(r, port.P2, 0x01) {
		t.Errorf("expected bit still on until the next evaluation")
	}
	_ = d.Drive(r, port.P2, 0x01, blink.B1, 1)
	if lit(r, port.P2, 0x01) {
		t.Errorf("expected bit off after the overshooting phase")
	}
}

func TestNew(t *testing.T) {
	td := []struct {
		name string
		cfg  blink.Config
		ok   bool
	}{
		{"zero", blink.Config{Frequency: 0, On: 1, Off: 1}, false},
		{"negative", blink.Config{Frequency: -1, On: 1, Off: 1}, false},
		{"nan", blink.Config{Frequency: math.NaN(), On: 1, Off: 1}, false},
		{"inf", blink.Config{Frequency: math.Inf(1), On: 1, Off: 1}, false},
		{"-inf", blink.Config{Frequency: math.Inf(-1), On: 1, Off: 1}, false},
		{"huge on", blink.Config{Frequency: 1, On: math.MaxUint, Off: 1}, false},
		{"huge off", blink.Config{Frequency: 1, On: 1, Off: blink.MaxUnits + 1}, false},
		{"max units", blink.Config{Frequency: 1, On: blink.MaxUnits, Off: blink.MaxUnits}, true},
		{"tiny", blink.Config{Frequency: 1e-3, On: 1, Off: 1}, true},
	}
	for _, d := range td {
		_, err := blink.New(map[blink.Channel]blink.Config{blink.B1: d.cfg})
		if d.ok && err != nil {
			t.Errorf("%s: unexpected error %v", d.name, err)
		}
		if !d.ok && !errors.Is(err, blink.ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", d.name, err)
		}
	}
}

// On+Off at the limit must still split the period, not wrap around.
func TestMaxUnits(t *testing.T) {
	d := newDriver(t, map[blink.Channel]blink.Config{blink.B1: {Frequency: 1, On: blink.MaxUnits, Off: blink.MaxUnits}})
	r := port.NewRegister()
	r.ClearBits(port.P2, 0x01)

	if err := d.Drive(r, port.P2, 0x01, blink.B1, 0); err != nil {
		t.Fatal(err)
	}
	if cd, _ := d.Countdown(port.P2, 0x01); cd != 500 {
		t.Errorf("expected a 500ms on phase, got %v", cd)
	}
}

func TestParseChannel(t *testing.T) {
	for _, c := range []blink.Channel{blink.B1, blink.B2, blink.B3} {
		got, err := blink.ParseChannel(c.String())
		if err != nil || got != c {
			t.Errorf("%v: got %v, %v", c, got, err)
		}
	}
	if _, err := blink.ParseChannel("B4"); !errors.Is(err, blink.ErrUnknownChannel) {
		t.Errorf("expected ErrUnknownChannel, got %v", err)
	}
}
