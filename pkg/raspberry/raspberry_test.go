package raspberry_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"mesa/pkg/cycle"
	"mesa/pkg/port"
	"mesa/pkg/raspberry"
)

// fakeDriver records outputs and serves switch levels.
type fakeDriver struct {
	mu      sync.Mutex
	outputs [][]int
	levels  [raspberry.Width]int
	closed  bool
}

func newFakeDriver() *fakeDriver {
	d := &fakeDriver{}
	for i := range d.levels {
		d.levels[i] = 1
	}
	return d
}

func (d *fakeDriver) SetOutputs(v []int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outputs = append(d.outputs, append([]int(nil), v...))
	return nil
}

func (d *fakeDriver) Level(i int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.levels[i], nil
}

func (d *fakeDriver) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDriver) set(i, v int) {
	d.mu.Lock()
	d.levels[i] = v
	d.mu.Unlock()
}

func config(bounce int) raspberry.Config {
	return raspberry.Config{
		Enabled:    true,
		Slot:       1,
		LEDs:       []int{5, 6, 13, 19, 26, 16, 20, 21},
		Switches:   []int{4, 17, 27, 22, 10, 9, 11, 0},
		BounceTime: bounce,
	}
}

func TestMirror(t *testing.T) {
	d := newFakeDriver()
	p, err := raspberry.NewPanel(config(0), d)
	if err != nil {
		t.Fatal(err)
	}

	r := port.NewRegister()
	r.Set(port.P1, 0xa0)
	p.Update(r.Snapshot())
	p.Update(r.Snapshot())
	r.Set(port.P2, 0x00) // other slot
	p.Update(r.Snapshot())
	r.Set(port.P1, 0x01)
	p.Update(r.Snapshot())

	want := [][]int{{1, 0, 1, 0, 0, 0, 0, 0}, {0, 0, 0, 0, 0, 0, 0, 1}}
	if len(d.outputs) != len(want) {
		t.Fatalf("expected %d writes, got %v", len(want), d.outputs)
	}
	for n := range want {
		for i := range want[n] {
			if d.outputs[n][i] != want[n][i] {
				t.Errorf("write %d: expected %v, got %v", n, want[n], d.outputs[n])
				break
			}
		}
	}

	if err := p.Close(); err != nil || !d.closed {
		t.Errorf("driver not closed: %v", err)
	}
	if _, _, err := p.Update(r.Snapshot()); !errors.Is(err, cycle.ErrTeardown) {
		t.Errorf("expected ErrTeardown, got %v", err)
	}
}

func TestPress(t *testing.T) {
	d := newFakeDriver()
	p, err := raspberry.NewPanel(config(0), d)
	if err != nil {
		t.Fatal(err)
	}

	// press and release switch 2, only the press toggles
	d.set(2, 0)
	p.Edge(2)
	d.set(2, 1)
	p.Edge(2)
	// edge without level change
	p.Edge(3)

	tg, ok, err := p.Update(port.NewRegister().Snapshot())
	if err != nil || !ok {
		t.Fatalf("expected a toggle, got %v %v", ok, err)
	}
	if tg.Port != port.P5 || tg.Mask != 0x20 {
		t.Errorf("expected P5^0x20, got %v", tg)
	}
	if p.Pending() != 0 {
		t.Errorf("expected no more toggles, got %d", p.Pending())
	}
}

func TestDebounce(t *testing.T) {
	d := newFakeDriver()
	p, err := raspberry.NewPanel(config(10), d)
	if err != nil {
		t.Fatal(err)
	}

	// a bouncing press: several edges within the bounce time
	d.set(0, 0)
	for i := 0; i < 5; i++ {
		p.Edge(0)
	}
	time.Sleep(50 * time.Millisecond)

	if p.Pending() != 1 {
		t.Fatalf("expected exactly one toggle, got %d", p.Pending())
	}

	// a spike shorter than the bounce time is ignored
	d.set(0, 1)
	p.Edge(0)
	time.Sleep(50 * time.Millisecond)
	d.set(1, 0)
	p.Edge(1)
	d.set(1, 1)
	time.Sleep(50 * time.Millisecond)

	if p.Pending() != 1 {
		t.Errorf("expected the spike to be ignored, got %d toggles", p.Pending())
	}
}

func TestConfig(t *testing.T) {
	c := config(0)
	c.LEDs = c.LEDs[:7]
	if _, err := raspberry.NewPanel(c, newFakeDriver()); !errors.Is(err, raspberry.ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam, got %v", err)
	}

	c = config(0)
	c.Slot = 3
	if _, err := raspberry.NewPanel(c, newFakeDriver()); !errors.Is(err, port.ErrInvalidPort) {
		t.Errorf("expected ErrInvalidPort, got %v", err)
	}
}
