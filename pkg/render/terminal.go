package render

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"mesa/pkg/panel"
	"mesa/pkg/port"

	"github.com/pkg/errors"
	"github.com/womat/debug"
	"golang.org/x/term"
)

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b

	clearScreen = "\x1b[H\x1b[2J"
)

// DefaultRefresh is the redraw interval of the terminal renderer.
const DefaultRefresh = 50 * time.Millisecond

// Terminal draws the backplane as text and reads switch toggles from the keyboard.
// Keys 1-8, q-i and a-k toggle the switches of slot 0, 1 and 2; x, Esc or
// Ctrl-C tear the simulator down.
type Terminal struct {
	*Queue
	b       *panel.Backplane
	in      *os.File
	out     io.Writer
	Refresh time.Duration

	fd    int
	state *term.State
	stop  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewTerminal returns a terminal renderer reading in and drawing to out.
func NewTerminal(b *panel.Backplane, in *os.File, out io.Writer) *Terminal {
	t := &Terminal{
		Queue:   NewQueue(),
		b:       b,
		in:      in,
		out:     out,
		Refresh: DefaultRefresh,
		stop:    make(chan struct{}),
	}
	t.Attach(b)
	return t
}

// Start switches the input to raw mode if it is a terminal and starts the
// key reader and the redraw loop.
func (t *Terminal) Start() error {
	t.fd = int(t.in.Fd())
	if term.IsTerminal(t.fd) {
		state, err := term.MakeRaw(t.fd)
		if err != nil {
			return errors.Wrap(err, "can't set raw mode")
		}
		t.state = state
	}

	// the reader blocks in Read and is not waited for
	go t.read()

	t.wg.Add(1)
	go t.draw()
	return nil
}

// Stop ends the redraw loop and restores the terminal.
func (t *Terminal) Stop() {
	t.once.Do(func() {
		close(t.stop)
		t.wg.Wait()
		if t.state != nil {
			if err := term.Restore(t.fd, t.state); err != nil {
				debug.ErrorLog.Printf("can't restore terminal: %v", err)
			}
		}
	})
}

func (t *Terminal) read() {
	r := bufio.NewReader(t.in)
	for {
		c, err := r.ReadByte()
		if err != nil {
			if err != io.EOF {
				debug.ErrorLog.Printf("reading keyboard: %v", err)
			}
			return
		}
		if !t.Key(c) {
			return
		}
	}
}

// Key handles one key press and reports whether more keys are expected.
func (t *Terminal) Key(c byte) bool {
	switch c {
	case keyCtrlC, keyEscape, 'x', 'X':
		debug.InfoLog.Println("terminal teardown")
		t.Close()
		return false
	}

	if tg, ok := KeyToggle(rune(c)); ok {
		t.Push(tg)
	}
	return true
}

func (t *Terminal) draw() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.Refresh)
	defer ticker.Stop()

	var last port.Snapshot
	first := true
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			s := t.Snapshot()
			if !first && s == last {
				continue
			}
			first, last = false, s
			if _, err := io.WriteString(t.out, clearScreen+TextFrame(t.b, s)); err != nil {
				debug.ErrorLog.Printf("drawing terminal: %v", err)
				return
			}
		}
	}
}

// TextFrame renders the backplane for s as lines of text.
// Lit lamps are drawn as '@', dark lamps as '.'.
func TextFrame(b *panel.Backplane, s port.Snapshot) string {
	var sb strings.Builder

	for _, m := range b.Frame(s) {
		fmt.Fprintf(&sb, "[%d] %-6s %s=%08b %s=%08b", m.Slot, m.Name, m.Led, s.Get(m.Led), m.Switch, s.Get(m.Switch))
		if m.Name == "MM20" {
			fmt.Fprintf(&sb, "  keys %s", keyRows[m.Slot])
		}
		sb.WriteString("\r\n")

		kind, row := panel.Kind(-1), -1
		for _, l := range m.Lamps {
			if l.Kind != kind || l.Row != row {
				if kind != -1 {
					sb.WriteString("\r\n")
				}
				kind, row = l.Kind, l.Row
				sb.WriteString("    ")
			}
			if l.Lit {
				sb.WriteString("@ ")
			} else {
				sb.WriteString(". ")
			}
		}
		sb.WriteString("\r\n\r\n")
	}
	return sb.String()
}
