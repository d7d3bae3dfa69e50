//go:build !headless

package render

import (
	"errors"
	"image/color"

	"mesa/pkg/cycle"
	"mesa/pkg/panel"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/womat/debug"
	"golang.org/x/image/font/basicfont"
)

var (
	background = color.RGBA{20, 20, 24, 255}
	separator  = color.RGBA{70, 70, 80, 255}
	labelColor = color.RGBA{200, 200, 200, 255}
)

// Ebiten shows the backplane in a desktop window.
// Switches are toggled by mouse clicks or by the keys of the terminal renderer.
type Ebiten struct {
	*Queue
	b     *panel.Backplane
	scale float64
}

// NewEbiten returns a window renderer; the window opens with Run.
func NewEbiten(b *panel.Backplane, scale float64) (*Ebiten, error) {
	if scale <= 0 {
		scale = 1
	}
	e := &Ebiten{Queue: NewQueue(), b: b, scale: scale}
	e.Attach(b)
	return e, nil
}

// Run opens the window and blocks until it is closed or the queue is closed.
// It must be called on the main goroutine.
func (e *Ebiten) Run() error {
	defer e.Close()

	w, h := e.b.Size()
	ebiten.SetWindowSize(int(w*e.scale), int(h*e.scale))
	ebiten.SetWindowTitle("mesa")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetWindowClosingHandled(true)

	err := ebiten.RunGame(&game{e})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// game implements ebiten.Game; Ebiten itself implements the renderer Update.
type game struct {
	*Ebiten
}

func (g *game) Update() error {
	if ebiten.IsWindowBeingClosed() {
		debug.InfoLog.Println("window closed")
		g.Close()
		return ebiten.Termination
	}
	if g.Closed() {
		return ebiten.Termination
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if t, ok := g.b.Click(float64(x), float64(y)); ok {
			g.Push(t)
		}
	}
	for _, r := range ebiten.AppendInputChars(nil) {
		if t, ok := KeyToggle(r); ok {
			g.Push(t)
		}
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	geo := g.b.Geometry()

	for _, m := range g.b.Frame(g.Snapshot()) {
		if m.Slot > 0 {
			ebitenutil.DrawRect(screen, 0, m.Top, geo.W, 2, separator)
		}
		for _, l := range m.Lamps {
			drawLamp(screen, m.Top, l)
		}
		for _, lb := range m.Labels {
			text.Draw(screen, lb.Text, basicfont.Face7x13, int(lb.X), int(m.Top+lb.Y)+basicfont.Face7x13.Ascent, labelColor)
		}
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := g.b.Size()
	return int(w), int(h)
}

func drawLamp(screen *ebiten.Image, top float64, l panel.Lamp) {
	y := top + l.Y
	switch l.Kind {
	case panel.Pixel:
		ebitenutil.DrawRect(screen, l.X-l.R, y-l.R, 2*l.R, 2*l.R, l.Color)
	case panel.Switch:
		ebitenutil.DrawRect(screen, l.X-l.R-4, y-l.R-4, 2*l.R+8, 2*l.R+8, panel.SwitchBackground)
		vector.DrawFilledCircle(screen, float32(l.X), float32(y), float32(l.R), l.Color, true)
	default:
		vector.DrawFilledCircle(screen, float32(l.X), float32(y), float32(l.R), l.Color, true)
	}
}

var _ cycle.Renderer = (*Ebiten)(nil)
