package panel

import (
	"image/color"
	"math"
	"sync"
)

const (
	matrixSize = 8

	// rowMask selects the row address in the command byte.
	rowMask = 0x0f
	// enableInput latches the data byte into the addressed row.
	enableInput = 0x10
	// enableOutput shows the latched matrix, otherwise all pixels are dark.
	enableOutput = 0x20
)

// Matrix is an 8x8 LED matrix. The first byte of its slot is a command byte
// (row address, input enable, output enable), the second the row data.
// Rows stay latched until overwritten. Latch runs on the scheduler goroutine
// once per cycle, Lamps on the drawing goroutine.
type Matrix struct {
	g   Geometry
	on  color.RGBA
	off color.RGBA

	mu     sync.Mutex
	pixels [matrixSize][matrixSize]bool
}

// NewMatrix returns a dark matrix with the given pixel colour.
func NewMatrix(g Geometry, c color.RGBA) *Matrix {
	return &Matrix{g: g, on: c, off: dim(c)}
}

// Name implements the Panel interface.
func (m *Matrix) Name() string {
	return "Matrix"
}

// Latch stores data into the addressed row if the command byte enables input.
// Row addresses beyond the matrix are ignored.
func (m *Matrix) Latch(cmd, data byte) {
	if cmd&enableInput == 0 {
		return
	}
	row := int(cmd & rowMask)
	if row >= matrixSize {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for col := 0; col < matrixSize; col++ {
		m.pixels[row][col] = data&bit(col) != 0
	}
}

// Row returns the latched bits of row as a byte, the leftmost pixel is the MSB.
func (m *Matrix) Row(row int) byte {
	if row < 0 || row >= matrixSize {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var v byte
	for col := 0; col < matrixSize; col++ {
		if m.pixels[row][col] {
			v |= bit(col)
		}
	}
	return v
}

// Lamps implements the Panel interface. It shows the latched rows if cmd
// enables the output; data is ignored, rows are latched by Latch only.
func (m *Matrix) Lamps(cmd, _ byte) []Lamp {
	show := cmd&enableOutput != 0

	side := math.Min(m.g.W, m.g.H) - 10
	size := side / matrixSize
	padding := 0.05 * size
	ox := (m.g.W - side) / 2
	oy := (m.g.H - side) / 2

	m.mu.Lock()
	defer m.mu.Unlock()

	lamps := make([]Lamp, 0, matrixSize*matrixSize)
	for row := 0; row < matrixSize; row++ {
		for col := 0; col < matrixSize; col++ {
			lit := show && m.pixels[row][col]
			c := m.off
			if lit {
				c = m.on
			}
			x := ox + float64(col)*size + size/2
			y := oy + float64(row)*size + size/2
			lamps = append(lamps, Lamp{
				Kind: Pixel, Row: row, Col: col,
				X: x, Y: y, R: size/2 - padding,
				Lit: lit, Color: c,
			})
		}
	}
	return lamps
}

// Click implements the Panel interface. The matrix has no switches.
func (m *Matrix) Click(float64, float64) (byte, bool) {
	return 0, false
}
