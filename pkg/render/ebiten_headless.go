//go:build headless

package render

import (
	"errors"

	"mesa/pkg/panel"
)

// ErrNoDisplay is returned by NewEbiten in builds without a window system.
var ErrNoDisplay = errors.New("built without display support")

// Ebiten is not available in headless builds.
type Ebiten struct {
	*Queue
}

// NewEbiten always fails in headless builds.
func NewEbiten(*panel.Backplane, float64) (*Ebiten, error) {
	return nil, ErrNoDisplay
}

// Run is never reached in headless builds.
func (e *Ebiten) Run() error {
	return ErrNoDisplay
}
