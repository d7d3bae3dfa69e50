package render

import (
	"mesa/pkg/cycle"
	"mesa/pkg/port"
)

// Multi runs several renderers at once.
// Every renderer sees every snapshot. If more than one reports a toggle in
// the same iteration the extra toggles are returned by the following calls.
type Multi struct {
	renderers []cycle.Renderer
	pending   []port.Toggle
}

// NewMulti returns a renderer calling all of r in order.
func NewMulti(r ...cycle.Renderer) *Multi {
	return &Multi{renderers: r}
}

// Add appends a renderer.
func (m *Multi) Add(r cycle.Renderer) {
	m.renderers = append(m.renderers, r)
}

// Len returns the number of renderers.
func (m *Multi) Len() int {
	return len(m.renderers)
}

// Update implements cycle.Renderer. The first error ends the call.
func (m *Multi) Update(s port.Snapshot) (port.Toggle, bool, error) {
	for _, r := range m.renderers {
		t, ok, err := r.Update(s)
		if err != nil {
			return port.Toggle{}, false, err
		}
		if ok {
			m.pending = append(m.pending, t)
		}
	}

	if len(m.pending) == 0 {
		return port.Toggle{}, false, nil
	}
	t := m.pending[0]
	m.pending = m.pending[1:]
	return t, true, nil
}
