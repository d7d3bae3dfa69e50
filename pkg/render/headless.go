package render

import (
	"mesa/pkg/port"
)

// Headless is a renderer without any output.
// Toggles are injected with Press, e.g. by tests or the web service.
type Headless struct {
	*Queue
	// OnFrame is called from Update with every snapshot, if set.
	OnFrame func(s port.Snapshot)
}

// NewHeadless returns an open headless renderer.
func NewHeadless() *Headless {
	return &Headless{Queue: NewQueue()}
}

// Press queues a toggle of the switch bits mask in port id.
func (h *Headless) Press(id port.ID, mask byte) {
	h.Push(port.Toggle{Port: id, Mask: mask})
}

// Update implements cycle.Renderer.
func (h *Headless) Update(s port.Snapshot) (port.Toggle, bool, error) {
	t, ok, err := h.Queue.Update(s)
	if err == nil && h.OnFrame != nil {
		h.OnFrame(s)
	}
	return t, ok, err
}
