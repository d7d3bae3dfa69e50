package render

import (
	"strings"

	"mesa/pkg/port"
)

// keyRows maps keyboard rows to the switch bytes of the slots, the leftmost
// key toggles the MSB.
var keyRows = [port.Slots]string{"12345678", "qwertyui", "asdfghjk"}

// KeyToggle returns the switch toggle bound to key r.
func KeyToggle(r rune) (port.Toggle, bool) {
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	for slot, row := range keyRows {
		if col := strings.IndexRune(row, r); col >= 0 {
			_, sw, _ := port.Slot(slot)
			return port.Toggle{Port: sw, Mask: 0x80 >> uint(col)}, true
		}
	}
	return port.Toggle{}, false
}
