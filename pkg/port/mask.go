package port

import "github.com/pkg/errors"

// InvalidIndex is the sentinel bit index returned for invalid masks.
const InvalidIndex = 255

// ErrInvalidMask is returned if a mask does not select exactly one of the 8 bits.
var ErrInvalidMask = errors.New("invalid bit mask")

// Index converts a single-bit mask into its bit index 0-7.
// Masks with no bit or more than one bit set return InvalidIndex and ErrInvalidMask.
func Index(mask byte) (int, error) {
	if mask == 0 || mask&(mask-1) != 0 {
		return InvalidIndex, ErrInvalidMask
	}

	i := 0
	for mask != 1 {
		mask >>= 1
		i++
	}
	return i, nil
}

// GrayToDecimal decodes a reflected binary (gray) code.
func GrayToDecimal(gray uint) uint {
	decimal := gray
	for gray >>= 1; gray != 0; gray >>= 1 {
		decimal ^= gray
	}
	return decimal
}

// DecimalToGray encodes v as reflected binary (gray) code.
func DecimalToGray(v uint) uint {
	return v ^ (v >> 1)
}
