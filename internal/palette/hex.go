package palette

import (
	"fmt"
	"image/color"
)

// ParseHex converts a "#RRGGBB" string into a color.RGBA. Malformed
// values fall back to the default gray.
func ParseHex(s string) color.RGBA {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
