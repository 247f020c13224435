package util

import (
	"fmt"
)

// ParseHexColor turns a "0xRRGGBB" config string into a discord embed color.
// Falls back to the given default on empty or malformed input.
func ParseHexColor(color string, fallback int) int {
	if color == "" {
		return fallback
	}
	var parsed int
	if _, err := fmt.Sscanf(color, "0x%x", &parsed); err != nil {
		return fallback
	}
	return parsed
}
