package domain

import "fmt"

// Color is an RGB indicator color.
type Color struct {
	R, G, B uint8
}

// String returns the color as a hex triplet.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Feedback palette.
var (
	ColorError    = Color{255, 0, 0}
	ColorProgram  = Color{255, 0, 255}
	ColorTransmit = Color{0, 0, 255}
	ColorInfo     = Color{32, 64, 128}
	ColorSuccess  = Color{0, 255, 0}
	ColorOff      = Color{0, 0, 0}
)

// PixelCount is the number of indicator positions on the feedback surface.
const PixelCount = 10

// StatusPixel is the position used for the persistent storage warning.
const StatusPixel = 9
