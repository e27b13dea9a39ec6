package goal

import (
	"errors"
	"fmt"
	"image/color"
	"math"
)

// MinAccentContrast is the minimum contrast ratio an accent colour must reach
// against both white and black overlay text.
const MinAccentContrast = 3.0

// ErrLowContrast is returned for an accent that fails MinAccentContrast.
var ErrLowContrast = errors.New("accent colour contrast too low")

func channel(v uint8) float64 {
	c := float64(v) / 255
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// Luminance returns the relative luminance of c as defined by WCAG 2.
func Luminance(c color.RGBA) float64 {
	return 0.2126*channel(c.R) + 0.7152*channel(c.G) + 0.0722*channel(c.B)
}

// ContrastRatio returns the WCAG contrast ratio between a and b (1 to 21).
func ContrastRatio(a, b color.RGBA) float64 {
	la := Luminance(a)
	lb := Luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

var (
	white = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	black = color.RGBA{0x00, 0x00, 0x00, 0xFF}
)

// ContrastWithText returns the contrast of c against white and black text.
func ContrastWithText(c color.RGBA) (vsWhite, vsBlack float64) {
	return ContrastRatio(c, white), ContrastRatio(c, black)
}

// CheckAccent verifies c against MinAccentContrast.
func CheckAccent(c color.RGBA) error {
	w, b := ContrastWithText(c)
	if w < MinAccentContrast || b < MinAccentContrast {
		return fmt.Errorf("%w: #%02X%02X%02X is %.2f:1 on white and %.2f:1 on black (need %.1f:1)",
			ErrLowContrast, c.R, c.G, c.B, w, b, MinAccentContrast)
	}
	return nil
}
