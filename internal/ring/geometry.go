package ring

import (
	"math"

	"github.com/fogleman/gg"
)

const (
	clipInset   = 25
	ringInset   = 20
	strokeWidth = 10

	badgeRadius = 35

	percentOffset  = 10
	percentSize    = 28
	percentOutline = 6
	labelOffset    = 40
	labelSize      = 14
	labelOutline   = 3

	watermarkSize   = 12
	watermarkMargin = 10
)

// Geometry holds every position the compositor draws at. All of it is derived
// from the surface size.
type Geometry struct {
	Size        float64
	CX, CY      float64
	ClipRadius  float64
	RingRadius  float64
	StrokeWidth float64
	BadgeX      float64
	BadgeY      float64
	BadgeRadius float64
}

// NewGeometry lays out a size×size surface.
func NewGeometry(size int) Geometry {
	s := float64(size)
	g := Geometry{
		Size:        s,
		CX:          s / 2,
		CY:          s / 2,
		ClipRadius:  s/2 - clipInset,
		RingRadius:  s/2 - ringInset,
		StrokeWidth: strokeWidth,
		BadgeRadius: badgeRadius,
	}
	g.BadgeX = g.CX + g.RingRadius - badgeRadius
	g.BadgeY = g.CY - badgeRadius
	return g
}

// Sweep returns the arc start and end angles in radians for percent. The arc
// starts at 12 o'clock and runs clockwise.
func Sweep(percent float64) (start, end float64) {
	start = gg.Radians(-90)
	return start, start + gg.Radians(clampPercent(percent)/100*360)
}

func clampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
