package ring

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// Badge colours for the achievement badge.
type Badge struct {
	Fill    color.Color
	Outline color.Color
}

// DefaultBadge is gold with a dark orange rim.
func DefaultBadge() Badge {
	return Badge{
		Fill:    color.RGBA{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF},
		Outline: color.RGBA{R: 0xFF, G: 0x8C, B: 0x00, A: 0xFF},
	}
}

func drawBadge(dc *gg.Context, g Geometry, b Badge) {
	dc.Push()
	defer dc.Pop()

	dc.NewSubPath()
	dc.DrawCircle(g.BadgeX, g.BadgeY, g.BadgeRadius)
	dc.SetColor(b.Fill)
	dc.FillPreserve()
	dc.SetColor(b.Outline)
	dc.SetLineWidth(3)
	dc.Stroke()

	drawTrophy(dc, g.BadgeX, g.BadgeY, g.BadgeRadius*0.4, b.Outline)
}

// drawTrophy draws a cup on a stem and base, centred on (x, y) and roughly
// 2s wide.
func drawTrophy(dc *gg.Context, x, y, s float64, c color.Color) {
	dc.SetColor(c)

	// bowl
	top := y - s*0.8
	dc.NewSubPath()
	dc.MoveTo(x-s*0.7, top)
	dc.LineTo(x+s*0.7, top)
	dc.DrawArc(x, top, s*0.7, 0, math.Pi)
	dc.ClosePath()
	dc.Fill()

	// handles
	dc.SetLineWidth(math.Max(1.5, s*0.15))
	dc.NewSubPath()
	dc.DrawArc(x-s*0.7, top+s*0.3, s*0.3, math.Pi/2, 3*math.Pi/2)
	dc.Stroke()
	dc.NewSubPath()
	dc.DrawArc(x+s*0.7, top+s*0.3, s*0.3, -math.Pi/2, math.Pi/2)
	dc.Stroke()

	// stem and base
	dc.DrawRectangle(x-s*0.12, top+s*0.7, s*0.24, s*0.55)
	dc.Fill()
	dc.DrawRoundedRectangle(x-s*0.5, top+s*1.2, s, s*0.25, s*0.08)
	dc.Fill()
}
