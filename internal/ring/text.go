package ring

import (
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontsOnce sync.Once
	boldFont  *truetype.Font
	plainFont *truetype.Font
	fontErr   error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		boldFont, fontErr = truetype.Parse(gobold.TTF)
		if fontErr != nil {
			fontErr = fmt.Errorf("parse bold font: %w", fontErr)
			return
		}
		plainFont, fontErr = truetype.Parse(goregular.TTF)
		if fontErr != nil {
			fontErr = fmt.Errorf("parse regular font: %w", fontErr)
		}
	})
	return fontErr
}

// face builds a new face on every call; faces keep glyph caches and are not
// safe to share between goroutines.
func face(bold bool, size float64) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	f := plainFont
	if bold {
		f = boldFont
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

// drawOutlinedText draws s centred on (x, y): a black outline of the given
// width first, then the white fill on top. The outline is stamped around two
// rings so fractional half widths such as 1.5px are kept.
func drawOutlinedText(dc *gg.Context, s string, x, y, outline float64) {
	r := outline / 2
	dc.SetColor(color.Black)
	if r > 0 {
		for _, band := range []struct {
			radius float64
			steps  int
		}{{r, 16}, {r / 2, 8}} {
			for i := 0; i < band.steps; i++ {
				a := 2 * math.Pi * float64(i) / float64(band.steps)
				dc.DrawStringAnchored(s, x+band.radius*math.Cos(a), y+band.radius*math.Sin(a), 0.5, 0.5)
			}
		}
	}
	dc.SetColor(color.White)
	dc.DrawStringAnchored(s, x, y, 0.5, 0.5)
}
