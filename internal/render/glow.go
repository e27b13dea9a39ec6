package render

import (
	"image"
	"image/color"
	"image/draw"
)

// GlowOptions configures the halo produced from a stroke layer.
type GlowOptions struct {
	// Blur is the canvas-style blur amount. The box blur radius is half of it
	// and is applied Passes times, which approximates a gaussian.
	Blur    int
	Passes  int
	Color   color.Color
	Opacity float64
}

// DefaultGlowOptions returns the glow used by glowing ring styles.
func DefaultGlowOptions(c color.Color) GlowOptions {
	return GlowOptions{
		Blur:    15,
		Passes:  3,
		Color:   c,
		Opacity: 1,
	}
}

// Glow returns a new image the size of layer holding layer's alpha, blurred
// and tinted with opts.Color. The layer itself is left untouched, and the
// result is meant to be drawn underneath the original stroke. A nil result
// means there is nothing to draw.
func Glow(layer *image.RGBA, opts GlowOptions) *image.RGBA {
	if layer == nil || layer.Bounds().Empty() {
		return nil
	}
	if opts.Opacity <= 0 || opts.Color == nil {
		return nil
	}
	opacity := opts.Opacity
	if opacity > 1 {
		opacity = 1
	}
	radius := opts.Blur / 2
	if radius < 0 {
		radius = 0
	}
	passes := opts.Passes
	if passes < 1 {
		passes = 1
	}

	bounds := layer.Bounds()
	mask := image.NewAlpha(bounds.Sub(bounds.Min))
	lit := false
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			a := layer.RGBAAt(x, y).A
			if a == 0 {
				continue
			}
			lit = true
			mask.SetAlpha(x-bounds.Min.X, y-bounds.Min.Y, color.Alpha{A: a})
		}
	}
	if !lit {
		return nil
	}
	for i := 0; i < passes; i++ {
		mask = blurAlpha(mask, radius)
	}

	tint := color.NRGBAModel.Convert(opts.Color).(color.NRGBA)
	tint.A = uint8(opacity*255 + 0.5)

	// The mask must carry real alpha; a Gray mask reads as fully opaque.
	dst := image.NewRGBA(bounds)
	draw.DrawMask(dst, bounds, image.NewUniform(tint), image.Point{}, mask, image.Point{}, draw.Src)
	return dst
}

// blurAlpha is a separable box blur using per-line prefix sums.
func blurAlpha(src *image.Alpha, radius int) *image.Alpha {
	if radius <= 0 {
		out := image.NewAlpha(src.Bounds())
		copy(out.Pix, src.Pix)
		return out
	}
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	tmp := image.NewAlpha(bounds)
	dst := image.NewAlpha(bounds)

	prefix := make([]int, max(w, h)+1)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x, v := range row {
			prefix[x+1] = prefix[x] + int(v)
		}
		for x := 0; x < w; x++ {
			x0, x1 := window(x, radius, w)
			tmp.Pix[y*tmp.Stride+x] = uint8((prefix[x1+1] - prefix[x0]) / (x1 - x0 + 1))
		}
	}

	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			prefix[y+1] = prefix[y] + int(tmp.Pix[y*tmp.Stride+x])
		}
		for y := 0; y < h; y++ {
			y0, y1 := window(y, radius, h)
			dst.Pix[y*dst.Stride+x] = uint8((prefix[y1+1] - prefix[y0]) / (y1 - y0 + 1))
		}
	}
	return dst
}

func window(i, radius, n int) (int, int) {
	lo := i - radius
	if lo < 0 {
		lo = 0
	}
	hi := i + radius
	if hi >= n {
		hi = n - 1
	}
	return lo, hi
}
