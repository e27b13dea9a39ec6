package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/growthring/internal/goal"
	"github.com/example/growthring/internal/session"
)

const (
	lineHeight   = 18
	statusHeight = 2 * lineHeight
)

var (
	backdrop    = color.RGBA{0x1E, 0x1E, 0x24, 0xFF}
	statusBg    = color.RGBA{0x2B, 0x2B, 0x33, 0xFF}
	statusText  = color.RGBA{0xE8, 0xE8, 0xEE, 0xFF}
	warningText = color.RGBA{0xFF, 0xB4, 0x54, 0xFF}
)

type paintState struct {
	width, height int
	ring          *image.RGBA

	metric  goal.Metric
	style   goal.Style
	current float64
	target  float64
	live    float64
	status  session.Status

	message string
	errs    map[session.Stage]error
}

// summary is the first status line.
func (st paintState) summary() string {
	return fmt.Sprintf("%s | %s | %s / %s (%d%%) | %s",
		st.metric.Label, st.style.Label,
		st.metric.FormatValue(st.current), st.metric.FormatValue(st.target),
		goal.Rounded(st.live), st.status)
}

// detail is the second status line: an undismissed error, the last message
// or the key help, in that order.
func (st paintState) detail() (string, bool) {
	if len(st.errs) > 0 {
		stages := make([]string, 0, len(st.errs))
		for s := range st.errs {
			stages = append(stages, string(s))
		}
		sort.Strings(stages)
		first := session.Stage(stages[0])
		return fmt.Sprintf("%s failed: %v (r retry, x dismiss)", first, st.errs[first]), true
	}
	if st.message != "" {
		return st.message, false
	}
	return helpText, false
}

// ringRect centres the ring in the area above the status bar, scaled down
// when the window is smaller than the ring.
func ringRect(ring image.Rectangle, width, height int) image.Rectangle {
	avail := image.Rect(0, 0, width, height-statusHeight)
	w, h := ring.Dx(), ring.Dy()
	if w > avail.Dx() || h > avail.Dy() {
		scale := float64(avail.Dx()) / float64(w)
		if s := float64(avail.Dy()) / float64(h); s < scale {
			scale = s
		}
		w, h = int(float64(w)*scale), int(float64(h)*scale)
	}
	x := (avail.Dx() - w) / 2
	y := (avail.Dy() - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

// compose paints st into dst. It stops early when ctx is cancelled.
func compose(ctx context.Context, dst *image.RGBA, st paintState) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(backdrop), image.Point{}, draw.Src)
	if ctx.Err() != nil {
		return
	}

	if st.ring != nil {
		r := ringRect(st.ring.Bounds(), st.width, st.height)
		if r.Size() == st.ring.Bounds().Size() {
			draw.Draw(dst, r, st.ring, st.ring.Bounds().Min, draw.Over)
		} else {
			xdraw.ApproxBiLinear.Scale(dst, r, st.ring, st.ring.Bounds(), draw.Over, nil)
		}
	}
	if ctx.Err() != nil {
		return
	}

	bar := image.Rect(0, st.height-statusHeight, st.width, st.height)
	draw.Draw(dst, bar, image.NewUniform(statusBg), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: dst, Src: image.NewUniform(statusText), Face: basicfont.Face7x13}
	d.Dot = fixed.P(6, bar.Min.Y+lineHeight-5)
	d.DrawString(st.summary())

	line, warn := st.detail()
	if warn {
		d.Src = image.NewUniform(warningText)
	}
	d.Dot = fixed.P(6, bar.Min.Y+2*lineHeight-5)
	d.DrawString(line)
}
