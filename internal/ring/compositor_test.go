package ring

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/growthring/internal/goal"
	"github.com/example/growthring/internal/logger"
	"github.com/example/growthring/internal/normalize"
	"github.com/example/growthring/internal/surface"
)

var gold = color.RGBA{R: 0xFF, G: 0xD7, B: 0x00, A: 0xFF}

func testImage(t *testing.T) normalize.Image {
	t.Helper()
	src := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			src.Set(x, y, color.RGBA{R: 20, G: 30, B: 90, A: 255})
		}
	}
	f, err := normalize.FromImage("avatar.png", src)
	require.NoError(t, err)
	img, err := normalize.New(nil).Normalize(context.Background(), f, 0)
	require.NoError(t, err)
	return img
}

func renderAt(t *testing.T, c *Compositor, p Params) (*image.RGBA, Report) {
	t.Helper()
	surf := surface.New(surface.Size)
	rep, err := c.Render(context.Background(), surf, p)
	require.NoError(t, err)
	snap, err := surf.Snapshot(context.Background())
	require.NoError(t, err)
	return snap, rep
}

// onCircle returns the pixel at angle degrees (clockwise from 3 o'clock) and
// radius r around the surface centre.
func onCircle(img *image.RGBA, deg, r float64) color.RGBA {
	g := NewGeometry(img.Bounds().Dx())
	a := deg * math.Pi / 180
	return img.RGBAAt(int(math.Round(g.CX+r*math.Cos(a))), int(math.Round(g.CY+r*math.Sin(a))))
}

func TestRenderBoundaries(t *testing.T) {
	c := New()
	img := testImage(t)
	for _, pct := range []float64{0, 0.4, 50, 99.6, 100} {
		for _, style := range goal.Styles() {
			snap, rep := renderAt(t, c, Params{Image: img, Percent: pct, Metric: goal.Followers, Style: style})
			assert.Empty(t, rep.Warnings, "percent %v style %s", pct, style.Key)
			assert.NotEqual(t, uuid.Nil, rep.ID)
			assert.NotZero(t, snap.RGBAAt(200, 100).A, "image not drawn for %v", pct)
		}
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	c := New()
	p := Params{Image: testImage(t), Percent: 42, Metric: goal.EngagementRate, Style: goal.GradientGlow}
	surf := surface.New(surface.Size)

	_, err := c.Render(context.Background(), surf, p)
	require.NoError(t, err)
	first, err := surf.Snapshot(context.Background())
	require.NoError(t, err)

	// Draw something different in between so stale pixels would show.
	_, err = c.Render(context.Background(), surf, Params{Image: p.Image, Percent: 100, Metric: goal.MonthlyTweets, Style: goal.Classic})
	require.NoError(t, err)

	_, err = c.Render(context.Background(), surf, p)
	require.NoError(t, err)
	second, err := surf.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Pix, second.Pix)
}

func TestBadgeGateUsesUnroundedPercent(t *testing.T) {
	c := New()
	img := testImage(t)
	g := NewGeometry(surface.Size)
	x, y := int(g.BadgeX), int(g.BadgeY-25)

	almost, rep := renderAt(t, c, Params{Image: img, Percent: 99.6, Metric: goal.Followers, Style: goal.Classic})
	assert.False(t, rep.Badge)
	assert.NotEqual(t, gold, almost.RGBAAt(x, y))

	done, rep := renderAt(t, c, Params{Image: img, Percent: 100, Metric: goal.Followers, Style: goal.Classic})
	assert.True(t, rep.Badge)
	assert.Equal(t, gold, done.RGBAAt(x, y))
}

func TestBadgeColoursConfigurable(t *testing.T) {
	silver := color.RGBA{R: 0xC0, G: 0xC0, B: 0xC0, A: 0xFF}
	c := New(WithBadge(Badge{Fill: silver, Outline: color.RGBA{A: 0xFF}}))
	g := NewGeometry(surface.Size)
	snap, _ := renderAt(t, c, Params{Image: testImage(t), Percent: 100, Metric: goal.Followers, Style: goal.Classic})
	assert.Equal(t, silver, snap.RGBAAt(int(g.BadgeX), int(g.BadgeY-25)))
}

func TestGradientDiffersFromFlatStroke(t *testing.T) {
	img := testImage(t)
	classic, _ := renderAt(t, New(), Params{Image: img, Percent: 100, Metric: goal.Followers, Style: goal.Classic})
	gradient, _ := renderAt(t, New(), Params{Image: img, Percent: 100, Metric: goal.Followers, Style: goal.GradientGlow})

	// bottom of the ring, well into the faded half of the gradient
	assert.NotEqual(t, onCircle(classic, 90, 180), onCircle(gradient, 90, 180))
	// the flat stroke is exactly the accent
	assert.Equal(t, goal.Followers.Accent, onCircle(classic, 90, 180))
}

func TestGlowStaysOnProgressArc(t *testing.T) {
	img := testImage(t)
	classic, _ := renderAt(t, New(), Params{Image: img, Percent: 25, Metric: goal.Followers, Style: goal.Classic})
	neon, _ := renderAt(t, New(), Params{Image: img, Percent: 25, Metric: goal.Followers, Style: goal.NeonPulse})

	// The arc covers 12 to 3 o'clock. Just outside it the glow is visible.
	assert.Zero(t, onCircle(classic, -45, 192).A)
	assert.NotZero(t, onCircle(neon, -45, 192).A)

	// The background ring on the far side and the text are untouched.
	assert.Equal(t, onCircle(classic, 135, 180), onCircle(neon, 135, 180))
	assert.Equal(t, classic.RGBAAt(200, 210), neon.RGBAAt(200, 210))
	assert.Equal(t, classic.RGBAAt(200, 240), neon.RGBAAt(200, 240))
}

func TestZeroProgressDrawsNoArc(t *testing.T) {
	img := testImage(t)
	zero, _ := renderAt(t, New(), Params{Image: img, Percent: 0, Metric: goal.Followers, Style: goal.NeonPulse})
	assert.Equal(t, onCircle(zero, -90, 180), onCircle(zero, 90, 180))
	assert.Zero(t, onCircle(zero, -90, 192).A)
}

func TestCriticalFailures(t *testing.T) {
	c := New()
	ctx := context.Background()

	_, err := c.Render(ctx, surface.New(10), Params{Metric: goal.Followers, Style: goal.Classic})
	assert.ErrorIs(t, err, ErrEmptyImage)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "decode", se.Stage)

	_, err = c.Render(ctx, nil, Params{Image: testImage(t), Metric: goal.Followers})
	assert.ErrorIs(t, err, ErrNoSurface)

	closed := surface.New(10)
	require.NoError(t, closed.Close(ctx))
	_, err = c.Render(ctx, closed, Params{Image: testImage(t), Metric: goal.Followers})
	assert.ErrorIs(t, err, ErrNoSurface)

	bad, err := normalize.ParseDataURI("data:image/jpeg;base64,aGVsbG8=")
	require.NoError(t, err)
	_, err = c.Render(ctx, surface.New(10), Params{Image: bad, Metric: goal.Followers})
	assert.ErrorIs(t, err, ErrImageDecode)

	_, err = c.Render(ctx, surface.New(surface.Size), Params{Image: testImage(t), Percent: 50, Metric: goal.Metric{Key: "x", Label: "X"}})
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "progress ring", se.Stage)
}

func TestDecodeTimeout(t *testing.T) {
	release := make(chan struct{})
	orig := decodeImage
	decodeImage = func([]byte) (image.Image, error) {
		<-release
		return nil, errors.New("too late")
	}
	t.Cleanup(func() {
		close(release)
		decodeImage = orig
	})

	c := New(WithDecodeTimeout(20 * time.Millisecond))
	_, err := c.Render(context.Background(), surface.New(surface.Size), Params{Image: testImage(t), Metric: goal.Followers})
	assert.ErrorIs(t, err, ErrImageTimeout)
	assert.EqualError(t, err, "decode: image loading timed out")
}

func TestCosmeticFailuresAreSwallowed(t *testing.T) {
	f := &frame{log: logger.Nop()}
	cosmeticStage{name: "boom", draw: func(*frame) error { panic("kaboom") }}.run(f)
	cosmeticStage{name: "err", draw: func(*frame) error { return errors.New("no font") }}.run(f)
	cosmeticStage{name: "skipped", when: func(*frame) bool { return false }, draw: func(*frame) error { return errors.New("never") }}.run(f)
	require.Len(t, f.warnings, 2)
	assert.Contains(t, f.warnings[0].Error(), "boom: panic: kaboom")
	assert.Equal(t, "err: no font", f.warnings[1].Error())
}

func TestCriticalPanicBecomesStageError(t *testing.T) {
	err := criticalStage{name: "image", draw: func(context.Context, *frame) error { panic("bad pixels") }}.run(context.Background(), &frame{})
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "image", se.Stage)
}

func TestLabelMissingIsCosmetic(t *testing.T) {
	c := New()
	_, rep := renderAt(t, c, Params{Image: testImage(t), Percent: 10, Metric: goal.Metric{Key: "x", Accent: goal.Followers.Accent}, Style: goal.Classic})
	require.Len(t, rep.Warnings, 1)
	var se *StageError
	require.True(t, errors.As(rep.Warnings[0], &se))
	assert.Equal(t, "label", se.Stage)
}

func TestSweep(t *testing.T) {
	start, end := Sweep(25)
	assert.InDelta(t, -math.Pi/2, start, 1e-9)
	assert.InDelta(t, 0, end, 1e-9)
	_, end = Sweep(150)
	assert.InDelta(t, 3*math.Pi/2, end, 1e-9)
	_, end = Sweep(math.NaN())
	assert.InDelta(t, -math.Pi/2, end, 1e-9)
}

func TestGlowKeepsPictureAndCorners(t *testing.T) {
	img := testImage(t)
	classic, _ := renderAt(t, New(), Params{Image: img, Percent: 25, Metric: goal.Followers, Style: goal.Classic})
	for _, style := range []goal.Style{goal.NeonPulse, goal.GradientGlow} {
		glowing, _ := renderAt(t, New(), Params{Image: img, Percent: 25, Metric: goal.Followers, Style: style})
		// inside the picture, far from the arc
		assert.Equal(t, classic.RGBAAt(150, 300), glowing.RGBAAt(150, 300), style.Key)
		// outside the clip nothing is painted
		assert.Zero(t, glowing.RGBAAt(2, 2).A, style.Key)
		assert.Zero(t, glowing.RGBAAt(2, 397).A, style.Key)
	}
}

// inkBounds returns the bounding boxes and counts of white and black pixels
// inside area.
func inkBounds(img *image.RGBA, area image.Rectangle) (white, black image.Rectangle, nWhite, nBlack int) {
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			c := img.RGBAAt(x, y)
			px := image.Rect(x, y, x+1, y+1)
			switch {
			case c.A > 230 && c.R > 230 && c.G > 230 && c.B > 230:
				white = white.Union(px)
				nWhite++
			case c.A > 200 && c.R < 30 && c.G < 30 && c.B < 30:
				black = black.Union(px)
				nBlack++
			}
		}
	}
	return white, black, nWhite, nBlack
}

func TestTextIsOutlinedBlackUnderWhite(t *testing.T) {
	snap, rep := renderAt(t, New(), Params{Image: testImage(t), Percent: 42, Metric: goal.Followers, Style: goal.Classic})
	require.Empty(t, rep.Warnings)
	g := NewGeometry(surface.Size)
	cx, cy := int(g.CX), int(g.CY)

	tests := []struct {
		name   string
		area   image.Rectangle
		spread int
	}{
		{"percentage", image.Rect(cx-70, cy+percentOffset-20, cx+70, cy+percentOffset+20), 2},
		{"label", image.Rect(cx-90, cy+labelOffset-12, cx+90, cy+labelOffset+12), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			white, black, nWhite, nBlack := inkBounds(snap, tt.area)
			require.NotZero(t, nWhite, "white fill missing")
			require.NotZero(t, nBlack, "black outline missing")
			// the outline reaches past the fill on every side
			assert.LessOrEqual(t, black.Min.X, white.Min.X-tt.spread)
			assert.GreaterOrEqual(t, black.Max.X, white.Max.X+tt.spread)
			assert.LessOrEqual(t, black.Min.Y, white.Min.Y-tt.spread)
			assert.GreaterOrEqual(t, black.Max.Y, white.Max.Y+tt.spread)
		})
	}
}

func TestOutlineKeepsFractionalWidth(t *testing.T) {
	require.NoError(t, loadFonts())
	blackFor := func(outline float64) int {
		dc := gg.NewContext(120, 60)
		ff, err := face(true, labelSize)
		require.NoError(t, err)
		dc.SetFontFace(ff)
		drawOutlinedText(dc, "GOAL", 60, 30, outline)
		_, _, _, n := inkBounds(dc.Image().(*image.RGBA), image.Rect(0, 0, 120, 60))
		return n
	}
	thin, label, thick := blackFor(2), blackFor(labelOutline), blackFor(percentOutline)
	assert.Greater(t, label, thin)
	assert.Greater(t, thick, label)
}
