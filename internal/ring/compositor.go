// Package ring composites a progress ring over a profile picture.
//
// A render runs two kinds of stage. Critical stages (decoding the picture,
// acquiring and sizing the surface, drawing the picture and both rings) abort
// the render with a *StageError. Cosmetic stages (percentage, label, badge,
// watermark) only log and record a warning, so a ring is still produced when
// they fail.
package ring

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/example/growthring/internal/goal"
	"github.com/example/growthring/internal/logger"
	"github.com/example/growthring/internal/metrics"
	"github.com/example/growthring/internal/normalize"
	"github.com/example/growthring/internal/render"
	"github.com/example/growthring/internal/surface"
)

const (
	// DefaultDecodeTimeout bounds decoding the normalized picture.
	DefaultDecodeTimeout = 10 * time.Second
	// DefaultWatermark is drawn in the bottom-right corner.
	DefaultWatermark = "growth-ring"
)

var backgroundRing = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0x4D}

// decodeImage is swapped in tests.
var decodeImage = func(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// Params are the inputs of one render.
type Params struct {
	Image   normalize.Image
	Percent float64
	Metric  goal.Metric
	Style   goal.Style
}

// Report describes a completed render.
type Report struct {
	ID       uuid.UUID
	Percent  float64
	Badge    bool
	Warnings []error
	Duration time.Duration
}

// Compositor draws rings onto a surface.
type Compositor struct {
	log           *logger.Logger
	metrics       *metrics.Manager
	watermark     string
	decodeTimeout time.Duration
	badge         Badge
	decoder       func([]byte) (image.Image, error)
	critical      []criticalStage
	cosmetic      []cosmeticStage
}

// Option configures a Compositor.
type Option func(*Compositor)

func WithLogger(l *logger.Logger) Option { return func(c *Compositor) { c.log = l } }

func WithMetrics(m *metrics.Manager) Option { return func(c *Compositor) { c.metrics = m } }

// WithWatermark sets the watermark text. An empty string disables it.
func WithWatermark(s string) Option { return func(c *Compositor) { c.watermark = s } }

func WithDecodeTimeout(d time.Duration) Option {
	return func(c *Compositor) {
		if d > 0 {
			c.decodeTimeout = d
		}
	}
}

func WithBadge(b Badge) Option {
	return func(c *Compositor) {
		if b.Fill != nil && b.Outline != nil {
			c.badge = b
		}
	}
}

// New creates a Compositor.
func New(opts ...Option) *Compositor {
	c := &Compositor{
		watermark:     DefaultWatermark,
		decodeTimeout: DefaultDecodeTimeout,
		badge:         DefaultBadge(),
		decoder:       decodeImage,
	}
	for _, o := range opts {
		o(c)
	}
	c.log = logger.OrNop(c.log).With("component", "ring")
	c.critical = []criticalStage{
		{name: "decode", draw: c.decode},
		{name: "surface", draw: acquire},
		{name: "dimensions", draw: resize},
		{name: "image", draw: drawImage},
		{name: "background ring", draw: drawBackgroundRing},
		{name: "progress ring", draw: c.drawProgressRing},
	}
	c.cosmetic = []cosmeticStage{
		{name: "percentage", draw: drawPercentage},
		{name: "label", draw: drawLabel},
		{name: "badge", when: achieved, draw: c.drawBadge},
		{name: "watermark", when: c.hasWatermark, draw: c.drawWatermark},
	}
	return c
}

type frame struct {
	params Params
	surf   *surface.Surface
	handle *surface.Handle
	dc     *gg.Context
	geo    Geometry
	src    image.Image
	log    *logger.Logger

	warnings []error
}

// Render draws p onto surf. The surface is resized, and therefore cleared,
// before anything is drawn. A non-nil error is always a *StageError from a
// critical stage; cosmetic failures are returned in Report.Warnings.
func (c *Compositor) Render(ctx context.Context, surf *surface.Surface, p Params) (rep Report, err error) {
	rep.ID = uuid.New()
	rep.Percent = clampPercent(p.Percent)
	start := time.Now()
	c.metrics.RenderStarted()
	f := &frame{params: p, surf: surf, log: c.log.With("render", rep.ID.String())}
	f.params.Percent = rep.Percent
	defer func() {
		f.handle.Release()
		rep.Duration = time.Since(start)
		rep.Warnings = f.warnings
		c.metrics.ObserveRender(rep.Duration, err)
		if err != nil {
			f.log.Error("render failed", "error", err, "duration", rep.Duration)
			return
		}
		f.log.Debug("render finished", "percent", rep.Percent, "style", p.Style.Key,
			"metric", p.Metric.Key, "warnings", len(rep.Warnings), "duration", rep.Duration)
	}()

	for _, st := range c.critical {
		if err := st.run(ctx, f); err != nil {
			return rep, err
		}
	}
	for _, st := range c.cosmetic {
		st.run(f)
	}
	rep.Badge = achieved(f)
	return rep, nil
}

// decode turns the data URI back into pixels, racing a timer.
func (c *Compositor) decode(ctx context.Context, f *frame) error {
	if f.params.Image.IsZero() {
		return ErrEmptyImage
	}
	_, data, err := f.params.Image.Payload()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	type result struct {
		img image.Image
		err error
	}
	done := make(chan result, 1)
	decoder := c.decoder
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		img, err := decoder(data)
		done <- result{img: img, err: err}
	}()

	timer := time.NewTimer(c.decodeTimeout)
	defer timer.Stop()
	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("%w: %v", ErrImageDecode, r.err)
		}
		if r.img == nil || r.img.Bounds().Empty() {
			return ErrImageDecode
		}
		f.src = r.img
		return nil
	case <-timer.C:
		return ErrImageTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func acquire(ctx context.Context, f *frame) error {
	if f.surf == nil {
		return ErrNoSurface
	}
	h, err := f.surf.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoSurface, err)
	}
	f.handle = h
	return nil
}

func resize(_ context.Context, f *frame) error {
	size := f.surf.Size()
	dc, err := f.handle.Resize(size, size)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceSize, err)
	}
	f.dc = dc
	f.geo = NewGeometry(size)
	return nil
}

// drawImage stretches the picture over the whole surface inside the circular
// clip.
func drawImage(_ context.Context, f *frame) error {
	size := int(f.geo.Size)
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), f.src, f.src.Bounds(), xdraw.Src, nil)

	dc := f.dc
	dc.Push()
	defer dc.Pop()
	dc.NewSubPath()
	dc.DrawCircle(f.geo.CX, f.geo.CY, f.geo.ClipRadius)
	dc.Clip()
	dc.DrawImage(scaled, 0, 0)
	dc.ResetClip()
	return nil
}

func drawBackgroundRing(_ context.Context, f *frame) error {
	dc := f.dc
	dc.Push()
	defer dc.Pop()
	dc.NewSubPath()
	dc.DrawCircle(f.geo.CX, f.geo.CY, f.geo.RingRadius)
	dc.SetColor(backgroundRing)
	dc.SetLineWidth(f.geo.StrokeWidth)
	dc.Stroke()
	return nil
}

func (c *Compositor) drawProgressRing(_ context.Context, f *frame) error {
	if f.params.Percent <= 0 {
		return nil
	}
	accent := f.params.Metric.Accent
	if accent.A == 0 {
		return fmt.Errorf("metric %q has no accent colour", f.params.Metric.Key)
	}
	start, end := Sweep(f.params.Percent)

	stroke := func(dc *gg.Context) {
		dc.NewSubPath()
		dc.DrawArc(f.geo.CX, f.geo.CY, f.geo.RingRadius, start, end)
		dc.SetLineWidth(f.geo.StrokeWidth)
		dc.SetLineCapRound()
		if f.params.Style.UsesGradient {
			dc.SetStrokeStyle(accentGradient(f.geo.Size, accent))
		} else {
			dc.SetColor(accent)
		}
		dc.Stroke()
	}

	if f.params.Style.HasGlow {
		// The glow lives on its own layer so nothing drawn before or after
		// the arc picks it up.
		size := int(f.geo.Size)
		layer := gg.NewContext(size, size)
		stroke(layer)
		rgba, ok := layer.Image().(*image.RGBA)
		if !ok {
			return fmt.Errorf("unexpected layer type %T", layer.Image())
		}
		if halo := render.Glow(rgba, render.DefaultGlowOptions(accent)); halo != nil {
			f.dc.DrawImage(halo, 0, 0)
		}
	}

	f.dc.Push()
	defer f.dc.Pop()
	stroke(f.dc)
	return nil
}

// accentGradient runs diagonally across the surface from the accent at full
// opacity to the accent at 40%.
func accentGradient(size float64, accent color.RGBA) gg.Gradient {
	g := gg.NewLinearGradient(0, 0, size, size)
	g.AddColorStop(0, color.NRGBA{R: accent.R, G: accent.G, B: accent.B, A: 0xFF})
	g.AddColorStop(1, color.NRGBA{R: accent.R, G: accent.G, B: accent.B, A: 0x66})
	return g
}

func drawPercentage(f *frame) error {
	ff, err := face(true, percentSize)
	if err != nil {
		return err
	}
	f.dc.Push()
	defer f.dc.Pop()
	f.dc.SetFontFace(ff)
	text := fmt.Sprintf("%d%%", goal.Rounded(f.params.Percent))
	drawOutlinedText(f.dc, text, f.geo.CX, f.geo.CY+percentOffset, percentOutline)
	return nil
}

func drawLabel(f *frame) error {
	label := f.params.Metric.UpperLabel()
	if label == "" {
		return fmt.Errorf("metric %q has no label", f.params.Metric.Key)
	}
	ff, err := face(true, labelSize)
	if err != nil {
		return err
	}
	f.dc.Push()
	defer f.dc.Pop()
	f.dc.SetFontFace(ff)
	drawOutlinedText(f.dc, label, f.geo.CX, f.geo.CY+labelOffset, labelOutline)
	return nil
}

// achieved gates the badge on the unrounded percentage.
func achieved(f *frame) bool { return goal.Achieved(f.params.Percent) }

func (c *Compositor) drawBadge(f *frame) error {
	drawBadge(f.dc, f.geo, c.badge)
	return nil
}

func (c *Compositor) hasWatermark(*frame) bool { return c.watermark != "" }

func (c *Compositor) drawWatermark(f *frame) error {
	ff, err := face(false, watermarkSize)
	if err != nil {
		return err
	}
	f.dc.Push()
	defer f.dc.Pop()
	f.dc.SetFontFace(ff)
	f.dc.SetColor(color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0x99})
	f.dc.DrawStringAnchored(c.watermark, f.geo.Size-watermarkMargin, f.geo.Size-watermarkMargin, 1, 0)
	return nil
}
