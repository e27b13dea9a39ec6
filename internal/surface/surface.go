// Package surface provides the single drawing surface rings are composited
// onto. Access is exclusive: a render holds the surface for its whole
// duration and readers take a copy.
package surface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/fogleman/gg"
)

// Size is the side of the square surface in pixels.
const Size = 400

var (
	ErrClosed  = errors.New("drawing surface is closed")
	ErrBadSize = errors.New("invalid surface size")
)

// Surface is a square raster canvas.
type Surface struct {
	sem    chan struct{}
	size   int
	dc     *gg.Context
	closed bool
}

// New creates a surface of size×size. Nothing is allocated until the first
// Resize.
func New(size int) *Surface {
	if size <= 0 {
		size = Size
	}
	return &Surface{sem: make(chan struct{}, 1), size: size}
}

// Size returns the side length.
func (s *Surface) Size() int { return s.size }

// Handle is exclusive access to a Surface. It must be released.
type Handle struct {
	s        *Surface
	released bool
}

// Acquire waits for exclusive access or until ctx ends.
func (s *Surface) Acquire(ctx context.Context) (*Handle, error) {
	if s == nil {
		return nil, ErrClosed
	}
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.closed {
		<-s.sem
		return nil, ErrClosed
	}
	return &Handle{s: s}, nil
}

// Release gives the surface back. Calling it twice is harmless.
func (h *Handle) Release() {
	if h == nil || h.released {
		return
	}
	h.released = true
	<-h.s.sem
}

// Resize replaces the canvas with a fresh, fully transparent one. Every
// render starts here so nothing from a previous frame survives.
func (h *Handle) Resize(w, hgt int) (*gg.Context, error) {
	if w <= 0 || hgt <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, w, hgt)
	}
	h.s.dc = gg.NewContext(w, hgt)
	return h.s.dc, nil
}

// Snapshot copies the current pixels. A surface that was never drawn yields
// an all-zero image of the nominal size.
func (s *Surface) Snapshot(ctx context.Context) (*image.RGBA, error) {
	h, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Release()
	if s.dc == nil {
		return image.NewRGBA(image.Rect(0, 0, s.size, s.size)), nil
	}
	src := s.dc.Image()
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out, nil
}

// Close makes further Acquire calls fail.
func (s *Surface) Close(ctx context.Context) error {
	h, err := s.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return nil
		}
		return err
	}
	s.closed = true
	s.dc = nil
	h.Release()
	return nil
}
