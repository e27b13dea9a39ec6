package ring

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoSurface    = errors.New("drawing surface unavailable")
	ErrSurfaceSize  = errors.New("could not size drawing surface")
	ErrEmptyImage   = errors.New("no image to render")
	ErrImageTimeout = errors.New("image loading timed out")
	ErrImageDecode  = errors.New("image could not be decoded")
)

// StageError reports which drawing stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

// criticalStage failures abort the render.
type criticalStage struct {
	name string
	draw func(ctx context.Context, f *frame) error
}

func (s criticalStage) run(ctx context.Context, f *frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StageError{Stage: s.name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := s.draw(ctx, f); err != nil {
		return &StageError{Stage: s.name, Err: err}
	}
	return nil
}

// cosmeticStage failures are logged and recorded on the frame. They never
// reach the caller as an error.
type cosmeticStage struct {
	name string
	when func(f *frame) bool
	draw func(f *frame) error
}

func (s cosmeticStage) run(f *frame) {
	if s.when != nil && !s.when(f) {
		return
	}
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		err = s.draw(f)
	}()
	if err == nil {
		return
	}
	f.log.Warn("cosmetic stage failed", "stage", s.name, "error", err)
	f.warnings = append(f.warnings, &StageError{Stage: s.name, Err: err})
}
