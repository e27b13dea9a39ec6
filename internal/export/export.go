// Package export validates a rendered surface, encodes it as PNG and hands it
// to a sink.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"runtime"
	"time"

	"github.com/example/growthring/internal/logger"
	"github.com/example/growthring/internal/metrics"
)

// MinEncodedBytes is the smallest encoding accepted as a real image.
const MinEncodedBytes = 100

var (
	ErrEmptyCanvas   = errors.New("canvas is empty: nothing has been rendered yet")
	ErrEncodingEmpty = errors.New("image encoding produced no usable data")
	ErrExportFailed  = errors.New("export failed")
)

// Snapshotter gives read access to the rendered pixels.
type Snapshotter interface {
	Snapshot(ctx context.Context) (*image.RGBA, error)
}

// Flusher waits until pending paints have landed on the surface.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Artifact is an encoded ring ready to be emitted.
type Artifact struct {
	Filename string
	Data     []byte
	Width    int
	Height   int
}

// Exporter turns a surface into Artifacts.
type Exporter struct {
	log     *logger.Logger
	metrics *metrics.Manager
	flusher Flusher
	now     func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

func WithLogger(l *logger.Logger) Option { return func(e *Exporter) { e.log = l } }

func WithMetrics(m *metrics.Manager) Option { return func(e *Exporter) { e.metrics = m } }

// WithFlusher makes Export wait on f before reading pixels.
func WithFlusher(f Flusher) Option { return func(e *Exporter) { e.flusher = f } }

// WithClock overrides the date used in filenames.
func WithClock(now func() time.Time) Option { return func(e *Exporter) { e.now = now } }

// New creates an Exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{now: time.Now}
	for _, o := range opts {
		o(e)
	}
	e.log = logger.OrNop(e.log).With("component", "export")
	return e
}

// Export waits for pending paints, reads the surface back, and encodes it
// losslessly.
func (e *Exporter) Export(ctx context.Context, surf Snapshotter, parts Parts) (a Artifact, err error) {
	defer func() {
		if err != nil {
			e.metrics.ObserveExport(err)
		}
	}()
	if e.flusher != nil {
		if err := e.flusher.Flush(ctx); err != nil {
			return Artifact{}, err
		}
	} else {
		runtime.Gosched()
	}
	if surf == nil {
		return Artifact{}, ErrEmptyCanvas
	}
	img, err := surf.Snapshot(ctx)
	if err != nil {
		return Artifact{}, fmt.Errorf("read surface: %w", err)
	}
	if img == nil || !hasContent(img.Pix) {
		return Artifact{}, ErrEmptyCanvas
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrEncodingEmpty, err)
	}
	if buf.Len() < MinEncodedBytes {
		return Artifact{}, fmt.Errorf("%w: %d bytes", ErrEncodingEmpty, buf.Len())
	}

	if parts.Date.IsZero() {
		parts.Date = e.now()
	}
	a = Artifact{
		Filename: Filename(parts),
		Data:     buf.Bytes(),
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
	}
	e.log.Debug("encoded ring", "filename", a.Filename, "bytes", len(a.Data))
	return a, nil
}

// Emit hands a to sink. Sink errors and panics are reported as
// ErrExportFailed. The returned string says where the artifact went.
func (e *Exporter) Emit(ctx context.Context, a Artifact, sink Sink) (where string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrExportFailed, r)
		}
		e.metrics.ObserveExport(err)
		if err != nil {
			e.log.Error("export failed", "filename", a.Filename, "error", err)
		} else {
			e.log.Info("exported ring", "filename", a.Filename, "to", where)
		}
	}()
	if sink == nil {
		return "", fmt.Errorf("%w: no destination", ErrExportFailed)
	}
	if len(a.Data) == 0 {
		return "", ErrEncodingEmpty
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	where, err = sink.Save(ctx, a)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return where, nil
}

func hasContent(pix []byte) bool {
	for _, b := range pix {
		if b != 0 {
			return true
		}
	}
	return false
}
