// Package session holds the state behind one ring editor: the normalized
// picture, the raw and debounced inputs, the chosen metric and style, and the
// surface the ring is drawn on. It wires the debouncer into the render
// orchestrator and gates exports on the last render.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/growthring/internal/debounce"
	"github.com/example/growthring/internal/export"
	"github.com/example/growthring/internal/goal"
	"github.com/example/growthring/internal/logger"
	"github.com/example/growthring/internal/metrics"
	"github.com/example/growthring/internal/normalize"
	"github.com/example/growthring/internal/notify"
	"github.com/example/growthring/internal/palette"
	"github.com/example/growthring/internal/ring"
	"github.com/example/growthring/internal/surface"
)

// DefaultMaxUploadBytes is the upload ceiling applied before normalizing.
const DefaultMaxUploadBytes = 10 << 20

var (
	ErrUploadTooLarge = errors.New("image must be 10MB or smaller")
	ErrNoImage        = errors.New("upload an image first")
	ErrRenderFailed   = errors.New("the last render failed; retry before exporting")
)

// Stage names a place where a dismissible error is shown.
type Stage string

const (
	StageUpload  Stage = "upload"
	StagePreview Stage = "preview"
)

// Session is the state holder for one ring.
type Session struct {
	log        *logger.Logger
	metrics    *metrics.Manager
	notifier   *notify.Notifier
	palette    *palette.Palette
	normalizer *normalize.Normalizer
	surf       *surface.Surface
	orch       *Orchestrator
	progress   *debounce.Progress
	exporter   *export.Exporter

	maxUpload    int64
	maxDimension int
	delay        time.Duration
	renderer     Renderer
	ringOpts     []ring.Option
	clock        func() time.Time

	mu       sync.Mutex
	image    normalize.Image
	metric   goal.Metric
	style    goal.Style
	current  float64
	target   float64
	errs     map[Stage]error
	onResult func(Result)
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(l *logger.Logger) Option { return func(s *Session) { s.log = l } }

func WithMetrics(m *metrics.Manager) Option { return func(s *Session) { s.metrics = m } }

func WithNotifier(n *notify.Notifier) Option { return func(s *Session) { s.notifier = n } }

// WithPalette recolours metric accents and the badge.
func WithPalette(p *palette.Palette) Option { return func(s *Session) { s.palette = p } }

// WithRenderer replaces the default compositor.
func WithRenderer(r Renderer) Option { return func(s *Session) { s.renderer = r } }

// WithRingOptions configures the default compositor. Ignored with
// WithRenderer.
func WithRingOptions(opts ...ring.Option) Option {
	return func(s *Session) { s.ringOpts = append(s.ringOpts, opts...) }
}

func WithDebounce(d time.Duration) Option { return func(s *Session) { s.delay = d } }

func WithMaxUploadBytes(n int64) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithClock sets the clock used for export filenames.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.clock = now } }

// New creates a Session. Call Run to start rendering.
func New(opts ...Option) *Session {
	s := &Session{
		maxUpload:    DefaultMaxUploadBytes,
		maxDimension: normalize.DefaultMaxDimension,
		delay:        debounce.DefaultDelay,
		clock:        time.Now,
		metric:       goal.Followers,
		style:        goal.Classic,
		errs:         make(map[Stage]error),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = logger.OrNop(s.log).With("component", "session")
	if s.palette == nil {
		s.palette = palette.Default()
	}
	if s.renderer == nil {
		opts := []ring.Option{
			ring.WithLogger(s.log),
			ring.WithMetrics(s.metrics),
			ring.WithBadge(ring.Badge{Fill: s.palette.BadgeFill, Outline: s.palette.BadgeOutline}),
		}
		s.renderer = ring.New(append(opts, s.ringOpts...)...)
	}
	s.metric = s.palette.Apply(s.metric)
	s.normalizer = normalize.New(s.log)
	s.surf = surface.New(surface.Size)
	s.orch = NewOrchestrator(s.renderer, s.surf, s.log)
	s.orch.SetMetric(s.metric)
	s.orch.SetStyle(s.style)
	s.orch.OnResult(s.handleResult)
	s.progress = debounce.NewProgress(s.delay, 0, 0, s.orch.SetProgress, debounce.WithMetrics(s.metrics))
	s.exporter = export.New(
		export.WithLogger(s.log),
		export.WithMetrics(s.metrics),
		export.WithFlusher(s.orch),
		export.WithClock(s.clock),
	)
	return s
}

// Run drives rendering until ctx ends.
func (s *Session) Run(ctx context.Context) error { return s.orch.Run(ctx) }

// OnResult registers fn to be told about every render.
func (s *Session) OnResult(fn func(Result)) {
	s.mu.Lock()
	s.onResult = fn
	s.mu.Unlock()
}

func (s *Session) handleResult(r Result) {
	s.mu.Lock()
	if r.Err != nil {
		s.errs[StagePreview] = r.Err
	} else {
		delete(s.errs, StagePreview)
	}
	fn := s.onResult
	s.mu.Unlock()
	if fn != nil {
		fn(r)
	}
}

// Upload validates and normalizes f. On failure the previous picture and
// render are kept.
func (s *Session) Upload(ctx context.Context, f normalize.File) error {
	err := s.upload(ctx, f)
	s.mu.Lock()
	if err != nil {
		s.errs[StageUpload] = err
	} else {
		delete(s.errs, StageUpload)
	}
	s.mu.Unlock()
	return err
}

func (s *Session) upload(ctx context.Context, f normalize.File) error {
	if f == nil {
		return normalize.ErrEmptyFile
	}
	if f.Size() > s.maxUpload {
		return fmt.Errorf("%w: %s is %d bytes", ErrUploadTooLarge, f.Name(), f.Size())
	}
	img, err := s.normalizer.Normalize(ctx, f, s.maxDimension)
	s.metrics.ObserveNormalize(err)
	if err != nil {
		s.log.Info("upload rejected", "name", f.Name(), "error", err)
		return err
	}
	s.mu.Lock()
	s.image = img
	s.mu.Unlock()
	s.orch.SetImage(img)
	return nil
}

// Image returns the current normalized picture.
func (s *Session) Image() normalize.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// SetCurrent records a new current value. It reaches the ring once it has
// been stable for the debounce window.
func (s *Session) SetCurrent(v float64) error {
	if v < 0 {
		return fmt.Errorf("current: %w", goal.ErrNegativeValue)
	}
	s.mu.Lock()
	s.current = v
	s.mu.Unlock()
	s.progress.SetCurrent(v)
	return nil
}

// SetTarget records a new target value. A zero target is accepted and shows
// as 0% progress.
func (s *Session) SetTarget(v float64) error {
	if v < 0 {
		return fmt.Errorf("target: %w", goal.ErrNegativeValue)
	}
	s.mu.Lock()
	s.target = v
	s.mu.Unlock()
	s.progress.SetTarget(v)
	return nil
}

// Inputs returns the raw current and target values.
func (s *Session) Inputs() (current, target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.target
}

// LivePercent is the undebounced progress, for showing next to the inputs.
func (s *Session) LivePercent() float64 {
	cur, tgt := s.Inputs()
	return goal.Progress(cur, tgt)
}

// Percent is the debounced progress the ring is drawn with.
func (s *Session) Percent() float64 { return s.progress.Percent() }

// Commit settles pending inputs now instead of waiting for the window.
func (s *Session) Commit() { s.progress.Flush() }

// SetMetric selects a metric, recoloured by the session palette.
func (s *Session) SetMetric(m goal.Metric) {
	m = s.palette.Apply(m)
	s.mu.Lock()
	s.metric = m
	s.mu.Unlock()
	s.orch.SetMetric(m)
}

func (s *Session) Metric() goal.Metric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metric
}

func (s *Session) SetStyle(st goal.Style) {
	s.mu.Lock()
	s.style = st
	s.mu.Unlock()
	s.orch.SetStyle(st)
}

func (s *Session) Style() goal.Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.style
}

// NextMetric cycles to the following metric.
func (s *Session) NextMetric() goal.Metric {
	next := s.Metric().Next()
	s.SetMetric(next)
	return s.Metric()
}

// NextStyle cycles to the following style.
func (s *Session) NextStyle() goal.Style {
	next := s.Style().Next()
	s.SetStyle(next)
	return next
}

// Flush waits for queued renders to finish.
func (s *Session) Flush(ctx context.Context) error { return s.orch.Flush(ctx) }

func (s *Session) Status() Status { return s.orch.Status() }

func (s *Session) Last() Result { return s.orch.Last() }

// Surface is the surface rings are drawn on.
func (s *Session) Surface() *surface.Surface { return s.surf }

// Retry re-renders the current state.
func (s *Session) Retry() error {
	if s.Image().IsZero() {
		return ErrNoImage
	}
	s.orch.Retry()
	return nil
}

// Errors returns the undismissed error for each stage.
func (s *Session) Errors() map[Stage]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Stage]error, len(s.errs))
	for k, v := range s.errs {
		out[k] = v
	}
	return out
}

// Dismiss hides the error shown for stage.
func (s *Session) Dismiss(stage Stage) {
	s.mu.Lock()
	delete(s.errs, stage)
	s.mu.Unlock()
}

// Export waits for pending renders, then encodes the surface and sends it to
// sink. It refuses when the last render failed.
func (s *Session) Export(ctx context.Context, sink export.Sink) (string, error) {
	if err := s.orch.Flush(ctx); err != nil {
		return "", err
	}
	last := s.orch.Last()
	if last.Status == StatusFailed {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, last.Err)
	}
	a, err := s.exporter.Export(ctx, s.surf, export.Parts{
		Metric:  last.Params.Metric.Key,
		Percent: last.Report.Percent,
	})
	if err != nil {
		return "", err
	}
	where, err := s.exporter.Emit(ctx, a, sink)
	if err != nil {
		return "", err
	}
	switch sink.(type) {
	case export.DirSink, *export.DirSink:
		s.notifier.Exported(where)
	case export.ClipboardSink, *export.ClipboardSink:
		s.notifier.Copied(a.Filename)
	}
	return where, nil
}

// Close stops pending input timers and releases the surface.
func (s *Session) Close(ctx context.Context) error {
	s.progress.Stop()
	return s.surf.Close(ctx)
}
