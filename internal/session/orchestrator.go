package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/growthring/internal/goal"
	"github.com/example/growthring/internal/logger"
	"github.com/example/growthring/internal/normalize"
	"github.com/example/growthring/internal/ring"
	"github.com/example/growthring/internal/surface"
)

// FrameInterval is how long the orchestrator waits after a trigger so that
// changes arriving together are drawn once.
const FrameInterval = 16 * time.Millisecond

// Status is the render state machine.
type Status int

const (
	StatusIdle Status = iota
	StatusRendering
	StatusRendered
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRendering:
		return "rendering"
	case StatusRendered:
		return "rendered"
	case StatusFailed:
		return "failed"
	}
	return "idle"
}

// Result is the outcome of one orchestrated render.
type Result struct {
	Status Status
	Report ring.Report
	Params ring.Params
	Err    error
}

// Renderer draws a ring onto a surface.
type Renderer interface {
	Render(ctx context.Context, surf *surface.Surface, p ring.Params) (ring.Report, error)
}

// Orchestrator re-renders whenever the image, settled progress, metric or
// style changes. Triggers are batched: at most one render is queued, and it
// reads the state as it is when it starts.
type Orchestrator struct {
	renderer Renderer
	surf     *surface.Surface
	log      *logger.Logger
	frame    time.Duration
	kick     chan struct{}

	mu         sync.Mutex
	state      ring.Params
	pending    bool
	busy       bool
	stopped    bool
	inProgress bool
	idle       chan struct{}
	last       Result
	onResult   func(Result)
}

// NewOrchestrator creates an Orchestrator drawing onto surf. Nothing renders
// until Run is started.
func NewOrchestrator(r Renderer, surf *surface.Surface, log *logger.Logger) *Orchestrator {
	idle := make(chan struct{})
	close(idle)
	return &Orchestrator{
		renderer: r,
		surf:     surf,
		log:      logger.OrNop(log).With("component", "orchestrator"),
		frame:    FrameInterval,
		kick:     make(chan struct{}, 1),
		idle:     idle,
		state:    ring.Params{Metric: goal.Followers, Style: goal.Classic},
	}
}

// OnResult registers fn to receive every Result. It is called from the
// render goroutine.
func (o *Orchestrator) OnResult(fn func(Result)) {
	o.mu.Lock()
	o.onResult = fn
	o.mu.Unlock()
}

func (o *Orchestrator) SetImage(img normalize.Image) {
	o.update(func(p *ring.Params) bool {
		if p.Image.DataURI() == img.DataURI() {
			return false
		}
		p.Image = img
		return true
	})
}

func (o *Orchestrator) SetProgress(percent float64) {
	o.update(func(p *ring.Params) bool {
		if p.Percent == percent {
			return false
		}
		p.Percent = percent
		return true
	})
}

func (o *Orchestrator) SetMetric(m goal.Metric) {
	o.update(func(p *ring.Params) bool {
		if p.Metric == m {
			return false
		}
		p.Metric = m
		return true
	})
}

func (o *Orchestrator) SetStyle(s goal.Style) {
	o.update(func(p *ring.Params) bool {
		if p.Style == s {
			return false
		}
		p.Style = s
		return true
	})
}

// Retry queues a render of the current state even if nothing changed.
func (o *Orchestrator) Retry() {
	o.update(func(*ring.Params) bool { return true })
}

// State returns the inputs the next render will use.
func (o *Orchestrator) State() ring.Params {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) update(apply func(*ring.Params) bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !apply(&o.state) || o.state.Image.IsZero() {
		return
	}
	o.pending = true
	// A stopped loop will not settle, so Flush must not wait for it.
	if !o.busy && !o.stopped {
		o.busy = true
		o.idle = make(chan struct{})
	}
	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// Run renders queued work until ctx ends.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	o.stopped = false
	if o.pending && !o.busy {
		o.busy = true
		o.idle = make(chan struct{})
	}
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.stopped = true
		o.mu.Unlock()
		o.settle(true)
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.kick:
		}

		timer := time.NewTimer(o.frame)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		select {
		case <-o.kick:
		default:
		}

		o.mu.Lock()
		o.pending = false
		p := o.state
		o.mu.Unlock()

		o.render(ctx, p)
		o.settle(false)
	}
}

// settle marks the orchestrator idle when nothing else is queued, or
// unconditionally when the loop is exiting.
func (o *Orchestrator) settle(force bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.busy || (o.pending && !force) {
		return
	}
	o.busy = false
	o.pending = false
	close(o.idle)
}

// render is the only place the in-progress flag changes. It is cleared on
// every exit, including panics.
func (o *Orchestrator) render(ctx context.Context, p ring.Params) (res Result) {
	o.mu.Lock()
	o.inProgress = true
	o.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			res = Result{Status: StatusFailed, Params: p, Err: fmt.Errorf("render panic: %v", r)}
		}
		o.mu.Lock()
		o.inProgress = false
		o.last = res
		fn := o.onResult
		o.mu.Unlock()
		if res.Err != nil {
			o.log.Warn("render failed", "error", res.Err)
		}
		if fn != nil {
			fn(res)
		}
	}()

	rep, err := o.renderer.Render(ctx, o.surf, p)
	if err != nil {
		return Result{Status: StatusFailed, Report: rep, Params: p, Err: err}
	}
	return Result{Status: StatusRendered, Report: rep, Params: p}
}

// Flush waits until no render is queued or running. Once Run has returned
// there is nothing to wait for.
func (o *Orchestrator) Flush(ctx context.Context) error {
	o.mu.Lock()
	idle := o.idle
	o.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status reports where the state machine is.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inProgress {
		return StatusRendering
	}
	return o.last.Status
}

// Last returns the most recent Result.
func (o *Orchestrator) Last() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}
