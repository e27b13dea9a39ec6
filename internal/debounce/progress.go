package debounce

import (
	"sync"
	"time"

	"github.com/example/growthring/internal/goal"
	"github.com/example/growthring/internal/metrics"
)

// DefaultDelay is the quiescence window for progress inputs.
const DefaultDelay = 300 * time.Millisecond

// Progress debounces the current and target values independently and
// combines the settled pair into a clamped percentage.
type Progress struct {
	current *Debouncer[float64]
	target  *Debouncer[float64]

	mu       sync.Mutex
	onChange func(float64)
	metrics  *metrics.Manager
}

// Option configures a Progress.
type Option func(*Progress)

// WithMetrics counts settled emissions on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(p *Progress) { p.metrics = m }
}

// NewProgress starts with the given settled inputs. onChange receives the
// recombined percentage whenever either input settles.
func NewProgress(delay time.Duration, current, target float64, onChange func(float64), opts ...Option) *Progress {
	if delay <= 0 {
		delay = DefaultDelay
	}
	p := &Progress{onChange: onChange}
	for _, o := range opts {
		o(p)
	}
	p.current = New(delay, current, func(float64) { p.settled() })
	p.target = New(delay, target, func(float64) { p.settled() })
	return p
}

// SetCurrent pushes a new current value.
func (p *Progress) SetCurrent(v float64) { p.current.Push(v) }

// SetTarget pushes a new target value.
func (p *Progress) SetTarget(v float64) { p.target.Push(v) }

// Inputs returns the settled current and target values.
func (p *Progress) Inputs() (current, target float64) {
	return p.current.Value(), p.target.Value()
}

// Percent returns the settled progress percentage.
func (p *Progress) Percent() float64 {
	return goal.Progress(p.current.Value(), p.target.Value())
}

// Flush settles both inputs now.
func (p *Progress) Flush() {
	p.current.Flush()
	p.target.Flush()
}

// Stop drops pending inputs.
func (p *Progress) Stop() {
	p.current.Stop()
	p.target.Stop()
}

func (p *Progress) settled() {
	p.metrics.DebounceEmitted()
	pct := p.Percent()
	p.mu.Lock()
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn(pct)
	}
}

// OnChange replaces the settled-percentage callback.
func (p *Progress) OnChange(fn func(float64)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}
