// Package preview shows a live ring in a window and maps key presses onto
// session edits, exports and retries.
package preview

import (
	"context"
	"image"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/growthring/internal/logger"
	"github.com/example/growthring/internal/session"
	"github.com/example/growthring/internal/surface"
)

// ProgramTitle is the window title prefix.
const ProgramTitle = "GrowthRing"

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

// Window is the interactive preview.
type Window struct {
	sess    *session.Session
	log     *logger.Logger
	title   string
	step    float64
	saveDir string
	err     error
}

// Option configures a Window.
type Option func(*Window)

// WithStep sets how much the arrow and page keys change a value.
func WithStep(step float64) Option { return func(w *Window) { w.step = step } }

// WithSaveDir sets where `e` saves rings.
func WithSaveDir(dir string) Option { return func(w *Window) { w.saveDir = dir } }

func WithLogger(l *logger.Logger) Option { return func(w *Window) { w.log = l } }

func WithTitle(title string) Option { return func(w *Window) { w.title = title } }

// New creates a Window driving sess. The window starts and stops the
// session's render loop itself.
func New(sess *session.Session, opts ...Option) *Window {
	w := &Window{sess: sess, title: ProgramTitle, step: 1, saveDir: "."}
	for _, o := range opts {
		o(w)
	}
	w.log = logger.OrNop(w.log).With("component", "preview")
	return w
}

// quitEvent asks the event loop to return.
type quitEvent struct{}

// Run executes the UI loop using shiny's driver. It returns when the window
// closes or ctx ends.
func (w *Window) Run(ctx context.Context) error {
	driver.Main(func(s screen.Screen) { w.err = w.Main(ctx, s) })
	return w.err
}

// Main runs the window on an existing screen.
func (w *Window) Main(ctx context.Context, s screen.Screen) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	width := surface.Size
	height := surface.Size + statusHeight
	win, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: w.title})
	if err != nil {
		return err
	}
	defer win.Release()

	ctrl := newController(w.sess, w.step, w.saveDir, w.log)

	var loops sync.WaitGroup
	loops.Add(3)
	go func() {
		defer loops.Done()
		_ = w.sess.Run(ctx)
	}()
	go func() {
		defer loops.Done()
		<-ctx.Done()
		win.Send(quitEvent{})
	}()
	defer loops.Wait()
	defer cancel()

	w.sess.OnResult(func(session.Result) { win.Send(paint.Event{}) })
	defer w.sess.OnResult(nil)

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	defer close(paintCh)
	go func() {
		defer loops.Done()
		for st := range paintCh {
			pctx, pcancel := context.WithCancel(ctx)
			paintMu.Lock()
			paintCancel = pcancel
			paintMu.Unlock()
			w.drawFrame(pctx, s, win, st)
			paintMu.Lock()
			paintCancel = nil
			if pctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			pcancel()
		}
	}()

	// Redraw when a message expires so it leaves the status bar.
	var expiry *time.Timer
	defer func() {
		if expiry != nil {
			expiry.Stop()
		}
	}()

	for {
		switch e := win.NextEvent().(type) {
		case quitEvent:
			return ctx.Err()
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return nil
			}
		case size.Event:
			width = e.WidthPx
			height = e.HeightPx
			win.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			offerLatest(paintCh, w.state(ctrl, width, height))
		case key.Event:
			a := actionFor(e)
			if a == ActionNone {
				continue
			}
			w.log.Debug("key action", "action", a.String())
			if ctrl.handle(ctx, a) {
				return nil
			}
			if expiry != nil {
				expiry.Stop()
			}
			expiry = time.AfterFunc(messageTTL, func() { win.Send(paint.Event{}) })
			win.Send(paint.Event{})
		case error:
			w.log.Error("window error", "error", e)
		}
	}
}

// offerLatest queues st on the one-slot channel, replacing whatever is still
// waiting there. The painter may take the old state at any moment, so the drain
// must not block. The event loop is the only sender.
func offerLatest(ch chan paintState, st paintState) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- st
}

func (w *Window) state(ctrl *controller, width, height int) paintState {
	cur, tgt := w.sess.Inputs()
	return paintState{
		width:   width,
		height:  height,
		metric:  w.sess.Metric(),
		style:   w.sess.Style(),
		current: cur,
		target:  tgt,
		live:    w.sess.LivePercent(),
		status:  w.sess.Status(),
		message: ctrl.currentMessage(),
		errs:    w.sess.Errors(),
	}
}

func (w *Window) drawFrame(ctx context.Context, s screen.Screen, win screen.Window, st paintState) {
	if st.width <= 0 || st.height <= 0 {
		return
	}
	ring, err := w.sess.Surface().Snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("snapshot failed", "error", err)
		}
		return
	}
	if !w.sess.Image().IsZero() {
		st.ring = ring
	}

	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		w.log.Error("new buffer", "error", err)
		return
	}
	defer b.Release()

	compose(ctx, b.RGBA(), st)
	if ctx.Err() != nil {
		return
	}
	win.Upload(image.Point{}, b, b.Bounds())
	win.Publish()
}
