package preview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/growthring/internal/clipboard"
	"github.com/example/growthring/internal/export"
	"github.com/example/growthring/internal/logger"
	"github.com/example/growthring/internal/normalize"
	"github.com/example/growthring/internal/session"
)

// messageTTL is how long a status message stays in the status bar.
const messageTTL = 4 * time.Second

// controller applies actions to a session. It is only used from the window's
// event goroutine.
type controller struct {
	sess    *session.Session
	step    float64
	saveDir string
	log     *logger.Logger
	now     func() time.Time

	readClipboard func() ([]byte, error)

	lastUpload   normalize.File
	message      string
	messageUntil time.Time
}

func newController(sess *session.Session, step float64, saveDir string, log *logger.Logger) *controller {
	if step <= 0 {
		step = 1
	}
	return &controller{
		sess:          sess,
		step:          step,
		saveDir:       saveDir,
		log:           logger.OrNop(log),
		now:           time.Now,
		readClipboard: clipboard.ReadPNG,
	}
}

func (c *controller) say(format string, args ...interface{}) {
	c.message = fmt.Sprintf(format, args...)
	c.messageUntil = c.now().Add(messageTTL)
}

// currentMessage returns the status message if it has not expired.
func (c *controller) currentMessage() string {
	if c.message == "" || !c.now().Before(c.messageUntil) {
		return ""
	}
	return c.message
}

// handle runs a. It reports whether the window should close.
func (c *controller) handle(ctx context.Context, a Action) bool {
	switch a {
	case ActionCurrentUp, ActionCurrentDown:
		cur, _ := c.sess.Inputs()
		c.report(c.sess.SetCurrent(c.nudge(cur, a == ActionCurrentUp)))
	case ActionTargetUp, ActionTargetDown:
		_, tgt := c.sess.Inputs()
		c.report(c.sess.SetTarget(c.nudge(tgt, a == ActionTargetUp)))
	case ActionNextMetric:
		m := c.sess.NextMetric()
		c.say("Metric: %s", m.Label)
	case ActionNextStyle:
		s := c.sess.NextStyle()
		c.say("Style: %s", s.Label)
	case ActionPaste:
		c.paste(ctx)
	case ActionExport:
		c.export(ctx, export.DirSink{Dir: c.saveDir}, "Saved %s")
	case ActionCopy:
		c.export(ctx, export.ClipboardSink{}, "Copied %s to the clipboard")
	case ActionRetry:
		c.retry(ctx)
	case ActionDismiss:
		for stage := range c.sess.Errors() {
			c.sess.Dismiss(stage)
		}
		c.message = ""
	case ActionQuit:
		return true
	}
	return false
}

func (c *controller) nudge(v float64, up bool) float64 {
	if up {
		return v + c.step
	}
	return math.Max(0, v-c.step)
}

func (c *controller) report(err error) {
	if err != nil {
		c.say("%v", err)
	}
}

func (c *controller) paste(ctx context.Context) {
	data, err := c.readClipboard()
	if err != nil {
		c.log.Info("clipboard read failed", "error", err)
		c.say("Paste: %v", err)
		return
	}
	f := normalize.FromBytes("clipboard", data)
	c.lastUpload = f
	if err := c.sess.Upload(ctx, f); err != nil {
		c.say("Upload: %v", err)
		return
	}
	c.say("Pasted a new picture")
}

func (c *controller) export(ctx context.Context, sink export.Sink, done string) {
	where, err := c.sess.Export(ctx, sink)
	if err != nil {
		c.log.Warn("export failed", "error", err)
		c.say("Export: %v", err)
		return
	}
	c.say(done, where)
}

// retry re-runs whichever stage last failed, using the current state.
func (c *controller) retry(ctx context.Context) {
	errs := c.sess.Errors()
	if _, failed := errs[session.StageUpload]; failed && c.lastUpload != nil {
		if err := c.sess.Upload(ctx, c.lastUpload); err != nil {
			c.say("Upload: %v", err)
			return
		}
		c.say("Upload succeeded")
		return
	}
	if err := c.sess.Retry(); err != nil {
		if errors.Is(err, session.ErrNoImage) {
			c.say("Paste a picture with v first")
			return
		}
		c.say("Retry: %v", err)
		return
	}
	c.say("Rendering again")
}
