// Package notify sends desktop notifications when a ring is exported.
package notify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/growthring/internal/logger"
	"github.com/example/growthring/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventExport fires when a ring is written to disk.
	EventExport Event = "export"
	// EventCopy fires when a ring is placed on the clipboard.
	EventCopy Event = "copy"
)

// Preferences holds the title and per-event message templates. Each template
// takes one %s.
type Preferences struct {
	Title     string
	Templates map[Event]string
	Timeout   time.Duration
}

// DefaultPreferences returns the built-in wording.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "GrowthRing",
		Templates: map[Event]string{
			EventExport: "Saved %s",
			EventCopy:   "Copied %s to the clipboard",
		},
		Timeout: 5 * time.Second,
	}
}

// send is swapped in tests.
var send = platform.Notify

// Notifier dispatches enabled events. A nil *Notifier does nothing.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	log     *logger.Logger
}

// New creates a Notifier with every event disabled.
func New(prefs Preferences, log *logger.Logger) *Notifier {
	templates := make(map[Event]string, len(prefs.Templates))
	for k, v := range prefs.Templates {
		templates[k] = v
	}
	prefs.Templates = templates
	return &Notifier{
		prefs:   prefs,
		enabled: make(map[Event]bool),
		log:     logger.OrNop(log).With("component", "notify"),
	}
}

// Enable switches an event on or off.
func (n *Notifier) Enable(event Event, on bool) {
	if n == nil {
		return
	}
	n.enabled[event] = on
}

// Enabled reports whether event will produce a notification.
func (n *Notifier) Enabled(event Event) bool {
	return n != nil && n.enabled[event]
}

// Exported announces a saved ring. The file doubles as the icon.
func (n *Notifier) Exported(path string) {
	if !n.Enabled(EventExport) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if abs, err := filepath.Abs(detail); err == nil {
		detail = abs
		if _, err := os.Stat(abs); err == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventExport, detail, opts)
}

// Copied announces a ring placed on the clipboard.
func (n *Notifier) Copied(name string) {
	if !n.Enabled(EventCopy) {
		return
	}
	if strings.TrimSpace(name) == "" {
		name = "ring"
	}
	n.dispatch(EventCopy, name, platform.Options{})
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	tmpl := strings.TrimSpace(n.prefs.Templates[event])
	if tmpl == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(tmpl, detail))
	if body == "" {
		return
	}
	opts.AppName = n.prefs.Title
	opts.Timeout = n.prefs.Timeout
	if err := send(n.prefs.Title, body, opts); err != nil {
		n.log.Warn("notification failed", "event", string(event), "error", err)
	}
}
