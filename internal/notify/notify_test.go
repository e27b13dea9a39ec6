package notify

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/growthring/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
}

func capture(t *testing.T, err error) *[]sent {
	t.Helper()
	var got []sent
	orig := send
	send = func(title, body string, opts platform.Options) error {
		got = append(got, sent{title, body, opts})
		return err
	}
	t.Cleanup(func() { send = orig })
	return &got
}

func TestDisabledByDefault(t *testing.T) {
	got := capture(t, nil)
	n := New(DefaultPreferences(), nil)
	n.Exported("ring.png")
	n.Copied("ring.png")
	if len(*got) != 0 {
		t.Fatalf("expected no notifications, got %v", *got)
	}

	var nilNotifier *Notifier
	nilNotifier.Enable(EventCopy, true)
	nilNotifier.Copied("x")
	if len(*got) != 0 {
		t.Fatal("nil notifier sent something")
	}
}

func TestExportedUsesFileAsIcon(t *testing.T) {
	got := capture(t, nil)
	path := filepath.Join(t.TempDir(), "growth-ring-followers-42%-2025-06-01.png")
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	n := New(DefaultPreferences(), nil)
	n.Enable(EventExport, true)
	n.Exported(path)

	if len(*got) != 1 {
		t.Fatalf("expected one notification, got %d", len(*got))
	}
	s := (*got)[0]
	if s.title != "GrowthRing" || s.body != "Saved "+path {
		t.Fatalf("unexpected notification %+v", s)
	}
	if s.opts.IconPath != path {
		t.Fatalf("icon = %q want %q", s.opts.IconPath, path)
	}
}

func TestCopiedCustomTemplateAndErrors(t *testing.T) {
	got := capture(t, errors.New("no bus"))
	prefs := DefaultPreferences()
	prefs.Templates[EventCopy] = "Ring %s ready to paste"
	n := New(prefs, nil)
	n.Enable(EventCopy, true)
	n.Copied("")

	if len(*got) != 1 || (*got)[0].body != "Ring ring ready to paste" {
		t.Fatalf("unexpected notifications %+v", *got)
	}
	if DefaultPreferences().Templates[EventCopy] == prefs.Templates[EventCopy] {
		t.Fatal("defaults were mutated")
	}
}
