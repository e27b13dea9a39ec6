package palette

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/growthring/internal/goal"
)

func TestParse(t *testing.T) {
	input := `
// custom accents
Name: Ocean
Followers: #0066CC
tweets: #C026D3
BadgeFill: gold
Unknown: #123456
`
	p, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Name != "Ocean" {
		t.Errorf("expected name Ocean, got %q", p.Name)
	}
	if p.Followers != (color.RGBA{0x00, 0x66, 0xCC, 0xFF}) {
		t.Errorf("unexpected Followers colour: %+v", p.Followers)
	}
	if p.Tweets != (color.RGBA{0xC0, 0x26, 0xD3, 0xFF}) {
		t.Errorf("unexpected Tweets colour: %+v", p.Tweets)
	}
	if p.Engagement != goal.EngagementRate.Accent {
		t.Errorf("expected default Engagement colour, got %+v", p.Engagement)
	}
	if p.BadgeFill != (color.RGBA{0xFF, 0xD7, 0x00, 0xFF}) {
		t.Errorf("unexpected badge fill: %+v", p.BadgeFill)
	}
}

func TestParseRejectsLowContrastAccent(t *testing.T) {
	_, err := Parse(strings.NewReader("Followers: #FFFF00\n"))
	if !errors.Is(err, goal.ErrLowContrast) {
		t.Fatalf("expected ErrLowContrast, got %v", err)
	}
}

func TestParseRejectsBadColor(t *testing.T) {
	_, err := Parse(strings.NewReader("Followers: 0066CC\n"))
	if err == nil || !strings.Contains(err.Error(), "Followers") {
		t.Fatalf("expected error naming the key, got %v", err)
	}
}

func TestEmbeddedPalettesAreValid(t *testing.T) {
	l := &Loader{}
	names := Embedded()
	if len(names) == 0 {
		t.Fatal("expected embedded palettes")
	}
	for _, name := range names {
		if _, err := l.Load(name); err != nil {
			t.Errorf("embedded palette %s: %v", name, err)
		}
	}
}

func TestLoaderSearchOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mine.palette"), []byte("Name: Mine\nFollowers: #0066CC\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &Loader{ConfigDir: dir}

	p, err := l.Load("mine")
	if err != nil {
		t.Fatalf("load from config dir: %v", err)
	}
	if p.Name != "Mine" {
		t.Errorf("expected Mine, got %q", p.Name)
	}

	p, err = l.Load(filepath.Join(dir, "mine.palette"))
	if err != nil || p.Name != "Mine" {
		t.Fatalf("load by path: %v %+v", err, p)
	}

	if p, err := l.Load(""); err != nil || p.Name != "Default" {
		t.Fatalf("expected default palette, got %+v %v", p, err)
	}

	if _, err := l.Load("missing"); err == nil {
		t.Fatal("expected error for missing palette")
	}
}

func TestApply(t *testing.T) {
	p := Default()
	p.Followers = color.RGBA{0x00, 0x66, 0xCC, 0xFF}
	m := p.Apply(goal.Followers)
	if m.Accent != p.Followers || m.Key != goal.Followers.Key {
		t.Fatalf("unexpected metric %+v", m)
	}
	var nilPalette *Palette
	if got := nilPalette.Apply(goal.Followers); got != goal.Followers {
		t.Fatalf("nil palette should leave metric unchanged")
	}
}
