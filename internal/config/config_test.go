package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
watermark = my ring
save_dir = /tmp/rings
metric = tweets
style = neon
debounce_ms = 150

[notify]
export = true
copy = false

[palette.brand]
Followers = #1A5FB4
BadgeFill: gold
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Watermark != "my ring" {
		t.Errorf("Expected watermark 'my ring', got '%s'", cfg.Watermark)
	}
	if cfg.SaveDir != "/tmp/rings" {
		t.Errorf("Expected save_dir '/tmp/rings', got '%s'", cfg.SaveDir)
	}
	if cfg.Metric != "tweets" || cfg.Style != "neon" {
		t.Errorf("Unexpected metric/style %q/%q", cfg.Metric, cfg.Style)
	}
	if cfg.DebounceMS != 150 {
		t.Errorf("Expected debounce_ms 150, got %d", cfg.DebounceMS)
	}
	if cfg.MaxUploadMB != 10 {
		t.Errorf("Expected default max_upload_mb 10, got %d", cfg.MaxUploadMB)
	}
	if !cfg.Notify.Export {
		t.Error("Expected notify.export to be true")
	}
	if cfg.Notify.Copy {
		t.Error("Expected notify.copy to be false")
	}

	p, err := cfg.PaletteByName("brand")
	if err != nil {
		t.Fatalf("palette brand: %v", err)
	}
	if p.Followers != (color.RGBA{0x1A, 0x5F, 0xB4, 0xFF}) {
		t.Errorf("Unexpected Followers colour: %+v", p.Followers)
	}
	if p.BadgeFill != (color.RGBA{0xFF, 0xD7, 0x00, 0xFF}) {
		t.Errorf("Unexpected BadgeFill colour: %+v", p.BadgeFill)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseRejectsBadBoolean(t *testing.T) {
	if _, err := Parse(strings.NewReader("[notify]\nexport = maybe\n")); err == nil {
		t.Fatal("expected an error for a non-boolean notify value")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown metric":    func(c *Config) { c.Metric = "likes" },
		"unknown style":     func(c *Config) { c.Style = "sparkle" },
		"negative debounce": func(c *Config) { c.DebounceMS = -1 },
		"upload too big":    func(c *Config) { c.MaxUploadMB = 51 },
		"log mode":          func(c *Config) { c.LogMode = "verbose" },
		"low contrast palette": func(c *Config) {
			c.Palettes["washed"] = PaletteSpec{"followers": "#F0F0F0"}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
	if err := New().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestCircular(t *testing.T) {
	input := `watermark = growth-ring
save_dir = /home/user/rings
style = gradient
palette = brand

[notify]
export = true
copy = true

[palette.brand]
Followers = #1A5FB4
Tweets = #C026D3
`
	// 1. Parse initial input
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	// 2. Generate string representation
	generated := cfg.String()

	// 3. Parse generated string
	cfg2, err := Parse(strings.NewReader(generated))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}

	// 4. Compare relevant fields
	if cfg.Style != cfg2.Style || cfg.Palette != cfg2.Palette {
		t.Errorf("style/palette mismatch: %q/%q vs %q/%q", cfg.Style, cfg.Palette, cfg2.Style, cfg2.Palette)
	}
	if cfg.SaveDir != cfg2.SaveDir {
		t.Errorf("SaveDir mismatch: %q vs %q", cfg.SaveDir, cfg2.SaveDir)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}

	p1, err := cfg.PaletteByName("brand")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := cfg2.PaletteByName("brand")
	if err != nil {
		t.Fatal(err)
	}
	if *p1 != *p2 {
		t.Errorf("Palette mismatch: %+v vs %+v", p1, p2)
	}
}

func TestRCParserMarshal(t *testing.T) {
	out, err := RCParser().Marshal(map[string]interface{}{
		"metric": "tweets",
		"notify": map[string]interface{}{"export": true},
		"palettes": map[string]interface{}{
			"brand": map[string]interface{}{"followers": "#1A5FB4"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	m, err := RCParser().Unmarshal(out)
	if err != nil {
		t.Fatalf("reparse %q: %v", out, err)
	}
	if m["metric"] != "tweets" {
		t.Errorf("metric = %v", m["metric"])
	}
	if m["notify"].(map[string]interface{})["export"] != true {
		t.Errorf("notify = %v", m["notify"])
	}
	brand := m["palettes"].(map[string]interface{})["brand"].(map[string]interface{})
	if brand["followers"] != "#1A5FB4" {
		t.Errorf("palette = %v", brand)
	}
}

func TestLoaderLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.rc")
	rc := "style = neon\nmetric = tweets\n\n[notify]\nexport = false\n"
	if err := os.WriteFile(path, []byte(rc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", dir)
	t.Setenv("GROWTHRING_METRIC", "engagement")
	t.Setenv("GROWTHRING_NOTIFY__EXPORT", "true")

	l := NewLoader("1.0.0", path)
	l.Overrides = map[string]interface{}{"style": "gradient"}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Metric != "engagement" {
		t.Errorf("env should override file: metric = %q", cfg.Metric)
	}
	if !cfg.Notify.Export {
		t.Error("env should override notify.export")
	}
	if cfg.Style != "gradient" {
		t.Errorf("overrides should win: style = %q", cfg.Style)
	}
	if cfg.DebounceMS != 300 {
		t.Errorf("defaults should survive: debounce_ms = %d", cfg.DebounceMS)
	}
}

func TestLoaderYAMLAndValidation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "ring.yaml")
	doc := "style: classic\nmax_upload_mb: 99\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLoader("1.0.0", path).Load(); err == nil {
		t.Fatal("expected max_upload_mb 99 to fail validation")
	}
}

func TestGetConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	l := NewLoader("1.0.0", "")
	if got := l.GetConfigPath(); got != "" {
		t.Fatalf("expected no config, got %q", got)
	}
	dir := filepath.Join(home, ".config", "growthring")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "growthring.rc")
	if err := os.WriteFile(want, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := l.GetConfigPath(); got != want {
		t.Fatalf("GetConfigPath() = %q want %q", got, want)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.rc")
	cfg := New()
	cfg.SaveDir = "/tmp/out"
	if err := Save(cfg, path); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	back, err := Parse(f)
	if err != nil {
		t.Fatal(err)
	}
	if back.SaveDir != "/tmp/out" || back.Watermark != "growth-ring" {
		t.Fatalf("unexpected round trip %+v", back)
	}
}
