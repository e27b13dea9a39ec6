package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/growthring/internal/config"
	"github.com/example/growthring/internal/logger"
	"github.com/example/growthring/internal/metrics"
	"github.com/example/growthring/internal/notify"
	"github.com/example/growthring/internal/palette"
	"github.com/example/growthring/internal/ring"
	"github.com/example/growthring/internal/session"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs       *flag.FlagSet
	program  string
	config   *config.Config
	loader   *config.Loader
	log      *logger.Logger
	metrics  *metrics.Manager
	notifier *notify.Notifier
	palette  *palette.Palette

	exportAlerts bool
	copyAlerts   bool
	paletteName  string
	logMode      string
	configPath   string

	stdout io.Writer
	stderr io.Writer
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func (r *root) subcommand(name string) *root {
	sub := *r
	sub.fs = nil
	sub.program = strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &sub
}

func newRoot() *root {
	r := &root{
		fs:      flag.NewFlagSet("growthring", flag.ContinueOnError),
		program: "growthring",
		config:  config.New(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	r.fs.SetOutput(io.Discard)
	r.fs.BoolVar(&r.exportAlerts, "notify-export", false, "show a desktop notification after saving a ring")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", false, "show a desktop notification after copying a ring")
	r.fs.StringVar(&r.paletteName, "palette", "", "accent palette: default, high_contrast, mono, a [palette.NAME] section or a file")
	r.fs.StringVar(&r.logMode, "log-mode", "", "log format: dev or prod")
	r.fs.StringVar(&r.configPath, "config", configPathOverride, "config file (rc or yaml)")
	return r
}

// overrides turns explicitly set global flags into config keys so they win
// over the file and the environment.
func (r *root) overrides() map[string]interface{} {
	out := map[string]interface{}{}
	r.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "notify-export":
			out["notify.export"] = r.exportAlerts
		case "notify-copy":
			out["notify.copy"] = r.copyAlerts
		case "palette":
			out["palette"] = r.paletteName
		case "log-mode":
			out["log_mode"] = r.logMode
		}
	})
	return out
}

// setup loads the configuration and builds the shared services.
func (r *root) setup() error {
	r.loader = config.NewLoader(version, r.configPath)
	r.loader.Overrides = r.overrides()
	cfg, err := r.loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	r.config = cfg

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	r.log = log
	r.metrics = metrics.New()

	p, err := cfg.ResolvePalette(cfg.Palette, palette.NewLoader())
	if err != nil {
		return fmt.Errorf("load palette: %w", err)
	}
	r.palette = p

	r.notifier = notify.New(notify.DefaultPreferences(), r.log)
	r.notifier.Enable(notify.EventExport, cfg.Notify.Export)
	r.notifier.Enable(notify.EventCopy, cfg.Notify.Copy)
	return nil
}

// newSession builds a session from the configuration. Later options win.
func (r *root) newSession(opts ...session.Option) *session.Session {
	base := []session.Option{
		session.WithLogger(r.log),
		session.WithMetrics(r.metrics),
		session.WithNotifier(r.notifier),
		session.WithPalette(r.palette),
		session.WithDebounce(r.config.Debounce()),
		session.WithMaxUploadBytes(r.config.MaxUploadBytes()),
		session.WithRingOptions(
			ring.WithWatermark(r.config.Watermark),
			ring.WithDecodeTimeout(r.config.DecodeTimeout()),
		),
	}
	return session.New(append(base, opts...)...)
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return &UsageError{of: r}
		}
		return &UsageError{of: r, reason: err.Error()}
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if err := r.setup(); err != nil {
		return err
	}
	defer r.log.Sync()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "render":
		cmd, err = parseRenderCmd(subArgs, r.subcommand("render"))
	case "preview":
		cmd, err = parsePreviewCmd(subArgs, r.subcommand("preview"))
	case "goals":
		cmd, err = parseGoalsCmd(subArgs, r.subcommand("goals"))
	case "config":
		cmd, err = parseConfigCmd(subArgs, r.subcommand("config"))
	case "version":
		cmd = &versionCmd{root: r.subcommand("version")}
	default:
		err = &UsageError{of: r, reason: fmt.Sprintf("unknown command %q", cmdName)}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
