package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/growthring/internal/goal"
	"github.com/example/growthring/internal/preview"
)

type previewCmd struct {
	*root
	fs *flag.FlagSet

	source      pictureSource
	current     float64
	target      float64
	metric      string
	style       string
	step        float64
	metricsAddr string
}

func (c *previewCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parsePreviewCmd(args []string, r *root) (*previewCmd, error) {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &previewCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.source.path, "image", "", "picture to put inside the ring")
	fs.BoolVar(&c.source.fromClipboard, "from-clipboard", false, "read the picture from the clipboard")
	fs.Float64Var(&c.current, "current", 0, "initial current value")
	fs.Float64Var(&c.target, "target", 100, "initial target value")
	fs.StringVar(&c.metric, "metric", r.config.Metric, "metric: followers, engagement or tweets")
	fs.StringVar(&c.style, "style", r.config.Style, "ring style: classic, gradient or neon")
	fs.Float64Var(&c.step, "step", 1, "how much the arrow and page keys change a value")
	fs.StringVar(&c.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &UsageError{of: c}
		}
		return nil, &UsageError{of: c, reason: err.Error()}
	}
	if err := c.source.validate(); err != nil {
		return nil, &UsageError{of: c, reason: err.Error()}
	}
	if c.step <= 0 {
		return nil, &UsageError{of: c, reason: "-step must be positive"}
	}
	if c.current < 0 || c.target < 0 {
		return nil, &UsageError{of: c, reason: goal.ErrNegativeValue.Error()}
	}
	if _, err := goal.MetricByKey(c.metric); err != nil {
		return nil, &UsageError{of: c, reason: err.Error()}
	}
	if _, err := goal.StyleByKey(c.style); err != nil {
		return nil, &UsageError{of: c, reason: err.Error()}
	}
	return c, nil
}

func (c *previewCmd) serveMetrics(ctx context.Context) func() {
	if c.metricsAddr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.metrics.Handler())
	srv := &http.Server{Addr: c.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Error("metrics server stopped", "addr", c.metricsAddr, "error", err)
		}
	}()
	c.log.Info("serving metrics", "addr", c.metricsAddr)
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

func (c *previewCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metric, _ := goal.MetricByKey(c.metric)
	style, _ := goal.StyleByKey(c.style)

	sess := c.newSession()
	defer sess.Close(context.Background())

	f, err := c.source.open()
	if err != nil {
		return err
	}
	if err := sess.Upload(ctx, f); err != nil {
		return fmt.Errorf("failed to load picture %s: %w", f.Name(), err)
	}
	sess.SetMetric(metric)
	sess.SetStyle(style)
	if err := sess.SetTarget(c.target); err != nil {
		return err
	}
	if err := sess.SetCurrent(c.current); err != nil {
		return err
	}
	sess.Commit()

	defer c.serveMetrics(ctx)()

	saveDir := c.config.SaveDir
	if saveDir == "" {
		saveDir = "."
	}
	w := preview.New(sess,
		preview.WithStep(c.step),
		preview.WithSaveDir(saveDir),
		preview.WithLogger(c.log),
		preview.WithTitle(fmt.Sprintf("%s - %s", preview.ProgramTitle, f.Name())),
	)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
