package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/example/growthring/internal/export"
	"github.com/example/growthring/internal/goal"
	"github.com/example/growthring/internal/session"
)

type renderCmd struct {
	*root
	fs *flag.FlagSet

	source      pictureSource
	current     float64
	target      float64
	metric      string
	style       string
	output      string
	stdout      bool
	toClipboard bool
	metricsFile string
}

func (c *renderCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &renderCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.source.path, "image", "", "picture to put inside the ring")
	fs.BoolVar(&c.source.fromClipboard, "from-clipboard", false, "read the picture from the clipboard")
	fs.Float64Var(&c.current, "current", 0, "current value")
	fs.Float64Var(&c.target, "target", 0, "target value")
	fs.StringVar(&c.metric, "metric", r.config.Metric, "metric: followers, engagement or tweets")
	fs.StringVar(&c.style, "style", r.config.Style, "ring style: classic, gradient or neon")
	fs.StringVar(&c.output, "output", "", "directory to save into (default: save_dir from config, else .)")
	fs.BoolVar(&c.stdout, "stdout", false, "write the PNG to stdout")
	fs.BoolVar(&c.toClipboard, "to-clipboard", false, "copy the PNG to the clipboard")
	fs.StringVar(&c.metricsFile, "metrics-file", "", "write pipeline metrics in textfile format")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &UsageError{of: c}
		}
		return nil, &UsageError{of: c, reason: err.Error()}
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: c, reason: fmt.Sprintf("unexpected arguments: %v", fs.Args())}
	}
	if err := c.source.validate(); err != nil {
		return nil, &UsageError{of: c, reason: err.Error()}
	}
	if c.stdout && c.toClipboard {
		return nil, &UsageError{of: c, reason: "-stdout cannot be combined with -to-clipboard"}
	}
	if _, err := goal.MetricByKey(c.metric); err != nil {
		return nil, &UsageError{of: c, reason: err.Error()}
	}
	if _, err := goal.StyleByKey(c.style); err != nil {
		return nil, &UsageError{of: c, reason: err.Error()}
	}
	if err := goal.ValidateInputs(c.current, c.target); err != nil {
		return nil, &UsageError{of: c, reason: err.Error()}
	}
	return c, nil
}

// sinks lists where the ring goes. A save directory is used unless the ring
// is streamed, or only copied.
func (c *renderCmd) sinks() []export.Sink {
	if c.stdout {
		return []export.Sink{export.WriterSink{W: c.root.stdout, Name: "stdout"}}
	}
	var out []export.Sink
	if c.toClipboard {
		out = append(out, export.ClipboardSink{})
	}
	if !c.toClipboard || c.output != "" {
		dir := c.output
		if dir == "" {
			dir = c.config.SaveDir
		}
		if dir == "" {
			dir = "."
		}
		out = append(out, export.DirSink{Dir: dir})
	}
	return out
}

func (c *renderCmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metric, _ := goal.MetricByKey(c.metric)
	style, _ := goal.StyleByKey(c.style)

	sess := c.newSession()
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sess.Run(runCtx)
	}()
	defer func() {
		cancel()
		<-done
		_ = sess.Close(context.Background())
	}()

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
	if err := sess.Flush(ctx); err != nil {
		return err
	}
	last := sess.Last()
	if last.Status == session.StatusFailed {
		return fmt.Errorf("failed to render ring: %w", last.Err)
	}
	for _, w := range last.Report.Warnings {
		fmt.Fprintf(c.root.stderr, "warning: %v\n", w)
	}

	for _, sink := range c.sinks() {
		where, err := sess.Export(ctx, sink)
		if err != nil {
			return fmt.Errorf("failed to export ring: %w", err)
		}
		fmt.Fprintln(c.root.stderr, where)
	}

	if c.metricsFile != "" {
		if err := c.metrics.WriteTextfile(c.metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}
