package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/growthring/internal/goal"
	"github.com/example/growthring/internal/palette"
)

type goalsCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *goalsCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseGoalsCmd(args []string, r *root) (*goalsCmd, error) {
	fs := flag.NewFlagSet("goals", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &goalsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &UsageError{of: c}
		}
		return nil, &UsageError{of: c, reason: err.Error()}
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

// sampleValue is formatted with each metric's rule.
const sampleValue = 12345.678

func (c *goalsCmd) Run() error {
	out := c.root.stdout
	name := "Default"
	if c.palette != nil {
		name = c.palette.Name
	}
	fmt.Fprintf(out, "metrics (palette %s):\n", name)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  KEY\tLABEL\tACCENT\tVS WHITE\tVS BLACK\tSAMPLE")
	for _, m := range goal.Metrics() {
		m = c.palette.Apply(m)
		w, b := goal.ContrastWithText(m.Accent)
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%.2f:1\t%.2f:1\t%s\n",
			m.Key, m.Label, palette.Hex(m.Accent), w, b, m.FormatValue(sampleValue))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out, "styles:")
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  KEY\tLABEL\tGRADIENT\tGLOW")
	for _, s := range goal.Styles() {
		fmt.Fprintf(tw, "  %s\t%s\t%v\t%v\n", s.Key, s.Label, s.UsesGradient, s.HasGlow)
	}
	return tw.Flush()
}
