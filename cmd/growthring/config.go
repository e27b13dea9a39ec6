package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/example/growthring/internal/config"
)

type configCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &configCmd{root: r, fs: fs}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &UsageError{of: c}
		}
		return nil, &UsageError{of: c, reason: err.Error()}
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) != 1 {
		return &UsageError{of: c}
	}

	switch args[0] {
	case "print":
		fmt.Fprint(c.root.stdout, c.config.String())
		return nil
	case "save":
		return c.runSave()
	default:
		return &UsageError{of: c, reason: fmt.Sprintf("unknown config command: %s", args[0])}
	}
}

func (c *configCmd) runSave() error {
	// Save over the file in use, otherwise the XDG default.
	path := ""
	if c.loader != nil {
		path = c.loader.GetConfigPath()
	}
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.Save(c.config, path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	fmt.Fprintf(c.root.stderr, "Configuration saved to %s\n", path)
	return nil
}
