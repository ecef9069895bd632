// Package clilog wires shardbufc's --log-level/--log-format flags to
// charm.land/log/v2, mirroring the Config/Flags/RegisterFlags shape
// MacroPower-x's own log package uses to integrate a logging backend with
// cobra and pflag.
package clilog

import (
	"fmt"
	"io"

	charmlog "charm.land/log/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var levels = []string{"debug", "info", "warn", "error"}
var formats = []string{"text", "json", "logfmt"}

// Flags holds the CLI flag names for log configuration, so callers can
// rename them without touching the rest of this package.
type Flags struct {
	Level  string
	Format string
}

// Config holds CLI flag values for log configuration. Build with
// [NewConfig], register with [Config.RegisterFlags], and realize a logger
// with [Config.NewLogger].
type Config struct {
	Level  string
	Format string
	Flags  Flags
}

// NewConfig returns a Config with the standard flag names and an "info"
// text-format default.
func NewConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "text",
		Flags:  Flags{Level: "log-level", Format: "log-format"},
	}
}

// RegisterFlags adds the logging flags to fs.
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Level, c.Flags.Level, c.Level, "log level, one of: debug, info, warn, error")
	fs.StringVar(&c.Format, c.Flags.Format, c.Format, "log format, one of: text, json, logfmt")
}

// RegisterCompletions registers fixed-value shell completions for the
// log flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Level,
		cobra.FixedCompletions(levels, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Level, err)
	}
	err = cmd.RegisterFlagCompletionFunc(c.Flags.Format,
		cobra.FixedCompletions(formats, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Format, err)
	}
	return nil
}

// NewLogger builds a *charmlog.Logger writing to w at the configured
// level and format.
func (c *Config) NewLogger(w io.Writer) (*charmlog.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	formatter, err := parseFormatter(c.Format)
	if err != nil {
		return nil, err
	}
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
	})
	return logger, nil
}

func parseLevel(s string) (charmlog.Level, error) {
	switch s {
	case "debug":
		return charmlog.DebugLevel, nil
	case "info":
		return charmlog.InfoLevel, nil
	case "warn", "warning":
		return charmlog.WarnLevel, nil
	case "error":
		return charmlog.ErrorLevel, nil
	}
	return 0, fmt.Errorf("clilog: unknown log level %q", s)
}

func parseFormatter(s string) (charmlog.Formatter, error) {
	switch s {
	case "text":
		return charmlog.TextFormatter, nil
	case "json":
		return charmlog.JSONFormatter, nil
	case "logfmt":
		return charmlog.LogfmtFormatter, nil
	}
	return 0, fmt.Errorf("clilog: unknown log format %q", s)
}
