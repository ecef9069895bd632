// Command shardbufc compiles shardbuf schemas: it renders Rust bindings,
// renders a declaration dependency graph, canonicalizes schema source,
// checks a schema set for diagnostics without generating anything, and
// inspects an encoded buffer interactively.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/shardbuf/shardbuf/cmd/shardbufc/internal/clilog"
	"github.com/shardbuf/shardbuf/cmd/shardbufc/internal/config"
)

// app holds the state every subcommand reads: the loaded project config
// and the persistent flags that can override it, including the logging
// flags held in logCfg (no logger is built from them).
type app struct {
	logCfg      *clilog.Config
	configPath  string
	ignoreDocs  bool
	project     config.Project
}

func newRootCmd() *cobra.Command {
	a := &app{logCfg: clilog.NewConfig()}

	root := &cobra.Command{
		Use:           "shardbufc",
		Short:         "Compile and inspect shardbuf schemas and buffers",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			proj, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("loading %s: %w", a.configPath, err)
			}
			if !cmd.Flags().Changed("ignore-docstring-errors") {
				a.ignoreDocs = proj.IgnoreDocstringErrors
			}
			a.project = proj
			return nil
		},
	}

	fs := root.PersistentFlags()
	fs.StringVar(&a.configPath, "config", ".shardbuf.yaml", "project config file")
	fs.BoolVar(&a.ignoreDocs, "ignore-docstring-errors", false, "suppress docstring-placement diagnostics")
	a.logCfg.RegisterFlags(fs)

	if err := a.logCfg.RegisterCompletions(root); err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	root.AddCommand(
		newRustCmd(a),
		newDotCmd(a),
		newFormatCmd(a),
		newCheckCmd(a),
		newViewCmd(a),
		newCompletionsCmd(root),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// stringOrDefault returns flag's value if the user set it explicitly,
// otherwise fallback (the project-config or built-in value): the layered
// defaults built-in < .shardbuf.yaml < CLI flags boil down, per flag, to
// "did the user touch this flag."
func stringOrDefault(fs *pflag.FlagSet, name, flagValue, fallback string) string {
	if fs.Changed(name) {
		return flagValue
	}
	return fallback
}
