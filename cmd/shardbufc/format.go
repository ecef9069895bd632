package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shardbuf/shardbuf/diag"
	"github.com/shardbuf/shardbuf/schema/cst"
	"github.com/shardbuf/shardbuf/schema/lexer"
)

func newFormatCmd(a *app) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "format SCHEMA [SCHEMA...]",
		Short: "Canonicalize schema source",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			for _, path := range args {
				src, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("format: %w", err)
				}

				lx := lexer.New(string(src))
				toks := lx.Tokens()
				if errs := lx.Errors(); len(errs) > 0 {
					return fmt.Errorf("format: %s: %v", path, errs[0])
				}

				ctx := diag.New(os.Stderr)
				root := cst.NewParser(path, toks, ctx).ParseFile()
				ctx.Flush()
				if ctx.Poisoned() {
					return fmt.Errorf("format: %s: schema has parse errors, not formatting", path)
				}

				out := cst.Format(root)
				if !write {
					fmt.Fprint(os.Stdout, out)
					continue
				}
				if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
					return fmt.Errorf("format: writing %s: %w", path, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the formatted result back to each file instead of stdout")
	return cmd
}
