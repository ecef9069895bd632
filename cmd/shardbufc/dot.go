package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shardbuf/shardbuf/cmd/shardbufc/internal/pipeline"
	"github.com/shardbuf/shardbuf/schema/codegen"
	"github.com/shardbuf/shardbuf/schema/codegen/dotgen"
)

func newDotCmd(a *app) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "dot SCHEMA [SCHEMA...]",
		Short: "Render the declaration dependency graph as a DOT document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := stringOrDefault(cmd.Flags(), "out", outFile, a.project.DotOutputFile)

			res, err := pipeline.Compile(args, a.ignoreDocs, os.Stderr)
			if err != nil {
				return err
			}
			if res.Ctx.Poisoned() {
				return fmt.Errorf("dot: schema has errors, not generating")
			}

			backend := dotgen.New()
			if _, err := codegen.Emit(context.Background(), res.Decls, backend); err != nil {
				return fmt.Errorf("dot: %w", err)
			}

			if err := os.WriteFile(path, []byte(backend.Graph().String()), 0o644); err != nil {
				return fmt.Errorf("dot: writing %s: %w", path, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "output file (default: config dot_output_file, or schema.dot)")
	return cmd
}
