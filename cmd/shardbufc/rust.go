package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shardbuf/shardbuf/cmd/shardbufc/internal/pipeline"
	"github.com/shardbuf/shardbuf/schema/codegen"
	"github.com/shardbuf/shardbuf/schema/codegen/rustgen"
	"github.com/shardbuf/shardbuf/schema/ir"
)

func newRustCmd(a *app) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "rust SCHEMA [SCHEMA...]",
		Short: "Render Rust bindings for a schema set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := stringOrDefault(cmd.Flags(), "out", outDir, a.project.RustOutputDir)

			res, err := pipeline.Compile(args, a.ignoreDocs, os.Stderr)
			if err != nil {
				return err
			}
			if res.Ctx.Poisoned() {
				return fmt.Errorf("rust: schema has errors, not generating")
			}

			backend := rustgen.New()
			outputs, err := codegen.Emit(context.Background(), res.Decls, backend)
			if err != nil {
				return fmt.Errorf("rust: %w", err)
			}

			for _, out := range outputs {
				path := filepath.Join(dir, rustFilePath(out.Namespace))
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("rust: %w", err)
				}
				if err := os.WriteFile(path, out.Bytes, 0o644); err != nil {
					return fmt.Errorf("rust: writing %s: %w", path, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default: config rust_output_dir, or gen/rust)")
	return cmd
}

// rustFilePath maps a namespace's dot path onto a nested Rust source
// file: "game.sample" becomes "game/sample.rs", and the unnamed root
// namespace becomes "lib.rs".
func rustFilePath(ns ir.AbsolutePath) string {
	if ns == "" {
		return "lib.rs"
	}
	segs := strings.Split(string(ns), ".")
	segs[len(segs)-1] += ".rs"
	return filepath.Join(segs...)
}
