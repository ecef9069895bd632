package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shardbuf/shardbuf/cmd/shardbufc/internal/pipeline"
	"github.com/shardbuf/shardbuf/cmd/shardbufc/tui"
	"github.com/shardbuf/shardbuf/wire/inspect"
	"github.com/shardbuf/shardbuf/wire/reader"
)

func newViewCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view DATA_FILE ROOT_TYPE SCHEMA [SCHEMA...]",
		Short: "Open the TUI inspector on an encoded buffer",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			dataFile, rootType, schemas := args[0], args[1], args[2:]

			res, err := pipeline.Compile(schemas, a.ignoreDocs, os.Stderr)
			if err != nil {
				return err
			}
			if res.Ctx.Poisoned() {
				return fmt.Errorf("view: schema has errors")
			}

			declIdx, ok := inspect.FindTable(res.Decls, rootType)
			if !ok {
				suggestion := tui.SuggestTables(rootType, inspect.TableNames(res.Decls))
				return fmt.Errorf("view: %q is not a table in the given schemas%s", rootType, suggestion)
			}

			buf, closeFn, err := tui.MapFile(dataFile)
			if err != nil {
				return fmt.Errorf("view: %w", err)
			}
			defer closeFn()

			rootPos, err := reader.RootPos(buf)
			if err != nil {
				return fmt.Errorf("view: %w", err)
			}

			m := inspect.New()
			if err := inspect.WalkTable(m, buf, res.Decls, declIdx, rootPos, inspect.FieldPath{}); err != nil {
				return fmt.Errorf("view: %w", err)
			}

			return tui.Run(buf, m, rootType)
		},
	}
	return cmd
}
