package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shardbuf/shardbuf/cmd/shardbufc/internal/pipeline"
)

func newCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check SCHEMA [SCHEMA...]",
		Short: "Report schema diagnostics without generating anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			res, err := pipeline.Compile(args, a.ignoreDocs, os.Stderr)
			if err != nil {
				return err
			}
			if res.Ctx.Poisoned() {
				return fmt.Errorf("check: schema has errors")
			}
			return nil
		},
	}
	return cmd
}
