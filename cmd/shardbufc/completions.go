package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newCompletionsCmd delegates entirely to cobra's built-in completion
// generators: this command exists to put a stable `generate-completions`
// name on them, not to reimplement shell completion.
func newCompletionsCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:       "generate-completions {bash|zsh|fish|powershell}",
		Short:     "Generate a shell completion script",
		Args:      cobra.ExactValidArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(_ *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("generate-completions: unknown shell %q", args[0])
			}
		},
	}
}
