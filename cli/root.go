package cli

import (
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sim",
		Short: "Sandboxed code execution engine for workflow blocks",
	}

	root.AddCommand(
		ServeCmd(),
		ExecCmd(),
	)

	return root
}
