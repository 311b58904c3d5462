package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// NewRootCmd builds the strain command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "strain",
		Short:   "A synthetic CPU and memory load generator",
		Version: version,
		Long: `Strain starts a pool of workers that keep the machine busy until
interrupted. Each worker either burns CPU generating random numbers or
repeatedly allocates and touches a block of memory. Progress is reported
periodically and every worker is stopped on Ctrl+C.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newWorkerCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command with the process arguments.
// This is called by main.main().
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the strain version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "strain %s\n", version)
		},
	}
}
