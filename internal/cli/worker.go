package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/strain/internal/logging"
	"github.com/wesleyorama2/strain/internal/stress"
)

// newWorkerCmd is the entry point of worker child processes. Its stdout
// carries the progress protocol, so logs go to stderr as JSON.
func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "worker",
		Short:  "Run a single stress worker (internal)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE:   runWorker,
	}
	cmd.Flags().String("spec", "", "Encoded worker spec")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func runWorker(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("spec")
	spec, err := stress.DecodeChildSpec(raw)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Level: spec.LogLevel, Format: "json"})
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := stress.RunChild(ctx, spec, cmd.OutOrStdout(), log); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
