package cli

import (
	"github.com/spf13/cobra"

	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
)

// NewGateCommand toggles the stream-wide handling gate.
func NewGateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Control the stream-wide handling gate",
	}
	cmd.AddCommand(newGateToggleCommand(opts, "disable", record.StatusDisabledForStream))
	cmd.AddCommand(newGateToggleCommand(opts, "enable", record.StatusAvailableByDefault))
	return cmd
}

func newGateToggleCommand(opts *RootOptions, use string, status record.HandlingStatus) *cobra.Command {
	var details string
	cmd := &cobra.Command{
		Use:   use,
		Short: use + " handling across the stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    opts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   opts.Verbose,
			}
			_, s, cleanup, err := loadStream(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			err = s.UpdateHandlingStatusForStream(cmd.Context(), status, stream.UpdateStreamHandlingOptions{
				Details: details,
			})
			if err != nil {
				return WrapExitError(ExitFailure, "toggle stream gate", err)
			}
			return formatter.Success("stream handling " + use + "d")
		},
	}
	cmd.Flags().StringVar(&details, "details", "", "audit note recorded with the toggle")
	return cmd
}
