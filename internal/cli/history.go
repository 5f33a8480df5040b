package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strandkit/strand/stream"
)

// NewHistoryCommand shows the handling history of one record for a concern.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	var concern string
	cmd := &cobra.Command{
		Use:   "history <internal-record-id>",
		Short: "Show a record's handling history for a concern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    opts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   opts.Verbose,
			}
			var internalID int64
			if _, err := fmt.Sscanf(args[0], "%d", &internalID); err != nil {
				return WrapExitError(ExitCommandError, "parse internal record id", err)
			}

			_, s, cleanup, err := loadStream(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := s.GetHandlingHistory(cmd.Context(), concern, internalID, stream.HandlingQueryOptions{})
			if err != nil {
				return WrapExitError(ExitFailure, "get handling history", err)
			}
			if opts.Format == "json" {
				return formatter.Success(entries)
			}
			var b strings.Builder
			for i, e := range entries {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%d\t%s\t%s", e.InternalEntryID, e.Status, e.TimestampUTC.Format("2006-01-02T15:04:05Z07:00"))
				if e.Details != "" {
					fmt.Fprintf(&b, "\t%s", e.Details)
				}
			}
			if b.Len() == 0 {
				b.WriteString("no handling entries")
			}
			return formatter.Success(b.String())
		},
	}
	cmd.Flags().StringVar(&concern, "concern", "", "handling concern (required)")
	cmd.MarkFlagRequired("concern")
	return cmd
}
