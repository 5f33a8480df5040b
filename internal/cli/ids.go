package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/strandkit/strand/stream"
)

// NewIDsCommand lists the distinct string-serialized ids in the stream.
func NewIDsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ids",
		Short: "List distinct object ids",
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

			ids, err := s.GetDistinctStringSerializedIDs(cmd.Context(), stream.GetOptions{})
			if err != nil {
				return WrapExitError(ExitFailure, "list ids", err)
			}
			formatter.VerboseLog("stream %s: %d distinct ids", s.Name(), len(ids))
			if opts.Format == "json" {
				return formatter.Success(ids)
			}
			return formatter.Success(strings.Join(ids, "\n"))
		},
	}
}
