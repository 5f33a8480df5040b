package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/stream"
)

// NewPruneCommand removes records by id threshold or age.
func NewPruneCommand(opts *RootOptions) *cobra.Command {
	var (
		beforeID int64
		before   string
		details  string
	)
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove records at or below an id, or older than a timestamp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    opts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   opts.Verbose,
			}
			if (beforeID == 0) == (before == "") {
				return NewExitError(ExitCommandError, "exactly one of --before-id and --before must be set")
			}

			var predicate stream.PrunePredicate
			if beforeID > 0 {
				predicate = stream.PruneBeforeInternalRecordID(beforeID)
			} else {
				cutoff, err := time.Parse(time.RFC3339, before)
				if err != nil {
					return WrapExitError(ExitCommandError, "parse --before timestamp", err)
				}
				predicate, err = stream.PruneBeforeTimestamp(cutoff.UTC())
				if err != nil {
					return WrapExitError(ExitCommandError, "build prune predicate", err)
				}
			}

			cfg, s, cleanup, err := loadStream(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			// Prune is per partition; visit every configured root.
			for _, root := range cfg.Roots {
				err := s.Prune(cmd.Context(), stream.PruneOptions{
					Predicate: predicate,
					Details:   details,
					Locator:   locator.FileSystem{RootPath: root},
				})
				if err != nil {
					return WrapExitError(ExitFailure, "prune "+root, err)
				}
				formatter.VerboseLog("pruned partition %s", root)
			}
			return formatter.Success(fmt.Sprintf("pruned %d partition(s)", len(cfg.Roots)))
		},
	}
	cmd.Flags().Int64Var(&beforeID, "before-id", 0, "remove records with internal id at or below this value")
	cmd.Flags().StringVar(&before, "before", "", "remove records not newer than this RFC 3339 timestamp")
	cmd.Flags().StringVar(&details, "details", "", "audit note recorded with the prune")
	return cmd
}
