package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strandkit/strand/filestream"
	"github.com/strandkit/strand/locator"
	"github.com/strandkit/strand/sqlitestream"
)

// counterView is one partition's id counter state.
type counterView struct {
	Root            string `json:"root"`
	RecordIDCounter int64  `json:"recordIdCounter"`
	EntryIDCounter  int64  `json:"entryIdCounter"`
}

// NewCountersCommand shows the record and handling-entry id counters per
// partition.
func NewCountersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counters",
		Short: "Show id counters for every partition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    opts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   opts.Verbose,
			}
			cfg, s, cleanup, err := loadStream(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			views := make([]counterView, 0, len(cfg.Roots))
			for _, root := range cfg.Roots {
				var recordID, entryID int64
				switch backend := s.(type) {
				case *sqlitestream.Stream:
					recordID, entryID, err = backend.CounterValues(cmd.Context(), locator.FileSystem{RootPath: root})
				default:
					recordID, entryID, err = filestream.CounterValues(root, cfg.Stream)
				}
				if err != nil {
					return WrapExitError(ExitFailure, "read counters for "+root, err)
				}
				views = append(views, counterView{
					Root:            root,
					RecordIDCounter: recordID,
					EntryIDCounter:  entryID,
				})
			}

			if opts.Format == "json" {
				return formatter.Success(views)
			}
			var b strings.Builder
			for i, v := range views {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%s\trecords=%d\tentries=%d", v.Root, v.RecordIDCounter, v.EntryIDCounter)
			}
			return formatter.Success(b.String())
		},
	}
	return cmd
}
