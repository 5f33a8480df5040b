package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strandkit/strand/record"
	"github.com/strandkit/strand/stream"
)

// recordView is the CLI rendering of a record.
type recordView struct {
	InternalID   int64        `json:"internalId"`
	StringID     *string      `json:"stringId"`
	TypeOfObject string       `json:"typeOfObject"`
	TimestampUTC string       `json:"timestampUtc"`
	Tags         []record.Tag `json:"tags,omitempty"`
	Payload      string       `json:"payload,omitempty"`
}

func viewOf(r record.Record, withPayload bool) recordView {
	v := recordView{
		InternalID:   r.InternalID,
		StringID:     r.Metadata.StringSerializedID,
		TypeOfObject: r.Metadata.TypeOfObject.WithVersion.String(),
		TimestampUTC: r.Metadata.TimestampUTC.Format("2006-01-02T15:04:05.000000000Z07:00"),
		Tags:         r.Metadata.Tags,
	}
	if withPayload && !r.Payload.IsBinary() {
		v.Payload = r.Payload.Text
	}
	return v
}

// NewGetCommand fetches the records for one object id.
func NewGetCommand(opts *RootOptions) *cobra.Command {
	var (
		latestOnly  bool
		withPayload bool
	)
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show the records stored for an object id",
		Args:  cobra.ExactArgs(1),
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

			id := args[0]
			var records []record.Record
			if latestOnly {
				latest, err := s.GetLatestRecordByID(cmd.Context(), id, stream.GetOptions{})
				if err != nil {
					return WrapExitError(ExitFailure, "get latest record", err)
				}
				if latest != nil {
					records = append(records, *latest)
				}
			} else {
				records, err = s.GetAllRecordsByID(cmd.Context(), id, stream.GetOptions{})
				if err != nil {
					return WrapExitError(ExitFailure, "get records", err)
				}
			}
			if len(records) == 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("no records for id %q", id))
			}

			views := make([]recordView, len(records))
			for i, r := range records {
				views[i] = viewOf(r, withPayload)
			}
			if opts.Format == "json" {
				return formatter.Success(views)
			}
			var b strings.Builder
			for i, v := range views {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%d\t%s\t%s", v.InternalID, v.TypeOfObject, v.TimestampUTC)
				if v.Payload != "" {
					fmt.Fprintf(&b, "\t%s", v.Payload)
				}
			}
			return formatter.Success(b.String())
		},
	}
	cmd.Flags().BoolVar(&latestOnly, "latest", false, "show only the latest record")
	cmd.Flags().BoolVar(&withPayload, "payload", false, "include payload text")
	return cmd
}
