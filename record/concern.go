package record

const (
	// RecordHandlingConcern is the default per-record work queue.
	RecordHandlingConcern = "record-handling"

	// StreamHandlingDisabledConcern is the reserved concern under which
	// stream-wide disable/enable entries are recorded, always against
	// GlobalBlockingRecordID.
	StreamHandlingDisabledConcern = "stream-handling-disabled"

	// RecordHandlingDisabledConcern is the reserved concern under which
	// per-record disable entries are recorded. Its entries are merged with
	// the requested concern's entries when deriving a record's current
	// status.
	RecordHandlingDisabledConcern = "record-handling-disabled"
)

// GlobalBlockingRecordID is the sentinel record id for handling entries that
// apply to the whole stream rather than one record.
const GlobalBlockingRecordID int64 = 0

// IsReservedConcern reports whether the concern name is reserved for gate
// bookkeeping and therefore not claimable by TryHandleRecord.
func IsReservedConcern(concern string) bool {
	return concern == StreamHandlingDisabledConcern || concern == RecordHandlingDisabledConcern
}
