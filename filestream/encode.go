package filestream

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/strandkit/strand/record"
)

// The file backend persists record and handling-entry identity in file
// names. Everything in this file is effectively a bespoke serialization
// format: change nothing without a round-trip test.

const (
	// fieldSeparator separates the fields of a record or entry file name.
	fieldSeparator = "___"

	// nullIDToken stands in for a nil string-serialized id.
	nullIDToken = "null"

	// metaExtension is the extension of metadata sibling files.
	metaExtension = "meta"

	// timestampColonToken replaces ':' in timestamps, which is illegal in
	// file names on some platforms.
	timestampColonToken = "--"

	// timestampLayout is RFC 3339 with nanoseconds, before colon
	// substitution.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// escapeTokens maps characters that are illegal in path segments on at
// least one supported platform to reversible tokens. Longest-token
// substitution keeps the mapping unambiguous because no token's content
// appears in another.
var escapeTokens = []struct {
	raw   string
	token string
}{
	{`:`, "___colon___"},
	{`/`, "___slash___"},
	{`\`, "___backslash___"},
	{`*`, "___star___"},
	{`?`, "___question___"},
	{`<`, "___lt___"},
	{`>`, "___gt___"},
	{`|`, "___pipe___"},
	{`"`, "___quote___"},
}

// EscapePathSegment substitutes illegal path characters with their tokens.
// Reversible via UnescapePathSegment.
func EscapePathSegment(s string) string {
	for _, e := range escapeTokens {
		s = strings.ReplaceAll(s, e.raw, e.token)
	}
	return s
}

// UnescapePathSegment is the inverse of EscapePathSegment.
func UnescapePathSegment(s string) string {
	for i := len(escapeTokens) - 1; i >= 0; i-- {
		s = strings.ReplaceAll(s, escapeTokens[i].token, escapeTokens[i].raw)
	}
	return s
}

// encodeTimestamp renders a UTC timestamp for embedding in a file name,
// with ':' replaced so the name is legal everywhere.
func encodeTimestamp(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format(timestampLayout), ":", timestampColonToken)
}

// decodeTimestamp is the inverse of encodeTimestamp.
func decodeTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, strings.ReplaceAll(s, timestampColonToken, ":"))
	if err != nil {
		return time.Time{}, fmt.Errorf("decode timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// idEncoding is url-safe base64 with '_' swapped for '~': the standard
// url-safe alphabet contains '_', which would collide with the field
// separator.
var idEncoding = base64.NewEncoding(
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-~",
).WithPadding(base64.NoPadding)

// encodeStringID renders a string-serialized id url-safely, or the null
// token when the id is nil.
func encodeStringID(id *string) string {
	if id == nil {
		return nullIDToken
	}
	return idEncoding.EncodeToString([]byte(*id))
}

// decodeStringID is the inverse of encodeStringID.
func decodeStringID(s string) (*string, error) {
	if s == nullIDToken {
		return nil, nil
	}
	raw, err := idEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode string id %q: %w", s, err)
	}
	id := string(raw)
	return &id, nil
}

// recordFileName is the parsed identity a record payload file name
// carries.
type recordFileName struct {
	InternalID   int64
	TimestampUTC time.Time
	StringID     *string
	Kind         record.SerializerKind
}

// encodeRecordFileName renders a record payload file name:
//
//	{id:D10}___{timestamp}___{urlsafe id or "null"}.{ext}
func encodeRecordFileName(internalID int64, timestampUTC time.Time, stringID *string, kind record.SerializerKind) (string, error) {
	ext, err := kind.FileExtension()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%010d%s%s%s%s.%s",
		internalID, fieldSeparator,
		encodeTimestamp(timestampUTC), fieldSeparator,
		encodeStringID(stringID), ext), nil
}

// decodeRecordFileName is the inverse of encodeRecordFileName.
func decodeRecordFileName(name string) (recordFileName, error) {
	// The timestamp field contains a dot, so the extension starts at the
	// last dot, not the first.
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return recordFileName{}, fmt.Errorf("record file name %q: missing extension", name)
	}
	stem, ext := name[:dot], name[dot+1:]
	kind, err := record.ParseSerializerKindExtension(ext)
	if err != nil {
		return recordFileName{}, fmt.Errorf("record file name %q: %w", name, err)
	}
	fields := strings.Split(stem, fieldSeparator)
	if len(fields) != 3 {
		return recordFileName{}, fmt.Errorf("record file name %q: want 3 fields, got %d", name, len(fields))
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return recordFileName{}, fmt.Errorf("record file name %q: %w", name, err)
	}
	ts, err := decodeTimestamp(fields[1])
	if err != nil {
		return recordFileName{}, fmt.Errorf("record file name %q: %w", name, err)
	}
	stringID, err := decodeStringID(fields[2])
	if err != nil {
		return recordFileName{}, fmt.Errorf("record file name %q: %w", name, err)
	}
	return recordFileName{InternalID: id, TimestampUTC: ts, StringID: stringID, Kind: kind}, nil
}

// entryFileName is the parsed identity a handling-entry file name carries.
type entryFileName struct {
	InternalEntryID  int64
	TimestampUTC     time.Time
	InternalRecordID int64
	StringID         *string
	Status           record.HandlingStatus
}

// encodeEntryFileName renders a handling entry file name:
//
//	{entryId:D10}___{timestamp}___Id-{recordId:D10}___ExtId-{urlsafe id}___Status-{status}.json
func encodeEntryFileName(e entryFileName) string {
	return fmt.Sprintf("%010d%s%s%sId-%010d%sExtId-%s%sStatus-%s.json",
		e.InternalEntryID, fieldSeparator,
		encodeTimestamp(e.TimestampUTC), fieldSeparator,
		e.InternalRecordID, fieldSeparator,
		encodeStringID(e.StringID), fieldSeparator,
		e.Status.String())
}

// decodeEntryFileName is the inverse of encodeEntryFileName.
func decodeEntryFileName(name string) (entryFileName, error) {
	stem, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return entryFileName{}, fmt.Errorf("entry file name %q: want .json extension", name)
	}
	fields := strings.Split(stem, fieldSeparator)
	if len(fields) != 5 {
		return entryFileName{}, fmt.Errorf("entry file name %q: want 5 fields, got %d", name, len(fields))
	}
	entryID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return entryFileName{}, fmt.Errorf("entry file name %q: %w", name, err)
	}
	ts, err := decodeTimestamp(fields[1])
	if err != nil {
		return entryFileName{}, fmt.Errorf("entry file name %q: %w", name, err)
	}
	recordField, ok := strings.CutPrefix(fields[2], "Id-")
	if !ok {
		return entryFileName{}, fmt.Errorf("entry file name %q: want Id- field", name)
	}
	recordID, err := strconv.ParseInt(recordField, 10, 64)
	if err != nil {
		return entryFileName{}, fmt.Errorf("entry file name %q: %w", name, err)
	}
	idField, ok := strings.CutPrefix(fields[3], "ExtId-")
	if !ok {
		return entryFileName{}, fmt.Errorf("entry file name %q: want ExtId- field", name)
	}
	stringID, err := decodeStringID(idField)
	if err != nil {
		return entryFileName{}, fmt.Errorf("entry file name %q: %w", name, err)
	}
	statusField, ok := strings.CutPrefix(fields[4], "Status-")
	if !ok {
		return entryFileName{}, fmt.Errorf("entry file name %q: want Status- field", name)
	}
	status, err := record.ParseHandlingStatus(statusField)
	if err != nil {
		return entryFileName{}, fmt.Errorf("entry file name %q: %w", name, err)
	}
	return entryFileName{
		InternalEntryID:  entryID,
		TimestampUTC:     ts,
		InternalRecordID: recordID,
		StringID:         stringID,
		Status:           status,
	}, nil
}

// metaFileNameFor returns the metadata sibling's name for a payload file
// name.
func metaFileNameFor(payloadName string) string {
	stem := payloadName
	if i := strings.LastIndexByte(payloadName, '.'); i >= 0 {
		stem = payloadName[:i]
	}
	return stem + "." + metaExtension
}
