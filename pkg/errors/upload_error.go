package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// UploadErrorKind classifies failures of the chunked upload pipeline. The
// kind decides both the HTTP status and whether a client retry can help.
type UploadErrorKind int

const (
	// InvalidChunk covers malformed submissions: empty payloads, negative or
	// out-of-range indices, bad session identifiers. Retrying does not help.
	InvalidChunk UploadErrorKind = iota
	// SessionConflict is raised when a submission reports a different
	// totalChunks or filename than the session recorded.
	SessionConflict
	// SessionNotFound means the session is unknown or already reclaimed; the
	// client should restart the upload.
	SessionNotFound
	// IncompleteUpload is a premature complete call; MissingChunks names the
	// indices still outstanding.
	IncompleteUpload
	// ReassemblyFailed is a downstream storage failure. Staged chunks are kept,
	// so retrying complete without resubmitting chunks is safe.
	ReassemblyFailed
)

type UploadError struct {
	Err           error
	Message       string
	Kind          UploadErrorKind
	MissingChunks []int
}

func (e *UploadError) Error() string {
	msg := e.Message
	if len(e.MissingChunks) > 0 {
		msg = fmt.Sprintf("%s: missing chunk indices %s", msg, joinInts(e.MissingChunks))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

func joinInts(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ", ")
}
