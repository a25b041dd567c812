package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadErrorMessage(t *testing.T) {
	err := UploadError{Kind: IncompleteUpload, Message: "upload session abc is missing 2 of 5 chunks", MissingChunks: []int{1, 3}}
	assert.Equal(t, "upload session abc is missing 2 of 5 chunks: missing chunk indices 1, 3", err.Error())

	wrapped := UploadError{Kind: ReassemblyFailed, Message: "reassembling session abc", Err: fmt.Errorf("disk full")}
	assert.Equal(t, "reassembling session abc: disk full", wrapped.Error())
	assert.Equal(t, "disk full", wrapped.Unwrap().Error())
}

func TestNewRecordNotFoundError(t *testing.T) {
	err := NewRecordNotFoundError("b0287cd3")
	assert.True(t, err.NotFound)
	assert.Equal(t, "Could not find file record with UUID b0287cd3", err.Error())
	assert.Equal(t, http.StatusNotFound, HttpCodeForError(err))
}

func TestHttpCodeForError(t *testing.T) {
	for kind, code := range map[UploadErrorKind]int{
		InvalidChunk:     http.StatusBadRequest,
		SessionConflict:  http.StatusConflict,
		SessionNotFound:  http.StatusNotFound,
		IncompleteUpload: http.StatusConflict,
		ReassemblyFailed: http.StatusInternalServerError,
	} {
		assert.Equal(t, code, HttpCodeForError(&UploadError{Kind: kind}))
	}

	assert.Equal(t, http.StatusNotFound, HttpCodeForError(&DaoError{NotFound: true}))
	assert.Equal(t, http.StatusBadRequest, HttpCodeForError(&DaoError{BadValidation: true}))
	assert.Equal(t, http.StatusInternalServerError, HttpCodeForError(&DaoError{}))
	assert.Equal(t, http.StatusInternalServerError, HttpCodeForError(fmt.Errorf("something else")))
}
