package uploads

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkStoreBlankRoot(t *testing.T) {
	_, err := NewChunkStore("")
	assert.Error(t, err)
}

func TestChunkStorePutGet(t *testing.T) {
	store, err := NewChunkStore(t.TempDir())
	require.NoError(t, err)

	written, err := store.Put("session-a", 0, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), written)

	f, err := store.Get("session-a", 0)
	require.NoError(t, err)
	defer f.Close()
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestChunkStorePutReplacesPriorBytes(t *testing.T) {
	store, err := NewChunkStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put("session-a", 2, strings.NewReader("first"))
	require.NoError(t, err)
	_, err = store.Put("session-a", 2, strings.NewReader("second"))
	require.NoError(t, err)

	f, err := store.Get("session-a", 2)
	require.NoError(t, err)
	defer f.Close()
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))
}

func TestChunkStorePutRejectsNegativeIndex(t *testing.T) {
	store, err := NewChunkStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put("session-a", -1, strings.NewReader("x"))
	require.Error(t, err)
	uploadErr := &ce.UploadError{}
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, ce.InvalidChunk, uploadErr.Kind)
}

func TestChunkStorePutRejectsEmptyPayload(t *testing.T) {
	store, err := NewChunkStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put("session-a", 0, bytes.NewReader(nil))
	require.Error(t, err)
	uploadErr := &ce.UploadError{}
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, ce.InvalidChunk, uploadErr.Kind)

	_, err = store.Get("session-a", 0)
	assert.Error(t, err)
}

func TestChunkStorePurge(t *testing.T) {
	store, err := NewChunkStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put("session-a", 0, strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, store.Purge("session-a"))
	_, err = store.Get("session-a", 0)
	assert.Error(t, err)

	// unknown session is a no-op
	assert.NoError(t, store.Purge("never-existed"))
}

func TestChunkStoreStaleSessions(t *testing.T) {
	root := t.TempDir()
	store, err := NewChunkStore(root)
	require.NoError(t, err)

	_, err = store.Put("old-session", 0, strings.NewReader("x"))
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.sessionDir("old-session"), past, past))

	_, err = store.Put("fresh-session", 0, strings.NewReader("x"))
	require.NoError(t, err)

	stale, err := store.StaleSessions(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old-session"}, stale)
}
