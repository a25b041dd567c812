package uploads

import (
	"context"
	"strings"
	"testing"
	"time"

	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestRegistry(t *testing.T) (*SessionRegistry, *ChunkStore) {
	chunks, err := NewChunkStore(t.TempDir())
	require.NoError(t, err)
	return NewSessionRegistry(chunks, nil), chunks
}

func TestRegistryGetOrCreate(t *testing.T) {
	registry, _ := newTestRegistry(t)

	created, err := registry.GetOrCreate("session-a", 3, "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, 1, registry.Len())

	found, err := registry.GetOrCreate("session-a", 3, "report.pdf")
	require.NoError(t, err)
	assert.Same(t, created, found)
	assert.Equal(t, 1, registry.Len())
}

func TestRegistryGetOrCreateConflicts(t *testing.T) {
	registry, _ := newTestRegistry(t)

	_, err := registry.GetOrCreate("session-a", 3, "report.pdf")
	require.NoError(t, err)

	_, err = registry.GetOrCreate("session-a", 4, "report.pdf")
	uploadErr := &ce.UploadError{}
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, ce.SessionConflict, uploadErr.Kind)

	_, err = registry.GetOrCreate("session-a", 3, "other.pdf")
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, ce.SessionConflict, uploadErr.Kind)
}

func TestRegistryGetUnknown(t *testing.T) {
	registry, _ := newTestRegistry(t)

	_, err := registry.Get("never-created")
	uploadErr := &ce.UploadError{}
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, ce.SessionNotFound, uploadErr.Kind)
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	registry, _ := newTestRegistry(t)

	_, err := registry.GetOrCreate("session-a", 1, "a.txt")
	require.NoError(t, err)

	registry.Remove("session-a")
	assert.Equal(t, 0, registry.Len())
	registry.Remove("session-a")
	assert.Equal(t, 0, registry.Len())
}

func TestSweepExpiredReclaimsIdleSessions(t *testing.T) {
	registry, chunks := newTestRegistry(t)
	ctx := context.Background()

	_, err := registry.GetOrCreate("abandoned", 2, "a.txt")
	require.NoError(t, err)
	_, err = chunks.Put("abandoned", 0, strings.NewReader("x"))
	require.NoError(t, err)

	// maxAge zero makes every idle session immediately expired
	swept := registry.SweepExpired(ctx, 0)
	assert.Equal(t, 1, swept)
	assert.Equal(t, 0, registry.Len())

	_, err = chunks.Get("abandoned", 0)
	assert.Error(t, err)

	_, err = registry.Get("abandoned")
	uploadErr := &ce.UploadError{}
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, ce.SessionNotFound, uploadErr.Kind)
}

func TestSweepExpiredSkipsFreshSessions(t *testing.T) {
	registry, _ := newTestRegistry(t)

	session, err := registry.GetOrCreate("active", 2, "a.txt")
	require.NoError(t, err)
	session.MarkReceived(0)

	swept := registry.SweepExpired(context.Background(), time.Hour)
	assert.Equal(t, 0, swept)
	assert.Equal(t, 1, registry.Len())
}

func TestSweepExpiredPurgesOrphanedStaging(t *testing.T) {
	registry, chunks := newTestRegistry(t)

	// staged chunks with no live session, as left behind by a crashed process
	_, err := chunks.Put("orphan", 0, strings.NewReader("x"))
	require.NoError(t, err)

	swept := registry.SweepExpired(context.Background(), 0)
	assert.Equal(t, 0, swept)

	stale, err := chunks.StaleSessions(0)
	require.NoError(t, err)
	assert.Empty(t, stale)
}

func TestStartSweeperStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	registry, _ := newTestRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		registry.StartSweeper(ctx, time.Millisecond, time.Hour)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
