// Package uploads implements the chunked upload pipeline: chunk staging,
// per-session bookkeeping, reassembly into artifact storage, and background
// reclamation of abandoned sessions.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/pkg/errors"
)

// ChunkStore stages chunk payloads on disk, one directory per session, one
// file per chunk index. Chunks are retrievable independently by index.
type ChunkStore struct {
	root string
}

func NewChunkStore(root string) (*ChunkStore, error) {
	if root == "" {
		return nil, errors.New("chunk staging root cannot be blank")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrap(err, "creating chunk staging root")
	}
	return &ChunkStore{root: root}, nil
}

func (s *ChunkStore) sessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

func (s *ChunkStore) chunkPath(sessionID string, index int) string {
	return filepath.Join(s.sessionDir(sessionID), fmt.Sprintf("%08d.chunk", index))
}

// Put stages one chunk. A repeated put for the same (session, index) replaces
// the prior bytes: the payload lands in a temp file and is renamed over the
// chunk path, so concurrent same-key writers leave one writer's bytes intact,
// never an interleaving. Empty payloads and negative indices are rejected.
func (s *ChunkStore) Put(sessionID string, index int, payload io.Reader) (int64, error) {
	if index < 0 {
		return 0, &ce.UploadError{Kind: ce.InvalidChunk, Message: fmt.Sprintf("chunk index %d is negative", index)}
	}

	dir := s.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, errors.Wrap(err, "creating session staging directory")
	}

	tmp, err := os.CreateTemp(dir, "put-*.tmp")
	if err != nil {
		return 0, errors.Wrap(err, "creating chunk temp file")
	}

	written, err := io.Copy(tmp, payload)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return 0, errors.Wrap(err, "writing chunk payload")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, errors.Wrap(err, "closing chunk temp file")
	}

	if written == 0 {
		_ = os.Remove(tmp.Name())
		return 0, &ce.UploadError{Kind: ce.InvalidChunk, Message: "chunk payload is empty"}
	}

	if err := os.Rename(tmp.Name(), s.chunkPath(sessionID, index)); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, errors.Wrap(err, "renaming chunk into place")
	}
	return written, nil
}

// Get opens the staged chunk for reading. The caller closes it.
func (s *ChunkStore) Get(sessionID string, index int) (*os.File, error) {
	f, err := os.Open(s.chunkPath(sessionID, index))
	if err != nil {
		return nil, errors.Wrapf(err, "opening chunk %d of session %s", index, sessionID)
	}
	return f, nil
}

// Purge deletes all staged chunks of a session. Purging an unknown session is
// a no-op.
func (s *ChunkStore) Purge(sessionID string) error {
	if err := os.RemoveAll(s.sessionDir(sessionID)); err != nil {
		return errors.Wrapf(err, "purging chunks of session %s", sessionID)
	}
	return nil
}

// StaleSessions lists session directories whose latest modification is older
// than maxAge. The sweeper uses it to reclaim staging left behind by a failed
// post-completion purge or a previous process.
func (s *ChunkStore) StaleSessions(maxAge time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrap(err, "listing chunk staging root")
	}

	var stale []string
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, entry.Name())
		}
	}
	return stale, nil
}
