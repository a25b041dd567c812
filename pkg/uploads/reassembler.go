package uploads

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/file-drop/file-drop-backend/pkg/api"
	"github.com/file-drop/file-drop-backend/pkg/dao"
	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/file-drop/file-drop-backend/pkg/instrumentation"
	"github.com/file-drop/file-drop-backend/pkg/models"
	"github.com/file-drop/file-drop-backend/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Reassembler turns a fully staged session into a durable FileRecord. No
// partial artifact is ever emitted: every chunk must be present before a
// single byte is concatenated.
type Reassembler struct {
	registry  *SessionRegistry
	chunks    *ChunkStore
	artifacts *storage.ArtifactStore
	dao       dao.FileRecordDao
	metrics   *instrumentation.Metrics
}

func NewReassembler(registry *SessionRegistry, chunks *ChunkStore, artifacts *storage.ArtifactStore, fileRecordDao dao.FileRecordDao, metrics *instrumentation.Metrics) *Reassembler {
	return &Reassembler{
		registry:  registry,
		chunks:    chunks,
		artifacts: artifacts,
		dao:       fileRecordDao,
		metrics:   metrics,
	}
}

// Complete validates the session, concatenates its chunks in strict ascending
// index order, persists the FileRecord, and tears down the session.
//
// The whole operation runs under the session lock. That serializes racing
// completes (exactly one wins, the loser observes SessionNotFound) and keeps
// the sweeper away mid-concatenation; the I/O covered by the lock is local
// disk only.
func (r *Reassembler) Complete(ctx context.Context, sessionID string, originalFilename string, expectedTotalChunks int) (api.FileRecordResponse, error) {
	session, err := r.registry.Get(sessionID)
	if err != nil {
		return api.FileRecordResponse{}, err
	}

	session.Lock()
	defer session.Unlock()

	if session.finishedLocked() {
		return api.FileRecordResponse{}, &ce.UploadError{Kind: ce.SessionNotFound, Message: fmt.Sprintf("upload session %s is already completed or reclaimed", sessionID)}
	}
	if session.TotalChunks != expectedTotalChunks {
		return api.FileRecordResponse{}, &ce.UploadError{
			Kind:    ce.SessionConflict,
			Message: fmt.Sprintf("session %s expects %d chunks, completion reports %d", sessionID, session.TotalChunks, expectedTotalChunks),
		}
	}
	if session.OriginalFilename != originalFilename {
		return api.FileRecordResponse{}, &ce.UploadError{
			Kind:    ce.SessionConflict,
			Message: fmt.Sprintf("session %s was registered for %q, completion reports %q", sessionID, session.OriginalFilename, originalFilename),
		}
	}
	if missing := session.missingLocked(); len(missing) > 0 {
		return api.FileRecordResponse{}, &ce.UploadError{
			Kind:          ce.IncompleteUpload,
			Message:       fmt.Sprintf("upload session %s is missing %d of %d chunks", sessionID, len(missing), session.TotalChunks),
			MissingChunks: missing,
		}
	}

	recordUUID := uuid.NewString()
	relPath := r.artifacts.PathFor(recordUUID)

	size, err := r.concatenate(session, relPath)
	if err != nil {
		r.countFailure("reassembly")
		return api.FileRecordResponse{}, &ce.UploadError{Kind: ce.ReassemblyFailed, Message: fmt.Sprintf("reassembling session %s", sessionID), Err: err}
	}

	record := models.FileRecord{
		Base:             models.Base{UUID: recordUUID},
		OriginalFilename: originalFilename,
		FileType:         ContentTypeForFilename(originalFilename),
		Size:             size,
		Path:             relPath,
	}
	response, err := r.dao.Create(ctx, &record)
	if err != nil {
		_ = r.artifacts.Delete(relPath)
		r.countFailure("record_store")
		return api.FileRecordResponse{}, &ce.UploadError{Kind: ce.ReassemblyFailed, Message: fmt.Sprintf("storing file record for session %s", sessionID), Err: err}
	}

	// The FileRecord is durable from here on; cleanup failures must not roll
	// it back. A failed purge is retried by the sweeper's orphan scan.
	session.finishLocked()
	if err := r.chunks.Purge(sessionID); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("purging staged chunks after completion failed")
	}
	r.registry.Remove(sessionID)

	if r.metrics != nil {
		r.metrics.UploadsCompletedTotal.Inc()
		r.metrics.ArtifactBytesStoredTotal.Add(float64(size))
	}
	log.Ctx(ctx).Info().
		Str("session_id", sessionID).
		Str("uuid", recordUUID).
		Int64("size", size).
		Msg("upload reassembled")
	return response, nil
}

// concatenate streams chunks 0..TotalChunks-1 into a staged artifact and
// commits it. On any failure the staged write is discarded and the session's
// chunks are left intact so a retried complete needs no re-upload.
func (r *Reassembler) concatenate(session *UploadSession, relPath string) (int64, error) {
	w, err := r.artifacts.Create(relPath)
	if err != nil {
		return 0, err
	}

	for index := 0; index < session.TotalChunks; index++ {
		chunk, err := r.chunks.Get(session.ID, index)
		if err != nil {
			w.Abort()
			return 0, err
		}
		_, err = io.Copy(w, chunk)
		_ = chunk.Close()
		if err != nil {
			w.Abort()
			return 0, err
		}
	}

	if err := w.Commit(); err != nil {
		return 0, err
	}
	return w.Size(), nil
}

func (r *Reassembler) countFailure(reason string) {
	if r.metrics != nil {
		r.metrics.UploadsFailedTotal.WithLabelValues(reason).Inc()
	}
}

// ContentTypeForFilename guesses a content type from the filename extension.
func ContentTypeForFilename(filename string) string {
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
