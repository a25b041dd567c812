package uploads

import (
	"context"
	"fmt"
	"io"
	"regexp"

	"github.com/file-drop/file-drop-backend/pkg/api"
	"github.com/file-drop/file-drop-backend/pkg/dao"
	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/file-drop/file-drop-backend/pkg/instrumentation"
	"github.com/file-drop/file-drop-backend/pkg/models"
	"github.com/file-drop/file-drop-backend/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Session identifiers are client supplied and become staging directory names,
// so the accepted alphabet is strict.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ChunkSubmission is one chunk of a multi-chunk upload as received at the API
// boundary.
type ChunkSubmission struct {
	SessionID        string
	ChunkIndex       int
	TotalChunks      int
	OriginalFilename string
	Payload          io.Reader
}

// UploadCoordinator is the public entry point of the upload pipeline. It
// routes chunk submissions and completion calls to the registry, chunk store
// and reassembler, and owns the non-chunked small-file path.
type UploadCoordinator struct {
	registry    *SessionRegistry
	chunks      *ChunkStore
	reassembler *Reassembler
	artifacts   *storage.ArtifactStore
	dao         dao.FileRecordDao
	metrics     *instrumentation.Metrics
}

func NewUploadCoordinator(registry *SessionRegistry, chunks *ChunkStore, reassembler *Reassembler, artifacts *storage.ArtifactStore, fileRecordDao dao.FileRecordDao, metrics *instrumentation.Metrics) *UploadCoordinator {
	return &UploadCoordinator{
		registry:    registry,
		chunks:      chunks,
		reassembler: reassembler,
		artifacts:   artifacts,
		dao:         fileRecordDao,
		metrics:     metrics,
	}
}

// SubmitChunk admits one chunk: find or create the session, stage the bytes,
// then mark the index received. Resubmitting the same index is idempotent and
// last-write-wins. The staging I/O happens before the session lock is taken;
// the lock only covers the received-set update.
func (c *UploadCoordinator) SubmitChunk(ctx context.Context, submission ChunkSubmission) error {
	if err := validateSubmission(submission); err != nil {
		return err
	}

	session, err := c.registry.GetOrCreate(submission.SessionID, submission.TotalChunks, submission.OriginalFilename)
	if err != nil {
		return err
	}

	written, err := c.chunks.Put(submission.SessionID, submission.ChunkIndex, submission.Payload)
	if err != nil {
		return err
	}
	session.MarkReceived(submission.ChunkIndex)

	if c.metrics != nil {
		c.metrics.ChunksSubmittedTotal.Inc()
	}
	log.Ctx(ctx).Debug().
		Str("session_id", submission.SessionID).
		Int("chunk_index", submission.ChunkIndex).
		Int64("size", written).
		Msg("chunk staged")
	return nil
}

// CompleteUpload reassembles a fully staged session into a FileRecord.
func (c *UploadCoordinator) CompleteUpload(ctx context.Context, sessionID string, originalFilename string, totalChunks int) (api.FileRecordResponse, error) {
	if !sessionIDPattern.MatchString(sessionID) {
		return api.FileRecordResponse{}, &ce.UploadError{Kind: ce.InvalidChunk, Message: fmt.Sprintf("invalid session identifier %q", sessionID)}
	}
	return c.reassembler.Complete(ctx, sessionID, originalFilename, totalChunks)
}

// SubmitSmallFile is the non-chunked path: files at or below the chunk-size
// threshold are stored and recorded directly, bypassing session machinery.
func (c *UploadCoordinator) SubmitSmallFile(ctx context.Context, originalFilename string, payload io.Reader) (api.FileRecordResponse, error) {
	if originalFilename == "" {
		return api.FileRecordResponse{}, &ce.UploadError{Kind: ce.InvalidChunk, Message: "original filename is required"}
	}

	recordUUID := uuid.NewString()
	relPath := c.artifacts.PathFor(recordUUID)

	size, err := c.artifacts.Save(relPath, payload)
	if err != nil {
		return api.FileRecordResponse{}, &ce.UploadError{Kind: ce.ReassemblyFailed, Message: "storing file", Err: err}
	}
	if size == 0 {
		_ = c.artifacts.Delete(relPath)
		return api.FileRecordResponse{}, &ce.UploadError{Kind: ce.InvalidChunk, Message: "file payload is empty"}
	}

	record := models.FileRecord{
		Base:             models.Base{UUID: recordUUID},
		OriginalFilename: originalFilename,
		FileType:         ContentTypeForFilename(originalFilename),
		Size:             size,
		Path:             relPath,
	}
	response, err := c.dao.Create(ctx, &record)
	if err != nil {
		_ = c.artifacts.Delete(relPath)
		return api.FileRecordResponse{}, err
	}

	if c.metrics != nil {
		c.metrics.ArtifactBytesStoredTotal.Add(float64(size))
	}
	log.Ctx(ctx).Info().Str("uuid", recordUUID).Int64("size", size).Msg("file stored")
	return response, nil
}

// DeleteFile removes the record and its stored bytes. The record row goes
// first; a dangling artifact is preferable to a record pointing at nothing.
func (c *UploadCoordinator) DeleteFile(ctx context.Context, recordUUID string) error {
	record, err := c.dao.FetchModel(ctx, recordUUID)
	if err != nil {
		return err
	}
	if err := c.dao.Delete(ctx, recordUUID); err != nil {
		return err
	}
	if err := c.artifacts.Delete(record.Path); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("uuid", recordUUID).Msg("deleting stored artifact failed")
	}
	return nil
}

// OpenFile opens the stored bytes of a record for streaming.
func (c *UploadCoordinator) OpenFile(ctx context.Context, recordUUID string) (models.FileRecord, io.ReadCloser, error) {
	record, err := c.dao.FetchModel(ctx, recordUUID)
	if err != nil {
		return models.FileRecord{}, nil, err
	}
	f, err := c.artifacts.Open(record.Path)
	if err != nil {
		return models.FileRecord{}, nil, &ce.DaoError{NotFound: true, Message: fmt.Sprintf("stored bytes for record %s are unavailable", recordUUID), Err: err}
	}
	return record, f, nil
}

func validateSubmission(submission ChunkSubmission) error {
	if !sessionIDPattern.MatchString(submission.SessionID) {
		return &ce.UploadError{Kind: ce.InvalidChunk, Message: fmt.Sprintf("invalid session identifier %q", submission.SessionID)}
	}
	if submission.OriginalFilename == "" {
		return &ce.UploadError{Kind: ce.InvalidChunk, Message: "original filename is required"}
	}
	if submission.TotalChunks <= 0 {
		return &ce.UploadError{Kind: ce.InvalidChunk, Message: fmt.Sprintf("total chunks must be positive, got %d", submission.TotalChunks)}
	}
	if submission.ChunkIndex < 0 || submission.ChunkIndex >= submission.TotalChunks {
		return &ce.UploadError{Kind: ce.InvalidChunk, Message: fmt.Sprintf("chunk index %d out of range [0, %d)", submission.ChunkIndex, submission.TotalChunks)}
	}
	return nil
}
