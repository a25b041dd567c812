package api

// SubmitChunkRequest is one chunk of a multi-chunk upload. It arrives as a
// multipart form, with the chunk bytes in the "file" field.
type SubmitChunkRequest struct {
	FileID           string `form:"fileId" validate:"required"`           // Session identifier correlating all chunks of one upload
	ChunkIndex       int    `form:"chunkIndex" validate:"required"`       // Zero-based index of this chunk
	TotalChunks      int    `form:"totalChunks" validate:"required"`      // Fixed chunk count for the whole upload
	OriginalFilename string `form:"originalFilename" validate:"required"` // Filename as supplied by the client
}

type CompleteUploadRequest struct {
	FileID           string `json:"file_id" validate:"required"`           // Session identifier used while submitting chunks
	OriginalFilename string `json:"original_filename" validate:"required"` // Filename as supplied by the client
	TotalChunks      int    `json:"total_chunks" validate:"required"`      // Expected chunk count
}
