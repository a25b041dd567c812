package handler

import (
	"net/http"
	"strconv"

	"github.com/file-drop/file-drop-backend/pkg/api"
	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/file-drop/file-drop-backend/pkg/uploads"
	"github.com/labstack/echo/v4"
)

type UploadsHandler struct {
	Coordinator *uploads.UploadCoordinator
}

func RegisterUploadRoutes(engine *echo.Group, coordinator *uploads.UploadCoordinator) {
	uh := UploadsHandler{Coordinator: coordinator}

	engine.POST("/uploads/chunk", uh.submitChunk)
	engine.POST("/uploads/complete", uh.completeUpload)
}

// submitChunk accepts one chunk of a chunked upload as a multipart form with
// fields file, fileId, chunkIndex, totalChunks and originalFilename.
func (uh *UploadsHandler) submitChunk(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error parsing chunk", "multipart field 'file' is required")
	}

	chunkIndex, err := strconv.Atoi(c.FormValue("chunkIndex"))
	if err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error parsing chunk", "form field 'chunkIndex' must be an integer")
	}
	totalChunks, err := strconv.Atoi(c.FormValue("totalChunks"))
	if err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error parsing chunk", "form field 'totalChunks' must be an integer")
	}
	req := api.SubmitChunkRequest{
		FileID:           c.FormValue("fileId"),
		ChunkIndex:       chunkIndex,
		TotalChunks:      totalChunks,
		OriginalFilename: c.FormValue("originalFilename"),
	}

	src, err := fileHeader.Open()
	if err != nil {
		return ce.NewErrorResponseFromError("Error reading chunk", err)
	}
	defer src.Close()

	err = uh.Coordinator.SubmitChunk(c.Request().Context(), uploads.ChunkSubmission{
		SessionID:        req.FileID,
		ChunkIndex:       req.ChunkIndex,
		TotalChunks:      req.TotalChunks,
		OriginalFilename: req.OriginalFilename,
		Payload:          src,
	})
	if err != nil {
		return ce.NewErrorResponseFromError("Error submitting chunk", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (uh *UploadsHandler) completeUpload(c echo.Context) error {
	var req api.CompleteUploadRequest
	if err := c.Bind(&req); err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error completing upload", err.Error())
	}
	if req.FileID == "" || req.OriginalFilename == "" || req.TotalChunks == 0 {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error completing upload",
			"file_id, original_filename and total_chunks are required")
	}

	record, err := uh.Coordinator.CompleteUpload(c.Request().Context(), req.FileID, req.OriginalFilename, req.TotalChunks)
	if err != nil {
		return ce.NewErrorResponseFromError("Error completing upload", err)
	}
	return c.JSON(http.StatusCreated, record)
}
