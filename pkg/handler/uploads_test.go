package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/file-drop/file-drop-backend/pkg/api"
	"github.com/file-drop/file-drop-backend/pkg/config"
	"github.com/file-drop/file-drop-backend/pkg/dao"
	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/file-drop/file-drop-backend/pkg/storage"
	"github.com/file-drop/file-drop-backend/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type UploadsSuite struct {
	suite.Suite
	dao         *dao.MockDaoRegistry
	coordinator *uploads.UploadCoordinator
}

func TestUploadsSuite(t *testing.T) {
	suite.Run(t, new(UploadsSuite))
}

func (s *UploadsSuite) SetupTest() {
	s.dao = dao.GetMockDaoRegistry(s.T())

	chunks, err := uploads.NewChunkStore(s.T().TempDir())
	s.Require().NoError(err)
	artifacts, err := storage.NewArtifactStore(s.T().TempDir())
	s.Require().NoError(err)

	registry := uploads.NewSessionRegistry(chunks, nil)
	reassembler := uploads.NewReassembler(registry, chunks, artifacts, &s.dao.FileRecord, nil)
	s.coordinator = uploads.NewUploadCoordinator(registry, chunks, reassembler, artifacts, &s.dao.FileRecord, nil)
}

func (s *UploadsSuite) serveUploadsRouter(req *http.Request) (int, []byte, error) {
	router := echo.New()
	router.HTTPErrorHandler = config.CustomHTTPErrorHandler
	pathPrefix := router.Group(api.FullRootPath())

	RegisterUploadRoutes(pathPrefix, s.coordinator)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	response := rr.Result()
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	return response.StatusCode, body, err
}

func (s *UploadsSuite) submitChunk(fileID string, index string, total string, filename string, content string) (int, []byte) {
	body, contentType := multipartBody(s.T(), "file", filename, content, map[string]string{
		"fileId":           fileID,
		"chunkIndex":       index,
		"totalChunks":      total,
		"originalFilename": filename,
	})
	req := httptest.NewRequest(http.MethodPost, api.FullRootPath()+"/uploads/chunk", body)
	req.Header.Set(echo.HeaderContentType, contentType)

	code, respBody, err := s.serveUploadsRouter(req)
	assert.Nil(s.T(), err)
	return code, respBody
}

func (s *UploadsSuite) completeUpload(request api.CompleteUploadRequest) (int, []byte) {
	body, err := json.Marshal(request)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, api.FullRootPath()+"/uploads/complete", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	code, respBody, err := s.serveUploadsRouter(req)
	assert.Nil(s.T(), err)
	return code, respBody
}

func (s *UploadsSuite) TestSubmitChunk() {
	code, _ := s.submitChunk("upload-abc", "0", "3", "data.bin", "AAA")
	assert.Equal(s.T(), http.StatusNoContent, code)
}

func (s *UploadsSuite) TestSubmitChunkBadIndex() {
	code, body := s.submitChunk("upload-abc", "not-a-number", "3", "data.bin", "AAA")
	assert.Equal(s.T(), http.StatusBadRequest, code)

	response := ce.ErrorResponse{}
	assert.Nil(s.T(), json.Unmarshal(body, &response))
	assert.Contains(s.T(), response.Errors[0].Detail, "chunkIndex")
}

func (s *UploadsSuite) TestSubmitChunkOutOfRangeIndex() {
	code, _ := s.submitChunk("upload-abc", "3", "3", "data.bin", "AAA")
	assert.Equal(s.T(), http.StatusBadRequest, code)
}

func (s *UploadsSuite) TestSubmitChunkMissingFilePart() {
	req := httptest.NewRequest(http.MethodPost, api.FullRootPath()+"/uploads/chunk", strings.NewReader(""))
	req.Header.Set(echo.HeaderContentType, "multipart/form-data; boundary=xxx")

	code, _, err := s.serveUploadsRouter(req)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), http.StatusBadRequest, code)
}

func (s *UploadsSuite) TestSubmitChunkConflictingTotals() {
	code, _ := s.submitChunk("upload-abc", "0", "3", "data.bin", "AAA")
	assert.Equal(s.T(), http.StatusNoContent, code)

	code, _ = s.submitChunk("upload-abc", "1", "4", "data.bin", "BBB")
	assert.Equal(s.T(), http.StatusConflict, code)
}

func (s *UploadsSuite) TestCompleteUpload() {
	s.dao.FileRecord.On("Create", mock.Anything, mock.AnythingOfType("*models.FileRecord")).
		Return(api.FileRecordResponse{OriginalFilename: "data.bin", Size: 9}, nil).Once()

	for index, payload := range []string{"AAA", "BBB", "CCC"} {
		code, _ := s.submitChunk("upload-abc", strconv.Itoa(index), "3", "data.bin", payload)
		assert.Equal(s.T(), http.StatusNoContent, code)
	}

	code, body := s.completeUpload(api.CompleteUploadRequest{
		FileID:           "upload-abc",
		OriginalFilename: "data.bin",
		TotalChunks:      3,
	})
	assert.Equal(s.T(), http.StatusCreated, code)

	response := api.FileRecordResponse{}
	assert.Nil(s.T(), json.Unmarshal(body, &response))
	assert.Equal(s.T(), int64(9), response.Size)
}

func (s *UploadsSuite) TestCompleteUploadIncomplete() {
	for _, index := range []string{"0", "1", "2", "4"} {
		code, _ := s.submitChunk("upload-abc", index, "5", "data.bin", "x")
		assert.Equal(s.T(), http.StatusNoContent, code)
	}

	code, body := s.completeUpload(api.CompleteUploadRequest{
		FileID:           "upload-abc",
		OriginalFilename: "data.bin",
		TotalChunks:      5,
	})
	assert.Equal(s.T(), http.StatusConflict, code)

	response := ce.ErrorResponse{}
	assert.Nil(s.T(), json.Unmarshal(body, &response))
	assert.Contains(s.T(), response.Errors[0].Detail, "missing chunk indices 3")
}

func (s *UploadsSuite) TestCompleteUploadUnknownSession() {
	code, _ := s.completeUpload(api.CompleteUploadRequest{
		FileID:           "never-created",
		OriginalFilename: "data.bin",
		TotalChunks:      3,
	})
	assert.Equal(s.T(), http.StatusNotFound, code)
}

func (s *UploadsSuite) TestCompleteUploadMissingFields() {
	code, _ := s.completeUpload(api.CompleteUploadRequest{OriginalFilename: "data.bin"})
	assert.Equal(s.T(), http.StatusBadRequest, code)
}
