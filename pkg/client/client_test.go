package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/file-drop/file-drop-backend/pkg/api"
	"github.com/file-drop/file-drop-backend/pkg/cache"
	"github.com/file-drop/file-drop-backend/pkg/config"
	"github.com/file-drop/file-drop-backend/pkg/dao"
	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/file-drop/file-drop-backend/pkg/handler"
	"github.com/file-drop/file-drop-backend/pkg/models"
	"github.com/file-drop/file-drop-backend/pkg/seeds"
	"github.com/file-drop/file-drop-backend/pkg/storage"
	"github.com/file-drop/file-drop-backend/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ClientSuite struct {
	suite.Suite
	dao       *dao.MockDaoRegistry
	artifacts *storage.ArtifactStore
	server    *httptest.Server
	client    *UploadClient
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.dao = dao.GetMockDaoRegistry(s.T())

	chunks, err := uploads.NewChunkStore(s.T().TempDir())
	s.Require().NoError(err)
	s.artifacts, err = storage.NewArtifactStore(s.T().TempDir())
	s.Require().NoError(err)

	registry := uploads.NewSessionRegistry(chunks, nil)
	reassembler := uploads.NewReassembler(registry, chunks, s.artifacts, &s.dao.FileRecord, nil)
	coordinator := uploads.NewUploadCoordinator(registry, chunks, reassembler, s.artifacts, &s.dao.FileRecord, nil)

	router := echo.New()
	router.HTTPErrorHandler = config.CustomHTTPErrorHandler
	group := router.Group(api.FullRootPath())
	handler.RegisterFileRoutes(group, s.dao.ToDaoRegistry(), coordinator, cache.NewNoOpCache())
	handler.RegisterUploadRoutes(group, coordinator)

	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)

	// 1 KiB chunks keep the chunked path cheap to exercise
	s.client = New(s.server.URL, 1024, 2)
}

// expectCreate wires the dao mock to accept one FileRecord create and hands
// back the captured record.
func (s *ClientSuite) expectCreate() *models.FileRecord {
	captured := &models.FileRecord{}
	s.dao.FileRecord.On("Create", mock.Anything, mock.AnythingOfType("*models.FileRecord")).
		Run(func(args mock.Arguments) {
			record := args.Get(1).(*models.FileRecord)
			*captured = *record
		}).
		Return(api.FileRecordResponse{}, nil).
		Once()
	return captured
}

func (s *ClientSuite) writeTempFile(name string, content []byte) string {
	path := filepath.Join(s.T().TempDir(), name)
	s.Require().NoError(os.WriteFile(path, content, 0600))
	return path
}

func (s *ClientSuite) readArtifact(relPath string) []byte {
	f, err := s.artifacts.Open(relPath)
	s.Require().NoError(err)
	defer f.Close()
	content := &bytes.Buffer{}
	_, err = content.ReadFrom(f)
	s.Require().NoError(err)
	return content.Bytes()
}

func (s *ClientSuite) TestUploadSmallFile() {
	record := s.expectCreate()
	content := []byte("fits in one request")
	path := s.writeTempFile("small.txt", content)

	_, err := s.client.Upload(context.Background(), path)
	assert.NoError(s.T(), err)

	assert.Equal(s.T(), "small.txt", record.OriginalFilename)
	assert.Equal(s.T(), int64(len(content)), record.Size)
	assert.Equal(s.T(), content, s.readArtifact(record.Path))
}

func (s *ClientSuite) TestUploadChunkedFile() {
	record := s.expectCreate()
	// 3.5 chunks worth of bytes forces the chunked path with a short tail
	content := seeds.RandomChunk(3*1024 + 512)
	path := s.writeTempFile("large.bin", content)

	_, err := s.client.Upload(context.Background(), path)
	assert.NoError(s.T(), err)

	assert.Equal(s.T(), "large.bin", record.OriginalFilename)
	assert.Equal(s.T(), int64(len(content)), record.Size)
	assert.Equal(s.T(), content, s.readArtifact(record.Path))
}

func (s *ClientSuite) TestUploadMissingFile() {
	_, err := s.client.Upload(context.Background(), filepath.Join(s.T().TempDir(), "no-such-file"))
	assert.Error(s.T(), err)
}

func (s *ClientSuite) TestList() {
	collection := api.FileRecordCollectionResponse{
		Data: []api.FileRecordResponse{{UUID: "abc", OriginalFilename: "a.txt"}},
	}
	s.dao.FileRecord.On("List", mock.Anything, api.PaginationData{Limit: 50, Offset: 10}, api.FilterData{}).
		Return(collection, int64(1), nil).Once()

	response, err := s.client.List(context.Background(), 50, 10)
	assert.NoError(s.T(), err)
	assert.Len(s.T(), response.Data, 1)
	assert.Equal(s.T(), "a.txt", response.Data[0].OriginalFilename)
}

func (s *ClientSuite) TestDownload() {
	record := s.expectCreate()
	content := seeds.RandomChunk(2048)
	path := s.writeTempFile("blob.bin", content)
	_, err := s.client.Upload(context.Background(), path)
	s.Require().NoError(err)

	s.dao.FileRecord.On("FetchModel", mock.Anything, record.UUID).Return(*record, nil).Once()

	downloaded := &bytes.Buffer{}
	err = s.client.Download(context.Background(), record.UUID, downloaded)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), content, downloaded.Bytes())
}

func (s *ClientSuite) TestDelete() {
	record := s.expectCreate()
	path := s.writeTempFile("doomed.txt", []byte("doomed"))
	_, err := s.client.Upload(context.Background(), path)
	s.Require().NoError(err)

	s.dao.FileRecord.On("FetchModel", mock.Anything, record.UUID).Return(*record, nil).Once()
	s.dao.FileRecord.On("Delete", mock.Anything, record.UUID).Return(nil).Once()

	assert.NoError(s.T(), s.client.Delete(context.Background(), record.UUID))
	_, err = s.artifacts.Open(record.Path)
	assert.Error(s.T(), err)
}

func (s *ClientSuite) TestServerErrorsSurfaceAsErrorResponse() {
	recordUUID := "1e9f5e27-4b8e-4e53-91f0-4f8c1a0a1a9b"
	daoError := ce.DaoError{NotFound: true, Message: "Could not find file record"}
	s.dao.FileRecord.On("FetchModel", mock.Anything, recordUUID).Return(models.FileRecord{}, &daoError).Once()

	err := s.client.Download(context.Background(), recordUUID, &bytes.Buffer{})
	assert.Error(s.T(), err)

	errResp := ce.ErrorResponse{}
	assert.ErrorAs(s.T(), err, &errResp)
	assert.Equal(s.T(), http.StatusNotFound, errResp.Errors[0].Status)
}
