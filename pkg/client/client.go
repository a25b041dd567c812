// Package client is an HTTP client for the file-drop API. It owns the
// client side of chunked uploads: splitting at the configured chunk size,
// transmitting chunks with bounded exponential backoff, and completing the
// session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/file-drop/file-drop-backend/pkg/api"
	ce "github.com/file-drop/file-drop-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

type UploadClient struct {
	// BaseURL is the server root, e.g. "http://localhost:8000".
	BaseURL string
	// ChunkSize is the split size; files at or below it take the plain path.
	ChunkSize int64

	httpClient *retryablehttp.Client
}

func New(baseURL string, chunkSize int64, maxRetries int) *UploadClient {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = maxRetries
	httpClient.Logger = nil
	return &UploadClient{
		BaseURL:    baseURL,
		ChunkSize:  chunkSize,
		httpClient: httpClient,
	}
}

// Upload sends the file at path to the server, chunking it when it exceeds
// the chunk size, and returns the resulting file record.
func (c *UploadClient) Upload(ctx context.Context, path string) (api.FileRecordResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return api.FileRecordResponse{}, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return api.FileRecordResponse{}, errors.Wrap(err, "stating file")
	}

	filename := filepath.Base(path)
	if info.Size() <= c.ChunkSize {
		return c.uploadSmall(ctx, filename, f)
	}
	return c.uploadChunked(ctx, filename, f, info.Size())
}

func (c *UploadClient) uploadSmall(ctx context.Context, filename string, content io.Reader) (api.FileRecordResponse, error) {
	body, contentType, err := multipartFileBody(filename, content, nil)
	if err != nil {
		return api.FileRecordResponse{}, err
	}

	var record api.FileRecordResponse
	err = c.do(ctx, http.MethodPost, "/files/", body, contentType, &record)
	return record, err
}

func (c *UploadClient) uploadChunked(ctx context.Context, filename string, content io.Reader, size int64) (api.FileRecordResponse, error) {
	fileID := uuid.NewString()
	totalChunks := int((size + c.ChunkSize - 1) / c.ChunkSize)

	buf := make([]byte, c.ChunkSize)
	for index := 0; index < totalChunks; index++ {
		n, err := io.ReadFull(content, buf)
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			err = nil
		}
		if err != nil {
			return api.FileRecordResponse{}, errors.Wrapf(err, "reading chunk %d", index)
		}

		// Each chunk request is retried with exponential backoff up to the
		// configured attempt bound; the server is idempotent under retries.
		err = c.submitChunk(ctx, fileID, filename, index, totalChunks, buf[:n])
		if err != nil {
			return api.FileRecordResponse{}, errors.Wrapf(err, "submitting chunk %d of %d", index, totalChunks)
		}
	}

	return c.complete(ctx, fileID, filename, totalChunks)
}

func (c *UploadClient) submitChunk(ctx context.Context, fileID string, filename string, index int, totalChunks int, payload []byte) error {
	fields := map[string]string{
		"fileId":           fileID,
		"chunkIndex":       strconv.Itoa(index),
		"totalChunks":      strconv.Itoa(totalChunks),
		"originalFilename": filename,
	}
	body, contentType, err := multipartFileBody(filename, bytes.NewReader(payload), fields)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/uploads/chunk", body, contentType, nil)
}

func (c *UploadClient) complete(ctx context.Context, fileID string, filename string, totalChunks int) (api.FileRecordResponse, error) {
	reqBody, err := json.Marshal(api.CompleteUploadRequest{
		FileID:           fileID,
		OriginalFilename: filename,
		TotalChunks:      totalChunks,
	})
	if err != nil {
		return api.FileRecordResponse{}, errors.Wrap(err, "encoding complete request")
	}

	var record api.FileRecordResponse
	err = c.do(ctx, http.MethodPost, "/uploads/complete", reqBody, "application/json", &record)
	return record, err
}

// List fetches a page of file records.
func (c *UploadClient) List(ctx context.Context, limit int, offset int) (api.FileRecordCollectionResponse, error) {
	var collection api.FileRecordCollectionResponse
	path := fmt.Sprintf("/files/?limit=%d&offset=%d", limit, offset)
	err := c.do(ctx, http.MethodGet, path, nil, "", &collection)
	return collection, err
}

// Delete removes a file record and its stored bytes.
func (c *UploadClient) Delete(ctx context.Context, recordUUID string) error {
	return c.do(ctx, http.MethodDelete, "/files/"+recordUUID, nil, "", nil)
}

// Download streams the stored bytes of a record into w.
func (c *UploadClient) Download(ctx context.Context, recordUUID string, w io.Writer) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+api.FullRootPath()+"/files/"+recordUUID+"/download", nil)
	if err != nil {
		return errors.Wrap(err, "building download request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "downloading file")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	_, err = io.Copy(w, resp.Body)
	return errors.Wrap(err, "reading download body")
}

func (c *UploadClient) do(ctx context.Context, method string, path string, body []byte, contentType string, out interface{}) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.BaseURL+api.FullRootPath()+path, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

func apiError(resp *http.Response) error {
	var errResp ce.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && len(errResp.Errors) > 0 {
		return errResp
	}
	return errors.Errorf("unexpected status %d", resp.StatusCode)
}

func multipartFileBody(filename string, content io.Reader, fields map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			return nil, "", errors.Wrap(err, "writing form field")
		}
	}

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", errors.Wrap(err, "creating form file")
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", errors.Wrap(err, "writing form file")
	}
	if err := mw.Close(); err != nil {
		return nil, "", errors.Wrap(err, "closing multipart body")
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
